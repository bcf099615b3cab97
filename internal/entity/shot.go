package entity

import "time"

// ShotMetrics is the fixed seven-field schema extracted from a launch
// monitor display. Each field is independently present-or-absent; a nil
// pointer means the provider did not report that value. Units maps a field
// name or category to its unit string, copied verbatim from the provider.
type ShotMetrics struct {
	BallSpeed     *float64          `json:"ball_speed"`
	LaunchAngle   *float64          `json:"launch_angle"`
	SpinRate      *float64          `json:"spin_rate"`
	CarryDistance *float64          `json:"carry_distance"`
	ClubSpeed     *float64          `json:"club_speed"`
	SmashFactor   *float64          `json:"smash_factor"`
	ApexHeight    *float64          `json:"apex_height"`
	Units         map[string]string `json:"units,omitempty"`
}

// Fields returns the seven metric pointers keyed by their schema names.
func (m *ShotMetrics) Fields() map[string]*float64 {
	return map[string]*float64{
		"ball_speed":     m.BallSpeed,
		"launch_angle":   m.LaunchAngle,
		"spin_rate":      m.SpinRate,
		"carry_distance": m.CarryDistance,
		"club_speed":     m.ClubSpeed,
		"smash_factor":   m.SmashFactor,
		"apex_height":    m.ApexHeight,
	}
}

// ShotRecord is one persisted extraction. Records are created only for
// persistent identities, are immutable once written, and are never deleted
// here.
type ShotRecord struct {
	ID        string      `json:"id"`
	Owner     string      `json:"owner"`
	CreatedAt time.Time   `json:"created_at"`
	Metrics   ShotMetrics `json:"metrics"`
}
