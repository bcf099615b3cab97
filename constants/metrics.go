package constants

// MetricKeys lists the seven shot metric fields, in display order. Provider
// output is projected onto exactly these keys; everything else is discarded.
var MetricKeys = []string{
	"ball_speed",
	"launch_angle",
	"spin_rate",
	"carry_distance",
	"club_speed",
	"smash_factor",
	"apex_height",
}

// UnitsKey is the optional sub-object carrying unit strings per field.
const UnitsKey = "units"

// Provider labels, in priority order (fastest/cheapest first).
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Daily extraction limits and the global per-request time budget.
const (
	DefaultDailyLimitAuth = 20
	DefaultDailyLimitAnon = 3
	DefaultBudgetMS       = 2000
)

// IsMetricKey reports whether k is one of the seven schema keys.
func IsMetricKey(k string) bool {
	for _, mk := range MetricKeys {
		if mk == k {
			return true
		}
	}
	return false
}
