package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS shots (
	id             TEXT PRIMARY KEY,
	owner          TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	ball_speed     REAL,
	launch_angle   REAL,
	spin_rate      REAL,
	carry_distance REAL,
	club_speed     REAL,
	smash_factor   REAL,
	apex_height    REAL,
	units          TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_shots_owner ON shots (owner, created_at);
`

// SQLiteStore is the default persistent ledger. Appends are plain INSERTs
// (no read-modify-write), and the single write connection serializes them;
// the PRIMARY KEY on id means an id collision fails loudly instead of
// overwriting a record.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create ledger dir: %v", common.ErrStorage, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", common.ErrStorage, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: sqlite pragma: %v", common.ErrStorage, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: sqlite migrate: %v", common.ErrStorage, err)
	}

	logger.Info("ledger.sqlite.open", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, owner entity.Identity, m entity.ShotMetrics) (string, error) {
	if err := checkOwner(owner); err != nil {
		return "", err
	}

	id := uuid.New().String()
	units, err := json.Marshal(m.Units)
	if err != nil {
		return "", fmt.Errorf("%w: encode units: %v", common.ErrStorage, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shots (id, owner, created_at,
			ball_speed, launch_angle, spin_rate, carry_distance,
			club_speed, smash_factor, apex_height, units)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner.Key, time.Now().UTC(),
		nullableFloat(m.BallSpeed), nullableFloat(m.LaunchAngle),
		nullableFloat(m.SpinRate), nullableFloat(m.CarryDistance),
		nullableFloat(m.ClubSpeed), nullableFloat(m.SmashFactor),
		nullableFloat(m.ApexHeight), string(units),
	)
	if err != nil {
		s.logger.Error("ledger.sqlite.append_error", "owner", owner.Key, "error", err)
		return "", fmt.Errorf("%w: append shot: %v", common.ErrStorage, err)
	}
	return id, nil
}

func (s *SQLiteStore) List(ctx context.Context, owner entity.Identity) ([]entity.ShotRecord, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at,
			ball_speed, launch_angle, spin_rate, carry_distance,
			club_speed, smash_factor, apex_height, units
		FROM shots WHERE owner = ? ORDER BY created_at, id`,
		owner.Key,
	)
	if err != nil {
		s.logger.Error("ledger.sqlite.list_error", "owner", owner.Key, "error", err)
		return nil, fmt.Errorf("%w: list shots: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	out := []entity.ShotRecord{}
	for rows.Next() {
		var (
			rec   entity.ShotRecord
			cols  [7]sql.NullFloat64
			units string
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt,
			&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5], &cols[6],
			&units,
		); err != nil {
			return nil, fmt.Errorf("%w: scan shot: %v", common.ErrStorage, err)
		}
		rec.Owner = owner.Key
		rec.Metrics = entity.ShotMetrics{
			BallSpeed:     floatPtr(cols[0]),
			LaunchAngle:   floatPtr(cols[1]),
			SpinRate:      floatPtr(cols[2]),
			CarryDistance: floatPtr(cols[3]),
			ClubSpeed:     floatPtr(cols[4]),
			SmashFactor:   floatPtr(cols[5]),
			ApexHeight:    floatPtr(cols[6]),
		}
		if units != "" && units != "{}" && units != "null" {
			if err := json.Unmarshal([]byte(units), &rec.Metrics.Units); err != nil {
				return nil, fmt.Errorf("%w: decode units: %v", common.ErrStorage, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list shots: %v", common.ErrStorage, err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
