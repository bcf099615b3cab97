package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/entity"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS shots (
	id             TEXT PRIMARY KEY,
	owner          TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	ball_speed     DOUBLE PRECISION,
	launch_angle   DOUBLE PRECISION,
	spin_rate      DOUBLE PRECISION,
	carry_distance DOUBLE PRECISION,
	club_speed     DOUBLE PRECISION,
	smash_factor   DOUBLE PRECISION,
	apex_height    DOUBLE PRECISION,
	units          JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_shots_owner ON shots (owner, created_at);
`

// PostgresStore is the shared ledger backend for multi-process deployments.
// Appends are single INSERTs; row-level atomicity gives the per-owner
// serialization guarantee without any application locks.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a pgx pool, migrates the shots table, and returns
// the store.
func OpenPostgres(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %v", common.ErrStorage, err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Minute
	pc.ConnConfig.RuntimeParams["application_name"] = "shot-tracker"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout())
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", common.ErrStorage, err)
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: migrate: %v", common.ErrStorage, err)
	}

	logger.Info("ledger.postgres.open")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Append(ctx context.Context, owner entity.Identity, m entity.ShotMetrics) (string, error) {
	if err := checkOwner(owner); err != nil {
		return "", err
	}

	id := uuid.New().String()
	units, err := json.Marshal(m.Units)
	if err != nil {
		return "", fmt.Errorf("%w: encode units: %v", common.ErrStorage, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO shots (id, owner, created_at,
			ball_speed, launch_angle, spin_rate, carry_distance,
			club_speed, smash_factor, apex_height, units)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, owner.Key, time.Now().UTC(),
		m.BallSpeed, m.LaunchAngle, m.SpinRate, m.CarryDistance,
		m.ClubSpeed, m.SmashFactor, m.ApexHeight, units,
	)
	if err != nil {
		s.logger.Error("ledger.postgres.append_error", "owner", owner.Key, "error", err)
		return "", fmt.Errorf("%w: append shot: %v", common.ErrStorage, err)
	}
	return id, nil
}

func (s *PostgresStore) List(ctx context.Context, owner entity.Identity) ([]entity.ShotRecord, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at,
			ball_speed, launch_angle, spin_rate, carry_distance,
			club_speed, smash_factor, apex_height, units
		FROM shots WHERE owner = $1 ORDER BY created_at, id`,
		owner.Key,
	)
	if err != nil {
		s.logger.Error("ledger.postgres.list_error", "owner", owner.Key, "error", err)
		return nil, fmt.Errorf("%w: list shots: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	out := []entity.ShotRecord{}
	for rows.Next() {
		var (
			rec   entity.ShotRecord
			units []byte
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt,
			&rec.Metrics.BallSpeed, &rec.Metrics.LaunchAngle,
			&rec.Metrics.SpinRate, &rec.Metrics.CarryDistance,
			&rec.Metrics.ClubSpeed, &rec.Metrics.SmashFactor,
			&rec.Metrics.ApexHeight, &units,
		); err != nil {
			return nil, fmt.Errorf("%w: scan shot: %v", common.ErrStorage, err)
		}
		rec.Owner = owner.Key
		if len(units) > 0 && string(units) != "{}" && string(units) != "null" {
			if err := json.Unmarshal(units, &rec.Metrics.Units); err != nil {
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

// Ping verifies the pool, for health reporting.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
