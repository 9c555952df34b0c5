package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/streak"
	"github.com/okian/shelf/pkg/logger"
)

const (
	postgresDriver = "postgres"

	pgMaxConns          = 25
	pgMinConns          = 2
	pgMaxConnLifetime   = time.Hour
	pgMaxConnIdleTime   = 30 * time.Minute
	pgHealthCheckPeriod = time.Minute
)

// Postgres error codes worth retrying.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id         TEXT PRIMARY KEY,
	tally           JSONB NOT NULL DEFAULT '{}',
	current_streak  INTEGER NOT NULL DEFAULT 0,
	longest_streak  INTEGER NOT NULL DEFAULT 0,
	last_update_day DATE,
	activities      BIGINT NOT NULL DEFAULT 0,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS badges (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
	metric        TEXT NOT NULL,
	tier          TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	icon          TEXT NOT NULL,
	tier_color    TEXT NOT NULL,
	date_earned   TIMESTAMPTZ NOT NULL,
	trigger_value BIGINT NOT NULL,
	progress      DOUBLE PRECISION NOT NULL,
	UNIQUE (user_id, metric, tier)
);`

// PostgresStore keeps profiles in two tables; badges carry a unique
// (user_id, metric, tier) constraint.
type PostgresStore struct {
	pool       *pgxpool.Pool
	maxRetries int
	logger     logger.Logger
}

// OpenPostgres connects to url, verifies the connection and ensures the schema.
func OpenPostgres(ctx context.Context, url string, log logger.Logger) (*PostgresStore, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: postgres url is required", ErrInvalidConfig)
	}
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres url: %v", ErrInvalidConfig, err)
	}
	poolConfig.MaxConns = pgMaxConns
	poolConfig.MinConns = pgMinConns
	poolConfig.MaxConnLifetime = pgMaxConnLifetime
	poolConfig.MaxConnIdleTime = pgMaxConnIdleTime
	poolConfig.HealthCheckPeriod = pgHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if log == nil {
		log = logger.Get().Named("store")
	}
	s := &PostgresStore{pool: pool, maxRetries: defaultMaxRetries, logger: log}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (Profile, error) {
	start := time.Now()
	defer observe(postgresDriver, "get", start)

	return loadProfile(ctx, s.pool, userID, "")
}

func loadProfile(ctx context.Context, q querier, userID, lock string) (Profile, error) {
	var (
		p       = Profile{UserID: userID}
		tally   []byte
		lastDay *time.Time
	)
	err := q.QueryRow(ctx, `
		SELECT tally, current_streak, longest_streak, last_update_day, activities, updated_at
		FROM profiles WHERE user_id = $1 `+lock, userID).
		Scan(&tally, &p.Streak.CurrentStreak, &p.Streak.LongestStreak, &lastDay, &p.Activities, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", userID, err)
	}
	if err := json.Unmarshal(tally, &p.Tally); err != nil {
		return Profile{}, fmt.Errorf("decode tally %s: %w", userID, err)
	}
	if lastDay != nil {
		d := streak.DayOf(*lastDay)
		p.Streak.LastUpdateDay = &d
	}

	p.Badges, err = loadBadges(ctx, q, userID)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func loadBadges(ctx context.Context, q querier, userID string) ([]badge.Badge, error) {
	rows, err := q.Query(ctx, `
		SELECT id, metric, tier, title, description, icon, tier_color, date_earned, trigger_value, progress
		FROM badges WHERE user_id = $1 ORDER BY date_earned, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("read badges %s: %w", userID, err)
	}
	defer rows.Close()

	var out []badge.Badge
	for rows.Next() {
		var (
			b      badge.Badge
			metric string
			tier   string
		)
		if err := rows.Scan(&b.ID, &metric, &tier, &b.Title, &b.Description, &b.Icon,
			&b.TierColor, &b.DateEarned, &b.TriggerValue, &b.ProgressToNextTier); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		b.Metric = catalog.MetricType(metric)
		if b.Tier, err = catalog.ParseTier(tier); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, userID string, fn UpdateFunc) (Profile, error) {
	start := time.Now()
	defer observe(postgresDriver, "update", start)

	var out Profile
	err := retryConflicts(ctx, s.logger, s.maxRetries, func() error {
		p, err := s.updateOnce(ctx, userID, fn)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && (pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected) {
				return fmt.Errorf("%w: %v", ErrConflict, err)
			}
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (s *PostgresStore) updateOnce(ctx context.Context, userID string, fn UpdateFunc) (Profile, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID); err != nil {
		return Profile{}, fmt.Errorf("create profile %s: %w", userID, err)
	}
	p, err := loadProfile(ctx, tx, userID, "FOR UPDATE")
	if err != nil {
		return Profile{}, err
	}
	stored := len(p.Badges)

	if err := fn(&p); err != nil {
		return Profile{}, err
	}
	p.UserID = userID
	p.Badges = dedupeBadges(p.Badges)

	tally, err := json.Marshal(p.Tally)
	if err != nil {
		return Profile{}, fmt.Errorf("encode tally %s: %w", userID, err)
	}
	var lastDay *time.Time
	if p.Streak.LastUpdateDay != nil {
		t := p.Streak.LastUpdateDay.Time()
		lastDay = &t
	}
	if _, err := tx.Exec(ctx, `
		UPDATE profiles
		SET tally = $2, current_streak = $3, longest_streak = $4, last_update_day = $5,
		    activities = $6, updated_at = $7
		WHERE user_id = $1`,
		userID, tally, p.Streak.CurrentStreak, p.Streak.LongestStreak, lastDay, p.Activities, p.UpdatedAt); err != nil {
		return Profile{}, fmt.Errorf("write profile %s: %w", userID, err)
	}

	for _, b := range p.Badges[min(stored, len(p.Badges)):] {
		if _, err := tx.Exec(ctx, `
			INSERT INTO badges (id, user_id, metric, tier, title, description, icon, tier_color,
			                    date_earned, trigger_value, progress)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (user_id, metric, tier) DO NOTHING`,
			b.ID, userID, string(b.Metric), b.Tier.String(), b.Title, b.Description, b.Icon, b.TierColor,
			b.DateEarned, b.TriggerValue, b.ProgressToNextTier); err != nil {
			return Profile{}, fmt.Errorf("write badge %s: %w", b.Key(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Profile{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Each(ctx context.Context, fn func(Profile) error) error {
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	for _, id := range ids {
		p, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
