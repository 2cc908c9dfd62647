package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/carelink/referral-api/pkg/metrics"

	"github.com/carelink/referral-api/internal/repository"
)

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func NewDB(cfg DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func translateNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// repoMetrics records operation counts and latency for one entity's
// repository. A nil Metrics disables recording.
type repoMetrics struct {
	entity string
	m      *metrics.Metrics
}

func newRepoMetrics(entity string, m *metrics.Metrics) repoMetrics {
	return repoMetrics{entity: entity, m: m}
}

// track starts timing one operation; call the returned func when it ends,
// typically via defer.
func (rm repoMetrics) track(action string) func() {
	start := time.Now()
	return func() {
		if rm.m == nil {
			return
		}
		rm.m.DatabaseOperations.WithLabelValues(rm.entity, action).Inc()
		rm.m.DatabaseLatency.WithLabelValues(rm.entity, action).Observe(time.Since(start).Seconds())
	}
}
