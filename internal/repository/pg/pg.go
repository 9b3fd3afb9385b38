package pg

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ibeloyar/laundry/pgk/retryablehttp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const (
	migrationsTable = "schema_migrations"
	schemaName      = "public"
	migrationsPath  = "./migrations"

	maxAttempts = 3
)

type Options struct {
	DatabaseURI          string
	BillingSystemAddress string
	ExportInterval       time.Duration
}

type Repository struct {
	databaseURI string
	db          *sql.DB
	lg          *zap.SugaredLogger
	classifier  *PostgresErrorClassifier

	billingAddress string
	exportInterval time.Duration
	retryClient    *retryablehttp.RetryableClient
	workerPool     *WorkerPool
	stopExportChan chan struct{}
	exportDone     chan struct{}
}

func New(opts Options, lg *zap.SugaredLogger) (*Repository, error) {
	pool, err := pgxpool.New(context.Background(), opts.DatabaseURI)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: migrationsTable,
		SchemaName:      schemaName,
	})
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+absPath, "postgres", driver)
	if err != nil {
		return nil, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, err
	}

	return &Repository{
		databaseURI: opts.DatabaseURI,
		db:          db,
		lg:          lg,
		classifier:  NewPostgresErrorClassifier(),

		billingAddress: opts.BillingSystemAddress,
		exportInterval: opts.ExportInterval,
		retryClient:    retryablehttp.NewRetryableClient(retryablehttp.RetryConfig{}),
		workerPool:     NewWorkerPool(0),
	}, nil
}

func (r *Repository) Ping() error {
	return r.db.Ping()
}

func (r *Repository) Shutdown() error {
	return r.db.Close()
}

// executeWithRetryConnection runs fn again when it fails with a transient
// database error, waiting getAttemptDelay between attempts.
func (r *Repository) executeWithRetryConnection(ctx context.Context, fn func(db *sql.DB) error) error {
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn(r.db)
		if err == nil {
			return nil
		}

		if r.classifier.Classify(err) != Retriable || attempt == maxAttempts-1 {
			return err
		}

		delay := getAttemptDelay(attempt)
		r.lg.Warnf("database error, attempt %d, retry in %v: %v", attempt+1, delay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}

func getAttemptDelay(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 1 * time.Second
	case 1:
		return 3 * time.Second
	default:
		return 5 * time.Second
	}
}

// inTx commits when fn succeeds and rolls back otherwise.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
