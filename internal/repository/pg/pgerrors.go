package pg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type ErrorClassification int

const (
	NonRetriable ErrorClassification = iota
	Retriable

	ErrIsExistCode = "23505"
)

type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify recognizes errors from both pgx (pgconn.PgError) and lib/pq.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	if err == nil {
		return NonRetriable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyCode(string(pqErr.Code))
	}

	return NonRetriable
}

// https://www.postgresql.org/docs/current/errcodes-appendix.html
func classifyCode(code string) ErrorClassification {
	switch code {
	// connection exceptions
	case "08000", "08001", "08003", "08004", "08006", "08007":
		return Retriable

	// transaction rollback, serialization failure, deadlock
	case "40000", "40001", "40P01":
		return Retriable

	// cannot connect now
	case "57P03":
		return Retriable
	}

	return NonRetriable
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == ErrIsExistCode
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == ErrIsExistCode
	}

	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23503"
	}

	return false
}
