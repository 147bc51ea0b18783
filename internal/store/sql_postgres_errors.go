package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification tells whether a failed database call may succeed when
// repeated. Retryable failures reach devices as transient errors and the
// action stays queued; everything else is permanent.
type ErrorClassification int

const (
	NonRetryable ErrorClassification = iota
	Retryable
)

func (c ErrorClassification) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "non-retryable"
}

// PostgresErrorClassifier classifies errors of the pgx driver by SQLSTATE.
type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify implements [ErrorClassificator]. Errors that carry no SQLSTATE
// are non-retryable.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	code := postgresError(err)
	if code == "" {
		return NonRetryable
	}
	return classifySQLState(code)
}

// classifySQLState treats connection exceptions (class 08), transaction
// rollbacks such as serialization failures and deadlocks (class 40),
// operator intervention (class 57) and lock_not_available as retryable.
// Data, constraint and syntax errors never succeed on a second attempt.
//
// See https://www.postgresql.org/docs/current/errcodes-appendix.html.
func classifySQLState(code string) ErrorClassification {
	switch {
	case pgerrcode.IsConnectionException(code),
		pgerrcode.IsTransactionRollback(code),
		pgerrcode.IsOperatorIntervention(code),
		code == pgerrcode.LockNotAvailable:
		return Retryable
	default:
		return NonRetryable
	}
}

// postgresError returns the SQLSTATE of err, or "" when err did not come
// from the server.
func postgresError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return postgresError(err) == pgerrcode.UniqueViolation
}
