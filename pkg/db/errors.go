package db

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateUndefinedTable  = "42P01"
)

var relationPattern = regexp.MustCompile(`(?:relation "([^"]+)" does not exist|no such table: ([A-Za-z0-9_.]+))`)

// IsUniqueViolation reports whether the provided error references a unique
// violation. When constraintName is provided, the helper looks for the
// constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if code := sqlState(err); code != "" && code != sqlStateUniqueViolation {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return sqlState(err) == sqlStateUniqueViolation ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsNotFound reports gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// MissingTable returns the table named by an undefined-table error.
func MissingTable(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == sqlStateUndefinedTable {
		if pgxErr.TableName != "" {
			return pgxErr.TableName, true
		}
		return tableFromMessage(pgxErr.Message), true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == sqlStateUndefinedTable {
		if pqErr.Table != "" {
			return pqErr.Table, true
		}
		return tableFromMessage(pqErr.Message), true
	}
	if m := relationPattern.FindStringSubmatch(err.Error()); m != nil {
		return firstNonEmpty(m[1], m[2]), true
	}
	return "", false
}

// Translate maps driver errors onto typed API errors. notFound is used for
// gorm.ErrRecordNotFound, conflict for unique violations. Anything else is
// wrapped as an internal error with msg.
func Translate(err error, msg, notFound, conflict string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFound)
	}
	if table, ok := MissingTable(err); ok {
		return pkgerrors.Wrap(pkgerrors.CodeSchemaMissing, err, fmt.Sprintf("table %s is missing; run the migrations", table)).
			WithDetails(map[string]any{"table": table})
	}
	if conflict != "" && IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, conflict)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func sqlState(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func tableFromMessage(msg string) string {
	if m := relationPattern.FindStringSubmatch(msg); m != nil {
		return firstNonEmpty(m[1], m[2])
	}
	return "unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
