package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-adoption/internal/domain/domainerr"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation     = "23505"
	pgSerializationFailed = "40001"
	pgDeadlockDetected    = "40P01"
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// isLockFailure detecta una tx abortada por Postgres al resolver un deadlock o un
// conflicto de serialización entre locks de fila.
func isLockFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDeadlockDetected || pgErr.Code == pgSerializationFailed
	}
	return false
}

// mapWriteErr traduce violaciones de unicidad (índices parciales incluidos) y
// fallas de lock a Conflict.
func mapWriteErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) || isLockFailure(err) {
		return domainerr.Conflict("%s: %v", what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// mapReadErr traduce sql.ErrNoRows a NotFound y las fallas de lock a Conflict.
func mapReadErr(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domainerr.NotFound(format, args...)
	}
	if isLockFailure(err) {
		return domainerr.Conflict("%s: %v", fmt.Sprintf(format, args...), err)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// affectedOne confirma que una actualización condicional tocó una fila.
func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
