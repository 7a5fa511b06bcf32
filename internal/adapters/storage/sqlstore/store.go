// Package sqlstore implementa storage.Store sobre database/sql. Soporta Postgres (pgx)
// y SQLite (modernc) con el mismo código de repositorios; las diferencias viven en
// dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/applog"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string
	DSN    string
}

// dialect concentra lo que cambia entre motores.
type dialect struct {
	name string
	// driver es el nombre registrado en database/sql.
	driver string
	// numbered: placeholders $1..$N en lugar de ?.
	numbered bool
	// lockSuffix se agrega a los SELECT que deben bloquear la fila dentro de una tx.
	lockSuffix string
	// orderSeq es la columna que desempata created_at iguales.
	orderSeq string
}

var (
	postgresDialect = dialect{name: DriverPostgres, driver: "pgx", numbered: true, lockSuffix: " FOR UPDATE", orderSeq: "seq"}
	// SQLite serializa escritores con BEGIN IMMEDIATE (_txlock) y una sola conexión.
	sqliteDialect = dialect{name: DriverSQLite, driver: "sqlite", orderSeq: "rowid"}
)

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, "postgresql", "pgx":
		return postgresDialect, nil
	case DriverSQLite, "sqlite3":
		return sqliteDialect, nil
	default:
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// rebind traduce los ? del query al estilo del dialecto.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Store es el storage.Store respaldado por una base SQL.
type Store struct {
	db *sql.DB
	d  dialect
}

// Open abre la conexión, ajusta el pool según el motor y verifica con un ping.
// No corre migraciones: ver Migrate.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("sqlstore: dsn required")
	}
	if d.name == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", d.name, err)
	}

	if d.name == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", d.name, err)
	}

	return &Store{db: db, d: d}, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithinTx corre fn en una transacción. Rollback ante error o panic.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(ctx, txView{q: sqlTx, d: s.d, locking: true}); err != nil {
		return err
	}
	if cerr := sqlTx.Commit(); cerr != nil {
		err = mapWriteErr(fmt.Errorf("sqlstore: commit: %w", cerr), "commit")
		return err
	}
	return nil
}

func (s *Store) Read() storage.Tx {
	return txView{q: s.db, d: s.d}
}

func (s *Store) AppLogs() applog.Repository {
	return appLogRepo{q: s.db, d: s.d}
}

// querier lo cumplen *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txView struct {
	q       querier
	d       dialect
	locking bool
}

func (t txView) Pets() pets.Repository          { return petRepo{t} }
func (t txView) Users() users.Repository        { return userRepo{t} }
func (t txView) Adoptions() adoption.Repository { return adoptionRepo{t} }
func (t txView) Custodies() custody.Repository  { return custodyRepo{t} }
func (t txView) Escrows() escrow.Repository     { return escrowRepo{t} }
func (t txView) Events() events.Repository      { return eventRepo{t} }

func (t txView) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.q.ExecContext(ctx, t.d.rebind(query), args...)
}

func (t txView) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.q.QueryContext(ctx, t.d.rebind(query), args...)
}

func (t txView) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.q.QueryRowContext(ctx, t.d.rebind(query), args...)
}

// forUpdate agrega el lock de fila solo dentro de transacciones.
func (t txView) forUpdate(query string) string {
	if !t.locking {
		return query
	}
	return query + t.d.lockSuffix
}

// placeholders devuelve "?, ?, ?" y los args para un IN (...).
func placeholders(ids []string) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

var _ storage.Store = (*Store)(nil)
