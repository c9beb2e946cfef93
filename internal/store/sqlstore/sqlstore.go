// Package sqlstore implements store.Store on MySQL or PostgreSQL through database/sql.
//
// Queries are written once with "?" placeholders and rebound for PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"socialhub/internal/apperr"
	"socialhub/internal/config"
)

const (
	mysqlDuplicateEntry = 1062
	pgUniqueViolation   = "23505"
)

// Store is a relational store.Store. It does not own db unless Close is called.
type Store struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds every query with d.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the clock used for created_at and post dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New wraps an opened database for the given driver (config.DriverMySQL or config.DriverPostgres).
func New(db *sql.DB, driver string, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil db")
	}
	if driver != config.DriverMySQL && driver != config.DriverPostgres {
		return nil, errors.New("sqlstore: unsupported driver " + driver)
	}
	s := &Store{
		db:      db,
		driver:  driver,
		timeout: 5 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return apperr.Store("db.ping", s.db.PingContext(ctx))
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// rebind rewrites "?" placeholders as $1..$n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// insertID runs an INSERT and returns the generated key in column idCol.
func (s *Store) insertID(ctx context.Context, query, idCol string, args ...any) (int64, error) {
	if s.driver == config.DriverPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx, s.rebind(query)+" RETURNING "+idCol, args...).Scan(&id)
		return id, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
