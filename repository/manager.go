package repository

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Manager owns the database handle and the repositories built on it
type Manager struct {
	db    *bun.DB
	users *Users
}

// Open connects to the SQLite database at dsn and creates the schema
func Open(ctx context.Context, dsn string) (*Manager, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open database")
	}
	// in-memory SQLite databases are per connection
	sqldb.SetMaxOpenConns(1)

	m := NewManager(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := m.users.CreateSchema(ctx); err != nil {
		_ = m.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create schema")
	}
	return m, nil
}

// NewManager wraps an existing bun.DB
func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:    db,
		users: NewUsers(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized", errors.CategoryInternal)
	}
	if m.users == nil {
		return errors.New("repository users should be initialized", errors.CategoryInternal)
	}
	return nil
}

// Ping checks the database connection
func (m *Manager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Manager) Users() *Users {
	return m.users
}

func (m *Manager) Close() error {
	return m.db.Close()
}
