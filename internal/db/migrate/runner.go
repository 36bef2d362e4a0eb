// Package migrate applies the embedded schema migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"bookstore/backend/internal/db"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// ErrNoChange is returned by Migrator operations that had nothing to do.
var ErrNoChange = migrate.ErrNoChange

// Direction selects which way migrations run.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection accepts "up" or "down" exactly.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	}
	return "", fmt.Errorf("direction must be up or down, got %q", s)
}

// Migrator wraps a golang-migrate instance over the embedded migrations.
type Migrator struct {
	m *migrate.Migrate
}

// New opens a migrator for dsn. The caller must Close it.
func New(dsn string, logger *zap.Logger) (*Migrator, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	src, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if logger != nil {
		m.Log = zapLogger{l: logger.Sugar()}
	}
	return &Migrator{m: m}, nil
}

// Apply runs migrations in dir. steps > 0 limits how many are applied; 0 means all.
// Reaching the target version already is not an error.
func (g *Migrator) Apply(dir Direction, steps int) error {
	var err error
	switch {
	case steps > 0 && dir == Up:
		err = g.m.Steps(steps)
	case steps > 0 && dir == Down:
		err = g.m.Steps(-steps)
	case dir == Up:
		err = g.m.Up()
	case dir == Down:
		err = g.m.Down()
	default:
		return fmt.Errorf("direction must be up or down, got %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version reports the applied schema version. ok is false when no migration has run.
func (g *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}

// Close releases the source and database handles.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Run applies all migrations in direction against dsn.
func Run(dsn string, direction string) error {
	dir, err := ParseDirection(direction)
	if err != nil {
		return err
	}
	g, err := New(dsn, nil)
	if err != nil {
		return err
	}
	defer func() { _ = g.Close() }()
	return g.Apply(dir, 0)
}

type zapLogger struct {
	l *zap.SugaredLogger
}

func (z zapLogger) Printf(format string, v ...interface{}) {
	z.l.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (z zapLogger) Verbose() bool { return false }
