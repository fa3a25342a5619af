// Package store persists the residue map across pipeline runs in an
// embedded SQLite database, so the "historical memory" component H
// describes can outlive a single batch invocation when a store path is
// configured. Schema migrations are embedded and applied on Open, following
// the teacher's golang-migrate + modernc.org/sqlite pairing.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/fenwick-labs/threatscope/internal/residue"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a residue database opened for a specific curve order; residue
// counts from a different order are never mixed with the current run's grid.
type Store struct {
	db    *sql.DB
	order int
}

// Open opens (creating if necessary) the SQLite database at path and
// applies any pending migrations.
func Open(path string, order int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	s := &Store{db: db, order: order}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: iofs source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("store: sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("store: migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

// Load reads all residue rows for this store's curve order into a fresh
// residue.Map sized for dimension.
func (s *Store) Load(dimension uint32) (*residue.Map, error) {
	m := residue.New(dimension)

	rows, err := s.db.Query(`SELECT cell_x, cell_y, count FROM residue_cells WHERE curve_order = ?`, s.order)
	if err != nil {
		return nil, fmt.Errorf("store: query residue cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var x, y int
		var count int64
		if err := rows.Scan(&x, &y, &count); err != nil {
			return nil, fmt.Errorf("store: scan residue cell: %w", err)
		}
		for i := int64(0); i < count; i++ {
			m.Mark(uint32(x), uint32(y))
		}
	}
	return m, rows.Err()
}

// Save persists every nonzero cell in m, replacing any prior rows for this
// store's curve order.
func (s *Store) Save(m *residue.Map) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM residue_cells WHERE curve_order = ?`, s.order); err != nil {
		tx.Rollback()
		return fmt.Errorf("store: clear prior residue cells: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO residue_cells (curve_order, cell_x, cell_y, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for y := uint32(0); y < m.Dimension; y++ {
		for x := uint32(0); x < m.Dimension; x++ {
			count := m.Get(x, y)
			if count == 0 {
				continue
			}
			if _, err := stmt.Exec(s.order, x, y, count); err != nil {
				tx.Rollback()
				return fmt.Errorf("store: insert residue cell (%d,%d): %w", x, y, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) { log.Printf("[store migrate] "+format, v...) }
func (l *migrateLogger) Verbose() bool                          { return false }
