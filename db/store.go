// ABOUTME: SQLite store behind the workspace repository interface
// ABOUTME: Handles opening the database with WAL mode and shared query helpers
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/calegray/revdeck/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	relatedPreview  = 5
)

// Store wraps the SQLite database. All repository methods hang off it.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, enables WAL, and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Single connection avoids sqlite "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("store opened", "path", path)
	return &Store{db: db}, nil
}

// OpenMemory opens a throwaway in-memory store, used by tests and demos.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func clampPaging(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func paginationFor(page, size, total int) models.Pagination {
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return models.Pagination{Page: page, PageSize: size, Total: total, TotalPages: pages}
}

func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullableFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullableID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func scanID(ns sql.NullString) *uuid.UUID {
	if !ns.Valid {
		return nil
	}
	parsed, err := uuid.Parse(ns.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func scanScore(ns sql.NullInt64) *int {
	if !ns.Valid {
		return nil
	}
	v := int(ns.Int64)
	return &v
}
