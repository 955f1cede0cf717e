package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed *.sql
var files embed.FS

const migrationsTable = "public.schema_migrations_exams"

// Names mengembalikan file migration terurut.
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list embedded migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func Up(db *sql.DB) error {
	if db == nil {
		return errors.New("db is required")
	}
	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	names, err := Names()
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := isApplied(db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		body, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", name, err)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			if !IsIgnorableMigrationError(err) {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			if err := markApplied(db, name); err != nil {
				return fmt.Errorf("record migration %s after ignored error: %w", name, err)
			}
			continue
		}
		if _, err := tx.Exec(`INSERT INTO `+migrationsTable+` (filename) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	q := `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	filename text PRIMARY KEY,
	applied_at timestamptz NOT NULL DEFAULT now()
)`
	if _, err := db.Exec(q); err != nil {
		return fmt.Errorf("ensure migration table %s: %w", migrationsTable, err)
	}
	return nil
}

func isApplied(db *sql.DB, name string) (bool, error) {
	var exists bool
	if err := db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM `+migrationsTable+` WHERE filename = $1)`, name,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return exists, nil
}

func markApplied(db *sql.DB, name string) error {
	_, err := db.Exec(
		`INSERT INTO `+migrationsTable+` (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`, name,
	)
	return err
}

// IsIgnorableMigrationError: objek sudah ada (DB lama yang sudah dimigrasi manual).
func IsIgnorableMigrationError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42P07", // duplicate_table
		"42710", // duplicate_object
		"42P06", // duplicate_schema
		"42701": // duplicate_column
		return true
	default:
		return false
	}
}
