// Package store handles SQLite persistence of usage datasets.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/verte-zerg/usagechart/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for dataset records.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY,
			date TEXT NOT NULL,
			country TEXT NOT NULL,
			app TEXT NOT NULL,
			platform TEXT NOT NULL,
			ad_network TEXT NOT NULL,
			daily_users REAL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_app ON records(app);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceRecords swaps the stored dataset for records in one transaction.
// Insertion order is kept so loaded series match the source order.
func (s *Store) ReplaceRecords(ctx context.Context, records []model.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return err
	}
	if len(records) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO records (date, country, app, platform, ad_network, daily_users)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, r := range records {
			var users any
			if r.DailyUsers.Valid {
				users = r.DailyUsers.Value
			}
			if _, err = stmt.ExecContext(ctx, r.Date, r.Country, r.App, r.Platform, r.AdNetwork, users); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// ListRecords returns every stored record in insertion order.
func (s *Store) ListRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, country, app, platform, ad_network, daily_users
		 FROM records
		 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Record
	for rows.Next() {
		var r model.Record
		var users sql.NullFloat64
		if err := rows.Scan(&r.Date, &r.Country, &r.App, &r.Platform, &r.AdNetwork, &users); err != nil {
			return nil, err
		}
		if users.Valid {
			r.DailyUsers = model.NewMetric(users.Float64)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountRecords returns the number of stored records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
