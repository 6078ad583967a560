// Package dataset loads usage records from JSON files, SQLite databases or
// the bundled sample.
package dataset

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/verte-zerg/usagechart/internal/analytics"
	"github.com/verte-zerg/usagechart/internal/model"
	"github.com/verte-zerg/usagechart/internal/store"
)

// SampleName is the source name reported for the bundled dataset.
const SampleName = "sample"

//go:embed sample.json
var sampleJSON []byte

// Sample returns the bundled sample dataset.
func Sample() ([]model.Record, error) {
	return Decode(sampleJSON)
}

// Decode parses a JSON array of records.
func Decode(data []byte) ([]model.Record, error) {
	var records []model.Record
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return records, nil
}

// LoadFile reads a JSON dataset from path.
func LoadFile(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// IsDatabase reports whether path names a SQLite dataset.
func IsDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

// Load reads the dataset named by path. An empty path selects the bundled
// sample; .db/.sqlite paths are read from SQLite, anything else as JSON.
func Load(ctx context.Context, path string) ([]model.Record, error) {
	var (
		records []model.Record
		err     error
	)
	switch {
	case path == "" || path == SampleName:
		records, err = Sample()
	case IsDatabase(path):
		records, err = loadDatabase(ctx, path)
	default:
		records, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	logAnomalies(records)
	return records, nil
}

func loadDatabase(ctx context.Context, path string) ([]model.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Warn("failed to close db", "path", path, "error", cerr)
		}
	}()
	return st.ListRecords(ctx)
}

// logAnomalies reports rows that will render blank or drop out of filtered
// views. They are kept as-is.
func logAnomalies(records []model.Record) {
	badDates, badUsers := 0, 0
	for _, r := range records {
		if _, ok := analytics.ParseRecordDate(r.Date); !ok {
			badDates++
		}
		if !r.DailyUsers.Valid {
			badUsers++
		}
	}
	if badDates > 0 || badUsers > 0 {
		slog.Debug("dataset has malformed rows", "records", len(records), "bad_dates", badDates, "bad_daily_users", badUsers)
	}
}
