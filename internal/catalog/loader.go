// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	// DuckDB driver - reads the catalog CSV through read_csv_auto
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/marquee/internal/logging"
)

// Variant selects which column set a dataset must carry.
type Variant string

const (
	// VariantFull requires every metadata column.
	VariantFull Variant = "full"

	// VariantCoarse has no overview, rating or runtime and yields a coarser model.
	VariantCoarse Variant = "coarse"
)

// RequiredColumns are the columns of the full dataset variant.
var RequiredColumns = []string{
	"title",
	"original_language",
	"original_title",
	"overview",
	"genres",
	"imdb_rating",
	"release_date",
	"runtime",
	"imdb_id",
}

// CoarseColumns are the columns of the coarse dataset variant.
var CoarseColumns = []string{
	"title",
	"original_language",
	"original_title",
	"genres",
	"release_date",
	"imdb_id",
}

// ErrMissingColumns is returned when the dataset lacks a required column.
var ErrMissingColumns = errors.New("dataset is missing required columns")

// dateLayouts are tried in order when parsing release_date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"2006",
}

// LoadStats summarizes what the loader kept and dropped.
type LoadStats struct {
	Rows           int
	Kept           int
	MissingFields  int
	UnparsableDate int
}

// Loader reads a movie catalog CSV with an in-memory DuckDB connection.
type Loader struct {
	timeout time.Duration
}

// NewLoader creates a loader. A zero timeout defaults to five minutes.
func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Loader{timeout: timeout}
}

// Load reads path and returns normalized records in file order. The column
// check runs before any row is read; a missing column returns an error
// wrapping ErrMissingColumns.
func (l *Loader) Load(ctx context.Context, path string, variant Variant) ([]MovieRecord, LoadStats, error) {
	var stats LoadStats

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, stats, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close() //nolint:errcheck // in-memory database, nothing to flush

	// A single connection keeps the view visible to every statement.
	db.SetMaxOpenConns(1)

	view := fmt.Sprintf(
		"CREATE VIEW raw_movies AS SELECT * FROM read_csv_auto(%s, header = true, all_varchar = true)",
		quoteLiteral(path),
	)
	if _, err := db.ExecContext(ctx, view); err != nil {
		return nil, stats, fmt.Errorf("read dataset %s: %w", path, err)
	}

	columns := Columns(variant)
	if err := verifyColumns(ctx, db, columns); err != nil {
		return nil, stats, err
	}

	rows, err := db.QueryContext(ctx, "SELECT "+quoteIdents(columns)+" FROM raw_movies")
	if err != nil {
		return nil, stats, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close() //nolint:errcheck // close error after full read is not actionable

	var records []MovieRecord
	values := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, stats, fmt.Errorf("scan dataset row: %w", err)
		}
		stats.Rows++

		raw := make(map[string]sql.NullString, len(columns))
		for i, c := range columns {
			raw[c] = values[i]
		}

		rec, reason := normalizeRow(raw)
		switch reason {
		case dropMissing:
			stats.MissingFields++
			continue
		case dropDate:
			stats.UnparsableDate++
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, stats, fmt.Errorf("iterate dataset: %w", err)
	}

	Reindex(records)
	stats.Kept = len(records)

	log := logging.WithComponent("catalog")
	log.Info().
		Str("path", path).
		Str("variant", string(variant)).
		Int("rows", stats.Rows).
		Int("kept", stats.Kept).
		Int("dropped_missing", stats.MissingFields).
		Int("dropped_date", stats.UnparsableDate).
		Msg("catalog loaded")

	return records, stats, nil
}

// verifyColumns checks the view exposes every required column. DESCRIBE
// returns one row per column with the name first.
func verifyColumns(ctx context.Context, db *sql.DB, required []string) error {
	rows, err := db.QueryContext(ctx, "DESCRIBE raw_movies")
	if err != nil {
		return fmt.Errorf("inspect dataset columns: %w", err)
	}
	defer rows.Close() //nolint:errcheck // close error after full read is not actionable

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("inspect dataset columns: %w", err)
	}
	cells := make([]interface{}, len(cols))
	for i := range cells {
		cells[i] = new(interface{})
	}

	present := make(map[string]bool)
	for rows.Next() {
		if err := rows.Scan(cells...); err != nil {
			return fmt.Errorf("scan column name: %w", err)
		}
		if name, ok := (*cells[0].(*interface{})).(string); ok {
			present[strings.TrimSpace(name)] = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect dataset columns: %w", err)
	}

	return checkColumns(present, required)
}

// checkColumns returns ErrMissingColumns naming every absent column.
func checkColumns(present map[string]bool, required []string) error {
	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

type dropReason int

const (
	keep dropReason = iota
	dropMissing
	dropDate
)

// normalizeRow applies the ingestion rules to one raw row.
func normalizeRow(raw map[string]sql.NullString) (MovieRecord, dropReason) {
	title := text(raw["title"])
	genreText := text(raw["genres"])
	dateText := text(raw["release_date"])
	if title == "" || genreText == "" || dateText == "" {
		return MovieRecord{}, dropMissing
	}

	genres := ParseGenres(genreText)
	if len(genres) == 0 {
		return MovieRecord{}, dropMissing
	}

	released, ok := ParseReleaseDate(dateText)
	if !ok {
		return MovieRecord{}, dropDate
	}

	rec := MovieRecord{
		IMDbID:           text(raw["imdb_id"]),
		Title:            title,
		OriginalTitle:    text(raw["original_title"]),
		OriginalLanguage: text(raw["original_language"]),
		Genres:           genres,
		GenreText:        genreText,
		ReleaseDate:      released,
		ReleaseYear:      released.Year(),
	}

	if ov := text(raw["overview"]); ov != "" {
		rec.Overview = ov
		rec.HasOverview = true
	}
	rec.Rating, rec.HasRating = number(raw["imdb_rating"])
	rec.Runtime, rec.HasRuntime = number(raw["runtime"])

	return rec, keep
}

// ParseReleaseDate parses the catalog's date formats.
func ParseReleaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func text(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	s := strings.TrimSpace(v.String)
	if strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// number parses a numeric cell. Absent or unparsable values become 0.
func number(v sql.NullString) (float64, bool) {
	s := text(v)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdents(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ", ")
}
