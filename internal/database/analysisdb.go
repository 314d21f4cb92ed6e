package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/brandsnap/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "brandsnap.db"

// timestampLayout sorts lexicographically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNilAnalysis is returned when saving a nil analysis.
var ErrNilAnalysis = errors.New("analysis is nil")

// AnalysisDB stores analyses in SQLite.
type AnalysisDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures AnalysisDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AnalysisDB inside dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AnalysisDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file.
	dsn := dbPath + "?mode=rwc"
	if !opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AnalysisDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return adb, nil
}

// Path returns the database file path.
func (adb *AnalysisDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *AnalysisDB) Close() error {
	return adb.db.Close()
}

func (adb *AnalysisDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		host TEXT NOT NULL DEFAULT '',
		variant TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL,
		report_json TEXT NOT NULL,
		summary_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_url ON analyses(url);
	CREATE INDEX IF NOT EXISTS idx_analyses_host ON analyses(host);
	CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
	`
	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAnalysis stores analysis, replacing an earlier row with the same ID.
func (adb *AnalysisDB) SaveAnalysis(ctx context.Context, analysis *model.Analysis) error {
	if analysis == nil {
		return ErrNilAnalysis
	}
	if analysis.Report == nil {
		analysis.Report = model.NewExtractionReport()
	}
	analysis.Report.Normalize()

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}
	summaryJSON, err := json.Marshal(model.NewSummary(analysis.Report))
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	host := ""
	if target, err := model.NewTarget(analysis.URL); err == nil {
		host = target.Host()
	}

	query := `
	INSERT INTO analyses (id, url, host, variant, mode, timestamp, report_json, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		url = excluded.url,
		host = excluded.host,
		variant = excluded.variant,
		mode = excluded.mode,
		timestamp = excluded.timestamp,
		report_json = excluded.report_json,
		summary_json = excluded.summary_json
	`
	_, err = adb.db.ExecContext(ctx, query,
		analysis.ID,
		analysis.URL,
		host,
		string(analysis.Variant),
		string(analysis.Mode),
		analysis.StartedAt.UTC().Format(timestampLayout),
		string(analysisJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysisByID returns the analysis with id, or nil when none exists.
func (adb *AnalysisDB) GetAnalysisByID(ctx context.Context, id string) (*model.Analysis, error) {
	row := adb.db.QueryRowContext(ctx, `SELECT report_json FROM analyses WHERE id = ?`, id)
	return scanAnalysis(row)
}

// GetLatestAnalysis returns the most recent analysis of url, or nil when
// the URL was never analyzed.
func (adb *AnalysisDB) GetLatestAnalysis(ctx context.Context, url string) (*model.Analysis, error) {
	query := `
	SELECT report_json FROM analyses
	WHERE url = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`
	return scanAnalysis(adb.db.QueryRowContext(ctx, query, url))
}

// GetRecentAnalyses returns up to limit analyses of url, newest first.
func (adb *AnalysisDB) GetRecentAnalyses(ctx context.Context, url string, limit int) ([]*model.Analysis, error) {
	query := `
	SELECT report_json FROM analyses
	WHERE url = ?
	ORDER BY timestamp DESC
	LIMIT ?
	`
	rows, err := adb.db.QueryContext(ctx, query, url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get analyses: %w", err)
	}
	defer rows.Close()

	var results []*model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*model.Analysis, error) {
	var analysisJSON string
	err := row.Scan(&analysisJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	if analysis.Report == nil {
		analysis.Report = model.NewExtractionReport()
	}
	analysis.Report.Normalize()
	return &analysis, nil
}

// AnalysisMetadata is a stored analysis without its report.
type AnalysisMetadata struct {
	ID        string
	URL       string
	Host      string
	Variant   model.Variant
	Mode      model.Mode
	Timestamp time.Time
	Summary   *model.Summary
}

// GetHistory returns the metadata of every analysis of url, newest first.
func (adb *AnalysisDB) GetHistory(ctx context.Context, url string) ([]AnalysisMetadata, error) {
	query := `
	SELECT id, url, host, variant, mode, timestamp, summary_json
	FROM analyses
	WHERE url = ?
	ORDER BY timestamp DESC
	`
	rows, err := adb.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []AnalysisMetadata
	for rows.Next() {
		var (
			meta        AnalysisMetadata
			variant     string
			mode        string
			timestamp   string
			summaryJSON sql.NullString
		)
		if err := rows.Scan(&meta.ID, &meta.URL, &meta.Host, &variant, &mode, &timestamp, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Variant = model.Variant(variant)
		meta.Mode = model.Mode(mode)
		meta.Timestamp = parseTimestamp(timestamp)

		meta.Summary = model.NewSummary(nil)
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), meta.Summary); err != nil {
				meta.Summary = model.NewSummary(nil)
			}
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// URLStats is one analyzed URL with its analysis count and latest run.
type URLStats struct {
	URL      string
	Count    int
	LastSeen time.Time
}

// ListAnalyzedURLs returns every analyzed URL in alphabetical order.
func (adb *AnalysisDB) ListAnalyzedURLs(ctx context.Context) ([]URLStats, error) {
	query := `
	SELECT url, COUNT(*), MAX(timestamp)
	FROM analyses
	GROUP BY url
	ORDER BY url
	`
	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	var results []URLStats
	for rows.Next() {
		var (
			s        URLStats
			lastSeen string
		)
		if err := rows.Scan(&s.URL, &s.Count, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		s.LastSeen = parseTimestamp(lastSeen)
		results = append(results, s)
	}
	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
