package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/brandsnap/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *AnalysisDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestAnalysis(url string, startedAt time.Time, colors ...string) *model.Analysis {
	a := model.NewAnalysis(url, model.VariantSimple)
	a.Mode = model.ModeStatic
	a.StartedAt = startedAt
	a.Report.Colors = append(a.Report.Colors, colors...)
	a.Report.Fonts = append(a.Report.Fonts, "Inter")
	a.Report.Metadata.Title = "Acme"
	return a
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("expected path %s, got %s", filepath.Join(dbDir, FileName), db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		a := newTestAnalysis("https://acme.example/", time.Now())
		if err := db.SaveAnalysis(context.Background(), a); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()
		got, err := db.GetAnalysisByID(context.Background(), a.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("expected stored analysis after reopen")
		}
	})
}

func TestSaveAndGetAnalysis(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	a := newTestAnalysis("https://acme.example/", time.Now(), "rgb(34, 34, 34)")
	a.Duration = 2 * time.Second
	a.AddStep("load")
	if err := db.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	got, err := db.GetAnalysisByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected analysis, got nil")
	}
	if got.URL != a.URL || got.Variant != model.VariantSimple || got.Mode != model.ModeStatic {
		t.Errorf("unexpected analysis fields: %+v", got)
	}
	if len(got.Report.Colors) != 1 || got.Report.Colors[0] != "rgb(34, 34, 34)" {
		t.Errorf("expected stored colors, got %v", got.Report.Colors)
	}
	if got.Report.Images == nil || got.Report.TextBlocks == nil {
		t.Error("expected normalized empty sequences")
	}
	if got.Duration != 2*time.Second {
		t.Errorf("expected duration 2s, got %s", got.Duration)
	}

	t.Run("missing id", func(t *testing.T) {
		got, err := db.GetAnalysisByID(ctx, "nope")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("save twice replaces", func(t *testing.T) {
		a.Report.Fonts = []string{"Georgia"}
		if err := db.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		history, err := db.GetHistory(ctx, a.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 1 {
			t.Errorf("expected 1 row, got %d", len(history))
		}
	})

	t.Run("nil analysis", func(t *testing.T) {
		if err := db.SaveAnalysis(ctx, nil); !errors.Is(err, ErrNilAnalysis) {
			t.Errorf("expected ErrNilAnalysis, got %v", err)
		}
	})

	t.Run("nil report is stored empty", func(t *testing.T) {
		b := newTestAnalysis("https://nil.example/", time.Now())
		b.Report = nil
		if err := db.SaveAnalysis(ctx, b); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		got, err := db.GetAnalysisByID(ctx, b.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Report == nil || !got.Report.IsEmpty() {
			t.Errorf("expected empty report, got %+v", got.Report)
		}
	})
}

func TestHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := newTestAnalysis("https://acme.example/", base, "rgb(0, 0, 0)")
	newer := newTestAnalysis("https://acme.example/", base.Add(time.Hour), "rgb(255, 255, 255)", "rgb(1, 2, 3)")
	other := newTestAnalysis("https://beta.example/", base.Add(2*time.Hour))
	for _, a := range []*model.Analysis{newer, other, older} {
		if err := db.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}

	t.Run("latest", func(t *testing.T) {
		got, err := db.GetLatestAnalysis(ctx, "https://acme.example/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.ID != newer.ID {
			t.Errorf("expected newest analysis %s, got %+v", newer.ID, got)
		}
	})

	t.Run("latest of unknown url", func(t *testing.T) {
		got, err := db.GetLatestAnalysis(ctx, "https://unknown.example/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("history newest first", func(t *testing.T) {
		history, err := db.GetHistory(ctx, "https://acme.example/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(history))
		}
		if history[0].ID != newer.ID || history[1].ID != older.ID {
			t.Errorf("unexpected order: %s, %s", history[0].ID, history[1].ID)
		}
		if !history[0].Timestamp.Equal(base.Add(time.Hour)) {
			t.Errorf("expected timestamp %s, got %s", base.Add(time.Hour), history[0].Timestamp)
		}
		if history[0].Summary.ColorCount != 2 || history[0].Summary.Title != "Acme" {
			t.Errorf("unexpected summary: %+v", history[0].Summary)
		}
		if history[0].Host != "acme.example" {
			t.Errorf("expected host acme.example, got %q", history[0].Host)
		}
	})

	t.Run("recent analyses", func(t *testing.T) {
		recent, err := db.GetRecentAnalyses(ctx, "https://acme.example/", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recent) != 1 || recent[0].ID != newer.ID {
			t.Errorf("expected only the newest analysis, got %d", len(recent))
		}
	})

	t.Run("list urls", func(t *testing.T) {
		urls, err := db.ListAnalyzedURLs(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(urls) != 2 {
			t.Fatalf("expected 2 urls, got %d", len(urls))
		}
		if urls[0].URL != "https://acme.example/" || urls[0].Count != 2 {
			t.Errorf("unexpected first url: %+v", urls[0])
		}
		if !urls[1].LastSeen.Equal(base.Add(2 * time.Hour)) {
			t.Errorf("expected last seen %s, got %s", base.Add(2*time.Hour), urls[1].LastSeen)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		zero  bool
	}{
		{"2026-03-01T12:00:00.000000000Z", false},
		{"2026-03-01T12:00:00Z", false},
		{"2026-03-01 12:00:00", false},
		{"not a time", true},
	}
	for _, tt := range tests {
		got := parseTimestamp(tt.input)
		if got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q): expected zero=%v, got %s", tt.input, tt.zero, got)
		}
	}
}
