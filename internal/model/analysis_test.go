package model

import (
	"errors"
	"testing"
)

func TestNewAnalysis(t *testing.T) {
	t.Parallel()

	a := NewAnalysis("https://example.com", VariantSimple)
	b := NewAnalysis("https://example.com", VariantSimple)

	if a.ID == "" {
		t.Fatal("expected a non-empty ID")
	}
	if a.ID == b.ID {
		t.Errorf("expected distinct IDs, got %s twice", a.ID)
	}
	if a.Report == nil || !a.Report.IsEmpty() {
		t.Error("expected an empty report")
	}
	if a.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
}

func TestAnalysisSetError(t *testing.T) {
	t.Parallel()

	a := NewAnalysis("https://example.com", VariantAdvanced)
	a.SetError(nil)
	if a.Failed() {
		t.Fatal("expected nil error to be ignored")
	}

	a.SetError(errors.New("first"))
	a.SetError(errors.New("second"))
	if a.Error != "first" {
		t.Errorf("expected first error to be kept, got %q", a.Error)
	}
}

func TestNewSummary(t *testing.T) {
	t.Parallel()

	t.Run("nil report", func(t *testing.T) {
		t.Parallel()

		s := NewSummary(nil)
		if s.Total() != 0 {
			t.Errorf("expected 0, got %d", s.Total())
		}
	})

	t.Run("keeps top five colors", func(t *testing.T) {
		t.Parallel()

		r := NewExtractionReport()
		r.Colors = []string{"a", "b", "c", "d", "e", "f", "g"}
		r.Fonts = []string{"Inter"}
		r.TextBlocks = []TextBlock{{Tag: "P", Text: "hello"}}
		r.Metadata.Title = "Home"

		s := NewSummary(r)
		if len(s.TopColors) != 5 {
			t.Errorf("expected 5 top colors, got %d", len(s.TopColors))
		}
		if s.ColorCount != 7 {
			t.Errorf("expected 7 colors, got %d", s.ColorCount)
		}
		if s.Title != "Home" {
			t.Errorf("expected title 'Home', got %q", s.Title)
		}
		if s.Total() != 9 {
			t.Errorf("expected total 9, got %d", s.Total())
		}
	})
}
