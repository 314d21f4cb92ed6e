package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewExtractionReport(t *testing.T) {
	t.Parallel()

	t.Run("serializes empty sequences as arrays", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(NewExtractionReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := string(data)
		for _, want := range []string{`"colors":[]`, `"fonts":[]`, `"images":[]`, `"textBlocks":[]`} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %s in %s", want, got)
			}
		}
	})

	t.Run("uses the wire field names", func(t *testing.T) {
		t.Parallel()

		r := NewExtractionReport()
		r.Images = append(r.Images, ImageAsset{URL: "https://a.test/x.png", AltText: "logo", Width: 10, Height: 20})
		r.Metadata = Metadata{Title: "T", Description: "D", FaviconURL: "https://a.test/favicon.ico"}

		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := string(data)
		for _, want := range []string{`"altText":"logo"`, `"faviconUrl":"https://a.test/favicon.ico"`, `"width":10`, `"height":20`} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %s in %s", want, got)
			}
		}
	})

	t.Run("new report is empty", func(t *testing.T) {
		t.Parallel()

		if !NewExtractionReport().IsEmpty() {
			t.Error("expected new report to be empty")
		}
	})
}

func TestExtractionReportNormalize(t *testing.T) {
	t.Parallel()

	t.Run("replaces nil slices", func(t *testing.T) {
		t.Parallel()

		r := &ExtractionReport{}
		r.Normalize()

		if r.Colors == nil || r.Fonts == nil || r.Images == nil || r.TextBlocks == nil {
			t.Errorf("expected non-nil slices, got %+v", r)
		}
	})

	t.Run("nil receiver does not panic", func(t *testing.T) {
		t.Parallel()

		var r *ExtractionReport
		r.Normalize()
		if !r.IsEmpty() {
			t.Error("expected nil report to be empty")
		}
	})
}

func TestImageAssetHasDimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		asset ImageAsset
		want  bool
	}{
		{"both known", ImageAsset{Width: 10, Height: 10}, true},
		{"width unknown", ImageAsset{Height: 10}, false},
		{"both unknown", ImageAsset{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.asset.HasDimensions(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
