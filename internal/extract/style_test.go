package extract

import (
	"fmt"
	"slices"
	"testing"

	"github.com/nao1215/brandsnap/internal/dom"
)

func TestColorCountTop(t *testing.T) {
	t.Parallel()

	t.Run("ties keep first-seen order", func(t *testing.T) {
		t.Parallel()

		c := NewColorCount()
		for range 10 {
			c.Add("A")
		}
		c.Add("C")
		for range 10 {
			c.Add("B")
		}

		got := c.Top(MaxColors)
		want := []string{"A", "B", "C"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("transparent tokens are ignored", func(t *testing.T) {
		t.Parallel()

		c := NewColorCount()
		c.Add("transparent")
		c.Add(dom.Transparent)
		c.Add("")
		if c.Len() != 0 {
			t.Errorf("expected 0 tokens, got %d", c.Len())
		}
	})

	t.Run("caps the ranking", func(t *testing.T) {
		t.Parallel()

		c := NewColorCount()
		for i := range 30 {
			c.Add(fmt.Sprintf("rgb(%d, 0, 0)", i))
		}
		if got := len(c.Top(MaxColors)); got != MaxColors {
			t.Errorf("expected %d colors, got %d", MaxColors, got)
		}
	})

	t.Run("empty table yields empty slice", func(t *testing.T) {
		t.Parallel()

		got := NewColorCount().Top(MaxColors)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})
}

func TestFontSet(t *testing.T) {
	t.Parallel()

	f := NewFontSet()
	f.AddStack(`"Helvetica Neue", Arial , 'Inter', sans-serif`)
	f.AddStack(`Arial, "Inter", Georgia`)
	f.AddStack(``)

	want := []string{"Helvetica Neue", "Arial", "Inter", "sans-serif", "Georgia"}
	if got := f.Names(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAggregateStyles(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(`<html><head><style>
body { color: #111; font-family: Inter, sans-serif; }
.card { background-color: #fff; }
.accent { color: #e63946; }
</style></head>
<body>
  <div class="card"><p>one</p><p>two</p></div>
  <div class="card"><span class="accent">three</span></div>
  <div style="background: transparent">four</div>
</body></html>`, "https://example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	colors, fonts := AggregateStyles(doc)

	if len(colors) == 0 || colors[0] != "rgb(17, 17, 17)" {
		t.Errorf("expected body color to rank first, got %v", colors)
	}
	if !slices.Contains(colors, "rgb(255, 255, 255)") || !slices.Contains(colors, "rgb(230, 57, 70)") {
		t.Errorf("expected card and accent colors, got %v", colors)
	}
	if slices.Contains(colors, dom.Transparent) {
		t.Errorf("expected transparent to be excluded, got %v", colors)
	}
	for i, c := range colors {
		if slices.Index(colors, c) != i {
			t.Errorf("expected no duplicates, got %v", colors)
		}
	}
	if !slices.Contains(fonts, "Inter") || !slices.Contains(fonts, "sans-serif") {
		t.Errorf("expected body fonts, got %v", fonts)
	}
}

func TestAggregateStylesTransparentBackgroundContributesNothing(t *testing.T) {
	t.Parallel()

	root := dom.NewElement("html", nil)
	root.Style = dom.ComputedStyle{Color: "", BackgroundColor: dom.Transparent}
	doc := &dom.Document{Root: root}

	colors, fonts := AggregateStyles(doc)
	if len(colors) != 0 || len(fonts) != 0 {
		t.Errorf("expected no colors or fonts, got %v %v", colors, fonts)
	}
}
