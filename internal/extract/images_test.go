package extract

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/model"
)

func parseDoc(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(src, "https://example.com/page/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return doc
}

func urls(images []model.ImageAsset) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.URL)
	}
	return out
}

func advanced() Options {
	return OptionsFor(model.VariantAdvanced)
}

func TestHarvestCurrentSourceBeatsBackground(t *testing.T) {
	t.Parallel()

	img := dom.NewElement("img", map[string]string{"src": "placeholder.gif", "alt": "logo"})
	img.CurrentSrc = "https://x.com/a-400x300.png"
	div := dom.NewElement("div", nil)
	div.Style.BackgroundImage = `url("https://x.com/a.png")`
	body := dom.NewElement("body", nil)
	body.AppendChild(img)
	body.AppendChild(div)
	root := dom.NewElement("html", nil)
	root.AppendChild(body)

	base, _ := url.Parse("https://x.com/")
	doc := &dom.Document{Root: root, Base: base}

	got := NewHarvester(OptionsFor(model.VariantSimple)).Harvest(doc)
	if len(got) != 1 {
		t.Fatalf("expected 1 image, got %v", urls(got))
	}
	if got[0].URL != "https://x.com/a-400x300.png" {
		t.Errorf("expected current source url, got %s", got[0].URL)
	}
	if got[0].AltText != "logo" {
		t.Errorf("expected alt text 'logo', got %q", got[0].AltText)
	}
}

func TestHarvestEarlierSourceWins(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><head>
<meta property="og:image" content="https://example.com/hero.jpg">
</head><body>
<a href="https://example.com/hero.jpg" title="from link">zoom</a>
<img src="/hero.jpg?v=3" alt="from img" width="800" height="400">
</body></html>`)

	got := NewHarvester(advanced()).Harvest(doc)
	if len(got) != 1 {
		t.Fatalf("expected 1 image, got %v", urls(got))
	}
	if got[0].URL != "https://example.com/hero.jpg?v=3" || got[0].AltText != "from img" {
		t.Errorf("expected the img element to win, got %+v", got[0])
	}
	if got[0].Width != 800 || got[0].Height != 400 {
		t.Errorf("expected attribute dimensions, got %dx%d", got[0].Width, got[0].Height)
	}
}

func TestHarvestKeepsNumberedImages(t *testing.T) {
	t.Parallel()

	names := []string{"product_01", "product_02", "product_03", "product_10", "2023", "photo-2023", "photo-2024"}
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, `<img src="/img/%s.jpg">`, name)
	}
	doc := parseDoc(t, b.String())

	got := NewHarvester(advanced()).Harvest(doc)
	if len(got) != len(names) {
		t.Fatalf("expected %d images, got %v", len(names), urls(got))
	}
}

func TestHarvestCap(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := range 50 {
		fmt.Fprintf(&b, `<img src="/img/%d.png">`, i)
		fmt.Fprintf(&b, `<a href="/full/%d.jpg">x</a>`, i)
	}
	doc := parseDoc(t, b.String())

	for _, limit := range []int{0, 1, 7, 20, 500} {
		opts := advanced()
		opts.ImageCap = limit
		got := NewHarvester(opts).Harvest(doc)
		if len(got) > limit {
			t.Errorf("cap %d: expected at most %d images, got %d", limit, limit, len(got))
		}
		if limit <= 100 && len(got) != limit {
			t.Errorf("cap %d: expected the cap to be filled, got %d", limit, len(got))
		}
	}
}

func TestHarvestRejectsInlineAndEphemeral(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<img src="data:image/png;base64,AAAA">
<img src="blob:https://example.com/1234">
<div style="background-image: url(data:image/gif;base64,R0lG)"></div>
<img src="/ok.png">`)

	got := urls(NewHarvester(advanced()).Harvest(doc))
	if len(got) != 1 || got[0] != "https://example.com/ok.png" {
		t.Errorf("expected only the network image, got %v", got)
	}
}

func TestHarvestMinimumSize(t *testing.T) {
	t.Parallel()

	src := `<img src="/icon.png" width="16" height="16">
<img src="/wide.png" width="400" height="20">
<img src="/unknown.png">
<img src="/photo.png" width="640" height="480">`

	simple := urls(NewHarvester(OptionsFor(model.VariantSimple)).Harvest(parseDoc(t, src)))
	want := []string{"https://example.com/unknown.png", "https://example.com/photo.png"}
	if strings.Join(simple, ",") != strings.Join(want, ",") {
		t.Errorf("simple: expected %v, got %v", want, simple)
	}

	all := NewHarvester(advanced()).Harvest(parseDoc(t, src))
	if len(all) != 4 {
		t.Errorf("advanced: expected 4 images, got %v", urls(all))
	}
}

func TestHarvestSources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"lazy attribute", `<img src="" data-lazy-src="/lazy.png">`, "https://example.com/lazy.png"},
		{"lazy attribute order", `<img data-original="/b.png" data-src="/a.png">`, "https://example.com/a.png"},
		{"srcset last entry", `<picture><source srcset="/s.webp 1x, /s-big.webp 2x"></picture>`, "https://example.com/s-big.webp"},
		{"data srcset", `<img data-srcset="/d.jpg 480w, /d-hd.jpg 1080w">`, "https://example.com/d-hd.jpg"},
		{"computed background", `<style>.h{background-image:linear-gradient(red,blue),url(bg.jpg)}</style><div class="h"></div>`, "https://example.com/page/bg.jpg"},
		{"video poster", `<video poster="/poster.jpg"></video>`, "https://example.com/poster.jpg"},
		{"twitter card", `<meta name="twitter:image" content="https://cdn.example.com/card.png">`, "https://cdn.example.com/card.png"},
		{"schema image", `<div itemscope><link itemprop="image" href="/schema.png"></div>`, "https://example.com/schema.png"},
		{"svg image", `<svg><image href="/vector-raster.png"></image></svg>`, "https://example.com/vector-raster.png"},
		{"svg xlink image", `<svg><image xlink:href="/xlink.png"></image></svg>`, "https://example.com/xlink.png"},
		{"image link", `<a href="/gallery/full.jpeg">full</a>`, "https://example.com/gallery/full.jpeg"},
		{"noscript fallback", `<noscript><img src="/fallback.png"></noscript>`, "https://example.com/fallback.png"},
		{"script payload", `<script>window.__DATA__={"hero":"https:\/\/cdn.example.com\/hero.webp"};</script>`, "https://cdn.example.com/hero.webp"},
		{"linked data", `<script type="application/ld+json">{"@type":"Product","image":["/p/shoe.jpg"]}</script>`, "https://example.com/p/shoe.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := urls(NewHarvester(advanced()).Harvest(parseDoc(t, tt.src)))
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("expected [%s], got %v", tt.want, got)
			}
		})
	}
}

func TestHarvestInlineStyleSource(t *testing.T) {
	t.Parallel()

	div := dom.NewElement("div", map[string]string{"style": "color: red; background: url('/inline.png') no-repeat"})
	root := dom.NewElement("html", nil)
	root.AppendChild(div)
	base, _ := url.Parse("https://example.com/")
	doc := &dom.Document{Root: root, Base: base}

	got := urls(NewHarvester(advanced()).Harvest(doc))
	if len(got) != 1 || got[0] != "https://example.com/inline.png" {
		t.Errorf("expected inline style image, got %v", got)
	}
}

func TestHarvesterCustomSources(t *testing.T) {
	t.Parallel()

	first := Source{Name: "first", Collect: func(*dom.Document) []Candidate {
		return []Candidate{{URL: "https://example.com/a.png", AltText: "first"}}
	}}
	second := Source{Name: "second", Collect: func(*dom.Document) []Candidate {
		return []Candidate{{URL: "https://example.com/a@2x.png", AltText: "second"}}
	}}
	doc := &dom.Document{Root: dom.NewElement("html", nil)}

	h := NewHarvester(advanced(), second, first)
	if got := strings.Join(h.Sources(), ","); got != "second,first" {
		t.Errorf("expected declared order, got %s", got)
	}
	got := h.Harvest(doc)
	if len(got) != 1 || got[0].AltText != "second" {
		t.Errorf("expected the first declared source to win, got %+v", got)
	}
}

func TestLastSrcsetURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"a.png 1x, b.png 2x", "b.png"},
		{"a.png 480w,b.png 800w", "b.png"},
		{"a.png", "a.png"},
		{"a.png, b.png", "b.png"},
		{"data:image/png;base64,AAA= 1x, real.png 2x", "real.png"},
		{"", ""},
		{" , ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := LastSrcsetURL(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDefaultSourcesOrder(t *testing.T) {
	t.Parallel()

	want := "img,srcset,background,poster,meta,svg,link,inline-style,noscript,script,json-ld"
	if got := strings.Join(NewHarvester(advanced()).Sources(), ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
