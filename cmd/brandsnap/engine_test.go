package main

import (
	"bytes"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/brandsnap/internal/config"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/pipeline"
	"github.com/nao1215/brandsnap/internal/tor"
)

func validOnion(t *testing.T) string {
	t.Helper()
	addr, err := tor.ComputeV3Address(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return addr
}

func newTestEngine(t *testing.T, cfg *config.Config) *engine {
	t.Helper()
	if cfg.SiteConfigs == nil {
		cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{}}
	}
	return newEngine(cfg, discardLogger())
}

func TestEngineParseTargets(t *testing.T) {
	t.Parallel()

	t.Run("normalizes and deduplicates", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Targets = []string{"example.com", "https://example.com", "example.org"}
		e := newTestEngine(t, cfg)

		if err := e.parseTargets(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://example.com", "https://example.org"}
		if got := e.urls(); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("rejects malformed onion hosts", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Targets = []string{"example.com", "notanaddress.onion"}
		e := newTestEngine(t, cfg)

		err := e.parseTargets()
		if !errors.Is(err, tor.ErrInvalidOnionAddress) {
			t.Errorf("expected ErrInvalidOnionAddress, got %v", err)
		}
	})

	t.Run("accepts v3 onion hosts", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		onion := validOnion(t)
		cfg.Targets = []string{onion}
		e := newTestEngine(t, cfg)

		if err := e.parseTargets(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := e.urls()[0]; got != "http://"+onion {
			t.Errorf("expected http scheme for onion, got %q", got)
		}
	})
}

func TestEngineRouting(t *testing.T) {
	t.Parallel()

	web := model.MustNewTarget("https://example.com")
	onion := model.MustNewTarget(validOnion(t))
	file := model.MustNewTarget("./index.html")

	tests := []struct {
		name        string
		useTor      bool
		browser     bool
		siteBrowser bool
		target      model.Target
		wantTor     bool
		wantBrowser bool
	}{
		{name: "web direct", target: web},
		{name: "onion always via tor", target: onion, wantTor: true},
		{name: "tor flag routes web", useTor: true, target: web, wantTor: true},
		{name: "files never via tor", useTor: true, browser: true, target: file},
		{name: "browser flag", browser: true, target: web, wantBrowser: true},
		{name: "site forces browser", siteBrowser: true, target: web, wantBrowser: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.NewConfig()
			cfg.UseTor = tt.useTor
			cfg.Browser = tt.browser
			e := newTestEngine(t, cfg)

			if got := e.viaTor(tt.target); got != tt.wantTor {
				t.Errorf("expected viaTor %v, got %v", tt.wantTor, got)
			}
			site := config.SiteConfig{Browser: tt.siteBrowser}
			if got := e.viaBrowser(tt.target, site); got != tt.wantBrowser {
				t.Errorf("expected viaBrowser %v, got %v", tt.wantBrowser, got)
			}
		})
	}
}

func TestEnginePipelineFor(t *testing.T) {
	t.Parallel()

	t.Run("static targets skip the scroll trigger", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Targets = []string{"./index.html"}
		e := newTestEngine(t, cfg)
		if err := e.parseTargets(); err != nil {
			t.Fatal(err)
		}

		p := e.pipelineFor(e.urls()[0])
		if slices.Contains(p.StepNames(), pipeline.StepLazyLoad) {
			t.Errorf("expected no lazy-load step, got %v", p.StepNames())
		}
		if slices.Contains(p.StepNames(), pipeline.StepProbe) {
			t.Errorf("expected no probe step without --probe, got %v", p.StepNames())
		}
		if p.Variant() != model.VariantSimple {
			t.Errorf("expected simple variant, got %s", p.Variant())
		}
	})

	t.Run("site variant and probe", func(t *testing.T) {
		t.Parallel()
		file := &config.File{Sites: map[string]config.SiteConfig{
			"*.example.com": {Variant: "advanced"},
		}}
		if err := file.Validate(); err != nil {
			t.Fatal(err)
		}
		cfg := config.NewConfig()
		cfg.Targets = []string{"shop.example.com"}
		cfg.SiteConfigs = file
		cfg.Probe = true
		e := newTestEngine(t, cfg)
		if err := e.parseTargets(); err != nil {
			t.Fatal(err)
		}

		p := e.pipelineFor(e.urls()[0])
		if p.Variant() != model.VariantAdvanced {
			t.Errorf("expected site variant advanced, got %s", p.Variant())
		}
		if !slices.Contains(p.StepNames(), pipeline.StepProbe) {
			t.Errorf("expected probe step, got %v", p.StepNames())
		}
	})

	t.Run("browser site without a started browser falls back to static", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Browser = true
		cfg.Targets = []string{"example.com"}
		e := newTestEngine(t, cfg)
		if err := e.parseTargets(); err != nil {
			t.Fatal(err)
		}

		p := e.pipelineFor(e.urls()[0])
		if slices.Contains(p.StepNames(), pipeline.StepLazyLoad) {
			t.Errorf("expected static pipeline, got %v", p.StepNames())
		}
	})

	t.Run("unparsable target yields a pipeline", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, config.NewConfig())
		if p := e.pipelineFor("ftp://example.com"); p == nil {
			t.Error("expected a pipeline")
		}
	})
}

func TestTabOptions(t *testing.T) {
	t.Parallel()

	if got := tabOptions(config.SiteConfig{}, 0); len(got) != 1 {
		t.Errorf("expected only the load grace for empty site, got %d", len(got))
	}

	site := config.SiteConfig{
		LoadGrace:    2 * time.Second,
		WaitSelector: "#app",
		Cookie:       "session=abc",
		Headers:      map[string]string{"Accept-Language": "en"},
	}
	if got := tabOptions(site, site.LoadGrace); len(got) != 3 {
		t.Errorf("expected 3 options, got %d", len(got))
	}
	if _, ok := site.Headers["Cookie"]; ok {
		t.Error("expected site headers to be left untouched")
	}
}

func TestLoadGrace(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.LoadGrace = 1500 * time.Millisecond
	eng := newEngine(cfg, discardLogger())

	tests := []struct {
		name    string
		site    config.SiteConfig
		variant model.Variant
		want    time.Duration
	}{
		{name: "simple does not wait", variant: model.VariantSimple, want: 0},
		{name: "advanced waits", variant: model.VariantAdvanced, want: 1500 * time.Millisecond},
		{name: "site grace applies to simple", site: config.SiteConfig{LoadGrace: 2 * time.Second}, variant: model.VariantSimple, want: 2 * time.Second},
		{name: "site grace overrides advanced", site: config.SiteConfig{LoadGrace: 300 * time.Millisecond}, variant: model.VariantAdvanced, want: 300 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := eng.loadGrace(tt.site, tt.variant); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
