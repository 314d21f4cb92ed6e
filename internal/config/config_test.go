package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/brandsnap/internal/model"
)

// TestNewConfig documents the defaults; changes to them must be intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Variant is simple", func(t *testing.T) {
		t.Parallel()
		if cfg.Variant != model.VariantSimple {
			t.Errorf("expected Variant to be simple, got %s", cfg.Variant)
		}
	})

	t.Run("default timeouts", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
		if cfg.AnalysisTimeout != 30*time.Second {
			t.Errorf("expected AnalysisTimeout to be 30s, got %v", cfg.AnalysisTimeout)
		}
		if cfg.LoadGrace != 1500*time.Millisecond {
			t.Errorf("expected LoadGrace to be 1.5s, got %v", cfg.LoadGrace)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default Tor settings", func(t *testing.T) {
		t.Parallel()
		if cfg.UseTor || cfg.UseExternalTor {
			t.Error("expected Tor to be off by default")
		}
		if cfg.TorProxyAddress != "127.0.0.1:9050" {
			t.Errorf("expected TorProxyAddress to be '127.0.0.1:9050', got '%s'", cfg.TorProxyAddress)
		}
		if cfg.TorStartupTimeout != 3*time.Minute {
			t.Errorf("expected TorStartupTimeout to be 3m, got %v", cfg.TorStartupTimeout)
		}
	})

	t.Run("saves to XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %s, got %s", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("defaults validate once a target is set", func(t *testing.T) {
		t.Parallel()
		c := NewConfig()
		c.Targets = []string{"https://example.com"}
		if err := c.Validate(); err != nil {
			t.Errorf("expected defaults to be valid, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "no targets", modify: func(c *Config) { c.Targets = nil }, want: ErrNoTarget},
		{name: "unknown variant", modify: func(c *Config) { c.Variant = model.VariantUnknown }, want: ErrInvalidVariant},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative analysis timeout", modify: func(c *Config) { c.AnalysisTimeout = -time.Second }, want: ErrInvalidAnalysisTimeout},
		{name: "zero batch size", modify: func(c *Config) { c.BatchSize = 0 }, want: ErrInvalidBatchSize},
		{name: "json and markdown", modify: func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, want: ErrConflictingReportFormats},
		{name: "full json and markdown", modify: func(c *Config) { c.FullJSON, c.MarkdownReport = true, true }, want: ErrConflictingReportFormats},
		{name: "json only", modify: func(c *Config) { c.JSONReport = true }},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
		{name: "negative probes", modify: func(c *Config) { c.MaxProbes = -1 }, want: ErrInvalidMaxProbes},
		{name: "negative stylesheets", modify: func(c *Config) { c.MaxStylesheets = -1 }, want: ErrInvalidMaxStylesheets},
		{name: "negative load grace", modify: func(c *Config) { c.LoadGrace = -1 }, want: ErrInvalidLoadGrace},
		{name: "valid base url", modify: func(c *Config) { c.BaseURL = "https://example.com/site/" }},
		{name: "relative base url", modify: func(c *Config) { c.BaseURL = "/site/" }, want: ErrInvalidBaseURL},
		{name: "ftp base url", modify: func(c *Config) { c.BaseURL = "ftp://example.com/" }, want: ErrInvalidBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewConfig()
			c.Targets = []string{"https://example.com", "./page.html"}
			tt.modify(c)

			err := c.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func mustFile(t *testing.T, cf *File) *File {
	t.Helper()
	if err := cf.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	return cf
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()
		cf := mustFile(t, &File{
			Defaults: SiteConfig{Cookie: "default=1", Variant: "advanced"},
			Sites:    map[string]SiteConfig{"shop.example.com": {Cookie: "shop=1"}},
		})
		got := cf.GetSiteConfig("other.example.com")
		if got.Cookie != "default=1" {
			t.Errorf("expected default cookie, got %q", got.Cookie)
		}
		if got.ParsedVariant() != model.VariantAdvanced {
			t.Errorf("expected advanced variant, got %s", got.ParsedVariant())
		}
	})

	t.Run("exact host overrides defaults", func(t *testing.T) {
		t.Parallel()
		cf := mustFile(t, &File{
			Defaults: SiteConfig{Cookie: "default=1", Headers: map[string]string{"X-A": "1", "X-B": "1"}},
			Sites: map[string]SiteConfig{
				"shop.example.com": {Cookie: "shop=1", Headers: map[string]string{"X-B": "2"}},
			},
		})
		got := cf.GetSiteConfig("Shop.Example.com.")
		if got.Cookie != "shop=1" {
			t.Errorf("expected site cookie, got %q", got.Cookie)
		}
		if got.Headers["X-A"] != "1" || got.Headers["X-B"] != "2" {
			t.Errorf("expected merged headers, got %v", got.Headers)
		}
		if cf.Defaults.Headers["X-B"] != "1" {
			t.Error("expected defaults to stay untouched")
		}
	})

	t.Run("glob patterns layer by specificity", func(t *testing.T) {
		t.Parallel()
		cf := mustFile(t, &File{
			Sites: map[string]SiteConfig{
				"**.example.com":   {Cookie: "any=1", WaitSelector: "#app"},
				"*.example.com":    {Cookie: "one=1"},
				"shop.example.com": {Cookie: "shop=1"},
			},
		})

		tests := []struct {
			host     string
			cookie   string
			selector string
		}{
			{host: "shop.example.com", cookie: "shop=1", selector: "#app"},
			{host: "blog.example.com", cookie: "one=1", selector: "#app"},
			{host: "a.b.example.com", cookie: "any=1", selector: "#app"},
			{host: "example.org", cookie: "", selector: ""},
		}
		for _, tt := range tests {
			got := cf.GetSiteConfig(tt.host)
			if got.Cookie != tt.cookie || got.WaitSelector != tt.selector {
				t.Errorf("%s: expected cookie %q selector %q, got %q %q",
					tt.host, tt.cookie, tt.selector, got.Cookie, got.WaitSelector)
			}
		}
	})

	t.Run("lazy load overrides merge field by field", func(t *testing.T) {
		t.Parallel()
		cf := mustFile(t, &File{
			Defaults: SiteConfig{LazyLoad: LazyLoadConfig{Step: 300, Timeout: 5 * time.Second}},
			Sites: map[string]SiteConfig{
				"feed.example.com": {LazyLoad: LazyLoadConfig{Timeout: 20 * time.Second}},
			},
		})
		got := cf.GetSiteConfig("feed.example.com").LazyLoad
		if got.Step != 300 || got.Timeout != 20*time.Second {
			t.Errorf("expected step 300 and timeout 20s, got %+v", got)
		}
		if n := len(got.Options()); n != 2 {
			t.Errorf("expected 2 trigger options, got %d", n)
		}
	})

	t.Run("unvalidated file ignores sites", func(t *testing.T) {
		t.Parallel()
		cf := &File{
			Defaults: SiteConfig{Cookie: "d=1"},
			Sites:    map[string]SiteConfig{"example.com": {Cookie: "s=1"}},
		}
		if got := cf.GetSiteConfig("example.com"); got.Cookie != "d=1" {
			t.Errorf("expected defaults only, got %q", got.Cookie)
		}
	})

	t.Run("nil file", func(t *testing.T) {
		t.Parallel()
		var cf *File
		if got := cf.GetSiteConfig("example.com"); got.Cookie != "" {
			t.Errorf("expected empty config, got %+v", got)
		}
	})
}

func TestFileValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file File
		want error
	}{
		{name: "bad variant", file: File{Sites: map[string]SiteConfig{"a.com": {Variant: "fancy"}}}, want: ErrInvalidVariant},
		{name: "bad default variant", file: File{Defaults: SiteConfig{Variant: "fancy"}}, want: ErrInvalidVariant},
		{name: "negative scroll step", file: File{Sites: map[string]SiteConfig{"a.com": {LazyLoad: LazyLoadConfig{Step: -1}}}}, want: ErrInvalidLazyLoad},
		{name: "negative load grace", file: File{Defaults: SiteConfig{LoadGrace: -time.Second}}, want: ErrInvalidLoadGrace},
		{name: "broken glob", file: File{Sites: map[string]SiteConfig{"[a.com": {}}}, want: ErrInvalidSitePattern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.file.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()
		content := `
defaults:
  variant: simple
  lazyLoad:
    step: 600
    interval: 50ms
sites:
  "*.shop.example":
    cookie: "session=abc"
    headers:
      Authorization: "Bearer token"
    variant: advanced
    browser: true
    waitSelector: ".product-grid"
    loadGrace: 3s
    lazyLoad:
      timeout: 20s
`
		path := filepath.Join(t.TempDir(), ".brandsnap")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		site := cf.GetSiteConfig("www.shop.example")
		if site.Cookie != "session=abc" || site.Headers["Authorization"] != "Bearer token" {
			t.Errorf("unexpected credentials: %+v", site)
		}
		if site.ParsedVariant() != model.VariantAdvanced || !site.Browser {
			t.Errorf("expected advanced browser site, got %+v", site)
		}
		if site.LoadGrace != 3*time.Second {
			t.Errorf("expected load grace 3s, got %v", site.LoadGrace)
		}
		want := LazyLoadConfig{Step: 600, Interval: 50 * time.Millisecond, Timeout: 20 * time.Second}
		if site.LazyLoad != want {
			t.Errorf("expected %+v, got %+v", want, site.LazyLoad)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".brandsnap")
		if err := os.WriteFile(path, []byte("sites: [unclosed"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects invalid site values", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfigFile([]byte("sites:\n  example.com:\n    variant: huge\n"))
		if !errors.Is(err, ErrInvalidVariant) {
			t.Errorf("expected ErrInvalidVariant, got %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "example.com") {
			t.Errorf("expected error to name the site, got %v", err)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()
		cf, err := ParseConfigFile([]byte("defaults:\n  cookie: a=b\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("expected empty path, got %s", got)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if dir == "" {
			t.Errorf("expected non-empty %s dir", name)
		}
		if filepath.Base(dir) != AppName {
			t.Errorf("expected %s dir to end with %s, got %s", name, AppName, dir)
		}
	}
}
