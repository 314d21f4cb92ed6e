package config

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/nao1215/brandsnap/internal/lazyload"
	"github.com/nao1215/brandsnap/internal/model"
)

// LazyLoadConfig overrides the scroll trigger timings. Zero values keep
// the defaults.
type LazyLoadConfig struct {
	// Skip disables the scroll trigger for the site.
	Skip bool `yaml:"skip,omitempty"`

	// Step is the scroll increment in pixels.
	Step int `yaml:"step,omitempty"`

	// Interval is the delay between increments.
	Interval time.Duration `yaml:"interval,omitempty"`

	// Timeout is the hard bound on scrolling.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Settle is the wait after the scroll offset is restored.
	Settle time.Duration `yaml:"settle,omitempty"`
}

// Options converts the overrides to trigger options.
func (l LazyLoadConfig) Options() []lazyload.Option {
	var opts []lazyload.Option
	if l.Step > 0 {
		opts = append(opts, lazyload.WithStep(l.Step))
	}
	if l.Interval > 0 {
		opts = append(opts, lazyload.WithInterval(l.Interval))
	}
	if l.Timeout > 0 {
		opts = append(opts, lazyload.WithTimeout(l.Timeout))
	}
	if l.Settle > 0 {
		opts = append(opts, lazyload.WithSettle(l.Settle))
	}
	return opts
}

func (l LazyLoadConfig) validate() error {
	if l.Step < 0 || l.Interval < 0 || l.Timeout < 0 || l.Settle < 0 {
		return ErrInvalidLazyLoad
	}
	return nil
}

// merge overlays the non-zero fields of o.
func (l LazyLoadConfig) merge(o LazyLoadConfig) LazyLoadConfig {
	if o.Skip {
		l.Skip = true
	}
	if o.Step != 0 {
		l.Step = o.Step
	}
	if o.Interval != 0 {
		l.Interval = o.Interval
	}
	if o.Timeout != 0 {
		l.Timeout = o.Timeout
	}
	if o.Settle != 0 {
		l.Settle = o.Settle
	}
	return l
}

// SiteConfig holds the overrides for the pages of one host.
type SiteConfig struct {
	// Cookie is sent with every request to the site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Variant overrides the extraction configuration for this site.
	Variant string `yaml:"variant,omitempty"`

	// Browser forces browser rendering for this site.
	Browser bool `yaml:"browser,omitempty"`

	// WaitSelector is awaited before extraction in browser mode.
	WaitSelector string `yaml:"waitSelector,omitempty"`

	// LoadGrace overrides the wait after load in browser mode.
	LoadGrace time.Duration `yaml:"loadGrace,omitempty"`

	// LazyLoad overrides the scroll trigger timings.
	LazyLoad LazyLoadConfig `yaml:"lazyLoad,omitempty"`
}

// ParsedVariant returns the configured variant, or VariantUnknown when unset.
func (s SiteConfig) ParsedVariant() model.Variant {
	return model.ParseVariant(s.Variant)
}

// merge overlays the non-zero fields of o. Headers are merged key by key.
func (s SiteConfig) merge(o SiteConfig) SiteConfig {
	if o.Cookie != "" {
		s.Cookie = o.Cookie
	}
	if len(o.Headers) > 0 {
		headers := make(map[string]string, len(s.Headers)+len(o.Headers))
		for k, v := range s.Headers {
			headers[k] = v
		}
		for k, v := range o.Headers {
			headers[k] = v
		}
		s.Headers = headers
	}
	if o.Variant != "" {
		s.Variant = o.Variant
	}
	if o.Browser {
		s.Browser = true
	}
	if o.WaitSelector != "" {
		s.WaitSelector = o.WaitSelector
	}
	if o.LoadGrace != 0 {
		s.LoadGrace = o.LoadGrace
	}
	s.LazyLoad = s.LazyLoad.merge(o.LazyLoad)
	return s
}

func (s SiteConfig) validate() error {
	if s.Variant != "" && !s.ParsedVariant().IsValid() {
		return ErrInvalidVariant
	}
	if s.LoadGrace < 0 {
		return ErrInvalidLoadGrace
	}
	return s.LazyLoad.validate()
}

// File represents the structure of the .brandsnap configuration file.
type File struct {
	// Sites maps host patterns to their overrides. A key is an exact host
	// ("shop.example.com") or a glob where * stays inside one label
	// ("*.example.com") and ** spans labels ("**.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	patterns []sitePattern
}

type sitePattern struct {
	key  string
	rank int
	glob glob.Glob
}

func specificity(pattern string) int {
	switch {
	case strings.Contains(pattern, "**"):
		return 0
	case strings.ContainsAny(pattern, "*?[{"):
		return 1
	default:
		return 2
	}
}

// compile validates the file and prepares the host patterns. Patterns are
// ordered from least to most specific so later matches win: ** globs, then
// other globs, then exact hosts; within a rank shorter keys come first.
func (cf *File) compile() ([]sitePattern, error) {
	if err := cf.Defaults.validate(); err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	patterns := make([]sitePattern, 0, len(cf.Sites))
	for key, site := range cf.Sites {
		if err := site.validate(); err != nil {
			return nil, fmt.Errorf("site %q: %w", key, err)
		}
		normalized := strings.ToLower(strings.TrimSpace(key))
		g, err := glob.Compile(normalized, '.')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidSitePattern, key, err)
		}
		patterns = append(patterns, sitePattern{
			key:  key,
			rank:    specificity(normalized),
			glob:    g,
		})
	}
	slices.SortFunc(patterns, func(a, b sitePattern) int {
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		if c := cmp.Compare(len(a.key), len(b.key)); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	return patterns, nil
}

// Validate checks every site entry and compiles the host patterns.
// LoadConfigFile calls it; files built in code should call it once before
// use.
func (cf *File) Validate() error {
	patterns, err := cf.compile()
	if err != nil {
		return err
	}
	cf.patterns = patterns
	return nil
}

// GetSiteConfig returns the overrides for host: the defaults, then every
// matching pattern from least to most specific. Sites of a file that was
// never validated are ignored.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	result := cf.Defaults.merge(SiteConfig{})
	for _, p := range cf.patterns {
		if p.glob.Match(host) {
			result = result.merge(cf.Sites[p.key])
		}
	}
	return result
}
