package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/brandsnap/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "brandsnap"

	// DefaultVariant is the extraction configuration used when none is given.
	DefaultVariant = model.VariantSimple

	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	// 127.0.0.1 avoids resolving localhost to an IPv6 address.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTimeout bounds loading one page, including navigation in
	// browser mode.
	DefaultTimeout = 30 * time.Second

	// DefaultAnalysisTimeout bounds the wait for a report to be delivered.
	DefaultAnalysisTimeout = 30 * time.Second

	// DefaultBatchSize is the number of pages analyzed concurrently.
	// Each browser-mode analysis holds a tab, so this stays low.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies brandsnap in HTTP requests.
	DefaultUserAgent = "brandsnap/1.0 (+https://github.com/nao1215/brandsnap)"

	// DefaultMaxBodySize limits the HTML read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultMaxStylesheets limits the external style sheets fetched per page.
	DefaultMaxStylesheets = 16

	// DefaultMaxProbes limits image dimension probes per report.
	DefaultMaxProbes = 50

	// DefaultLoadGrace is the wait after the browser reports the page loaded.
	DefaultLoadGrace = 1500 * time.Millisecond

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all configuration options for brandsnap.
// It is populated from CLI flags and passed through the application rather
// than kept in global state.
type Config struct {
	// Targets is the list of pages to analyze: URLs, bare hosts, or local
	// HTML files.
	Targets []string

	// Variant selects the extraction configuration.
	Variant model.Variant

	// Browser renders pages in headless Chrome instead of the static cascade.
	Browser bool

	// ChromePath overrides the Chrome executable. Empty means auto-detect.
	ChromePath string

	// Headful shows the browser window. Useful only for debugging.
	Headful bool

	// LoadGrace is the wait after load before extraction in browser mode.
	LoadGrace time.Duration

	// WaitSelector, when set, is awaited before extraction in browser mode.
	WaitSelector string

	// UseTor routes every request through Tor. Onion targets always use Tor.
	UseTor bool

	// UseExternalTor uses the proxy at TorProxyAddress instead of starting
	// the embedded Tor daemon.
	UseExternalTor bool

	// TorProxyAddress is the Tor SOCKS5 proxy in "host:port" format.
	TorProxyAddress string

	// TorStartupTimeout bounds the embedded daemon bootstrap.
	TorStartupTimeout time.Duration

	// Timeout bounds loading one page.
	Timeout time.Duration

	// AnalysisTimeout bounds the wait for one report to be delivered.
	AnalysisTimeout time.Duration

	// Probe downloads image headers to fill unknown dimensions.
	Probe bool

	// MaxProbes limits dimension probes per report.
	MaxProbes int

	// BatchSize is the number of pages analyzed concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .brandsnap is searched in the current directory and then
	// in the home directory.
	ConfigFilePath string

	// SiteConfigs holds the per-site overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport prints the extraction report as JSON.
	JSONReport bool

	// FullJSON prints the whole analysis envelope instead of the bare report.
	// It implies JSONReport.
	FullJSON bool

	// MarkdownReport prints a Markdown document.
	MarkdownReport bool

	// ReportFile is the output file path. Empty means stdout.
	ReportFile string

	// DBDir is the directory of the analysis database.
	DBDir string

	// SaveToDB stores every analysis in the database.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxBodySize is the maximum HTML size read per page, in bytes.
	// Zero uses the default.
	MaxBodySize int64

	// MaxStylesheets limits external style sheets per page. Zero disables them.
	MaxStylesheets int

	// BaseURL resolves relative references of local HTML files.
	BaseURL string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Variant:           DefaultVariant,
		LoadGrace:         DefaultLoadGrace,
		TorProxyAddress:   DefaultTorProxyAddress,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Timeout:           DefaultTimeout,
		AnalysisTimeout:   DefaultAnalysisTimeout,
		MaxProbes:         DefaultMaxProbes,
		BatchSize:         DefaultBatchSize,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		MaxStylesheets:    DefaultMaxStylesheets,
	}
}

// XDGDataDir returns the XDG data directory for brandsnap.
// On Linux: ~/.local/share/brandsnap
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for brandsnap.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for brandsnap.
// The browser profile lives here.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing, before any page is loaded.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if !c.Variant.IsValid() {
		return ErrInvalidVariant
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.AnalysisTimeout <= 0 {
		return ErrInvalidAnalysisTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if (c.JSONReport || c.FullJSON) && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxProbes < 0 {
		return ErrInvalidMaxProbes
	}
	if c.MaxStylesheets < 0 {
		return ErrInvalidMaxStylesheets
	}
	if c.LoadGrace < 0 {
		return ErrInvalidLoadGrace
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidBaseURL
		}
	}
	return nil
}
