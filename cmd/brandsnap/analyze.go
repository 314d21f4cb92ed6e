package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/brandsnap/internal/config"
	applog "github.com/nao1215/brandsnap/internal/log"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [targets...]",
		Short: "Extract the brand signature of one or more pages",
		Long: `Analyze extracts the dominant colors, font families, images, visible text
and metadata of each target and prints a report.

A target is a URL, a bare host name (https is assumed) or a local HTML file.
Onion services are reached through Tor: by default brandsnap starts an
embedded Tor daemon, use --external-tor to point it at a running proxy.

Every analysis is stored in the local database so it can be listed with
'brandsnap history' and diffed with 'brandsnap compare'.

Examples:
  # Analyze a page with the built-in CSS cascade
  brandsnap analyze example.com

  # Render with headless Chrome and harvest more images
  brandsnap analyze --browser --variant advanced https://example.com

  # Analyze a local file whose relative links point at production
  brandsnap analyze --base-url https://example.com ./dist/index.html

  # Several pages, JSON output to a file
  brandsnap analyze -j -o reports/brand.json example.com example.org`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyzeCmd,
	}

	// Extraction flags
	cmd.Flags().String("variant", string(config.DefaultVariant),
		"Extraction configuration: simple or advanced")
	cmd.Flags().Bool("probe", false,
		"Download image headers to fill unknown dimensions")
	cmd.Flags().Int("max-probes", config.DefaultMaxProbes,
		"Maximum image dimension probes per page")

	// Rendering flags
	cmd.Flags().Bool("browser", false,
		"Render pages in headless Chrome")
	cmd.Flags().String("chrome-path", "",
		"Path to the Chrome executable (default: auto-detect)")
	cmd.Flags().Bool("headful", false,
		"Show the browser window (debugging)")
	cmd.Flags().String("wait-selector", "",
		"CSS selector to wait for before extraction in browser mode")
	cmd.Flags().Duration("load-grace", config.DefaultLoadGrace,
		"Wait after the page load event in browser mode (advanced variant)")

	// Tor flags
	cmd.Flags().Bool("tor", false,
		"Route every request through Tor (onion targets always use Tor)")
	cmd.Flags().StringP("external-tor", "e", "",
		"Use an existing Tor SOCKS5 proxy instead of the embedded daemon (e.g. 127.0.0.1:9050)")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for the embedded Tor daemon to bootstrap")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for loading one page")
	cmd.Flags().Duration("analysis-timeout", config.DefaultAnalysisTimeout,
		"Timeout for one report to be delivered")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int("max-stylesheets", config.DefaultMaxStylesheets,
		"Maximum external style sheets fetched per page")
	cmd.Flags().String("base-url", "",
		"Resolve relative references of local HTML files against this URL")

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of pages to analyze concurrently")
	cmd.Flags().StringP("config", "c", "",
		"Path to configuration file (default: .brandsnap in current or home directory)")

	// Output flags
	cmd.Flags().BoolP("json", "j", false,
		"Output the extraction report as JSON")
	cmd.Flags().Bool("full-json", false,
		"Output the whole analysis (timings, lazy-load stats, summary) as JSON")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the report as Markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout")
	cmd.Flags().Bool("no-save", false,
		"Do not store the analysis in the database")
	addDBDirFlag(cmd)

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cfg, logger, cmd.OutOrStdout())
}

// getBoolFlag reads a local flag, falling back to the persistent flags of
// the root command.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	variant, err := flags.GetString("variant")
	if err != nil {
		return nil, err
	}
	cfg.Variant = model.ParseVariant(variant)

	if cfg.Probe, err = flags.GetBool("probe"); err != nil {
		return nil, err
	}
	if cfg.MaxProbes, err = flags.GetInt("max-probes"); err != nil {
		return nil, err
	}
	if cfg.Browser, err = flags.GetBool("browser"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
		return nil, err
	}
	if cfg.Headful, err = flags.GetBool("headful"); err != nil {
		return nil, err
	}
	if cfg.WaitSelector, err = flags.GetString("wait-selector"); err != nil {
		return nil, err
	}
	if cfg.LoadGrace, err = flags.GetDuration("load-grace"); err != nil {
		return nil, err
	}

	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	externalTor, err := flags.GetString("external-tor")
	if err != nil {
		return nil, err
	}
	if externalTor != "" {
		cfg.UseExternalTor = true
		cfg.TorProxyAddress = externalTor
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.AnalysisTimeout, err = flags.GetDuration("analysis-timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxStylesheets, err = flags.GetInt("max-stylesheets"); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.FullJSON, err = flags.GetBool("full-json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")
	cfg.Targets = args

	return cfg, nil
}

// loadSiteConfigs loads the per-site settings. A missing file is an error
// only when its path was given explicitly.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return file, nil
}

// addDBDirFlag registers the database directory flag shared by the commands
// that read or write analyses.
func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the analysis database")
}

// setupLogger creates the process logger. Logs go to stderr so reports on
// stdout stay machine readable.
func setupLogger(verbose, jsonOutput bool) *slog.Logger {
	return newLogger(os.Stderr, verbose, jsonOutput)
}

func newLogger(w io.Writer, verbose, jsonOutput bool) *slog.Logger {
	return applog.New(w, applog.Options{Verbose: verbose, JSON: jsonOutput})
}
