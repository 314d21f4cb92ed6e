package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/brandsnap/internal/browser"
	"github.com/nao1215/brandsnap/internal/config"
	"github.com/nao1215/brandsnap/internal/fetch"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/pipeline"
	"github.com/nao1215/brandsnap/internal/probe"
	"github.com/nao1215/brandsnap/internal/tor"
)

// engine owns the long-lived resources of one analyze run: the Tor
// connection and the browsers. It builds a pipeline per target.
type engine struct {
	cfg    *config.Config
	logger *slog.Logger
	status io.Writer

	targets []model.Target
	byURL   map[string]model.Target

	torClient *tor.Client
	embedded  *tor.EmbeddedTor
	direct    *browser.Browser
	onion     *browser.Browser
}

func newEngine(cfg *config.Config, logger *slog.Logger) *engine {
	return &engine{
		cfg:    cfg,
		logger: logger,
		status: os.Stderr,
		byURL:  make(map[string]model.Target),
	}
}

// parseTargets normalizes every target and rejects the run on the first
// invalid one, before any network resource is started.
func (e *engine) parseTargets() error {
	for _, raw := range e.cfg.Targets {
		t, err := model.NewTarget(raw)
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", raw, err)
		}
		if hasOnionSuffix(t.Host()) {
			if err := tor.ValidateHost(t.Host()); err != nil {
				return fmt.Errorf("invalid target %q: %w", raw, err)
			}
		}
		if _, dup := e.byURL[t.String()]; dup {
			e.logger.Debug("skipping duplicate target", "target", raw)
			continue
		}
		e.targets = append(e.targets, t)
		e.byURL[t.String()] = t
	}
	return nil
}

// urls returns the normalized addresses of the targets, in input order.
func (e *engine) urls() []string {
	urls := make([]string, 0, len(e.targets))
	for _, t := range e.targets {
		urls = append(urls, t.String())
	}
	return urls
}

func hasOnionSuffix(host string) bool {
	return strings.HasSuffix(strings.TrimSuffix(host, "."), tor.OnionSuffix)
}

// viaTor reports whether requests for t go through Tor.
func (e *engine) viaTor(t model.Target) bool {
	if t.IsFile() {
		return false
	}
	return e.cfg.UseTor || t.IsOnion() || hasOnionSuffix(t.Host())
}

// viaBrowser reports whether t is rendered by Chrome. Local files are
// always styled by the static cascade.
func (e *engine) viaBrowser(t model.Target, site config.SiteConfig) bool {
	if t.IsFile() {
		return false
	}
	return e.cfg.Browser || site.Browser
}

// start brings up Tor and the browsers the targets need.
func (e *engine) start(ctx context.Context) error {
	needTor := false
	needDirectBrowser := false
	needTorBrowser := false
	for _, t := range e.targets {
		routed := e.viaTor(t)
		needTor = needTor || routed
		if e.viaBrowser(t, e.cfg.SiteConfigs.GetSiteConfig(t.Host())) {
			needTorBrowser = needTorBrowser || routed
			needDirectBrowser = needDirectBrowser || !routed
		}
	}

	if needTor {
		if err := e.startTor(ctx); err != nil {
			return err
		}
	}
	if needDirectBrowser {
		e.direct = browser.New(e.browserOptions("direct")...)
		if err := e.direct.Start(ctx); err != nil {
			return err
		}
	}
	if needTorBrowser {
		e.onion = browser.New(append(e.browserOptions("tor"), browser.WithProxy(e.torClient.ProxyURL()))...)
		if err := e.onion.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// browserOptions returns the settings shared by both browsers. Each gets its
// own profile under the cache directory so Tor and direct sessions never mix
// cookies.
func (e *engine) browserOptions(profile string) []browser.Option {
	return []browser.Option{
		browser.WithUserDataDir(filepath.Join(config.XDGCacheDir(), "chrome-"+profile)),
		browser.WithUserAgent(e.cfg.UserAgent),
		browser.WithExecPath(e.cfg.ChromePath),
		browser.WithHeadless(!e.cfg.Headful),
		browser.WithLoadGrace(e.cfg.LoadGrace),
		browser.WithNavigationTimeout(e.cfg.Timeout),
		browser.WithWaitSelector(e.cfg.WaitSelector),
		browser.WithLogger(e.logger),
	}
}

// startTor connects to the external proxy or bootstraps the embedded daemon.
func (e *engine) startTor(ctx context.Context) error {
	if e.cfg.UseExternalTor {
		client, err := tor.NewClient(e.cfg.TorProxyAddress, e.cfg.Timeout)
		if err != nil {
			return fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return fmt.Errorf("tor proxy check failed for %s: %w", e.cfg.TorProxyAddress, status.Err())
		}
		e.logger.Info("using external Tor proxy", "proxy", e.cfg.TorProxyAddress)
		e.torClient = client
		return nil
	}

	fmt.Fprintln(e.status, "Starting embedded Tor daemon...")
	fmt.Fprintf(e.status, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := tor.NewEmbeddedTor(tor.WithStartupTimeout(e.cfg.TorStartupTimeout))
	if err := embedded.Start(ctx); err != nil {
		return fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	e.embedded = embedded

	client, err := embedded.NewClient(e.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create Tor client: %w", err)
	}
	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		return fmt.Errorf("embedded Tor proxy check failed: %w", status.Err())
	}
	e.logger.Info("embedded Tor daemon started", "socksAddr", embedded.SocksAddr())
	fmt.Fprintf(e.status, "SOCKS proxy: %s\n\n", embedded.SocksAddr())
	e.torClient = client
	return nil
}

// close releases every resource. It is safe to call after a failed start.
func (e *engine) close() {
	for _, b := range []*browser.Browser{e.direct, e.onion} {
		if b != nil {
			_ = b.Close() //nolint:errcheck // Best effort cleanup
		}
	}
	if e.embedded != nil {
		if err := e.embedded.Stop(); err != nil {
			e.logger.Warn("failed to stop embedded Tor", "error", err)
		}
	}
}

// httpClient returns the client for static fetches and probes of t.
func (e *engine) httpClient(t model.Target) *http.Client {
	if e.viaTor(t) && e.torClient != nil {
		return e.torClient.NewHTTPClient()
	}
	return &http.Client{Timeout: e.cfg.Timeout}
}

// pipelineFor builds the pipeline of one target with its site settings.
func (e *engine) pipelineFor(target string) *pipeline.Pipeline {
	t, ok := e.byURL[target]
	if !ok {
		parsed, err := model.NewTarget(target)
		if err != nil {
			return pipeline.DefaultPipeline(failingLoader(err), []pipeline.Option{
				pipeline.WithLogger(e.logger),
				pipeline.WithVariant(e.cfg.Variant),
			}, pipeline.WithPipelineSkipLazyLoad(true))
		}
		t = parsed
	}

	site := e.cfg.SiteConfigs.GetSiteConfig(t.Host())
	variant := e.cfg.Variant
	if v := site.ParsedVariant(); v.IsValid() {
		variant = v
	}

	client := e.httpClient(t)
	loader, static := e.loaderFor(t, site, variant, client)

	opts := []pipeline.DefaultPipelineOption{
		// Without a browser nothing can scroll.
		pipeline.WithPipelineSkipLazyLoad(static || site.LazyLoad.Skip),
		pipeline.WithPipelineLazyLoad(site.LazyLoad.Options()...),
	}
	if e.cfg.Probe {
		opts = append(opts, pipeline.WithPipelineProber(probe.New(
			probe.WithHTTPClient(fetch.WithCredentials(client, site.Cookie, site.Headers)),
			probe.WithUserAgent(e.cfg.UserAgent),
			probe.WithMaxProbes(e.cfg.MaxProbes),
			probe.WithLogger(e.logger),
		)))
	}

	e.logger.Debug("pipeline prepared",
		"target", t.String(),
		"variant", variant,
		"browser", !static,
		"tor", e.viaTor(t),
	)
	return pipeline.DefaultPipeline(loader, []pipeline.Option{
		pipeline.WithLogger(e.logger),
		pipeline.WithVariant(variant),
	}, opts...)
}

// loaderFor picks the page source of t and reports whether it is static.
func (e *engine) loaderFor(t model.Target, site config.SiteConfig, variant model.Variant, client *http.Client) (pipeline.Loader, bool) {
	if e.viaBrowser(t, site) {
		b := e.direct
		if e.viaTor(t) {
			b = e.onion
		}
		if b != nil {
			return b.Loader(tabOptions(site, e.loadGrace(site, variant))...), false
		}
		e.logger.Warn("browser not started, falling back to static fetch", "target", t.String())
	}

	return fetch.New(
		fetch.WithHTTPClient(fetch.WithCredentials(client, site.Cookie, site.Headers)),
		fetch.WithUserAgent(e.cfg.UserAgent),
		fetch.WithMaxBodySize(e.cfg.MaxBodySize),
		fetch.WithMaxStylesheets(e.cfg.MaxStylesheets),
		fetch.WithBaseURL(e.cfg.BaseURL),
		fetch.WithLogger(e.logger),
	), true
}

// loadGrace returns the wait after the load event. Only the advanced
// variant waits unless the site config asks for a grace period.
func (e *engine) loadGrace(site config.SiteConfig, variant model.Variant) time.Duration {
	switch {
	case site.LoadGrace > 0:
		return site.LoadGrace
	case variant == model.VariantAdvanced:
		return e.cfg.LoadGrace
	default:
		return 0
	}
}

// tabOptions maps site settings to browser tab overrides. The cookie is
// sent as a header since the tab has no cookie jar of its own.
func tabOptions(site config.SiteConfig, grace time.Duration) []browser.TabOption {
	opts := []browser.TabOption{browser.WithTabLoadGrace(grace)}
	if site.WaitSelector != "" {
		opts = append(opts, browser.WithTabWaitSelector(site.WaitSelector))
	}
	headers := make(map[string]string, len(site.Headers)+1)
	for k, v := range site.Headers {
		headers[k] = v
	}
	if site.Cookie != "" {
		headers["Cookie"] = site.Cookie
	}
	if len(headers) > 0 {
		opts = append(opts, browser.WithTabHeaders(headers))
	}
	return opts
}

// errUnknownTarget is reported by pipelines of targets that never parsed.
var errUnknownTarget = errors.New("target could not be parsed")

func failingLoader(err error) pipeline.Loader {
	return pipeline.LoaderFunc(func(context.Context, model.Target) (pipeline.Source, error) {
		return nil, errors.Join(errUnknownTarget, err)
	})
}
