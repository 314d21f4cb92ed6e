package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/pipeline"
)

// Browser defaults.
const (
	// DefaultLoadGrace is the wait after the load event for late scripts.
	DefaultLoadGrace = 1500 * time.Millisecond

	// DefaultNavigationTimeout bounds navigation and the ready wait.
	DefaultNavigationTimeout = 30 * time.Second

	defaultWidth  = 1366
	defaultHeight = 900
)

// Browser is a headless Chrome instance.
type Browser struct {
	proxy        string
	userAgent    string
	execPath     string
	userDataDir  string
	headless     bool
	loadGrace    time.Duration
	navTimeout   time.Duration
	waitSelector string
	headers      map[string]string
	width        int
	height       int
	logger       *slog.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// Option configures a Browser.
type Option func(*Browser)

// WithProxy routes all traffic through a proxy such as "socks5://127.0.0.1:9050".
func WithProxy(proxy string) Option {
	return func(b *Browser) {
		b.proxy = proxy
	}
}

// WithUserAgent overrides Chrome's User-Agent.
func WithUserAgent(ua string) Option {
	return func(b *Browser) {
		b.userAgent = ua
	}
}

// WithExecPath sets the Chrome binary.
func WithExecPath(path string) Option {
	return func(b *Browser) {
		b.execPath = path
	}
}

// WithUserDataDir keeps the Chrome profile in dir instead of a temporary
// directory. Two running browsers must not share a profile.
func WithUserDataDir(dir string) Option {
	return func(b *Browser) {
		b.userDataDir = dir
	}
}

// WithHeadless toggles headless mode.
func WithHeadless(headless bool) Option {
	return func(b *Browser) {
		b.headless = headless
	}
}

// WithLoadGrace sets the wait after the page has loaded.
func WithLoadGrace(d time.Duration) Option {
	return func(b *Browser) {
		if d >= 0 {
			b.loadGrace = d
		}
	}
}

// WithNavigationTimeout bounds navigation.
func WithNavigationTimeout(d time.Duration) Option {
	return func(b *Browser) {
		if d > 0 {
			b.navTimeout = d
		}
	}
}

// WithWaitSelector waits for a CSS selector to be visible after load.
func WithWaitSelector(sel string) Option {
	return func(b *Browser) {
		b.waitSelector = sel
	}
}

// WithHeaders adds headers to every request of every page. A cookie is
// passed as a "Cookie" header.
func WithHeaders(headers map[string]string) Option {
	return func(b *Browser) {
		b.headers = headers
	}
}

// WithWindowSize sets the viewport size.
func WithWindowSize(width, height int) Option {
	return func(b *Browser) {
		if width > 0 && height > 0 {
			b.width, b.height = width, height
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Browser) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New returns an unstarted Browser.
func New(opts ...Option) *Browser {
	b := &Browser{
		headless:   true,
		loadGrace:  DefaultLoadGrace,
		navTimeout: DefaultNavigationTimeout,
		width:      defaultWidth,
		height:     defaultHeight,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// allocatorOptions builds the Chrome command line.
func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", b.headless),
		chromedp.WindowSize(b.width, b.height),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
	)
	if b.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(b.proxy))
	}
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}
	if b.userDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(b.userDataDir))
	}
	return opts
}

// Start launches Chrome. The process lives until Close, independent of ctx
// cancellation after Start returns.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx != nil {
		return nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), b.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		b.logger.Debug(fmt.Sprintf(format, args...))
	}))

	// The first Run starts the process.
	startCtx, cancel := context.WithTimeout(browserCtx, b.navTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(startCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	return nil
}

// Load implements pipeline.Loader.
func (b *Browser) Load(ctx context.Context, target model.Target) (pipeline.Source, error) {
	page, err := b.Open(ctx, target)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Open navigates a new tab to target and waits for it to settle: the load
// event, the optional wait selector and the grace period.
func (b *Browser) Open(ctx context.Context, target model.Target) (*Page, error) {
	return b.open(ctx, target, b.defaultTab())
}

// TabOption overrides the browser-wide page settings for one Loader.
type TabOption func(*tabConfig)

type tabConfig struct {
	loadGrace    time.Duration
	waitSelector string
	headers      map[string]string
}

// WithTabLoadGrace overrides the load grace. Negative values are ignored.
func WithTabLoadGrace(d time.Duration) TabOption {
	return func(c *tabConfig) {
		if d >= 0 {
			c.loadGrace = d
		}
	}
}

// WithTabWaitSelector overrides the selector awaited after load.
func WithTabWaitSelector(sel string) TabOption {
	return func(c *tabConfig) {
		if sel != "" {
			c.waitSelector = sel
		}
	}
}

// WithTabHeaders adds headers on top of the browser-wide ones. A cookie is
// passed as a Cookie header.
func WithTabHeaders(headers map[string]string) TabOption {
	return func(c *tabConfig) {
		merged := make(map[string]string, len(c.headers)+len(headers))
		for k, v := range c.headers {
			merged[k] = v
		}
		for k, v := range headers {
			merged[k] = v
		}
		c.headers = merged
	}
}

func (b *Browser) defaultTab() tabConfig {
	return tabConfig{
		loadGrace:    b.loadGrace,
		waitSelector: b.waitSelector,
		headers:      b.headers,
	}
}

// Loader returns a pipeline.Loader that opens pages of this browser with
// per-site settings. The browser must be started before the loader is used.
func (b *Browser) Loader(opts ...TabOption) pipeline.Loader {
	tab := b.defaultTab()
	for _, opt := range opts {
		opt(&tab)
	}
	return pipeline.LoaderFunc(func(ctx context.Context, target model.Target) (pipeline.Source, error) {
		page, err := b.open(ctx, target, tab)
		if err != nil {
			return nil, err
		}
		return page, nil
	})
}

func (b *Browser) open(ctx context.Context, target model.Target, tab tabConfig) (*Page, error) {
	if target.IsFile() {
		return nil, ErrLocalFile
	}
	b.mu.Lock()
	browserCtx := b.browserCtx
	b.mu.Unlock()
	if browserCtx == nil {
		return nil, ErrNotStarted
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	page := &Page{ctx: tabCtx, cancel: tabCancel}

	actions := []chromedp.Action{network.Enable()}
	if len(tab.headers) > 0 {
		headers := make(network.Headers, len(tab.headers))
		for k, v := range tab.headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions,
		chromedp.Navigate(target.String()),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if tab.waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(tab.waitSelector, chromedp.ByQuery))
	}

	navCtx, cancel := context.WithTimeout(ctx, b.navTimeout)
	defer cancel()
	if err := page.run(navCtx, actions...); err != nil {
		_ = page.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to navigate to %s: %w", target, err)
	}

	if err := sleep(ctx, tab.loadGrace); err != nil {
		_ = page.Close() //nolint:errcheck // Best effort cleanup
		return nil, err
	}
	b.logger.Debug("page loaded", "url", target.String())
	return page, nil
}

// Close stops Chrome. It is safe to call more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx == nil {
		return nil
	}
	b.browserCancel()
	b.allocCancel()
	b.browserCtx = nil
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
