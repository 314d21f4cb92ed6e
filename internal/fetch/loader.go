package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/pipeline"
	"github.com/nao1215/brandsnap/internal/urlnorm"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
)

// Loader defaults.
const (
	DefaultUserAgent      = "Mozilla/5.0 (compatible; brandsnap/1.0; +https://github.com/nao1215/brandsnap)"
	DefaultMaxBodySize    = 5 * 1024 * 1024
	DefaultMaxStylesheets = 16
	DefaultTimeout        = 30 * time.Second

	// stylesheetConcurrency bounds parallel style sheet downloads per page.
	stylesheetConcurrency = 4
)

// Loader opens pages for static analysis.
type Loader struct {
	client         *http.Client
	userAgent      string
	maxBodySize    int64
	maxStylesheets int
	baseURL        string
	logger         *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(l *Loader) {
		if ua != "" {
			l.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of a document or style sheet are read.
func WithMaxBodySize(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBodySize = n
		}
	}
}

// WithMaxStylesheets limits how many linked style sheets are downloaded.
// Zero disables style sheet downloads.
func WithMaxStylesheets(n int) Option {
	return func(l *Loader) {
		if n >= 0 {
			l.maxStylesheets = n
		}
	}
}

// WithBaseURL sets the address that relative references of local files
// resolve against. By default they resolve against the file itself.
func WithBaseURL(base string) Option {
	return func(l *Loader) {
		l.baseURL = base
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a Loader with default settings.
func New(opts ...Option) *Loader {
	l := &Loader{
		client:         &http.Client{Timeout: DefaultTimeout},
		userAgent:      DefaultUserAgent,
		maxBodySize:    DefaultMaxBodySize,
		maxStylesheets: DefaultMaxStylesheets,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements pipeline.Loader.
func (l *Loader) Load(ctx context.Context, target model.Target) (pipeline.Source, error) {
	page, err := l.Open(ctx, target)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Open loads target and parses it with its style sheets.
func (l *Loader) Open(ctx context.Context, target model.Target) (*StaticPage, error) {
	var (
		body    []byte
		pageURL string
		err     error
	)
	switch {
	case target.IsZero():
		return nil, ErrUnsupportedTarget
	case target.IsFile():
		body, err = l.readFile(target.Path())
		pageURL = target.String()
		if l.baseURL != "" {
			pageURL = l.baseURL
		}
	default:
		body, pageURL, err = l.download(ctx, target.String())
	}
	if err != nil {
		return nil, err
	}

	sheets := l.stylesheets(ctx, body, pageURL, target.IsFile())

	doc, err := dom.Parse(bytes.NewReader(body), pageURL,
		dom.WithStylesheets(sheets...),
		dom.WithLogger(l.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	return NewStaticPage(doc), nil
}

// download fetches an HTML document and returns it as UTF-8 together with
// the address it was finally served from.
func (l *Loader) download(ctx context.Context, pageURL string) ([]byte, string, error) {
	resp, err := l.get(ctx, pageURL, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	decoded, err := charset.NewReader(io.LimitReader(resp.Body, l.maxBodySize), contentType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", pageURL, err)
	}
	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return body, finalURL, nil
}

func (l *Loader) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // The path is given by the user.
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, l.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > l.maxBodySize {
		return nil, fmt.Errorf("%w: %s", ErrBodyTooLarge, path)
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), "text/html")
	if err != nil {
		return nil, err
	}
	return io.ReadAll(decoded)
}

// stylesheets downloads the linked style sheets of body. Sheets that fail
// to load are logged and left out. Local sheets are read only for local pages.
func (l *Loader) stylesheets(ctx context.Context, body []byte, pageURL string, allowFiles bool) []dom.Stylesheet {
	hrefs := StylesheetLinks(body, pageURL, l.maxStylesheets)
	if len(hrefs) == 0 {
		return nil
	}

	texts := make([]string, len(hrefs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(stylesheetConcurrency)
	for i, href := range hrefs {
		g.Go(func() error {
			text, err := l.readStylesheet(ctx, href, allowFiles)
			if err != nil {
				l.logger.Debug("skipping style sheet", "href", href, "error", err)
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Failures are logged per sheet.

	sheets := make([]dom.Stylesheet, 0, len(hrefs))
	for i, href := range hrefs {
		if texts[i] != "" {
			sheets = append(sheets, dom.Stylesheet{URL: href, Text: texts[i]})
		}
	}
	return sheets
}

func (l *Loader) readStylesheet(ctx context.Context, href string, allowFiles bool) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "https":
	case "file":
		if !allowFiles {
			return "", ErrUnsupportedTarget
		}
		raw, err := l.readFile(u.Path)
		return string(raw), err
	default:
		return "", ErrUnsupportedTarget
	}

	resp, err := l.get(ctx, href, "text/css,*/*;q=0.1")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBodySize))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// StylesheetLinks lists the resolved addresses of the screen style sheets
// linked from body, in document order and without duplicates, up to limit.
func StylesheetLinks(body []byte, pageURL string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(pageURL) //nolint:errcheck // A nil base leaves hrefs as written.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && base != nil {
		if resolved, err := url.Parse(urlnorm.Resolve(base, href)); err == nil {
			base = resolved
		}
	}

	var links []string
	seen := make(map[string]struct{})
	doc.Find("link[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !dom.IsStylesheetLink(s.AttrOr("rel", "")) {
			return true
		}
		if media := strings.ToLower(strings.TrimSpace(s.AttrOr("media", ""))); media == "print" {
			return true
		}
		href := urlnorm.Resolve(base, s.AttrOr("href", ""))
		if href == "" {
			return true
		}
		if _, dup := seen[href]; dup {
			return true
		}
		seen[href] = struct{}{}
		links = append(links, href)
		return len(links) < limit
	})
	return links
}

// isHTMLContentType accepts HTML, XHTML and responses without a type.
func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}
