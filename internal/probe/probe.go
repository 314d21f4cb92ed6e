package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	exif "github.com/dsoprea/go-exif/v3"
	"github.com/nao1215/brandsnap/internal/model"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/webp" // register WebP
	"golang.org/x/sync/errgroup"
)

// Probe limits.
const (
	// MaxProbeBytes is how much of an image is read to find its header.
	MaxProbeBytes = 256 * 1024

	// MaxProbes bounds the images probed per report.
	MaxProbes = 50

	defaultConcurrency = 4
)

// ErrUnsupportedScheme is returned for images that cannot be downloaded.
var ErrUnsupportedScheme = errors.New("image address is not http(s)")

// Prober downloads image headers.
type Prober struct {
	client      *http.Client
	userAgent   string
	maxBytes    int64
	maxProbes   int
	concurrency int
	logger      *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		if client != nil {
			p.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		p.userAgent = ua
	}
}

// WithMaxProbes sets the per-report probe budget.
func WithMaxProbes(n int) Option {
	return func(p *Prober) {
		if n >= 0 {
			p.maxProbes = n
		}
	}
}

// WithConcurrency sets how many images are probed at once.
func WithConcurrency(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New returns a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{
		client:      http.DefaultClient,
		maxBytes:    MaxProbeBytes,
		maxProbes:   MaxProbes,
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fill probes the images with an unknown width or height, in order, up to
// the probe budget. Failed probes leave the image untouched. It returns the
// number of images whose dimensions were resolved.
func (p *Prober) Fill(ctx context.Context, images []model.ImageAsset) int {
	var resolved atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	budget := p.maxProbes
	for i := range images {
		if images[i].HasDimensions() {
			continue
		}
		if budget == 0 {
			break
		}
		budget--

		g.Go(func() error {
			w, h, err := p.Probe(ctx, images[i].URL)
			if err != nil {
				p.logger.Debug("image probe failed", "url", images[i].URL, "error", err)
				return nil
			}
			images[i].Width, images[i].Height = w, h
			resolved.Add(1)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Probe errors are logged per image.

	return int(resolved.Load())
}

// Probe downloads the start of the image at rawURL and returns its
// displayed dimensions.
func (p *Prober) Probe(ctx context.Context, rawURL string) (int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, 0, err
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return 0, 0, ErrUnsupportedScheme
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/*;q=0.8,*/*;q=0.5")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return 0, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes))
	if err != nil && len(data) == 0 {
		return 0, 0, err
	}
	return Dimensions(data)
}

// Dimensions decodes the header of an image. When an EXIF orientation
// rotates the image by 90 degrees (values 5 to 8) the axes are swapped.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, image.ErrFormat
	}
	if o := Orientation(data); o >= 5 && o <= 8 {
		return cfg.Height, cfg.Width, nil
	}
	return cfg.Width, cfg.Height, nil
}

// Orientation returns the EXIF orientation of an image, or 0 when the
// image has none.
func Orientation(data []byte) int {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return 0
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 0
	}
	for _, entry := range entries {
		if entry.TagName != "Orientation" {
			continue
		}
		switch v := entry.Value.(type) {
		case []uint16:
			if len(v) > 0 {
				return int(v[0])
			}
		case uint16:
			return int(v)
		}
	}
	return 0
}
