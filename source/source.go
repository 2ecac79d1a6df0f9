// Package source opens the raw ontology byte stream from a URL or a local
// path. There is no retry and no caching: every Open fetches again.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// DefaultURL is the HPO master release in OBO format.
const DefaultURL = "https://raw.githubusercontent.com/obophenotype/human-phenotype-ontology/master/hp.obo"

type openConfig struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures Open.
type Option func(*openConfig)

// WithHTTPClient overrides http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(o *openConfig) { o.client = c }
}

// WithTimeout bounds an HTTP fetch. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(o *openConfig) { o.timeout = d }
}

// Open returns a reader over the ontology at location. Locations ending
// in .gz are decompressed transparently.
func Open(ctx context.Context, location string, opts ...Option) (io.ReadCloser, error) {
	cfg := openConfig{client: http.DefaultClient}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		rc  io.ReadCloser
		err error
	)
	if IsRemote(location) {
		rc, err = fetch(ctx, location, cfg)
	} else {
		rc, err = os.Open(strings.TrimPrefix(location, "file://"))
	}
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(strings.ToLower(location), ".gz") {
		return rc, nil
	}
	zr, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	return &gzipReadCloser{Reader: zr, underlying: rc}, nil
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func fetch(ctx context.Context, location string, cfg openConfig) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if cfg.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := cfg.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("fetching %s: unexpected status %s", location, resp.Status)
	}
	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelReadCloser releases the request context when the body is closed.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

type gzipReadCloser struct {
	*gzip.Reader
	underlying io.Closer
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	if err := g.underlying.Close(); err != nil {
		return err
	}
	return zerr
}
