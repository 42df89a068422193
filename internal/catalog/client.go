package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"pagenine/pkg/logx"
)

const (
	DefaultBaseURL   = "https://a.4cdn.org"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "pagenine (+https://github.com/pagenine/pagenine)"

	// Catalogs for busy boards are a few hundred KB; anything past this is not a catalog.
	maxBodyBytes = 16 << 20
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RatePerSec caps outgoing requests. The upstream API asks clients to stay
	// at or below one request per second.
	RatePerSec float64
}

// Client fetches catalogs over HTTP. It is safe for concurrent use, although
// the tracker only ever has one fetch in flight.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func NewClient(cfg Config, log logx.Logger) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		log:     log,
	}
}

// URL returns the catalog endpoint for board.
func (c *Client) URL(board string) string {
	return c.cfg.BaseURL + "/" + url.PathEscape(board) + "/catalog.json"
}

// Fetch downloads and decodes the catalog of board. A non-zero
// ifModifiedSince is sent as If-Modified-Since; a 304 answer is reported as a
// FetchError wrapping ErrNotModified.
func (c *Client) Fetch(ctx context.Context, board string, ifModifiedSince time.Time) (Catalog, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Kind: KindNetwork, Board: board, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(board), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Board: board, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if !ifModifiedSince.IsZero() {
		req.Header.Set("If-Modified-Since", ifModifiedSince.UTC().Format(http.TimeFormat))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Board: board, Err: err}
	}
	defer resp.Body.Close()

	c.log.Trace("catalog response",
		logx.String("board", board),
		logx.Int("status", resp.StatusCode),
		logx.Duration("took", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, &FetchError{Kind: KindNotModified, Board: board, Status: resp.StatusCode, Err: ErrNotModified}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Kind: KindHTTP, Board: board, Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	var cat Catalog
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(&cat); err != nil {
		return nil, &FetchError{Kind: KindDecode, Board: board, Status: resp.StatusCode, Err: err}
	}
	return cat, nil
}
