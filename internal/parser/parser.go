// Package parser extracts product details from marketplace links.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rational-assistant/internal/cache"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnsupported is returned for links outside the supported marketplaces.
	ErrUnsupported = errors.New("only Wildberries and Ozon links are supported")
	// ErrInvalidURL is returned when a supported link carries no product ID.
	ErrInvalidURL = errors.New("invalid product link")
	// ErrNotFound is returned when the marketplace knows no such product.
	ErrNotFound = errors.New("product not found")
)

const (
	SourceWildberries = "wildberries"
	SourceOzon        = "ozon"

	unknown   = "Unknown"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Product is what a marketplace reports about an item.
type Product struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	ImageURL string          `json:"image_url,omitempty"`
	Source   string          `json:"source"`
}

// Parser fetches product details from marketplace APIs.
type Parser struct {
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration

	wildberriesAPI string
	ozonAPI        string
}

// Option configures a Parser.
type Option func(*Parser)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Parser) { p.client = c }
}

// WithCache stores parsed products in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(p *Parser) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// WithEndpoints points the parser at alternative API base URLs.
func WithEndpoints(wildberries, ozon string) Option {
	return func(p *Parser) {
		p.wildberriesAPI = strings.TrimRight(wildberries, "/")
		p.ozonAPI = strings.TrimRight(ozon, "/")
	}
}

// New creates a Parser with a 10 second timeout and no cache.
func New(opts ...Option) *Parser {
	p := &Parser{
		client:         &http.Client{Timeout: 10 * time.Second},
		wildberriesAPI: "https://card.wb.ru",
		ozonAPI:        "https://www.ozon.ru",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse resolves a marketplace product link into product details.
func (p *Parser) Parse(ctx context.Context, rawURL string) (*Product, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return nil, ErrInvalidURL
	}
	host := strings.ToLower(u.Hostname())

	var (
		source string
		id     int64
		fetch  func(context.Context, int64) (*Product, error)
	)
	switch {
	case strings.Contains(host, "wildberries.ru"):
		source, fetch = SourceWildberries, p.fetchWildberries
		id, err = wildberriesID(u.Path)
	case strings.Contains(host, "ozon.ru"):
		source, fetch = SourceOzon, p.fetchOzon
		id, err = ozonID(u.Path)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("product:%s:%d", source, id)
	if p.cache != nil {
		var cached Product
		if err := p.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("product cache read failed", "key", key, "error", err)
		}
	}

	product, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, product, p.cacheTTL); err != nil {
			slog.Warn("product cache write failed", "key", key, "error", err)
		}
	}
	return product, nil
}

func (p *Parser) getJSON(ctx context.Context, endpoint, referer string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3")
	req.Header.Set("Referer", referer)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pathSegmentAfter returns the path segment following marker.
func pathSegmentAfter(path, marker string) (string, bool) {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == marker && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], true
		}
	}
	return "", false
}
