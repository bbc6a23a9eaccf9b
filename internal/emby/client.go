// Package emby implements the narrow upstream metadata API used for
// request classification.
//
// DESIGN: The client issues only two cheap queries, never the expensive
// PlaybackInfo probe:
//   - /Items/{id}          item metadata (path, type) -> strm classification
//   - /Items/{id}/Download strm file content          -> stream URL
//
// Any transport error, timeout, or non-2xx status surfaces as
// ErrUpstreamUnavailable so callers can fail open.
package emby

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/embyfast/strm-gateway/internal/config"
	"github.com/embyfast/strm-gateway/internal/store"
)

// ErrUpstreamUnavailable indicates the metadata lookup failed.
var ErrUpstreamUnavailable = errors.New("upstream metadata lookup unavailable")

const (
	// maxMetadataBytes caps item metadata responses (1MB).
	maxMetadataBytes = 1 << 20

	// maxStrmBytes caps strm file content; strm files hold a single URL (64KB).
	maxStrmBytes = 64 << 10
)

// Item is the subset of upstream item metadata the gateway needs.
type Item struct {
	ID   string
	Name string
	Type string
	Path string
}

// IsStrm reports whether the item is a remote-stream reference.
func (it Item) IsStrm() bool {
	return strings.HasSuffix(strings.ToLower(it.Path), ".strm")
}

// Client talks to the upstream metadata API.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a metadata client for the configured upstream.
func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.MetadataTimeout,
		http:    &http.Client{}, // timeout via context per call
	}
}

// get issues an authenticated GET and returns the body, capped at limit bytes.
func (c *Client) get(ctx context.Context, path string, limit int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s%s?api_key=%s", c.baseURL, path, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d for %s", ErrUpstreamUnavailable, resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return body, nil
}

// ItemInfo fetches item metadata for a given item identifier.
func (c *Client) ItemInfo(ctx context.Context, itemID string) (*Item, error) {
	body, err := c.get(ctx, "/Items/"+url.PathEscape(itemID), maxMetadataBytes)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed item metadata", ErrUpstreamUnavailable)
	}

	doc := gjson.ParseBytes(body)
	return &Item{
		ID:   doc.Get("Id").String(),
		Name: doc.Get("Name").String(),
		Type: doc.Get("Type").String(),
		Path: doc.Get("Path").String(),
	}, nil
}

// StrmURL reads the stream address out of the item's strm file.
func (c *Client) StrmURL(ctx context.Context, itemID string) (string, error) {
	body, err := c.get(ctx, "/Items/"+url.PathEscape(itemID)+"/Download", maxStrmBytes)
	if err != nil {
		return "", err
	}

	target := strings.TrimSpace(string(body))
	if target == "" {
		return "", fmt.Errorf("%w: empty strm content for item %s", ErrUpstreamUnavailable, itemID)
	}
	return target, nil
}

// Resolve classifies an item for the cache layer. For strm items the stream
// URL is resolved in the same pass so bypass handling stays network-free.
func (c *Client) Resolve(ctx context.Context, itemID string) (store.Entry, error) {
	item, err := c.ItemInfo(ctx, itemID)
	if err != nil {
		return store.Entry{}, err
	}

	if !item.IsStrm() {
		return store.Entry{IsStrm: false}, nil
	}

	streamURL, err := c.StrmURL(ctx, itemID)
	if err != nil {
		// No stream address means no valid bypass for this item.
		return store.Entry{}, err
	}

	return store.Entry{IsStrm: true, StreamURL: streamURL}, nil
}
