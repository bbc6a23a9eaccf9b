package gateway

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embyfast/strm-gateway/internal/cache"
	"github.com/embyfast/strm-gateway/internal/monitoring"
	"github.com/embyfast/strm-gateway/internal/store"
)

func newTestRouter(t *testing.T, resolver cache.ResolverFunc) *Router {
	t.Helper()
	st, err := store.NewMemoryStore(64)
	require.NoError(t, err)
	c := cache.New(st, resolver, time.Minute)
	logger := monitoring.New(monitoring.LoggerConfig{Level: "error"})
	alerts := monitoring.NewAlertManager(logger, monitoring.AlertConfig{})
	return NewRouter(c, monitoring.NewMetricsCollector(), alerts)
}

func TestExtractItemID(t *testing.T) {
	tests := []struct {
		path   string
		itemID string
		ok     bool
	}{
		{"/Items/123/PlaybackInfo", "123", true},
		{"/Items/123/PlaybackInfo/", "123", true},
		{"/emby/Items/abc-def/PlaybackInfo", "abc-def", true},
		{"/items/123/playbackinfo", "123", true},
		{"/Items/123", "", false},
		{"/Items/123/PlaybackInfo/extra", "", false},
		{"/Items//PlaybackInfo", "", false},
		{"/Users/me/Items/123", "", false},
		{"/Videos/123/stream.mkv", "", false},
	}
	for _, tt := range tests {
		id, ok := ExtractItemID(tt.path)
		assert.Equal(t, tt.ok, ok, "path %q", tt.path)
		assert.Equal(t, tt.itemID, id, "path %q", tt.path)
	}
}

func TestRouter_PassthroughForUnmatchedPaths(t *testing.T) {
	rt := newTestRouter(t, func(ctx context.Context, itemID string) (store.Entry, error) {
		t.Fatal("classification lookup must not run for unmatched paths")
		return store.Entry{}, nil
	})

	d := rt.Classify(httptest.NewRequest("GET", "/System/Info", nil))
	assert.Equal(t, RoutePassthrough, d.Route)
	assert.Empty(t, d.ItemID)
	assert.False(t, d.FailedOpen)
}

func TestRouter_BypassForStrmItem(t *testing.T) {
	rt := newTestRouter(t, func(ctx context.Context, itemID string) (store.Entry, error) {
		return store.Entry{IsStrm: true, StreamURL: "http://stream.example/x.ts"}, nil
	})

	d := rt.Classify(httptest.NewRequest("POST", "/Items/42/PlaybackInfo", nil))
	assert.Equal(t, RouteBypass, d.Route)
	assert.Equal(t, "42", d.ItemID)
	assert.Equal(t, "http://stream.example/x.ts", d.Entry.StreamURL)
}

func TestRouter_PassthroughForRegularItem(t *testing.T) {
	rt := newTestRouter(t, func(ctx context.Context, itemID string) (store.Entry, error) {
		return store.Entry{IsStrm: false}, nil
	})

	d := rt.Classify(httptest.NewRequest("POST", "/Items/42/PlaybackInfo", nil))
	assert.Equal(t, RoutePassthrough, d.Route)
	assert.Equal(t, "42", d.ItemID)
	assert.False(t, d.FailedOpen)
}

func TestRouter_FailsOpenOnLookupError(t *testing.T) {
	rt := newTestRouter(t, func(ctx context.Context, itemID string) (store.Entry, error) {
		return store.Entry{}, errors.New("metadata unavailable")
	})

	d := rt.Classify(httptest.NewRequest("POST", "/Items/42/PlaybackInfo", nil))
	assert.Equal(t, RoutePassthrough, d.Route)
	assert.True(t, d.FailedOpen)
}
