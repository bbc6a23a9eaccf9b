package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// TestSynthesizer_Fields verifies the synthesized document carries the
// direct-play flags and identifiers the player needs.
func TestSynthesizer_Fields(t *testing.T) {
	synth, err := NewSynthesizer()
	require.NoError(t, err)

	body, err := synth.Synthesize("item-1", "source-1", "http://stream.example/x.ts")
	require.NoError(t, err)

	doc := gjson.ParseBytes(body)
	sources := doc.Get("MediaSources")
	require.True(t, sources.IsArray())
	require.Len(t, sources.Array(), 1)

	src := sources.Array()[0]
	assert.Equal(t, "source-1", src.Get("Id").String())
	assert.Equal(t, "item-1", src.Get("ItemId").String())
	assert.Equal(t, "Http", src.Get("Protocol").String())
	assert.Equal(t, "http://stream.example/x.ts", src.Get("DirectStreamUrl").String())
	assert.True(t, src.Get("SupportsDirectPlay").Bool())
	assert.True(t, src.Get("SupportsDirectStream").Bool())
	assert.True(t, src.Get("SupportsTranscoding").Bool())
	assert.True(t, src.Get("IsRemote").Bool())
	assert.False(t, src.Get("SupportsProbing").Bool())

	// Probe-derived fields stay empty for the player to detect.
	assert.Equal(t, "", src.Get("Container").String())
	assert.True(t, src.Get("MediaStreams").Exists())
	assert.Empty(t, src.Get("MediaStreams").Array())

	assert.NotEmpty(t, doc.Get("PlaySessionId").String())
}

// TestSynthesizer_MediaSourceIDFallback verifies the item ID is reused when
// the request names no media source.
func TestSynthesizer_MediaSourceIDFallback(t *testing.T) {
	synth, err := NewSynthesizer()
	require.NoError(t, err)

	body, err := synth.Synthesize("item-9", "", "")
	require.NoError(t, err)

	doc := gjson.ParseBytes(body)
	assert.Equal(t, "item-9", doc.Get("MediaSources.0.Id").String())
	assert.False(t, doc.Get("MediaSources.0.DirectStreamUrl").Exists(),
		"empty stream URL must not appear in the document")
}

// TestSynthesizer_FreshSessionPerCall verifies each response gets its own
// play session identifier.
func TestSynthesizer_FreshSessionPerCall(t *testing.T) {
	synth, err := NewSynthesizer()
	require.NoError(t, err)

	first, err := synth.Synthesize("a", "", "")
	require.NoError(t, err)
	second, err := synth.Synthesize("a", "", "")
	require.NoError(t, err)

	assert.NotEqual(t,
		gjson.GetBytes(first, "PlaySessionId").String(),
		gjson.GetBytes(second, "PlaySessionId").String())
}
