// Synthesizer builds the minimal PlaybackInfo document for bypass cases.
//
// DESIGN: Pure, deterministic construction - no network calls. A fixed
// template (marshaled once at startup) is patched per request with sjson.
// The document satisfies the upstream PlaybackInfo schema: one media source
// marked directly playable, probe-derived fields absent or empty so the
// player detects container/codecs itself.
package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/embyfast/strm-gateway/internal/emby"
)

// Synthesizer constructs bypass PlaybackInfo responses.
type Synthesizer struct {
	template string
}

// NewSynthesizer marshals the response template once.
func NewSynthesizer() (*Synthesizer, error) {
	base := emby.PlaybackInfoResponse{
		MediaSources: []emby.MediaSource{{
			Protocol: "Http",
			Type:     "Default",
			// Container stays empty: the player will detect it.
			IsRemote:             true,
			SupportsDirectPlay:   true,
			SupportsDirectStream: true,
			SupportsTranscoding:  true,
			MediaStreams:         []any{},
			Formats:              []string{},
			RequiredHTTPHeaders:  map[string]string{},
		}},
	}

	data, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to build playback info template: %w", err)
	}

	return &Synthesizer{template: string(data)}, nil
}

// Synthesize produces the response body for one bypassed request.
// mediaSourceID comes from the original request when the client named one;
// it falls back to the item ID. streamURL may be empty.
func (s *Synthesizer) Synthesize(itemID, mediaSourceID, streamURL string) ([]byte, error) {
	if mediaSourceID == "" {
		mediaSourceID = itemID
	}

	doc := s.template
	var err error

	fields := []struct {
		path  string
		value interface{}
	}{
		{"MediaSources.0.Id", mediaSourceID},
		{"MediaSources.0.ItemId", itemID},
		{"PlaySessionId", uuid.New().String()},
	}
	for _, f := range fields {
		if doc, err = sjson.Set(doc, f.path, f.value); err != nil {
			return nil, fmt.Errorf("failed to synthesize playback info: %w", err)
		}
	}

	if streamURL != "" {
		if doc, err = sjson.Set(doc, "MediaSources.0.DirectStreamUrl", streamURL); err != nil {
			return nil, fmt.Errorf("failed to synthesize playback info: %w", err)
		}
	}

	return []byte(doc), nil
}
