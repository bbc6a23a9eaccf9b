// PlaybackInfo response schema. Only the fields a player needs to begin
// direct playback are modeled; probe-derived fields (duration, bitrate,
// codecs) are deliberately absent or empty so no analysis result is implied.
package emby

// MediaSource is one playable source of an item.
type MediaSource struct {
	ID                    string            `json:"Id"`
	ItemID                string            `json:"ItemId"`
	Protocol              string            `json:"Protocol"`
	Type                  string            `json:"Type"`
	Container             string            `json:"Container"`
	Name                  string            `json:"Name,omitempty"`
	IsRemote              bool              `json:"IsRemote"`
	SupportsDirectPlay    bool              `json:"SupportsDirectPlay"`
	SupportsDirectStream  bool              `json:"SupportsDirectStream"`
	SupportsTranscoding   bool              `json:"SupportsTranscoding"`
	SupportsProbing       bool              `json:"SupportsProbing"`
	IsInfiniteStream      bool              `json:"IsInfiniteStream"`
	RequiresOpening       bool              `json:"RequiresOpening"`
	RequiresClosing       bool              `json:"RequiresClosing"`
	ReadAtNativeFramerate bool              `json:"ReadAtNativeFramerate"`
	DirectStreamURL       string            `json:"DirectStreamUrl,omitempty"`
	MediaStreams          []any             `json:"MediaStreams"`
	Formats               []string          `json:"Formats"`
	RequiredHTTPHeaders   map[string]string `json:"RequiredHttpHeaders"`
}

// PlaybackInfoResponse is the document returned for a PlaybackInfo query.
type PlaybackInfoResponse struct {
	MediaSources  []MediaSource `json:"MediaSources"`
	PlaySessionID string        `json:"PlaySessionId"`
}
