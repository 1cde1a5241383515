package domain

import (
	"strings"

	"github.com/sharetube/roomtracks/pkg/ytvideo"
)

const (
	SourcePageNowPlaying = "page-now-playing"
	SourceManual         = "manual"
	SourceIframe         = "iframe"
)

type Track struct {
	VideoID  string `json:"videoId"`
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	WatchURL string `json:"watchUrl"`
	Source   string `json:"source,omitempty"`
	TS       int64  `json:"ts,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
}

// NormalizeText trims, collapses inner whitespace and lower-cases s.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// DuplicateKey is the video id when present, otherwise title and channel.
func (t Track) DuplicateKey() string {
	if id := ytvideo.NormalizeID(t.VideoID); id != "" {
		return "id:" + id
	}

	return "tc:" + NormalizeText(t.Title) + "|" + NormalizeText(t.Channel)
}

// mergeFrom fills the empty fields of t from incoming and keeps the later ts.
func (t *Track) mergeFrom(incoming Track) bool {
	changed := false
	fill := func(current *string, value string) {
		value = strings.TrimSpace(value)
		if value == "" || strings.TrimSpace(*current) != "" {
			return
		}
		*current = value
		changed = true
	}

	fill(&t.Title, incoming.Title)
	fill(&t.Channel, incoming.Channel)
	fill(&t.WatchURL, incoming.WatchURL)
	fill(&t.VideoID, incoming.VideoID)

	if incoming.TS > t.TS {
		t.TS = incoming.TS
		changed = true
	}

	return changed
}
