// Package nowplaying turns noisy observations of what a page is playing into
// one change-only stream of snapshots per browser context.
package nowplaying

import (
	"strings"
	"time"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/pkg/ytvideo"
)

// Candidate is one raw observation. Any field may be empty.
type Candidate struct {
	Href    string    `json:"href,omitempty"`
	VideoID string    `json:"id,omitempty"`
	Title   string    `json:"title,omitempty"`
	Channel string    `json:"channel,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"-"`
}

// Snapshot is the best known record of what a context is playing.
type Snapshot struct {
	VideoID   string    `json:"videoId,omitempty"`
	Title     string    `json:"title,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Href      string    `json:"href,omitempty"`
	WatchURL  string    `json:"watchUrl,omitempty"`
	ContextID string    `json:"contextId"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Link is the relayed form of the snapshot.
func (s Snapshot) Link() domain.Link {
	return domain.Link{
		Href:    s.Href,
		ID:      s.VideoID,
		Title:   s.Title,
		Channel: s.Channel,
		Reason:  s.Source,
		TS:      s.UpdatedAt.UnixMilli(),
	}
}

func (s Snapshot) empty() bool {
	return s.VideoID == "" && s.Href == "" && s.Title == ""
}

var blankHrefPrefixes = []string{"about:", "javascript:", "data:"}

func normalizeText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func normalizeHref(href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	for _, prefix := range blankHrefPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}
	return href
}

// normalize trims every field and resolves the video id. Ids are only taken
// from hrefs that match a known url form.
func (c Candidate) normalize() Candidate {
	c.Href = normalizeHref(c.Href)
	c.VideoID = strings.TrimSpace(c.VideoID)
	c.Title = normalizeText(c.Title)
	c.Channel = normalizeText(c.Channel)
	c.Reason = strings.TrimSpace(c.Reason)

	if c.VideoID == "" && c.Href != "" {
		c.VideoID = ytvideo.MatchID(c.Href)
	}

	return c
}
