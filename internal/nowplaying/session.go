package nowplaying

import (
	"sync"
	"time"

	"github.com/sharetube/roomtracks/pkg/ytvideo"
)

type signature struct {
	videoID string
	title   string
	channel string
	href    string
}

// Session holds the snapshot of a single context.
type Session struct {
	contextID string

	mu      sync.Mutex
	current Snapshot
	lastSig signature
	emitted bool
}

func NewSession(contextID string) *Session {
	return &Session{contextID: contextID}
}

func (s *Session) Current() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current, s.emitted
}

// Observe merges c into the held snapshot. It reports true when the snapshot
// changed in a way that must be announced.
func (s *Session) Observe(c Candidate) (Snapshot, bool) {
	c = c.normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := merge(s.current, c)

	if next.VideoID == "" && next.Href != "" {
		next.VideoID = ytvideo.MatchID(next.Href)
	}
	if next.Href == "" && next.VideoID != "" {
		next.Href = ytvideo.WatchURL(next.VideoID)
	}

	if next.empty() {
		return s.current, false
	}

	sig := signatureOf(next)
	if s.emitted && sig == s.lastSig {
		return s.current, false
	}

	next.WatchURL = next.Href
	if next.VideoID != "" {
		next.WatchURL = ytvideo.WatchURL(next.VideoID)
	}
	next.ContextID = s.contextID
	if c.Reason != "" {
		next.Source = c.Reason
	}
	next.UpdatedAt = c.At
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now()
	}

	s.current = next
	s.lastSig = sig
	s.emitted = true

	return next, true
}

// merge fills absent fields of cur from c. A different video replaces the
// snapshot since its title and channel describe the old one.
func merge(cur Snapshot, c Candidate) Snapshot {
	if identityChanged(cur, c) {
		// intentionally not a gap fill: old title and channel belong to the previous video
		return Snapshot{
			VideoID: c.VideoID,
			Title:   c.Title,
			Channel: c.Channel,
			Href:    c.Href,
			Source:  cur.Source,
		}
	}

	if c.VideoID != "" && c.VideoID != cur.VideoID {
		cur.VideoID = c.VideoID
	}
	if c.Href != "" && c.Href != cur.Href {
		cur.Href = c.Href
	}
	if cur.Title == "" {
		cur.Title = c.Title
	}
	if cur.Channel == "" {
		cur.Channel = c.Channel
	}

	return cur
}

func identityChanged(cur Snapshot, c Candidate) bool {
	switch {
	case c.VideoID != "" && cur.VideoID != "":
		return ytvideo.NormalizeID(c.VideoID) != ytvideo.NormalizeID(cur.VideoID)
	case c.VideoID != "" || cur.VideoID != "":
		return false
	case c.Href != "" && cur.Href != "":
		return c.Href != cur.Href
	case c.Href != "" || cur.Href != "":
		return false
	default:
		return c.Title != "" && cur.Title != "" && c.Title != cur.Title
	}
}

// signatureOf uses the canonical watch url for the href of identified videos
// so that an embed url and a watch url of the same video compare equal.
func signatureOf(s Snapshot) signature {
	href := s.Href
	if s.VideoID != "" {
		href = ytvideo.WatchURL(s.VideoID)
	}

	return signature{
		videoID: s.VideoID,
		title:   s.Title,
		channel: s.Channel,
		href:    href,
	}
}
