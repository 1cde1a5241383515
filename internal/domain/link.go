package domain

// Link is the last now-playing signal a context reported, as relayed between
// an embedded player frame and its hosting page.
type Link struct {
	Href    string `json:"href"`
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Channel string `json:"channel,omitempty"`
	Reason  string `json:"reason"`
	TS      int64  `json:"ts"`
}
