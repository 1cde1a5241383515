// Package ytvideo extracts YouTube video ids from urls and builds canonical
// urls from ids.
package ytvideo

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	watchURLPrefix = "https://www.youtube.com/watch?v="
)

// Saved content was matched with this expression, keep it unchanged.
var idRegexp = regexp.MustCompile(`^.*(?:(?:youtu\.be/|v/|vi/|u/\w/|embed/|shorts/)|(?:(?:watch)?\?v(?:i)?=|&v(?:i)?=))([^#&?]*).*`)

// MatchID returns the id found by one of the recognized url forms, or "" when
// value contains none of them.
func MatchID(value string) string {
	if value == "" {
		return ""
	}

	m := idRegexp.FindStringSubmatch(value)
	if len(m) < 2 {
		return ""
	}

	return m[1]
}

// ExtractID returns the video id of value. When no url form matches the whole
// trimmed input is treated as an id.
func ExtractID(value string) string {
	if value == "" {
		return ""
	}

	if id := MatchID(value); id != "" {
		return id
	}

	return strings.TrimSpace(value)
}

// NormalizeID is the comparison form of an id.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func WatchURL(videoID string) string {
	if videoID == "" {
		return ""
	}

	return watchURLPrefix + url.QueryEscape(videoID)
}

func ThumbnailURL(videoID string) string {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return ""
	}

	return "https://i.ytimg.com/vi/" + url.PathEscape(videoID) + "/hqdefault.jpg"
}
