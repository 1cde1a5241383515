package room

import "errors"

var (
	ErrSettingsNotFound = errors.New("settings not found")
	ErrLinkNotFound     = errors.New("link not found")
)
