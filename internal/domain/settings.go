package domain

import "strings"

const DefaultPlaylistName = "SyncTube Export"

type Settings struct {
	DefaultPlaylistName      string `json:"defaultPlaylistName"`
	EnableExternalAPILinking bool   `json:"enableExternalApiLinking"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultPlaylistName:      DefaultPlaylistName,
		EnableExternalAPILinking: false,
	}
}

// SettingsPatch is a partial update. KeepYouTubeLinked and EnableYouTubeAPI
// are older names of EnableExternalAPILinking.
type SettingsPatch struct {
	DefaultPlaylistName      *string `json:"defaultPlaylistName,omitempty"`
	EnableExternalAPILinking *bool   `json:"enableExternalApiLinking,omitempty"`
	KeepYouTubeLinked        *bool   `json:"keepYouTubeLinked,omitempty"`
	EnableYouTubeAPI         *bool   `json:"enableYouTubeApi,omitempty"`
}

func (s Settings) Apply(p SettingsPatch) Settings {
	if p.DefaultPlaylistName != nil {
		if name := strings.TrimSpace(*p.DefaultPlaylistName); name != "" {
			s.DefaultPlaylistName = name
		} else {
			s.DefaultPlaylistName = DefaultPlaylistName
		}
	}

	switch {
	case p.EnableExternalAPILinking != nil:
		s.EnableExternalAPILinking = *p.EnableExternalAPILinking
	case p.KeepYouTubeLinked != nil:
		s.EnableExternalAPILinking = *p.KeepYouTubeLinked
	case p.EnableYouTubeAPI != nil:
		s.EnableExternalAPILinking = *p.EnableYouTubeAPI
	}

	return s
}
