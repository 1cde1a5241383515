package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/text/language"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/repository/room"
	"github.com/sharetube/roomtracks/pkg/ytvideodata"
)

var (
	ErrMissingRoomID  = errors.New("missing roomId")
	ErrMissingVideoID = errors.New("missing videoId")
	ErrNoActiveRoom   = errors.New("no active room")
	ErrInvalidVideoID = errors.New("invalid video id")
)

type iRoomRepo interface {
	// tracks
	GetTracks(context.Context, string) (domain.TrackList, error)
	SetTracks(context.Context, *room.SetTracksParams) error
	// rooms
	SetRoomName(context.Context, *room.SetRoomNameParams) error
	GetRoomName(context.Context, string) (string, error)
	GetRooms(context.Context) ([]room.RoomSummary, error)
	GetCurrentRoomID(context.Context) (string, error)
	SetCurrentRoomID(context.Context, string) error
	// settings
	GetSettings(context.Context) (domain.SettingsPatch, error)
	SetSettings(context.Context, domain.Settings) error
}

type iMetadataFetcher interface {
	Get(context.Context, string) (*ytvideodata.VideoData, error)
}

type Config struct {
	// Locale orders rooms by display name.
	Locale string
	// Metadata fills title and channel of manual adds that lack them. Optional.
	Metadata iMetadataFetcher
}

type Service struct {
	roomRepo   iRoomRepo
	metadata   iMetadataFetcher
	locale     language.Tag
	roomLocks  *keyedMutex
	settingsMu sync.Mutex
	activeMu   sync.Mutex
	activeRoom string
	logger     *slog.Logger
}

func NewService(roomRepo iRoomRepo, cfg *Config, logger *slog.Logger) *Service {
	locale := language.Korean
	if cfg != nil && cfg.Locale != "" {
		if tag, err := language.Parse(cfg.Locale); err == nil {
			locale = tag
		} else {
			logger.Warn("unknown locale, using default", "locale", cfg.Locale, "error", err)
		}
	}

	s := &Service{
		roomRepo:  roomRepo,
		locale:    locale,
		roomLocks: newKeyedMutex(),
		logger:    logger,
	}
	if cfg != nil {
		s.metadata = cfg.Metadata
	}

	return s
}
