package redis

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomsKey         = "rooms"
	settingsKey      = "settings"
	currentRoomIDKey = "current-room-id"
)

type repo struct {
	rc      *redis.Client
	linkExp time.Duration
	logger  *slog.Logger
}

func NewRepo(rc *redis.Client, linkExp time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:      rc,
		linkExp: linkExp,
		logger:  logger,
	}
}
