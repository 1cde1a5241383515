package controller

import (
	"context"
	"errors"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/service/export"
	"github.com/sharetube/roomtracks/internal/service/room"
	"github.com/sharetube/roomtracks/pkg/validator"
	"github.com/sharetube/roomtracks/pkg/wsrouter"
)

var (
	ErrMissingTabID   = errors.New("missing tab id")
	ErrExportDisabled = errors.New("playlist export is not configured")
	ErrServiceError   = errors.New("playlist service error")
)

const errorCodeInternal = "internal_error"

var errorCodes = []struct {
	err  error
	code string
}{
	{wsrouter.ErrUnknownMessageType, "unknown_message_type"},
	{wsrouter.ErrInvalidPayload, "invalid_payload"},
	{room.ErrMissingRoomID, "missing_roomId"},
	{room.ErrMissingVideoID, "missing_videoId"},
	{room.ErrNoActiveRoom, "no_active_room"},
	{room.ErrInvalidVideoID, "invalid_videoId"},
	{export.ErrMissingPlaylistID, "missing_playlistId"},
	{export.ErrLinkingDisabled, "external_api_linking_disabled"},
	{ErrExportDisabled, "export_disabled"},
	{ErrServiceError, "service-error"},
	{ErrMissingTabID, "missing_tabId"},
}

type ErrorResponse struct {
	OK      bool                        `json:"ok"`
	Error   string                      `json:"error"`
	Message string                      `json:"message,omitempty"`
	Errors  []validator.ValidationError `json:"errors,omitempty"`
}

func (c controller) encodeError(ctx context.Context, err error) any {
	resp := ErrorResponse{Error: errorCodeInternal}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			resp.Error = e.code
			break
		}
	}

	var payloadErr *wsrouter.PayloadError
	if errors.As(err, &payloadErr) {
		resp.Errors = payloadErr.Errors
	}

	switch resp.Error {
	case errorCodeInternal:
		c.logger.WarnContext(ctx, "request failed", "error", err)
		resp.Message = err.Error()
	case "service-error":
		resp.Message = err.Error()
	}

	return resp
}

type TracksResponse struct {
	OK       bool             `json:"ok"`
	RoomID   string           `json:"roomId"`
	RoomName string           `json:"roomName"`
	Tracks   domain.TrackList `json:"tracks"`
}

type ManualAddTrackResponse struct {
	OK       bool             `json:"ok"`
	Added    bool             `json:"added"`
	RoomID   string           `json:"roomId"`
	RoomName string           `json:"roomName"`
	Tracks   domain.TrackList `json:"tracks"`
}

type RoomResponse struct {
	OK       bool    `json:"ok"`
	RoomID   *string `json:"roomId"`
	RoomName string  `json:"roomName,omitempty"`
}

type RoomsResponse struct {
	OK             bool        `json:"ok"`
	Rooms          []room.Room `json:"rooms"`
	ActiveRoomID   string      `json:"activeRoomId"`
	ActiveRoomName string      `json:"activeRoomName"`
}

type NowPlayingResponse struct {
	OK       bool   `json:"ok"`
	Added    bool   `json:"added"`
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type SettingsResponse struct {
	OK       bool            `json:"ok"`
	Settings domain.Settings `json:"settings"`
}

type LinkResponse struct {
	OK      bool         `json:"ok"`
	Current *domain.Link `json:"current"`
}

type CreatePlaylistResponse struct {
	OK         bool   `json:"ok"`
	PlaylistID string `json:"playlistId"`
}

type AddAllResponse struct {
	OK         bool          `json:"ok"`
	Count      int           `json:"count"`
	RoomID     string        `json:"roomId"`
	RoomName   string        `json:"roomName"`
	PlaylistID string        `json:"playlistId"`
	Notes      []export.Note `json:"notes"`
}
