package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/nowplaying"
	"github.com/sharetube/roomtracks/internal/service/export"
	"github.com/sharetube/roomtracks/internal/service/room"
	omitnilpointers "github.com/sharetube/roomtracks/pkg/omit-nil-pointers"
)

type EmptyInput struct{}

// roomRef resolves the requested room, or the active one, and its display name.
func (c controller) roomRef(ctx context.Context, requested, hint string) (string, string, error) {
	roomID, err := c.roomService.ResolveRoomID(ctx, requested)
	if err != nil {
		return "", "", err
	}

	roomName, err := c.roomService.RoomDisplayName(ctx, roomID, hint)
	if err != nil {
		return "", "", err
	}

	return roomID, roomName, nil
}

type GetTracksInput struct {
	RoomID string `json:"roomId"`
}

func (c controller) handleGetTracks(ctx context.Context, input GetTracksInput) (any, error) {
	roomID, roomName, err := c.roomRef(ctx, input.RoomID, "")
	if err != nil {
		return nil, err
	}

	tracks, err := c.roomService.GetTracks(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}

	return TracksResponse{
		OK:       true,
		RoomID:   roomID,
		RoomName: roomName,
		Tracks:   tracks,
	}, nil
}

type ManualTrackInput struct {
	VideoID string `json:"videoId" validate:"required_without_all=Input URL"`
	Input   string `json:"input"`
	URL     string `json:"url"`
	Title   string `json:"title" validate:"max=300"`
	Channel string `json:"channel" validate:"max=300"`
}

type ManualAddTrackInput struct {
	RoomID   string           `json:"roomId"`
	RoomName string           `json:"roomName"`
	Track    ManualTrackInput `json:"track"`
}

func (c controller) handleManualAddTrack(ctx context.Context, input ManualAddTrackInput) (any, error) {
	resp, err := c.roomService.ManualAddTrack(ctx, &room.ManualAddTrackParams{
		RoomID:   input.RoomID,
		RoomName: input.RoomName,
		VideoID:  input.Track.VideoID,
		Input:    input.Track.Input,
		URL:      input.Track.URL,
		Title:    input.Track.Title,
		Channel:  input.Track.Channel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	return ManualAddTrackResponse{
		OK:       true,
		Added:    resp.Added,
		RoomID:   resp.RoomID,
		RoomName: resp.RoomName,
		Tracks:   resp.Tracks,
	}, nil
}

type RemoveTrackInput struct {
	RoomID string `json:"roomId"`
	Index  *int   `json:"index" validate:"required"`
}

func (c controller) handleRemoveTrack(ctx context.Context, input RemoveTrackInput) (any, error) {
	roomID, roomName, err := c.roomRef(ctx, input.RoomID, "")
	if err != nil {
		return nil, err
	}

	tracks, err := c.roomService.RemoveTrack(ctx, &room.RemoveTrackParams{
		RoomID: roomID,
		Index:  *input.Index,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove track: %w", err)
	}

	return TracksResponse{
		OK:       true,
		RoomID:   roomID,
		RoomName: roomName,
		Tracks:   tracks,
	}, nil
}

type ClearTracksInput struct {
	RoomID string `json:"roomId"`
}

func (c controller) handleClearTracks(ctx context.Context, input ClearTracksInput) (any, error) {
	roomID, roomName, err := c.roomRef(ctx, input.RoomID, "")
	if err != nil {
		return nil, err
	}

	if err := c.roomService.ClearTracks(ctx, roomID); err != nil {
		return nil, fmt.Errorf("failed to clear tracks: %w", err)
	}

	return RoomResponse{
		OK:       true,
		RoomID:   &roomID,
		RoomName: roomName,
	}, nil
}

type NowPlayingInput struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	VideoID  string `json:"videoId"`
	WatchURL string `json:"watchUrl"`
	Source   string `json:"source"`
	TS       int64  `json:"ts"`
}

func (c controller) handleNowPlaying(ctx context.Context, input NowPlayingInput) (any, error) {
	resp, err := c.roomService.RecordNowPlaying(ctx, &room.NowPlayingParams{
		RoomID:   input.RoomID,
		RoomName: input.RoomName,
		Title:    input.Title,
		Channel:  input.Channel,
		VideoID:  input.VideoID,
		WatchURL: input.WatchURL,
		Source:   input.Source,
		TS:       input.TS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record now playing: %w", err)
	}

	return NowPlayingResponse{
		OK:       true,
		Added:    resp.Added,
		RoomID:   resp.RoomID,
		RoomName: resp.RoomName,
	}, nil
}

func (c controller) handleGetRooms(ctx context.Context, _ EmptyInput) (any, error) {
	resp, err := c.roomService.GetRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}

	return RoomsResponse{
		OK:             true,
		Rooms:          resp.Rooms,
		ActiveRoomID:   resp.ActiveRoomID,
		ActiveRoomName: resp.ActiveRoomName,
	}, nil
}

type SetActiveRoomInput struct {
	RoomID   *string `json:"roomId"`
	RoomName string  `json:"roomName"`
}

func (c controller) handleSetActiveRoom(ctx context.Context, input SetActiveRoomInput) (any, error) {
	var roomID string
	if input.RoomID != nil {
		roomID = strings.TrimSpace(*input.RoomID)
	}

	resp, err := c.roomService.SetActiveRoom(ctx, &room.SetActiveRoomParams{
		RoomID:   roomID,
		RoomName: input.RoomName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set active room: %w", err)
	}

	if resp.RoomID == "" {
		return RoomResponse{OK: true}, nil
	}

	return RoomResponse{
		OK:       true,
		RoomID:   &resp.RoomID,
		RoomName: resp.RoomName,
	}, nil
}

type PlaylistCandidate struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

type PlaylistCandidatesInput struct {
	RoomID   string              `json:"roomId"`
	RoomName string              `json:"roomName"`
	Items    []PlaylistCandidate `json:"items"`
	TS       int64               `json:"ts"`
}

func (c controller) handlePlaylistCandidates(ctx context.Context, input PlaylistCandidatesInput) (any, error) {
	if err := c.roomService.ReportPlaylistCandidates(ctx, input.RoomID, input.RoomName); err != nil {
		return nil, fmt.Errorf("failed to report playlist candidates: %w", err)
	}

	c.logger.DebugContext(ctx, "playlist candidates reported", "room_id", input.RoomID, "items", len(input.Items))
	return OKResponse{OK: true}, nil
}

func (c controller) handleGetSettings(ctx context.Context, _ EmptyInput) (any, error) {
	settings, err := c.roomService.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return SettingsResponse{OK: true, Settings: settings}, nil
}

func (c controller) handleSetSettings(ctx context.Context, input domain.SettingsPatch) (any, error) {
	c.logger.InfoContext(ctx, "updating settings", "changes", omitnilpointers.OmitNilPointers(map[string]any{
		"defaultPlaylistName":      input.DefaultPlaylistName,
		"enableExternalApiLinking": input.EnableExternalAPILinking,
		"keepYouTubeLinked":        input.KeepYouTubeLinked,
		"enableYouTubeApi":         input.EnableYouTubeAPI,
	}))

	settings, err := c.roomService.SetSettings(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to set settings: %w", err)
	}

	return SettingsResponse{OK: true, Settings: settings}, nil
}

func (c controller) handleResetSettings(ctx context.Context, _ EmptyInput) (any, error) {
	settings, err := c.roomService.ResetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset settings: %w", err)
	}

	return SettingsResponse{OK: true, Settings: settings}, nil
}

type LinkInput struct {
	Href    string `json:"href"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
	Reason  string `json:"reason"`
}

// handleLinkFromIframe feeds a frame observation into the reconciler. The
// reconciler publishes changes to the relay.
func (c controller) handleLinkFromIframe(ctx context.Context, input LinkInput) (any, error) {
	tabID := c.getTabIDFromCtx(ctx)
	if tabID == "" {
		return nil, ErrMissingTabID
	}

	reason := input.Reason
	if reason == "" {
		reason = domain.SourceIframe
	}

	candidate := nowplaying.Candidate{
		Href:    input.Href,
		VideoID: input.ID,
		Title:   input.Title,
		Channel: input.Channel,
		Reason:  reason,
		At:      time.Now(),
	}

	if src := c.getLinkSourceFromCtx(ctx); src != nil {
		src.Push(candidate)
	} else {
		c.reconciler.Observe(tabID, candidate)
	}

	return c.currentLink(ctx, tabID), nil
}

func (c controller) handleGetLink(ctx context.Context, _ EmptyInput) (any, error) {
	tabID := c.getTabIDFromCtx(ctx)
	if tabID == "" {
		return nil, ErrMissingTabID
	}

	return c.currentLink(ctx, tabID), nil
}

func (c controller) currentLink(ctx context.Context, tabID string) LinkResponse {
	link, ok := c.relay.Query(tabID)
	if !ok {
		link, ok = c.relay.Recover(ctx, tabID)
	}
	if !ok {
		return LinkResponse{OK: true}
	}

	return LinkResponse{OK: true, Current: &link}
}

type CreatePlaylistInput struct {
	Name string `json:"name" validate:"max=150"`
}

func (c controller) handleCreatePlaylist(ctx context.Context, input CreatePlaylistInput) (any, error) {
	if c.export == nil {
		return nil, ErrExportDisabled
	}

	playlistID, err := c.export.CreatePlaylist(ctx, input.Name)
	if err != nil {
		return nil, exportError(err)
	}

	return CreatePlaylistResponse{OK: true, PlaylistID: playlistID}, nil
}

type AddAllToPlaylistInput struct {
	PlaylistID string `json:"playlistId"`
	RoomID     string `json:"roomId"`
}

func (c controller) handleAddAllToPlaylist(ctx context.Context, input AddAllToPlaylistInput) (any, error) {
	if c.export == nil {
		return nil, ErrExportDisabled
	}

	roomID, roomName, err := c.roomRef(ctx, input.RoomID, "")
	if err != nil {
		return nil, err
	}

	res, err := c.export.AddAll(ctx, roomID, input.PlaylistID)
	if err != nil {
		return nil, exportError(err)
	}

	return AddAllResponse{
		OK:         true,
		Count:      res.Count,
		RoomID:     roomID,
		RoomName:   roomName,
		PlaylistID: input.PlaylistID,
		Notes:      res.Notes,
	}, nil
}

func exportError(err error) error {
	for _, known := range []error{export.ErrMissingPlaylistID, export.ErrLinkingDisabled} {
		if errors.Is(err, known) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrServiceError, err)
}
