package room

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/repository/room"
	"github.com/sharetube/roomtracks/pkg/ytvideo"
)

// AddTrack merges track into the room's list or appends it when it is new.
// An empty room id is a no-op.
func (s *Service) AddTrack(ctx context.Context, params *AddTrackParams) (AddTrackResponse, error) {
	if params.RoomID == "" {
		return AddTrackResponse{Tracks: domain.TrackList{}}, nil
	}

	unlock := s.roomLocks.Lock(params.RoomID)
	defer unlock()

	tracks, err := s.roomRepo.GetTracks(ctx, params.RoomID)
	if err != nil {
		return AddTrackResponse{}, fmt.Errorf("failed to get tracks: %w", err)
	}

	res := tracks.Add(params.Track)
	if res.Matches > 1 {
		s.logger.WarnContext(ctx, "room holds duplicate video id rows",
			"room_id", params.RoomID,
			"video_id", params.Track.VideoID,
			"matches", res.Matches,
		)
	}

	if res.Added || res.Merged {
		if err := s.roomRepo.SetTracks(ctx, &room.SetTracksParams{
			RoomID: params.RoomID,
			Tracks: tracks,
		}); err != nil {
			return AddTrackResponse{}, fmt.Errorf("failed to set tracks: %w", err)
		}
	}

	s.logger.DebugContext(ctx, "track processed",
		"room_id", params.RoomID,
		"video_id", params.Track.VideoID,
		"added", res.Added,
		"merged", res.Merged,
	)

	if params.RoomName != "" {
		if err := s.UpsertRoom(ctx, params.RoomID, params.RoomName); err != nil {
			return AddTrackResponse{}, err
		}
	}

	return AddTrackResponse{
		Added:  res.Added,
		Tracks: tracks.Clone(),
	}, nil
}

// RemoveTrack removes the entry at index. Out of range indexes leave the list
// unchanged.
func (s *Service) RemoveTrack(ctx context.Context, params *RemoveTrackParams) (domain.TrackList, error) {
	if params.RoomID == "" {
		return domain.TrackList{}, nil
	}

	unlock := s.roomLocks.Lock(params.RoomID)
	defer unlock()

	tracks, err := s.roomRepo.GetTracks(ctx, params.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}

	if tracks.Remove(params.Index) {
		if err := s.roomRepo.SetTracks(ctx, &room.SetTracksParams{
			RoomID: params.RoomID,
			Tracks: tracks,
		}); err != nil {
			return nil, fmt.Errorf("failed to set tracks: %w", err)
		}
	}

	return tracks.Clone(), nil
}

func (s *Service) ClearTracks(ctx context.Context, roomID string) error {
	if roomID == "" {
		return nil
	}

	unlock := s.roomLocks.Lock(roomID)
	defer unlock()

	tracks, err := s.roomRepo.GetTracks(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get tracks: %w", err)
	}

	if len(tracks) == 0 {
		return nil
	}

	if err := s.roomRepo.SetTracks(ctx, &room.SetTracksParams{RoomID: roomID}); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}

	return nil
}

// GetTracks returns a copy of the room's list.
func (s *Service) GetTracks(ctx context.Context, roomID string) (domain.TrackList, error) {
	if roomID == "" {
		return domain.TrackList{}, nil
	}

	tracks, err := s.roomRepo.GetTracks(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}

	return tracks.Clone(), nil
}

// RecordNowPlaying stores a detection reported by a page observer and makes
// its room the active one.
func (s *Service) RecordNowPlaying(ctx context.Context, params *NowPlayingParams) (NowPlayingResponse, error) {
	if params.RoomID == "" {
		return NowPlayingResponse{}, ErrMissingRoomID
	}

	if err := s.updateActiveRoom(ctx, params.RoomID, params.RoomName); err != nil {
		return NowPlayingResponse{}, err
	}

	videoID := strings.TrimSpace(params.VideoID)
	if videoID == "" {
		return NowPlayingResponse{}, ErrMissingVideoID
	}

	track := domain.Track{
		Title:    params.Title,
		Channel:  params.Channel,
		VideoID:  videoID,
		WatchURL: params.WatchURL,
		Source:   params.Source,
		TS:       params.TS,
		RoomID:   params.RoomID,
	}
	if track.WatchURL == "" {
		track.WatchURL = ytvideo.WatchURL(videoID)
	}
	if track.Source == "" {
		track.Source = domain.SourcePageNowPlaying
	}
	if track.TS == 0 {
		track.TS = time.Now().UnixMilli()
	}

	addResp, err := s.AddTrack(ctx, &AddTrackParams{
		RoomID:   params.RoomID,
		RoomName: params.RoomName,
		Track:    track,
	})
	if err != nil {
		return NowPlayingResponse{}, err
	}

	roomName, err := s.RoomDisplayName(ctx, params.RoomID, params.RoomName)
	if err != nil {
		return NowPlayingResponse{}, err
	}

	return NowPlayingResponse{
		Added:    addResp.Added,
		RoomID:   params.RoomID,
		RoomName: roomName,
	}, nil
}

// ManualAddTrack adds a track typed in by the user as an id or url. The active
// room is used when no room is given.
func (s *Service) ManualAddTrack(ctx context.Context, params *ManualAddTrackParams) (ManualAddTrackResponse, error) {
	roomID, err := s.ResolveRoomID(ctx, params.RoomID)
	if err != nil {
		return ManualAddTrackResponse{}, err
	}
	if roomID == "" {
		return ManualAddTrackResponse{}, ErrNoActiveRoom
	}

	if err := s.updateActiveRoom(ctx, roomID, params.RoomName); err != nil {
		return ManualAddTrackResponse{}, err
	}

	raw := firstNonEmpty(params.VideoID, params.Input, params.URL)
	videoID := ytvideo.ExtractID(raw)
	if videoID == "" {
		return ManualAddTrackResponse{}, ErrInvalidVideoID
	}

	track := domain.Track{
		Title:    strings.TrimSpace(params.Title),
		Channel:  strings.TrimSpace(params.Channel),
		VideoID:  videoID,
		WatchURL: ytvideo.WatchURL(videoID),
		Source:   domain.SourceManual,
		TS:       params.TS,
		RoomID:   roomID,
	}
	if track.TS == 0 {
		track.TS = time.Now().UnixMilli()
	}
	s.fillMetadata(ctx, &track)

	addResp, err := s.AddTrack(ctx, &AddTrackParams{
		RoomID:   roomID,
		RoomName: params.RoomName,
		Track:    track,
	})
	if err != nil {
		return ManualAddTrackResponse{}, err
	}

	roomName, err := s.RoomDisplayName(ctx, roomID, params.RoomName)
	if err != nil {
		return ManualAddTrackResponse{}, err
	}

	return ManualAddTrackResponse{
		Added:    addResp.Added,
		RoomID:   roomID,
		RoomName: roomName,
		Tracks:   addResp.Tracks,
	}, nil
}

// fillMetadata is best effort, a failed lookup leaves the track as is.
func (s *Service) fillMetadata(ctx context.Context, track *domain.Track) {
	if s.metadata == nil || (track.Title != "" && track.Channel != "") {
		return
	}

	data, err := s.metadata.Get(ctx, track.VideoID)
	if err != nil {
		s.logger.InfoContext(ctx, "video metadata lookup failed", "video_id", track.VideoID, "error", err)
		return
	}

	if track.Title == "" {
		track.Title = strings.TrimSpace(data.Title)
	}
	if track.Channel == "" {
		track.Channel = strings.TrimSpace(data.AuthorName)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
