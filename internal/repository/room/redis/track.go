package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/repository/room"
)

func (r repo) getTracksKey(roomID string) string {
	return "room:" + roomID + ":tracks"
}

func (r repo) GetTracks(ctx context.Context, roomID string) (domain.TrackList, error) {
	raw, err := r.rc.LRange(ctx, r.getTracksKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}

	tracks := make(domain.TrackList, 0, len(raw))
	for _, item := range raw {
		var track domain.Track
		if err := json.Unmarshal([]byte(item), &track); err != nil {
			r.logger.WarnContext(ctx, "skipping unreadable track", "room_id", roomID, "error", err)
			continue
		}

		tracks = append(tracks, track)
	}

	return tracks, nil
}

// SetTracks replaces the whole list in one transaction.
func (r repo) SetTracks(ctx context.Context, params *room.SetTracksParams) error {
	values := make([]any, 0, len(params.Tracks))
	for _, track := range params.Tracks {
		b, err := json.Marshal(track)
		if err != nil {
			return fmt.Errorf("failed to encode track: %w", err)
		}

		values = append(values, b)
	}

	tracksKey := r.getTracksKey(params.RoomID)
	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, tracksKey)
	if len(values) > 0 {
		pipe.RPush(ctx, tracksKey, values...)
	}
	pipe.SAdd(ctx, roomsKey, params.RoomID)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set tracks: %w", err)
	}

	return nil
}
