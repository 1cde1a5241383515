package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sharetube/roomtracks/internal/repository/room"
)

func (r repo) getRoomMetaKey(roomID string) string {
	return "room:" + roomID + ":meta"
}

func (r repo) SetRoomName(ctx context.Context, params *room.SetRoomNameParams) error {
	pipe := r.rc.TxPipeline()
	if params.Name != "" {
		pipe.HSet(ctx, r.getRoomMetaKey(params.RoomID), "name", params.Name)
	}
	pipe.SAdd(ctx, roomsKey, params.RoomID)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set room name: %w", err)
	}

	return nil
}

// GetRoomName returns "" for rooms without a stored name.
func (r repo) GetRoomName(ctx context.Context, roomID string) (string, error) {
	name, err := r.rc.HGet(ctx, r.getRoomMetaKey(roomID), "name").Result()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("failed to get room name: %w", err)
	}

	return name, nil
}

func (r repo) GetRooms(ctx context.Context) ([]room.RoomSummary, error) {
	roomIDs, err := r.rc.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room ids: %w", err)
	}

	if len(roomIDs) == 0 {
		return []room.RoomSummary{}, nil
	}

	pipe := r.rc.Pipeline()
	names := make([]*redis.StringCmd, len(roomIDs))
	counts := make([]*redis.IntCmd, len(roomIDs))
	for i, roomID := range roomIDs {
		names[i] = pipe.HGet(ctx, r.getRoomMetaKey(roomID), "name")
		counts[i] = pipe.LLen(ctx, r.getTracksKey(roomID))
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}

	rooms := make([]room.RoomSummary, 0, len(roomIDs))
	for i, roomID := range roomIDs {
		rooms = append(rooms, room.RoomSummary{
			ID:         roomID,
			Name:       names[i].Val(),
			TrackCount: int(counts[i].Val()),
		})
	}

	return rooms, nil
}

func (r repo) GetCurrentRoomID(ctx context.Context) (string, error) {
	roomID, err := r.rc.Get(ctx, currentRoomIDKey).Result()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("failed to get current room id: %w", err)
	}

	return roomID, nil
}

// SetCurrentRoomID clears the pointer when roomID is empty.
func (r repo) SetCurrentRoomID(ctx context.Context, roomID string) error {
	var err error
	if roomID == "" {
		err = r.rc.Del(ctx, currentRoomIDKey).Err()
	} else {
		err = r.rc.Set(ctx, currentRoomIDKey, roomID, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to set current room id: %w", err)
	}

	return nil
}
