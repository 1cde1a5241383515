package room

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"

	"github.com/sharetube/roomtracks/internal/repository/room"
)

// Placeholder ids left over from older storage layouts.
var reservedRoomIDs = map[string]struct{}{
	"global": {},
	"legacy": {},
}

// UpsertRoom registers the room and, when name is not blank, replaces its
// display name.
func (s *Service) UpsertRoom(ctx context.Context, roomID, name string) error {
	if roomID == "" {
		return nil
	}

	if err := s.roomRepo.SetRoomName(ctx, &room.SetRoomNameParams{
		RoomID: roomID,
		Name:   strings.TrimSpace(name),
	}); err != nil {
		return fmt.Errorf("failed to upsert room: %w", err)
	}

	return nil
}

// RoomDisplayName falls back to hint and then to the id itself.
func (s *Service) RoomDisplayName(ctx context.Context, roomID, hint string) (string, error) {
	if roomID == "" {
		return "", nil
	}

	name, err := s.roomRepo.GetRoomName(ctx, roomID)
	if err != nil {
		return "", fmt.Errorf("failed to get room name: %w", err)
	}

	return firstNonEmpty(name, hint, roomID), nil
}

func (s *Service) GetRooms(ctx context.Context) (GetRoomsResponse, error) {
	summaries, err := s.roomRepo.GetRooms(ctx)
	if err != nil {
		return GetRoomsResponse{}, fmt.Errorf("failed to get rooms: %w", err)
	}

	rooms := make([]Room, 0, len(summaries))
	for _, summary := range summaries {
		if summary.ID == "" {
			continue
		}
		if _, reserved := reservedRoomIDs[summary.ID]; reserved {
			continue
		}

		rooms = append(rooms, Room{
			ID:         summary.ID,
			Name:       firstNonEmpty(summary.Name, summary.ID),
			TrackCount: summary.TrackCount,
		})
	}

	c := collate.New(s.locale)
	sort.SliceStable(rooms, func(i, j int) bool {
		if cmp := c.CompareString(rooms[i].Name, rooms[j].Name); cmp != 0 {
			return cmp < 0
		}
		return rooms[i].ID < rooms[j].ID
	})

	activeRoomID, err := s.ensureActiveRoomID(ctx)
	if err != nil {
		return GetRoomsResponse{}, err
	}

	resp := GetRoomsResponse{
		Rooms:        rooms,
		ActiveRoomID: activeRoomID,
	}
	for _, r := range rooms {
		if r.ID == activeRoomID {
			resp.ActiveRoomName = r.Name
			break
		}
	}

	return resp, nil
}

// ReportPlaylistCandidates records the room name seen next to a page's
// playlist links.
func (s *Service) ReportPlaylistCandidates(ctx context.Context, roomID, roomName string) error {
	if roomID == "" || strings.TrimSpace(roomName) == "" {
		return nil
	}

	return s.UpsertRoom(ctx, roomID, roomName)
}

// ResolveRoomID returns requested, or the active room when requested is empty.
func (s *Service) ResolveRoomID(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}

	return s.ensureActiveRoomID(ctx)
}

func (s *Service) SetActiveRoom(ctx context.Context, params *SetActiveRoomParams) (SetActiveRoomResponse, error) {
	if params.RoomID == "" {
		s.activeMu.Lock()
		s.activeRoom = ""
		s.activeMu.Unlock()

		if err := s.roomRepo.SetCurrentRoomID(ctx, ""); err != nil {
			return SetActiveRoomResponse{}, fmt.Errorf("failed to clear active room: %w", err)
		}

		return SetActiveRoomResponse{}, nil
	}

	if err := s.updateActiveRoom(ctx, params.RoomID, params.RoomName); err != nil {
		return SetActiveRoomResponse{}, err
	}

	roomName, err := s.RoomDisplayName(ctx, params.RoomID, params.RoomName)
	if err != nil {
		return SetActiveRoomResponse{}, err
	}

	return SetActiveRoomResponse{
		RoomID:   params.RoomID,
		RoomName: roomName,
	}, nil
}

func (s *Service) ensureActiveRoomID(ctx context.Context) (string, error) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()

	if s.activeRoom != "" {
		return s.activeRoom, nil
	}

	roomID, err := s.roomRepo.GetCurrentRoomID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get active room: %w", err)
	}
	s.activeRoom = roomID

	return roomID, nil
}

func (s *Service) updateActiveRoom(ctx context.Context, roomID, roomName string) error {
	s.activeMu.Lock()
	s.activeRoom = roomID
	s.activeMu.Unlock()

	if err := s.UpsertRoom(ctx, roomID, roomName); err != nil {
		return err
	}

	if err := s.roomRepo.SetCurrentRoomID(ctx, roomID); err != nil {
		return fmt.Errorf("failed to set active room: %w", err)
	}

	return nil
}

func (s *Service) GetRoomInfo(ctx context.Context, roomID string) (Room, error) {
	if roomID == "" {
		return Room{}, nil
	}

	name, err := s.RoomDisplayName(ctx, roomID, "")
	if err != nil {
		return Room{}, err
	}

	tracks, err := s.roomRepo.GetTracks(ctx, roomID)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get tracks: %w", err)
	}

	return Room{
		ID:         roomID,
		Name:       name,
		TrackCount: len(tracks),
	}, nil
}

// GetActiveRoom returns an empty Room when no room is active.
func (s *Service) GetActiveRoom(ctx context.Context) (Room, error) {
	roomID, err := s.ensureActiveRoomID(ctx)
	if err != nil {
		return Room{}, err
	}

	return s.GetRoomInfo(ctx, roomID)
}
