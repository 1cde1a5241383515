package room

import (
	"github.com/sharetube/roomtracks/internal/domain"
)

type SetTracksParams struct {
	RoomID string
	Tracks domain.TrackList
}

type SetRoomNameParams struct {
	RoomID string
	// Name is left untouched when empty, the room is still registered.
	Name string
}

type SetLinkParams struct {
	ContextID string
	Link      domain.Link
}
