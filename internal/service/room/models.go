package room

import "github.com/sharetube/roomtracks/internal/domain"

type Room struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TrackCount int    `json:"trackCount"`
}

type AddTrackParams struct {
	RoomID   string
	RoomName string
	Track    domain.Track
}

type AddTrackResponse struct {
	Added  bool
	Tracks domain.TrackList
}

type NowPlayingParams struct {
	RoomID   string
	RoomName string
	Title    string
	Channel  string
	VideoID  string
	WatchURL string
	Source   string
	TS       int64
}

type NowPlayingResponse struct {
	Added    bool
	RoomID   string
	RoomName string
}

type ManualAddTrackParams struct {
	RoomID   string
	RoomName string
	VideoID  string
	Input    string
	URL      string
	Title    string
	Channel  string
	TS       int64
}

type ManualAddTrackResponse struct {
	Added    bool
	RoomID   string
	RoomName string
	Tracks   domain.TrackList
}

type GetTracksResponse struct {
	RoomID   string
	RoomName string
	Tracks   domain.TrackList
}

type RemoveTrackParams struct {
	RoomID string
	Index  int
}

type GetRoomsResponse struct {
	Rooms          []Room
	ActiveRoomID   string
	ActiveRoomName string
}

type SetActiveRoomParams struct {
	RoomID   string
	RoomName string
}

type SetActiveRoomResponse struct {
	RoomID   string
	RoomName string
}
