package room

type RoomSummary struct {
	ID         string
	Name       string
	TrackCount int
}
