package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/repository/room"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, time.Minute, slog.Default()), s
}

func TestTracksRoundTrip(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	tracks, err := r.GetTracks(ctx, "room1")
	require.NoError(t, err)
	assert.Empty(t, tracks)

	err = r.SetTracks(ctx, &room.SetTracksParams{
		RoomID: "room1",
		Tracks: domain.TrackList{
			{VideoID: "a", Title: "A"},
			{VideoID: "b", Title: "B", TS: 5},
		},
	})
	require.NoError(t, err)

	tracks, err = r.GetTracks(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "a", tracks[0].VideoID)
	assert.Equal(t, int64(5), tracks[1].TS)

	require.NoError(t, r.SetTracks(ctx, &room.SetTracksParams{RoomID: "room1"}))
	tracks, err = r.GetTracks(ctx, "room1")
	require.NoError(t, err)
	assert.Empty(t, tracks)

	rooms, err := r.GetRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1, "cleared room stays known")
	assert.Equal(t, "room1", rooms[0].ID)
	assert.Zero(t, rooms[0].TrackCount)
}

func TestGetRoomsUnionsTracksAndMeta(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetTracks(ctx, &room.SetTracksParams{
		RoomID: "with-tracks",
		Tracks: domain.TrackList{{VideoID: "a"}},
	}))
	require.NoError(t, r.SetRoomName(ctx, &room.SetRoomNameParams{RoomID: "meta-only", Name: "Meta"}))

	rooms, err := r.GetRooms(ctx)
	require.NoError(t, err)
	byID := map[string]room.RoomSummary{}
	for _, rm := range rooms {
		byID[rm.ID] = rm
	}

	require.Len(t, byID, 2)
	assert.Equal(t, 1, byID["with-tracks"].TrackCount)
	assert.Equal(t, "", byID["with-tracks"].Name)
	assert.Equal(t, "Meta", byID["meta-only"].Name)
	assert.Equal(t, 0, byID["meta-only"].TrackCount)
}

func TestRoomName(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	name, err := r.GetRoomName(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "", name)

	require.NoError(t, r.SetRoomName(ctx, &room.SetRoomNameParams{RoomID: "x", Name: "First"}))
	require.NoError(t, r.SetRoomName(ctx, &room.SetRoomNameParams{RoomID: "x"}))
	name, err = r.GetRoomName(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "First", name)
}

func TestCurrentRoomID(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetCurrentRoomID(ctx, "room1"))
	id, err := r.GetCurrentRoomID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "room1", id)

	require.NoError(t, r.SetCurrentRoomID(ctx, ""))
	id, err = r.GetCurrentRoomID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestSettings(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetSettings(ctx)
	assert.ErrorIs(t, err, room.ErrSettingsNotFound)

	require.NoError(t, s.Set(settingsKey, `{"defaultPlaylistName":"Old","keepYouTubeLinked":true}`))
	patch, err := r.GetSettings(ctx)
	require.NoError(t, err)
	got := domain.DefaultSettings().Apply(patch)
	assert.Equal(t, "Old", got.DefaultPlaylistName)
	assert.True(t, got.EnableExternalAPILinking)

	require.NoError(t, r.SetSettings(ctx, domain.DefaultSettings()))
	patch, err = r.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), domain.Settings{}.Apply(patch))
}

func TestLinkMirror(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetLink(ctx, "7")
	assert.ErrorIs(t, err, room.ErrLinkNotFound)

	link := domain.Link{Href: "https://youtu.be/abc", ID: "abc", Reason: "interval", TS: 1}
	require.NoError(t, r.SetLink(ctx, &room.SetLinkParams{ContextID: "7", Link: link}))
	got, err := r.GetLink(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, link, got)
	assert.Equal(t, time.Minute, s.TTL("link:7"))

	require.NoError(t, r.RemoveLink(ctx, "7"))
	_, err = r.GetLink(ctx, "7")
	assert.ErrorIs(t, err, room.ErrLinkNotFound)
}
