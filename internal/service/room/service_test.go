package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharetube/roomtracks/internal/domain"
	roomredis "github.com/sharetube/roomtracks/internal/repository/room/redis"
	"github.com/sharetube/roomtracks/pkg/ytvideodata"
)

type stubFetcher struct {
	data  *ytvideodata.VideoData
	err   error
	calls int
}

func (f *stubFetcher) Get(_ context.Context, _ string) (*ytvideodata.VideoData, error) {
	f.calls++
	return f.data, f.err
}

func newTestService(t *testing.T, cfg *Config) *Service {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewService(roomredis.NewRepo(rc, 0, slog.Default()), cfg, slog.Default())
}

func TestAddTrackWithoutRoomIsNoop(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.AddTrack(ctx, &AddTrackParams{Track: domain.Track{VideoID: "abc"}})
	require.NoError(t, err)
	assert.False(t, resp.Added)
	assert.Empty(t, resp.Tracks)

	rooms, err := svc.GetRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms.Rooms)
}

func TestAddTrackMergeAndDedup(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.AddTrack(ctx, &AddTrackParams{
		RoomID: "r1",
		Track:  domain.Track{VideoID: "abc", Channel: "X", TS: 1},
	})
	require.NoError(t, err)
	assert.True(t, resp.Added)

	resp, err = svc.AddTrack(ctx, &AddTrackParams{
		RoomID: "r1",
		Track:  domain.Track{VideoID: "ABC", Title: "Y", Channel: "Z", TS: 2},
	})
	require.NoError(t, err)
	assert.False(t, resp.Added)
	require.Len(t, resp.Tracks, 1)
	assert.Equal(t, "Y", resp.Tracks[0].Title)
	assert.Equal(t, "X", resp.Tracks[0].Channel)

	tracks, err := svc.GetTracks(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, resp.Tracks, tracks)
}

func TestAddTrackConcurrentDoesNotLoseUpdates(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddTrack(ctx, &AddTrackParams{
				RoomID: "r1",
				Track:  domain.Track{VideoID: fmt.Sprintf("vid%d", i)},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	tracks, err := svc.GetTracks(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, tracks, n)
	assert.Equal(t, 0, svc.roomLocks.len())
}

func TestRemoveAndClearTracks(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.AddTrack(ctx, &AddTrackParams{RoomID: "r1", Track: domain.Track{VideoID: id}})
		require.NoError(t, err)
	}

	tracks, err := svc.RemoveTrack(ctx, &RemoveTrackParams{RoomID: "r1", Index: 10})
	require.NoError(t, err)
	assert.Len(t, tracks, 3)

	tracks, err = svc.RemoveTrack(ctx, &RemoveTrackParams{RoomID: "r1", Index: 1})
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "c", tracks[1].VideoID)

	require.NoError(t, svc.ClearTracks(ctx, "r1"))
	tracks, err = svc.GetTracks(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestRecordNowPlaying(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.RecordNowPlaying(ctx, &NowPlayingParams{VideoID: "abc"})
	assert.ErrorIs(t, err, ErrMissingRoomID)

	resp, err := svc.RecordNowPlaying(ctx, &NowPlayingParams{
		RoomID:   "r1",
		RoomName: "Lounge",
		VideoID:  "abc",
		Title:    "Song",
	})
	require.NoError(t, err)
	assert.True(t, resp.Added)
	assert.Equal(t, "r1", resp.RoomID)
	assert.Equal(t, "Lounge", resp.RoomName)

	tracks, err := svc.GetTracks(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", tracks[0].WatchURL)
	assert.Equal(t, domain.SourcePageNowPlaying, tracks[0].Source)
	assert.NotZero(t, tracks[0].TS)
	assert.Equal(t, "r1", tracks[0].RoomID)
}

func TestRecordNowPlayingWithoutVideoUpdatesActiveRoom(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.RecordNowPlaying(ctx, &NowPlayingParams{RoomID: "r2"})
	assert.ErrorIs(t, err, ErrMissingVideoID)

	rooms, err := svc.GetRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r2", rooms.ActiveRoomID)
}

func TestManualAddTrack(t *testing.T) {
	fetcher := &stubFetcher{data: &ytvideodata.VideoData{Title: "Fetched", AuthorName: "Author"}}
	svc := newTestService(t, &Config{Metadata: fetcher})
	ctx := context.Background()

	_, err := svc.ManualAddTrack(ctx, &ManualAddTrackParams{Input: "abc"})
	assert.ErrorIs(t, err, ErrNoActiveRoom)

	_, err = svc.SetActiveRoom(ctx, &SetActiveRoomParams{RoomID: "r1", RoomName: "Lounge"})
	require.NoError(t, err)

	resp, err := svc.ManualAddTrack(ctx, &ManualAddTrackParams{
		Input: "https://youtu.be/dQw4w9WgXcQ?t=10",
	})
	require.NoError(t, err)
	assert.True(t, resp.Added)
	assert.Equal(t, "r1", resp.RoomID)
	assert.Equal(t, "Lounge", resp.RoomName)
	require.Len(t, resp.Tracks, 1)
	assert.Equal(t, "dQw4w9WgXcQ", resp.Tracks[0].VideoID)
	assert.Equal(t, "Fetched", resp.Tracks[0].Title)
	assert.Equal(t, "Author", resp.Tracks[0].Channel)
	assert.Equal(t, domain.SourceManual, resp.Tracks[0].Source)
	assert.Equal(t, 1, fetcher.calls)
}

func TestManualAddTrackMetadataFailureIsIgnored(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("boom")}
	svc := newTestService(t, &Config{Metadata: fetcher})
	ctx := context.Background()

	resp, err := svc.ManualAddTrack(ctx, &ManualAddTrackParams{RoomID: "r1", VideoID: "abc", Title: "Given"})
	require.NoError(t, err)
	require.Len(t, resp.Tracks, 1)
	assert.Equal(t, "Given", resp.Tracks[0].Title)
	assert.Empty(t, resp.Tracks[0].Channel)
}

func TestManualAddTrackRejectsBlankInput(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.ManualAddTrack(context.Background(), &ManualAddTrackParams{RoomID: "r1", Input: "  "})
	assert.ErrorIs(t, err, ErrInvalidVideoID)
}

func TestGetRoomsFiltersAndSorts(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.UpsertRoom(ctx, "global", "Global"))
	require.NoError(t, svc.UpsertRoom(ctx, "legacy", ""))
	require.NoError(t, svc.UpsertRoom(ctx, "r3", "다방"))
	require.NoError(t, svc.UpsertRoom(ctx, "r1", "가게"))
	require.NoError(t, svc.UpsertRoom(ctx, "r2", "나무"))
	_, err := svc.AddTrack(ctx, &AddTrackParams{RoomID: "r2", Track: domain.Track{VideoID: "abc"}})
	require.NoError(t, err)

	_, err = svc.SetActiveRoom(ctx, &SetActiveRoomParams{RoomID: "r2"})
	require.NoError(t, err)

	rooms, err := svc.GetRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms.Rooms, 3)
	assert.Equal(t, []string{"r1", "r2", "r3"}, []string{rooms.Rooms[0].ID, rooms.Rooms[1].ID, rooms.Rooms[2].ID})
	assert.Equal(t, 1, rooms.Rooms[1].TrackCount)
	assert.Equal(t, "r2", rooms.ActiveRoomID)
	assert.Equal(t, "나무", rooms.ActiveRoomName)
}

func TestGetRoomsNameFallsBackToID(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.UpsertRoom(ctx, "room-x", ""))

	rooms, err := svc.GetRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, "room-x", rooms.Rooms[0].Name)
}

func TestSetActiveRoomEmptyClears(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.SetActiveRoom(ctx, &SetActiveRoomParams{RoomID: "r1"})
	require.NoError(t, err)

	_, err = svc.SetActiveRoom(ctx, &SetActiveRoomParams{})
	require.NoError(t, err)

	roomID, err := svc.ResolveRoomID(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, roomID)
}

func TestSettings(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)

	name := "Mine"
	linked := true
	settings, err = svc.SetSettings(ctx, domain.SettingsPatch{
		DefaultPlaylistName: &name,
		KeepYouTubeLinked:   &linked,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mine", settings.DefaultPlaylistName)
	assert.True(t, settings.EnableExternalAPILinking)

	blank := "  "
	settings, err = svc.SetSettings(ctx, domain.SettingsPatch{DefaultPlaylistName: &blank})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPlaylistName, settings.DefaultPlaylistName)
	assert.True(t, settings.EnableExternalAPILinking)

	settings, err = svc.ResetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestEnsureDefaultsKeepsExisting(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	name := "Kept"
	_, err := svc.SetSettings(ctx, domain.SettingsPatch{DefaultPlaylistName: &name})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureDefaults(ctx))

	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kept", settings.DefaultPlaylistName)
}

func TestGetActiveRoom(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	active, err := svc.GetActiveRoom(ctx)
	require.NoError(t, err)
	assert.Empty(t, active.ID)

	_, err = svc.RecordNowPlaying(ctx, &NowPlayingParams{RoomID: "r1", RoomName: " Lounge ", VideoID: "abc"})
	require.NoError(t, err)

	active, err = svc.GetActiveRoom(ctx)
	require.NoError(t, err)
	assert.Equal(t, Room{ID: "r1", Name: "Lounge", TrackCount: 1}, active)
}
