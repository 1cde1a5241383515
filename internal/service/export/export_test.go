package export

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sharetube/roomtracks/internal/domain"
)

type stubTracks domain.TrackList

func (s stubTracks) GetTracks(context.Context, string) (domain.TrackList, error) {
	return domain.TrackList(s).Clone(), nil
}

type stubSettings domain.Settings

func (s stubSettings) GetSettings(context.Context) (domain.Settings, error) {
	return domain.Settings(s), nil
}

type proxyServer struct {
	mu       sync.Mutex
	names    []string
	added    []string
	statuses map[string]int
}

func newProxyServer(t *testing.T, statuses map[string]int) (*proxyServer, string) {
	t.Helper()
	p := &proxyServer{statuses: statuses}

	r := chi.NewRouter()
	r.Post("/playlists", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.names = append(p.names, body.Name)
		p.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "pl1"})
	})
	r.Post("/playlists/{playlistID}/videos", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			VideoID string `json:"videoId"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		if status, ok := p.statuses[body.VideoID]; ok {
			w.WriteHeader(status)
			return
		}

		p.mu.Lock()
		p.added = append(p.added, chi.URLParam(r, "playlistID")+"/"+body.VideoID)
		p.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return p, srv.URL
}

func TestCreatePlaylistDefaultsName(t *testing.T) {
	p, url := newProxyServer(t, nil)
	g := NewGateway(NewProxyBackend(&ProxyConfig{BaseURL: url}), stubTracks{}, stubSettings(domain.DefaultSettings()), &Config{}, slog.Default())

	id, err := g.CreatePlaylist(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "pl1", id)

	_, err = g.CreatePlaylist(context.Background(), "Mine")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.DefaultPlaylistName, "Mine"}, p.names)
}

func TestAddAllNotesItemFailures(t *testing.T) {
	p, url := newProxyServer(t, map[string]int{
		"dup":     http.StatusConflict,
		"missing": http.StatusNotFound,
	})
	tracks := stubTracks{
		{VideoID: "a"},
		{Title: "no id"},
		{VideoID: "dup"},
		{VideoID: "missing"},
		{VideoID: "b"},
	}
	g := NewGateway(NewProxyBackend(&ProxyConfig{BaseURL: url}), tracks, stubSettings(domain.DefaultSettings()), &Config{Pacing: time.Millisecond}, slog.Default())

	res, err := g.AddAll(context.Background(), "r1", "pl1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []Note{
		{VideoID: "a", Kind: NoteAdded},
		{VideoID: "dup", Kind: NoteDuplicate},
		{VideoID: "missing", Kind: NoteNoMatch},
		{VideoID: "b", Kind: NoteAdded},
	}, res.Notes)
	assert.Equal(t, []string{"pl1/a", "pl1/b"}, p.added)
}

func TestAddAllAbortsOnServiceError(t *testing.T) {
	p, url := newProxyServer(t, map[string]int{"broken": http.StatusInternalServerError})
	tracks := stubTracks{{VideoID: "a"}, {VideoID: "broken"}, {VideoID: "b"}}
	g := NewGateway(NewProxyBackend(&ProxyConfig{BaseURL: url}), tracks, stubSettings(domain.DefaultSettings()), &Config{Pacing: time.Millisecond}, slog.Default())

	res, err := g.AddAll(context.Background(), "r1", "pl1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicate))
	require.Len(t, res.Notes, 2)
	assert.Equal(t, NoteServiceError, res.Notes[1].Kind)
	assert.Equal(t, []string{"pl1/a"}, p.added)
}

func TestAddAllRequiresPlaylistID(t *testing.T) {
	g := NewGateway(NewProxyBackend(&ProxyConfig{BaseURL: "http://invalid"}), stubTracks{}, stubSettings(domain.DefaultSettings()), &Config{}, slog.Default())

	_, err := g.AddAll(context.Background(), "r1", "")
	assert.ErrorIs(t, err, ErrMissingPlaylistID)
}

func TestAddAllIsPaced(t *testing.T) {
	_, url := newProxyServer(t, nil)
	tracks := stubTracks{{VideoID: "a"}, {VideoID: "b"}, {VideoID: "c"}}
	g := NewGateway(NewProxyBackend(&ProxyConfig{BaseURL: url}), tracks, stubSettings(domain.DefaultSettings()), &Config{Pacing: 30 * time.Millisecond}, slog.Default())

	start := time.Now()
	_, err := g.AddAll(context.Background(), "r1", "pl1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

// slowBackend takes longer than the pacing gap on every call.
type slowBackend struct {
	delay  time.Duration
	starts []time.Time
	ends   []time.Time
}

func (b *slowBackend) Name() string { return "slow" }

func (b *slowBackend) CreatePlaylist(context.Context, string) (string, error) {
	return "pl1", nil
}

func (b *slowBackend) AddVideo(context.Context, string, domain.Track) error {
	b.starts = append(b.starts, time.Now())
	time.Sleep(b.delay)
	b.ends = append(b.ends, time.Now())
	return nil
}

func TestAddAllWaitsAfterSlowCalls(t *testing.T) {
	backend := &slowBackend{delay: 40 * time.Millisecond}
	tracks := stubTracks{{VideoID: "a"}, {VideoID: "b"}, {VideoID: "c"}}
	g := NewGateway(backend, tracks, stubSettings(domain.DefaultSettings()), &Config{Pacing: 30 * time.Millisecond}, slog.Default())

	res, err := g.AddAll(context.Background(), "r1", "pl1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)

	require.Len(t, backend.starts, 3)
	for i := 1; i < len(backend.starts); i++ {
		gap := backend.starts[i].Sub(backend.ends[i-1])
		assert.GreaterOrEqual(t, gap, 25*time.Millisecond, "call %d started %s after the previous one returned", i, gap)
	}
}

func TestRequireLinking(t *testing.T) {
	g := NewGateway(NewProxyBackend(&ProxyConfig{BaseURL: "http://invalid"}), stubTracks{}, stubSettings(domain.DefaultSettings()), &Config{RequireLinking: true}, slog.Default())

	_, err := g.CreatePlaylist(context.Background(), "x")
	assert.ErrorIs(t, err, ErrLinkingDisabled)
	_, err = g.AddAll(context.Background(), "r1", "pl1")
	assert.ErrorIs(t, err, ErrLinkingDisabled)
}

func TestYouTubeBackendRetriesOnceOnUnauthorized(t *testing.T) {
	var mu sync.Mutex
	tokenCalls := 0
	apiCalls := 0
	var gotAuth []string

	r := chi.NewRouter()
	r.Post("/token", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokenCalls++
		n := tokenCalls
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": map[int]string{1: "stale", 2: "fresh"}[n],
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	r.Post("/playlists", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		apiCalls++
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		mu.Unlock()

		assert.Equal(t, "snippet,status", r.URL.Query().Get("part"))
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "PLx"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	b := NewYouTubeBackend(&YouTubeConfig{
		BaseURL: srv.URL,
		OAuth: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: srv.URL + "/token"},
		},
		RefreshToken: "refresh",
	})

	id, err := b.CreatePlaylist(context.Background(), "Mine")
	require.NoError(t, err)
	assert.Equal(t, "PLx", id)
	assert.Equal(t, 2, tokenCalls)
	assert.Equal(t, 2, apiCalls)
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, gotAuth)
}

func TestYouTubeBackendMapsItemErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "t", "token_type": "Bearer", "expires_in": 3600})
	})
	r.Post("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Snippet struct {
				ResourceID struct {
					VideoID string `json:"videoId"`
				} `json:"resourceId"`
			} `json:"snippet"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Snippet.ResourceID.VideoID == "gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"id":"item"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	b := NewYouTubeBackend(&YouTubeConfig{
		BaseURL:      srv.URL,
		OAuth:        &oauth2.Config{Endpoint: oauth2.Endpoint{TokenURL: srv.URL + "/token"}},
		RefreshToken: "refresh",
	})

	assert.NoError(t, b.AddVideo(context.Background(), "PLx", domain.Track{VideoID: "abc"}))
	assert.ErrorIs(t, b.AddVideo(context.Background(), "PLx", domain.Track{VideoID: "gone"}), ErrNoMatch)
}
