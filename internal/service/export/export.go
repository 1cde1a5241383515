// Package export copies a room's tracks into a playlist of one configured
// backend.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sharetube/roomtracks/internal/domain"
)

const DefaultPacing = 150 * time.Millisecond

var (
	ErrLinkingDisabled   = errors.New("external api linking is disabled")
	ErrMissingPlaylistID = errors.New("missing playlistId")
	ErrDuplicate         = errors.New("video already in playlist")
	ErrNoMatch           = errors.New("video not found")
)

// Note kinds.
const (
	NoteAdded        = "added"
	NoteDuplicate    = "duplicate"
	NoteNoMatch      = "no-match"
	NoteServiceError = "service-error"
)

type Note struct {
	VideoID string `json:"videoId"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Backend is a playlist service. AddVideo reports item scoped failures with
// ErrDuplicate or ErrNoMatch.
type Backend interface {
	Name() string
	CreatePlaylist(ctx context.Context, title string) (string, error)
	AddVideo(ctx context.Context, playlistID string, track domain.Track) error
}

type iTrackSource interface {
	GetTracks(context.Context, string) (domain.TrackList, error)
}

type iSettingsSource interface {
	GetSettings(context.Context) (domain.Settings, error)
}

type Config struct {
	// Pacing is the gap between the end of one backend call and the start of the next.
	Pacing time.Duration
	// RequireLinking refuses exports while enableExternalApiLinking is off.
	RequireLinking bool
}

type Gateway struct {
	backend        Backend
	tracks         iTrackSource
	settings       iSettingsSource
	pacer          *pacer
	requireLinking bool
	logger         *slog.Logger
}

func NewGateway(backend Backend, tracks iTrackSource, settings iSettingsSource, cfg *Config, logger *slog.Logger) *Gateway {
	pacing := cfg.Pacing
	if pacing <= 0 {
		pacing = DefaultPacing
	}

	return &Gateway{
		backend:        backend,
		tracks:         tracks,
		settings:       settings,
		pacer:          newPacer(pacing),
		requireLinking: cfg.RequireLinking,
		logger:         logger.With("backend", backend.Name()),
	}
}

func (g *Gateway) checkLinking(ctx context.Context) (domain.Settings, error) {
	settings, err := g.settings.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	if g.requireLinking && !settings.EnableExternalAPILinking {
		return domain.Settings{}, ErrLinkingDisabled
	}

	return settings, nil
}

// CreatePlaylist creates a playlist named name, or the configured default
// name when name is blank.
func (g *Gateway) CreatePlaylist(ctx context.Context, name string) (string, error) {
	settings, err := g.checkLinking(ctx)
	if err != nil {
		return "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = settings.DefaultPlaylistName
	}

	var playlistID string
	err = g.pacer.do(ctx, func() (err error) {
		playlistID, err = g.backend.CreatePlaylist(ctx, name)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}

	g.logger.InfoContext(ctx, "playlist created", "playlist_id", playlistID, "name", name)
	return playlistID, nil
}

type AddAllResult struct {
	Count int
	Notes []Note
}

// AddAll adds every identified track of the room to the playlist. Item scoped
// failures are noted and skipped. Any other failure stops the export and
// is returned together with the notes gathered so far.
func (g *Gateway) AddAll(ctx context.Context, roomID, playlistID string) (AddAllResult, error) {
	if playlistID == "" {
		return AddAllResult{}, ErrMissingPlaylistID
	}

	if _, err := g.checkLinking(ctx); err != nil {
		return AddAllResult{}, err
	}

	tracks, err := g.tracks.GetTracks(ctx, roomID)
	if err != nil {
		return AddAllResult{}, fmt.Errorf("failed to get tracks: %w", err)
	}

	res := AddAllResult{Notes: []Note{}}
	for _, track := range tracks {
		if track.VideoID == "" {
			continue
		}

		err := g.pacer.do(ctx, func() error {
			return g.backend.AddVideo(ctx, playlistID, track)
		})
		switch {
		case err == nil:
			res.Count++
			res.Notes = append(res.Notes, Note{VideoID: track.VideoID, Kind: NoteAdded})
		case errors.Is(err, ErrDuplicate):
			res.Notes = append(res.Notes, Note{VideoID: track.VideoID, Kind: NoteDuplicate})
		case errors.Is(err, ErrNoMatch):
			res.Notes = append(res.Notes, Note{VideoID: track.VideoID, Kind: NoteNoMatch})
		default:
			res.Notes = append(res.Notes, Note{VideoID: track.VideoID, Kind: NoteServiceError, Message: err.Error()})
			g.logger.WarnContext(ctx, "export aborted", "room_id", roomID, "playlist_id", playlistID, "error", err)
			return res, fmt.Errorf("failed to add %s: %w", track.VideoID, err)
		}
	}

	g.logger.InfoContext(ctx, "export finished", "room_id", roomID, "playlist_id", playlistID, "count", res.Count)
	return res, nil
}

// pacer keeps a fixed gap between the end of one backend call and the start
// of the next.
type pacer struct {
	mu      sync.Mutex
	gap     time.Duration
	limiter *rate.Limiter
}

func newPacer(gap time.Duration) *pacer {
	return &pacer{
		gap:     gap,
		limiter: rate.NewLimiter(rate.Every(gap), 1),
	}
}

func (p *pacer) do(ctx context.Context, call func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	err := call()

	// the gap starts once the call has returned
	p.limiter = rate.NewLimiter(rate.Every(p.gap), 1)
	p.limiter.Allow()

	return err
}
