package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/sharetube/roomtracks/internal/domain"
)

const youtubeAPIURL = "https://www.googleapis.com/youtube/v3"

type YouTubeConfig struct {
	// BaseURL defaults to the public Data API.
	BaseURL      string
	OAuth        *oauth2.Config
	RefreshToken string
	Timeout      time.Duration
}

// youtubeBackend uses the YouTube Data API on behalf of the owner of the
// refresh token.
type youtubeBackend struct {
	baseURL string
	oauth   *oauth2.Config
	refresh string
	timeout time.Duration

	mu sync.Mutex
	ts oauth2.TokenSource
}

func NewYouTubeBackend(cfg *YouTubeConfig) *youtubeBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = youtubeAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &youtubeBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		oauth:   cfg.OAuth,
		refresh: cfg.RefreshToken,
		timeout: timeout,
	}
}

func (b *youtubeBackend) Name() string {
	return "youtube"
}

func (b *youtubeBackend) tokenSource(ctx context.Context, reset bool) oauth2.TokenSource {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ts == nil || reset {
		ctx = context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, &http.Client{Timeout: b.timeout})
		b.ts = b.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: b.refresh})
	}

	return b.ts
}

// do sends an authorized request. A 401 drops the cached token and the call
// is retried once with a fresh one.
func (b *youtubeBackend) do(ctx context.Context, path string, body any, out any) error {
	var resp *http.Response
	for attempt := 0; attempt < 2; attempt++ {
		token, err := b.tokenSource(ctx, attempt > 0).Token()
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}

		req, err := newJSONRequest(ctx, http.MethodPost, b.baseURL+path, body)
		if err != nil {
			return err
		}
		token.SetAuthHeader(req)

		resp, err = (&http.Client{Timeout: b.timeout}).Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusUnauthorized || attempt > 0 {
			break
		}
		resp.Body.Close()
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (b *youtubeBackend) CreatePlaylist(ctx context.Context, title string) (string, error) {
	body := map[string]any{
		"snippet": map[string]any{"title": title},
		"status":  map[string]any{"privacyStatus": "private"},
	}

	var res struct {
		ID string `json:"id"`
	}
	if err := b.do(ctx, "/playlists?part=snippet,status", body, &res); err != nil {
		return "", err
	}

	return res.ID, nil
}

func (b *youtubeBackend) AddVideo(ctx context.Context, playlistID string, track domain.Track) error {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": map[string]any{
				"kind":    "youtube#video",
				"videoId": track.VideoID,
			},
		},
	}

	return b.do(ctx, "/playlistItems?part=snippet", body, nil)
}
