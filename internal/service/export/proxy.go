package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sharetube/roomtracks/internal/domain"
)

type ProxyConfig struct {
	BaseURL string
	Timeout time.Duration
}

// proxyBackend talks to the companion playlist service.
type proxyBackend struct {
	baseURL string
	client  *http.Client
}

func NewProxyBackend(cfg *ProxyConfig) *proxyBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &proxyBackend{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *proxyBackend) Name() string {
	return "proxy"
}

func (b *proxyBackend) CreatePlaylist(ctx context.Context, title string) (string, error) {
	req, err := newJSONRequest(ctx, http.MethodPost, b.baseURL+"/playlists", map[string]any{
		"name": title,
	})
	if err != nil {
		return "", err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create playlist failed: %w", statusError(resp))
	}

	var res struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}

	return res.ID, nil
}

func (b *proxyBackend) AddVideo(ctx context.Context, playlistID string, track domain.Track) error {
	req, err := newJSONRequest(ctx, http.MethodPost,
		fmt.Sprintf("%s/playlists/%s/videos", b.baseURL, url.PathEscape(playlistID)),
		map[string]any{
			"videoId": track.VideoID,
			"title":   track.Title,
			"channel": track.Channel,
		},
	)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}

	return nil
}
