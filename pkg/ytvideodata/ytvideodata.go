// Package ytvideodata looks up title and channel of a YouTube video without
// an API key.
package ytvideodata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoNotEmbeddable = errors.New("video is not embeddable")
)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type Config struct {
	OEmbedURL string
	PageURL   string
	Timeout   time.Duration
}

type Client struct {
	http      *http.Client
	oEmbedURL string
	pageURL   string
}

func New(cfg *Config) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 5 * time.Second},
		oEmbedURL: "https://www.youtube.com/oembed",
		pageURL:   "https://youtu.be/",
	}
	if cfg == nil {
		return c
	}

	if cfg.Timeout > 0 {
		c.http.Timeout = cfg.Timeout
	}
	if cfg.OEmbedURL != "" {
		c.oEmbedURL = cfg.OEmbedURL
	}
	if cfg.PageURL != "" {
		c.pageURL = cfg.PageURL
	}

	return c
}

func (c *Client) Get(ctx context.Context, videoID string) (*VideoData, error) {
	videoData, err := c.getWithEmbed(ctx, videoID)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoID)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}
