package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/repository/room"
)

func (r repo) getLinkKey(contextID string) string {
	return "link:" + contextID
}

func (r repo) SetLink(ctx context.Context, params *room.SetLinkParams) error {
	b, err := json.Marshal(params.Link)
	if err != nil {
		return fmt.Errorf("failed to encode link: %w", err)
	}

	if err := r.rc.Set(ctx, r.getLinkKey(params.ContextID), b, r.linkExp).Err(); err != nil {
		return fmt.Errorf("failed to set link: %w", err)
	}

	return nil
}

func (r repo) GetLink(ctx context.Context, contextID string) (domain.Link, error) {
	raw, err := r.rc.Get(ctx, r.getLinkKey(contextID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.Link{}, room.ErrLinkNotFound
		}
		return domain.Link{}, fmt.Errorf("failed to get link: %w", err)
	}

	var link domain.Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return domain.Link{}, fmt.Errorf("failed to decode link: %w", err)
	}

	return link, nil
}

func (r repo) RemoveLink(ctx context.Context, contextID string) error {
	if err := r.rc.Del(ctx, r.getLinkKey(contextID)).Err(); err != nil {
		return fmt.Errorf("failed to remove link: %w", err)
	}

	return nil
}
