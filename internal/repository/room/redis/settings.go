package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/repository/room"
)

// GetSettings returns the stored object as a patch so that keys missing from
// older records keep their defaults.
func (r repo) GetSettings(ctx context.Context) (domain.SettingsPatch, error) {
	raw, err := r.rc.Get(ctx, settingsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.SettingsPatch{}, room.ErrSettingsNotFound
		}
		return domain.SettingsPatch{}, fmt.Errorf("failed to get settings: %w", err)
	}

	var patch domain.SettingsPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return domain.SettingsPatch{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	return patch, nil
}

func (r repo) SetSettings(ctx context.Context, settings domain.Settings) error {
	b, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := r.rc.Set(ctx, settingsKey, b, 0).Err(); err != nil {
		return fmt.Errorf("failed to set settings: %w", err)
	}

	return nil
}
