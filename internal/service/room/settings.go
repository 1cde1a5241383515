package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/repository/room"
)

func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	patch, err := s.roomRepo.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, room.ErrSettingsNotFound) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	return domain.DefaultSettings().Apply(patch), nil
}

// SetSettings merges patch into the stored settings and returns the result.
func (s *Service) SetSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	current, err := s.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	next := current.Apply(patch)
	if err := s.roomRepo.SetSettings(ctx, next); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to set settings: %w", err)
	}

	return next, nil
}

func (s *Service) ResetSettings(ctx context.Context) (domain.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	defaults := domain.DefaultSettings()
	if err := s.roomRepo.SetSettings(ctx, defaults); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to reset settings: %w", err)
	}

	return defaults, nil
}

// EnsureDefaults writes the default settings on first start.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	_, err := s.roomRepo.GetSettings(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, room.ErrSettingsNotFound) {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if err := s.roomRepo.SetSettings(ctx, domain.DefaultSettings()); err != nil {
		return fmt.Errorf("failed to set default settings: %w", err)
	}

	return nil
}
