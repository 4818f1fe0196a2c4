// Package settings keeps the user's notification preferences on this device.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/sl"
	"estatemetrics/internal/storage"
)

const notificationsKey = "notification-settings"

type Store interface {
	Setting(ctx context.Context, key string) (string, error)
	SaveSetting(ctx context.Context, key, value string) error
}

type Service struct {
	log   *slog.Logger
	store Store
}

func New(log *slog.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

// Notifications returns the saved preferences, or the defaults when none
// are saved or the saved value cannot be read.
func (s *Service) Notifications(ctx context.Context) (models.NotificationSettings, error) {
	const op = "settings.Notifications"

	log := s.log.With(slog.String("op", op))

	raw, err := s.store.Setting(ctx, notificationsKey)
	if err != nil {
		if errors.Is(err, storage.ErrSettingNotFound) {
			return models.DefaultNotificationSettings(), nil
		}
		return models.NotificationSettings{}, fmt.Errorf("%s: %w", op, err)
	}

	var ns models.NotificationSettings
	if err := json.Unmarshal([]byte(raw), &ns); err != nil {
		log.Warn("corrupt notification settings, using defaults", sl.Err(err))
		return models.DefaultNotificationSettings(), nil
	}

	return ns, nil
}

func (s *Service) UpdateNotifications(ctx context.Context, ns models.NotificationSettings) error {
	const op = "settings.UpdateNotifications"

	b, err := json.Marshal(ns)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.SaveSetting(ctx, notificationsKey, string(b)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.With(slog.String("op", op)).Info("notification settings saved")

	return nil
}
