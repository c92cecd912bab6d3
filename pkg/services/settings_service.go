package services

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/kotoba-lab/sensei/pkg/models"
	"github.com/kotoba-lab/sensei/pkg/store"
)

// SettingsService exposes the meta key/value settings, guarding the
// editable subset against invalid values.
type SettingsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(st *store.Store, logger *slog.Logger) *SettingsService {
	return &SettingsService{store: st, logger: logger.With("component", "settings_service")}
}

// All returns every setting, including read-only ones like db_version.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	return s.store.AllMeta(ctx)
}

// Get returns a single setting value.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	value, err := s.store.GetMeta(ctx, key)
	return value, mapStoreErr(err)
}

// Update validates and writes one editable setting. Unknown and read-only
// keys are rejected.
func (s *SettingsService) Update(ctx context.Context, key, value string) error {
	if !isEditableKey(key) {
		return NewValidationError("key", "unknown or read-only setting")
	}

	switch key {
	case models.MetaKeyJLPTFocus:
		if _, err := models.ParseJLPTLevel(value); err != nil {
			return NewValidationError("value", err.Error())
		}
	case models.MetaKeyNewCardsPerDay:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return NewValidationError("value", "must be a non-negative integer")
		}
	}

	if err := s.store.SetMeta(ctx, key, value); err != nil {
		return err
	}
	s.logger.Info("setting updated", "key", key, "value", value)
	return nil
}

func isEditableKey(key string) bool {
	for _, k := range models.EditableMetaKeys() {
		if k == key {
			return true
		}
	}
	return false
}
