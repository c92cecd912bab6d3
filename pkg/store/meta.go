package store

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/kotoba-lab/sensei/pkg/models"
)

// AllMeta returns every key/value pair of the meta table.
func (s *Store) AllMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to load meta: %w", err)
	}
	defer rows.Close()

	meta := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan meta row: %w", err)
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

// GetMeta returns one meta value, or ErrNotFound for an unknown key.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = $1", key).Scan(&value)
	if errors.Is(err, stdsql.ErrNoRows) {
		return "", fmt.Errorf("meta key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read meta %q: %w", key, err)
	}
	return value, nil
}

// SetMeta writes one meta value, creating the key if needed.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %q: %w", key, err)
	}
	return nil
}

// EnsureMetaDefaults seeds the settings keys that the rest of the system
// reads unconditionally. Existing values are never overwritten, so user
// edits survive restarts.
func (s *Store) EnsureMetaDefaults(ctx context.Context, newCardsPerDay int) error {
	defaults := map[string]string{
		models.MetaKeyJLPTFocus:      string(models.LevelN5),
		models.MetaKeyNewCardsPerDay: strconv.Itoa(newCardsPerDay),
		models.MetaKeyDBVersion:      "jlpt-db-v1.0.0",
	}
	for key, value := range defaults {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO meta (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING",
			key, value)
		if err != nil {
			return fmt.Errorf("failed to seed meta default %q: %w", key, err)
		}
	}
	return nil
}
