// Package prefs persists small client-local preferences such as the
// live-stream embed URL.
package prefs

import (
	"context"
	"net/url"
	"strings"

	"github.com/rouletteai/roulette-client/internal/errors"
)

// Well-known preference keys.
const (
	KeyLiveURL   = "live_url"
	KeySessionID = "session_id"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// LiveURL returns the configured live-stream URL, or "" when no embed is configured.
func LiveURL(ctx context.Context, s Store) (string, error) {
	v, found, err := s.Get(ctx, KeyLiveURL)
	if err != nil || !found {
		return "", err
	}
	return v, nil
}

// SetLiveURL stores the live-stream URL. A blank value removes the preference.
func SetLiveURL(ctx context.Context, s Store, raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return s.Delete(ctx, KeyLiveURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Newf("invalid live stream URL %q: must be an absolute http(s) URL", trimmed).
			Component("preferences").
			Category(errors.CategoryValidation).
			Build()
	}
	return s.Set(ctx, KeyLiveURL, trimmed)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.Newf("preference key cannot be empty").
			Component("preferences").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}
