// Package file persists finished travel guides as JSON documents on disk,
// one per destination.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

type TripArchive struct {
	dir string
}

func NewTripArchive(dir string) *TripArchive {
	return &TripArchive{dir: dir}
}

// SaveTrip writes the trip snapshot to <dir>/<destination>.json.
func (a *TripArchive) SaveTrip(destination string, snapshot domain.TripStore) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("creating trips dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trip: %w", err)
	}

	path := a.path(destination)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing trip: %w", err)
	}
	return nil
}

// LoadTrip reads a previously archived trip.
func (a *TripArchive) LoadTrip(destination string) (*domain.TripStore, error) {
	data, err := os.ReadFile(a.path(destination))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no trip found for destination %q", destination)
		}
		return nil, err
	}

	var store domain.TripStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("decoding trip: %w", err)
	}
	return &store, nil
}

func (a *TripArchive) path(destination string) string {
	name := strings.ToLower(strings.TrimSpace(destination))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, name)
	if name == "" {
		name = "trip"
	}
	return filepath.Join(a.dir, name+".json")
}
