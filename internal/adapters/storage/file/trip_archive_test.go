package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

func TestSaveAndLoadTrip(t *testing.T) {
	archive := NewTripArchive(t.TempDir())

	snapshot := domain.TripStore{
		UserRequest: "2 days in Paris",
		Trip:        domain.TripAttributes{Destination: "Paris", DurationDays: 2},
		FinalGuide:  "# Your Travel Guide",
	}
	require.NoError(t, archive.SaveTrip("Paris", snapshot))

	loaded, err := archive.LoadTrip("Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", loaded.Trip.Destination)
	assert.Equal(t, "# Your Travel Guide", loaded.FinalGuide)
}

func TestSaveSanitizesDestination(t *testing.T) {
	dir := t.TempDir()
	archive := NewTripArchive(dir)

	require.NoError(t, archive.SaveTrip("New York City!", domain.TripStore{}))

	_, err := os.Stat(filepath.Join(dir, "new-york-city.json"))
	assert.NoError(t, err)
}

func TestLoadMissingTrip(t *testing.T) {
	archive := NewTripArchive(t.TempDir())

	_, err := archive.LoadTrip("Atlantis")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trip found")
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "trips")
	archive := NewTripArchive(dir)

	require.NoError(t, archive.SaveTrip("Lima", domain.TripStore{}))

	_, err := os.Stat(filepath.Join(dir, "lima.json"))
	assert.NoError(t, err)
}
