package engine

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLoadArchive(t *testing.T) {
	// Records arrive out of id order across files; the loader must
	// replay them sorted so the append contract holds.
	path := writeArchive(t, map[string]string{
		"options.txt": "1577836800\n1\n",
		"locations_1.json": `{"locations": [
			{"id": 1, "country": "Egypt", "city": "Cairo", "place": "Pyramids", "distance": 300},
			{"id": 0, "country": "Russia", "city": "Moscow", "place": "Red Square", "distance": 50}
		]}`,
		"users_1.json": `{"users": [
			{"id": 0, "email": "anna@example.com", "first_name": "Anna", "last_name": "Ivanova", "gender": "f", "birth_date": 631152000}
		]}`,
		"visits_1.json": `{"visits": [
			{"id": 1, "user": 0, "location": 1, "mark": 5, "visited_at": 2000},
			{"id": 0, "user": 0, "location": 0, "mark": 4, "visited_at": 1000}
		]}`,
	})

	ref, ok := GeneratedAt(path)
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), ref)

	s := NewStore(ref)
	stats, err := LoadArchive(path, s, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 2, stats.Locations)
	assert.Equal(t, 2, stats.Visits)

	user, err := s.GetUser(0)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", user.Email)

	visits, err := s.UserVisits(0, VisitsFilter{})
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "Red Square", visits[0].Place)
	assert.Equal(t, "Pyramids", visits[1].Place)
}

func TestLoadArchiveMissingFile(t *testing.T) {
	s := NewStore(time.Now())
	_, err := LoadArchive(filepath.Join(t.TempDir(), "nope.zip"), s, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadArchiveMalformedRecord(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"users_1.json": `{"users": [{"id": 0, "email": "a@example.com"}]}`,
	})

	s := NewStore(time.Now())
	_, err := LoadArchive(path, s, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadArchiveDanglingReference(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"visits_1.json": `{"visits": [{"id": 0, "user": 3, "location": 0, "mark": 1, "visited_at": 10}]}`,
	})

	s := NewStore(time.Now())
	_, err := LoadArchive(path, s, zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestGeneratedAtMissingOptions(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"users_1.json": `{"users": []}`,
	})
	_, ok := GeneratedAt(path)
	assert.False(t, ok)
}
