package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storypanel/internal/models"
	"storypanel/internal/providers"
	"storypanel/internal/testutil"
)

func sampleGroups() []models.StoryGroup {
	color := "#334455"
	return []models.StoryGroup{
		{ID: 1, CitySlug: "tehran", Title: "Lobby", Active: true, Slides: []models.Slide{
			{ID: 10, ImageURL: "/uploads/10.jpg", Duration: 5, Elements: models.Elements{{Type: models.ElementLink, X: 50, Y: 80, Text: "Book", URL: "https://hotel.test"}}},
			{ID: 11, BackgroundColor: &color, SortOrder: 1, Elements: models.Elements{}},
		}},
	}
}

func TestFileManager_SaveToFile_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.dat")
	p := NewPlaylist("tehran")
	p.Set(sampleGroups(), time.Now())
	fm := NewFileManager(&testutil.MockCompressor{}, p, &testutil.MockLogger{})

	require.NoError(t, fm.SaveToFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
	leftovers, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileManager_SaveToFile_EmptyPlaylistKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.dat")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, NewPlaylist("tehran"), &testutil.MockLogger{})
	require.NoError(t, fm.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestFileManager_RoundTripWithZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.dat")
	comp, err := NewZstdCompressor()
	require.NoError(t, err)

	src := NewPlaylist("tehran")
	fetched := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	src.Set(sampleGroups(), fetched)
	require.NoError(t, NewFileManager(comp, src, &testutil.MockLogger{}).SaveToFile(path))

	dst := NewPlaylist("tehran")
	fm := NewFileManager(comp, dst, &testutil.MockLogger{})
	defer fm.Close()
	require.NoError(t, fm.LoadFromFile(path))

	assert.Equal(t, src.Groups(), dst.Groups())
	assert.True(t, dst.FetchedAt().Equal(fetched))
}

func TestFileManager_LoadFromFile_FileNotExist(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, NewPlaylist("tehran"), &testutil.MockLogger{})
	assert.NoError(t, fm.LoadFromFile("/nonexistent/path/file.dat"))
}

func TestFileManager_LoadFromFile_OtherCityIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.dat")
	data, err := json.Marshal(models.PlaylistSnapshot{Version: 1, City: "isfahan", Groups: sampleGroups()})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	p := NewPlaylist("tehran")
	logger := &testutil.MockLogger{}
	require.NoError(t, NewFileManager(&testutil.MockCompressor{}, p, logger).LoadFromFile(path))
	assert.Equal(t, 0, p.GroupCount())
	require.Len(t, logger.Messages("warn"), 1)
	assert.Contains(t, logger.Messages("warn")[0], `"isfahan"`)
	assert.Equal(t, 1, logger.CountType(providers.TypeApp))
}

func TestFileManager_LoadFromFile_NewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.dat")
	data, _ := json.Marshal(models.PlaylistSnapshot{Version: models.SnapshotVersion + 1, City: "tehran"})
	require.NoError(t, os.WriteFile(path, data, 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, NewPlaylist("tehran"), &testutil.MockLogger{})
	assert.Error(t, fm.LoadFromFile(path))
}

func TestFileManager_LoadFromFile_PlainGroupList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.dat")
	data, err := json.Marshal(sampleGroups())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	p := NewPlaylist("tehran")
	require.NoError(t, NewFileManager(&testutil.MockCompressor{}, p, &testutil.MockLogger{}).LoadFromFile(path))
	assert.Equal(t, 1, p.GroupCount())
	assert.Equal(t, 2, p.SlideCount())
}

func TestFileManager_LoadFromFile_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, NewPlaylist("tehran"), &testutil.MockLogger{})
	assert.Error(t, fm.LoadFromFile(path))
}

func TestFileManager_LoadFromFile_DecompressError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.dat")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	comp := &testutil.MockCompressor{DecompressFn: func([]byte) ([]byte, error) { return nil, errors.New("bad frame") }}

	fm := NewFileManager(comp, NewPlaylist("tehran"), &testutil.MockLogger{})
	assert.Error(t, fm.LoadFromFile(path))
}

func loadedPlaylist() *Playlist {
	p := NewPlaylist("tehran")
	p.Set(sampleGroups(), time.Now())
	return p
}

func TestFileManager_SaveToFile_CompressError(t *testing.T) {
	comp := &testutil.MockCompressor{CompressFn: func([]byte) ([]byte, error) { return nil, errors.New("compress error") }}
	fm := NewFileManager(comp, loadedPlaylist(), &testutil.MockLogger{})

	assert.Error(t, fm.SaveToFile(filepath.Join(t.TempDir(), "x.dat")))
}

func TestFileManager_SaveToFile_BadDirectory(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, loadedPlaylist(), &testutil.MockLogger{})
	assert.Error(t, fm.SaveToFile("/nonexistent/dir/playlist.dat"))
}
