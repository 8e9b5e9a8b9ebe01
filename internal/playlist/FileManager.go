package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"storypanel/internal/models"
	"storypanel/internal/playlist/interfaces"
	"storypanel/internal/providers"
)

// FileManager keeps the last fetched playlist on disk, compressed, so the
// kiosk can start playing before the backend answers.
type FileManager struct {
	playlist   *Playlist
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, playlist *Playlist, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		playlist:   playlist,
		logger:     logger,
	}
}

// SaveToFile writes the playlist snapshot atomically. An empty playlist is
// not written, so a kiosk that never reached the backend keeps the previous file.
func (f *FileManager) SaveToFile(fileName string) error {
	snapshot := f.playlist.Snapshot()
	if len(snapshot.Groups) == 0 {
		f.logger.Debugf(providers.TypeApp, "Playlist is empty, keeping %s", fileName)
		return nil
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	packed, err := f.compressor.Compress(raw)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	return writeAtomic(fileName, packed)
}

// writeAtomic writes next to the target and renames over it, so readers never
// see a half written snapshot.
func writeAtomic(fileName string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(fileName), filepath.Base(fileName)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores the playlist from a snapshot. A missing file is not an
// error. A snapshot of another city is ignored. A bare JSON array of groups,
// as served by the public stories endpoint, is accepted as well.
func (f *FileManager) LoadFromFile(fileName string) error {
	packed, err := os.ReadFile(fileName)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := f.compressor.Decompress(packed)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", fileName, err)
	}

	snapshot, err := f.decodeSnapshot(raw)
	if err != nil {
		return err
	}
	if snapshot.City != "" && snapshot.City != f.playlist.City() {
		f.logger.Warnf(providers.TypeApp, "Snapshot is for city %q, expected %q, ignoring", snapshot.City, f.playlist.City())
		return nil
	}
	f.playlist.Set(snapshot.Groups, snapshot.FetchedAt)
	return nil
}

func (f *FileManager) decodeSnapshot(raw []byte) (models.PlaylistSnapshot, error) {
	var snapshot models.PlaylistSnapshot
	if err := json.Unmarshal(raw, &snapshot); err == nil && snapshot.Version > 0 {
		if snapshot.Version > models.SnapshotVersion {
			return snapshot, fmt.Errorf("snapshot version %d is newer than supported %d", snapshot.Version, models.SnapshotVersion)
		}
		return snapshot, nil
	}

	f.logger.Warnf(providers.TypeApp, "Snapshot without header found, trying plain group list")
	var groups []models.StoryGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return snapshot, fmt.Errorf("snapshot is neither a playlist nor a group list: %w", err)
	}
	return models.PlaylistSnapshot{Groups: groups, FetchedAt: time.Time{}}, nil
}
