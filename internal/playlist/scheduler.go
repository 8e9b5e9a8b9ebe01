package playlist

import (
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"storypanel/internal/models"
	"storypanel/internal/playlist/interfaces"
	"storypanel/internal/providers"
	"storypanel/internal/services"
	"storypanel/internal/structures"
)

// StoryFetcher loads the public story list of a city.
type StoryFetcher interface {
	FetchPublicStoriesForCity(ctx context.Context, citySlug string) ([]models.StoryGroup, error)
	InvalidateCity(citySlug string)
}

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	fetcher     StoryFetcher
	playlist    *Playlist
	tracking    services.TrackingServiceInterface
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	saveInterval := s.config.Persistence.SaveInterval
	refreshInterval := s.config.Kiosk.RefreshInterval

	s.cron.AddFunc(gron.Every(saveInterval), func() {
		if err := s.Persist(); err != nil {
			return
		}
		s.logger.Infof(providers.TypeApp, "Persisted playlist to file %s", s.config.Persistence.FilePath)
	})

	s.cron.AddFunc(gron.Every(refreshInterval), func() {
		if err := s.Refresh(); err != nil {
			s.logger.Warnf(providers.TypeApp, "Playlist refresh failed, keeping %d groups: %s", s.playlist.GroupCount(), err)
		}
		s.tracking.AggregateStats()
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore loads the last snapshot so playback can start offline.
func (s *Scheduler) Restore() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
	if err != nil {
		return err
	}
	s.tracking.IndexGroups(s.playlist.Groups())
	s.logger.Infof(providers.TypeApp, "Restored %d groups from %s", s.playlist.GroupCount(), s.config.Persistence.FilePath)
	return nil
}

// Refresh fetches the city's stories from the backend, bypassing the response
// cache. On error the current playlist is kept.
func (s *Scheduler) Refresh() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	city := s.playlist.City()
	timeout := s.config.Api.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.fetcher.InvalidateCity(city)
	groups, err := s.fetcher.FetchPublicStoriesForCity(ctx, city)
	if err != nil {
		return err
	}
	s.playlist.Set(groups, time.Now())
	s.tracking.IndexGroups(groups)
	s.logger.Infof(providers.TypeApp, "Playlist for %s refreshed: %d groups, %d slides", city, s.playlist.GroupCount(), s.playlist.SlideCount())
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting playlist: %s", err)
		return err
	}
	s.metrics.ObservePersistenceDuration(time.Since(start))
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, fetcher StoryFetcher, playlist *Playlist, tracking services.TrackingServiceInterface, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		fetcher:     fetcher,
		playlist:    playlist,
		tracking:    tracking,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
