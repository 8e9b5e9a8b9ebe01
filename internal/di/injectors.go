//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"storypanel/internal"
	"storypanel/internal/client"
	"storypanel/internal/controllers"
	"storypanel/internal/playlist"
	"storypanel/internal/providers"
	"storypanel/internal/services"
	"storypanel/internal/structures"
	"storypanel/internal/viewer"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		playlist.NewCityPlaylist,
		wire.Bind(new(providers.PlaylistGauge), new(*playlist.Playlist)),
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		client.NewClient,
		wire.Bind(new(services.OpenRecorder), new(*client.Client)),
		wire.Bind(new(playlist.StoryFetcher), new(*client.Client)),

		services.NewTrackingService,
		playlist.NewZstdCompressor,
		playlist.NewFileManager,
		playlist.NewScheduler,
		internal.NewKiosk,
		wire.Bind(new(controllers.SessionSource), new(*viewer.Kiosk)),
		wire.Bind(new(controllers.LoopCounter), new(*viewer.Kiosk)),
		wire.Bind(new(controllers.PlaylistStatus), new(*playlist.Playlist)),
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}

func InitConsole(cfg *structures.CliFlags) (*internal.Console, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewCacheProvider,
		client.NewClient,
		internal.NewConsole,
	)

	return nil, nil
}
