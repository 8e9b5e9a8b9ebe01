package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"storypanel/internal/client"
	"storypanel/internal/controllers"
	"storypanel/internal/playlist"
	"storypanel/internal/playlist/interfaces"
	"storypanel/internal/providers"
	"storypanel/internal/services"
	"storypanel/internal/structures"
	"storypanel/internal/viewer"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	WebServer *http.Server
	Kiosk     *viewer.Kiosk

	conf      *structures.Config
	logger    providers.Logger
	scheduler interfaces.SchedulerInterface
	tracking  services.TrackingServiceInterface
}

// linkLogger stands in for a browser on a kiosk without one.
type linkLogger struct {
	logger providers.Logger
}

func (l linkLogger) Open(url string) error {
	l.logger.Infof(providers.TypePlayer, "Link requested: %s", url)
	return nil
}

// NewKiosk builds the looping player over the city playlist.
func NewKiosk(conf *structures.Config, pl *playlist.Playlist, tracking services.TrackingServiceInterface, api *client.Client, logger providers.Logger, metrics providers.MetricsProviderInterface) *viewer.Kiosk {
	return viewer.NewKiosk(pl, viewer.Options{
		StartGroup:   conf.Kiosk.StartGroup,
		TickInterval: conf.Player.TickInterval,
		Tracker:      tracking,
		Opener:       linkLogger{logger: logger},
		Assets:       api,
		Logger:       logger,
		Metrics:      metrics,
	}, conf.Kiosk.IdleWait)
}

func NewApp(apiController *controllers.ApiController, healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface, kiosk *viewer.Kiosk, tracking services.TrackingServiceInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*App, error) {
	// Inner mux: kiosk API routes
	apiMux := http.NewServeMux()
	if err := router.Mount(apiMux); err != nil {
		return nil, err
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, logger, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Kiosk:     kiosk,
		conf:      conf,
		logger:    logger,
		scheduler: scheduler,
		tracking:  tracking,
	}, nil
}

// Run serves the kiosk until ctx is done, then shuts down: the scheduler
// stops, the server drains, pending tracking calls finish and the playlist is
// persisted one last time.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)
	if err := a.scheduler.Restore(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	if err := a.scheduler.Refresh(); err != nil {
		a.logger.Warnf(providers.TypeApp, "Initial refresh failed, playing restored content: %s", err)
	}
	a.scheduler.Init()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.Kiosk.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Infof(providers.TypeApp, "Shutdown signal received")
		a.scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.WebServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.tracking.Wait()
		return a.scheduler.Persist()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
