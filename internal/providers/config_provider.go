package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"storypanel/internal/structures"
	"strings"
	"time"
)

const (
	defaultTickInterval    = 50 * time.Millisecond
	defaultSlideDuration   = 7
	defaultTrackTimeout    = 3 * time.Second
	defaultApiTimeout      = 15 * time.Second
	defaultJpegQuality     = 90
	defaultMaxUploadMB     = 10
	defaultTallyMaxRecords = 10000
	defaultStatsTTL        = 2 * time.Second
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.BindEnv("logger.level", "STORYPANEL_LOG_LEVEL")
	v.BindEnv("api.baseURL", "STORYPANEL_API_URL")
	v.BindEnv("api.assetBaseURL", "STORYPANEL_ASSET_URL")
	v.BindEnv("api.tokenFile", "STORYPANEL_TOKEN_FILE")
	v.BindEnv("kiosk.city", "STORYPANEL_CITY")
	v.BindEnv("kiosk.refreshInterval", "STORYPANEL_REFRESH_INTERVAL")
	v.BindEnv("persistence.saveInterval", "STORYPANEL_SAVE_INTERVAL")
	v.BindEnv("cache.enabled", "STORYPANEL_CACHE_ENABLED")
	v.BindEnv("cache.size", "STORYPANEL_CACHE_SIZE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	applyDefaults(&conf)

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "StoryPanel"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func applyDefaults(conf *structures.Config) {
	if conf.Player.TickInterval <= 0 {
		conf.Player.TickInterval = defaultTickInterval
	}
	if conf.Player.DefaultDuration <= 0 {
		conf.Player.DefaultDuration = defaultSlideDuration
	}
	if conf.Player.TrackTimeout <= 0 {
		conf.Player.TrackTimeout = defaultTrackTimeout
	}
	if conf.Api.Timeout <= 0 {
		conf.Api.Timeout = defaultApiTimeout
	}
	if conf.Builder.JpegQuality <= 0 || conf.Builder.JpegQuality > 100 {
		conf.Builder.JpegQuality = defaultJpegQuality
	}
	if conf.Builder.MaxUploadMB <= 0 {
		conf.Builder.MaxUploadMB = defaultMaxUploadMB
	}
	if conf.Kiosk.TallyMaxRecords == 0 {
		conf.Kiosk.TallyMaxRecords = defaultTallyMaxRecords
	}
	if conf.Cache.TTL <= 0 {
		conf.Cache.TTL = conf.Kiosk.RefreshInterval
	}
	if conf.Cache.StatsTTL <= 0 {
		conf.Cache.StatsTTL = defaultStatsTTL
	}
}
