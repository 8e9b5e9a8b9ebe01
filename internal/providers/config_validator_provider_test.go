package providers

import (
	"os"
	"path/filepath"
	"storypanel/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *structures.Config {
	return &structures.Config{
		Api: structures.ApiConfig{
			BaseURL:      "https://api.hotel.test",
			AssetBaseURL: "https://cdn.hotel.test",
		},
		Kiosk: structures.KioskConfig{
			City:            "tehran",
			RefreshInterval: time.Minute,
		},
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Persistence: structures.Persistence{
			FilePath:     "/tmp/storypanel.snapshot",
			SaveInterval: 30 * time.Second,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_Rejects(t *testing.T) {
	cases := map[string]func(c *structures.Config){
		"empty host":        func(c *structures.Config) { c.WebServer.Host = "" },
		"zero port":         func(c *structures.Config) { c.WebServer.Port = 0 },
		"empty log level":   func(c *structures.Config) { c.Logger.Level = "" },
		"invalid log level": func(c *structures.Config) { c.Logger.Level = "verbose" },
		"relative api url":  func(c *structures.Config) { c.Api.BaseURL = "api.hotel.test" },
		"missing asset url": func(c *structures.Config) { c.Api.AssetBaseURL = "" },
		"missing city":      func(c *structures.Config) { c.Kiosk.City = "" },
		"no refresh":        func(c *structures.Config) { c.Kiosk.RefreshInterval = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(c)
			assert.Error(t, NewCnfValidator(c).Validate())
		})
	}
}

const sampleConfig = `
api:
  baseURL: https://api.hotel.test
  assetBaseURL: https://cdn.hotel.test
kiosk:
  city: tehran
  refreshInterval: 2m
webServer:
  host: 127.0.0.1
  port: 8090
persistence:
  filePath: /tmp/storypanel.snapshot
  saveInterval: 30s
logger:
  level: debug
  mode: 420
  dir: /tmp
cache:
  enabled: true
  size: 4
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfigProvider_LoadsAndDefaults(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, "StoryPanel", conf.AppName)
	assert.True(t, conf.Debug)
	assert.Equal(t, path, conf.Path)
	assert.Equal(t, "tehran", conf.Kiosk.City)
	assert.Equal(t, 2*time.Minute, conf.Kiosk.RefreshInterval)
	assert.Equal(t, 8090, conf.WebServer.Port)

	assert.Equal(t, defaultTickInterval, conf.Player.TickInterval)
	assert.Equal(t, defaultSlideDuration, conf.Player.DefaultDuration)
	assert.Equal(t, defaultApiTimeout, conf.Api.Timeout)
	assert.Equal(t, defaultJpegQuality, conf.Builder.JpegQuality)
	assert.Equal(t, defaultTallyMaxRecords, conf.Kiosk.TallyMaxRecords)
	assert.Equal(t, 2*time.Minute, conf.Cache.TTL, "cache ttl follows the refresh interval")
	assert.Equal(t, defaultStatsTTL, conf.Cache.StatsTTL)
}

func TestNewConfigProvider_EnvOverride(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("STORYPANEL_CITY", "shiraz")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "shiraz", conf.Kiosk.City)
}

func TestNewConfigProvider_Errors(t *testing.T) {
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: filepath.Join(t.TempDir(), "missing.yml")})
	assert.Error(t, err)

	path := writeConfig(t, "logger:\n  level: info\n")
	_, err = NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	assert.Error(t, err, "required sections are validated")
}
