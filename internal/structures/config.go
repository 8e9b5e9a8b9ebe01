package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type ApiConfig struct {
	BaseURL      string        `yaml:"baseURL" validate:"required|fullUrl"`
	AssetBaseURL string        `yaml:"assetBaseURL" validate:"required|fullUrl"`
	Timeout      time.Duration `yaml:"timeout"`
	TokenFile    string        `yaml:"tokenFile"`
}

type PlayerConfig struct {
	TickInterval    time.Duration `yaml:"tickInterval"`
	DefaultDuration int           `yaml:"defaultDuration"`
	TrackTimeout    time.Duration `yaml:"trackTimeout"`
}

type BuilderConfig struct {
	JpegQuality int `yaml:"jpegQuality"`
	MaxUploadMB int `yaml:"maxUploadMB"`
}

type KioskConfig struct {
	City            string        `yaml:"city" validate:"required"`
	StartGroup      int           `yaml:"startGroup"`
	RefreshInterval time.Duration `yaml:"refreshInterval" validate:"required|min:1"`
	TallyMaxRecords int           `yaml:"tallyMaxRecords"`
	IdleWait        time.Duration `yaml:"idleWait"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Size     int           `yaml:"size"`
	TTL      time.Duration `yaml:"ttl"`
	StatsTTL time.Duration `yaml:"statsTTL"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Api         ApiConfig     `yaml:"api"`
	Player      PlayerConfig  `yaml:"player"`
	Builder     BuilderConfig `yaml:"builder"`
	Kiosk       KioskConfig   `yaml:"kiosk"`
	WebServer   Server        `yaml:"webServer"`
	Persistence Persistence   `yaml:"persistence"`
	Logger      LoggerConfig  `yaml:"logger"`
	Cache       CacheConfig   `yaml:"cache"`
	Metrics     MetricsConfig `yaml:"metrics"`
}
