package structures

import "time"

type Server struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host" validate:"required"`
	Port    int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"unixPath"`
}

// MonitorConfig describes where cycles persist their data and how often they run.
type MonitorConfig struct {
	LogFilename string        `yaml:"logFilename" validate:"required"`
	DataFileExt string        `yaml:"dataFileExt" validate:"required|in:.json,.json.zst"`
	RecordCount int           `yaml:"recordCount" validate:"required|min:1"`
	Interval    time.Duration `yaml:"interval" validate:"required|min:1"`
	Categories  []string      `yaml:"categories"`
}

type GerritConfig struct {
	UrlBase   string        `yaml:"urlBase" validate:"fullUrl"`
	UrlPrefix string        `yaml:"urlPrefix"`
	UrlSuffix string        `yaml:"urlSuffix"`
	Timeout   time.Duration `yaml:"timeout"`
}

const (
	DeltaModeUrgent = "urgent"
	DeltaModeFull   = "full"
)

type DeltaConfig struct {
	Mode             string `yaml:"mode" validate:"in:urgent,full"`
	ExcludedReviewer string `yaml:"excludedReviewer"`
}

// ChatUser maps a review account email to a chat user id for mentions.
type ChatUser struct {
	Email string `yaml:"email"`
	ID    string `yaml:"id"`
}

type WebhookConfig struct {
	Enabled bool       `yaml:"enabled"`
	Url     string     `yaml:"url"`
	Users   []ChatUser `yaml:"users"`
}

type AuditConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AllFile     string `yaml:"allFile"`
	ChangesFile string `yaml:"changesFile"`
}

type NotifyConfig struct {
	ReportEmpty bool          `yaml:"reportEmpty"`
	Webhook     WebhookConfig `yaml:"webhook"`
	Audit       AuditConfig   `yaml:"audit"`
}

type ReaperConfig struct {
	DryRun   bool          `yaml:"dryRun"`
	Interval time.Duration `yaml:"interval"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	DataDir   string        `yaml:"dataDir" validate:"required"`
	Monitor   MonitorConfig `yaml:"monitor"`
	Gerrit    GerritConfig  `yaml:"gerrit"`
	Delta     DeltaConfig   `yaml:"delta"`
	Notify    NotifyConfig  `yaml:"notify"`
	Reaper    ReaperConfig  `yaml:"reaper"`
	WebServer Server        `yaml:"webServer"`
	Logger    LoggerConfig  `yaml:"logger"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
}
