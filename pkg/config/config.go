package config

import (
	"fmt"
	"time"
)

const (
	ModeResilience = "resilience"
	ModeAcceptance = "acceptance"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Load      LoadConfig      `mapstructure:"load"`
	Scenario  ScenarioConfig  `mapstructure:"scenario"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Report    ReportConfig    `mapstructure:"report"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`
}

// LoadConfig parameterizes the locust invocation. The "locust" section name
// is accepted as an alias for "load".
type LoadConfig struct {
	Locustfile  string            `mapstructure:"locustfile"`
	Host        string            `mapstructure:"host"`
	Users       int               `mapstructure:"users"`
	SpawnRate   int               `mapstructure:"spawn_rate"`
	RunTime     string            `mapstructure:"run_time"`
	Tags        []string          `mapstructure:"tags"`
	ExcludeTags []string          `mapstructure:"exclude_tags"`
	StopTimeout int               `mapstructure:"stop_timeout"`
	ExtraArgs   []string          `mapstructure:"extra_args"`
	LocustCmd   string            `mapstructure:"locust_cmd"`
	Headers     map[string]string `mapstructure:"headers"`
}

type ScenarioConfig struct {
	ThinkTime ThinkTimeConfig   `mapstructure:"think_time"`
	Headers   map[string]string `mapstructure:"headers"`
	Auth      AuthConfig        `mapstructure:"auth"`
	OnStart   []RequestConfig   `mapstructure:"on_start"`
	Requests  []RequestConfig   `mapstructure:"requests"`
}

type ThinkTimeConfig struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

type AuthConfig struct {
	Type  string `mapstructure:"type"`
	Token string `mapstructure:"token"`
}

type RequestConfig struct {
	Name    string            `mapstructure:"name"`
	Method  string            `mapstructure:"method"`
	Path    string            `mapstructure:"path"`
	Weight  int               `mapstructure:"weight"`
	Headers map[string]string `mapstructure:"headers"`
	Query   map[string]string `mapstructure:"query"`
	Body    map[string]any    `mapstructure:"json"`
	Tags    []string          `mapstructure:"tags"`
}

type ArtifactsConfig struct {
	Storage        string `mapstructure:"storage"`
	RunID          string `mapstructure:"run_id"`
	MaxHistoryRuns int    `mapstructure:"max_history_runs"`
}

type AnalysisConfig struct {
	Baseline  string           `mapstructure:"baseline"`
	Mode      string           `mapstructure:"mode"`
	FailOn    string           `mapstructure:"fail_on"`
	RulesFile string           `mapstructure:"rules_file"`
	Rules     []map[string]any `mapstructure:"rules"`
	Gate      GateConfig       `mapstructure:"gate"`
}

// GateConfig holds the absolute-threshold gate settings. Thresholds entries
// may be bare numbers (shorthand for a fail threshold) or structured
// {warn, fail, direction} objects, so they stay untyped until parsing.
type GateConfig struct {
	Mode          string         `mapstructure:"mode"`
	Thresholds    map[string]any `mapstructure:"thresholds"`
	MinRequests   *int           `mapstructure:"min_requests"`
	WarmupSeconds *int           `mapstructure:"warmup_seconds"`
}

type ReportConfig struct {
	Title  string `mapstructure:"title"`
	Output string `mapstructure:"output"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxConnections  int           `mapstructure:"max_connections"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
}
