package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads the loconfig file (JSON or YAML), layering defaults and
// LOCO_-prefixed environment variables the same way regardless of which
// command runs.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("loconfig")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LOCO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// "locust" is the historical section name for the load settings.
	if isZeroLoad(cfg.Load) && v.IsSet("locust") {
		if err := v.UnmarshalKey("locust", &cfg.Load); err != nil {
			return nil, fmt.Errorf("failed to unmarshal locust section: %w", err)
		}
	}

	expandConfigEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "locomotive")
	v.SetDefault("app.mode", "local")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("artifacts.storage", "artifacts")
	v.SetDefault("artifacts.max_history_runs", 50)

	v.SetDefault("analysis.fail_on", "DEGRADATION")

	v.SetDefault("report.title", "CI Load Test Report")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "locomotive")
	v.SetDefault("database.user", "loco")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.poll_interval", "2s")
	v.SetDefault("server.broadcast_buffer", 64)
}

func isZeroLoad(load LoadConfig) bool {
	return load.Locustfile == "" && load.Host == "" && load.Users == 0 &&
		load.RunTime == "" && len(load.ExtraArgs) == 0
}

// expandConfigEnv resolves ${VAR} and ${VAR:-default} references in the
// values that commonly carry secrets (hosts, headers, tokens) so configs
// can be committed without them.
func expandConfigEnv(cfg *Config) {
	cfg.Load.Host = ExpandEnv(cfg.Load.Host)
	expandHeaderEnv(cfg.Load.Headers)
	expandHeaderEnv(cfg.Scenario.Headers)
	cfg.Scenario.Auth.Token = ExpandEnv(cfg.Scenario.Auth.Token)
	cfg.Database.Password = ExpandEnv(cfg.Database.Password)
	for i := range cfg.Scenario.Requests {
		expandHeaderEnv(cfg.Scenario.Requests[i].Headers)
	}
	for i := range cfg.Scenario.OnStart {
		expandHeaderEnv(cfg.Scenario.OnStart[i].Headers)
	}
}

func expandHeaderEnv(headers map[string]string) {
	for key, value := range headers {
		headers[key] = ExpandEnv(value)
	}
}

// ResolveGateMode applies the gate mode precedence: explicit analysis.mode
// or gate.mode wins; otherwise configured thresholds imply resilience; an
// explicit resilience mode with no thresholds means the gate does not apply.
func ResolveGateMode(analysis AnalysisConfig) (string, GateConfig) {
	gateCfg := analysis.Gate
	mode := normalizeMode(analysis.Mode)
	if mode == "" {
		mode = normalizeMode(gateCfg.Mode)
	}
	hasThresholds := len(gateCfg.Thresholds) > 0
	if mode == "" && hasThresholds {
		mode = ModeResilience
	}
	if mode == ModeResilience && !hasThresholds {
		mode = ""
	}
	return mode, gateCfg
}

func normalizeMode(value string) string {
	text := strings.ToLower(strings.TrimSpace(value))
	if text == ModeResilience || text == ModeAcceptance {
		return text
	}
	return ""
}
