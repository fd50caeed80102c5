// Package config handles configuration loading for the deskmind
// reasoning core. It supports XDG config paths, project-level
// overrides, and environment variables, the same way the teacher
// repo's own config package layers them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the reasoning-and-planning core.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Workspace  WorkspaceConfig  `mapstructure:"workspace"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

// AnthropicConfig holds Anthropic API / Bedrock settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
}

// ClassifierConfig holds QueryClassifier tuning.
type ClassifierConfig struct {
	// EnableSyntacticPhase is loaded and printed by the config command,
	// but the classifier does not read it: the deterministic pattern
	// scan always runs before any LLM call.
	EnableSyntacticPhase bool   `mapstructure:"enable_syntactic_phase"`
	FallbackModel        string `mapstructure:"fallback_model"`
}

// ResolverConfig holds ToolResolver tuning. ExtraAllowedDomains is
// loaded from the config file but is not passed to the resolver; the
// domains Stage 2 may fall back into come only from the resolver's
// built-in tables.
type ResolverConfig struct {
	ConfidenceThreshold   float64             `mapstructure:"confidence_threshold"`
	DomainMismatchPenalty float64             `mapstructure:"domain_mismatch_penalty"`
	ExtraAllowedDomains   map[string][]string `mapstructure:"extra_allowed_domains"`
}

// WorkspaceConfig holds the session cwd captured once at request
// start — the WORKSPACE base anchor PathResolver uses. It is never
// re-derived from a live process cwd mid-request.
type WorkspaceConfig struct {
	Root string `mapstructure:"root"`
}

// TimeoutsConfig holds per-stage deadlines.
type TimeoutsConfig struct {
	Classification time.Duration `mapstructure:"classification"`
	Interpretation time.Duration `mapstructure:"interpretation"`
	Resolution     time.Duration `mapstructure:"resolution"`
	ToolCall       time.Duration `mapstructure:"tool_call"`
}

// AuditConfig holds the plan-execution audit log settings.
type AuditConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
//  1. Environment variables (ANTHROPIC_API_KEY, ...)
//  2. Project config (.deskmind.yaml in cwd or an ancestor)
//  3. User config (~/.config/deskmind/config.yaml)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	userDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	if cfg.Workspace.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.Workspace.Root = wd
		}
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path, for testing.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	userDir := getUserConfigDir()
	if err := os.MkdirAll(userDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userDir, "config.yaml")
	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("classifier.enable_syntactic_phase", cfg.Classifier.EnableSyntacticPhase)
	v.Set("classifier.fallback_model", cfg.Classifier.FallbackModel)
	v.Set("resolver.confidence_threshold", cfg.Resolver.ConfidenceThreshold)
	v.Set("resolver.domain_mismatch_penalty", cfg.Resolver.DomainMismatchPenalty)
	v.Set("workspace.root", cfg.Workspace.Root)
	v.Set("timeouts.classification", cfg.Timeouts.Classification.String())
	v.Set("timeouts.interpretation", cfg.Timeouts.Interpretation.String())
	v.Set("timeouts.resolution", cfg.Timeouts.Resolution.String())
	v.Set("timeouts.tool_call", cfg.Timeouts.ToolCall.String())
	v.Set("audit.db_path", cfg.Audit.DBPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project override file,
// if one exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// WatchReload watches the directory holding path and, whenever that
// file is written or created, calls Load and hands the whole new
// Config to onReload; every field is reloaded, resolver settings
// included, and which of them take effect is up to onReload. Load
// reads its usual locations, so path only selects which file's
// changes trigger a reload. A failed Load is skipped.
func WatchReload(path string, onReload func(*Config)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}
	go func() {
		for event := range watcher.Events {
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if cfg, err := Load(); err == nil {
				onReload(cfg)
			}
		}
	}()
	return watcher, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("classifier.enable_syntactic_phase", true)
	v.SetDefault("classifier.fallback_model", "claude-haiku-4-5-20251001")

	v.SetDefault("resolver.confidence_threshold", 0.7)
	v.SetDefault("resolver.domain_mismatch_penalty", 0.15)

	v.SetDefault("timeouts.classification", "5s")
	v.SetDefault("timeouts.interpretation", "15s")
	v.SetDefault("timeouts.resolution", "10s")
	v.SetDefault("timeouts.tool_call", "30s")

	v.SetDefault("audit.db_path", filepath.Join(getUserConfigDir(), "audit.db"))
}

// getUserConfigDir returns the XDG config directory for deskmind.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "deskmind")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "deskmind")
	}
	return filepath.Join(home, ".config", "deskmind")
}

// findProjectConfig searches for .deskmind.yaml in the current
// directory and its parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ".deskmind.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config populated with built-in defaults, useful
// for tests that should not touch the filesystem.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{Model: "claude-sonnet-4-5-20250929"},
		Classifier: ClassifierConfig{
			EnableSyntacticPhase: true,
			FallbackModel:        "claude-haiku-4-5-20251001",
		},
		Resolver: ResolverConfig{
			ConfidenceThreshold:   0.7,
			DomainMismatchPenalty: 0.15,
		},
		Timeouts: TimeoutsConfig{
			Classification: 5 * time.Second,
			Interpretation: 15 * time.Second,
			Resolution:     10 * time.Second,
			ToolCall:       30 * time.Second,
		},
	}
}
