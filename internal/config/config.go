// Package config loads and hot-reloads assistantd's YAML configuration,
// following the shape and XDG-path conventions of the teacher repo's own
// config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appDirName = "assistantd"

// Config is the full set of tunables read from assistantd's config file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Context   ContextConfig   `yaml:"context"`
	Screen    ScreenConfig    `yaml:"screen"`
	LLM       LLMConfig       `yaml:"llm"`
	Proactivity int           `yaml:"proactivity_level"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AuthToken      string   `yaml:"auth_token"`
	MaxConnections int      `yaml:"max_connections"`
}

// ScheduleConfig holds the interval/cron tunables for every background job.
type ScheduleConfig struct {
	UserTimezone                   string `yaml:"user_timezone"`
	WorkingHoursStart              int    `yaml:"working_hours_start"`
	WorkingHoursEnd                int    `yaml:"working_hours_end"`
	MorningBriefingHour            int    `yaml:"morning_briefing_hour"`
	EveningReviewHour              int    `yaml:"evening_review_hour"`
	ActivityDigestHour             int    `yaml:"activity_digest_hour"`
	WeeklyReviewHour               int    `yaml:"weekly_review_hour"`
	MemoryConsolidationIntervalMin int    `yaml:"memory_consolidation_interval_min"`
	GoalCheckIntervalHours         int    `yaml:"goal_check_interval_hours"`
	CalendarScanIntervalMin        int    `yaml:"calendar_scan_interval_min"`
	StrategistIntervalMin          int    `yaml:"strategist_interval_min"`
}

// TimeoutConfig holds the per-job LLM-call bounds (§5/§6 of the
// specification: these are suspension points and must be bounded).
type TimeoutConfig struct {
	AgentChatTimeout       time.Duration `yaml:"agent_chat_timeout"`
	AgentBriefingTimeout   time.Duration `yaml:"agent_briefing_timeout"`
	AgentStrategistTimeout time.Duration `yaml:"agent_strategist_timeout"`
	ConsolidationLLMTimeout time.Duration `yaml:"consolidation_llm_timeout"`
}

type ContextConfig struct {
	ContextWindowTokenBudget int `yaml:"context_window_token_budget"`
	ContextWindowKeepFirst   int `yaml:"context_window_keep_first"`
	ContextWindowKeepRecent  int `yaml:"context_window_keep_recent"`
}

type ScreenConfig struct {
	RetentionDays int    `yaml:"screen_observation_retention_days"`
	DatabasePath  string `yaml:"database_path"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "127.0.0.1",
			MaxConnections: 1000,
		},
		Schedule: ScheduleConfig{
			UserTimezone:                    "UTC",
			WorkingHoursStart:               9,
			WorkingHoursEnd:                 17,
			MorningBriefingHour:             8,
			EveningReviewHour:               21,
			ActivityDigestHour:              18,
			WeeklyReviewHour:                18,
			MemoryConsolidationIntervalMin:  30,
			GoalCheckIntervalHours:          4,
			CalendarScanIntervalMin:         15,
			StrategistIntervalMin:           15,
		},
		Timeouts: TimeoutConfig{
			AgentChatTimeout:        120 * time.Second,
			AgentBriefingTimeout:    60 * time.Second,
			AgentStrategistTimeout:  60 * time.Second,
			ConsolidationLLMTimeout: 30 * time.Second,
		},
		Context: ContextConfig{
			ContextWindowTokenBudget: 8000,
			ContextWindowKeepFirst:   2,
			ContextWindowKeepRecent:  10,
		},
		Screen: ScreenConfig{
			RetentionDays: 30,
			DatabasePath:  filepath.Join(defaultStateDir(), appDirName, "assistant.db"),
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
		},
		Proactivity: 3,
	}
}

// Load reads and parses the config file at path, defaults-filling any
// section the file omits.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Screen.DatabasePath == "" {
		cfg.Screen.DatabasePath = filepath.Join(defaultStateDir(), appDirName, "assistant.db")
	}

	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the default config if
// the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return Load(path)
}

func defaultStateDir() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state")
}

func defaultConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// DefaultConfigPath returns the default XDG-compliant config file path.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), appDirName, "config.yaml")
}

// Diff compares two configs and describes what changed, restricted to
// fields it is safe to hot-swap at runtime (schedule timings, timeouts,
// proactivity level, screen retention days). Server-level fields require
// a restart and are not compared here.
func Diff(old, next *Config) []string {
	var changes []string

	if old.Schedule != next.Schedule {
		changes = append(changes, fmt.Sprintf("schedule: %+v -> %+v", old.Schedule, next.Schedule))
	}
	if old.Timeouts != next.Timeouts {
		changes = append(changes, fmt.Sprintf("timeouts: %+v -> %+v", old.Timeouts, next.Timeouts))
	}
	if old.Proactivity != next.Proactivity {
		changes = append(changes, fmt.Sprintf("proactivity_level: %d -> %d", old.Proactivity, next.Proactivity))
	}
	if old.Screen.RetentionDays != next.Screen.RetentionDays {
		changes = append(changes, fmt.Sprintf("screen.retention_days: %d -> %d", old.Screen.RetentionDays, next.Screen.RetentionDays))
	}

	return changes
}
