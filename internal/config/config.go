package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel            = "claude-sonnet-4-5-20250929"
	DefaultGitHubUsername   = "HayatoShimada"
	DefaultTimezone         = "Asia/Tokyo"
	DefaultScheduleTime     = "07:00"
	DefaultMaxTokens        = 4096
	DefaultMaxContinuations = 5
	DefaultWebSearchMaxUses = 5
	DefaultHTTPTimeoutSecs  = 30
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	AnthropicAPIKey  string `yaml:"-"`
	NotionToken      string `yaml:"-"`
	NotionDatabaseID string `yaml:"-"`
	GitHubToken      string `yaml:"-"`
	GitLabToken      string `yaml:"-"`

	GitHubUsername   string `yaml:"github_username"`
	GitLabBaseURL    string `yaml:"gitlab_base_url"`
	Model            string `yaml:"model"`
	MaxTokens        int    `yaml:"max_tokens"`
	MaxContinuations int    `yaml:"max_continuations"`
	WebSearchMaxUses int    `yaml:"web_search_max_uses"`
	Timezone         string `yaml:"timezone"`
	ScheduleTime     string `yaml:"schedule_time"`
	HTTPTimeoutSecs  int    `yaml:"http_timeout_secs"`
	PushgatewayURL   string `yaml:"pushgateway_url"`
	LogLevel         string `yaml:"log_level"`

	location *time.Location
}

// ErrMissing is returned when a required credential is not set.
var ErrMissing = errors.New("required configuration missing")

var scheduleTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load builds the configuration from the optional YAML file named by
// DEVDIGEST_CONFIG and the process environment. Environment values win.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	// Numeric defaults are set before the file is read so an explicit 0 there
	// stays 0 and reaches validation.
	cfg := &Config{
		MaxTokens:        DefaultMaxTokens,
		MaxContinuations: DefaultMaxContinuations,
		WebSearchMaxUses: DefaultWebSearchMaxUses,
		HTTPTimeoutSecs:  DefaultHTTPTimeoutSecs,
	}

	if path := getenv("DEVDIGEST_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	applyEnvironment(cfg, getenv)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvironment(cfg *Config, getenv func(string) string) {
	cfg.AnthropicAPIKey = getenv("ANTHROPIC_API_KEY")
	cfg.NotionToken = getenv("NOTION_TOKEN")
	cfg.NotionDatabaseID = getenv("NOTION_DATABASE_ID")
	cfg.GitHubToken = getenv("GITHUB_TOKEN")
	cfg.GitLabToken = getenv("GITLAB_TOKEN")

	overrides := map[string]*string{
		"TARGET_GITHUB_USERNAME": &cfg.GitHubUsername,
		"GITLAB_BASE_URL":        &cfg.GitLabBaseURL,
		"PUSHGATEWAY_URL":        &cfg.PushgatewayURL,
		"LOG_LEVEL":              &cfg.LogLevel,
		"DIGEST_TIMEZONE":        &cfg.Timezone,
	}
	for key, field := range overrides {
		if v := getenv(key); v != "" {
			*field = v
		}
	}
}

// applyDefaults fills string settings left empty by the file and environment.
func applyDefaults(cfg *Config) {
	if cfg.GitHubUsername == "" {
		cfg.GitHubUsername = DefaultGitHubUsername
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.ScheduleTime == "" {
		cfg.ScheduleTime = DefaultScheduleTime
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func validate(cfg *Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"ANTHROPIC_API_KEY", cfg.AnthropicAPIKey},
		{"NOTION_TOKEN", cfg.NotionToken},
		{"NOTION_DATABASE_ID", cfg.NotionDatabaseID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s must be set", ErrMissing, r.name)
		}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	if !scheduleTimeRegex.MatchString(cfg.ScheduleTime) {
		return fmt.Errorf("schedule_time must be in HH:MM format (00:00-23:59), got %q", cfg.ScheduleTime)
	}
	if cfg.MaxContinuations < 0 {
		return fmt.Errorf("max_continuations must not be negative, got %d", cfg.MaxContinuations)
	}
	positive := []struct {
		name  string
		value int
	}{
		{"max_tokens", cfg.MaxTokens},
		{"web_search_max_uses", cfg.WebSearchMaxUses},
		{"http_timeout_secs", cfg.HTTPTimeoutSecs},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	return nil
}

// Location returns the timezone used for the digest date.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// HTTPTimeout is the per-call timeout for the activity and database APIs.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSecs) * time.Second
}

// ScheduleClock returns the hour and minute of the daily schedule.
func (c *Config) ScheduleClock() (int, int) {
	m := scheduleTimeRegex.FindStringSubmatch(c.ScheduleTime)
	if len(m) != 3 {
		return 0, 0
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return hour, minute
}
