package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "INSIGHT_DIGEST_CONFIG"
	dbPathEnv        = "INSIGHT_DB_PATH"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	openAIBaseURLEnv = "OPENAI_BASE_URL"

	smtpHostEnv     = "SMTP_HOST"
	smtpPortEnv     = "SMTP_PORT"
	smtpUserEnv     = "SMTP_USER"
	smtpPasswordEnv = "SMTP_PASSWORD"
	smtpFromEnv     = "SMTP_FROM"
	emailToEnv      = "EMAIL_TO"

	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

const defaultSystemPrompt = `You are an expert analyst. For each research paper or news item, extract:
1. opportunities: 1-3 short phrases on productization or industry applications.
2. directions: 1-3 short phrases on new methods, architectures, benchmarks, or datasets.
3. innovations: 1-3 short phrases on breakthroughs or reusable ideas vs existing work.

Respond ONLY with a single JSON object of the form:
{"opportunities": ["...", "..."], "directions": ["...", "..."], "innovations": ["...", "..."]}
Use empty lists if nothing relevant. Keep each string concise (under 80 chars).`

// Config holds high-level settings required across the application.
// Precedence: CLI flag > environment > config file > built-in default;
// flags are applied by the caller after Load returns.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// LoggingConfig controls console log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig locates the single local database file.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines how often the in-process scheduler fires.
type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "24h".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AnalyzerConfig defines how to contact the analysis model and how much
// work one run may do.
type AnalyzerConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"apiKey"`
	SystemPrompt    string `yaml:"systemPrompt"`
	MaxItemsPerRun  int    `yaml:"maxItemsPerRun"`
	SummaryMaxChars int    `yaml:"summaryMaxChars"`
}

// DeliveryConfig names the enabled plugins; every other key under delivery
// is that plugin's own configuration block.
type DeliveryConfig struct {
	Plugins  []string                  `yaml:"plugins"`
	Channels map[string]map[string]any `yaml:",inline"`
}

// Channel returns one plugin's configuration block with every value
// normalized to a string. Lists are joined with ", " so delimited fields
// (e.g. recipients) accept both YAML lists and plain strings.
func (d DeliveryConfig) Channel(id string) map[string]string {
	raw := d.Channels[id]
	if len(raw) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		out[key] = stringify(value)
	}
	return out
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (d *DeliveryConfig) setChannelKey(plugin, key, value string) {
	if d.Channels == nil {
		d.Channels = map[string]map[string]any{}
	}
	if d.Channels[plugin] == nil {
		d.Channels[plugin] = map[string]any{}
	}
	d.Channels[plugin][key] = value
}

// SourceConfig describes a single source with its scanner strategy.
type SourceConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	Enabled    *bool             `yaml:"enabled"`
	Categories []CategoryConfig  `yaml:"categories"`
	MaxResults int               `yaml:"maxResults"`
	Options    map[string]string `yaml:"options"`
}

// IsEnabled treats an absent enabled flag as on.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// CategoryConfig holds one category to pull (name for API queries, URL for
// listing scanners).
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. An explicit path wins over the config-path environment
// variable; missing or broken files fall back to defaults with a notice.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dbPathEnv); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Analyzer.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.Analyzer.Model = v
	}
	if v := os.Getenv(openAIBaseURLEnv); v != "" {
		c.Analyzer.Endpoint = v
	}

	emailKeys := map[string]string{
		smtpHostEnv:     "smtpHost",
		smtpPortEnv:     "smtpPort",
		smtpUserEnv:     "smtpUser",
		smtpPasswordEnv: "smtpPassword",
		smtpFromEnv:     "smtpFrom",
		emailToEnv:      "to",
	}
	for env, key := range emailKeys {
		if v := os.Getenv(env); v != "" {
			c.Delivery.setChannelKey("email", key, v)
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Delivery.setChannelKey("telegram", "botToken", v)
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Delivery.setChannelKey("telegram", "chatId", v)
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Storage.Path != "" {
		base.Storage = override.Storage
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler = override.Scheduler
	}

	if override.Analyzer.Endpoint != "" {
		base.Analyzer.Endpoint = override.Analyzer.Endpoint
	}
	if override.Analyzer.Model != "" {
		base.Analyzer.Model = override.Analyzer.Model
	}
	if override.Analyzer.APIKey != "" {
		base.Analyzer.APIKey = override.Analyzer.APIKey
	}
	if override.Analyzer.SystemPrompt != "" {
		base.Analyzer.SystemPrompt = override.Analyzer.SystemPrompt
	}
	if override.Analyzer.MaxItemsPerRun > 0 {
		base.Analyzer.MaxItemsPerRun = override.Analyzer.MaxItemsPerRun
	}
	if override.Analyzer.SummaryMaxChars > 0 {
		base.Analyzer.SummaryMaxChars = override.Analyzer.SummaryMaxChars
	}

	if len(override.Delivery.Plugins) > 0 {
		base.Delivery.Plugins = override.Delivery.Plugins
	}
	for id, channel := range override.Delivery.Channels {
		if base.Delivery.Channels == nil {
			base.Delivery.Channels = map[string]map[string]any{}
		}
		base.Delivery.Channels[id] = channel
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Storage:   StorageConfig{Path: "data/insight.db"},
		Scheduler: SchedulerConfig{Interval: Duration(24 * time.Hour)},
		Analyzer: AnalyzerConfig{
			Endpoint:        "https://api.openai.com/v1/chat/completions",
			Model:           "gpt-4o-mini",
			APIKey:          "",
			SystemPrompt:    defaultSystemPrompt,
			MaxItemsPerRun:  30,
			SummaryMaxChars: 500,
		},
		Delivery: DeliveryConfig{Plugins: nil},
		Sources: []SourceConfig{
			{
				Name:    "arxiv",
				Scanner: "arxiv",
				Categories: []CategoryConfig{
					{Name: "cs.AI"},
					{Name: "cs.LG"},
					{Name: "cs.CL"},
				},
				MaxResults: 50,
			},
		},
	}
}
