package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Ai        AiConfig        `mapstructure:"ai"`
	Notion    NotionConfig    `mapstructure:"notion"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Reminder  ReminderConfig  `mapstructure:"reminder"`
}

// Telegram bot configuration
type BotConfig struct {
	Token          string        `mapstructure:"token"`
	Mode           string        `mapstructure:"mode"` // "polling" or "webhook"
	AllowedUserIDs []int64       `mapstructure:"allowed_user_ids"`
	Webhook        WebhookConfig `mapstructure:"webhook"`
}

// webhook server configuration
type WebhookConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	ListenPort string `mapstructure:"listen_port"`
	DebugPath  string `mapstructure:"debug_path"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// reasoning backend configuration
type AiConfig struct {
	GeminiApiKey    string `mapstructure:"gemini_api_key"`
	GeminiModel     string `mapstructure:"gemini_model"`
	TranscribeModel string `mapstructure:"transcribe_model"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// Notion workspace configuration
type NotionConfig struct {
	Token           string `mapstructure:"token"`
	ParentPageID    string `mapstructure:"parent_page_id"`
	WorkspacePageID string `mapstructure:"workspace_page_id"`
	TasksDBID       string `mapstructure:"tasks_db_id"`
	ProjectsDBID    string `mapstructure:"projects_db_id"`
	AccessPhrase    string `mapstructure:"access_phrase"`
}

// logging configuration
type LoggerConfig struct {
	Directory string            `mapstructure:"directory"`
	Rotation  LogRotationConfig `mapstructure:"rotation"`
	Level     string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "sqlite" or "mysql"
	Path     string `mapstructure:"path"`   // sqlite database file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// confirmation workflow settings
type AssistantConfig struct {
	ProposalTTLMinutes int `mapstructure:"proposal_ttl_minutes"`
	HistoryTurns       int `mapstructure:"history_turns"`
}

// reminder scheduler settings
type ReminderConfig struct {
	TickSeconds     int    `mapstructure:"tick_seconds"`
	DefaultTimezone string `mapstructure:"default_timezone"`
	MaxFailures     int    `mapstructure:"max_failures"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	// Unmarshal configuration
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

// Validate checks required settings; a missing one stops startup before any
// message is processed.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot.token is required")
	}
	if c.Ai.GeminiApiKey == "" {
		return fmt.Errorf("ai.gemini_api_key is required")
	}
	if c.Notion.Token == "" {
		return fmt.Errorf("notion.token is required")
	}
	if c.Notion.ParentPageID == "" {
		return fmt.Errorf("notion.parent_page_id is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"mysql\", got %q", c.Database.Driver)
	}
	if c.Bot.Mode == "webhook" && c.Bot.Webhook.Endpoint == "" {
		return fmt.Errorf("bot.webhook.endpoint is required in webhook mode")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.webhook.listen_port", "8443")
	v.SetDefault("bot.webhook.debug_path", "/debug")
	v.SetDefault("bot.webhook.cert_file", "")
	v.SetDefault("bot.webhook.key_file", "")

	v.SetDefault("ai.gemini_model", "gemini-2.0-flash")
	v.SetDefault("ai.transcribe_model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 60)

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/coo-bot.db")
	v.SetDefault("database.charset", "utf8mb4")

	v.SetDefault("assistant.proposal_ttl_minutes", 15)
	v.SetDefault("assistant.history_turns", 12)

	v.SetDefault("reminder.tick_seconds", 30)
	v.SetDefault("reminder.default_timezone", "Local")
	v.SetDefault("reminder.max_failures", 5)
}
