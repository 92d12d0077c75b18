package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Token     string         `yaml:"token"`
	GuildID   string         `yaml:"guild_id"`
	Prefix    string         `yaml:"prefix"`
	LogLevel  string         `yaml:"log_level"`
	DataDir   string         `yaml:"data_dir"`
	AssetsDir string         `yaml:"assets_dir"`
	Modmail   ModmailConfig  `yaml:"modmail"`
	Roles     RolesConfig    `yaml:"roles"`
	Channels  ChannelsConfig `yaml:"channels"`
}

type ModmailConfig struct {
	CategoryID   string `yaml:"category_id"`
	StaffMention string `yaml:"staff_mention"`
}

type RolesConfig struct {
	Moderator    []string `yaml:"moderator"`
	Admin        []string `yaml:"admin"`
	Servicer     []string `yaml:"servicer"`
	Muted        string   `yaml:"muted"`
	ActivityPing string   `yaml:"activity_ping"`
}

type ChannelsConfig struct {
	Welcome  string `yaml:"welcome"`
	Rules    string `yaml:"rules"`
	TextLog  string `yaml:"text_log"`
	ImageLog string `yaml:"image_log"`
}

func DefaultConfig() Config {
	return Config{
		Prefix:    "!",
		LogLevel:  "info",
		DataDir:   "data",
		AssetsDir: "assets",
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Token = envString("DISCORD_TOKEN", cfg.Token)
	cfg.GuildID = envString("GUILD_ID", cfg.GuildID)
	cfg.Prefix = envString("COMMAND_PREFIX", cfg.Prefix)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.AssetsDir = envString("ASSETS_DIR", cfg.AssetsDir)
	cfg.Modmail.CategoryID = envString("MODMAIL_CATEGORY_ID", cfg.Modmail.CategoryID)
	cfg.Modmail.StaffMention = envString("MODMAIL_STAFF_MENTION", cfg.Modmail.StaffMention)
	cfg.Roles.Moderator = envStringList("MODERATOR_ROLE_IDS", cfg.Roles.Moderator)
	cfg.Roles.Admin = envStringList("ADMIN_ROLE_IDS", cfg.Roles.Admin)
	cfg.Roles.Servicer = envStringList("SERVICER_ROLE_IDS", cfg.Roles.Servicer)
	cfg.Roles.Muted = envString("MUTED_ROLE_ID", cfg.Roles.Muted)
	cfg.Roles.ActivityPing = envString("ACTIVITY_PING_ROLE_ID", cfg.Roles.ActivityPing)
	cfg.Channels.Welcome = envString("WELCOME_CHANNEL_ID", cfg.Channels.Welcome)
	cfg.Channels.Rules = envString("RULES_CHANNEL_ID", cfg.Channels.Rules)
	cfg.Channels.TextLog = envString("TEXT_LOG_CHANNEL_ID", cfg.Channels.TextLog)
	cfg.Channels.ImageLog = envString("IMAGE_LOG_CHANNEL_ID", cfg.Channels.ImageLog)
}

func validate(cfg Config) error {
	var missing []string
	if cfg.Token == "" {
		missing = append(missing, "token")
	}
	if cfg.GuildID == "" {
		missing = append(missing, "guild_id")
	}
	if cfg.Modmail.CategoryID == "" {
		missing = append(missing, "modmail.category_id")
	}
	if cfg.Channels.TextLog == "" {
		missing = append(missing, "channels.text_log")
	}
	if len(cfg.Roles.Moderator) == 0 && len(cfg.Roles.Admin) == 0 {
		missing = append(missing, "roles.moderator or roles.admin")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envStringList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
