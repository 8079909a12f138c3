package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Locale LocaleConfig `yaml:"locale" mapstructure:"locale"`
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	Week   WeekConfig   `yaml:"week" mapstructure:"week"`
}

type ServerConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Env  string `yaml:"env" mapstructure:"env"`
}

// StoreConfig selects the persistence backend: "mongo" or "sqlite".
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	MongoURI      string `yaml:"mongo_uri" mapstructure:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database" mapstructure:"mongo_database"`
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type LocaleConfig struct {
	Default string `yaml:"default" mapstructure:"default"`
}

// NotifyConfig posts lifecycle notices to a Mattermost channel when all
// fields are set.
type NotifyConfig struct {
	MattermostURL string `yaml:"mattermost_url" mapstructure:"mattermost_url"`
	BotToken      string `yaml:"bot_token" mapstructure:"bot_token"`
	ChannelID     string `yaml:"channel_id" mapstructure:"channel_id"`
}

func (n NotifyConfig) Enabled() bool {
	return n.MattermostURL != "" && n.BotToken != "" && n.ChannelID != ""
}

type WeekConfig struct {
	// ShiftOffsetWeeks is how many weeks ahead of today the production week lies.
	ShiftOffsetWeeks int `yaml:"shift_offset_weeks" mapstructure:"shift_offset_weeks"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BALBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.env", "development")
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "bal_board")
	v.SetDefault("store.sqlite_path", "bal-board.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("locale.default", "fr")
	v.SetDefault("notify.mattermost_url", "")
	v.SetDefault("notify.bot_token", "")
	v.SetDefault("notify.channel_id", "")
	v.SetDefault("week.shift_offset_weeks", 1)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Notify.MattermostURL = strings.TrimRight(cfg.Notify.MattermostURL, "/")

	return &cfg, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mongo":
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return eris.New("config: store.mongo_uri and store.mongo_database are required")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return eris.New("config: store.sqlite_path is required")
		}
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Week.ShiftOffsetWeeks < 0 {
		return eris.Errorf("config: invalid week.shift_offset_weeks %d", c.Week.ShiftOffsetWeeks)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
