package breathe

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	BotTokenKey          = "BREATHE_BOT_TOKEN"
	BotNameKey           = "BREATHE_BOT_NAME"
	DatabaseURLKey       = "BREATHE_DB_PATH"
	TrackPathKey         = "BREATHE_TRACK_PATH"
	ThemeKey             = "BREATHE_THEME"
	BackgroundKey        = "BREATHE_BACKGROUND"
	RenderIntervalKey    = "BREATHE_RENDER_INTERVAL"
	ExcludePausedTimeKey = "BREATHE_EXCLUDE_PAUSED_TIME"
	LogLevelKey          = "BREATHE_LOG_LEVEL"
	GuildIDKey           = "BREATHE_GUILD_ID"
)

type Config struct {
	DatabaseURL string
	BotName     string
	BotToken    string
	GuildID     string

	//
	TrackPath         string
	Theme             Theme
	RenderInterval    time.Duration
	ExcludePausedTime bool
	LogLevel          log.Level
}

// LoadConfig reads .env (prod) or .env.dev into the environment, then the environment into Config.
func LoadConfig(isProd bool) (Config, error) {
	if isProd {
		_ = godotenv.Load(".env")
	} else {
		_ = godotenv.Load(".env.dev")
	}
	return configFromEnv(os.Getenv, isProd)
}

func configFromEnv(getenv func(string) string, isProd bool) (Config, error) {
	cfg := Config{
		DatabaseURL:    getenv(DatabaseURLKey),
		BotName:        getenv(BotNameKey),
		BotToken:       getenv(BotTokenKey),
		GuildID:        getenv(GuildIDKey),
		TrackPath:      getenv(TrackPathKey),
		RenderInterval: 5 * time.Second,
		LogLevel:       log.DebugLevel,
	}
	if isProd {
		cfg.LogLevel = log.InfoLevel
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("required environment variable: %s", BotTokenKey)
	}
	if cfg.BotName == "" {
		cfg.BotName = "Breathe"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "breathe.db"
	}

	scheme, err := ParseColorScheme(getenv(ThemeKey))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", ThemeKey, err)
	}
	cfg.Theme = Theme{Scheme: scheme, Background: getenv(BackgroundKey)}
	if cfg.Theme.Background != "" {
		if err := ValidateHexColor(cfg.Theme.Background); err != nil {
			return Config{}, fmt.Errorf("%s: %w", BackgroundKey, err)
		}
	}

	if v := getenv(RenderIntervalKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", RenderIntervalKey, err)
		}
		if d < time.Second {
			return Config{}, fmt.Errorf("%s must be at least 1s, got %s", RenderIntervalKey, d)
		}
		cfg.RenderInterval = d
	}

	if v := getenv(ExcludePausedTimeKey); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", ExcludePausedTimeKey, err)
		}
		cfg.ExcludePausedTime = b
	}

	if v := getenv(LogLevelKey); v != "" {
		lvl, err := log.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", LogLevelKey, err)
		}
		cfg.LogLevel = lvl
	}

	return cfg, nil
}
