package internal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	RiotAPIKey     string
	RiotRegion     string
	RiotRegionWide string
	RiotBaseURL    string
	RiotAccountURL string

	DiscordToken     string
	DiscordGuildID   string
	DiscordChannelID string
	DiscordAPIURL    string
	BotStatus        string
	HelpChannel      string
	LocaleFile       string

	SchedulerMaxConcurrent int
	SchedulerMinTime       time.Duration

	RateLimitEnabled     bool
	RateLimitRedisPrefix string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheEnabled  bool

	StorageDriver    string
	SQLitePath       string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	NATSEnabled  bool
	NATSUrl      string
	NATSClientID string

	AppPort  string
	AppEnv   string
	LogLevel string
}

func LoadConfig() (*Config, error) {
	// a missing .env is fine, the environment may already carry everything
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnvDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid REDIS_DB value")
	}

	maxConcurrent, err := strconv.Atoi(getEnvDefault("SCHEDULER_MAX_CONCURRENT", "1"))
	if err != nil || maxConcurrent < 1 {
		return nil, errors.New("invalid SCHEDULER_MAX_CONCURRENT value")
	}

	minTime, err := time.ParseDuration(getEnvDefault("SCHEDULER_MIN_TIME", "50ms"))
	if err != nil || minTime < 0 {
		return nil, errors.New("invalid SCHEDULER_MIN_TIME value")
	}

	region := strings.ToLower(getEnvDefault("RIOT_REGION", "euw1"))

	cfg := &Config{
		RiotAPIKey:     os.Getenv("RIOT_API_KEY"),
		RiotRegion:     region,
		RiotRegionWide: strings.ToLower(getEnvDefault("RIOT_REGION_WIDE", regionWideFor(region))),
		RiotBaseURL:    os.Getenv("RIOT_BASE_URL"),
		RiotAccountURL: os.Getenv("RIOT_ACCOUNT_URL"),

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID:   os.Getenv("DISCORD_GUILD_ID"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		DiscordAPIURL:    getEnvDefault("DISCORD_API_URL", "https://discord.com/api/v10"),
		BotStatus:        getEnvDefault("BOT_STATUS", "/rank"),
		HelpChannel:      getEnvDefault("HELP_CHANNEL", "#help"),
		LocaleFile:       os.Getenv("LOCALE_FILE"),

		SchedulerMaxConcurrent: maxConcurrent,
		SchedulerMinTime:       minTime,

		RateLimitEnabled:     getBoolEnvDefault("RATE_LIMIT_ENABLED", true),
		RateLimitRedisPrefix: getEnvDefault("RATE_LIMIT_REDIS_PREFIX", "rankbot:ratelimit"),

		RedisHost:     getEnvDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		CacheEnabled:  getBoolEnvDefault("CACHE_ENABLED", true),

		StorageDriver:    getEnvDefault("STORAGE_DRIVER", "sqlite3"),
		SQLitePath:       getEnvDefault("SQLITE_PATH", "rankbot.db"),
		PostgresHost:     getEnvDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvDefault("POSTGRES_PORT", "5432"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresSSLMode:  getEnvDefault("POSTGRES_SSL_MODE", "disable"),

		NATSEnabled:  getBoolEnvDefault("NATS_ENABLED", false),
		NATSUrl:      getEnvDefault("NATS_URL", "nats://localhost:4222"),
		NATSClientID: getEnvDefault("NATS_CLIENT_ID", "rankbot"),

		AppPort:  getEnvDefault("APP_PORT", "8000"),
		AppEnv:   getEnvDefault("APP_ENV", "development"),
		LogLevel: getEnvDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"RIOT_API_KEY", c.RiotAPIKey},
		{"DISCORD_TOKEN", c.DiscordToken},
		{"DISCORD_GUILD_ID", c.DiscordGuildID},
		{"DISCORD_CHANNEL_ID", c.DiscordChannelID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	switch c.StorageDriver {
	case "sqlite3":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when storage driver is sqlite3")
		}
	case "postgres":
		if c.PostgresUser == "" {
			return errors.New("POSTGRES_USER is required when storage driver is postgres")
		}
		if c.PostgresDB == "" {
			return errors.New("POSTGRES_DB is required when storage driver is postgres")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// ProviderHost is the regional platform host, e.g. https://euw1.api.riotgames.com.
func (c *Config) ProviderHost() string {
	if c.RiotBaseURL != "" {
		return strings.TrimRight(c.RiotBaseURL, "/")
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", c.RiotRegion)
}

// AccountHost is the region-wide routing host used by the account API.
func (c *Config) AccountHost() string {
	if c.RiotAccountURL != "" {
		return strings.TrimRight(c.RiotAccountURL, "/")
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", c.RiotRegionWide)
}

func regionWideFor(region string) string {
	switch strings.ToUpper(region) {
	case "BR1", "LA1", "LA2", "NA1":
		return "americas"
	case "EUW1", "EUN1", "TR1", "RU", "ME1":
		return "europe"
	case "JP1", "KR":
		return "asia"
	case "OC1", "PH2", "SG2", "TH2", "TW2", "VN2":
		return "sea"
	default:
		return "europe"
	}
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBoolEnvDefault(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
