package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/serverwatch/fivewatch/internal/models"
)

// DefaultAPIBase is the FiveM single-server status endpoint. The server id
// is appended as the final path segment.
const DefaultAPIBase = "https://servers-frontend.fivem.net/api/servers/single/"

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	LogLevel       string
	DatabasePath   string
	CacheDir       string // one raw snapshot file per tracked server
	PlayerIndex    string // path of the player index file
	APIBase        string
	FetchTimeout   time.Duration
	RoundInterval  time.Duration // sleep between full polling rounds
	ServerDelay    time.Duration // sleep between servers within one round
	EventRetention time.Duration // events older than this are pruned

	DiscordToken   string // empty disables the Discord notifier
	DiscordChannel string // fallback channel for servers without their own

	Servers []models.TrackedServer
}

// Load loads configuration from environment variables or sets defaults. A
// .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := &Config{
		ServerPort:     port,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabasePath:   getEnv("DATABASE_PATH", "./fivewatch.db"),
		CacheDir:       getEnv("CACHE_DIR", "./cache"),
		PlayerIndex:    getEnv("PLAYER_INDEX_PATH", "./players.json"),
		APIBase:        getEnv("API_BASE", DefaultAPIBase),
		DiscordToken:   getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordChannel: getEnv("DISCORD_CHANNEL_ID", ""),
	}

	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RoundInterval, err = getDuration("ROUND_INTERVAL", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.ServerDelay, err = getDuration("SERVER_DELAY", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.EventRetention, err = getDuration("EVENT_RETENTION", 30*24*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.loadServers(getEnv("SERVERS", "")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadServers parses the SERVERS variable, a JSON array of tracked servers:
//
//	[{"id":"ykv8z5","displayName":"erp","channelId":"8474..."}]
//
// Servers without a channel id fall back to the global Discord channel.
func (c *Config) loadServers(raw string) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &c.Servers); err != nil {
		return fmt.Errorf("invalid SERVERS: %w", err)
	}
	for i := range c.Servers {
		if c.Servers[i].ID == "" {
			return fmt.Errorf("SERVERS entry %d has no id", i)
		}
		if c.Servers[i].DisplayName == "" {
			c.Servers[i].DisplayName = c.Servers[i].ID
		}
		if c.Servers[i].ChannelID == "" {
			c.Servers[i].ChannelID = c.DiscordChannel
		}
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
