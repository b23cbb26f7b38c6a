package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Zync      ZyncConfig
	Bridge    BridgeConfig
	Sim       SimConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Archive   ArchiveConfig
}

type ZyncConfig struct {
	BaseURL        string
	Token          string
	TokenPath      string
	BackendVersion int
	Timeout        int // seconds
	PvmAck         bool
	WorkDir        string
}

// IsV2 reports whether the account is served by the v2 backend.
func (c ZyncConfig) IsV2() bool {
	return c.BackendVersion == 2
}

type BridgeConfig struct {
	URL     string
	Timeout int // seconds
	Fixture string
}

type SimConfig struct {
	Port         string
	Env          string
	LogLevel     string
	JWTSecret    string
	TokenTTL     int // hours
	FrameDelayMs int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	SubmitsPerHour int
}

type ArchiveConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	LocalDir        string
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("ZYNC_TOKEN")
	readSecret("SIM_JWT_SECRET")
	readSecret("REDIS_PASSWORD")
	readSecret("ARCHIVE_ACCESS_KEY_ID")
	readSecret("ARCHIVE_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("zync.api_url", "ZYNC_API_URL")
	_ = viper.BindEnv("zync.token", "ZYNC_TOKEN")
	_ = viper.BindEnv("zync.token_path", "ZYNC_TOKEN_PATH")
	_ = viper.BindEnv("zync.backend_version", "ZYNC_BACKEND_VERSION")
	_ = viper.BindEnv("zync.timeout", "ZYNC_TIMEOUT")
	_ = viper.BindEnv("zync.pvm_ack", "ZYNC_PVM_ACK")
	_ = viper.BindEnv("zync.work_dir", "ZYNC_WORK_DIR")
	_ = viper.BindEnv("bridge.url", "MAX_BRIDGE_URL")
	_ = viper.BindEnv("bridge.timeout", "MAX_BRIDGE_TIMEOUT")
	_ = viper.BindEnv("bridge.fixture", "MAX_FIXTURE")
	_ = viper.BindEnv("sim.port", "SIM_PORT")
	_ = viper.BindEnv("sim.env", "SIM_ENV")
	_ = viper.BindEnv("sim.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("sim.jwt_secret", "SIM_JWT_SECRET")
	_ = viper.BindEnv("sim.token_ttl", "SIM_TOKEN_TTL")
	_ = viper.BindEnv("sim.frame_delay_ms", "SIM_FRAME_DELAY_MS")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("ratelimit.submits_per_hour", "SIM_SUBMITS_PER_HOUR")
	_ = viper.BindEnv("archive.endpoint", "ARCHIVE_ENDPOINT")
	_ = viper.BindEnv("archive.region", "ARCHIVE_REGION")
	_ = viper.BindEnv("archive.access_key_id", "ARCHIVE_ACCESS_KEY_ID")
	_ = viper.BindEnv("archive.secret_access_key", "ARCHIVE_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("archive.bucket", "ARCHIVE_BUCKET")
	_ = viper.BindEnv("archive.local_dir", "ARCHIVE_DIR")

	// Defaults
	viper.SetDefault("zync.backend_version", 1)
	viper.SetDefault("zync.timeout", 30)
	viper.SetDefault("zync.pvm_ack", false)
	viper.SetDefault("zync.work_dir", os.TempDir())
	viper.SetDefault("bridge.timeout", 10)
	viper.SetDefault("sim.port", "8420")
	viper.SetDefault("sim.env", "development")
	viper.SetDefault("sim.log_level", "info")
	viper.SetDefault("sim.jwt_secret", "change-me-in-production")
	viper.SetDefault("sim.token_ttl", 24)
	viper.SetDefault("sim.frame_delay_ms", 50)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.submits_per_hour", 30)
	viper.SetDefault("archive.region", "auto")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Zync: ZyncConfig{
			BaseURL:        viper.GetString("zync.api_url"),
			Token:          viper.GetString("zync.token"),
			TokenPath:      viper.GetString("zync.token_path"),
			BackendVersion: viper.GetInt("zync.backend_version"),
			Timeout:        viper.GetInt("zync.timeout"),
			PvmAck:         viper.GetBool("zync.pvm_ack"),
			WorkDir:        viper.GetString("zync.work_dir"),
		},
		Bridge: BridgeConfig{
			URL:     viper.GetString("bridge.url"),
			Timeout: viper.GetInt("bridge.timeout"),
			Fixture: viper.GetString("bridge.fixture"),
		},
		Sim: SimConfig{
			Port:         viper.GetString("sim.port"),
			Env:          viper.GetString("sim.env"),
			LogLevel:     viper.GetString("sim.log_level"),
			JWTSecret:    viper.GetString("sim.jwt_secret"),
			TokenTTL:     viper.GetInt("sim.token_ttl"),
			FrameDelayMs: viper.GetInt("sim.frame_delay_ms"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			SubmitsPerHour: viper.GetInt("ratelimit.submits_per_hour"),
		},
		Archive: ArchiveConfig{
			Endpoint:        viper.GetString("archive.endpoint"),
			Region:          viper.GetString("archive.region"),
			AccessKeyID:     viper.GetString("archive.access_key_id"),
			SecretAccessKey: viper.GetString("archive.secret_access_key"),
			Bucket:          viper.GetString("archive.bucket"),
			LocalDir:        viper.GetString("archive.local_dir"),
		},
	}

	// A token saved by a previous login is picked up when the environment
	// does not provide one.
	if cfg.Zync.Token == "" && cfg.Zync.TokenPath != "" {
		if data, err := os.ReadFile(cfg.Zync.TokenPath); err == nil {
			cfg.Zync.Token = strings.TrimSpace(string(data))
		}
	}

	if cfg.Zync.Token != "" && cfg.Zync.BaseURL == "" {
		return nil, fmt.Errorf("plugin configuration incomplete: Zync API URL not provided")
	}

	return cfg, nil
}
