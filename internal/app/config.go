package app

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"`

	APIBaseURL string        `yaml:"api_base_url"`
	APITimeout time.Duration `yaml:"api_timeout"`

	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`

	SessionHashKey  []byte `yaml:"-"`
	SessionBlockKey []byte `yaml:"-"`

	PollInterval time.Duration `yaml:"poll_interval"`
	LogLevel     string        `yaml:"log_level"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisChannel  string `yaml:"redis_channel"`

	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	VAPIDSubscriber string `yaml:"vapid_subscriber"`
}

func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		BaseURL:        "http://localhost:8080",
		APIBaseURL:     "http://localhost:8081/api",
		APITimeout:     15 * time.Second,
		DataDir:        "/data",
		PollInterval:   10 * time.Second,
		LogLevel:       "info",
		MetricsEnabled: true,
		AMQPExchange:   "console_notifications",
		RedisChannel:   "console:notifications",
	}
}

// LoadConfig layers defaults, an optional YAML file named by CONFIG_PATH
// and the environment, in that order. A .env file in the working directory
// is read first when present.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path := getenv("CONFIG_PATH", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Addr = getenv("ADDR", cfg.Addr)
	cfg.BaseURL = getenv("BASE_URL", cfg.BaseURL)
	cfg.APIBaseURL = getenv("API_BASE_URL", cfg.APIBaseURL)
	cfg.DataDir = getenv("DATA_DIR", cfg.DataDir)
	cfg.DBPath = getenv("DB_PATH", cfg.DBPath)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.AMQPURL = getenv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getenv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.RedisAddr = getenv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisChannel = getenv("REDIS_CHANNEL", cfg.RedisChannel)
	cfg.VAPIDPublicKey = getenv("VAPID_PUBLIC_KEY", cfg.VAPIDPublicKey)
	cfg.VAPIDPrivateKey = getenv("VAPID_PRIVATE_KEY", cfg.VAPIDPrivateKey)
	cfg.VAPIDSubscriber = getenv("VAPID_SUBSCRIBER", cfg.VAPIDSubscriber)

	var err error
	if cfg.APITimeout, err = durationEnv("API_TIMEOUT", cfg.APITimeout); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if v := getenv("METRICS_ENABLED", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		cfg.MetricsEnabled = b
	}
	if cfg.SessionHashKey, err = hexEnv("SESSION_HASH_KEY_HEX"); err != nil {
		return Config{}, err
	}
	if cfg.SessionBlockKey, err = hexEnv("SESSION_BLOCK_KEY_HEX"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := getenv(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", k)
	}
	return d, nil
}

func hexEnv(k string) ([]byte, error) {
	v := getenv(k, "")
	if v == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s invalid hex: %w", k, err)
	}
	return b, nil
}
