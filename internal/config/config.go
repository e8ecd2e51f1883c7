package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" default:"sqlite://uploader.db"`

	// Redis, empty keeps market limits in memory
	RedisURL string `envconfig:"REDIS_URL"`

	// Kafka
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"upload-events"`
	KafkaGroupID string `envconfig:"KAFKA_GROUP_ID" default:"uploader-worker"`

	// API Configuration
	APIPort string `envconfig:"API_PORT" default:"8080"`
	APIHost string `envconfig:"API_HOST" default:"0.0.0.0"`

	// Sourcing vendor
	VendorBaseURL      string `envconfig:"VENDOR_BASE_URL" default:"https://api.bulsaja.com/api"`
	VendorAccessToken  string `envconfig:"VENDOR_ACCESS_TOKEN"`
	VendorRefreshToken string `envconfig:"VENDOR_REFRESH_TOKEN"`

	// Strict-tier review model
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`

	// Directory of per-session JSON files used by queued runs
	SessionDir string `envconfig:"SESSION_DIR" default:"sessions"`

	// Keyword/rule file, empty uses built-in lists
	KeywordsPath string `envconfig:"KEYWORDS_PATH"`

	// Environment
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	// .env is optional
	godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Brokers splits the comma separated KAFKA_BROKERS value.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
