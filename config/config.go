package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig        `envPrefix:"SERVER_"`
	Logger       LoggerConfig        `envPrefix:"LOGGER_"`
	Postgres     PostgresConfig      `envPrefix:"POSTGRES_"`
	Redis        RedisConfig         `envPrefix:"REDIS_"`
	Kafka        KafkaConfig         `envPrefix:"KAFKA_"`
	Elastic      ElasticsearchConfig `envPrefix:"ELASTICSEARCH_"`
	Cloudinary   CloudinaryConfig    `envPrefix:"CLOUDINARY_"`
	Listing      ListingConfig       `envPrefix:"LISTING_"`
	RateLimit    RateLimitConfig     `envPrefix:"RATE_LIMIT_"`
	Notification NotificationConfig  `envPrefix:"NOTIFICATION_"`
}

type ServerConfig struct {
	AppEnv          string        `env:"APP_ENV" envDefault:"dev"`
	HTTPPort        string        `env:"HTTP_PORT" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type LoggerConfig struct {
	Level             string `env:"LEVEL" envDefault:"info"`
	Encoding          string `env:"ENCODING" envDefault:"json"`
	DisableCaller     bool   `env:"DISABLE_CALLER" envDefault:"false"`
	DisableStacktrace bool   `env:"DISABLE_STACKTRACE" envDefault:"true"`
}

type PostgresConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            string        `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"marine"`
	Password        string        `env:"PASSWORD" envDefault:"marine"`
	DBName          string        `env:"DB" envDefault:"marine_listings"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"1m"`
}

type RedisConfig struct {
	Addr         string        `env:"ADDR" envDefault:"localhost:6379"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB" envDefault:"0"`
	TreeCacheTTL time.Duration `env:"TREE_CACHE_TTL" envDefault:"10m"`
	LockTTL      time.Duration `env:"LOCK_TTL" envDefault:"5s"`
}

type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC_NOTIFICATIONS" envDefault:"marine.notifications"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `env:"ENABLED" envDefault:"true"`
	Addresses []string `env:"ADDRESSES" envSeparator:"," envDefault:"http://localhost:9200"`
	Username  string   `env:"USERNAME"`
	Password  string   `env:"PASSWORD"`
	Index     string   `env:"INDEX" envDefault:"listings"`
}

// CloudinaryConfig enables binary image uploads when CloudName is set.
type CloudinaryConfig struct {
	CloudName string        `env:"CLOUD_NAME"`
	APIKey    string        `env:"API_KEY"`
	APISecret string        `env:"API_SECRET"`
	Folder    string        `env:"FOLDER" envDefault:"listings"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type ListingConfig struct {
	MaxImages         int `env:"MAX_IMAGES" envDefault:"15"`
	ReadRetryAttempts int `env:"READ_RETRY_ATTEMPTS" envDefault:"3"`
}

type RateLimitConfig struct {
	SuggestionsPerMinute uint `env:"SUGGESTIONS_PER_MINUTE" envDefault:"5"`
}

type NotificationConfig struct {
	BufferSize   int           `env:"BUFFER_SIZE" envDefault:"1024"`
	MaxAttempts  uint          `env:"MAX_ATTEMPTS" envDefault:"5"`
	DrainTimeout time.Duration `env:"DRAIN_TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

func (c *Config) validate() error {
	if c.Listing.MaxImages < 1 {
		return fmt.Errorf("LISTING_MAX_IMAGES must be positive, got %d", c.Listing.MaxImages)
	}
	if c.Listing.ReadRetryAttempts < 1 {
		return fmt.Errorf("LISTING_READ_RETRY_ATTEMPTS must be positive, got %d", c.Listing.ReadRetryAttempts)
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	return nil
}
