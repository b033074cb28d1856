package configs

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the service configuration. Environment variables are
// parsed from the RECO_ prefix, e.g. RECO_DB_HOST.
type Config struct {
	AppPort string `envconfig:"APP_PORT" default:":8084"`
	Env     string `envconfig:"ENV" default:"development"`

	DBHost string `envconfig:"DB_HOST" default:"reco-db"`
	DBPort string `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"reco"`
	DBPass string `envconfig:"DB_PASSWORD" default:"recopass"`
	DBName string `envconfig:"DB_NAME" default:"reco_db"`

	RedisHost string `envconfig:"REDIS_HOST" default:"redis-reco"`
	RedisPort string `envconfig:"REDIS_PORT" default:"6379"`

	KafkaBootstrap string `envconfig:"KAFKA_BOOTSTRAP_SERVERS" default:"kafka:9092"`
	KafkaTopic     string `envconfig:"INTERACTIONS_TOPIC" default:"interactions.events"`
	KafkaGroupID   string `envconfig:"KAFKA_GROUP_ID" default:"recommendation-service"`

	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"true"`

	CacheMaxEntries int `envconfig:"CACHE_MAX_ENTRIES" default:"1000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("RECO", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
