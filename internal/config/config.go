package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every connection target the services use. Defaults match
// the local docker-compose setup.
type Config struct {
	HTTPAddr      string
	MySQLDSN      string
	RedisAddr     string
	ElasticURL    string
	KafkaBrokers  []string
	OrderTopic    string
	ConsumerGroup string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:      getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/dispatch?parseTime=true"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		ElasticURL:    getenv("ELASTICSEARCH_URL", "http://localhost:9200"),
		KafkaBrokers:  splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
		OrderTopic:    getenv("ORDER_TOPIC", "order-intents"),
		ConsumerGroup: getenv("CONSUMER_GROUP", "fulfillment-workers"),
	}
}

// Validate reports the first missing mandatory connection target. The worker
// calls this at startup and refuses to run degraded.
func (c Config) Validate() error {
	switch {
	case c.MySQLDSN == "":
		return fmt.Errorf("MYSQL_DSN is required")
	case c.RedisAddr == "":
		return fmt.Errorf("REDIS_ADDR is required")
	case len(c.KafkaBrokers) == 0:
		return fmt.Errorf("KAFKA_BROKERS is required")
	case c.OrderTopic == "":
		return fmt.Errorf("ORDER_TOPIC is required")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
