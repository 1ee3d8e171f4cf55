package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config agrupa toda la configuración del proceso. Los valores del broker
// son obligatorios: el servicio debe arrancar rápido o fallar rápido.
type Config struct {
	UseKafka     bool
	KafkaBrokers []string
	SagaTopic    string // topic-exchange compartido del saga

	SQLitePath    string
	PostgresDSN   string // si está presente, event store e inventario usan Postgres
	RedisAddr     string
	ClickHouseOn  bool
	ClickHouseDSN string

	HTTPPort string

	ConsumerGrace time.Duration // margen inicial antes de conectar al broker
	DedupTTL      time.Duration

	SeedDemoProducts bool // inserta el catálogo de demo al arrancar

	PaymentSuccessRate int // porcentaje de pagos aceptados por el gateway simulado
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadConfig lee el entorno y valida. Un broker malformado es un error de
// despliegue, no un estado recuperable: se devuelve error y main aborta.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		UseKafka:           getEnv("USE_KAFKA", "false") == "true",
		KafkaBrokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		SagaTopic:          getEnv("SAGA_TOPIC", "order-processing-events"),
		// busy_timeout: cinco consumidores comparten el mismo fichero
		SQLitePath:         getEnv("SQLITE_PATH", "file:ordersaga.db?_pragma=busy_timeout(5000)"),
		PostgresDSN:        getEnv("POSTGRES_DSN", ""),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		ClickHouseOn:       getEnv("CLICKHOUSE_ENABLED", "false") == "true",
		ClickHouseDSN:      getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		ConsumerGrace:      5 * time.Second,
		DedupTTL:           24 * time.Hour,
		SeedDemoProducts:   getEnv("SEED_DEMO_PRODUCTS", "false") == "true",
		PaymentSuccessRate: 90,
	}

	if v := os.Getenv("CONSUMER_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CONSUMER_GRACE %q: %w", v, err)
		}
		cfg.ConsumerGrace = d
	}

	if v := os.Getenv("PAYMENT_SUCCESS_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate < 0 || rate > 100 {
			return nil, fmt.Errorf("invalid PAYMENT_SUCCESS_RATE %q", v)
		}
		cfg.PaymentSuccessRate = rate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate comprueba los valores obligatorios del broker.
func (c *Config) Validate() error {
	if c.SagaTopic == "" {
		return fmt.Errorf("saga topic is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("at least one kafka broker is required")
	}
	for _, broker := range c.KafkaBrokers {
		host, port, err := net.SplitHostPort(strings.TrimSpace(broker))
		if err != nil {
			return fmt.Errorf("malformed broker address %q: %w", broker, err)
		}
		if host == "" {
			return fmt.Errorf("broker address %q has empty host", broker)
		}
		if p, err := strconv.Atoi(port); err != nil || p <= 0 {
			return fmt.Errorf("broker address %q has invalid port", broker)
		}
	}
	return nil
}
