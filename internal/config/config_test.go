package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("USE_KAFKA", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.UseKafka)
	assert.Equal(t, "order-processing-events", cfg.SagaTopic)
	// El fichero SQLite lo comparten los cinco consumidores: el DSN por
	// defecto debe llevar busy_timeout para no devolver SQLITE_BUSY.
	assert.Contains(t, cfg.SQLitePath, "_pragma=busy_timeout(5000)")
}

func TestValidate_MalformedBroker(t *testing.T) {
	cases := []struct {
		name    string
		brokers []string
	}{
		{"sin puerto", []string{"localhost"}},
		{"puerto no numérico", []string{"localhost:abc"}},
		{"host vacío", []string{":9092"}},
		{"lista vacía", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{SagaTopic: "order-processing-events", KafkaBrokers: tc.brokers}
			assert.Error(t, cfg.Validate())
		})
	}
}
