package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MOMO_TIMEOUT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("EVENT_SINK", "none")

	cfg := LoadConfig()

	assert.Equal(t, 15*time.Second, cfg.MoMo.Timeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "none", cfg.EventSink)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("ENV", "production")
	t.Setenv("VNPAY_TMN_CODE", "DEMO1234")
	t.Setenv("MOMO_TIMEOUT", "7s")
	t.Setenv("EVENT_SINK", "Kafka")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")
	t.Setenv("KAFKA_TOPIC", "pos.payments")

	cfg := LoadConfig()

	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "DEMO1234", cfg.VNPay.TmnCode)
	assert.Equal(t, 7*time.Second, cfg.MoMo.Timeout)
	assert.Equal(t, "kafka", cfg.EventSink)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "pos.payments", cfg.KafkaTopic)
}

func TestGetDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MOMO_TIMEOUT", "soon")
	assert.Equal(t, 15*time.Second, getDuration("MOMO_TIMEOUT", 15*time.Second))

	t.Setenv("MOMO_TIMEOUT", "-3s")
	assert.Equal(t, 15*time.Second, getDuration("MOMO_TIMEOUT", 15*time.Second))
}
