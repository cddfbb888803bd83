package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := &DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "owlrd",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 user=postgres password=secret dbname=owlrd sslmode=disable", c.GetDSN())
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_MAX_CONNS", "20")

	c := &DatabaseConfig{Host: "localhost", Port: 5432}
	c.LoadFromEnv("DB")

	assert.Equal(t, "pg", c.Host)
	assert.Equal(t, 6543, c.Port)
	assert.Equal(t, 20, c.MaxConns)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_POOL_SIZE", "32")
	t.Setenv("REDIS_TIMEOUT", "750ms")

	c := &RedisConfig{Addr: "localhost:6379"}
	c.LoadFromEnv("REDIS")

	assert.Equal(t, "redis:6380", c.Addr)
	assert.Equal(t, 3, c.DB)
	assert.Equal(t, 32, c.PoolSize)
	assert.Equal(t, 750*time.Millisecond, c.Timeout)
}

func TestMQTTConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("MQTT_QOS", "1")

	c := &MQTTConfig{}
	c.LoadFromEnv("MQTT")

	assert.Equal(t, "tcp://broker:1883", c.Broker)
	assert.Equal(t, byte(1), c.QoS)
}

func TestNATSConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("NATS_TIMEOUT", "5s")
	t.Setenv("NATS_NAME", "")

	c := &NATSConfig{Name: "wisefido-cardiac", Timeout: 3 * time.Second}
	c.LoadFromEnv("NATS")

	assert.Equal(t, "nats://nats:4222", c.URL)
	assert.Equal(t, "wisefido-cardiac", c.Name)
	assert.Equal(t, 5*time.Second, c.Timeout)
}
