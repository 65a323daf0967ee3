package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketYAML = `
port: "8989"
base_url: http://localhost:8989
token:
  secret: ${TEST_JWT_SECRET}
  access_ttl: 15m
  refresh_ttl: 168h
pg:
  host: localhost
  port: 5432
  database: market
kafka:
  brokers:
    - kafka:9092
  topic: market-events
`

func TestParseConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "s3cret")

	v := viper.New()
	v.SetConfigType("yaml")

	cfg, err := parseConfig[Market](v, []byte(marketYAML))
	require.NoError(t, err)

	assert.Equal(t, "8989", cfg.Port)
	assert.Equal(t, "s3cret", cfg.Token.Secret)
	assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, 5432, cfg.PostgreSQL.Port)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mail_worker.yaml"), []byte("queue: mail_jobs\nbrevo:\n  sender_name: Market\n"), 0644))

	cfg := LoadConfig[MailWorker]("mail_worker", dir)
	assert.Equal(t, "mail_jobs", cfg.Queue)
	assert.Equal(t, "Market", cfg.Brevo.SenderName)
}

func TestGetRedisSetting(t *testing.T) {
	t.Setenv("REDIS_MASTER_NAME", "market-master")
	t.Setenv("REDIS_SENTINEL1_IP", "10.0.0.1")
	t.Setenv("REDIS_SENTINEL1_PORT", "26379")

	master, sentinels := GetRedisSetting()
	assert.Equal(t, "market-master", master)
	assert.Contains(t, sentinels, "10.0.0.1:26379")
}
