package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYml = `
server:
  externalPort: 9090
database:
  driver: sqlite
  path: ./test.db
search:
  exactFallbackTotal: true
kafka:
  brokers: ["a:9092", "b:9092"]
`

func loadTestConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config-test.yml"), []byte(testYml), 0o644))
	t.Chdir(dir)

	v, err := LoadConfig("config-test", "yml")
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)
	return cfg
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg := loadTestConfig(t)

	assert.Equal(t, "9090", cfg.Server.ExternalPort)
	assert.Equal(t, "50051", cfg.Server.GrpcPort)
	assert.Equal(t, DriverSqlite, cfg.Database.Driver)
	assert.Equal(t, "./data/search_index", cfg.Search.IndexPath)
	assert.True(t, cfg.Search.ExactFallbackTotal)
	assert.Equal(t, 30*time.Second, cfg.Search.CacheTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "audit.events", cfg.Kafka.AuditTopic)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := LoadConfig("config-absent", "yml")
	assert.EqualError(t, err, "config file not found")
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	env := map[string]string{
		"DATABASE_URL":      "postgres://u:p@db:5432/nemaks",
		"REDIS_URL":         "redis://cache:6379/0",
		"PORT":              "8081",
		"GRPC_PORT":         "6000",
		"SEARCH_INDEX_PATH": "/tmp/idx",
		"KAFKA_BROKERS":     " k1:9092, ,k2:9092 ",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "postgres://u:p@db:5432/nemaks", cfg.GetPostgresConnectionString())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.Url)
	assert.Equal(t, ":8081", cfg.GetServerAddress())
	assert.Equal(t, ":6000", cfg.GetGrpcAddress())
	assert.Equal(t, "/tmp/idx", cfg.Search.IndexPath)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.KafkaEnabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{ExternalPort: "8080", GrpcPort: "50051"},
			Database: DatabaseConfig{Driver: DriverPostgres, Host: "db", DbName: "nemaks"},
			Search:   SearchConfig{IndexPath: "./idx"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, `database.driver "mysql" is not supported`},
		{"sqlite without path", func(c *Config) { c.Database.Driver = DriverSqlite }, "database.path is required for sqlite"},
		{"no index path", func(c *Config) { c.Search.IndexPath = "" }, "search.indexPath is required"},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true }, "redis.url or redis.host and redis.port are required"},
		{"kafka without batch size", func(c *Config) { c.Kafka.Brokers = []string{"k:9092"} }, "kafka.batchSize must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestGetPostgresConnectionString_FromParts(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DbName: "nemaks"}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=nemaks sslmode=disable", cfg.GetPostgresConnectionString())
}
