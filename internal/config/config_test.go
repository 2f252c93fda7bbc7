package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CAMPUS_JWT_ACCESS_SECRET", "a")
	t.Setenv("CAMPUS_JWT_REFRESH_SECRET", "b")
	t.Setenv("CAMPUS_REALTIME_HEARTBEAT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "mysql", cfg.Storage.Driver)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 5*time.Second, cfg.Realtime.Heartbeat)
	assert.Equal(t, 16, cfg.Realtime.Buffer)
	assert.False(t, cfg.Auth.AllowSuperadminSignup)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "campus.yaml")
	content := `
storage:
  driver: mongo
mongo:
  uri: mongodb://db:27017
  database: campus
jwt:
  access_secret: one
  refresh_secret: two
auth:
  allow_superadmin_signup: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, "campus", cfg.Mongo.Database)
	assert.True(t, cfg.Auth.AllowSuperadminSignup)
}

func TestLoadMissingSecrets(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CAMPUS_JWT_ACCESS_SECRET", "")
	t.Setenv("CAMPUS_JWT_REFRESH_SECRET", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:  StorageConfig{Driver: "mysql"},
			MySQL:    MySQLConfig{DSN: "dsn"},
			JWT:      JWTConfig{AccessSecret: "a", RefreshSecret: "b"},
			Realtime: RealtimeConfig{Buffer: 1},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"mongo without uri", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"same secrets", func(c *Config) { c.JWT.RefreshSecret = "a" }},
		{"zero buffer", func(c *Config) { c.Realtime.Buffer = 0 }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }},
		{"pubnub without keys", func(c *Config) { c.PubNub.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
