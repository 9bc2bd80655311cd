package mediator_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BlueOwlOpenSource/mediator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
client:
  base_uri: http://localhost:9090/api
  timeout: 10s
server:
  addr: 127.0.0.1:9090
  api_base: /v2
  max_body_bytes: 4096
log:
  level: debug
  color: true
  prefix: "ping "
`

func TestParseConfig(t *testing.T) {
	t.Parallel()
	cfg, err := mediator.ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9090/api", cfg.Client.BaseURI)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, mediator.ServerConfig{Addr: "127.0.0.1:9090", APIBase: "/v2", MaxBodyBytes: 4096}, cfg.Server)
	assert.Equal(t, mediator.LogConfig{Level: "debug", Color: true, Prefix: "ping "}, cfg.Log)
	assert.NoError(t, cfg.Validate())

	logger, ok := cfg.Log.Logger().(mediator.StdLogger)
	require.True(t, ok)
	assert.Equal(t, mediator.LevelDebug, logger.Min)
	assert.True(t, logger.Color)
}

func TestParseConfigDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := mediator.ParseConfig([]byte("log:\n  color: false\n"))
	require.NoError(t, err)
	assert.Equal(t, mediator.DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, mediator.DefaultAPIBase, cfg.Server.APIBase)
	assert.Equal(t, int64(mediator.DefaultMaxBodyBytes), cfg.Server.MaxBodyBytes)
	assert.Equal(t, mediator.DefaultClientTimeout, cfg.Client.Timeout)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Error(t, cfg.Validate(), "clients need a base URI")
}

func TestParseConfigErrors(t *testing.T) {
	t.Parallel()
	_, err := mediator.ParseConfig([]byte("client: [unterminated"))
	assert.Error(t, err)

	cfg, err := mediator.ParseConfig([]byte("client:\n  base_uri: relative/api\n"))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "not absolute")
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "mediator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
	cfg, err := mediator.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/v2", cfg.Server.APIBase)

	_, err = mediator.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}
