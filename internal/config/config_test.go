package config

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, "127.0.0.1:8090", cfg.ListenAddr)
	assert.Equal(t, "scriptlyze.db", cfg.DBPath)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Nil(t, cfg.SecretKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SCRIPTLYZE_API_URL", "https://api.scriptlyze.io")
	t.Setenv("SCRIPTLYZE_LISTEN_ADDR", "0.0.0.0:9000")
	t.Setenv("SCRIPTLYZE_DB_PATH", "/tmp/test.db")
	t.Setenv("SCRIPTLYZE_REQUEST_TIMEOUT", "5s")
	t.Setenv("SCRIPTLYZE_CACHE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.scriptlyze.io", cfg.APIBaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("SCRIPTLYZE_REQUEST_TIMEOUT", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SecretKey(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 32)
	t.Setenv("SCRIPTLYZE_SECRET_KEY", base64.StdEncoding.EncodeToString(key))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, key, cfg.SecretKey)
}

func TestLoad_SecretKeyWrongLength(t *testing.T) {
	t.Setenv("SCRIPTLYZE_SECRET_KEY", base64.StdEncoding.EncodeToString([]byte("short")))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SecretKeyNotBase64(t *testing.T) {
	t.Setenv("SCRIPTLYZE_SECRET_KEY", "%%%not-base64%%%")

	_, err := Load()
	assert.Error(t, err)
}
