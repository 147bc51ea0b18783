package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_AllSections(t *testing.T) {
	raw := `{
		"app": {"hash_key": "k", "version": "2.0.0"},
		"storage": {
			"db": {"dsn": "postgres://db"},
			"idempotency": {"dir": "/idem", "ttl": "30m"},
			"documents": {"bucket": "docs", "region": "eu-west-1", "presign_ttl": "10m"}
		},
		"server": {"http_address": "localhost:8080", "request_timeout": "20s"},
		"adapter": {"http_address": "localhost:8080", "transport": "http", "request_timeout": 5000000000},
		"workers": {"sync_interval": "2m", "purge_retention": "24h"},
		"sync": {"max_retries": 4, "base_delay": "500ms", "max_delay": "1m", "pipeline": 3},
		"client": {"data_dir": "/data", "user_id": "u-1"}
	}`
	path := t.TempDir() + "/cfg.json"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "k", cfg.App.HashKey)
	assert.Equal(t, "postgres://db", cfg.Storage.DB.DSN)
	assert.Equal(t, 30*time.Minute, cfg.Storage.Idempotency.TTL)
	assert.Equal(t, "eu-west-1", cfg.Storage.Documents.Region)
	assert.Equal(t, 10*time.Minute, cfg.Storage.Documents.PresignTTL)
	assert.Equal(t, 20*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 4, cfg.Sync.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.BaseDelay)
	assert.Equal(t, 3, cfg.Sync.Pipeline)
	assert.Equal(t, "u-1", cfg.Client.UserID)
}

func TestParseJSON_Errors(t *testing.T) {
	_, err := parseJSON("/does/not/exist.json")
	assert.Error(t, err)

	path := t.TempDir() + "/bad.json"
	require.NoError(t, os.WriteFile(path, []byte(`{"sync": {"base_delay": "later"}}`), 0o600))
	_, err = parseJSON(path)
	assert.Error(t, err)
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))
}
