package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestSanitizeRedactsCredentialKeys(t *testing.T) {
	log, logs := observed(t)
	log.Info("auth attempt",
		"authorization", "Bearer rvk_live_abcdefgh",
		"api_key", "rvk_live_abcdefgh",
		"key_prefix", "rvk_live_abcdefg",
		"workspace_id", "ws-1",
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, redacted, fields["authorization"])
	assert.Equal(t, redacted, fields["api_key"])
	assert.Equal(t, "ws-1", fields["workspace_id"])
}

func TestSanitizeCatchesSecretsUnderInnocentKeys(t *testing.T) {
	log, logs := observed(t)
	log.Warn("odd value", "header", "Bearer abc", "value", "rvk_live_xyz")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, redacted, fields["header"])
	assert.Equal(t, redacted, fields["value"])
}

func TestSanitizeHashesClientIP(t *testing.T) {
	log, logs := observed(t)
	log.Info("request", "client_ip", "10.0.0.1")

	v, ok := logs.All()[0].ContextMap()["client_ip"].(string)
	require.True(t, ok)
	assert.Contains(t, v, "hash:")
	assert.NotContains(t, v, "10.0.0.1")
}

func TestWithSanitizesBoundFields(t *testing.T) {
	log, logs := observed(t)
	log.With("secret", "shh").Info("bound")

	assert.Equal(t, redacted, logs.All()[0].ContextMap()["secret"])
}

func TestSanitizeNestedMap(t *testing.T) {
	log, logs := observed(t)
	log.Info("nested", "meta", map[string]interface{}{"token": "x", "ok": 1})

	meta, ok := logs.All()[0].ContextMap()["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, redacted, meta["token"])
	assert.EqualValues(t, 1, meta["ok"])
}
