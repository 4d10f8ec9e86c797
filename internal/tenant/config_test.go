package tenant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjectConfig_PreservesUnknownKeys(t *testing.T) {
	raw := []byte(`{"allowed_origins":["https://a.com","https://b.com"],"is_platform":true,"theme":{"dark":true},"legacy":1}`)

	cfg, err := ParseProjectConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsPlatform)
	require.Contains(t, cfg.Extra, "theme")

	out, err := json.Marshal(cfg)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, map[string]any{"dark": true}, round["theme"])
	assert.EqualValues(t, 1, round["legacy"])
	assert.EqualValues(t, 1, round["version"])
}

func TestParseProjectConfig_Empty(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("null"), []byte("{}")} {
		cfg, err := ParseProjectConfig(raw)
		require.NoError(t, err)
		assert.Empty(t, cfg.AllowedOrigins)
		assert.False(t, cfg.IsPlatform)
		assert.Equal(t, CurrentConfigVersion, cfg.Version)
	}
}

func TestParseProjectConfig_RejectsWrongShape(t *testing.T) {
	_, err := ParseProjectConfig([]byte(`{"allowed_origins":"https://a.com"}`))
	assert.Error(t, err)

	_, err = ParseProjectConfig([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestAllowsOrigin_ExactMatch(t *testing.T) {
	cfg := ProjectConfig{AllowedOrigins: []string{"https://app.example.com"}}

	assert.True(t, cfg.AllowsOrigin("https://app.example.com"))
	assert.False(t, cfg.AllowsOrigin("https://APP.example.com"))
	assert.False(t, cfg.AllowsOrigin("https://evil.app.example.com"))
	assert.False(t, cfg.AllowsOrigin("http://app.example.com"))
}

func TestNormalizeOrigins(t *testing.T) {
	got, err := NormalizeOrigins([]string{" https://a.com ", "http://localhost:3000", "https://a.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com", "http://localhost:3000"}, got)

	for _, bad := range []string{"", "*", "https://*.a.com", "ftp://a.com", "https://a.com/path", "https://a.com/", "a.com"} {
		_, err := NormalizeOrigins([]string{bad})
		assert.Error(t, err, bad)
	}
}
