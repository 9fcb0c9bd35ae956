package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromPath_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
env: production
addr: ":9000"
csrfKey: "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
identity:
  jwksURL: "https://idp.example.com/.well-known/jwks.json"
  issuer: "https://idp.example.com"
  audience: "orchestra"
calendar:
  duplicateWindow: 250ms
`)
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "orchestra.db", cfg.DBPath, "unset keys keep defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.Calendar.DuplicateWindow)
	assert.Equal(t, 5.0, cfg.Calendar.DragThreshold)
	assert.True(t, cfg.IsProduction())

	key, generated, err := cfg.CSRFSecret()
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Len(t, key, 32)
}

func TestLoadFromPath_RequiresSomeIdentity(t *testing.T) {
	path := writeConfig(t, "addr: \":8080\"\n")
	_, err := LoadFromPath(path)
	assert.ErrorContains(t, err, "config validation failed")
}

func TestLoadFromPath_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"env":      "env: staging\nidentity: {hmacSecret: s}\n",
		"csrf":     "csrfKey: nothex\nidentity: {hmacSecret: s}\n",
		"timezone": "identity: {hmacSecret: s}\ncalendar: {timezone: Mars/Olympus}\n",
		"drag":     "identity: {hmacSecret: s}\ncalendar: {dragThreshold: 0}\n",
		"jwks":     "identity: {jwksURL: not-a-url}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromPath(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "addr: \":9000\"\nidentity: {hmacSecret: from-file}\n")
	t.Setenv("ORCHESTRA_ADDR", ":7000")
	t.Setenv("ORCHESTRA_JWT_HMAC_SECRET", "from-env")
	t.Setenv("ORCHESTRA_RATE_LIMIT", "25")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "from-env", cfg.Identity.HMACSecret)
	assert.Equal(t, 25, cfg.RateLimit.Requests)
}

func TestLoad_BadIntegerEnv(t *testing.T) {
	path := writeConfig(t, "identity: {hmacSecret: s}\n")
	t.Setenv("ORCHESTRA_SLOW_QUERY_MS", "fast")
	_, err := Load(path)
	assert.ErrorContains(t, err, "ORCHESTRA_SLOW_QUERY_MS")
}

func TestCSRFSecret(t *testing.T) {
	dev := Defaults()
	key, generated, err := dev.CSRFSecret()
	require.NoError(t, err)
	assert.True(t, generated)
	assert.Len(t, key, 32)

	prod := Defaults()
	prod.Env = EnvProduction
	_, _, err = prod.CSRFSecret()
	assert.ErrorIs(t, err, ErrCSRFKeyRequired)
}

func TestLocation(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
}
