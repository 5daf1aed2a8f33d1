package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sntpal/sntpal/pkg/sntp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sntp.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	path := writeConfig(t, `
# primary, then fallback
server time.example.com port 1123
server pool.ntp.org

pollinterval 32
stepthreshold 200
`)

	cfg, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, []sntp.ServerInfo{
		{Name: "time.example.com", Port: 1123},
		{Name: "pool.ntp.org", Port: 123},
	}, cfg.Servers)
	assert.Equal(t, 32*time.Second, cfg.PollInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.StepThreshold)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(writeConfig(t, "server pool.ntp.org\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultStepThreshold, cfg.StepThreshold)
}

func TestParseRejections(t *testing.T) {
	cases := map[string]string{
		"missing address":     "server\n",
		"dangling port":       "server pool.ntp.org port\n",
		"non-integer port":    "server pool.ntp.org port abc\n",
		"port out of range":   "server pool.ntp.org port 70000\n",
		"trailing junk":       "server pool.ntp.org iburst\n",
		"unknown directive":   "driftfile /etc/ntp.drift\n",
		"zero pollinterval":   "server pool.ntp.org\npollinterval 0\n",
		"no servers declared": "pollinterval 64\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.conf"))
	assert.Error(t, err)
}
