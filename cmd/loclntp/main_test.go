package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AndrewLester/loclntp/pkg/loclntp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loclntp.conf")
	require.NoError(t, os.WriteFile(path, []byte("listen 127.0.0.1:123\nworkers 2\n"), 0o644))
	t.Setenv("NTP_HOST", "")
	t.Setenv("NTP_PORT", "124")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:124", cfg.Listen)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.conf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRefIDString(t *testing.T) {
	assert.Equal(t, "LOCL", refIDString(0x4c4f434c))
	assert.Equal(t, "GPS", refIDString(0x47505300))
	assert.Equal(t, "", refIDString(0))
	assert.Equal(t, "192.168.1.1", refIDString(0xc0a80101))
}

func TestFormatQueryResult(t *testing.T) {
	result := &loclntp.QueryResult{Offset: 0.25, Err: 0.001, Stratum: 1, ReferenceID: 0x4c4f434c}
	assert.Equal(t, "+0.25 +/- 0.001 127.0.0.1:123 127.0.0.1 stratum 1 refid LOCL",
		formatQueryResult("127.0.0.1:123", result))
}
