package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/binprot/internal/core/observability/log"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadYAML_OverridesDefaults(t *testing.T) {
	src := `
log:
  level: debug
codec:
  max_depth: 16
server:
  addr: ":9000"
  write_timeout: 250ms
schema: ["i64", "option<string>"]
`
	c, err := LoadYAML(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, log.LevelDebug, c.LogLevel())
	assert.Equal(t, 16, c.CodecOptions().MaxDepth)
	assert.Equal(t, Default().Codec.MaxLength, c.CodecOptions().MaxLength)
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, 250*time.Millisecond, c.Server.WriteTimeout)
	assert.Equal(t, "/ws", c.Server.Path)

	tuple, err := c.RecordSchema()
	require.NoError(t, err)
	assert.Equal(t, "(i64, option<string>)", tuple.String())

	limits := c.FrameLimits()
	assert.Equal(t, Default().Frame.MaxRecordBytes, limits.MaxRecordBytes)
	assert.Equal(t, 16, limits.Codec.MaxDepth)
}

func TestLoadYAML_Empty(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadYAML_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "codec:\n  depth: 3\n",
		"bad level":     "log:\n  level: loud\n",
		"bad schema":    "schema: [\"u64\"]\n",
		"zero depth":    "codec:\n  max_depth: 0\n",
		"empty schema":  "schema: []\n",
		"bad encoding":  "log:\n  encoding: xml\n",
		"no read limit": "server:\n  read_limit: 0\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	path := filepath.Join(t.TempDir(), "binprot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verify:\n  concurrency: 2\n"), 0o600))
	c, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Verify.Concurrency)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
