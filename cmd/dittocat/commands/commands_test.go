package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile = ""
		initForce = false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "dittocat dev (commit: none"), out)
}

func TestInitCommand_WritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dittocat.yaml")

	out, err := execute(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created at: "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "catalog:")

	_, err = execute(t, "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestStartCommand_MissingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := execute(t, "start", "--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dittocat init")
}

func TestGetConfigSource(t *testing.T) {
	assert.Equal(t, "/etc/dittocat.yaml", getConfigSource("/etc/dittocat.yaml"))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Equal(t, "defaults", getConfigSource(""))
}
