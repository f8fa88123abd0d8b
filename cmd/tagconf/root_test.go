package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProperties = `server.host=localhost
server.port=8080
server.url=http://#{server.host}:#{server.port}
@prod.server.host=app.example.com
`

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.properties")
	require.NoError(t, os.WriteFile(path, []byte(testProperties), 0644))
	return path
}

func TestGetCommand(t *testing.T) {
	path := writeConfig(t)

	t.Run("Untagged", func(t *testing.T) {
		out, err := runCommand(t, "get", "server.url", "-f", path, "-t", "")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080\n", out)
	})

	t.Run("Tagged", func(t *testing.T) {
		out, err := runCommand(t, "get", "server.url", "-f", path, "--tags", "prod")
		require.NoError(t, err)
		assert.Equal(t, "http://app.example.com:8080\n", out)
	})

	t.Run("Typed", func(t *testing.T) {
		out, err := runCommand(t, "get", "server.port", "-f", path, "-t", "", "--type", "int")
		require.NoError(t, err)
		assert.Equal(t, "8080\n", out)

		_, err = runCommand(t, "get", "server.host", "-f", path, "-t", "", "--type", "int")
		assert.Error(t, err)

		_, err = runCommand(t, "get", "server.host", "-f", path, "--type", "complex")
		assert.Error(t, err)
	})

	t.Run("Default", func(t *testing.T) {
		out, err := runCommand(t, "get", "missing", "-f", path, "-t", "", "--default", "fallback")
		require.NoError(t, err)
		assert.Equal(t, "fallback\n", out)

		_, err = runCommand(t, "get", "missing", "-f", path, "-t", "")
		assert.Error(t, err)
	})

	t.Run("EnvPrefix", func(t *testing.T) {
		t.Setenv("CLITEST_SERVER_PORT", "9999")
		out, err := runCommand(t, "get", "server.port", "-f", path, "-t", "", "--env-prefix", "CLITEST_")
		require.NoError(t, err)
		assert.Equal(t, "9999\n", out)
	})
}

func TestKeysCommand(t *testing.T) {
	path := writeConfig(t)

	out, err := runCommand(t, "keys", "server", "-f", path, "-t", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "port", "url"}, strings.Fields(out))

	_, err = runCommand(t, "keys", "nope", "-f", path, "-t", "")
	assert.Error(t, err)
}

func TestDumpAndDebugCommands(t *testing.T) {
	path := writeConfig(t)

	out, err := runCommand(t, "dump", "-f", path, "-t", "prod")
	require.NoError(t, err)
	assert.Contains(t, out, "[server]")
	assert.Contains(t, out, `host = "app.example.com"`)

	out, err = runCommand(t, "debug", "server", "-f", path, "-t", "prod")
	require.NoError(t, err)
	assert.Contains(t, out, "Current tags: [prod]")
	assert.Contains(t, out, "server.host:")
	assert.Contains(t, out, "Current: app.example.com")
}

func TestUnknownFormat(t *testing.T) {
	_, err := runCommand(t, "keys", "-f", "app.conf")
	assert.Error(t, err)
}
