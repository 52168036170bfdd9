package main

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

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestBackoffCommand(t *testing.T) {
	out, err := execute(t, "backoff", "-n", "7")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, []string{"ATTEMPTS", "DELAY"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "2s"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "8s"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"5", "1m4s"}, strings.Fields(lines[6]))
	assert.Equal(t, []string{"6", "1m4s"}, strings.Fields(lines[7]))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "skillstream dev")
}

func TestEnvFileFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SKILLSTREAM_TEST_MARKER=loaded\n"), 0o600))
	t.Setenv("SKILLSTREAM_TEST_MARKER", "")
	require.NoError(t, os.Unsetenv("SKILLSTREAM_TEST_MARKER"))

	_, err := execute(t, "--env-file", path, "version")
	require.NoError(t, err)
	assert.Equal(t, "loaded", os.Getenv("SKILLSTREAM_TEST_MARKER"))
}

func TestEnvFileFlag_Missing(t *testing.T) {
	_, err := execute(t, "--env-file", filepath.Join(t.TempDir(), "absent.env"), "version")
	assert.Error(t, err)
}
