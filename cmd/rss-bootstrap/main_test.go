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

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"rss-bootstrap", "--log", "warn"}, args...))
	return out.String(), err
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "simulate", "--prime", "31")
	require.NoError(t, err)
	assert.Contains(t, out, "party A")
	assert.Contains(t, out, "party C")
	assert.Contains(t, out, "key schedules are consistent")
	assert.Equal(t, 4+4+5, strings.Count(out, "\n  "), "one line per held key")
}

func TestSimulate_InvalidPrime(t *testing.T) {
	_, err := run(t, "simulate", "--prime", "32")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.toml")
	require.NoError(t, os.WriteFile(path, []byte("role = 1\nbase_port = 5000\n"), 0o600))

	out, err := run(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "party B of 3")
	assert.Contains(t, out, "127.0.0.1:5001")

	none := filepath.Join(t.TempDir(), "none.toml")
	require.NoError(t, os.WriteFile(none, []byte("role = 3\n"), 0o600))
	_, err = run(t, "check", none)
	assert.Error(t, err)

	_, err = run(t, "check")
	assert.Error(t, err)
}

func TestTables(t *testing.T) {
	out, err := run(t, "tables", "5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "+ mod 5", lines[0])
	assert.Equal(t, "  3   4   0   1   2", lines[4])
	assert.Equal(t, "* mod 5", lines[6])
	assert.Equal(t, "  0   3   1   4   2", lines[10])

	_, err = run(t, "tables", "6")
	assert.Error(t, err)
	_, err = run(t, "tables", "six")
	assert.Error(t, err)
}
