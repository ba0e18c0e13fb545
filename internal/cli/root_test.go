package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRejectsUnknownFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"compile", "DELETE FROM users", "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootRegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "compile")
	assert.Contains(t, names, "exec")
	assert.Contains(t, names, "reflect")
}

func TestResolveConnectionFromFields(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"scheme: https\nhost: db.example.com\nport: 8443\nsecret: s3cret\ntimeout_seconds: 10\n",
	), 0o644))

	cfg, err := resolveConnection(&RootOptions{Config: configPath}, "")
	require.NoError(t, err)
	assert.Equal(t, "db.example.com", cfg.Host)
	assert.Equal(t, 8443, cfg.Port)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestResolveConnectionFlagBeatsFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("url: https://other@elsewhere\n"), 0o644))

	cfg, err := resolveConnection(&RootOptions{Config: configPath}, "https://flag@db.example.com")
	require.NoError(t, err)
	assert.Equal(t, "flag", cfg.Secret)
	assert.Equal(t, "db.example.com", cfg.Host)
}

func TestResolveConnectionMissingSecret(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("host: db.example.com\n"), 0o644))

	_, err := resolveConnection(&RootOptions{Config: configPath}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")
}
