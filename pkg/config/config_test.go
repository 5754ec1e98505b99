package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mail:
  host: smtp.example.com
  port: 25
  user: alerts
  password: hunter2
defaultTimeout: 2m
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 25, cfg.Mail.Port)
	assert.Equal(t, "2m", cfg.DefaultTimeout)
	assert.True(t, cfg.MailConfigured())
	// defaults filled in
	assert.Equal(t, 3, cfg.Mail.RetryCount)
	assert.Equal(t, 1000, cfg.Mail.QueueSize)
	assert.Equal(t, "Mozalert", cfg.Mail.SenderName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mail: ["), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultsWithoutMail(t *testing.T) {
	var cfg Config
	cfg.Defaults()

	assert.False(t, cfg.MailConfigured())
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "5m", cfg.DefaultTimeout)
}
