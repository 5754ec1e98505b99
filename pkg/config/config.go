package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Mail holds SMTP settings for the built-in email escalation.
type Mail struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	SenderAddress      string `yaml:"senderAddress"`
	SenderName         string `yaml:"senderName"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	RetryCount         int    `yaml:"retryCount"`
	RetryBackoffMs     int    `yaml:"retryBackoffMs"`
	QueueSize          int    `yaml:"queueSize"`
}

// Config is the operator's file-based configuration. Cluster-level
// behaviour (intervals, images, escalations) lives on the Check CRD;
// this file only carries process-level settings that do not belong in
// any one resource.
type Config struct {
	Mail Mail `yaml:"mail"`

	// DefaultTimeout bounds check runs whose spec leaves timeout unset,
	// e.g. "5m". Parsed by the CLI layer.
	DefaultTimeout string `yaml:"defaultTimeout"`
}

// Load reads and parses the YAML config file at path. A missing file is
// an error; a missing mail section only disables email escalations.
func Load(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Defaults()
	return cfg, nil
}

// Defaults fills unset fields with sensible values.
func (c *Config) Defaults() {
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Mail.SenderAddress == "" {
		c.Mail.SenderAddress = "noreply@mozalert.org"
	}
	if c.Mail.SenderName == "" {
		c.Mail.SenderName = "Mozalert"
	}
	if c.Mail.RetryCount <= 0 {
		c.Mail.RetryCount = 3
	}
	if c.Mail.RetryBackoffMs <= 0 {
		c.Mail.RetryBackoffMs = 100
	}
	if c.Mail.QueueSize <= 0 {
		c.Mail.QueueSize = 1000
	}
	if c.DefaultTimeout == "" {
		c.DefaultTimeout = "5m"
	}
}

// MailConfigured reports whether an SMTP host is set.
func (c *Config) MailConfigured() bool { return c.Mail.Host != "" }
