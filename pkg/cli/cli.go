// Package cli parses the operator's command line, with environment
// variable fallbacks for every flag.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	// Application flags
	Debug bool

	// Metrics server flags
	MetricsAddr string

	// Health probe flags
	ProbeAddr string

	// Leader election flags
	EnableLeaderElection bool
	LeaderElectID        string

	// Configuration flags
	ConfigPath   string
	DisableEmail bool

	// Check execution flags
	DefaultCheckTimeout     string
	MaxConcurrentReconciles int
	MonitorInterval         string

	// Tracing flags
	TracingEnabled  bool
	TracingExporter string
	TracingEndpoint string
	TracingInsecure bool
}

// Parse reads flags and their environment fallbacks. The pattern:
// flag.XxxVar(&field, "flag-name", defaultOrEnvValue, "help text").
func Parse() *Config {
	config := &Config{}

	flag.BoolVar(&config.Debug, "debug", getEnvBool("MOZALERT_DEBUG", false),
		"Enable debug level logging")

	flag.StringVar(&config.MetricsAddr, "metrics-bind-address", getEnvString("METRICS_BIND_ADDRESS", ":8081"),
		"The address the metrics endpoint binds to, or 0 to disable the metrics service")
	flag.StringVar(&config.ProbeAddr, "health-probe-bind-address", getEnvString("PROBE_BIND_ADDRESS", ":8082"),
		"The address the probe endpoint binds to")

	flag.BoolVar(&config.EnableLeaderElection, "enable-leader-election", getEnvBool("ENABLE_LEADER_ELECTION", false),
		"Enable leader election for running multiple instances. Set to false when running a single instance")
	flag.StringVar(&config.LeaderElectID, "leader-elect-id", getEnvString("LEADER_ELECT_ID", "checks.mozalert.org"),
		"The ID used for leader election; ensures multiple instances coordinate properly")

	flag.StringVar(&config.ConfigPath, "config-path", getEnvString("MOZALERT_CONFIG_PATH", ""),
		"Path to the operator configuration file (mail settings etc.); optional")
	flag.BoolVar(&config.DisableEmail, "disable-email", getEnvBool("MOZALERT_DISABLE_EMAIL", false),
		"Disable the email escalation type even when SMTP is configured")

	flag.StringVar(&config.DefaultCheckTimeout, "default-check-timeout", getEnvString("DEFAULT_CHECK_TIMEOUT", "5m"),
		"Timeout applied to checks without spec.timeout (e.g. '5m', '90s')")
	flag.IntVar(&config.MaxConcurrentReconciles, "max-concurrent-reconciles", getEnvInt("MAX_CONCURRENT_RECONCILES", 4),
		"How many checks may run concurrently")
	flag.StringVar(&config.MonitorInterval, "monitor-interval", getEnvString("MONITOR_INTERVAL", "5m"),
		"Cadence of the schedule sanity sweep")

	flag.BoolVar(&config.TracingEnabled, "tracing-enabled", getEnvBool("TRACING_ENABLED", false),
		"Enable OpenTelemetry tracing of check runs")
	flag.StringVar(&config.TracingExporter, "tracing-exporter", getEnvString("TRACING_EXPORTER", "otlp"),
		"Trace exporter: otlp, stdout or none")
	flag.StringVar(&config.TracingEndpoint, "tracing-endpoint", getEnvString("TRACING_ENDPOINT", ""),
		"OTLP collector endpoint, e.g. otel-collector:4317")
	flag.BoolVar(&config.TracingInsecure, "tracing-insecure", getEnvBool("TRACING_INSECURE", false),
		"Disable TLS for the OTLP gRPC connection")

	flag.Parse()

	return config
}

func (c *Config) Print(log *zap.SugaredLogger) {
	log.Infow("CLI Configuration",
		"debug", c.Debug,
		"metrics_bind_address", c.MetricsAddr,
		"health_probe_bind_address", c.ProbeAddr,
		"enable_leader_election", c.EnableLeaderElection,
		"leader_elect_id", c.LeaderElectID,
		"config_path", c.ConfigPath,
		"disable_email", c.DisableEmail,
		"default_check_timeout", c.DefaultCheckTimeout,
		"max_concurrent_reconciles", c.MaxConcurrentReconciles,
		"monitor_interval", c.MonitorInterval,
		"tracing_enabled", c.TracingEnabled,
		"tracing_exporter", c.TracingExporter,
		"tracing_endpoint", c.TracingEndpoint,
	)
}

// ParseDefaultCheckTimeout resolves the default-check-timeout flag,
// falling back to 5m on a malformed value.
func (c *Config) ParseDefaultCheckTimeout(log *zap.SugaredLogger) time.Duration {
	d, err := parseDuration("default-check-timeout", c.DefaultCheckTimeout, 5*time.Minute)
	if err != nil {
		log.Warn(err)
	}
	return d
}

// ParseMonitorInterval resolves the monitor-interval flag, falling back
// to 5m on a malformed value.
func (c *Config) ParseMonitorInterval(log *zap.SugaredLogger) time.Duration {
	d, err := parseDuration("monitor-interval", c.MonitorInterval, 5*time.Minute)
	if err != nil {
		log.Warn(err)
	}
	return d
}

func parseDuration(name, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q; using default %s: %w", name, value, def.String(), err)
	}
	return d, nil
}

// getEnvString returns the value of an environment variable, or the provided default if not set.
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvBool returns the value of an environment variable as a bool, or the provided default if not set.
// Valid true values are "true", "1", "yes" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvInt returns the value of an environment variable as an int, or the provided default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
