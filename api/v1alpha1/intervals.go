package v1alpha1

import (
	"fmt"
	"strconv"
	"time"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Intervals is the normalized form of a CheckSpec's timing fields. The
// int-or-string schema encodings are parsed exactly once, here; every
// consumer works with time.Duration afterwards.
type Intervals struct {
	Check        time.Duration
	Retry        time.Duration
	Notification time.Duration
	Timeout      time.Duration
}

// ParseInterval converts an int-or-string interval into a duration.
// Integers (and bare integer strings) are counts of seconds; everything
// else must parse as a Go duration string.
func ParseInterval(v intstr.IntOrString) (time.Duration, error) {
	if v.Type == intstr.Int {
		if v.IntValue() < 0 {
			return 0, fmt.Errorf("interval must not be negative, got %d", v.IntValue())
		}
		return time.Duration(v.IntValue()) * time.Second, nil
	}
	s := v.StrVal
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("interval must not be negative, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("interval must not be negative, got %s", d)
	}
	return d, nil
}

// NormalizeIntervals resolves a spec's timing fields into durations.
// retry_interval and notification_interval default to check_interval,
// timeout to defaultTimeout, matching the documented CRD semantics.
func NormalizeIntervals(spec CheckSpec, defaultTimeout time.Duration) (Intervals, error) {
	var iv Intervals
	var err error

	if iv.Check, err = ParseInterval(spec.CheckInterval); err != nil {
		return iv, fmt.Errorf("check_interval: %w", err)
	}
	if iv.Check <= 0 {
		return iv, fmt.Errorf("check_interval must be positive")
	}

	if iv.Retry, err = ParseInterval(spec.RetryInterval); err != nil {
		return iv, fmt.Errorf("retry_interval: %w", err)
	}
	if iv.Retry == 0 {
		iv.Retry = iv.Check
	}

	if iv.Notification, err = ParseInterval(spec.NotificationInterval); err != nil {
		return iv, fmt.Errorf("notification_interval: %w", err)
	}
	if iv.Notification == 0 {
		iv.Notification = iv.Check
	}

	if iv.Timeout, err = ParseInterval(spec.Timeout); err != nil {
		return iv, fmt.Errorf("timeout: %w", err)
	}
	if iv.Timeout == 0 {
		iv.Timeout = defaultTimeout
	}

	return iv, nil
}
