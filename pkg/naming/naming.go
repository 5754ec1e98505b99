// Package naming derives Kubernetes-safe names for the workload objects
// a Check spawns.
package naming

import (
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

const jobPrefix = "check-"

var invalidChars = regexp.MustCompile(`[^a-z0-9\-.]+`)

// JobName returns the deterministic Job name for a Check. Deterministic
// on purpose: a leftover Job from an interrupted run collides with the
// next run's Job and gets replaced instead of accumulating.
func JobName(checkName string) string {
	name := jobPrefix + sanitize(checkName, validation.DNS1123SubdomainMaxLength-len(jobPrefix))
	return name
}

// ToRFC1123Label converts an arbitrary string to a label-safe value:
// lowercase alphanumerics, '-' and '.', at most 63 characters, starting
// and ending alphanumeric.
func ToRFC1123Label(s string) string {
	return sanitize(s, validation.LabelValueMaxLength)
}

func sanitize(s string, maxLen int) string {
	s = strings.ToLower(s)
	s = invalidChars.ReplaceAllString(s, "-")
	s = trimNonAlnum(s)
	if len(s) > maxLen {
		s = trimNonAlnum(s[:maxLen])
	}
	if s == "" {
		return "x"
	}
	return s
}

func trimNonAlnum(s string) string {
	isAlnum := func(b byte) bool {
		return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
	}
	for len(s) > 0 && !isAlnum(s[0]) {
		s = s[1:]
	}
	for len(s) > 0 && !isAlnum(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}
