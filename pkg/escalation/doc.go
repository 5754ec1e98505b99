// Package escalation delivers notifications once a Check exhausts its
// retry attempts. Escalation types are capability objects behind a
// string-keyed registry, so new kinds can be added without touching the
// state machine. Built-ins: email (SMTP) and slack (incoming webhook).
package escalation
