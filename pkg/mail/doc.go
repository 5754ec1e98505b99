// Package mail provides the SMTP sender and asynchronous retry queue
// backing the built-in email escalation type.
package mail
