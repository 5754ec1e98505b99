// Package executor runs a single check as a batch/v1 Job: it resolves
// the script body and secret material, launches the workload, waits for
// completion bounded by the check's timeout, captures logs and
// telemetry, and reclaims the Job afterwards.
package executor
