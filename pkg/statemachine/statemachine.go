package statemachine

import (
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

// OutcomeKind classifies how a single check run ended.
type OutcomeKind string

const (
	// OutcomeSuccess means the script exited zero.
	OutcomeSuccess OutcomeKind = "Success"
	// OutcomeScriptFailure means the script ran and exited non-zero.
	OutcomeScriptFailure OutcomeKind = "ScriptFailure"
	// OutcomeTimeout means the run exceeded the check's timeout and was
	// terminated.
	OutcomeTimeout OutcomeKind = "Timeout"
	// OutcomeInfrastructureError means the workload could not be run or
	// observed to completion. Counted as a failure like the others; the
	// transient-error retries happen below this layer.
	OutcomeInfrastructureError OutcomeKind = "InfrastructureError"
)

// Outcome is the interpreted result of one check run.
type Outcome struct {
	Kind      OutcomeKind
	Logs      string
	Telemetry map[string]string
	// Message carries detail for non-success outcomes (exit status text,
	// timeout duration, infrastructure cause).
	Message string
}

// Failed reports whether this outcome counts toward the attempt counter.
func (o Outcome) Failed() bool { return o.Kind != OutcomeSuccess }

// Result is the computed status transition for one outcome.
type Result struct {
	// Status is the full next status document for the Check (next_check
	// excluded; the scheduler owns that).
	Status checksv1alpha1.CheckStatus
	// Escalate is true when the transition requires firing every
	// escalation descriptor.
	Escalate bool
	// Recovery is true when an Escalated check just succeeded; the
	// dispatcher sends recovery notifications instead of alerts.
	Recovery bool
}

// Transition is the authoritative per-resource lifecycle step: it folds
// one run outcome into the stored status and decides between success,
// retry and escalation. It never mutates its inputs and never touches
// the spec.
//
// Attempt accounting: attempt resets to 0 exactly on a transition into
// Success. On failure it increments until it reaches maxAttempts, where
// the Check enters Escalated; while Escalated every still-failing probe
// re-fires the escalations without counting past maxAttempts, so the
// 0 <= attempt <= max_attempts invariant holds at all times.
func Transition(prev checksv1alpha1.CheckStatus, outcome Outcome, maxAttempts int, now time.Time) Result {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	next := *prev.DeepCopy()
	last := metav1.NewTime(now)
	next.LastCheck = &last
	next.Logs = outcome.Logs
	next.Telemetry = outcome.Telemetry

	if !outcome.Failed() {
		recovery := prev.State == checksv1alpha1.CheckStateEscalated
		next.State = checksv1alpha1.CheckStateSuccess
		next.Attempt = 0
		next.Status = "OK"
		return Result{Status: next, Recovery: recovery, Escalate: recovery}
	}

	attempt := prev.Attempt + 1
	if attempt > maxAttempts {
		attempt = maxAttempts
	}
	next.Attempt = attempt
	next.Status = failureSummary(outcome, attempt, maxAttempts)

	if attempt < maxAttempts {
		next.State = checksv1alpha1.CheckStateFailing
		return Result{Status: next}
	}

	next.State = checksv1alpha1.CheckStateEscalated
	return Result{Status: next, Escalate: true}
}

func failureSummary(outcome Outcome, attempt, maxAttempts int) string {
	switch outcome.Kind {
	case OutcomeTimeout:
		return fmt.Sprintf("timed out (attempt %d/%d)", attempt, maxAttempts)
	case OutcomeInfrastructureError:
		return fmt.Sprintf("infrastructure error: %s (attempt %d/%d)", outcome.Message, attempt, maxAttempts)
	default:
		if outcome.Message != "" {
			return fmt.Sprintf("check failed: %s (attempt %d/%d)", outcome.Message, attempt, maxAttempts)
		}
		return fmt.Sprintf("check failed (attempt %d/%d)", attempt, maxAttempts)
	}
}
