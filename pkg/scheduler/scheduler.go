package scheduler

import (
	"time"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

// Decision is the outcome of a scheduling pass for one Check.
type Decision int

const (
	// Skip means nothing is due; the caller should requeue at NextWake.
	Skip Decision = iota
	// RunNow means a check run is due immediately.
	RunNow
)

func (d Decision) String() string {
	if d == RunNow {
		return "RunNow"
	}
	return "Skip"
}

// Result carries the decision plus the wake-up time for a Skip.
type Result struct {
	Decision Decision
	// NextWake is when the caller should look again. Zero for RunNow.
	NextWake time.Time
}

// Decide is a pure function from a Check's normalized spec and stored
// status to whether a run is due at now. It performs no I/O.
//
// A run is due when the stored next_check has been reached in any settled
// state, or when the Check has never been scheduled at all. Running is
// never due here; in-flight and crash-recovery handling belong to the
// reconciler.
func Decide(status checksv1alpha1.CheckStatus, now time.Time) Result {
	if status.State == checksv1alpha1.CheckStateRunning {
		return Result{Decision: Skip, NextWake: now}
	}
	if status.NextCheck == nil || status.NextCheck.Time.IsZero() {
		return Result{Decision: RunNow}
	}
	if !now.Before(status.NextCheck.Time) {
		return Result{Decision: RunNow}
	}
	return Result{Decision: Skip, NextWake: status.NextCheck.Time}
}

// ComputeNext returns the next_check following a completed run, based on
// the state the run left the Check in:
//
//	Success   -> now + check_interval
//	Failing   -> now + retry_interval (mid-retry cadence)
//	Escalated -> now + notification_interval (re-probe while escalated)
//
// Any other state re-probes at the check interval.
func ComputeNext(iv checksv1alpha1.Intervals, state checksv1alpha1.CheckState, now time.Time) time.Time {
	switch state {
	case checksv1alpha1.CheckStateFailing:
		return now.Add(iv.Retry)
	case checksv1alpha1.CheckStateEscalated:
		return now.Add(iv.Notification)
	default:
		return now.Add(iv.Check)
	}
}
