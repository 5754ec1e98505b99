package statemachine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fail(kind OutcomeKind) Outcome {
	return Outcome{Kind: kind, Message: "exit status 1", Logs: "boom"}
}

func TestTransition_Success(t *testing.T) {
	res := Transition(checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStatePending}, Outcome{
		Kind:      OutcomeSuccess,
		Logs:      "all good",
		Telemetry: map[string]string{"latency": "42"},
	}, 3, t0)

	assert.Equal(t, checksv1alpha1.CheckStateSuccess, res.Status.State)
	assert.Equal(t, 0, res.Status.Attempt)
	assert.Equal(t, "OK", res.Status.Status)
	assert.Equal(t, "all good", res.Status.Logs)
	assert.Equal(t, "42", res.Status.Telemetry["latency"])
	assert.False(t, res.Escalate)
	assert.False(t, res.Recovery)
	require.NotNil(t, res.Status.LastCheck)
	assert.Equal(t, t0, res.Status.LastCheck.Time)
}

// Three consecutive failures with max_attempts=3 walk
// Pending -> Failing -> Failing -> Escalated, escalating exactly once
// at the transition into Escalated.
func TestTransition_EscalatesAfterMaxAttempts(t *testing.T) {
	status := checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStatePending}

	res := Transition(status, fail(OutcomeScriptFailure), 3, t0)
	assert.Equal(t, checksv1alpha1.CheckStateFailing, res.Status.State)
	assert.Equal(t, 1, res.Status.Attempt)
	assert.False(t, res.Escalate)

	res = Transition(res.Status, fail(OutcomeScriptFailure), 3, t0.Add(3*time.Minute))
	assert.Equal(t, checksv1alpha1.CheckStateFailing, res.Status.State)
	assert.Equal(t, 2, res.Status.Attempt)
	assert.False(t, res.Escalate)

	res = Transition(res.Status, fail(OutcomeScriptFailure), 3, t0.Add(6*time.Minute))
	assert.Equal(t, checksv1alpha1.CheckStateEscalated, res.Status.State)
	assert.Equal(t, 3, res.Status.Attempt)
	assert.True(t, res.Escalate)
	assert.False(t, res.Recovery)
}

func TestTransition_EscalatedStillFailingRefires(t *testing.T) {
	status := checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStateEscalated, Attempt: 3}

	res := Transition(status, fail(OutcomeScriptFailure), 3, t0)
	assert.Equal(t, checksv1alpha1.CheckStateEscalated, res.Status.State)
	assert.Equal(t, 3, res.Status.Attempt, "attempt stays clamped at max_attempts")
	assert.True(t, res.Escalate, "still-failing probe re-fires all descriptors")
}

func TestTransition_RecoveryFromEscalated(t *testing.T) {
	status := checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStateEscalated, Attempt: 3}

	res := Transition(status, Outcome{Kind: OutcomeSuccess}, 3, t0)
	assert.Equal(t, checksv1alpha1.CheckStateSuccess, res.Status.State)
	assert.Equal(t, 0, res.Status.Attempt)
	assert.True(t, res.Recovery)
	assert.True(t, res.Escalate, "recovery notification goes through the dispatcher")
}

func TestTransition_AllFailureKindsCount(t *testing.T) {
	for _, kind := range []OutcomeKind{OutcomeScriptFailure, OutcomeTimeout, OutcomeInfrastructureError} {
		t.Run(string(kind), func(t *testing.T) {
			res := Transition(checksv1alpha1.CheckStatus{}, fail(kind), 3, t0)
			assert.Equal(t, checksv1alpha1.CheckStateFailing, res.Status.State)
			assert.Equal(t, 1, res.Status.Attempt)
		})
	}
}

// attempt never leaves [0, max_attempts] no matter how many failures or
// successes are folded in.
func TestTransition_AttemptBounds(t *testing.T) {
	const maxAttempts = 3
	status := checksv1alpha1.CheckStatus{}

	for i := 0; i < 10; i++ {
		res := Transition(status, fail(OutcomeScriptFailure), maxAttempts, t0.Add(time.Duration(i)*time.Minute))
		assert.GreaterOrEqual(t, res.Status.Attempt, 0)
		assert.LessOrEqual(t, res.Status.Attempt, maxAttempts)
		status = res.Status
	}

	res := Transition(status, Outcome{Kind: OutcomeSuccess}, maxAttempts, t0.Add(time.Hour))
	assert.Equal(t, 0, res.Status.Attempt)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	prev := checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStateFailing, Attempt: 1, Logs: "old"}
	_ = Transition(prev, fail(OutcomeScriptFailure), 3, t0)

	assert.Equal(t, 1, prev.Attempt)
	assert.Equal(t, "old", prev.Logs)
	assert.Nil(t, prev.LastCheck)
}

func TestFailureSummaries(t *testing.T) {
	res := Transition(checksv1alpha1.CheckStatus{}, Outcome{Kind: OutcomeTimeout}, 3, t0)
	assert.Contains(t, res.Status.Status, "timed out")

	res = Transition(checksv1alpha1.CheckStatus{}, Outcome{Kind: OutcomeInfrastructureError, Message: "job create failed"}, 3, t0)
	assert.Contains(t, res.Status.Status, "infrastructure error")
	assert.Contains(t, res.Status.Status, "job create failed")
}
