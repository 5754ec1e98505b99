package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

func testIntervals(t *testing.T) checksv1alpha1.Intervals {
	t.Helper()
	iv, err := checksv1alpha1.NormalizeIntervals(checksv1alpha1.CheckSpec{
		CheckInterval:        intstr.FromString("1m"),
		RetryInterval:        intstr.FromString("3m"),
		NotificationInterval: intstr.FromString("5m"),
	}, 5*time.Minute)
	require.NoError(t, err)
	return iv
}

func TestDecide(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	due := metav1.NewTime(now.Add(-time.Second))
	notDue := metav1.NewTime(now.Add(time.Minute))

	tests := []struct {
		name   string
		status checksv1alpha1.CheckStatus
		want   Decision
	}{
		{name: "never scheduled", status: checksv1alpha1.CheckStatus{}, want: RunNow},
		{name: "pending due", status: checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStatePending, NextCheck: &due}, want: RunNow},
		{name: "success due", status: checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStateSuccess, NextCheck: &due}, want: RunNow},
		{name: "failing due", status: checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStateFailing, NextCheck: &due}, want: RunNow},
		{name: "escalated due", status: checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStateEscalated, NextCheck: &due}, want: RunNow},
		{name: "success not due", status: checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStateSuccess, NextCheck: &notDue}, want: Skip},
		{name: "running never due", status: checksv1alpha1.CheckStatus{State: checksv1alpha1.CheckStateRunning, NextCheck: &due}, want: Skip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.status, now)
			assert.Equal(t, tt.want, got.Decision)
			if tt.want == Skip && tt.status.State != checksv1alpha1.CheckStateRunning {
				assert.Equal(t, tt.status.NextCheck.Time, got.NextWake)
			}
		})
	}
}

// ComputeNext followed by Decide at exactly next_check yields RunNow;
// one instant before yields Skip.
func TestComputeNextDecideRoundTrip(t *testing.T) {
	iv := testIntervals(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, state := range []checksv1alpha1.CheckState{
		checksv1alpha1.CheckStateSuccess,
		checksv1alpha1.CheckStateFailing,
		checksv1alpha1.CheckStateEscalated,
	} {
		t.Run(string(state), func(t *testing.T) {
			next := metav1.NewTime(ComputeNext(iv, state, now))
			status := checksv1alpha1.CheckStatus{State: state, NextCheck: &next}

			assert.Equal(t, RunNow, Decide(status, next.Time).Decision, "due exactly at next_check")
			assert.Equal(t, Skip, Decide(status, next.Time.Add(-time.Nanosecond)).Decision, "not due an instant before")
		})
	}
}

func TestComputeNextUsesStateInterval(t *testing.T) {
	iv := testIntervals(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(time.Minute), ComputeNext(iv, checksv1alpha1.CheckStateSuccess, now))
	assert.Equal(t, now.Add(3*time.Minute), ComputeNext(iv, checksv1alpha1.CheckStateFailing, now))
	assert.Equal(t, now.Add(5*time.Minute), ComputeNext(iv, checksv1alpha1.CheckStateEscalated, now))
	assert.Equal(t, now.Add(time.Minute), ComputeNext(iv, checksv1alpha1.CheckStatePending, now))
}
