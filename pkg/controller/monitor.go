package controller

import (
	"context"
	"time"

	"go.uber.org/zap"
	"sigs.k8s.io/controller-runtime/pkg/client"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
	"github.com/mozalert/check-operator/pkg/metrics"
)

const (
	defaultMonitorInterval = 5 * time.Minute
	// monitorGrace is how far next_check may lag before the monitor
	// considers the schedule broken. Requeue jitter alone never gets
	// close to this.
	monitorGrace = time.Minute
)

// SanityMonitor is a periodic safety net behind the event-driven
// reconciler: it lists all Checks and flags any whose next_check is in
// the past while no run is in flight, which indicates a lost requeue.
// Added to the manager as a Runnable; runs only on the leader.
type SanityMonitor struct {
	Client   client.Client
	Log      *zap.SugaredLogger
	Interval time.Duration

	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

// NeedLeaderElection gates the monitor on manager leadership.
func (m *SanityMonitor) NeedLeaderElection() bool { return true }

// Start runs the monitor loop until the context is cancelled.
func (m *SanityMonitor) Start(ctx context.Context) error {
	interval := m.Interval
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	log := m.Log.Named("monitor")
	log.Infow("Sanity monitor started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Sanity monitor stopped")
			return nil
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				log.Warnw("Sanity sweep found overdue checks", "overdue", n)
			}
		}
	}
}

// Sweep inspects every Check once and returns how many were overdue.
func (m *SanityMonitor) Sweep(ctx context.Context) int {
	log := m.Log.Named("monitor")

	list := &checksv1alpha1.CheckList{}
	if err := m.Client.List(ctx, list); err != nil {
		log.Errorw("Cannot list checks", "error", err)
		return 0
	}

	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}

	overdue := 0
	for i := range list.Items {
		check := &list.Items[i]
		if check.Status.State == checksv1alpha1.CheckStateRunning {
			continue
		}
		if check.Status.NextCheck == nil || check.Status.NextCheck.IsZero() {
			continue
		}
		if now.Sub(check.Status.NextCheck.Time) < monitorGrace {
			continue
		}
		overdue++
		metrics.SanityCheckFailures.Inc()
		log.Warnw("Check is overdue",
			"check", check.Namespace+"/"+check.Name,
			"state", check.Status.State,
			"next_check", check.Status.NextCheck.Time)
	}
	return overdue
}
