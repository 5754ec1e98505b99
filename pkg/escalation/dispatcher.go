package escalation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"k8s.io/apimachinery/pkg/types"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
	"github.com/mozalert/check-operator/pkg/metrics"
)

const (
	// dispatchTimeout bounds one delivery attempt.
	dispatchTimeout = 30 * time.Second
	// limiterRate/limiterBurst bound notification storms per Check.
	limiterRate  = rate.Limit(1.0 / 30) // one delivery batch per 30s sustained
	limiterBurst = 10
)

// Dispatcher fires the escalation descriptors of a Check, best-effort
// and independently per descriptor. Delivery failures are logged and
// counted but never propagate: escalation is not allowed to fail a
// reconciliation.
type Dispatcher struct {
	registry *Registry
	deps     Deps
	log      *zap.SugaredLogger

	mu       sync.Mutex
	limiters map[types.NamespacedName]*rate.Limiter
}

// NewDispatcher builds a dispatcher over the given registry and
// delivery dependencies.
func NewDispatcher(registry *Registry, deps Deps, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		deps:     deps,
		log:      log.Named("escalation"),
		limiters: map[types.NamespacedName]*rate.Limiter{},
	}
}

// DispatchAll delivers the notification through every descriptor of the
// Check. Each descriptor is attempted regardless of earlier failures.
// Returns the number of successful deliveries.
func (d *Dispatcher) DispatchAll(ctx context.Context, check *checksv1alpha1.Check, n Notification) int {
	if len(check.Spec.Escalations) == 0 {
		return 0
	}

	key := types.NamespacedName{Namespace: check.Namespace, Name: check.Name}
	if !d.limiter(key).Allow() {
		d.log.Warnw("Escalation throttled", "check", key)
		metrics.EscalationsThrottled.WithLabelValues(check.Namespace, check.Name).Inc()
		return 0
	}

	delivered := 0
	for i, desc := range check.Spec.Escalations {
		log := d.log.With("check", key, "type", desc.Type, "index", i)

		esc, err := d.registry.New(desc, d.deps)
		if err != nil {
			// Malformed descriptor: configuration error, visible in
			// logs and metrics, never fatal.
			log.Errorw("Cannot build escalation", "error", err)
			metrics.EscalationsFired.WithLabelValues(desc.Type, "config_error").Inc()
			continue
		}

		deliverCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
		err = esc.Deliver(deliverCtx, n)
		cancel()
		if err != nil {
			log.Errorw("Escalation delivery failed", "error", err)
			metrics.EscalationsFired.WithLabelValues(desc.Type, "error").Inc()
			continue
		}

		log.Infow("Escalation delivered", "recovery", n.Recovery)
		metrics.EscalationsFired.WithLabelValues(desc.Type, "ok").Inc()
		delivered++
	}
	return delivered
}

func (d *Dispatcher) limiter(key types.NamespacedName) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[key]
	if !ok {
		l = rate.NewLimiter(limiterRate, limiterBurst)
		d.limiters[key] = l
	}
	return l
}

// Forget drops the rate-limiter state for a deleted Check.
func (d *Dispatcher) Forget(key types.NamespacedName) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.limiters, key)
}
