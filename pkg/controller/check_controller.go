package controller

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	batchv1 "k8s.io/api/batch/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrlcontroller "sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
	"github.com/mozalert/check-operator/pkg/escalation"
	"github.com/mozalert/check-operator/pkg/metrics"
	"github.com/mozalert/check-operator/pkg/naming"
	"github.com/mozalert/check-operator/pkg/scheduler"
	"github.com/mozalert/check-operator/pkg/statemachine"
	"github.com/mozalert/check-operator/pkg/utils"
)

const (
	// CheckFinalizer guards Job cleanup on Check deletion.
	CheckFinalizer = "checks.mozalert.org/finalizer"

	// configErrorRequeue is the revalidation cadence for Checks whose
	// intervals cannot even be parsed. Checks with valid intervals but a
	// broken script reference re-probe at their own check_interval.
	configErrorRequeue = 5 * time.Minute
)

// Runner executes one check run. Implemented by *executor.Executor.
type Runner interface {
	Run(ctx context.Context, check *checksv1alpha1.Check, iv checksv1alpha1.Intervals) (statemachine.Outcome, error)
}

// Dispatcher fires escalation notifications. Implemented by
// *escalation.Dispatcher.
type Dispatcher interface {
	DispatchAll(ctx context.Context, check *checksv1alpha1.Check, n escalation.Notification) int
	Forget(key types.NamespacedName)
}

// CheckReconciler drives the Check lifecycle: it decides when a run is
// due, executes it, folds the outcome through the state machine, fires
// escalations, and persists status. Per-resource serialization comes
// from the controller-runtime workqueue; within one Check everything
// here is sequential.
type CheckReconciler struct {
	client.Client
	Scheme     *runtime.Scheme
	Log        *zap.SugaredLogger
	Runner     Runner
	Dispatcher Dispatcher

	// DefaultTimeout applies to Checks without spec.timeout.
	DefaultTimeout time.Duration
	// MaxConcurrentReconciles bounds parallel check runs.
	MaxConcurrentReconciles int

	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

func (r *CheckReconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// SetupWithManager registers the reconciler with the manager.
func (r *CheckReconciler) SetupWithManager(mgr ctrl.Manager) error {
	workers := r.MaxConcurrentReconciles
	if workers <= 0 {
		workers = 4
	}
	return ctrl.NewControllerManagedBy(mgr).
		For(&checksv1alpha1.Check{}).
		Owns(&batchv1.Job{}).
		WithOptions(ctrlcontroller.Options{MaxConcurrentReconciles: workers}).
		Named("check").
		Complete(r)
}

func (r *CheckReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := r.Log.With("check", req.NamespacedName)

	check := &checksv1alpha1.Check{}
	if err := r.Get(ctx, req.NamespacedName, check); err != nil {
		if apierrors.IsNotFound(err) {
			r.Dispatcher.Forget(req.NamespacedName)
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if !check.DeletionTimestamp.IsZero() {
		return r.finalize(ctx, check, log)
	}

	if !controllerutil.ContainsFinalizer(check, CheckFinalizer) {
		controllerutil.AddFinalizer(check, CheckFinalizer)
		if err := r.Update(ctx, check); err != nil {
			return ctrl.Result{}, err
		}
	}

	if res := checksv1alpha1.ValidateCheck(check); !res.IsValid() {
		return r.configError(ctx, check, log, res.ErrorMessage(), configErrorRequeue, check.Status.State)
	}
	iv, err := checksv1alpha1.NormalizeIntervals(check.Spec, r.DefaultTimeout)
	if err != nil {
		return r.configError(ctx, check, log, err.Error(), configErrorRequeue, check.Status.State)
	}

	now := r.now()

	// A Check stuck in Running longer than its timeout means a previous
	// controller died mid-run. The run's real result is unknowable, so it
	// counts as an infrastructure error and the cycle continues from
	// there.
	if check.Status.State == checksv1alpha1.CheckStateRunning {
		staleAt := now
		if check.Status.LastCheck != nil {
			staleAt = check.Status.LastCheck.Time.Add(iv.Timeout)
		}
		if now.Before(staleAt) {
			return ctrl.Result{RequeueAfter: staleAt.Sub(now)}, nil
		}
		log.Warnw("Recovering check stuck in Running state", "since", check.Status.LastCheck)
		metrics.CrashRecoveries.WithLabelValues(check.Namespace, check.Name).Inc()
		outcome := statemachine.Outcome{
			Kind:    statemachine.OutcomeInfrastructureError,
			Message: "controller restarted while the check was running",
		}
		return r.settle(ctx, check, check.Status, iv, outcome, now, log)
	}

	if !r.triggered(check, now) {
		if res := scheduler.Decide(check.Status, now); res.Decision == scheduler.Skip {
			wake := res.NextWake.Sub(now)
			if wake <= 0 {
				wake = time.Second
			}
			return ctrl.Result{RequeueAfter: wake}, nil
		}
	}

	// Mark Running before launching so a crash mid-run is recoverable
	// from stored state alone. The settled state is kept aside: the state
	// machine needs it to tell a recovery from a plain success.
	prev := *check.Status.DeepCopy()
	startedAt := metav1.NewTime(now)
	err = utils.UpdateCheckStatus(ctx, r.Client, check, func(ch *checksv1alpha1.Check) {
		ch.Status.State = checksv1alpha1.CheckStateRunning
		ch.Status.LastCheck = &startedAt
	})
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("marking check running: %w", err)
	}

	outcome, runErr := r.Runner.Run(ctx, check, iv)
	if runErr != nil {
		if ctx.Err() != nil {
			// Shutdown or deletion cancelled the run. Leave status as is;
			// crash recovery sorts it out on the next pass.
			return ctrl.Result{}, runErr
		}
		// Permanent configuration error discovered at run time, e.g. a
		// missing Secret or ConfigMap. Re-probed at check cadence.
		return r.configError(ctx, check, log, runErr.Error(), iv.Check, prev.State)
	}

	return r.settle(ctx, check, prev, iv, outcome, r.now(), log)
}

// settle folds one outcome through the state machine, fires escalations
// when indicated, and persists the resulting status.
func (r *CheckReconciler) settle(ctx context.Context, check *checksv1alpha1.Check, prev checksv1alpha1.CheckStatus, iv checksv1alpha1.Intervals, outcome statemachine.Outcome, now time.Time, log *zap.SugaredLogger) (ctrl.Result, error) {
	result := statemachine.Transition(prev, outcome, check.EffectiveMaxAttempts(), now)
	next := metav1.NewTime(scheduler.ComputeNext(iv, result.Status.State, now))
	result.Status.NextCheck = &next

	metrics.CheckRuns.WithLabelValues(check.Namespace, check.Name, string(outcome.Kind)).Inc()
	escalated := 0.0
	if result.Status.State == checksv1alpha1.CheckStateEscalated {
		escalated = 1
	}
	metrics.ChecksEscalated.WithLabelValues(check.Namespace, check.Name).Set(escalated)

	if result.Escalate {
		n := escalation.Notification{
			Name:        check.Name,
			Namespace:   check.Namespace,
			State:       result.Status.State,
			Status:      result.Status.Status,
			Attempt:     result.Status.Attempt,
			MaxAttempts: check.EffectiveMaxAttempts(),
			LastCheck:   now,
			Logs:        result.Status.Logs,
			Recovery:    result.Recovery,
		}
		delivered := r.Dispatcher.DispatchAll(ctx, check, n)
		log.Infow("Escalations dispatched",
			"state", result.Status.State, "delivered", delivered, "recovery", result.Recovery)
	}

	err := utils.UpdateCheckStatus(ctx, r.Client, check, func(ch *checksv1alpha1.Check) {
		ch.Status = result.Status
	})
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("persisting check status: %w", err)
	}

	log.Infow("Check settled",
		"state", result.Status.State, "attempt", result.Status.Attempt, "next", next.Time)
	return ctrl.Result{RequeueAfter: next.Time.Sub(r.now())}, nil
}

// configError surfaces a permanent configuration problem in status and
// freezes the retry cycle until the spec changes or the reference
// appears. State and attempt stay where they were.
func (r *CheckReconciler) configError(ctx context.Context, check *checksv1alpha1.Check, log *zap.SugaredLogger, message string, requeue time.Duration, restore checksv1alpha1.CheckState) (ctrl.Result, error) {
	text := "configuration error: " + message
	metrics.CheckRuns.WithLabelValues(check.Namespace, check.Name, "ConfigError").Inc()

	if restore == "" || restore == checksv1alpha1.CheckStateRunning {
		restore = checksv1alpha1.CheckStatePending
	}
	err := utils.UpdateCheckStatus(ctx, r.Client, check, func(ch *checksv1alpha1.Check) {
		ch.Status.Status = text
		ch.Status.State = restore
		next := metav1.NewTime(r.now().Add(requeue))
		ch.Status.NextCheck = &next
	})
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("persisting configuration error: %w", err)
	}

	log.Warnw("Check has a configuration error", "error", message)
	return ctrl.Result{RequeueAfter: requeue}, nil
}

// triggered reports whether the trigger annotation requests a run newer
// than the last one.
func (r *CheckReconciler) triggered(check *checksv1alpha1.Check, now time.Time) bool {
	raw, ok := check.Annotations[checksv1alpha1.TriggerAnnotation]
	if !ok {
		return false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil || ts.After(now) {
		return false
	}
	return check.Status.LastCheck == nil || ts.After(check.Status.LastCheck.Time)
}

// finalize garbage-collects the Check's workload and releases the
// finalizer.
func (r *CheckReconciler) finalize(ctx context.Context, check *checksv1alpha1.Check, log *zap.SugaredLogger) (ctrl.Result, error) {
	if !controllerutil.ContainsFinalizer(check, CheckFinalizer) {
		return ctrl.Result{}, nil
	}

	job := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{
		Name:      naming.JobName(check.Name),
		Namespace: check.Namespace,
	}}
	err := r.Delete(ctx, job, client.PropagationPolicy(metav1.DeletePropagationForeground))
	if err != nil && !apierrors.IsNotFound(err) {
		return ctrl.Result{}, fmt.Errorf("deleting check job: %w", err)
	}

	r.Dispatcher.Forget(types.NamespacedName{Namespace: check.Namespace, Name: check.Name})
	metrics.ChecksEscalated.DeleteLabelValues(check.Namespace, check.Name)

	controllerutil.RemoveFinalizer(check, CheckFinalizer)
	if err := r.Update(ctx, check); err != nil {
		return ctrl.Result{}, err
	}
	log.Infow("Check finalized")
	return ctrl.Result{}, nil
}
