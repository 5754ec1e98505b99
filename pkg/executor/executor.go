package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
	"github.com/mozalert/check-operator/pkg/metrics"
	"github.com/mozalert/check-operator/pkg/naming"
	"github.com/mozalert/check-operator/pkg/statemachine"
)

const (
	// CheckLabel marks workload objects with the owning Check's name.
	CheckLabel = "checks.mozalert.org/check"

	defaultPollInterval = 2 * time.Second
)

// ConfigError marks a permanent configuration problem (missing Secret or
// ConfigMap, unusable template). It is surfaced in status.status and not
// retried until the spec changes.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a permanent configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Executor turns a due Check into a batch/v1 Job, waits for it to finish
// within the check's timeout, and interprets the result. The Job and its
// pods are reclaimed after outcome capture regardless of how the run
// ended.
type Executor struct {
	Client    client.Client
	Clientset kubernetes.Interface
	Scheme    *runtime.Scheme
	HTTP      *resty.Client
	Log       *zap.SugaredLogger

	// PollInterval overrides the Job status poll cadence, for tests.
	PollInterval time.Duration
}

func (e *Executor) pollInterval() time.Duration {
	if e.PollInterval > 0 {
		return e.PollInterval
	}
	return defaultPollInterval
}

// Run executes one check run. The returned error is non-nil only for a
// permanent ConfigError or a cancelled context; transient infrastructure
// problems come back as an OutcomeInfrastructureError outcome so they
// count toward the attempt counter like any other failure.
func (e *Executor) Run(ctx context.Context, check *checksv1alpha1.Check, iv checksv1alpha1.Intervals) (statemachine.Outcome, error) {
	log := e.Log.With("check", check.Namespace+"/"+check.Name)
	started := time.Now()

	ctx, span := otel.Tracer("check-operator/executor").Start(ctx, "check.run")
	span.SetAttributes(
		attribute.String("check.namespace", check.Namespace),
		attribute.String("check.name", check.Name),
	)
	defer span.End()

	defer func() {
		metrics.CheckRunDuration.WithLabelValues(check.Namespace, check.Name).Observe(time.Since(started).Seconds())
	}()

	script, err := e.resolveScript(ctx, check)
	if err != nil {
		return e.asOutcome(ctx, err)
	}
	secure, err := e.resolveSecret(ctx, check)
	if err != nil {
		return e.asOutcome(ctx, err)
	}

	job, err := e.buildJob(check, script, secure)
	if err != nil {
		return e.asOutcome(ctx, err)
	}

	if err := e.createJob(ctx, job); err != nil {
		return e.asOutcome(ctx, err)
	}
	// Reclaim the Job and its pods whatever happens, even if the run was
	// cancelled by operator shutdown.
	defer e.deleteJob(context.WithoutCancel(ctx), job, log)

	kind, message, waitErr := e.awaitJob(ctx, job, iv.Timeout)
	if waitErr != nil {
		return statemachine.Outcome{}, waitErr
	}

	// Logs are captured before the deferred Job deletion tears the pods
	// down. Log capture is best-effort: a run without logs is still a run.
	logs, telemetry := e.captureLogs(ctx, check)
	e.recordTelemetry(check, telemetry)

	span.SetAttributes(attribute.String("check.outcome", string(kind)))
	log.Infow("Check run finished",
		"outcome", kind, "runtime", time.Since(started).Round(time.Second))

	return statemachine.Outcome{
		Kind:      kind,
		Logs:      logs,
		Telemetry: telemetry,
		Message:   message,
	}, nil
}

// asOutcome folds a resolution or creation error into the right channel:
// config errors and cancellations propagate, everything else becomes an
// infrastructure-error outcome.
func (e *Executor) asOutcome(ctx context.Context, err error) (statemachine.Outcome, error) {
	if IsConfigError(err) {
		return statemachine.Outcome{}, err
	}
	if ctx.Err() != nil {
		return statemachine.Outcome{}, ctx.Err()
	}
	return statemachine.Outcome{
		Kind:    statemachine.OutcomeInfrastructureError,
		Message: err.Error(),
	}, nil
}

func (e *Executor) buildJob(check *checksv1alpha1.Check, script string, secure map[string][]byte) (*batchv1.Job, error) {
	labels := map[string]string{
		"app":      naming.ToRFC1123Label(check.Name),
		CheckLabel: naming.ToRFC1123Label(check.Name),
	}

	tpl, err := podTemplate(check, script, secure, labels)
	if err != nil {
		return nil, err
	}

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      naming.JobName(check.Name),
			Namespace: check.Namespace,
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			// A failed pod is a failed run; retries are the state
			// machine's job, not the Job controller's.
			BackoffLimit: ptr.To[int32](0),
			Template:     *tpl,
		},
	}

	if err := controllerutil.SetControllerReference(check, job, e.Scheme); err != nil {
		return nil, fmt.Errorf("setting owner reference: %w", err)
	}
	return job, nil
}

func podTemplate(check *checksv1alpha1.Check, script string, secure map[string][]byte, labels map[string]string) (*corev1.PodTemplateSpec, error) {
	env := checkEnv(check, secure)

	if check.Spec.Template != nil {
		tpl := check.Spec.Template.DeepCopy()
		if len(tpl.Spec.Containers) == 0 {
			return nil, configErrorf("spec.template has no containers")
		}
		if tpl.Labels == nil {
			tpl.Labels = map[string]string{}
		}
		for k, v := range labels {
			tpl.Labels[k] = v
		}
		c := &tpl.Spec.Containers[0]
		c.Env = append(c.Env, env...)
		if script != "" && len(c.Command) == 0 {
			c.Command = []string{"/bin/sh", "-ec", script}
		}
		if tpl.Spec.RestartPolicy == "" {
			tpl.Spec.RestartPolicy = corev1.RestartPolicyNever
		}
		return tpl, nil
	}

	container := corev1.Container{
		Name:  "check",
		Image: check.Spec.Image,
		Args:  check.Spec.Args,
		Env:   env,
	}
	if script != "" {
		container.Command = []string{"/bin/sh", "-ec", script}
	}
	return &corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: labels},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers:    []corev1.Container{container},
		},
	}, nil
}

// createJob creates the Job, replacing a leftover Job of the same name
// from an interrupted earlier run.
func (e *Executor) createJob(ctx context.Context, job *batchv1.Job) error {
	err := e.Client.Create(ctx, job)
	if err == nil {
		return nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("creating job: %w", err)
	}

	e.Log.Infow("Replacing leftover job", "job", job.Namespace+"/"+job.Name)
	stale := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Name: job.Name, Namespace: job.Namespace}}
	if err := e.Client.Delete(ctx, stale, client.PropagationPolicy(metav1.DeletePropagationForeground)); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("deleting leftover job: %w", err)
	}

	key := types.NamespacedName{Namespace: job.Namespace, Name: job.Name}
	err = wait.PollUntilContextTimeout(ctx, e.pollInterval(), 2*time.Minute, true, func(ctx context.Context) (bool, error) {
		getErr := e.Client.Get(ctx, key, &batchv1.Job{})
		if apierrors.IsNotFound(getErr) {
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for leftover job to go away: %w", err)
	}

	job.ResourceVersion = ""
	if err := e.Client.Create(ctx, job); err != nil {
		return fmt.Errorf("creating job: %w", err)
	}
	return nil
}

// awaitJob polls the Job until it succeeds or fails, bounded by the
// check's timeout. The returned error is non-nil only when the parent
// context was cancelled; a timeout is a first-class outcome.
func (e *Executor) awaitJob(ctx context.Context, job *batchv1.Job, timeout time.Duration) (statemachine.OutcomeKind, string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	key := types.NamespacedName{Namespace: job.Namespace, Name: job.Name}
	var kind statemachine.OutcomeKind
	var message string

	err := wait.PollUntilContextCancel(runCtx, e.pollInterval(), true, func(ctx context.Context) (bool, error) {
		current := &batchv1.Job{}
		if getErr := e.Client.Get(ctx, key, current); getErr != nil {
			if apierrors.IsNotFound(getErr) {
				kind = statemachine.OutcomeInfrastructureError
				message = "job disappeared while running"
				return true, nil
			}
			// Transient read error, keep polling.
			return false, nil
		}
		switch {
		case current.Status.Succeeded > 0:
			kind = statemachine.OutcomeSuccess
			return true, nil
		case current.Status.Failed > 0:
			kind = statemachine.OutcomeScriptFailure
			message = jobFailureMessage(current)
			return true, nil
		}
		return false, nil
	})
	if err == nil {
		return kind, message, nil
	}
	if ctx.Err() != nil {
		// The reconciliation itself was cancelled; do not report an
		// outcome the controller would then persist.
		return "", "", ctx.Err()
	}
	return statemachine.OutcomeTimeout, fmt.Sprintf("timed out after %s", timeout), nil
}

func jobFailureMessage(job *batchv1.Job) string {
	for _, cond := range job.Status.Conditions {
		if cond.Type == batchv1.JobFailed && cond.Status == corev1.ConditionTrue && cond.Message != "" {
			return cond.Message
		}
	}
	return "job failed"
}

func (e *Executor) deleteJob(ctx context.Context, job *batchv1.Job, log *zap.SugaredLogger) {
	err := e.Client.Delete(ctx, job, client.PropagationPolicy(metav1.DeletePropagationForeground))
	if err != nil && !apierrors.IsNotFound(err) {
		log.Warnw("Cannot delete job", "job", job.Name, "error", err)
	}
}
