// Package reconciler bootstraps the controller-runtime manager and
// registers the Check reconciler and its supporting runnables.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/mozalert/check-operator/pkg/controller"
	"github.com/mozalert/check-operator/pkg/escalation"
)

// Options configures the manager and the Check reconciler.
type Options struct {
	MetricsAddr             string
	ProbeAddr               string
	EnableLeaderElection    bool
	LeaderElectID           string
	DefaultTimeout          time.Duration
	MaxConcurrentReconciles int
	MonitorInterval         time.Duration
}

// NewManager builds the controller-runtime manager: metrics endpoint,
// health probes and optional leader election.
func NewManager(restCfg *rest.Config, scheme *runtime.Scheme, opts Options) (ctrl.Manager, error) {
	return ctrl.NewManager(restCfg, ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: opts.MetricsAddr},
		HealthProbeBindAddress: opts.ProbeAddr,
		LeaderElection:         opts.EnableLeaderElection,
		LeaderElectionID:       opts.LeaderElectID,
	})
}

// Setup wires the Check reconciler and the sanity monitor into the
// manager and starts it. Blocks until the context is cancelled.
func Setup(ctx context.Context, mgr ctrl.Manager, dispatcher *escalation.Dispatcher, runner controller.Runner, opts Options, log *zap.SugaredLogger) error {
	if err := mgr.AddHealthzCheck("ping", healthz.Ping); err != nil {
		return fmt.Errorf("adding healthz check: %w", err)
	}
	if err := mgr.AddReadyzCheck("ping", healthz.Ping); err != nil {
		return fmt.Errorf("adding readyz check: %w", err)
	}
	log.Info("Health check handlers registered")

	checkReconciler := &controller.CheckReconciler{
		Client:                  mgr.GetClient(),
		Scheme:                  mgr.GetScheme(),
		Log:                     log,
		Runner:                  runner,
		Dispatcher:              dispatcher,
		DefaultTimeout:          opts.DefaultTimeout,
		MaxConcurrentReconciles: opts.MaxConcurrentReconciles,
	}
	if err := checkReconciler.SetupWithManager(mgr); err != nil {
		return fmt.Errorf("setting up check reconciler: %w", err)
	}
	log.Infow("Registered check reconciler",
		"defaultTimeout", opts.DefaultTimeout, "workers", opts.MaxConcurrentReconciles)

	monitor := &controller.SanityMonitor{
		Client:   mgr.GetClient(),
		Log:      log,
		Interval: opts.MonitorInterval,
	}
	if err := mgr.Add(monitor); err != nil {
		return fmt.Errorf("adding sanity monitor: %w", err)
	}

	log.Info("Starting manager")
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("manager exited: %w", err)
	}
	return nil
}

// NewClientset builds the typed clientset the executor needs for pod
// log streaming, which the controller-runtime client does not cover.
func NewClientset(restCfg *rest.Config) (kubernetes.Interface, error) {
	cs, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("building clientset: %w", err)
	}
	return cs, nil
}
