package main

import (
	"context"
	stdlog "log"
	"time"

	"github.com/go-logr/zapr"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
	"github.com/mozalert/check-operator/pkg/cli"
	"github.com/mozalert/check-operator/pkg/config"
	"github.com/mozalert/check-operator/pkg/escalation"
	"github.com/mozalert/check-operator/pkg/executor"
	"github.com/mozalert/check-operator/pkg/mail"
	"github.com/mozalert/check-operator/pkg/reconciler"
	"github.com/mozalert/check-operator/pkg/telemetry"
	"github.com/mozalert/check-operator/pkg/version"
)

func main() {
	flags := cli.Parse()

	zl := setupLogger(flags.Debug)
	// Route controller-runtime's logr through the same zap logger.
	ctrl.SetLogger(zapr.NewLogger(zl))
	log := zl.Sugar()

	log.With("version", version.String()).Info("Starting check operator")
	flags.Print(log)

	var cfg config.Config
	if flags.ConfigPath != "" {
		var err error
		cfg, err = config.Load(flags.ConfigPath)
		if err != nil {
			log.Fatalf("Error loading operator config: %v", err)
		}
	} else {
		cfg.Defaults()
	}

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		log.Fatalf("Error building scheme: %v", err)
	}
	if err := checksv1alpha1.AddToScheme(scheme); err != nil {
		log.Fatalf("Error registering check types: %v", err)
	}

	_, traceShutdown, err := telemetry.Init(context.Background(), telemetry.Options{
		Enabled:        flags.TracingEnabled,
		ServiceVersion: version.Version,
		Exporter:       flags.TracingExporter,
		Endpoint:       flags.TracingEndpoint,
		Insecure:       flags.TracingInsecure,
		Logger:         log,
	})
	if err != nil {
		log.Fatalf("Error initializing tracing: %v", err)
	}

	restCfg := ctrl.GetConfigOrDie()
	opts := reconciler.Options{
		MetricsAddr:             flags.MetricsAddr,
		ProbeAddr:               flags.ProbeAddr,
		EnableLeaderElection:    flags.EnableLeaderElection,
		LeaderElectID:           flags.LeaderElectID,
		DefaultTimeout:          flags.ParseDefaultCheckTimeout(log),
		MaxConcurrentReconciles: flags.MaxConcurrentReconciles,
		MonitorInterval:         flags.ParseMonitorInterval(log),
	}

	mgr, err := reconciler.NewManager(restCfg, scheme, opts)
	if err != nil {
		log.Fatalf("Error creating manager: %v", err)
	}
	clientset, err := reconciler.NewClientset(restCfg)
	if err != nil {
		log.Fatalf("Error creating clientset: %v", err)
	}

	httpClient := resty.New().SetRetryCount(2).SetTimeout(30 * time.Second)

	deps := escalation.Deps{HTTP: httpClient, Log: log}
	var queue *mail.Queue
	if cfg.MailConfigured() && !flags.DisableEmail {
		queue = mail.NewQueue(mail.NewSender(cfg.Mail, log), log,
			cfg.Mail.RetryCount, cfg.Mail.RetryBackoffMs, cfg.Mail.QueueSize)
		queue.Start()
		deps.Mail = queue
		log.Infow("Email escalations enabled", "host", cfg.Mail.Host)
	} else {
		log.Info("Email escalations disabled")
	}

	dispatcher := escalation.NewDispatcher(escalation.NewRegistry(), deps, log)
	runner := &executor.Executor{
		Client:    mgr.GetClient(),
		Clientset: clientset,
		Scheme:    scheme,
		HTTP:      httpClient,
		Log:       log,
	}

	ctx := ctrl.SetupSignalHandler()
	if err := reconciler.Setup(ctx, mgr, dispatcher, runner, opts, log); err != nil {
		log.Fatalf("Error running manager: %v", err)
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if queue != nil {
		if err := queue.Stop(drainCtx); err != nil {
			log.Warnw("Mail queue did not drain in time", "error", err)
		}
	}
	if err := traceShutdown(drainCtx); err != nil {
		log.Warnw("Trace flush failed", "error", err)
	}
	log.Info("Shutdown complete")
}

func setupLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	// Stacktraces on warnings are noise; errors carry enough context.
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return logger
}
