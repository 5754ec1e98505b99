package executor

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
	"github.com/mozalert/check-operator/pkg/metrics"
	"github.com/mozalert/check-operator/pkg/naming"
)

// maxLogBytes bounds status.logs; older output is dropped first.
const maxLogBytes = 64 << 10

// telemetryPattern matches "TELEMETRY: <key> <value>" lines emitted by
// check scripts.
var telemetryPattern = regexp.MustCompile(`TELEMETRY:\s*(\w+)\s*(\d+)`)

// captureLogs collects the output of the run's pods before the Job is
// deleted, bounds it, and extracts telemetry lines.
func (e *Executor) captureLogs(ctx context.Context, check *checksv1alpha1.Check) (string, map[string]string) {
	pods, err := e.Clientset.CoreV1().Pods(check.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: "app=" + naming.ToRFC1123Label(check.Name),
	})
	if err != nil {
		e.Log.Warnw("Cannot list check pods for log capture",
			"check", check.Namespace+"/"+check.Name, "error", err)
		return "", nil
	}

	var b strings.Builder
	for _, pod := range pods.Items {
		rc, err := e.Clientset.CoreV1().Pods(check.Namespace).
			GetLogs(pod.Name, &corev1.PodLogOptions{}).Stream(ctx)
		if err != nil {
			e.Log.Warnw("Cannot read pod logs", "pod", pod.Name, "error", err)
			continue
		}
		_, _ = io.Copy(&b, io.LimitReader(rc, maxLogBytes+1))
		_ = rc.Close()
	}

	logs := boundLogs(b.String())
	return logs, extractTelemetry(logs)
}

// boundLogs keeps the newest maxLogBytes of output, cut at a line
// boundary where possible.
func boundLogs(logs string) string {
	if len(logs) <= maxLogBytes {
		return logs
	}
	logs = logs[len(logs)-maxLogBytes:]
	if i := strings.IndexByte(logs, '\n'); i >= 0 && i < len(logs)-1 {
		logs = logs[i+1:]
	}
	return logs
}

// extractTelemetry pulls structured metrics out of the run's output.
func extractTelemetry(logs string) map[string]string {
	matches := telemetryPattern.FindAllStringSubmatch(logs, -1)
	if len(matches) == 0 {
		return nil
	}
	telemetry := make(map[string]string, len(matches))
	for _, m := range matches {
		telemetry[m[1]] = m[2]
	}
	return telemetry
}

// recordTelemetry mirrors extracted telemetry into prometheus gauges.
func (e *Executor) recordTelemetry(check *checksv1alpha1.Check, telemetry map[string]string) {
	for k, v := range telemetry {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		metrics.CheckTelemetry.WithLabelValues(check.Namespace, check.Name, k).Set(val)
	}
}
