package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

const (
	// ScriptKey is the ConfigMap key holding the check script body.
	ScriptKey = "check"
	// SecureEnvPrefix namespaces secret material in the workload
	// environment. Values under it are never logged.
	SecureEnvPrefix = "SECURE_"
	// ReferenceEnvPrefix namespaces the non-secret spec.references values.
	ReferenceEnvPrefix = "REF_"
)

// resolveScript returns the script body from check_cm or check_url, or
// "" when the Check relies entirely on its pod template.
func (e *Executor) resolveScript(ctx context.Context, check *checksv1alpha1.Check) (string, error) {
	switch {
	case check.Spec.CheckCM != "":
		return e.scriptFromConfigMap(ctx, check)
	case check.Spec.CheckURL != "":
		return e.scriptFromURL(ctx, check.Spec.CheckURL)
	default:
		return "", nil
	}
}

func (e *Executor) scriptFromConfigMap(ctx context.Context, check *checksv1alpha1.Check) (string, error) {
	cm := &corev1.ConfigMap{}
	key := types.NamespacedName{Namespace: check.Namespace, Name: check.Spec.CheckCM}
	if err := e.Client.Get(ctx, key, cm); err != nil {
		if apierrors.IsNotFound(err) {
			return "", configErrorf("configmap %q not found", check.Spec.CheckCM)
		}
		return "", fmt.Errorf("reading configmap %q: %w", check.Spec.CheckCM, err)
	}
	script, ok := cm.Data[ScriptKey]
	if !ok || script == "" {
		return "", configErrorf("configmap %q has no %q key", check.Spec.CheckCM, ScriptKey)
	}
	return script, nil
}

func (e *Executor) scriptFromURL(ctx context.Context, url string) (string, error) {
	resp, err := e.HTTP.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetching check script from %s: %w", url, err)
	}
	if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
		return "", configErrorf("check script url %s returned %s", url, resp.Status())
	}
	if resp.IsError() {
		return "", fmt.Errorf("check script url %s returned %s", url, resp.Status())
	}
	return resp.String(), nil
}

// resolveSecret loads the secret material referenced by secret_ref.
func (e *Executor) resolveSecret(ctx context.Context, check *checksv1alpha1.Check) (map[string][]byte, error) {
	if check.Spec.SecretRef == "" {
		return nil, nil
	}
	secret := &corev1.Secret{}
	key := types.NamespacedName{Namespace: check.Namespace, Name: check.Spec.SecretRef}
	if err := e.Client.Get(ctx, key, secret); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, configErrorf("secret %q not found", check.Spec.SecretRef)
		}
		return nil, fmt.Errorf("reading secret %q: %w", check.Spec.SecretRef, err)
	}
	return secret.Data, nil
}

// checkEnv builds the workload environment: check identity, references
// under REF_, secret material under SECURE_. Keys are sorted so the
// generated Job is deterministic.
func checkEnv(check *checksv1alpha1.Check, secure map[string][]byte) []corev1.EnvVar {
	env := []corev1.EnvVar{
		{Name: "CHECK_NAME", Value: check.Name},
		{Name: "CHECK_NAMESPACE", Value: check.Namespace},
	}
	for _, k := range sortedKeys(check.Spec.References) {
		env = append(env, corev1.EnvVar{
			Name:  ReferenceEnvPrefix + envName(k),
			Value: check.Spec.References[k],
		})
	}
	for _, k := range sortedByteKeys(secure) {
		env = append(env, corev1.EnvVar{
			Name:  SecureEnvPrefix + envName(k),
			Value: string(secure[k]),
		})
	}
	return env
}

// envName maps an arbitrary key to a POSIX-safe env var name.
func envName(k string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(k) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedByteKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
