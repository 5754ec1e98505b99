// Package utils holds small helpers shared by the controller packages.
package utils

import (
	"context"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
	"github.com/mozalert/check-operator/pkg/metrics"
)

// UpdateCheckStatus writes a Check's status through the status
// subresource with optimistic-concurrency retry. On conflict the Check
// is re-fetched and mutate is reapplied to the fresh object, so mutate
// must be idempotent and must only touch status.
func UpdateCheckStatus(ctx context.Context, c client.Client, check *checksv1alpha1.Check, mutate func(*checksv1alpha1.Check)) error {
	key := client.ObjectKeyFromObject(check)
	first := true
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		if !first {
			metrics.StatusUpdateConflicts.Inc()
			if err := c.Get(ctx, key, check); err != nil {
				return err
			}
		}
		first = false
		mutate(check)
		return c.Status().Update(ctx, check)
	})
}

// IsTransient reports whether a Kubernetes API error is worth retrying
// on the next reconciliation rather than surfacing to the user.
func IsTransient(err error) bool {
	return apierrors.IsConflict(err) ||
		apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsTooManyRequests(err) ||
		apierrors.IsServiceUnavailable(err) ||
		apierrors.IsInternalError(err)
}
