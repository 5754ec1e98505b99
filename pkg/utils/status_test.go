package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

func TestUpdateCheckStatus(t *testing.T) {
	scheme := runtime.NewScheme()
	require.NoError(t, checksv1alpha1.AddToScheme(scheme))

	check := &checksv1alpha1.Check{
		ObjectMeta: metav1.ObjectMeta{Name: "pulse", Namespace: "default"},
	}
	c := fake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(check).
		WithStatusSubresource(&checksv1alpha1.Check{}).
		Build()

	err := UpdateCheckStatus(context.Background(), c, check, func(ch *checksv1alpha1.Check) {
		ch.Status.State = checksv1alpha1.CheckStateSuccess
		ch.Status.Status = "OK"
	})
	require.NoError(t, err)

	stored := &checksv1alpha1.Check{}
	require.NoError(t, c.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "pulse"}, stored))
	assert.Equal(t, checksv1alpha1.CheckStateSuccess, stored.Status.State)
	assert.Equal(t, "OK", stored.Status.Status)
}

func TestIsTransient(t *testing.T) {
	gr := schema.GroupResource{Group: "checks.mozalert.org", Resource: "checks"}
	assert.True(t, IsTransient(apierrors.NewConflict(gr, "pulse", assert.AnError)))
	assert.True(t, IsTransient(apierrors.NewServerTimeout(gr, "get", 1)))
	assert.False(t, IsTransient(apierrors.NewNotFound(gr, "pulse")))
	assert.False(t, IsTransient(nil))
}
