package escalation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type fakeMail struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
	to       [][]string
}

func (f *fakeMail) Enqueue(receivers []string, subject, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, receivers)
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return "id-1", nil
}

func testNotification() Notification {
	return Notification{
		Name:        "pulse",
		Namespace:   "default",
		State:       checksv1alpha1.CheckStateEscalated,
		Status:      "check failed (attempt 3/3)",
		Attempt:     3,
		MaxAttempts: 3,
		LastCheck:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Logs:        "connection refused",
	}
}

func TestEmailEscalation(t *testing.T) {
	fm := &fakeMail{}
	esc, err := NewEmail(map[string]string{"email": "oncall@example.com, backup@example.com"}, Deps{Mail: fm})
	require.NoError(t, err)

	require.NoError(t, esc.Deliver(context.Background(), testNotification()))

	require.Len(t, fm.to, 1)
	assert.Equal(t, []string{"oncall@example.com", "backup@example.com"}, fm.to[0])
	assert.Contains(t, fm.subjects[0], "default/pulse")
	assert.Contains(t, fm.subjects[0], "Escalated")
	assert.Contains(t, fm.bodies[0], "Attempt:  3/3")
	assert.Contains(t, fm.bodies[0], "connection refused")
}

func TestEmailEscalationRecoverySubject(t *testing.T) {
	fm := &fakeMail{}
	esc, err := NewEmail(map[string]string{"email": "oncall@example.com"}, Deps{Mail: fm})
	require.NoError(t, err)

	n := testNotification()
	n.State = checksv1alpha1.CheckStateSuccess
	n.Recovery = true
	require.NoError(t, esc.Deliver(context.Background(), n))

	assert.Contains(t, fm.subjects[0], "recovered")
}

func TestEmailEscalationRequiresAddress(t *testing.T) {
	_, err := NewEmail(map[string]string{}, Deps{Mail: &fakeMail{}})
	assert.Error(t, err)
}

func TestEmailEscalationRequiresMailQueue(t *testing.T) {
	_, err := NewEmail(map[string]string{"email": "oncall@example.com"}, Deps{})
	assert.Error(t, err)
}

func TestSlackEscalation(t *testing.T) {
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	esc, err := NewSlack(map[string]string{"webhook_url": srv.URL, "channel": "#alerts"}, Deps{HTTP: resty.New()})
	require.NoError(t, err)

	require.NoError(t, esc.Deliver(context.Background(), testNotification()))

	assert.Equal(t, "#alerts", got.Channel)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, slackColorAlert, got.Attachments[0].Color)
	assert.Equal(t, "default/pulse", got.Attachments[0].Fields[0].Value)
}

func TestSlackEscalationRecoveryColor(t *testing.T) {
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	esc, err := NewSlack(map[string]string{"webhook_url": srv.URL}, Deps{HTTP: resty.New()})
	require.NoError(t, err)

	n := testNotification()
	n.Recovery = true
	require.NoError(t, esc.Deliver(context.Background(), n))
	assert.Equal(t, slackColorRecovery, got.Attachments[0].Color)
}

func TestSlackEscalationErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	esc, err := NewSlack(map[string]string{"webhook_url": srv.URL}, Deps{HTTP: resty.New()})
	require.NoError(t, err)

	assert.Error(t, esc.Deliver(context.Background(), testNotification()))
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.New(checksv1alpha1.EscalationDescriptor{Type: "pager"}, Deps{})
	assert.Error(t, err)
}

func TestRegistryExtension(t *testing.T) {
	r := NewRegistry()
	r.Register("noop", func(args map[string]string, deps Deps) (Escalation, error) {
		return noopEscalation{}, nil
	})

	esc, err := r.New(checksv1alpha1.EscalationDescriptor{Type: "noop"}, Deps{})
	require.NoError(t, err)
	assert.NoError(t, esc.Deliver(context.Background(), Notification{}))
	assert.Contains(t, r.Types(), "noop")
}

type noopEscalation struct{}

func (noopEscalation) Deliver(context.Context, Notification) error { return nil }

func testCheck(escalations ...checksv1alpha1.EscalationDescriptor) *checksv1alpha1.Check {
	return &checksv1alpha1.Check{
		ObjectMeta: metav1.ObjectMeta{Name: "pulse", Namespace: "default"},
		Spec: checksv1alpha1.CheckSpec{
			Escalations: escalations,
		},
	}
}

func TestDispatcherFiresEveryDescriptorIndependently(t *testing.T) {
	fm := &fakeMail{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	d := NewDispatcher(NewRegistry(), Deps{Mail: fm, HTTP: resty.New()}, zap.NewNop().Sugar())
	check := testCheck(
		checksv1alpha1.EscalationDescriptor{Type: "pager"}, // unknown, must not stop the rest
		checksv1alpha1.EscalationDescriptor{Type: TypeEmail, Args: map[string]string{"email": "oncall@example.com"}},
		checksv1alpha1.EscalationDescriptor{Type: TypeSlack, Args: map[string]string{"webhook_url": srv.URL}},
	)

	delivered := d.DispatchAll(context.Background(), check, testNotification())
	assert.Equal(t, 2, delivered)
	assert.Len(t, fm.subjects, 1)
}

func TestDispatcherThrottles(t *testing.T) {
	fm := &fakeMail{}
	d := NewDispatcher(NewRegistry(), Deps{Mail: fm}, zap.NewNop().Sugar())
	check := testCheck(checksv1alpha1.EscalationDescriptor{Type: TypeEmail, Args: map[string]string{"email": "oncall@example.com"}})

	// Burst allows limiterBurst batches, then the limiter kicks in.
	fired := 0
	for i := 0; i < limiterBurst+5; i++ {
		fired += d.DispatchAll(context.Background(), check, testNotification())
	}
	assert.Equal(t, limiterBurst, fired)
}

func TestDispatcherNoDescriptors(t *testing.T) {
	d := NewDispatcher(NewRegistry(), Deps{}, zap.NewNop().Sugar())
	assert.Zero(t, d.DispatchAll(context.Background(), testCheck(), testNotification()))
}
