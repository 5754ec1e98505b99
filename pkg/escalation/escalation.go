package escalation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

// Notification is the payload handed to every escalation delivery.
type Notification struct {
	Name        string
	Namespace   string
	State       checksv1alpha1.CheckState
	Status      string
	Attempt     int
	MaxAttempts int
	LastCheck   time.Time
	Logs        string
	// Recovery marks the transition back to Success after an escalation
	// episode; deliveries should announce recovery instead of alerting.
	Recovery bool
}

// Target returns the namespace/name identity of the escalating Check.
func (n Notification) Target() string {
	return fmt.Sprintf("%s/%s", n.Namespace, n.Name)
}

// Escalation is the capability interface implemented by each escalation
// type. Deliver must be safe to call concurrently and should treat the
// context deadline as its delivery budget.
type Escalation interface {
	Deliver(ctx context.Context, n Notification) error
}

// MailEnqueuer is the slice of the mail queue the email escalation
// needs. Satisfied by *mail.Queue.
type MailEnqueuer interface {
	Enqueue(receivers []string, subject, body string) (string, error)
}

// Deps carries the shared collaborators escalation factories may use.
type Deps struct {
	Mail MailEnqueuer
	HTTP *resty.Client
	Log  *zap.SugaredLogger
}

// Factory builds an Escalation from a descriptor's args. Factories must
// validate required args and fail fast on malformed descriptors.
type Factory func(args map[string]string, deps Deps) (Escalation, error)

// Registry maps escalation type strings to factories. New types can be
// registered without touching the state machine or the dispatcher.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in types registered.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register(TypeEmail, NewEmail)
	r.Register(TypeSlack, NewSlack)
	return r
}

// Register adds or replaces a factory for the given type string.
func (r *Registry) Register(typ string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = f
}

// New instantiates an escalation for a descriptor.
func (r *Registry) New(desc checksv1alpha1.EscalationDescriptor, deps Deps) (Escalation, error) {
	r.mu.RLock()
	f, ok := r.factories[desc.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown escalation type %q", desc.Type)
	}
	return f(desc.Args, deps)
}

// Types returns the registered type names.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}
