package escalation

import (
	"context"
	"fmt"
	"strings"
)

// TypeEmail is the built-in SMTP escalation type.
const TypeEmail = "email"

type emailEscalation struct {
	to   []string
	deps Deps
}

// NewEmail builds the email escalation. Requires the "email" arg; a
// comma-separated list addresses multiple recipients.
func NewEmail(args map[string]string, deps Deps) (Escalation, error) {
	addr := args["email"]
	if addr == "" {
		return nil, fmt.Errorf("email escalation requires an %q argument", "email")
	}
	if deps.Mail == nil {
		return nil, fmt.Errorf("email escalation is not available: no mail queue configured")
	}

	var to []string
	for _, a := range strings.Split(addr, ",") {
		if a = strings.TrimSpace(a); a != "" {
			to = append(to, a)
		}
	}
	return &emailEscalation{to: to, deps: deps}, nil
}

func (e *emailEscalation) Deliver(_ context.Context, n Notification) error {
	subject := fmt.Sprintf("[mozalert] %s is %s", n.Target(), n.State)
	if n.Recovery {
		subject = fmt.Sprintf("[mozalert] %s recovered", n.Target())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Check:    %s\n", n.Target())
	fmt.Fprintf(&b, "State:    %s\n", n.State)
	fmt.Fprintf(&b, "Status:   %s\n", n.Status)
	fmt.Fprintf(&b, "Attempt:  %d/%d\n", n.Attempt, n.MaxAttempts)
	if !n.LastCheck.IsZero() {
		fmt.Fprintf(&b, "Last run: %s\n", n.LastCheck.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if n.Logs != "" {
		fmt.Fprintf(&b, "\nLogs:\n%s\n", n.Logs)
	}

	_, err := e.deps.Mail.Enqueue(e.to, subject, b.String())
	return err
}
