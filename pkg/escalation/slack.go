package escalation

import (
	"context"
	"fmt"
)

// TypeSlack is the built-in Slack incoming-webhook escalation type.
const TypeSlack = "slack"

const (
	slackColorAlert    = "#ff0000"
	slackColorRecovery = "#36a64f"
)

type slackEscalation struct {
	webhookURL string
	channel    string
	deps       Deps
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	MrkdwnIn []string     `json:"mrkdwn_in"`
	Color    string       `json:"color"`
	Fields   []slackField `json:"fields"`
}

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Attachments []slackAttachment `json:"attachments"`
}

// NewSlack builds the slack escalation. Requires the "webhook_url" arg;
// "channel" optionally overrides the webhook's default channel.
func NewSlack(args map[string]string, deps Deps) (Escalation, error) {
	url := args["webhook_url"]
	if url == "" {
		return nil, fmt.Errorf("slack escalation requires a %q argument", "webhook_url")
	}
	return &slackEscalation{webhookURL: url, channel: args["channel"], deps: deps}, nil
}

func (s *slackEscalation) Deliver(ctx context.Context, n Notification) error {
	color := slackColorAlert
	if n.Recovery {
		color = slackColorRecovery
	}

	msg := slackMessage{
		Channel:   s.channel,
		Username:  "Mozalert",
		IconEmoji: ":scream_cat:",
		Attachments: []slackAttachment{{
			MrkdwnIn: []string{"text"},
			Color:    color,
			Fields: []slackField{
				{Title: "Target", Value: n.Target()},
				{Title: "State", Value: string(n.State), Short: true},
				{Title: "Attempt", Value: fmt.Sprintf("%d/%d", n.Attempt, n.MaxAttempts), Short: true},
			},
		}},
	}

	resp, err := s.deps.HTTP.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(s.webhookURL)
	if err != nil {
		return fmt.Errorf("posting slack webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("slack webhook returned %s", resp.Status())
	}
	return nil
}
