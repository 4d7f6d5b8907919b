// Package notify posts job summaries to a chat webhook. Notification
// failures are logged and swallowed; a report run never fails because the
// chat message did not land.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/slack-go/slack"
)

const maxOutputLen = 2000

type Notifier struct {
	WebhookURL string
	Logger     *log.Logger
}

// postWebhook is swapped out in tests.
var postWebhook = slack.PostWebhook

func New(webhookURL string, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{WebhookURL: webhookURL, Logger: logger}
}

// PostSummary sends one attachment describing a job outcome: green with a
// check on success, red with a cross on failure, command output trimmed to
// a readable length.
func (n *Notifier) PostSummary(title, output string, jobErr error, elapsed time.Duration) {
	if n.WebhookURL == "" {
		return
	}
	color := "good"
	prefix := "✅ "
	status := "Success"
	if jobErr != nil {
		color = "danger"
		prefix = "❌ "
		status = fmt.Sprintf("Failed: %v", jobErr)
	}
	if len(output) > maxOutputLen {
		output = output[:maxOutputLen] + "\n... (truncated)"
	}
	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{{
			Color: color,
			Title: prefix + title,
			Text:  "```" + output + "```",
			Fields: []slack.AttachmentField{
				{Title: "Status", Value: status, Short: true},
				{Title: "Duration", Value: elapsed.Round(time.Second).String(), Short: true},
			},
			Footer: "tamreport",
			Ts:     json.Number(fmt.Sprintf("%d", time.Now().Unix())),
		}},
	}
	if err := postWebhook(n.WebhookURL, msg); err != nil {
		n.Logger.Printf("notify: webhook post failed: %v", err)
	}
}
