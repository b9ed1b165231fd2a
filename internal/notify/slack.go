// Package notify pushes human-checkpoint notifications to reviewers.
package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/gosuda/cortex/internal/domain"
)

// SlackNotifier posts to a fixed reviewer channel whenever a document
// reaches the validation checkpoint. Notification is best-effort; the
// workflow logs and continues when a post fails.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(botToken, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(botToken),
		channel: channel,
	}
}

func (n *SlackNotifier) DocumentAwaitingValidation(ctx context.Context, doc *domain.DocumentRecord) error {
	text := fmt.Sprintf(
		"Document *%s* (%s, %s) is awaiting validation.",
		doc.FileName, doc.ProcessType, doc.ID,
	)
	if doc.EnrichedData != nil && doc.EnrichedData.Error != "" {
		text += fmt.Sprintf("\n:warning: personnel lookup failed: %s", doc.EnrichedData.Error)
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("notify.SlackNotifier: post message: %w", err)
	}

	return nil
}
