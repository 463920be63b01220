package notify

import (
	"context"
	"errors"

	"github.com/slack-go/slack"
)

type Slack struct {
	api     *slack.Client
	channel string
}

func NewSlack(token, channel string) (*Slack, error) {
	if channel == "" {
		return nil, errors.New("slack: channel is required")
	}
	return &Slack{api: slack.New(token), channel: channel}, nil
}

func (s *Slack) Send(ctx context.Context, message string) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel, slack.MsgOptionText(message, false))
	return err
}
