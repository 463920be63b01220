package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type Discord struct {
	session *discordgo.Session
	channel string
}

func NewDiscord(token, channel string) (*Discord, error) {
	if channel == "" {
		return nil, errors.New("discord: channel is required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{session: s, channel: channel}, nil
}

func (d *Discord) Send(ctx context.Context, message string) error {
	_, err := d.session.ChannelMessageSend(d.channel, message, discordgo.WithContext(ctx))
	return err
}
