// Package notify отправляет оператору короткие уведомления (например,
// «captcha!») в выбранный канал: telegram, discord, slack, рабочий стол или лог.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/EgorLis/tgfarm/internal/config"
)

// Notifier — приёмник уведомлений. channel == "" — канал по умолчанию.
type Notifier interface {
	Notify(ctx context.Context, channel, message string) error
}

// Sender доставляет сообщение в один канал.
type Sender interface {
	Send(ctx context.Context, message string) error
}

type SenderFunc func(ctx context.Context, message string) error

func (f SenderFunc) Send(ctx context.Context, message string) error { return f(ctx, message) }

const (
	ChannelLog      = "log"
	ChannelTelegram = "telegram"
	ChannelDiscord  = "discord"
	ChannelSlack    = "slack"
	ChannelDesktop  = "desktop"
)

var ErrUnknownChannel = errors.New("unknown notification channel")

// Hub маршрутизирует уведомления по имени канала.
type Hub struct {
	enabled  bool
	fallback string
	log      *slog.Logger

	mu      sync.RWMutex
	senders map[string]Sender
}

func NewHub(enabled bool, defaultChannel string, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	if defaultChannel == "" {
		defaultChannel = ChannelLog
	}
	h := &Hub{
		enabled:  enabled,
		fallback: strings.ToLower(defaultChannel),
		log:      log,
		senders:  make(map[string]Sender),
	}
	h.senders[ChannelLog] = logSender{log: log}
	return h
}

func (h *Hub) Register(channel string, s Sender) {
	h.mu.Lock()
	h.senders[strings.ToLower(channel)] = s
	h.mu.Unlock()
}

// Notify доставляет message. Выключенный хаб только пишет в debug-лог.
func (h *Hub) Notify(ctx context.Context, channel, message string) error {
	if !h.enabled {
		h.log.Debug("notifications disabled", "message", message)
		return nil
	}
	channel = strings.ToLower(strings.TrimSpace(channel))
	if channel == "" {
		channel = h.fallback
	}
	h.mu.RLock()
	s, ok := h.senders[channel]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	if err := s.Send(ctx, message); err != nil {
		return fmt.Errorf("notify %s: %w", channel, err)
	}
	return nil
}

type logSender struct{ log *slog.Logger }

func (l logSender) Send(_ context.Context, message string) error {
	l.log.Info("notification", "message", message)
	return nil
}

// FromConfig собирает хаб из настроек: каналы регистрируются только при
// заданных токенах, рабочий стол — по флагу desktop.
func FromConfig(cfg config.NotificationsConf, log *slog.Logger) (*Hub, error) {
	h := NewHub(cfg.Enabled, cfg.Channel, log)
	var errs []error

	if cfg.TelegramToken != "" {
		s, err := NewTelegram(cfg.TelegramToken, cfg.TelegramChat)
		if err != nil {
			errs = append(errs, err)
		} else {
			h.Register(ChannelTelegram, s)
		}
	}
	if cfg.DiscordToken != "" {
		s, err := NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			errs = append(errs, err)
		} else {
			h.Register(ChannelDiscord, s)
		}
	}
	if cfg.SlackToken != "" {
		s, err := NewSlack(cfg.SlackToken, cfg.SlackChannel)
		if err != nil {
			errs = append(errs, err)
		} else {
			h.Register(ChannelSlack, s)
		}
	}
	if cfg.Desktop {
		h.Register(ChannelDesktop, NewDesktop("tgfarm", cfg.DesktopTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if _, ok := h.senders[h.fallback]; !ok {
		return nil, fmt.Errorf("%w: default channel %q is not configured", ErrUnknownChannel, h.fallback)
	}
	return h, nil
}
