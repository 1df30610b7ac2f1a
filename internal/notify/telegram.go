package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

type TelegramConfig struct {
	Token      string
	ChatID     int64
	RatePerSec int
}

// Telegram is a send-only adapter over telebot. The bot never polls for
// updates; it only pushes messages to one chat.
type Telegram struct {
	bot     *tele.Bot
	chat    *tele.Chat
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewTelegram(cfg TelegramConfig, log zerolog.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Telegram{
		bot:     b,
		chat:    &tele.Chat{ID: cfg.ChatID},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log.With().Str("component", "telegram").Logger(),
	}, nil
}

// Send pushes one message, waiting on the rate limiter first so bursts of
// change notifications cannot trip Telegram's flood control.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	_, err := t.bot.Send(t.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return err
	}
	t.log.Debug().Int64("chat_id", t.chat.ID).Dur("took", time.Since(start)).Msg("message sent")
	return nil
}
