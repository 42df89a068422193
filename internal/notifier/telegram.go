package notifier

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"pagenine/pkg/logx"
)

type TelegramConfig struct {
	Token  string
	ChatID int64
	// ThreadID targets a forum topic; 0 posts to the main chat.
	ThreadID int
	// APIURL overrides the Bot API base URL.
	APIURL  string
	Timeout time.Duration
}

func (c TelegramConfig) configured() bool {
	return strings.TrimSpace(c.Token) != "" && c.ChatID != 0
}

type Telegram struct {
	cfg TelegramConfig
	bot *tele.Bot
	log logx.Logger
}

// NewTelegram creates an offline bot: it never polls for updates and does not
// call getMe, so construction does no network I/O.
func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Offline: true,
		Client:  &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Telegram{cfg: cfg, bot: b, log: log}, nil
}

func (t *Telegram) Notify(ctx context.Context, message, title string) error {
	// telebot has no context-aware send; bail out early at least.
	if err := ctx.Err(); err != nil {
		return err
	}
	chat := &tele.Chat{ID: t.cfg.ChatID}
	msg, err := t.bot.Send(chat, joinText(message, title), &tele.SendOptions{
		ThreadID:              t.cfg.ThreadID,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}
	if msg != nil {
		t.log.Debug("telegram sent", logx.Int64("chat", t.cfg.ChatID), logx.Int("message_id", msg.ID))
	}
	return nil
}
