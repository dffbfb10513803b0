package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/internal/service/command"
	"github.com/sandevgo/tuskqa/internal/service/qa"
	"github.com/sandevgo/tuskqa/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

// Asker answers one question for an owner.
type Asker interface {
	Ask(ctx context.Context, owner, question string) (qa.Answer, error)
}

type Bot struct {
	bot     *tele.Bot
	sender  *sender
	qa      Asker
	router  *command.Router
	owner   string
	ownerID int64
}

func NewBot(
	ctx context.Context,
	cfg core.TelegramConfig,
	owner string,
	asker Asker,
	router *command.Router,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.GetTelegramToken(),
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		sender:  newSender(b),
		qa:      asker,
		router:  router,
		owner:   owner,
		ownerID: cfg.GetTelegramOwnerID(),
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Only the owner may read or write their data.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != bot.ownerID {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Int64("owner_id", b.ownerID).Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)

	if out, ok := b.router.Execute(ctx, b.owner, c.Text()); ok {
		return b.sender.sendMarkdown(ctx, c.Recipient(), out, true)
	}

	_ = c.Notify(tele.Typing)

	ans, err := b.qa.Ask(ctx, b.owner, c.Text())
	if err != nil {
		return c.Send(replyForError(err))
	}
	if err := b.sender.sendMarkdown(ctx, c.Recipient(), command.FormatAnswer(ans), false); err != nil {
		logger.Error().Err(err).Msg("failed to deliver answer")
	}
	return nil
}

func replyForError(err error) string {
	switch {
	case errors.Is(err, qa.ErrAskInProgress):
		return "Still working on your previous question."
	case errors.Is(err, qa.ErrEmptyQuestion):
		return "Send a question, or /help for commands."
	default:
		return fmt.Sprintf("error: %v", err)
	}
}
