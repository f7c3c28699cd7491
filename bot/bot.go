package bot

import (
	"context"

	"starbid/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Config holds the Telegram bot configuration
type Config struct {
	Token                string
	PaymentProviderToken string
}

// Bot is the Telegram chat interface: account registration, balance checks
// and XTR star purchases.
type Bot struct {
	api                  *tgbotapi.BotAPI
	userService          service.UserService
	paymentProviderToken string
	done                 chan struct{}
}

// New creates and connects the Telegram bot
func New(cfg Config, userService service.UserService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	log.WithField("username", api.Self.UserName).Info("Telegram bot authorized")

	return &Bot{
		api:                  api,
		userService:          userService,
		paymentProviderToken: cfg.PaymentProviderToken,
		done:                 make(chan struct{}),
	}, nil
}

// Start begins long-polling for updates. It blocks until Close is called or
// the context is cancelled, so callers run it in a goroutine.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Close stops the update loop
func (b *Bot) Close() {
	b.api.StopReceivingUpdates()
	close(b.done)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		b.handlePreCheckout(update.PreCheckoutQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		b.handleSuccessfulPayment(ctx, update.Message)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg, "Welcome to the Auction Platform Bot! Use /register to create an account and /buy_stars to purchase XTR stars.")
	case "register":
		b.handleRegister(ctx, msg)
	case "balance":
		b.handleBalance(ctx, msg)
	case "buy_stars":
		b.handleBuyStars(msg)
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.api.Send(out); err != nil {
		log.WithFields(log.Fields{
			"chatID": msg.Chat.ID,
			"error":  err,
		}).Error("Failed to send reply")
	}
}
