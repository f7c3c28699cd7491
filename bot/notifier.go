package bot

import (
	"context"

	"starbid/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Notifier delivers auction outcome messages over Telegram. Delivery is
// fire-and-forget: every failure is logged and swallowed.
type Notifier struct {
	api         *tgbotapi.BotAPI
	userService service.UserService
}

// NewNotifier creates a Notifier backed by the bot's Telegram connection
func (b *Bot) NewNotifier() *Notifier {
	return &Notifier{
		api:         b.api,
		userService: b.userService,
	}
}

// Notify sends a message to the user's Telegram chat
func (n *Notifier) Notify(ctx context.Context, userID int64, text string) {
	user, err := n.userService.GetByID(ctx, userID)
	if err != nil {
		log.WithFields(log.Fields{
			"userID": userID,
			"error":  err,
		}).Error("Failed to resolve notification recipient")
		return
	}
	if user.TelegramID == 0 {
		log.WithField("userID", userID).Warn("User has no Telegram chat, dropping notification")
		return
	}

	msg := tgbotapi.NewMessage(user.TelegramID, text)
	if _, err := n.api.Send(msg); err != nil {
		log.WithFields(log.Fields{
			"userID":     userID,
			"telegramID": user.TelegramID,
			"error":      err,
		}).Error("Failed to send notification")
	}
}
