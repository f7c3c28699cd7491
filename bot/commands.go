package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const defaultStarPurchase = 100 // XTR bought when /buy_stars has no argument

func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.userService.GetOrCreateByTelegramID(ctx, msg.From.ID, msg.From.UserName)
	if err != nil {
		log.WithFields(log.Fields{
			"telegramID": msg.From.ID,
			"error":      err,
		}).Error("Failed to register user")
		b.reply(msg, "Sorry, registration failed. Please try again later.")
		return
	}

	b.reply(msg, fmt.Sprintf(
		"Registration successful! You can now use the bot features. Your balance: %d XTR.",
		user.XTRBalance))
}

func (b *Bot) handleBalance(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.userService.GetOrCreateByTelegramID(ctx, msg.From.ID, msg.From.UserName)
	if err != nil {
		log.WithFields(log.Fields{
			"telegramID": msg.From.ID,
			"error":      err,
		}).Error("Failed to look up balance")
		b.reply(msg, "Sorry, something went wrong. Please try again later.")
		return
	}

	b.reply(msg, fmt.Sprintf("Your balance: %d XTR", user.XTRBalance))
}

func (b *Bot) handleBuyStars(msg *tgbotapi.Message) {
	if b.paymentProviderToken == "" {
		log.Error("PAYMENT_PROVIDER_TOKEN is not set")
		b.reply(msg, "Sorry, star purchases are not available at the moment.")
		return
	}

	amount := int64(defaultStarPurchase)
	if args := msg.CommandArguments(); args != "" {
		parsed, err := strconv.ParseInt(args, 10, 64)
		if err != nil || parsed <= 0 {
			b.reply(msg, "Usage: /buy_stars <amount>")
			return
		}
		amount = parsed
	}

	invoice := tgbotapi.NewInvoice(
		msg.Chat.ID,
		"XTR Stars Purchase",
		fmt.Sprintf("Purchase %d XTR stars for use in auctions", amount),
		starsPayload,
		b.paymentProviderToken,
		"",
		"USD",
		[]tgbotapi.LabeledPrice{{Label: "XTR Stars", Amount: int(amount * 100)}},
	)

	if _, err := b.api.Request(invoice); err != nil {
		log.WithFields(log.Fields{
			"chatID": msg.Chat.ID,
			"error":  err,
		}).Error("Failed to send invoice")
		b.reply(msg, "Sorry, there was an error processing your request. Please try again later.")
	}
}

const starsPayload = "starbid-stars"

func (b *Bot) handlePreCheckout(query *tgbotapi.PreCheckoutQuery) {
	answer := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: query.ID,
		OK:                 query.InvoicePayload == starsPayload,
	}
	if !answer.OK {
		answer.ErrorMessage = "Something went wrong..."
	}

	if _, err := b.api.Request(answer); err != nil {
		log.WithField("error", err).Error("Failed to answer pre-checkout query")
	}
}

// handleSuccessfulPayment credits the paid amount as XTR. A first payment
// from an unknown Telegram ID creates the account.
func (b *Bot) handleSuccessfulPayment(ctx context.Context, msg *tgbotapi.Message) {
	payment := msg.SuccessfulPayment
	amount := int64(payment.TotalAmount / 100)

	user, err := b.userService.TopUp(ctx, msg.From.ID, msg.From.UserName, amount)
	if err != nil {
		log.WithFields(log.Fields{
			"telegramID": msg.From.ID,
			"amount":     amount,
			"error":      err,
		}).Error("Failed to credit successful payment")
		b.reply(msg, "Your payment was received but crediting failed. Support has been notified.")
		return
	}

	b.reply(msg, fmt.Sprintf(
		"Thank you for your payment! %d XTR stars have been added to your balance (now %d XTR).",
		amount, user.XTRBalance))
}
