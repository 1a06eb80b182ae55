// internal/app/notifier.go
package app

import (
	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// Delivery is the outcome of one notification attempt.
type Delivery struct {
	Delivered bool
	Err       error
}

// Notifier delivers a text message to the configured chat. It never fails
// loudly: transport errors are reported through the Delivery.
type Notifier interface {
	Notify(text string) Delivery
}

// TelegramNotifier sends messages to a single Telegram chat.
type TelegramNotifier struct {
	client domainTelegram.Client
	chatID string
	logger *logrus.Entry
}

func NewTelegramNotifier(client domainTelegram.Client, chatID string, logger *logrus.Entry) *TelegramNotifier {
	return &TelegramNotifier{
		client: client,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) Notify(text string) Delivery {
	logCtx := n.logger.WithField("chat_id", n.chatID)
	if err := n.client.SendMessage(n.chatID, text, nil); err != nil {
		logCtx.WithError(err).Errorf("Bot failed to send message: %s", text)
		return Delivery{Delivered: false, Err: err}
	}
	logCtx.Debugf("Bot sent message: %s", text)
	return Delivery{Delivered: true}
}
