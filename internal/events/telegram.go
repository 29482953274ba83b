package events

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts a one-line summary of each order event to a chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
}

func NewTelegramNotifier(bot sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func DialTelegram(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = false
	return NewTelegramNotifier(bot, chatID), nil
}

func (n *TelegramNotifier) Publish(_ context.Context, e Event) error {
	msg := tgbotapi.NewMessage(n.chatID, Summary(e))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func Summary(e Event) string {
	switch e.Type {
	case OrderCreated:
		return fmt.Sprintf("New order %s: %s (restaurant %d)", e.OrderNumber, e.TotalAmount.StringFixed(2), e.RestaurantID)
	case OrderStatusChanged:
		return fmt.Sprintf("Order %s: %s -> %s", e.OrderNumber, e.PreviousStatus, e.Status)
	}
	return fmt.Sprintf("Order %s: %s", e.OrderNumber, e.Type)
}
