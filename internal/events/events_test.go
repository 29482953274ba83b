package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"savorysync/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp091.Publishing
	err           error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func sampleEvent() Event {
	order := &models.Order{
		ID:           42,
		OrderNumber:  "ORD-20261014120000-0A1B2C3D",
		RestaurantID: 12,
		CustomerID:   3,
		Status:       models.StatusReady,
		TotalAmount:  decimal.RequireFromString("12.30"),
	}
	return NewOrderEvent(OrderStatusChanged, order, models.StatusPreparing, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
}

func TestAMQPPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewAMQPPublisher(ch, "orders_topic", zerolog.Nop())

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "orders_topic", ch.exchange)
	assert.Equal(t, "order.status_changed.12", ch.key)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)

	var got map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, "ready", got["status"])
	assert.Equal(t, "preparing", got["previous_status"])
}

func TestAMQPPublishError(t *testing.T) {
	p := NewAMQPPublisher(&fakeChannel{err: amqp091.ErrClosed}, "orders_topic", zerolog.Nop())
	err := p.Publish(context.Background(), sampleEvent())
	require.ErrorIs(t, err, amqp091.ErrClosed)
}

func TestTelegramNotifier(t *testing.T) {
	bot := &fakeBot{}
	n := NewTelegramNotifier(bot, -100)

	require.NoError(t, n.Publish(context.Background(), sampleEvent()))
	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Equal(t, "Order ORD-20261014120000-0A1B2C3D: preparing -> ready", msg.Text)
}

func TestSummaryCreated(t *testing.T) {
	e := sampleEvent()
	e.Type = OrderCreated
	assert.Equal(t, "New order ORD-20261014120000-0A1B2C3D: 12.30 (restaurant 12)", Summary(e))
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ch := &fakeChannel{}
	m := Multi{NewAMQPPublisher(ch, "x", zerolog.Nop()), NewTelegramNotifier(&fakeBot{err: boom}, 1), Nop{}}

	err := m.Publish(context.Background(), sampleEvent())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "order.status_changed.12", ch.key)
}
