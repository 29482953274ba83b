package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPPublisher sends events to a topic exchange with routing key
// "<event type>.<restaurant id>", e.g. "order.created.12".
type AMQPPublisher struct {
	ch       channel
	exchange string
	log      zerolog.Logger
	closers  []func() error
}

func NewAMQPPublisher(ch channel, exchange string, log zerolog.Logger) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange, log: log}
}

// DialAMQP connects, opens a channel and declares the durable topic exchange.
func DialAMQP(url, exchange string, log zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	p := NewAMQPPublisher(ch, exchange, log)
	p.closers = []func() error{ch.Close, conn.Close}
	return p, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := RoutingKey(e)
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		DeliveryMode: amqp091.Persistent,
		ContentType:  "application/json",
		MessageId:    e.OrderNumber,
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	p.log.Debug().Str("routing_key", key).Int64("order_id", e.OrderID).Msg("order event published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func RoutingKey(e Event) string {
	return fmt.Sprintf("%s.%d", e.Type, e.RestaurantID)
}
