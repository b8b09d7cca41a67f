package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const defaultExchange = "frontdesk.analytics"

type AMQPConfig struct {
	URL      string `envconfig:"URL" split_words:"true"`
	Exchange string `envconfig:"EXCHANGE" split_words:"true"`
}

// AMQPBackend publishes events to a topic exchange with routing key
// "frontdesk.<kind>" so consumers can bind per event kind.
type AMQPBackend struct {
	conn     *amqp091.Connection
	exchange string
}

var _ Backend = (*AMQPBackend)(nil)

func NewAMQPBackend(cfg AMQPConfig) (*AMQPBackend, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("amqp url is required")
	}
	exchange := strings.TrimSpace(cfg.Exchange)
	if exchange == "" {
		exchange = defaultExchange
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare analytics exchange: %w", err)
	}

	return &AMQPBackend{conn: conn, exchange: exchange}, nil
}

func (b *AMQPBackend) Close() error {
	return b.conn.Close()
}

func (b *AMQPBackend) Deliver(ctx context.Context, ev Event) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal analytics event: %w", err)
	}

	key := "frontdesk." + string(ev.Meta.Kind)
	err = ch.PublishWithContext(ctx, b.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    ev.Meta.ID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish analytics event: %w", err)
	}
	return nil
}
