package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"eventPricing/business/pricing"
	"eventPricing/domain"
	"eventPricing/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeKind = "topic"

	RoutingKeyPriceChanged = "pricing.changed"
	RoutingKeyModeChanged  = "pricing.mode_changed"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher announces committed pricing changes on a topic exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  channel
	exchange string
}

var _ pricing.ChangePublisher = (*Publisher)(nil)

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishPriceChanged(ctx context.Context, change domain.PriceChangedEvent) error {
	return p.publish(ctx, RoutingKeyPriceChanged, change)
}

func (p *Publisher) PublishModeChanged(ctx context.Context, change domain.PriceChangedEvent) error {
	return p.publish(ctx, RoutingKeyModeChanged, change)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, change domain.PriceChangedEvent) error {
	msg, err := message(change, time.Now().UTC())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	logger.Debug("pricing_event_published",
		"trace_id", pricing.TraceIDFromContext(ctx),
		"exchange", p.exchange,
		"routing_key", routingKey,
		"event_id", change.EventID,
	)
	return nil
}

func message(change domain.PriceChangedEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(change)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal payload: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		MessageId:    strconv.FormatUint(change.EventID, 10) + "-" + strconv.FormatInt(change.ChangedAt.UnixNano(), 10),
		Body:         body,
	}, nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
