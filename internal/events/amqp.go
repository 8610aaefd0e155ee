package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher bridges bus events onto a RabbitMQ topic exchange. Session
// transitions publish under "session.<new-status>", balance changes under
// "credits.changed".
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Run subscribes to the bus and publishes every event until ctx is done or
// the bus closes. Publish failures are logged and skipped; the broker is an
// observer, never part of the booking transaction.
func (p *Publisher) Run(ctx context.Context, bus *Bus) {
	transitions, cancelTransitions := bus.SubscribeTransitions()
	defer cancelTransitions()
	balances, cancelBalances := bus.SubscribeBalances()
	defer cancelBalances()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-transitions:
			if !ok {
				return
			}
			key := "session." + string(event.New)
			if err := p.publishJSON(ctx, key, event); err != nil {
				zap.L().Error("Failed to publish session transition",
					zap.String("session_id", event.SessionId),
					zap.String("routing_key", key),
					zap.Error(err))
			}
		case event, ok := <-balances:
			if !ok {
				return
			}
			if err := p.publishJSON(ctx, "credits.changed", event); err != nil {
				zap.L().Error("Failed to publish balance change",
					zap.String("account_id", event.AccountId),
					zap.Error(err))
			}
		}
	}
}

func (p *Publisher) publishJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
