// Package notifier delivers ticket notifications to the external
// notification service over RabbitMQ. Delivery is best effort: the
// workflow engine logs failures and never rolls a registration back.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
)

type AMQPNotifier struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	url     string
}

func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	n := &AMQPNotifier{url: url, queue: queue}
	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *AMQPNotifier) connect() error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare queue %s: %w", n.queue, err)
	}

	n.conn = conn
	n.channel = ch
	return nil
}

func (n *AMQPNotifier) ensureConnection() error {
	if n.conn != nil && !n.conn.IsClosed() {
		return nil
	}
	return n.connect()
}

func (n *AMQPNotifier) NotifyTicketIssued(ctx context.Context, notification domain.TicketNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ensureConnection(); err != nil {
		return err
	}

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = n.channel.PublishWithContext(ctx,
		"",      // default exchange
		n.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
