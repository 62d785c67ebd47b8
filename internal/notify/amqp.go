package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPConfig holds the broker settings. Messages go to the default exchange
// with the queue name as routing key.
type AMQPConfig struct {
	URL   string
	Queue string
}

// publisher is the subset of *amqp091.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Message is the JSON payload published for each notification. A mail
// worker consumes the queue and performs delivery.
type Message struct {
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	BodyHTML   string    `json:"body_html"`
	CreatedAt  time.Time `json:"created_at"`
}

// AMQPNotifier publishes notifications to a durable RabbitMQ queue.
type AMQPNotifier struct {
	conn    *amqp091.Connection
	channel publisher
	queue   string
}

// DialAMQP connects to the broker and declares the durable queue.
func DialAMQP(cfg AMQPConfig) (*AMQPNotifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("amqp notifier: AMQP_URL is not set")
	}

	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: ch, queue: cfg.Queue}, nil
}

// Send implements Notifier.
func (n *AMQPNotifier) Send(ctx context.Context, recipients []string, subject, bodyHTML string) error {
	if len(recipients) == 0 {
		return nil
	}

	body, err := json.Marshal(Message{
		Recipients: recipients,
		Subject:    subject,
		BodyHTML:   bodyHTML,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = n.channel.PublishWithContext(
		ctx,
		"",      // default exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	logger.Get().Infow("published notification", "queue", n.queue, "recipients", len(recipients), "subject", subject)
	return nil
}

// Close closes the broker connection.
func (n *AMQPNotifier) Close() error {
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
