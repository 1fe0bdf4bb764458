package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPMailer publishes messages to a RabbitMQ exchange consumed by the mail relay.
type AMQPMailer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	logger   *zap.Logger
}

// NewAMQPMailer dials the broker and declares a durable direct exchange bound to queue.
func NewAMQPMailer(url, exchange, queue string, logger *zap.Logger) (*AMQPMailer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mail broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open mail channel: %w", err)
	}

	m := &AMQPMailer{conn: conn, channel: ch, exchange: exchange, queue: queue, logger: logger}
	if err := m.setup(); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

func (m *AMQPMailer) setup() error {
	if err := m.channel.ExchangeDeclare(
		m.exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", m.exchange, err)
	}

	if _, err := m.channel.QueueDeclare(
		m.queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", m.queue, err)
	}

	if err := m.channel.QueueBind(m.queue, m.queue, m.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", m.queue, err)
	}
	return nil
}

// Send publishes msg as a persistent JSON message.
func (m *AMQPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("mail recipient is empty")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	m.mu.Lock()
	defer m.mu.Unlock()

	err = m.channel.PublishWithContext(ctx,
		m.exchange,
		m.queue,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish mail to %s: %w", msg.To, err)
	}

	m.logger.Debug("mail queued", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// Close closes the channel and connection.
func (m *AMQPMailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.channel != nil {
		errs = append(errs, m.channel.Close())
	}
	if m.conn != nil {
		errs = append(errs, m.conn.Close())
	}
	return errors.Join(errs...)
}
