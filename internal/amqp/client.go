package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	maxPublishAttempts = 3
	maxBackoff         = 30 * time.Second
)

var errMessageChannelClosed = errors.New("message channel closed")

// session is one broker connection with its channel.
type session interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

type liveSession struct {
	*amqp091.Channel
	conn *amqp091.Connection
}

// Close closes the channel and then the connection.
func (s *liveSession) Close() error {
	_ = s.Channel.Close()
	return s.conn.Close()
}

type Client struct {
	exchangeName string
	queueName    string
	dial         func() (session, error)
	backoff      func(attempt int) time.Duration

	// mu also serializes reconnects
	mu   sync.Mutex
	sess session
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	return newClient(exchangeName, queueName, func() (session, error) {
		return dialSession(url, exchangeName, queueName)
	})
}

func newClient(exchangeName, queueName string, dial func() (session, error)) (*Client, error) {
	c := &Client{
		exchangeName: exchangeName,
		queueName:    queueName,
		dial:         dial,
		backoff:      exponentialBackoff,
	}
	if err := c.reconnect(nil); err != nil {
		return nil, err
	}
	return c, nil
}

// dialSession dials and declares the topology.
func dialSession(url, exchangeName, queueName string) (session, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, exchangeName, queueName); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return &liveSession{Channel: channel, conn: conn}, nil
}

// reconnect replaces stale with a fresh session. When another goroutine has
// already replaced stale, its session is kept and nothing is dialed.
func (c *Client) reconnect(stale session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil && c.sess != stale {
		return nil
	}
	if stale != nil {
		_ = stale.Close()
		c.sess = nil
	}

	sess, err := c.dial()
	if err != nil {
		return err
	}
	c.sess = sess
	return nil
}

func (c *Client) current() session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func setup(channel *amqp091.Channel, exchangeName, queueName string) error {
	err := channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on a direct exchange
	if err := channel.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishLedgerEvent publishes an event, reconnecting with backoff when the
// connection has dropped.
func (c *Client) PublishLedgerEvent(ctx context.Context, event *LedgerEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	var lastErr error
	var stale session
	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
			if err := c.reconnect(stale); err != nil {
				lastErr = err
				continue
			}
		}

		sess := c.current()
		if sess == nil {
			lastErr = errors.New("connection closed")
			stale = nil
			continue
		}
		lastErr = c.publish(ctx, sess, event.MessageID, body)
		if lastErr == nil {
			slog.DebugContext(ctx, "Published ledger event",
				"message_id", event.MessageID,
				"event_type", event.Type,
				"user_id", event.UserID,
				"exchange", c.exchangeName)
			return nil
		}
		if !isConnectionError(lastErr) {
			return lastErr
		}
		stale = sess
		slog.WarnContext(ctx, "AMQP publish failed, retrying", "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("publish after %d attempts: %w", maxPublishAttempts, lastErr)
}

func (c *Client) publish(ctx context.Context, sess session, messageID string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := sess.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeLedgerEvents delivers events to handler until ctx is done.
// Malformed bodies are dropped; handler errors requeue the message.
func (c *Client) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *LedgerEvent) error) error {
	sess := c.current()
	if sess == nil {
		return errors.New("connection closed")
	}

	msgs, err := sess.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errMessageChannelClosed
			}
			dispatch(ctx, delivery.Body, delivery, handler)
		}
	}
}

// acknowledger is the part of amqp091.Delivery used after handling.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func dispatch(ctx context.Context, body []byte, ack acknowledger, handler func(context.Context, *LedgerEvent) error) {
	event, err := LedgerEventFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode ledger event", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to handle ledger event",
			"error", err,
			"message_id", event.MessageID,
			"event_type", event.Type)
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	err := c.sess.Close()
	c.sess = nil
	return err
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection closed", "eof", "broken pipe", "use of closed network connection", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
