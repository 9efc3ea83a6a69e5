// Package amqp publishes and consumes the tracker's messages: backup
// sync requests for the worker and data-change events for front ends.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 60 * time.Second
)

type Client struct {
	url          string
	exchangeName string
	syncQueue    string
	eventsQueue  string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	// Circuit breaker state: after maxFailures consecutive publish
	// failures the client stops hitting the broker until openTimeout
	// has passed.
	failureCount int64
	state        int32
	lastFailure  int64 // unix nanos, accessed atomically like its siblings
}

func NewClient(url, exchangeName, syncQueue, eventsQueue string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		syncQueue:    syncQueue,
		eventsQueue:  eventsQueue,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	if err := c.setup(); err != nil {
		c.Close()
		return fmt.Errorf("setup exchange and queues: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.syncQueue, c.eventsQueue} {
		if queue == "" {
			continue
		}
		if _, err := c.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		// Routing key equals queue name on a direct exchange.
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

// PublishTransactionSync enqueues a backup sync request for one ledger
// mutation.
func (c *Client) PublishTransactionSync(ctx context.Context, id int64, action string) error {
	msg := NewTransactionSyncMessage(id, action)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.syncQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published transaction sync message",
		"id", id,
		"action", action,
		"queue", c.syncQueue)
	return nil
}

// PublishDataEvent announces an entity change to event subscribers.
func (c *Client) PublishDataEvent(ctx context.Context, entity, action string) error {
	msg := NewDataEventMessage(entity, action)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.eventsQueue, body); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Published data event",
		"event_id", msg.EventID,
		"entity", entity,
		"action", action)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, not publishing to %s", routingKey)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()

	err := channel.PublishWithContext(
		ctx,
		c.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			go c.reconnect()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	return nil
}

// ConsumeTransactionSync delivers backup sync messages to handler until
// ctx is cancelled. Handler errors nack-and-requeue the delivery.
func (c *Client) ConsumeTransactionSync(ctx context.Context, handler func(*TransactionSyncMessage) error) error {
	msgs, err := c.channel.Consume(
		c.syncQueue,
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming transaction sync messages", "queue", c.syncQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := TransactionSyncMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"id", msg.ID,
					"action", msg.Action)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) reconnect() {
	for attempt := 0; ; attempt++ {
		time.Sleep(exponentialBackoff(attempt))
		if err := c.connect(); err != nil {
			slog.Warn("AMQP reconnect failed", "attempt", attempt, "error", err)
			continue
		}
		slog.Info("AMQP reconnected", "attempts", attempt+1)
		return
	}
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		if time.Since(time.Unix(0, atomic.LoadInt64(&c.lastFailure))) > openTimeout {
			atomic.StoreInt32(&c.state, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	atomic.StoreInt64(&c.lastFailure, time.Now().UnixNano())
	if n >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// exponentialBackoff returns the reconnect delay for an attempt,
// capped at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	d := time.Second << uint(attempt)
	if d > 30*time.Second || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// isConnectionError reports whether err looks like a broken broker
// connection worth reconnecting over.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection closed",
		"unexpected EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
