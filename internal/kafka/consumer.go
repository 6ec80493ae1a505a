package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// MessageHandler is a function that processes Kafka messages
type MessageHandler func(ctx context.Context, msg *Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer wraps a Kafka group reader
type Consumer struct {
	reader  messageReader
	topic   string
	log     *logger.Logger
	backOff func() backoff.BackOff
}

func newConsumer(reader messageReader, topic string, log *logger.Logger) *Consumer {
	return &Consumer{reader: reader, topic: topic, log: log, backOff: defaultBackOff}
}

// defaultBackOff retries a failing message until it succeeds or the consumer stops
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// ConsumeMessages passes every message to handler until ctx is done.
// A failing message is retried with backoff and blocks the partition;
// commits are cumulative, so moving on would skip it for good.
func (c *Consumer) ConsumeMessages(ctx context.Context, handler MessageHandler) error {
	c.log.Infow("Starting consumer", "topic", c.topic)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.log.Infow("Consumer stopped", "topic", c.topic)
				return nil
			}
			c.log.Errorw("Failed to fetch message", "topic", c.topic, "error", err)
			return apperrors.Unavailable(err, "failed to fetch message")
		}

		msg := convert(m)
		if err := c.handle(ctx, handler, msg); err != nil {
			c.log.Infow("Consumer stopped before message succeeded", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Errorw("Error committing offset", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

// handle runs handler until it succeeds. It only returns an error once ctx is done.
func (c *Consumer) handle(ctx context.Context, handler MessageHandler, msg *Message) error {
	operation := func() error {
		return handler(ctx, msg)
	}
	notify := func(err error, wait time.Duration) {
		c.log.Errorw("Error processing message, retrying", "topic", msg.Topic, "offset", msg.Offset, "retry_in", wait, "error", err)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(c.backOff(), ctx), notify)
}

// Close closes the reader and leaves the consumer group
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func convert(m kafka.Message) *Message {
	msg := &Message{
		Key:       m.Key,
		Value:     m.Value,
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Timestamp: m.Time,
	}
	if len(m.Headers) > 0 {
		msg.Headers = make([]MessageHeader, len(m.Headers))
		for i, h := range m.Headers {
			msg.Headers[i] = MessageHeader{Key: h.Key, Value: h.Value}
		}
	}
	return msg
}
