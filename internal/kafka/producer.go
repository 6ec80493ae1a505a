package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer is a wrapper around the Kafka writer
type Producer struct {
	writer messageWriter
	topic  string
	log    *logger.Logger
}

func newProducer(writer messageWriter, topic string, log *logger.Logger) *Producer {
	return &Producer{writer: writer, topic: topic, log: log}
}

// Topic returns the topic the producer writes to
func (p *Producer) Topic() string {
	return p.topic
}

// ProduceMessage writes one message and waits for the broker acknowledgement
func (p *Producer) ProduceMessage(ctx context.Context, key []byte, value []byte, headers []MessageHeader) error {
	msg := kafka.Message{
		Key:   key,
		Value: value,
	}
	for _, h := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorw("Failed to produce message", "topic", p.topic, "key", string(key), "error", err)
		return apperrors.Unavailable(err, "failed to produce message")
	}

	p.log.Debugw("Message produced", "topic", p.topic, "key", string(key))
	return nil
}

// ProduceJSON produces a JSON-serialized message to the topic
func (p *Producer) ProduceJSON(ctx context.Context, key []byte, value interface{}, headers []MessageHeader) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal message")
	}
	return p.ProduceMessage(ctx, key, jsonValue, headers)
}

// Close flushes pending writes and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
