package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"

	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// Client configuration options
type Config struct {
	Brokers        []string
	GroupID        string
	BatchTimeout   time.Duration
	SessionTimeout time.Duration
	MaxAttempts    int
}

// Message represents a Kafka message
type Message struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   []MessageHeader
}

// Header returns the value of the first header named key
func (m *Message) Header(key string) (string, bool) {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

// MessageHeader represents a Kafka message header
type MessageHeader struct {
	Key   string
	Value []byte
}

// Client hands out producers and consumers that share one broker configuration
type Client struct {
	config *Config
	log    *logger.Logger
}

// DefaultConfig returns a single local broker configuration
func DefaultConfig() *Config {
	return &Config{
		Brokers:        []string{"localhost:9092"},
		GroupID:        "scenario-worker",
		BatchTimeout:   10 * time.Millisecond,
		SessionTimeout: 30 * time.Second,
		MaxAttempts:    3,
	}
}

// NewClient creates a new Kafka client
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if len(config.Brokers) == 0 {
		return nil, apperrors.InvalidInputf("kafka needs at least one broker")
	}

	return &Client{
		config: config,
		log:    logger.GetLogger("kafka.client"),
	}, nil
}

// NewProducer creates a producer bound to topic
func (c *Client) NewProducer(topic string) (*Producer, error) {
	if topic == "" {
		return nil, apperrors.InvalidInputf("producer topic is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(c.config.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            c.config.MaxAttempts,
		BatchTimeout:           c.config.BatchTimeout,
	}

	c.log.Infow("Kafka producer created", "brokers", c.config.Brokers, "topic", topic)
	return newProducer(writer, topic, logger.GetLogger("kafka.producer")), nil
}

// NewConsumer creates a group consumer reading topic
func (c *Client) NewConsumer(topic string) (*Consumer, error) {
	if topic == "" {
		return nil, apperrors.InvalidInputf("consumer topic is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.config.Brokers,
		Topic:          topic,
		GroupID:        c.config.GroupID,
		SessionTimeout: c.config.SessionTimeout,
		StartOffset:    kafka.FirstOffset,
		MaxBytes:       10e6,
	})

	c.log.Infow("Kafka consumer created", "brokers", c.config.Brokers, "topic", topic, "group_id", c.config.GroupID)
	return newConsumer(reader, topic, logger.GetLogger("kafka.consumer")), nil
}
