package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes CloudEvents. Writes are asynchronous: PublishEvent
// returns once the message is queued and delivery failures are logged.
type Producer struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewProducer creates an async producer for the given brokers.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	p := &Producer{logger: logger}
	p.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafkago.RequireOne,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion:             p.onCompletion,
	}
	return p
}

// PublishEvent queues ce on topic keyed by key.
func (p *Producer) PublishEvent(ctx context.Context, topic, key string, ce CloudEvent) error {
	value, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud event: %w", err)
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  ce.Time,
		Headers: []kafkago.Header{
			{Key: "ce_type", Value: []byte(ce.Type)},
			{Key: "ce_id", Value: []byte(ce.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) onCompletion(messages []kafkago.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		p.logger.Error("failed to deliver event",
			zap.String("topic", m.Topic),
			zap.String("key", string(m.Key)),
			zap.Error(err),
		)
	}
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
