package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic is the topic DayFinalized events are written to when the
// configuration does not name one.
const DefaultTopic = "day_finalized"

// Kafka publishes events as JSON messages to a Kafka topic.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka creates a publisher writing to the given brokers and topic.
func NewKafka(brokers []string, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish implements Publisher.
func (k *Kafka) Publish(ctx context.Context, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Value: data})
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error { return k.writer.Close() }

var _ Publisher = (*Kafka)(nil)
