package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/binhetc/pos-ai/internal/core/domain"
)

const DefaultTopic = "payment.events"

// KafkaPublisher sends events keyed by payment reference so every event of a
// payment lands on the same partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer builds a synchronous producer that waits for all in-sync
// replicas.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is not set")
	}
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("unable to start kafka producer: %w", err)
	}
	return producer, nil
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (k *KafkaPublisher) Publish(_ context.Context, ev domain.OutboxEvent) error {
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.Reference),
		Value: sarama.ByteEncoder(ev.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(ev.Type)},
			{Key: []byte("event_id"), Value: []byte(ev.ID.String())},
		},
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s: %w", ev.Type, err)
	}
	slog.Debug("Published payment event", "type", ev.Type, "reference", ev.Reference, "partition", partition, "offset", offset)
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
