package queue

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

var _ Queue = (*Kafka)(nil)

// Kafka publishes post change events to a kafka topic, keyed by post id so
// events for one post stay ordered within a partition.
type Kafka struct {
	producer *kafka.Producer
	topic    string
}

func NewKafka(brokers, topic string) (*Kafka, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return nil, err
	}

	k := &Kafka{producer: producer, topic: topic}
	go k.drainDeliveryReports()

	return k, nil
}

func (k *Kafka) PublishPostEvent(ctx context.Context, event *PostEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.PostID),
		Value:          data,
	}, nil)
}

func (k *Kafka) drainDeliveryReports() {
	for e := range k.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			logrus.Errorf("event delivery failed: %v", m.TopicPartition.Error)
		}
	}
}

func (k *Kafka) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}
