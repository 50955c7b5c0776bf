package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"
)

// KafkaPublisher sends each event to the topic <prefix><event type>.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	prefix   string
}

func NewKafkaPublisher(brokers []string, topicPrefix string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	log.Printf("Kafka producer initialized for brokers %v", brokers)
	return NewKafkaPublisherWithProducer(producer, topicPrefix), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, prefix: topicPrefix}
}

func (p *KafkaPublisher) Topic(t Type) string {
	return p.prefix + string(t)
}

func (p *KafkaPublisher) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.Topic(ev.Type),
		Key:   sarama.StringEncoder(ev.SubjectID),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", ev.Type, err)
	}
	log.Printf("Published %s event to %s [%d@%d]", ev.Type, msg.Topic, partition, offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return err
	}
	log.Println("Kafka producer closed.")
	return nil
}
