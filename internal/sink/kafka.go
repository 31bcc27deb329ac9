package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/payload"
)

// KafkaConfig holds configuration for the Kafka relay producer.
type KafkaConfig struct {
	Brokers     []string
	Topic       string
	Acks        string
	Compression string

	SASLMechanism string
	SASLUser      string
	SASLPassword  string
}

// KafkaSink produces the canonical event JSON to a topic, keyed by event ID
// so downstream consumers can deduplicate.
type KafkaSink struct {
	config   KafkaConfig
	producer *kafka.Producer
	log      *zap.Logger
}

func NewKafkaSink(config KafkaConfig, log *zap.Logger) *KafkaSink {
	if config.Acks == "" {
		config.Acks = "all"
	}
	return &KafkaSink{config: config, log: log}
}

func (s *KafkaSink) Start(ctx context.Context) error {
	configMap := kafka.ConfigMap{
		"bootstrap.servers": strings.Join(s.config.Brokers, ","),
		"acks":              s.config.Acks,
		"batch.size":        16384,
		"linger.ms":         10,
	}
	if s.config.Compression != "" {
		configMap["compression.type"] = s.config.Compression
	}
	if s.config.SASLMechanism != "" {
		configMap["security.protocol"] = "SASL_SSL"
		configMap["sasl.mechanism"] = s.config.SASLMechanism
		configMap["sasl.username"] = s.config.SASLUser
		configMap["sasl.password"] = s.config.SASLPassword
	}

	producer, err := kafka.NewProducer(&configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	s.producer = producer

	go s.handleDeliveryReports(ctx)
	return nil
}

func (s *KafkaSink) Enqueue(e payload.Event) error {
	if s.producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &s.config.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(e.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_name", Value: []byte(e.Name)},
		},
	}
	if err := s.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.producer == nil {
		return nil
	}
	if remaining := s.producer.Flush(10 * 1000); remaining > 0 {
		return fmt.Errorf("failed to flush %d remaining messages", remaining)
	}
	s.producer.Close()
	return nil
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) handleDeliveryReports(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.producer.Events():
			switch m := ev.(type) {
			case *kafka.Message:
				if m.TopicPartition.Error != nil {
					s.log.Warn("kafka delivery failed", zap.Error(m.TopicPartition.Error))
				}
			case kafka.Error:
				s.log.Warn("kafka client error", zap.String("error", m.Error()))
			}
		}
	}
}
