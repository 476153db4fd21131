package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
	"github.com/IBM/sarama"
)

// kafkaPublisher produces one record per event, keyed by article URL so
// repeats of the same article land on the same partition.
type kafkaPublisher struct {
	id       string
	topic    string
	producer sarama.SyncProducer
	log      logger.Logger
}

func newKafkaPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Kafka == nil {
		return nil, fmt.Errorf("publisher %q missing kafka configuration", cfg.ID)
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V3_6_0_0
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	if cfg.Kafka.ClientID != "" {
		sc.ClientID = cfg.Kafka.ClientID
	}

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &kafkaPublisher{
		id:       cfg.ID,
		topic:    cfg.Kafka.Topic,
		producer: producer,
		log:      logger.Ensure(log),
	}, nil
}

func (k *kafkaPublisher) ID() string   { return k.id }
func (k *kafkaPublisher) Type() string { return TypeKafka }

func (k *kafkaPublisher) Publish(_ context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	attrs := evt.attributes()
	headers := make([]sarama.RecordHeader, 0, len(attrs))
	for key, v := range attrs {
		headers = append(headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   k.topic,
		Key:     sarama.StringEncoder(evt.Article.URL),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers,
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		k.log.ErrorObj("kafka publisher send failed", "publisher_kafka_error", map[string]any{
			"publisher_id": k.id,
			"event_id":     evt.ID,
			"error":        err.Error(),
		})
		return fmt.Errorf("send message to kafka: %w", err)
	}
	k.log.DebugObj("kafka publisher delivered event", "publisher_kafka_delivery", map[string]any{
		"publisher_id": k.id,
		"event_id":     evt.ID,
		"partition":    partition,
		"offset":       offset,
	})
	return nil
}

func (k *kafkaPublisher) Close() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}
