package kafka

import (
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/warehouse-monitoring/pkg/config"
)

// NewReader crea el reader del consumer group de movimientos. Sin grupo previo arranca
// desde el offset más antiguo; los commits son síncronos (CommitInterval 0).
func NewReader(cfg config.KafkaConfig) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafkago.FirstOffset,
	})
}

// DeliveryKey identifica una entrega concreta: topic/partition/offset.
func DeliveryKey(msg kafkago.Message) string {
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}
