package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink appends events to a topic, keyed by player so each player's
// events stay ordered within a partition.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaWriter builds the writer used by KafkaSink
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaSink(writer *kafka.Writer) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	msg, err := kafkaMessage(event)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func kafkaMessage(event Event) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.PlayerID, 10)),
		Value: payload,
		Time:  time.UnixMilli(event.Timestamp),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
			{Key: "match_id", Value: []byte(event.MatchID)},
		},
	}, nil
}
