package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes events as JSON to a topic, keyed by conversation.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink returns a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Handle(ctx context.Context, ev Event) error {
	msg, err := encodeKafka(ev)
	if err != nil {
		return err
	}
	return errors.Wrap(k.writer.WriteMessages(ctx, msg), "kafka write")
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

func encodeKafka(ev Event) (kafka.Message, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, errors.Wrapf(err, "encode %s event", ev.Type)
	}
	return kafka.Message{
		Key:   []byte(ev.Key()),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}, nil
}
