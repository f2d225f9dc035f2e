package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Ariet2003/cashier-service/internal/entity"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// PublishOrderPaid writes the event keyed by order so all events of one order
// land on the same partition.
func (p *KafkaPublisher) PublishOrderPaid(ctx context.Context, evt entity.OrderPaidEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-paid-%d", evt.OrderID)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("order.paid")},
			{Key: "event-id", Value: []byte(evt.EventID)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPaid(context.Context, entity.OrderPaidEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
