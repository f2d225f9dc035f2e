package config

import (
	"time"

	"github.com/segmentio/kafka-go"
)

func NewKafkaWriter(c KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		// one event per payment; do not wait for a batch to fill
		BatchTimeout: 5 * time.Millisecond,
		WriteTimeout: 2 * time.Second,
	}
}
