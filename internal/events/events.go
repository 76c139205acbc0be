// Package events publishes domain events after state changes commit.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	MatchCreated = "match.created"
	MatchRemoved = "match.removed"
	MessageSent  = "message.sent"
	MessagesRead = "messages.read"
)

type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured and a logging
// publisher otherwise.
func New(brokers []string, topic string, log logrus.FieldLogger) Publisher {
	if len(brokers) == 0 {
		return NewLogPublisher(log)
	}
	return NewKafkaPublisher(brokers, topic, log)
}

type KafkaPublisher struct {
	writer  *kafka.Writer
	breaker *gobreaker.CircuitBreaker
}

func NewKafkaPublisher(brokers []string, topic string, log logrus.FieldLogger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-" + topic,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Event publisher circuit changed state")
		},
	})

	return &KafkaPublisher{writer: writer, breaker: breaker}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(event.Key),
			Value: value,
			Time:  event.OccurredAt,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.log.WithFields(logrus.Fields{
		"event": event.Type,
		"key":   event.Key,
	}).Debug("Domain event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
