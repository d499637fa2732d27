package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MailCommand is the payload published for an external mail worker.
type MailCommand struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender hands emails to a Kafka topic keyed by recipient.
type KafkaSender struct {
	writer messageWriter
	from   string
	now    func() time.Time
}

func NewKafkaSender(brokers []string, topic, from string) *KafkaSender {
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireAll,
			MaxAttempts:            3,
		},
		from: from,
		now:  time.Now,
	}
}

func (s *KafkaSender) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(MailCommand{
		From:     s.from,
		To:       to,
		Subject:  subject,
		Body:     body,
		QueuedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal mail command: %w", err)
	}

	// keyed by recipient so one inbox keeps its order
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(to),
		Value: payload,
	})
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
