// Package mailer delivers outbound email through SMTP, a Kafka topic or the log.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"blood-donation-backend/internal/config"
)

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
	Close() error
}

// New returns the sender selected by MAIL_TRANSPORT.
func New(cfg *config.Config, logger *slog.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Mail.Transport) {
	case "", "log":
		return NewLogSender(logger), nil
	case "smtp":
		return NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.Mail.From), nil
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("kafka mail transport needs KAFKA_BROKERS")
		}
		return NewKafkaSender(cfg.Kafka.Brokers, cfg.Kafka.MailTopic, cfg.Mail.From), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
	}
}

// LogSender writes emails to the logger instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email not delivered (log transport)",
		"to", to,
		"subject", subject,
		"body_length", len(body),
	)
	return nil
}

func (s *LogSender) Close() error { return nil }
