// Package mailer delivers templated notification emails.
package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Template names understood by every Sender.
const (
	TemplateVerifyEmail = "verify_email"
	TemplateRecoverPIN  = "recover_pin"
)

// Message is one templated email.
type Message struct {
	To       string
	Template string
	Params   map[string]string
}

// Sender delivers a Message. Send blocks until the provider accepted or
// rejected it; there is no retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is
// meant for local development.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender returns a Sender that logs at info level.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	fields := []zap.Field{zap.String("to", msg.To), zap.String("template", msg.Template)}
	for k, v := range msg.Params {
		fields = append(fields, zap.String("param."+k, v))
	}
	s.log.Info("mail not delivered (log driver)", fields...)
	return nil
}
