package mail

import (
	"net/mail"

	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/config"
)

// Message a plain-text e-mail.
type Message struct {
	To      []mail.Address
	Subject string
	Text    string
}

// HasRecipients reports whether the message can be delivered.
func (m *Message) HasRecipients() bool { return len(m.To) > 0 }

// Sender delivers messages. Implementations must not block the caller.
type Sender interface {
	Send(messages ...*Message)
}

// NewSender picks SendGrid when an API key is configured, the log sender otherwise.
func NewSender(cfg *config.MailConfig, logger *zap.Logger) Sender {
	if cfg.SendGridAPIKey == "" {
		logger.Info("mail: no sendgrid key, messages are logged only")
		return NewLogSender(cfg.SubjectPrefix, logger)
	}
	return NewSendGridSender(cfg, logger)
}

// LogSender writes messages to the logger instead of sending them.
type LogSender struct {
	subjPrefix string
	logger     *zap.Logger
}

var _ Sender = (*LogSender)(nil)

// NewLogSender creates a LogSender.
func NewLogSender(subjPrefix string, logger *zap.Logger) *LogSender {
	return &LogSender{subjPrefix: subjPrefix, logger: logger}
}

func (s *LogSender) Send(messages ...*Message) {
	for _, msg := range messages {
		if !msg.HasRecipients() {
			continue
		}
		to := make([]string, 0, len(msg.To))
		for _, a := range msg.To {
			to = append(to, a.Address)
		}
		s.logger.Info("mail",
			zap.Strings("to", to),
			zap.String("subject", s.subjPrefix+msg.Subject),
			zap.String("body", msg.Text),
		)
	}
}
