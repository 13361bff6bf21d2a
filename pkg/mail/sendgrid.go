package mail

import (
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/config"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers through the SendGrid v3 API, one goroutine per message.
type SendGridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

var _ Sender = (*SendGridSender)(nil)

// NewSendGridSender creates a SendGridSender.
func NewSendGridSender(cfg *config.MailConfig, logger *zap.Logger) *SendGridSender {
	return &SendGridSender{
		key:        cfg.SendGridAPIKey,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: cfg.SubjectPrefix,
		logger:     logger,
	}
}

func (s *SendGridSender) Send(messages ...*Message) {
	for _, msg := range messages {
		if !msg.HasRecipients() {
			continue
		}
		msg := msg
		go s.send(msg)
	}
}

func (s *SendGridSender) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgEmail(to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	return m
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (s *SendGridSender) send(msg *Message) {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		s.logger.Error("sendgrid: send mail", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.logger.Error("sendgrid: mail rejected",
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body),
		)
	}
}
