package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/custconnect/custconnect-backend/pkg/config"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Sender delivers account verification codes.
type Sender interface {
	SendVerificationCode(ctx context.Context, toEmail, toName, code string) error
}

// NewSender picks the Sendgrid sender when an API key is configured and the
// console sender otherwise (local development has no key).
func NewSender(cfg config.MailConfig, logg *logger.Logger) Sender {
	if cfg.SendgridAPIKey == "" {
		return &consoleSender{logg: logg}
	}
	return &sendgridSender{cfg: cfg}
}

type sendgridSender struct {
	cfg config.MailConfig
}

func (s *sendgridSender) SendVerificationCode(ctx context.Context, toEmail, toName, code string) error {
	from := sgmail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := sgmail.NewEmail(toName, toEmail)
	subject := "Your CustConnect verification code"
	text := fmt.Sprintf("Your verification code is %s. It expires in %s.", code, s.cfg.OTPTTL)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %s.</p>", code, s.cfg.OTPTTL)

	message := sgmail.NewSingleEmail(from, subject, to, text, html)

	req := sendgrid.GetRequest(s.cfg.SendgridAPIKey, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(message)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sending verification email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending verification email: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type consoleSender struct {
	logg *logger.Logger
}

func (s *consoleSender) SendVerificationCode(ctx context.Context, toEmail, toName, code string) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"to": toEmail, "code": code})
		s.logg.Info(ctx, "verification code (console sender)")
	}
	return nil
}
