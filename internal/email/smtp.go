package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"imobcrm_backend/platform/config"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a sender from the SMTP configuration.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendNegotiationAssignedEmail(ctx context.Context, toEmail, brokerName, propertyTitle, leadName string) error {
	content, err := renderEmailTemplate("negotiation_assigned.html", negotiationAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectNegotiationAssigned,
			Heading: "Nova negociação atribuída",
		},
		BrokerName:    brokerName,
		PropertyTitle: propertyTitle,
		LeadName:      leadName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectNegotiationAssigned, content)
}

func (s *SMTPSender) SendNegotiationClosedEmail(ctx context.Context, toEmail, brokerName, propertyTitle, closingValue string) error {
	content, err := renderEmailTemplate("negotiation_closed.html", negotiationClosedEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectNegotiationClosed,
			Heading: "Negociação fechada",
		},
		BrokerName:    brokerName,
		PropertyTitle: propertyTitle,
		ClosingValue:  closingValue,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectNegotiationClosed, content)
}

func (s *SMTPSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.send(ctx, toEmail, subject, htmlContent)
}
