// Package email delivers broker-facing notification emails.
package email

import "context"

// Sender delivers the notification emails the pipeline produces.
type Sender interface {
	SendNegotiationAssignedEmail(ctx context.Context, toEmail, brokerName, propertyTitle, leadName string) error
	SendNegotiationClosedEmail(ctx context.Context, toEmail, brokerName, propertyTitle, closingValue string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender satisfies Sender without delivering anything. Used when SMTP is
// not configured.
type NoopSender struct{}

func (NoopSender) SendNegotiationAssignedEmail(ctx context.Context, toEmail, brokerName, propertyTitle, leadName string) error {
	return nil
}

func (NoopSender) SendNegotiationClosedEmail(ctx context.Context, toEmail, brokerName, propertyTitle, closingValue string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}
