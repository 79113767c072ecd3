package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type negotiationAssignedEmailData struct {
	baseEmailData
	BrokerName    string
	PropertyTitle string
	LeadName      string
}

type negotiationClosedEmailData struct {
	baseEmailData
	BrokerName    string
	PropertyTitle string
	ClosingValue  string
}

const (
	subjectNegotiationAssigned = "Nova negociação atribuída a você"
	subjectNegotiationClosed   = "Negociação fechada"
)

func renderEmailTemplate(name string, data any) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
