package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"zoom-lms-api/core/config"
)

// No mail library ships with the example stack; plain net/smtp covers the
// single transactional template this service sends.

var meetingStartTemplate = template.Must(template.New("meeting_start").Parse(`
<p>Ha comenzado una sesi&oacute;n de Zoom en el curso: <strong>{{.CourseName}}</strong>.</p>
<p><a href="{{.RedirectURL}}">Ir a la sesi&oacute;n</a></p>
<p>{{.PlatformName}}</p>
`))

// MeetingStartEmailData feeds the meeting start template.
type MeetingStartEmailData struct {
	CourseName   string
	PlatformName string
	RedirectURL  string
}

// RenderMeetingStartEmail renders the HTML body for the meeting start mail.
func RenderMeetingStartEmail(data MeetingStartEmailData) (string, error) {
	var buf bytes.Buffer
	if err := meetingStartTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render meeting start email: %w", err)
	}
	return buf.String(), nil
}

// SendHTMLEmail delivers a single HTML mail through the configured SMTP
// relay. Blocking; callers run it from the email task queue only.
func SendHTMLEmail(to string, subject string, htmlBody string) error {
	cfg, ok := config.GetSafe()
	if !ok {
		return fmt.Errorf("config not initialized")
	}

	headers := []string{
		"From: " + cfg.SMTP.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
	}
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	addr := fmt.Sprintf("%s:%d", cfg.SMTP.Host, cfg.SMTP.Port)
	var auth smtp.Auth
	if cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Host)
	}
	return smtp.SendMail(addr, auth, cfg.SMTP.From, []string{to}, []byte(msg))
}
