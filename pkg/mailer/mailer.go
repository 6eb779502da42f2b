// Package mailer sends transactional email. Production uses Postmark;
// development logs messages instead of sending them.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"
)

var (
	ErrInvalidConfig     = errors.New("invalid mailer config")
	ErrInvalidRecipient  = errors.New("invalid recipient address")
	ErrSubjectRequired   = errors.New("subject is required")
	ErrBodyRequired      = errors.New("body is required")
	ErrFailedToSendEmail = errors.New("failed to send email")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Sender delivers a single email.
type Sender interface {
	SendEmail(ctx context.Context, params SendParams) error
}

// SendParams describes one outbound email.
type SendParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}

// Validate checks the minimum fields needed to deliver the message.
func (p SendParams) Validate() error {
	if !emailRegex.MatchString(p.SendTo) {
		return ErrInvalidRecipient
	}
	if p.Subject == "" {
		return ErrSubjectRequired
	}
	if p.BodyHTML == "" {
		return ErrBodyRequired
	}
	return nil
}

// Config holds mailer configuration. The Postmark tokens are optional so
// development environments can run with the log sender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
}

var resetTemplate = template.Must(template.New("password_reset").Parse(`<html>
<body>
<p>Hello,</p>
<p>We received a request to reset your password. The link below is valid
for a limited time:</p>
<p><a href="{{.ResetURL}}">Reset your password</a></p>
<p>If you did not request this, you can safely ignore this email.</p>
</body>
</html>`))

// PasswordResetEmail renders the reset message for the given link.
func PasswordResetEmail(to, resetURL string) (SendParams, error) {
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct{ ResetURL string }{ResetURL: resetURL}); err != nil {
		return SendParams{}, fmt.Errorf("failed to render reset email: %w", err)
	}

	return SendParams{
		SendTo:   to,
		Subject:  "Reset your password",
		BodyHTML: body.String(),
		Tag:      "password-reset",
	}, nil
}
