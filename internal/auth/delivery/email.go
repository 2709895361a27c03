package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
)

// LoginCodePath is where the emailed link points.
const LoginCodePath = "/accounts/login/code/"

// DefaultSubject is used when EmailDeliverer.Subject is empty.
const DefaultSubject = "Your login code"

// DefaultEmailTemplate is the body sent with every login code.
var DefaultEmailTemplate = template.Must(template.New("login_code").Parse(
	`Hello {{.Username}},

Use the link below to sign in to {{.SiteName}}:

{{.LoginURL}}

Or enter this code on the login page:

{{.Code}}

The code can be used once and expires in {{.Expiration}}.
If you did not request it you can ignore this message.
`))

// EmailParams are the values available to the email template.
type EmailParams struct {
	Username   string
	SiteName   string
	LoginURL   string
	Code       string
	Expiration time.Duration
}

type baseURLKey struct{}

// WithBaseURL overrides EmailDeliverer.BaseURL for one request, so links
// point at the host the user actually used.
func WithBaseURL(ctx context.Context, baseURL string) context.Context {
	return context.WithValue(ctx, baseURLKey{}, baseURL)
}

// EmailDeliverer renders login codes into emails.
type EmailDeliverer struct {
	Mailer     Mailer
	From       string
	Subject    string
	SiteName   string
	BaseURL    string
	Expiration time.Duration
	Template   *template.Template
}

// LoginURL builds the redemption link for a code.
func LoginURL(baseURL, userID, code string) string {
	return strings.TrimRight(baseURL, "/") + LoginCodePath +
		"?user=" + url.QueryEscape(userID) + "&code=" + url.QueryEscape(code)
}

// Deliver emails code to user.
func (d *EmailDeliverer) Deliver(ctx context.Context, user domain.User, code domain.LoginCode) error {
	if user.Email == "" {
		return fmt.Errorf("delivery: user %s has no email address", user.ID)
	}

	baseURL := d.BaseURL
	if v, ok := ctx.Value(baseURLKey{}).(string); ok && v != "" {
		baseURL = v
	}

	tmpl := d.Template
	if tmpl == nil {
		tmpl = DefaultEmailTemplate
	}

	var body bytes.Buffer
	err := tmpl.Execute(&body, EmailParams{
		Username:   user.Username,
		SiteName:   d.SiteName,
		LoginURL:   LoginURL(baseURL, user.ID, code.Code),
		Code:       code.Code,
		Expiration: d.Expiration,
	})
	if err != nil {
		return fmt.Errorf("delivery: render email: %w", err)
	}

	subject := d.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	return d.Mailer.Send(ctx, Message{
		From:    d.From,
		To:      user.Email,
		Subject: subject,
		Body:    body.String(),
	})
}
