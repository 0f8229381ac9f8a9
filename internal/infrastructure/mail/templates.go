package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/postboard/blog-api/internal/core/ports"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type layout struct {
	subject  string
	template string
	path     string
}

var layouts = map[ports.NotificationKind]layout{
	ports.NotificationVerifyAccount: {subject: "Confirm your email", template: "verify_account.html", path: "/auth/verify"},
	ports.NotificationResetPassword: {subject: "Reset your password", template: "reset_password.html", path: "/auth/reset-password"},
}

// Rendered is a notification turned into a subject and an HTML body.
type Rendered struct {
	Subject string
	HTML    string
}

// Render builds the message for n. Links point at frontendURL with the token
// as a query parameter.
func Render(frontendURL string, n ports.Notification) (Rendered, error) {
	l, ok := layouts[n.Kind]
	if !ok {
		return Rendered{}, fmt.Errorf("mail: unknown notification kind %q", n.Kind)
	}

	link := strings.TrimRight(frontendURL, "/") + l.path + "?token=" + url.QueryEscape(n.Token)

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, l.template, struct {
		To   string
		Link string
	}{To: n.To, Link: link}); err != nil {
		return Rendered{}, fmt.Errorf("mail: render %s: %w", l.template, err)
	}
	return Rendered{Subject: l.subject, HTML: buf.String()}, nil
}
