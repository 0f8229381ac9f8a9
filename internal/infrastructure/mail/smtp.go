package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/postboard/blog-api/internal/core/ports"
)

const (
	defaultTimeout = 5 * time.Second
	defaultPort    = 465
)

// Config holds the SMTP server settings. The connection always uses implicit
// TLS, so Port is normally 465.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FromName    string
	FrontendURL string
	Timeout     time.Duration
}

// SMTPMailer delivers notifications as HTML email.
type SMTPMailer struct {
	cfg Config
	now func() time.Time
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	return &SMTPMailer{cfg: cfg, now: time.Now}
}

// Send renders n and hands it to the SMTP server.
func (m *SMTPMailer) Send(ctx context.Context, n ports.Notification) error {
	rendered, err := Render(m.cfg.FrontendURL, n)
	if err != nil {
		return err
	}
	msg, err := m.message(n.To, rendered)
	if err != nil {
		return err
	}
	client, err := m.client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(to string, r Rendered) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(r.Subject)
	msg.SetDateWithValue(m.now())
	msg.SetBodyString(gomail.TypeTextHTML, r.HTML)
	return msg, nil
}

func (m *SMTPMailer) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithSSL(),
		gomail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return client, nil
}
