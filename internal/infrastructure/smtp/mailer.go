package smtp

import (
	"context"
	"fmt"
	"strings"

	"github.com/landing-auth/internal/config"
	"github.com/wneessen/go-mail"
)

const defaultPort = 587

// Message is a multipart email with a plain-text body and an HTML alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends emails.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

// NewMailer returns a go-mail backed Mailer. It fails when neither a host nor
// a known service name is configured.
func NewMailer(cfg config.SMTPConfig) (Mailer, error) {
	host, port := resolveServer(cfg)
	if host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &mailer{
		host:     host,
		port:     port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		fromName: cfg.FromName,
	}, nil
}

// resolveServer maps well-known service names to their submission host.
// An explicit host or port always wins.
func resolveServer(cfg config.SMTPConfig) (string, int) {
	host := cfg.Host
	if host == "" {
		switch s := strings.ToLower(strings.TrimSpace(cfg.Service)); s {
		case "gmail":
			host = "smtp.gmail.com"
		case "outlook", "office365", "hotmail":
			host = "smtp.office365.com"
		default:
			host = s
		}
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return host, port
}

func (m *mailer) buildMessage(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if m.fromName != "" {
		if err := out.FromFormat(m.fromName, m.from); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return out, nil
}

func (m *mailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.port)}
	switch {
	case m.port == 465:
		opts = append(opts, mail.WithSSL())
	case m.username != "":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.username != "" && m.password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	return opts
}

func (m *mailer) Send(ctx context.Context, msg Message) error {
	out, err := m.buildMessage(msg)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(m.host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
