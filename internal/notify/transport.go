package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// DefaultSMTPPort is the submission port used with STARTTLS.
const DefaultSMTPPort = 587

// SMTPConfig holds mail server connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// AllowPlaintext permits servers without STARTTLS, e.g. a local relay.
	AllowPlaintext bool
}

// SMTPTransport delivers messages through an SMTP server, one connection per message.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport creates an SMTP transport.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	return &SMTPTransport{cfg: cfg}, nil
}

func (t *SMTPTransport) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(t.cfg.Port)}
	if t.cfg.AllowPlaintext {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	return opts
}

func (t *SMTPTransport) buildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", t.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

// Send dials the server and submits msg once.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := t.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(t.cfg.Host, t.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// LogTransport only logs the rendered message. Used for dry runs.
type LogTransport struct {
	log *zerolog.Logger
}

// NewLogTransport creates a transport that writes messages to log.
func NewLogTransport(log *zerolog.Logger) *LogTransport {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &LogTransport{log: log}
}

// Send logs msg and never fails.
func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("dry run: notification not sent")
	return nil
}

var (
	_ Transport = (*SMTPTransport)(nil)
	_ Transport = (*LogTransport)(nil)
)
