package mail

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
	gomail "github.com/wneessen/go-mail"
)

const (
	BackendSMTP = "smtp"
	BackendLog  = "log"
)

// smtpClient is the part of *gomail.Client used by SMTPSender.
type smtpClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	client smtpClient
	from   string
}

func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.SMTPPort)}
	if cfg.SMTPTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}

	c, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: c, from: cfg.MailFrom}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(s.from, msg)
	if err != nil {
		return err
	}
	return s.client.DialAndSendWithContext(ctx, m)
}

func buildMsg(from string, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(senderName, from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

// LogSender writes messages to the log instead of sending them. Used in
// development.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "mail_log")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "email", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}

// NewSender picks the configured backend.
func NewSender(cfg *config.Config, l logging.Logger) (Sender, error) {
	switch cfg.MailBackend {
	case BackendSMTP:
		return NewSMTPSender(cfg)
	case "", BackendLog:
		return NewLogSender(l), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.MailBackend)
	}
}
