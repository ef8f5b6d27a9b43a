package mail

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const (
	SummarySubject = "Travel Summary"
	sendTimeout    = 25 * time.Second
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c Config) Configured() bool {
	return c.Host != "" && c.Port > 0 && c.Username != "" && c.Password != "" && c.sender() != ""
}

func (c Config) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []string
}

type Sender struct {
	cfg  Config
	dial func(ctx context.Context, msg *gomail.Msg) error
}

func NewSender(cfg Config) *Sender {
	s := &Sender{cfg: cfg}
	s.dial = s.dialAndSend
	return s
}

func ItinerarySubject(city, startDate string, days int) string {
	return fmt.Sprintf("%d-Day Travel Itinerary – %s (from %s)", days, city, startDate)
}

// Send delivers msg when both a recipient and SMTP settings are present and
// reports whether the SMTP server accepted it. Problems are logged, never
// returned.
func (s *Sender) Send(ctx context.Context, msg Message) bool {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return false
	}
	if !s.cfg.Configured() {
		slog.Info("SMTP not configured, skipping email", "to", to)
		return false
	}

	m, err := s.build(to, msg)
	if err != nil {
		slog.Warn("Failed to build email", "to", to, "error", err)
		return false
	}

	if err := s.dial(ctx, m); err != nil {
		slog.Warn("Failed to send email", "to", to, "error", err)
		return false
	}
	slog.Info("Email sent", "to", to, "subject", msg.Subject)
	return true
}

func (s *Sender) build(to string, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.sender()); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	for _, path := range msg.Attachments {
		if _, err := os.Stat(path); err != nil {
			slog.Warn("Attachment missing", "path", path)
			continue
		}
		m.AttachFile(path)
	}
	return m, nil
}

func (s *Sender) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(sendTimeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
