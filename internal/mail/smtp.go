package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	logx "cronrunner/pkg/logx"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends job output through an SMTP relay.
type SMTPMailer struct {
	log     logx.Logger
	limiter *rate.Limiter
	send    sendFunc
	now     func() time.Time
}

func NewSMTP(cfg Config, log logx.Logger) *SMTPMailer {
	if log.IsZero() {
		log = logx.Nop()
	}
	m := &SMTPMailer{
		log:  log.With(logx.String("comp", "mail")),
		send: smtp.SendMail,
		now:  time.Now,
	}
	if cfg.RatePerMinute > 0 {
		m.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}
	return m
}

// Send attaches files and delivers one message to all recipients.
// It waits for the rate limiter, so ctx bounds how long a burst may stall.
func (m *SMTPMailer) Send(ctx context.Context, files, to []string, cfg Config) error {
	if len(to) == 0 {
		return nil
	}
	cfg = cfg.WithDefaults()
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("%w: host required to send email", ErrInvalidConfig)
	}
	if err := ValidateRecipients(to); err != nil {
		return err
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("mail rate limit: %w", err)
		}
	}

	msg, err := BuildMessage(files, to, cfg, m.now())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	start := time.Now()
	if err := m.send(addr, auth, envelopeFrom(cfg.From), to, msg); err != nil {
		m.log.Warn("email delivery failed", logx.String("addr", addr), logx.Strings("to", to), logx.Err(err))
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	m.log.Debug("email delivered",
		logx.String("addr", addr),
		logx.Strings("to", to),
		logx.Int("attachments", len(files)),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}

func envelopeFrom(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

var errNoTransport = errors.New("no mail transport configured")

// Discard is a Mailer that refuses to send. It is used when no SMTP host is
// configured so jobs with recipients fail loudly in the log instead of silently.
type Discard struct{}

func (Discard) Send(_ context.Context, _, to []string, _ Config) error {
	if len(to) == 0 {
		return nil
	}
	return errNoTransport
}
