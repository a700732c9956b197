package notify

import (
	"context"

	"github.com/pkg/errors"
	"github.com/talkincode/storefront/config"
	"gopkg.in/gomail.v2"
)

// MailNotifier sends HTML mail over SMTP
type MailNotifier struct {
	from   string
	dialer *gomail.Dialer
}

func NewMailNotifier(cfg config.MailConfig) *MailNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &MailNotifier{from: from, dialer: d}
}

func (m *MailNotifier) NotifyOrderCreated(ctx context.Context, email string, summary OrderSummary) error {
	body, err := renderOrderCreated(summary)
	if err != nil {
		return errors.Wrap(err, "render order confirmation")
	}
	return m.send(ctx, m.buildMessage(email, orderCreatedSubject(summary), body))
}

func (m *MailNotifier) NotifyStatusChanged(ctx context.Context, email string, update StatusUpdate) error {
	body, err := renderStatusChanged(update)
	if err != nil {
		return errors.Wrap(err, "render status update")
	}
	return m.send(ctx, m.buildMessage(email, statusChangedSubject(update), body))
}

func (m *MailNotifier) buildMessage(to, subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return msg
}

func (m *MailNotifier) send(ctx context.Context, msg *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(m.dialer.DialAndSend(msg), "smtp send")
}

// NewNotifier picks the SMTP notifier when a mail host is configured
func NewNotifier(cfg config.MailConfig) Notifier {
	if cfg.Host == "" {
		return LogNotifier{}
	}
	return NewMailNotifier(cfg)
}
