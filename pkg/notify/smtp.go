package notify

import (
	mail "gopkg.in/mail.v2"
)

// SMTPConfig holds the SMTP connection settings. Port 465 uses implicit
// SSL, everything else negotiates STARTTLS.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through a configured SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *mail.Dialer
}

// NewSMTPMailer builds a mailer from cfg. A new connection is dialed per
// message; volumes here are a handful of mails per complaint action.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465
	return &SMTPMailer{cfg: cfg, dialer: d}
}

func (m *SMTPMailer) Notify(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
