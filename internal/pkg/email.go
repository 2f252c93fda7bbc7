package pkg

import (
	"crypto/tls"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string // 发件人邮箱
	Password string // 授权码/密码
	From     string // 显示的发件人，可与 Username 相同
}

// Mailer 发送 HTML 邮件；未启用时为 nil，调用方需判空
type Mailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg SMTPConfig) *Mailer {
	if !cfg.Enabled || cfg.Host == "" {
		return nil
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Mailer{cfg: cfg, dialer: d}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

func RegistrationStatusHTML(name, eventTitle, status, message string) string {
	return fmt.Sprintf(`<p>Hi %s,</p><p>Your registration for <b>%s</b> is now <b>%s</b>.</p><p>%s</p>`,
		html.EscapeString(name), html.EscapeString(eventTitle), html.EscapeString(status), html.EscapeString(message))
}

func AccountApprovedHTML(name string) string {
	return fmt.Sprintf(`<p>Hi %s,</p><p>Your college admin account has been approved. You can now sign in and publish events.</p>`,
		html.EscapeString(name))
}
