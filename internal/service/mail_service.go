package service

import (
	"sync"

	"go.uber.org/zap"

	"campus_hub/internal/pkg"
)

// MailSender pkg.Mailer 实现
type MailSender interface {
	Send(to, subject, htmlBody string) error
}

// MailService 异步发信，失败只记日志；sender 为空时什么也不做
type MailService struct {
	sender MailSender
	log    *zap.Logger
	wg     sync.WaitGroup
}

func NewMailService(sender MailSender, log *zap.Logger) *MailService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MailService{sender: sender, log: log}
}

// NewMailServiceFromMailer 未配置 SMTP 时 mailer 为 nil
func NewMailServiceFromMailer(m *pkg.Mailer, log *zap.Logger) *MailService {
	if m == nil {
		return NewMailService(nil, log)
	}
	return NewMailService(m, log)
}

func (s *MailService) Enabled() bool {
	return s != nil && s.sender != nil
}

func (s *MailService) send(to, subject, body string) {
	if !s.Enabled() || to == "" {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sender.Send(to, subject, body); err != nil {
			s.log.Warn("send mail failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}()
}

func (s *MailService) RegistrationStatus(to, name, eventTitle, status, message string) {
	s.send(to, "Registration "+status+": "+eventTitle, pkg.RegistrationStatusHTML(name, eventTitle, status, message))
}

func (s *MailService) AccountApproved(to, name string) {
	s.send(to, "Your admin account has been approved", pkg.AccountApprovedHTML(name))
}

// Wait 退出前等待在途邮件
func (s *MailService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}
