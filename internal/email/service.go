package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service sends provisioning notifications. Sending is best-effort; callers
// log failures and never fail the enclosing request on them.
type Service interface {
	SendCredentials(to, name, role, password string) error
}

// Config holds SMTP settings
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendCredentials(to, name, role, password string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your referral platform account")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nA %s account has been created for you.\n\nEmail: %s\nTemporary password: %s\n\nPlease sign in and change your password.\n",
		name, role, to, password,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send credentials email: %w", err)
	}
	return nil
}

// Noop returns a service that silently drops mail, used when SMTP is not
// configured.
func Noop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) SendCredentials(string, string, string, string) error { return nil }
