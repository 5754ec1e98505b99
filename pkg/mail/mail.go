package mail

import (
	"crypto/tls"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/mozalert/check-operator/pkg/config"
)

// Sender delivers a single mail synchronously.
type Sender interface {
	Send(receivers []string, subject, body string) error
	Host() string
}

type sender struct {
	dialer        *gomail.Dialer
	senderAddress string
	senderName    string
	log           *zap.SugaredLogger
}

// NewSender builds an SMTP sender from the operator's mail configuration.
func NewSender(cfg config.Mail, log *zap.SugaredLogger) Sender {
	log.Infow("Initializing mail sender", "host", cfg.Host, "port", cfg.Port, "user", cfg.User)
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.InsecureSkipVerify {
		log.Warn("InsecureSkipVerify is enabled for the mail TLS connection")
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &sender{
		dialer:        d,
		senderAddress: cfg.SenderAddress,
		senderName:    cfg.SenderName,
		log:           log,
	}
}

func (s *sender) Send(receivers []string, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.senderAddress, s.senderName)
	msg.SetHeader("To", receivers...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return s.dialer.DialAndSend(msg)
}

func (s *sender) Host() string {
	return s.dialer.Host
}
