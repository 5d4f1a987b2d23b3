package mailer

import (
	"fmt"
	"net/smtp"

	"aidat-service/pkg/config"

	"go.uber.org/zap"
)

// Mailer delivers the three notification emails the service sends. All
// sends are best-effort: callers log a failure and carry on, because the
// database record, not the email, is the source of truth.
type Mailer interface {
	SendInvite(to, inviteURL, apartmentName, unitNumber, invitedBy string) error
	SendPaymentStatus(to, residentName string, approved bool, month, year int, amount float64, rejectionReason string) error
	SendPasswordReset(to, resetURL string) error
}

// New returns an SMTP-backed mailer, or a no-op mailer when no SMTP host
// is configured (local development).
func New(cfg config.SMTPConfig, log *zap.Logger) Mailer {
	if cfg.Host == "" {
		log.Warn("SMTP host not configured, outbound email disabled")
		return &nopMailer{log: log}
	}
	return &smtpMailer{cfg: cfg, log: log}
}

type smtpMailer struct {
	cfg config.SMTPConfig
	log *zap.Logger
}

func (m *smtpMailer) send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := fmt.Sprintf("From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		htmlBody

	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}

	m.log.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (m *smtpMailer) SendInvite(to, inviteURL, apartmentName, unitNumber, invitedBy string) error {
	subject := fmt.Sprintf("%s - Apartman Sistemi Davetiyesi", apartmentName)
	return m.send(to, subject, inviteBody(inviteURL, apartmentName, unitNumber, invitedBy))
}

func (m *smtpMailer) SendPaymentStatus(to, residentName string, approved bool, month, year int, amount float64, rejectionReason string) error {
	statusText := "Reddedildi"
	if approved {
		statusText = "Onaylandı"
	}
	subject := fmt.Sprintf("Dekontunuz %s - %s %d", statusText, monthTR(month), year)
	return m.send(to, subject, paymentStatusBody(residentName, approved, month, year, amount, rejectionReason))
}

func (m *smtpMailer) SendPasswordReset(to, resetURL string) error {
	return m.send(to, "Şifre Sıfırlama - KolayAidat", passwordResetBody(resetURL))
}

type nopMailer struct {
	log *zap.Logger
}

func (m *nopMailer) SendInvite(to, inviteURL, apartmentName, unitNumber, invitedBy string) error {
	m.log.Info("Skipping invite email (SMTP disabled)",
		zap.String("to", to), zap.String("invite_url", inviteURL))
	return nil
}

func (m *nopMailer) SendPaymentStatus(to, residentName string, approved bool, month, year int, amount float64, rejectionReason string) error {
	m.log.Info("Skipping payment status email (SMTP disabled)",
		zap.String("to", to), zap.Bool("approved", approved))
	return nil
}

func (m *nopMailer) SendPasswordReset(to, resetURL string) error {
	m.log.Info("Skipping password reset email (SMTP disabled)",
		zap.String("to", to))
	return nil
}
