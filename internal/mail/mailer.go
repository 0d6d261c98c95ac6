// Package mail delivers administrative notifications. Delivery is
// best-effort: callers log and swallow failures rather than propagating them
// to the request path.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"shopfront/internal/config"
	"shopfront/internal/domain"

	"go.uber.org/zap"
)

// LowStockReport is the payload of a low-stock notification
type LowStockReport struct {
	Products      []*domain.Product
	CriticalCount int
	Threshold     int
}

// Mailer sends notifications to a single recipient
type Mailer interface {
	SendLowStockAlert(recipient string, report LowStockReport) error
}

// SMTPMailer sends mail through a plain SMTP relay
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer creates a mailer for the configured relay
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendLowStockAlert formats and sends the low-stock report
func (m *SMTPMailer) SendLowStockAlert(recipient string, report LowStockReport) error {
	var body strings.Builder
	fmt.Fprintf(&body, "Subject: Low stock alert: %d product(s) at or below %d units\r\n", len(report.Products), report.Threshold)
	fmt.Fprintf(&body, "From: %s\r\nTo: %s\r\n\r\n", m.cfg.From, recipient)
	fmt.Fprintf(&body, "%d product(s) are running low (%d critical):\r\n\r\n", len(report.Products), report.CriticalCount)
	for _, p := range report.Products {
		fmt.Fprintf(&body, "  %s (%s): %d left\r\n", p.Name, p.SKU, p.StockQuantity)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(body.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", recipient, err)
	}

	return nil
}

// LogMailer writes notifications to the log instead of sending them; used in
// development environments without an SMTP relay
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendLowStockAlert logs the report
func (m *LogMailer) SendLowStockAlert(recipient string, report LowStockReport) error {
	m.logger.Info("Low stock alert",
		zap.String("recipient", recipient),
		zap.Int("products", len(report.Products)),
		zap.Int("critical", report.CriticalCount),
	)
	return nil
}
