// Package mailer delivers purchase-confirmation messages. Delivery is best
// effort; fulfillment never depends on it.
package mailer

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/talkincode/digistore/config"
	"github.com/talkincode/digistore/internal/domain"
)

// Sender delivers a purchase confirmation for a freshly created order.
type Sender interface {
	SendOrderConfirmation(order *domain.Order, shop *domain.Shop) error
}

// SmtpSender sends mail through the configured SMTP relay.
type SmtpSender struct {
	cfg config.SmtpConfig
}

func NewSmtpSender(cfg config.SmtpConfig) *SmtpSender {
	return &SmtpSender{cfg: cfg}
}

func (s *SmtpSender) SendOrderConfirmation(order *domain.Order, shop *domain.Shop) error {
	subject := "Your purchase"
	if shop != nil {
		subject = fmt.Sprintf("Your purchase from %s", shop.Name)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", order.CustomerEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", fmt.Sprintf(
		"Thanks for your purchase!\n\nItem: %s\nPrice: %.2f\nOrder reference: %d\n",
		order.ProductName, order.Price, order.ID))

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return errors.Wrap(err, "send order confirmation")
	}
	return nil
}
