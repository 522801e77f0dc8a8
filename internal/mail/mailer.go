// Package mail renders and delivers transactional email. Delivery failures
// are the caller's to log; nothing here retries.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	gomail "github.com/wneessen/go-mail"

	"linenloft/internal/domain"
)

type Mailer interface {
	OrderConfirmation(to string, order domain.Order, items []domain.OrderItem) error
	PasswordReset(to, resetURL string) error
}

type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func NewSMTPMailer(host string, port int, user, pass, from string) (*SMTPMailer, error) {
	opts := []gomail.Option{gomail.WithPort(port)}
	if user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(pass),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return m.client.DialAndSend(msg)
}

func (m *SMTPMailer) OrderConfirmation(to string, order domain.Order, items []domain.OrderItem) error {
	body, err := renderOrderConfirmation(order, items)
	if err != nil {
		return err
	}
	return m.send(to, fmt.Sprintf("Your order %s has been confirmed", order.Receipt), body)
}

func (m *SMTPMailer) PasswordReset(to, resetURL string) error {
	body, err := renderPasswordReset(resetURL)
	if err != nil {
		return err
	}
	return m.send(to, "Password reset request", body)
}

// NopMailer is used when no SMTP host is configured (dev, tests).
type NopMailer struct{}

func (NopMailer) OrderConfirmation(string, domain.Order, []domain.OrderItem) error { return nil }
func (NopMailer) PasswordReset(string, string) error                               { return nil }

var orderTmpl = template.Must(template.New("order").Parse(`<html><body>
<h2>Thanks for your order!</h2>
<p>Order <strong>{{.Order.Receipt}}</strong> has been confirmed.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}{{if .Size}} ({{.Size}}{{if .Color}}, {{.Color}}{{end}}){{end}}</td>
<td>x{{.Qty}}</td><td>&#8377;{{printf "%.2f" .Price}}</td></tr>
{{end}}
</table>
<p>Subtotal: &#8377;{{printf "%.2f" .Order.Subtotal}}<br>
Shipping: &#8377;{{printf "%.2f" .Order.Shipping}}<br>
<strong>Total: &#8377;{{printf "%.2f" .Order.Total}}</strong></p>
<p>Shipping to: {{.Order.ShipName}}, {{.Order.ShipStreet}}, {{.Order.ShipCity}} {{.Order.ShipZip}}</p>
</body></html>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<html><body>
<h2>Password reset</h2>
<p>We received a request to reset your password. The link below is valid for 30 minutes.</p>
<p><a href="{{.URL}}">Reset your password</a></p>
<p>If you did not ask for this, ignore this message.</p>
</body></html>`))

func renderOrderConfirmation(order domain.Order, items []domain.OrderItem) (string, error) {
	var buf bytes.Buffer
	err := orderTmpl.Execute(&buf, map[string]any{"Order": order, "Items": items})
	return buf.String(), err
}

func renderPasswordReset(resetURL string) (string, error) {
	var buf bytes.Buffer
	err := resetTmpl.Execute(&buf, map[string]any{"URL": resetURL})
	return buf.String(), err
}
