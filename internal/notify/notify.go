// Package notify renders and delivers order confirmation emails. The email
// embeds a scannable QR code carrying the confirmation record so gate staff
// can validate tickets offline.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/railway"
	"github.com/resend/resend-go/v2"
	"github.com/skip2/go-qrcode"
)

type Mailer struct {
	client   *resend.Client
	from     string
	replyTo  string
	qrSecret string
	logger   *slog.Logger
}

func NewMailer(apiKey, from, replyTo, qrSecret string, logger *slog.Logger) *Mailer {
	return &Mailer{
		client:   resend.NewClient(apiKey),
		from:     from,
		replyTo:  replyTo,
		qrSecret: qrSecret,
		logger:   logger,
	}
}

// QRPayload builds the machine-readable confirmation record encoded into the
// ticket QR: confirmation code, event, quantities, customer email, plus an
// HMAC signature so scanned codes can be verified without a backend call.
func QRPayload(order railway.TicketOrder, secret string) string {
	base := fmt.Sprintf("confirmation:%s;event:%s;adult:%d;child:%d;family:%d;email:%s",
		order.ConfirmationCode,
		order.EventID,
		order.AdultQuantity,
		order.ChildQuantity,
		order.FamilyQuantity,
		order.CustomerEmail,
	)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	return base + ";signature:" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyQRPayload checks a scanned payload's signature. Used by gate staff
// tooling; the signature covers every field before the signature segment.
func VerifyQRPayload(payload, secret string) bool {
	idx := bytes.LastIndex([]byte(payload), []byte(";signature:"))
	if idx < 0 {
		return false
	}
	base, sig := payload[:idx], payload[idx+len(";signature:"):]
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h1>See you at the rodeo, {{.CustomerName}}!</h1>
  <p>Your order is confirmed. Show the QR code below at the gate.</p>
  <p style="font-size: 20px;">Confirmation code: <strong>{{.ConfirmationCode}}</strong></p>
  <h2>{{.EventTitle}}</h2>
  <p>{{.EventDate}} &mdash; {{.Venue}}</p>
  <table cellpadding="6">
    {{if .AdultQuantity}}<tr><td>Adult tickets</td><td>{{.AdultQuantity}}</td></tr>{{end}}
    {{if .ChildQuantity}}<tr><td>Child tickets</td><td>{{.ChildQuantity}}</td></tr>{{end}}
    {{if .FamilyQuantity}}<tr><td>Family passes</td><td>{{.FamilyQuantity}}</td></tr>{{end}}
    {{if .BarCredits}}<tr><td>Bar credits</td><td>{{.BarCredits}}</td></tr>{{end}}
    <tr><td><strong>Total paid</strong></td><td><strong>${{.Total}}</strong></td></tr>
  </table>
  <img src="data:image/png;base64,{{.QRBase64}}" alt="ticket QR code" width="256" height="256"/>
  <p>Keep this email handy; the QR code is your ticket.</p>
</body>
</html>`))

type emailData struct {
	CustomerName     string
	ConfirmationCode string
	EventTitle       string
	EventDate        string
	Venue            string
	AdultQuantity    int
	ChildQuantity    int
	FamilyQuantity   int
	BarCredits       int
	Total            string
	QRBase64         string
}

// BuildConfirmationEmail renders the HTML body and the QR PNG for an order.
// Pure rendering, no network.
func BuildConfirmationEmail(order railway.TicketOrder, event railway.Event, qrSecret string) (string, []byte, error) {
	png, err := qrcode.Encode(QRPayload(order, qrSecret), qrcode.Medium, 256)
	if err != nil {
		return "", nil, fmt.Errorf("encoding ticket QR: %w", err)
	}

	var buf bytes.Buffer
	err = confirmationTemplate.Execute(&buf, emailData{
		CustomerName:     order.CustomerName,
		ConfirmationCode: order.ConfirmationCode,
		EventTitle:       event.Title,
		EventDate:        event.StartTime.Format("Monday, January 2, 2006 at 3:04 PM"),
		Venue:            event.Venue,
		AdultQuantity:    order.AdultQuantity,
		ChildQuantity:    order.ChildQuantity,
		FamilyQuantity:   order.FamilyQuantity,
		BarCredits:       order.BarCredits,
		Total:            helpers.FormatMoney(order.TotalPrice),
		QRBase64:         base64.StdEncoding.EncodeToString(png),
	})
	if err != nil {
		return "", nil, fmt.Errorf("rendering confirmation email: %w", err)
	}

	return buf.String(), png, nil
}

// SendConfirmation renders and dispatches the confirmation email. Failures
// come back as EmailError; the caller decides whether they are fatal (they
// are not, for the confirm transition).
func (m *Mailer) SendConfirmation(ctx context.Context, order railway.TicketOrder, event railway.Event) error {
	html, png, err := BuildConfirmationEmail(order, event, m.qrSecret)
	if err != nil {
		return &helpers.EmailError{Err: err}
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{order.CustomerEmail},
		ReplyTo: m.replyTo,
		Subject: fmt.Sprintf("Your Holmdale Rodeo tickets - %s", order.ConfirmationCode),
		Html:    html,
		Attachments: []*resend.Attachment{
			{
				Filename:    "ticket-qr.png",
				Content:     png,
				ContentType: "image/png",
			},
		},
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return &helpers.EmailError{Err: err}
	}

	m.logger.Info("confirmation email sent",
		"confirmation_code", order.ConfirmationCode,
		"to", order.CustomerEmail,
		"message_id", sent.Id)
	return nil
}
