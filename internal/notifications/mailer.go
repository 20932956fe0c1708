package notifications

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"portfolio/pkg/logger"
	"portfolio/pkg/model"
	"strings"

	"github.com/wneessen/go-mail"
)

const (
	OwnerName      = "Manish Jawa"
	OwnerFirstName = "Manish"
	ContactURL     = "https://linkedin.com/in/manishjawa"

	SubjectApproval  = "Your Booking Request Approved - " + OwnerName
	SubjectRejection = "Your Booking Request - Update from " + OwnerFirstName

	buttonStyle = "padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block; font-weight: bold; font-size: 14px;"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Notifier delivers booking emails. Callers treat every error as non-fatal.
type Notifier interface {
	SendApprovalEmail(ctx context.Context, to string, email ApprovalEmail) error
	SendRejectionEmail(ctx context.Context, to string) error
	SendAdminNotification(ctx context.Context, booking *model.Booking) error
	SendPaymentReceived(ctx context.Context, booking *model.Booking) error
}

// Sender hands a finished message to a transport.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

type ApprovalEmail struct {
	Topic              string
	MeetingLink        string
	EventLink          string
	CalendarLink       string
	PaymentURL         string
	PaymentAmountCents int64
	Currency           string
}

type Mailer struct {
	sender       Sender
	from         string
	adminEmail   string
	dashboardURL string
	log          *logger.Logger
}

func NewMailer(sender Sender, from, adminEmail, appURL string, log *logger.Logger) *Mailer {
	dashboardURL := ""
	if appURL != "" {
		dashboardURL = strings.TrimRight(appURL, "/") + "/admin"
	}
	return &Mailer{
		sender:       sender,
		from:         from,
		adminEmail:   adminEmail,
		dashboardURL: dashboardURL,
		log:          log,
	}
}

func (m *Mailer) SendApprovalEmail(ctx context.Context, to string, email ApprovalEmail) error {
	body, err := RenderApproval(email)
	if err != nil {
		return err
	}
	return m.send(ctx, to, SubjectApproval, body)
}

func (m *Mailer) SendRejectionEmail(ctx context.Context, to string) error {
	body, err := render("rejection.html", map[string]any{
		"OwnerName":      OwnerName,
		"OwnerFirstName": OwnerFirstName,
		"ContactURL":     ContactURL,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, to, SubjectRejection, body)
}

func (m *Mailer) SendAdminNotification(ctx context.Context, booking *model.Booking) error {
	return m.sendAdmin(ctx, "New Booking Request from "+booking.Email, "New booking request", booking)
}

func (m *Mailer) SendPaymentReceived(ctx context.Context, booking *model.Booking) error {
	return m.sendAdmin(ctx, "Payment Received for Booking "+booking.ID, "Payment received", booking)
}

func (m *Mailer) sendAdmin(ctx context.Context, subject, heading string, booking *model.Booking) error {
	if m.adminEmail == "" {
		m.log.Debug("No admin notification address configured, skipping", "booking_id", booking.ID)
		return nil
	}

	body, err := render("admin.html", map[string]any{
		"Heading":      heading,
		"BookingID":    booking.ID,
		"Email":        booking.Email,
		"Status":       string(booking.Status),
		"Context":      booking.Context,
		"Amount":       FormatAmount(booking.PaymentAmountCents, booking.PaymentCurrency),
		"DashboardURL": m.dashboardURL,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, m.adminEmail, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %q: %w", subject, err)
	}

	m.log.Info("Email sent", "subject", subject)
	return nil
}

func RenderApproval(email ApprovalEmail) (string, error) {
	amount := FormatAmount(email.PaymentAmountCents, email.Currency)
	return render("approval.html", map[string]any{
		"Topic":          email.Topic,
		"MeetingLink":    email.MeetingLink,
		"EventLink":      email.EventLink,
		"CalendarLink":   email.CalendarLink,
		"PaymentURL":     email.PaymentURL,
		"Amount":         amount,
		"HasLinks":       email.MeetingLink != "" || email.CalendarLink != "" || (email.PaymentURL != "" && amount != ""),
		"ButtonStyle":    template.CSS(buttonStyle),
		"OwnerName":      OwnerName,
		"OwnerFirstName": OwnerFirstName,
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatAmount renders minor units for display, "$150.00" for USD and
// "150.00 EUR" otherwise. Zero renders as "".
func FormatAmount(cents int64, currency string) string {
	if cents <= 0 {
		return ""
	}
	value := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	currency = strings.ToUpper(currency)
	if currency == "" || currency == "USD" {
		return "$" + value
	}
	return value + " " + currency
}
