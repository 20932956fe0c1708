package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusPending        BookingStatus = "pending"
	StatusPaymentFailed  BookingStatus = "payment_failed"
	StatusApproved       BookingStatus = "approved"
	StatusRejected       BookingStatus = "rejected"
	StatusPaid           BookingStatus = "paid"
)

// Allowed source statuses for every transition. A transition is applied only
// when the stored status is one of these.
var (
	PaymentSucceededFrom = []BookingStatus{StatusPendingPayment, StatusPaymentFailed}
	PaymentFailedFrom    = []BookingStatus{StatusPendingPayment}
	ApproveFrom          = []BookingStatus{StatusPending}
	RejectFrom           = []BookingStatus{StatusPending, StatusPendingPayment, StatusPaymentFailed}
	SettleFrom           = []BookingStatus{StatusApproved}
)

func (s BookingStatus) In(statuses []BookingStatus) bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == StatusRejected || s == StatusPaid
}

type Booking struct {
	ID                 string        `json:"id" bson:"_id"`
	Email              string        `json:"email" bson:"email"`
	Context            string        `json:"context" bson:"context"`
	Status             BookingStatus `json:"status" bson:"status"`
	PaymentReference   string        `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
	PaymentLinkURL     string        `json:"payment_link_url,omitempty" bson:"payment_link_url,omitempty"`
	PaymentAmountCents int64         `json:"payment_amount_cents,omitempty" bson:"payment_amount_cents,omitempty"`
	PaymentCurrency    string        `json:"payment_currency,omitempty" bson:"payment_currency,omitempty"`
	PaymentError       string        `json:"payment_error,omitempty" bson:"payment_error,omitempty"`
	CalendarLink       string        `json:"calendar_link,omitempty" bson:"calendar_link,omitempty"`
	MeetingLink        string        `json:"meeting_link,omitempty" bson:"meeting_link,omitempty"`
	CalendarEventID    string        `json:"calendar_event_id,omitempty" bson:"calendar_event_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" bson:"updated_at"`
	ApprovedAt         *time.Time    `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	RejectedAt         *time.Time    `json:"rejected_at,omitempty" bson:"rejected_at,omitempty"`
	PaidAt             *time.Time    `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	ApprovedBy         string        `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	RejectedBy         string        `json:"rejected_by,omitempty" bson:"rejected_by,omitempty"`
}

// BookingRequest is the public create payload.
type BookingRequest struct {
	Email   string `json:"email" validate:"required,booking_email,max=254"`
	Context string `json:"context" validate:"required,max=5000"`
}

// Schedule asks the calendar adapter to create an event on approval.
type Schedule struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"startTime" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"durationMinutes" validate:"omitempty,min=5,max=480"`
	AttendeeEmail   string `json:"attendeeEmail" validate:"omitempty,booking_email"`
}

// ApprovalDetails carries the optional links to attach on approval. Amounts
// are minor currency units; the HTTP layer converts decimal input once.
type ApprovalDetails struct {
	CalendarLink       string    `json:"calendarLink" validate:"omitempty,url,max=2048"`
	MeetingLink        string    `json:"meetingLink" validate:"omitempty,url,max=2048"`
	Schedule           *Schedule `json:"schedule"`
	PaymentAmountCents int64     `json:"-" validate:"min=0,max=10000000"`
	Currency           string    `json:"currency" validate:"omitempty,len=3,alpha"`
}

// StatusChange describes one conditional update. Nil pointer fields and empty
// strings are left untouched.
type StatusChange struct {
	Status             BookingStatus
	At                 time.Time
	PaymentReference   string
	PaymentLinkURL     string
	PaymentAmountCents int64
	PaymentCurrency    string
	PaymentError       string
	CalendarLink       string
	MeetingLink        string
	CalendarEventID    string
	ApprovedBy         string
	RejectedBy         string
	SetApprovedAt      bool
	SetRejectedAt      bool
	SetPaidAt          bool

	// RequireUnpaid restricts the update to bookings without paid_at.
	RequireUnpaid bool
}
