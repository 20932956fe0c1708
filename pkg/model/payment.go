package model

import "time"

const (
	PaymentEventApplied = "applied"
	PaymentEventIgnored = "ignored"
)

// PaymentEvent records a processed webhook delivery so that redeliveries of
// the same processor event are acknowledged without reapplying it.
type PaymentEvent struct {
	ID               string    `json:"id" bson:"_id"`
	Type             string    `json:"type" bson:"type"`
	PaymentReference string    `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
	BookingID        string    `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	Result           string    `json:"result" bson:"result"`
	ProcessedAt      time.Time `json:"processed_at" bson:"processed_at"`
}

// Principal is the identity resolved from a verified bearer credential.
type Principal struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject,omitempty"`
}
