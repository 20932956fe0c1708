package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"portfolio/pkg/model"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *BookingClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBookingClient(server.URL, "admin-token")
}

func TestBookingClient_List(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/bookings" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin-token" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"bookings":[{"id":"b1","status":"pending"},{"id":"b2","status":"paid"}]}`))
	})

	bookings, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(bookings) != 2 || bookings[0].ID != "b1" || bookings[1].Status != model.StatusPaid {
		t.Errorf("List() = %+v", bookings)
	}
}

func TestBookingClient_Create(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Idempotency-Key"); got != "key-1" {
			t.Errorf("Idempotency-Key = %q", got)
		}
		var req model.BookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Email != "a@example.com" || req.Context != "hello" {
			t.Errorf("body = %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"bookingId":"b1","status":"pending_payment","message":"ok","clientSecret":"cs_1"}`))
	})

	result, err := c.Create(context.Background(), model.BookingRequest{Email: "a@example.com", Context: "hello"}, "key-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if result.BookingID != "b1" || result.Status != model.StatusPendingPayment || result.ClientSecret != "cs_1" {
		t.Errorf("Create() = %+v", result)
	}
}

func TestBookingClient_Approve(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bookings/b1/approve" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["paymentAmount"] != 150.5 {
			t.Errorf("paymentAmount = %v", body["paymentAmount"])
		}
		if _, ok := body["schedule"]; ok {
			t.Error("schedule should be omitted when unset")
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Booking approved","booking":{"id":"b1","status":"approved"}}`))
	})

	amount := 150.5
	booking, err := c.Approve(context.Background(), "b1", ApproveRequest{PaymentAmount: &amount})
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if booking.Status != model.StatusApproved {
		t.Errorf("Status = %s", booking.Status)
	}
}

func TestBookingClient_APIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "json error body",
			status:      http.StatusConflict,
			body:        `{"error":"Cannot approve booking in status rejected","code":"CONFLICT"}`,
			wantCode:    "CONFLICT",
			wantMessage: "Cannot approve booking in status rejected",
		},
		{
			name:        "plain text body",
			status:      http.StatusBadGateway,
			body:        `upstream down`,
			wantMessage: "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Reject(context.Background(), "b1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Code != tt.wantCode || apiErr.Message != tt.wantMessage {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestBookingClient_ConfirmPayment(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bookings/b1/confirm-payment" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["paymentReference"] != "pi_1" {
			t.Errorf("paymentReference = %q", body["paymentReference"])
		}
		_, _ = w.Write([]byte(`{"booking":{"id":"b1","status":"pending"}}`))
	})

	booking, err := c.ConfirmPayment(context.Background(), "b1", "pi_1")
	if err != nil {
		t.Fatalf("ConfirmPayment() error = %v", err)
	}
	if booking.Status != model.StatusPending {
		t.Errorf("Status = %s", booking.Status)
	}
}

func TestBookingClient_MissingBooking(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := c.Get(context.Background(), "b1"); err == nil {
		t.Error("Get() expected error for empty response")
	}
}

func TestBookingClient_Summary(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analytics/summary" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"views":{"today":3,"week":10,"month":40},"visitors":{"today":2,"week":5,"month":12},"totalEvents":55}`))
	})

	summary, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Views.Week != 10 || summary.Visitors.Month != 12 || summary.TotalEvents != 55 {
		t.Errorf("Summary() = %+v", summary)
	}
}
