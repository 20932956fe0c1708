package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"portfolio/pkg/model"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

type CreateResult struct {
	Success      bool                `json:"success"`
	BookingID    string              `json:"bookingId"`
	Status       model.BookingStatus `json:"status"`
	Message      string              `json:"message"`
	ClientSecret string              `json:"clientSecret,omitempty"`
}

type ApproveRequest struct {
	CalendarLink  string          `json:"calendarLink,omitempty"`
	MeetingLink   string          `json:"meetingLink,omitempty"`
	Schedule      *model.Schedule `json:"schedule,omitempty"`
	PaymentAmount *float64        `json:"paymentAmount,omitempty"`
	Currency      string          `json:"currency,omitempty"`
}

// BookingClient talks to the bookings and analytics HTTP APIs.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL, token string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseURL).WithToken(token),
	}
}

func (c *BookingClient) Create(ctx context.Context, req model.BookingRequest, idempotencyKey string) (*CreateResult, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", req, headers)
	if err != nil {
		return nil, err
	}

	var result CreateResult
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *BookingClient) List(ctx context.Context) ([]*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings")
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Bookings []*model.Booking `json:"bookings"`
	}
	if err := decode(resp, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Bookings, nil
}

func (c *BookingClient) Get(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, bookingPath(id, ""))
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) Approve(ctx context.Context, id string, req ApproveRequest) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, bookingPath(id, "/approve"), req)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) Reject(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, bookingPath(id, "/reject"), nil)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) ConfirmPayment(ctx context.Context, id, reference string) (*model.Booking, error) {
	body := map[string]string{"paymentReference": reference}
	resp, err := c.httpClient.POST(ctx, bookingPath(id, "/confirm-payment"), body)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) Summary(ctx context.Context) (*model.AnalyticsSummary, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/analytics/summary")
	if err != nil {
		return nil, err
	}

	var summary model.AnalyticsSummary
	if err := decode(resp, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func bookingPath(id, suffix string) string {
	return "/api/v1/bookings/" + url.PathEscape(id) + suffix
}

func decodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Booking *model.Booking `json:"booking"`
	}
	if err := decode(resp, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Booking == nil {
		return nil, fmt.Errorf("response carried no booking: %s", resp.String())
	}
	return wrapper.Booking, nil
}

func decode(resp *Response, target any) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := resp.DecodeJSON(&body); err == nil {
			apiErr.Message = body.Error
			apiErr.Code = body.Code
		} else {
			apiErr.Message = string(resp.Body)
		}
		return apiErr
	}

	if err := resp.DecodeJSON(target); err != nil {
		return fmt.Errorf("could not decode response %s: %w", resp.String(), err)
	}
	return nil
}
