package handler

import (
	"errors"
	"io"
	"math"
	"net/http"
	"portfolio/internal/auth"
	"portfolio/internal/bookings/service"
	apperrors "portfolio/pkg/errors"
	httputil "portfolio/pkg/http"
	"portfolio/pkg/logger"
	"portfolio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	MsgSubmitted = "Your request has been submitted. Awaiting admin review."
	MsgApproved  = "Booking approved"
	MsgRejected  = "Booking rejected"

	SignatureHeader = "Stripe-Signature"

	BookingsPath = "/api/v1/bookings"

	maxPaymentAmount = 1e9
)

type createResponse struct {
	Success      bool                `json:"success"`
	BookingID    string              `json:"bookingId"`
	Status       model.BookingStatus `json:"status"`
	Message      string              `json:"message"`
	ClientSecret string              `json:"clientSecret,omitempty"`
}

type transitionResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Booking *model.Booking `json:"booking"`
}

type listResponse struct {
	Bookings []*model.Booking `json:"bookings"`
}

type bookingResponse struct {
	Booking *model.Booking `json:"booking"`
}

// approveRequest takes the amount as decimal currency units, the way the
// admin types it. It is converted to minor units exactly once, here.
type approveRequest struct {
	CalendarLink  string          `json:"calendarLink"`
	MeetingLink   string          `json:"meetingLink"`
	Schedule      *model.Schedule `json:"schedule"`
	PaymentAmount *float64        `json:"paymentAmount"`
	Currency      string          `json:"currency"`
}

type confirmPaymentRequest struct {
	PaymentReference string `json:"paymentReference"`
	PaymentIntentID  string `json:"paymentIntentId"`
}

type BookingHandler struct {
	service    service.BookingService
	authorizer *auth.Authorizer
	log        *logger.Logger
}

func NewBookingHandler(service service.BookingService, authorizer *auth.Authorizer, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:    service,
		authorizer: authorizer,
		log:        log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	result, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	h.writeSuccess(w, "Create", createResponse{
		Success:      true,
		BookingID:    result.Booking.ID,
		Status:       result.Booking.Status,
		Message:      MsgSubmitted,
		ClientSecret: result.ClientSecret,
	})
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	h.writeSuccess(w, "GetAll", listResponse{Bookings: bookings})
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", bookingResponse{Booking: booking})
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req approveRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		h.writeError(w, "Approve", err)
		return
	}

	details := &model.ApprovalDetails{
		CalendarLink: req.CalendarLink,
		MeetingLink:  req.MeetingLink,
		Schedule:     req.Schedule,
		Currency:     req.Currency,
	}
	if req.PaymentAmount != nil {
		cents, err := toMinorUnits(*req.PaymentAmount)
		if err != nil {
			h.writeError(w, "Approve", err)
			return
		}
		details.PaymentAmountCents = cents
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	booking, err := h.service.Approve(r.Context(), ps.ByName("id"), details, principal)
	if err != nil {
		h.writeError(w, "Approve", err)
		return
	}

	h.writeSuccess(w, "Approve", transitionResponse{Success: true, Message: MsgApproved, Booking: booking})
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	booking, err := h.service.Reject(r.Context(), ps.ByName("id"), principal)
	if err != nil {
		h.writeError(w, "Reject", err)
		return
	}

	h.writeSuccess(w, "Reject", transitionResponse{Success: true, Message: MsgRejected, Booking: booking})
}

func (h *BookingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req confirmPaymentRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		h.writeError(w, "ConfirmPayment", err)
		return
	}

	reference := req.PaymentReference
	if reference == "" {
		reference = req.PaymentIntentID
	}

	booking, err := h.service.ConfirmPayment(r.Context(), ps.ByName("id"), reference)
	if err != nil {
		h.writeError(w, "ConfirmPayment", err)
		return
	}

	h.writeSuccess(w, "ConfirmPayment", bookingResponse{Booking: booking})
}

// PaymentWebhook needs the body byte for byte; the signature covers it.
func (h *BookingHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, "PaymentWebhook", apperrors.New("PAYLOAD_TOO_LARGE", "Request body too large", http.StatusRequestEntityTooLarge))
			return
		}
		h.writeError(w, "PaymentWebhook", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		h.writeError(w, "PaymentWebhook", err)
		return
	}

	h.writeSuccess(w, "PaymentWebhook", map[string]bool{"received": true})
}

// IdempotentPaths limits Idempotency-Key replay to the public create route.
func (h *BookingHandler) IdempotentPaths() []string {
	return []string{BookingsPath}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(BookingsPath, h.Create)
	router.GET(BookingsPath, h.authorizer.RequireAdmin(h.GetAll))
	router.GET("/api/v1/bookings/:id", h.authorizer.RequireAdmin(h.GetByID))
	router.POST("/api/v1/bookings/:id/approve", h.authorizer.RequireAdmin(h.Approve))
	router.POST("/api/v1/bookings/:id/reject", h.authorizer.RequireAdmin(h.Reject))
	router.POST("/api/v1/bookings/:id/confirm-payment", h.ConfirmPayment)
	router.POST("/api/v1/webhooks/payment", h.PaymentWebhook)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func toMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || amount < 0 || amount > maxPaymentAmount {
		return 0, apperrors.InvalidInput("Invalid payment amount")
	}
	return int64(math.Round(amount * 100)), nil
}
