package service

import (
	"context"
	"errors"
	"fmt"
	"portfolio/internal/bookings/repository"
	"portfolio/internal/bookings/validator"
	"portfolio/internal/calendar"
	"portfolio/internal/events"
	"portfolio/internal/metrics"
	"portfolio/internal/notifications"
	"portfolio/internal/payments"
	"portfolio/pkg/config"
	apperrors "portfolio/pkg/errors"
	"portfolio/pkg/model"
	"portfolio/pkg/obs"
	"portfolio/pkg/sanitizer"
	"strings"
	"time"

	bookingserrors "portfolio/internal/bookings/errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingApproved      = "booking.approved"
	EventBookingRejected      = "booking.rejected"
	EventBookingPaid          = "booking.paid"
	EventBookingPaymentFailed = "booking.payment_failed"

	MsgMissingReference  = "Missing payment reference"
	MsgReferenceMismatch = "Payment reference does not match booking"
	MsgPaymentFailed     = "Payment not successful"
	MsgAlreadyPaid       = "Booking has already been paid"

	defaultMeetingDuration = 25
)

var (
	tracer = obs.Tracer("portfolio/internal/bookings/service")

	errPaymentsDisabled = errors.New("payment processing is not configured")
	errCalendarDisabled = errors.New("calendar integration is not configured")
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*CreateResult, error)
	List(ctx context.Context) ([]*model.Booking, error)
	Get(ctx context.Context, id string) (*model.Booking, error)
	Approve(ctx context.Context, id string, details *model.ApprovalDetails, principal *model.Principal) (*model.Booking, error)
	Reject(ctx context.Context, id string, principal *model.Principal) (*model.Booking, error)
	ConfirmPayment(ctx context.Context, id, reference string) (*model.Booking, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// CreateResult carries the stored booking and, when a fee is due, the
// client secret the browser needs to complete the payment.
type CreateResult struct {
	Booking      *model.Booking
	ClientSecret string
}

type bookingService struct {
	repo          repository.BookingRepository
	paymentEvents repository.PaymentEventRepository
	validator     *validator.BookingValidator
	payments      payments.Gateway
	scheduler     calendar.Scheduler
	notifier      notifications.Notifier
	publisher     events.Publisher
	cfg           *config.Config
	now           func() time.Time
}

// NewBookingService wires the lifecycle. payments and scheduler may be nil
// when the integration is not configured; operations that need them then
// fail with an external service error.
func NewBookingService(
	repo repository.BookingRepository,
	paymentEvents repository.PaymentEventRepository,
	validator *validator.BookingValidator,
	gateway payments.Gateway,
	scheduler calendar.Scheduler,
	notifier notifications.Notifier,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:          repo,
		paymentEvents: paymentEvents,
		validator:     validator,
		payments:      gateway,
		scheduler:     scheduler,
		notifier:      notifier,
		publisher:     publisher,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*CreateResult, error) {
	ctx, span := tracer.Start(ctx, "bookings.Create")
	defer span.End()

	s.sanitizeRequest(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, validationError(err)
	}

	now := s.now().UTC()
	booking := &model.Booking{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Context:   req.Context,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	span.SetAttributes(attribute.String("booking.id", booking.ID))

	result := &CreateResult{Booking: booking}
	if s.cfg.BookingFeeCents > 0 {
		intent, err := s.createIntent(ctx, booking)
		if err != nil {
			obs.RecordError(span, err)
			return nil, err
		}
		booking.Status = model.StatusPendingPayment
		booking.PaymentReference = intent.Reference
		booking.PaymentAmountCents = s.cfg.BookingFeeCents
		booking.PaymentCurrency = s.cfg.BookingCurrency
		result.ClientSecret = intent.ClientSecret
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		obs.RecordError(span, err)
		if errors.Is(err, bookingserrors.ErrDuplicate) {
			return nil, apperrors.Conflict("Booking already exists")
		}
		s.cfg.Log.Error("Failed to create booking", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	metrics.BookingsCreated.WithLabelValues(string(booking.Status)).Inc()
	s.cfg.Log.Info("Booking created successfully",
		"booking_id", booking.ID,
		"status", booking.Status,
		"payment_required", booking.PaymentReference != "",
	)

	s.notify(ctx, "admin_new_booking", booking.ID, func(ctx context.Context) error {
		return s.notifier.SendAdminNotification(ctx, booking)
	})
	s.publisher.Publish(ctx, booking.ID, EventBookingCreated, booking)

	return result, nil
}

func (s *bookingService) createIntent(ctx context.Context, booking *model.Booking) (*payments.Intent, error) {
	if s.payments == nil {
		return nil, apperrors.ExternalService("Payment processor", errPaymentsDisabled)
	}
	start := time.Now()
	intent, err := s.payments.CreateIntent(ctx, s.cfg.BookingFeeCents, s.cfg.BookingCurrency, map[string]string{
		"booking_id": booking.ID,
		"email":      booking.Email,
	})
	metrics.ObserveExternalCall("stripe", "create_intent", start, err)
	if err != nil {
		s.cfg.Log.Error("Failed to create payment intent", "booking_id", booking.ID, "error", err)
		return nil, apperrors.ExternalService("Payment processor", err)
	}
	return intent, nil
}

func (s *bookingService) List(ctx context.Context) ([]*model.Booking, error) {
	ctx, span := tracer.Start(ctx, "bookings.List")
	defer span.End()

	bookings, err := s.repo.FindAll(ctx)
	if err != nil {
		obs.RecordError(span, err)
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	ctx, span := tracer.Start(ctx, "bookings.Get")
	defer span.End()

	return s.load(ctx, id)
}

func (s *bookingService) Approve(ctx context.Context, id string, details *model.ApprovalDetails, principal *model.Principal) (*model.Booking, error) {
	ctx, span := tracer.Start(ctx, "bookings.Approve")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	if details == nil {
		details = &model.ApprovalDetails{}
	}
	s.sanitizeApproval(details)
	if err := s.validator.ValidateApproval(details); err != nil {
		return nil, validationError(err)
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.In(model.ApproveFrom) {
		metrics.BookingConflicts.WithLabelValues("approve").Inc()
		return nil, conflictError("approved", booking.Status)
	}

	change := model.StatusChange{
		Status:        model.StatusApproved,
		At:            s.now().UTC(),
		CalendarLink:  details.CalendarLink,
		MeetingLink:   details.MeetingLink,
		ApprovedBy:    principalEmail(principal),
		SetApprovedAt: true,
	}
	email := notifications.ApprovalEmail{
		Topic:        booking.Context,
		CalendarLink: details.CalendarLink,
		MeetingLink:  details.MeetingLink,
	}

	if details.PaymentAmountCents > 0 && booking.PaidAt != nil {
		return nil, apperrors.Conflict(MsgAlreadyPaid)
	}

	if details.Schedule != nil {
		event, err := s.createCalendarEvent(ctx, booking, details.Schedule)
		if err != nil {
			obs.RecordError(span, err)
			return nil, err
		}
		change.CalendarEventID = event.EventID
		if change.CalendarLink == "" {
			change.CalendarLink = event.EventLink
		}
		if change.MeetingLink == "" {
			change.MeetingLink = event.MeetingLink
		}
		email.EventLink = event.EventLink
		email.MeetingLink = change.MeetingLink
	}

	if details.PaymentAmountCents > 0 {
		currency := details.Currency
		if currency == "" {
			currency = s.cfg.BookingCurrency
		}
		link, err := s.createPaymentLink(ctx, booking, details.PaymentAmountCents, currency)
		if err != nil {
			obs.RecordError(span, err)
			return nil, err
		}
		change.PaymentReference = link.Reference
		change.PaymentLinkURL = link.URL
		change.PaymentAmountCents = details.PaymentAmountCents
		change.PaymentCurrency = currency
		email.PaymentURL = link.URL
		email.PaymentAmountCents = details.PaymentAmountCents
		email.Currency = currency
	}

	updated, err := s.repo.UpdateStatus(ctx, id, model.ApproveFrom, change)
	if err != nil {
		obs.RecordError(span, err)
		if errors.Is(err, bookingserrors.ErrStatusConflict) && (change.CalendarEventID != "" || change.PaymentReference != "") {
			s.cfg.Log.Warn("Approval lost to a concurrent transition, external resources need cleanup",
				"booking_id", id,
				"calendar_event_id", change.CalendarEventID,
				"payment_link_id", change.PaymentReference,
				"payment_link_url", change.PaymentLinkURL,
			)
		}
		return nil, s.transitionError(err, id, "approved")
	}

	metrics.BookingTransitions.WithLabelValues(string(model.StatusApproved), "approve").Inc()
	s.cfg.Log.Info("Booking approved",
		"booking_id", id,
		"approved_by", change.ApprovedBy,
		"calendar_event_id", change.CalendarEventID,
		"payment_link", change.PaymentReference != "",
	)

	s.notify(ctx, "approval", id, func(ctx context.Context) error {
		return s.notifier.SendApprovalEmail(ctx, updated.Email, email)
	})
	s.publisher.Publish(ctx, id, EventBookingApproved, updated)

	return updated, nil
}

func (s *bookingService) createCalendarEvent(ctx context.Context, booking *model.Booking, schedule *model.Schedule) (*calendar.Event, error) {
	if s.scheduler == nil {
		return nil, apperrors.ExternalService("Calendar", errCalendarDisabled)
	}

	start, err := calendar.ParseStart(schedule.Date, schedule.StartTime, s.scheduler.Location())
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid schedule date or time")
	}

	duration := schedule.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultMeetingDurationMin
	}
	if duration == 0 {
		duration = defaultMeetingDuration
	}
	attendee := schedule.AttendeeEmail
	if attendee == "" {
		attendee = booking.Email
	}

	callStart := time.Now()
	event, err := s.scheduler.CreateEvent(ctx, calendar.EventRequest{
		BookingID:       booking.ID,
		AttendeeEmail:   attendee,
		Topic:           booking.Context,
		Start:           start,
		DurationMinutes: duration,
	})
	metrics.ObserveExternalCall("google_calendar", "create_event", callStart, err)
	if err != nil {
		s.cfg.Log.Error("Failed to create calendar event", "booking_id", booking.ID, "error", err)
		return nil, apperrors.ExternalService("Calendar", err)
	}
	return event, nil
}

func (s *bookingService) createPaymentLink(ctx context.Context, booking *model.Booking, amountCents int64, currency string) (*payments.PaymentLink, error) {
	if s.payments == nil {
		return nil, apperrors.ExternalService("Payment processor", errPaymentsDisabled)
	}

	topic := sanitizer.Truncate(sanitizer.TrimAndNormalize(booking.Context), 100)
	if topic == "" {
		topic = calendar.DefaultTopic
	}

	start := time.Now()
	link, err := s.payments.CreatePaymentLink(ctx, payments.PaymentLinkRequest{
		AmountCents: amountCents,
		Currency:    currency,
		ProductName: "Consultation: " + topic,
		Metadata: map[string]string{
			"bookingId":     booking.ID,
			"attendeeEmail": booking.Email,
		},
	})
	metrics.ObserveExternalCall("stripe", "create_payment_link", start, err)
	if err != nil {
		s.cfg.Log.Error("Failed to create payment link", "booking_id", booking.ID, "error", err)
		return nil, apperrors.ExternalService("Payment processor", err)
	}
	return link, nil
}

func (s *bookingService) Reject(ctx context.Context, id string, principal *model.Principal) (*model.Booking, error) {
	ctx, span := tracer.Start(ctx, "bookings.Reject")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.In(model.RejectFrom) {
		metrics.BookingConflicts.WithLabelValues("reject").Inc()
		return nil, conflictError("rejected", booking.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, model.RejectFrom, model.StatusChange{
		Status:        model.StatusRejected,
		At:            s.now().UTC(),
		RejectedBy:    principalEmail(principal),
		SetRejectedAt: true,
	})
	if err != nil {
		obs.RecordError(span, err)
		return nil, s.transitionError(err, id, "rejected")
	}

	metrics.BookingTransitions.WithLabelValues(string(model.StatusRejected), "reject").Inc()
	s.cfg.Log.Info("Booking rejected", "booking_id", id, "rejected_by", updated.RejectedBy)

	s.notify(ctx, "rejection", id, func(ctx context.Context) error {
		return s.notifier.SendRejectionEmail(ctx, updated.Email)
	})
	s.publisher.Publish(ctx, id, EventBookingRejected, updated)

	return updated, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, id, reference string) (*model.Booking, error) {
	ctx, span := tracer.Start(ctx, "bookings.ConfirmPayment")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperrors.InvalidInput(MsgMissingReference)
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.PaymentReference == "" || booking.PaymentReference != reference {
		return nil, apperrors.InvalidInput(MsgReferenceMismatch)
	}
	if booking.PaidAt != nil {
		return booking, nil
	}
	if !booking.Status.In(model.PaymentSucceededFrom) {
		metrics.BookingConflicts.WithLabelValues("confirm_payment").Inc()
		return nil, conflictError("confirmed", booking.Status)
	}

	if s.payments == nil {
		return nil, apperrors.ExternalService("Payment processor", errPaymentsDisabled)
	}
	start := time.Now()
	succeeded, err := s.payments.IntentSucceeded(ctx, reference)
	metrics.ObserveExternalCall("stripe", "retrieve_intent", start, err)
	if err != nil {
		obs.RecordError(span, err)
		s.cfg.Log.Error("Failed to verify payment", "booking_id", id, "error", err)
		return nil, apperrors.ExternalService("Payment processor", err)
	}
	if !succeeded {
		return nil, apperrors.InvalidInput(MsgPaymentFailed)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, model.PaymentSucceededFrom, model.StatusChange{
		Status:        model.StatusPending,
		At:            s.now().UTC(),
		SetPaidAt:     true,
		RequireUnpaid: true,
	})
	if err != nil {
		// A webhook may have applied the same payment first.
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			if current, loadErr := s.load(ctx, id); loadErr == nil && current.PaidAt != nil {
				return current, nil
			}
		}
		obs.RecordError(span, err)
		return nil, s.transitionError(err, id, "confirmed")
	}

	s.paymentApplied(ctx, updated, "confirm_payment")
	return updated, nil
}

func (s *bookingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, span := tracer.Start(ctx, "bookings.HandleWebhook")
	defer span.End()

	if s.payments == nil {
		return apperrors.Unavailable("Payment processing")
	}

	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		obs.RecordError(span, err)
		if errors.Is(err, payments.ErrInvalidSignature) {
			s.cfg.Log.Warn("Rejected payment webhook with invalid signature")
			metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
			return apperrors.InvalidSignature("Invalid signature")
		}
		return apperrors.InvalidInput("Invalid webhook payload")
	}
	span.SetAttributes(
		attribute.String("payment.event_id", event.ID),
		attribute.String("payment.event_type", event.Type),
	)

	seen, err := s.paymentEvents.Exists(ctx, event.ID)
	if err != nil {
		obs.RecordError(span, err)
		s.cfg.Log.Error("Failed to check payment event", "event_id", event.ID, "error", err)
		return apperrors.Internal("Failed to process webhook", err)
	}
	if seen {
		metrics.WebhookEvents.WithLabelValues(event.Type, "duplicate").Inc()
		s.cfg.Log.Info("Ignoring duplicate payment event", "event_id", event.ID, "type", event.Type)
		return nil
	}

	record := &model.PaymentEvent{
		ID:               event.ID,
		Type:             event.Type,
		PaymentReference: event.Reference,
		Result:           model.PaymentEventIgnored,
	}

	if event.Reference != "" && (event.Succeeded || event.Failed) {
		updated, err := s.applyPaymentEvent(ctx, event)
		if err != nil {
			obs.RecordError(span, err)
			return err
		}
		if updated != nil {
			record.BookingID = updated.ID
			record.Result = model.PaymentEventApplied
		}
	}

	record.ProcessedAt = s.now().UTC()
	if err := s.paymentEvents.Record(ctx, record); err != nil {
		s.cfg.Log.Warn("Failed to record payment event", "event_id", event.ID, "error", err)
	}
	metrics.WebhookEvents.WithLabelValues(event.Type, record.Result).Inc()
	return nil
}

// applyPaymentEvent returns the updated booking, or nil when the event does
// not match a booking in a state it can move.
func (s *bookingService) applyPaymentEvent(ctx context.Context, event *payments.WebhookEvent) (*model.Booking, error) {
	booking, err := s.repo.FindByPaymentReference(ctx, event.Reference)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Info("No booking for payment reference", "event_id", event.ID, "reference", event.Reference)
			return nil, nil
		}
		s.cfg.Log.Error("Failed to look up booking by payment reference", "event_id", event.ID, "error", err)
		return nil, apperrors.Internal("Failed to process webhook", err)
	}

	if event.Succeeded && booking.PaidAt != nil {
		s.cfg.Log.Info("Booking already paid, ignoring payment event",
			"event_id", event.ID,
			"booking_id", booking.ID,
			"status", booking.Status,
		)
		return nil, nil
	}

	var from []model.BookingStatus
	change := model.StatusChange{At: s.now().UTC()}
	switch {
	case event.Succeeded && booking.Status == model.StatusApproved:
		from = model.SettleFrom
		change.Status = model.StatusPaid
		change.SetPaidAt = true
		change.RequireUnpaid = true
	case event.Succeeded:
		from = model.PaymentSucceededFrom
		change.Status = model.StatusPending
		change.SetPaidAt = true
		change.RequireUnpaid = true
	default:
		from = model.PaymentFailedFrom
		change.Status = model.StatusPaymentFailed
		change.PaymentError = event.FailureReason
		if change.PaymentError == "" {
			change.PaymentError = payments.DefaultFailureReason
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, booking.ID, from, change)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) || errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Info("Payment event does not apply to booking",
				"event_id", event.ID,
				"booking_id", booking.ID,
				"status", booking.Status,
			)
			return nil, nil
		}
		s.cfg.Log.Error("Failed to apply payment event", "event_id", event.ID, "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to process webhook", err)
	}

	if change.Status == model.StatusPaymentFailed {
		metrics.BookingTransitions.WithLabelValues(string(change.Status), "webhook").Inc()
		s.cfg.Log.Info("Booking payment failed", "booking_id", updated.ID, "reason", change.PaymentError)
		s.publisher.Publish(ctx, updated.ID, EventBookingPaymentFailed, updated)
		return updated, nil
	}

	s.paymentApplied(ctx, updated, "webhook")
	return updated, nil
}

func (s *bookingService) paymentApplied(ctx context.Context, booking *model.Booking, trigger string) {
	metrics.BookingTransitions.WithLabelValues(string(booking.Status), trigger).Inc()
	s.cfg.Log.Info("Booking payment received", "booking_id", booking.ID, "status", booking.Status, "trigger", trigger)

	s.notify(ctx, "admin_payment_received", booking.ID, func(ctx context.Context) error {
		return s.notifier.SendPaymentReceived(ctx, booking)
	})
	s.publisher.Publish(ctx, booking.ID, EventBookingPaid, booking)
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to retrieve booking", "booking_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

// notify sends one email without letting failures or a cancelled request
// affect the caller.
func (s *bookingService) notify(ctx context.Context, kind, bookingID string, send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ExternalCallTimeout)
	defer cancel()

	start := time.Now()
	err := send(ctx)
	metrics.ObserveExternalCall("smtp", kind, start, err)
	metrics.NotificationsSent.WithLabelValues(kind, metrics.Result(err)).Inc()
	if err != nil {
		s.cfg.Log.Warn("Failed to send notification", "kind", kind, "booking_id", bookingID, "error", err)
	}
}

func (s *bookingService) transitionError(err error, id, action string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrStatusConflict):
		return apperrors.Conflict(fmt.Sprintf("Booking cannot be %s in its current status", action))
	default:
		s.cfg.Log.Error("Failed to update booking status", "booking_id", id, "action", action, "error", err)
		return apperrors.Internal("Failed to update booking", err)
	}
}

func (s *bookingService) sanitizeRequest(req *model.BookingRequest) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.Context = strings.TrimSpace(sanitizer.NormalizeText(req.Context))
}

func (s *bookingService) sanitizeApproval(details *model.ApprovalDetails) {
	details.CalendarLink = strings.TrimSpace(details.CalendarLink)
	details.MeetingLink = strings.TrimSpace(details.MeetingLink)
	details.Currency = strings.ToLower(strings.TrimSpace(details.Currency))
	if details.Schedule != nil {
		details.Schedule.Date = strings.TrimSpace(details.Schedule.Date)
		details.Schedule.StartTime = strings.TrimSpace(details.Schedule.StartTime)
		details.Schedule.AttendeeEmail = sanitizer.NormalizeEmail(details.Schedule.AttendeeEmail)
	}
}

func conflictError(action string, status model.BookingStatus) error {
	return apperrors.Conflict(fmt.Sprintf("Booking cannot be %s in status %s", action, status)).
		WithDetails(map[string]any{"status": status})
}

func validationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperrors.Validation(validationErrs.Message(), map[string]any{"errors": validationErrs})
	}
	return apperrors.Internal("Failed to validate request", err)
}

func principalEmail(principal *model.Principal) string {
	if principal == nil {
		return ""
	}
	return principal.Email
}
