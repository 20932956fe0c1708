package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"portfolio/internal/bookings/validator"
	"portfolio/internal/calendar"
	"portfolio/internal/notifications"
	"portfolio/internal/payments"
	"portfolio/pkg/config"
	apperrors "portfolio/pkg/errors"
	"portfolio/pkg/logger"
	"portfolio/pkg/model"
	"strings"
	"testing"
	"time"

	bookingserrors "portfolio/internal/bookings/errors"
)

type mockBookingRepository struct {
	CreateFunc                 func(ctx context.Context, booking *model.Booking) error
	FindByIDFunc               func(ctx context.Context, id string) (*model.Booking, error)
	FindAllFunc                func(ctx context.Context) ([]*model.Booking, error)
	FindByPaymentReferenceFunc func(ctx context.Context, reference string) (*model.Booking, error)
	UpdateStatusFunc           func(ctx context.Context, id string, from []model.BookingStatus, change model.StatusChange) (*model.Booking, error)
	CountFunc                  func(ctx context.Context) (int64, error)

	createCalls int
	updateCalls int
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.createCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, booking)
	}
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context) ([]*model.Booking, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByPaymentReference(ctx context.Context, reference string) (*model.Booking, error) {
	if m.FindByPaymentReferenceFunc != nil {
		return m.FindByPaymentReferenceFunc(ctx, reference)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, from []model.BookingStatus, change model.StatusChange) (*model.Booking, error) {
	m.updateCalls++
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, change)
	}
	return nil, bookingserrors.ErrStatusConflict
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

type mockPaymentEventRepository struct {
	seen     map[string]bool
	recorded []*model.PaymentEvent
}

func (m *mockPaymentEventRepository) Exists(_ context.Context, eventID string) (bool, error) {
	return m.seen[eventID], nil
}

func (m *mockPaymentEventRepository) Record(_ context.Context, event *model.PaymentEvent) error {
	m.recorded = append(m.recorded, event)
	return nil
}

type mockGateway struct {
	CreateIntentFunc      func(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*payments.Intent, error)
	CreatePaymentLinkFunc func(ctx context.Context, req payments.PaymentLinkRequest) (*payments.PaymentLink, error)
	IntentSucceededFunc   func(ctx context.Context, reference string) (bool, error)
	ParseWebhookFunc      func(payload []byte, signatureHeader string) (*payments.WebhookEvent, error)
}

func (m *mockGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*payments.Intent, error) {
	return m.CreateIntentFunc(ctx, amountCents, currency, metadata)
}

func (m *mockGateway) CreatePaymentLink(ctx context.Context, req payments.PaymentLinkRequest) (*payments.PaymentLink, error) {
	return m.CreatePaymentLinkFunc(ctx, req)
}

func (m *mockGateway) IntentSucceeded(ctx context.Context, reference string) (bool, error) {
	return m.IntentSucceededFunc(ctx, reference)
}

func (m *mockGateway) ParseWebhook(payload []byte, signatureHeader string) (*payments.WebhookEvent, error) {
	return m.ParseWebhookFunc(payload, signatureHeader)
}

type mockScheduler struct {
	CreateEventFunc func(ctx context.Context, req calendar.EventRequest) (*calendar.Event, error)
	location        *time.Location
}

func (m *mockScheduler) CreateEvent(ctx context.Context, req calendar.EventRequest) (*calendar.Event, error) {
	return m.CreateEventFunc(ctx, req)
}

func (m *mockScheduler) Location() *time.Location {
	return m.location
}

type mockNotifier struct {
	err       error
	approvals []notifications.ApprovalEmail
	rejected  []string
	admin     []*model.Booking
	payments  []*model.Booking
}

func (m *mockNotifier) SendApprovalEmail(_ context.Context, _ string, email notifications.ApprovalEmail) error {
	m.approvals = append(m.approvals, email)
	return m.err
}

func (m *mockNotifier) SendRejectionEmail(_ context.Context, to string) error {
	m.rejected = append(m.rejected, to)
	return m.err
}

func (m *mockNotifier) SendAdminNotification(_ context.Context, booking *model.Booking) error {
	m.admin = append(m.admin, booking)
	return m.err
}

func (m *mockNotifier) SendPaymentReceived(_ context.Context, booking *model.Booking) error {
	m.payments = append(m.payments, booking)
	return m.err
}

type mockPublisher struct {
	published []string
}

func (m *mockPublisher) Publish(_ context.Context, _ string, eventType string, _ any) {
	m.published = append(m.published, eventType)
}

func (m *mockPublisher) Close() error { return nil }

type fixture struct {
	repo      *mockBookingRepository
	events    *mockPaymentEventRepository
	gateway   *mockGateway
	scheduler *mockScheduler
	notifier  *mockNotifier
	publisher *mockPublisher
	cfg       *config.Config
}

func newFixture() *fixture {
	return &fixture{
		repo:      &mockBookingRepository{},
		events:    &mockPaymentEventRepository{seen: map[string]bool{}},
		gateway:   &mockGateway{},
		scheduler: &mockScheduler{location: time.FixedZone("PDT", -7*3600)},
		notifier:  &mockNotifier{},
		publisher: &mockPublisher{},
		cfg: &config.Config{
			Log:                       logger.Nop(),
			BookingCurrency:           "usd",
			DefaultMeetingDurationMin: 25,
			ExternalCallTimeout:       time.Second,
		},
	}
}

func (f *fixture) service() BookingService {
	return NewBookingService(
		f.repo,
		f.events,
		validator.NewBookingValidator(logger.Nop()),
		f.gateway,
		f.scheduler,
		f.notifier,
		f.publisher,
		f.cfg,
	)
}

func assertAppError(t *testing.T, err error, status int, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != status {
		t.Errorf("expected status %d, got %d (%v)", status, appErr.HTTPStatus, err)
	}
	if code != "" && appErr.Code != code {
		t.Errorf("expected code %s, got %s", code, appErr.Code)
	}
}

func pendingBooking() *model.Booking {
	return &model.Booking{
		ID:      "b-1",
		Email:   "guest@example.com",
		Context: "Architecture review",
		Status:  model.StatusPending,
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     model.BookingRequest
		message string
	}{
		{"missing email", model.BookingRequest{Context: "Hi"}, validator.MsgMissingFields},
		{"missing context", model.BookingRequest{Email: "a@b.co"}, validator.MsgMissingFields},
		{"blank context", model.BookingRequest{Email: "a@b.co", Context: "   "}, validator.MsgMissingFields},
		{"malformed email", model.BookingRequest{Email: "not-an-email", Context: "Hi"}, validator.MsgInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service().Create(context.Background(), &tt.req)

			assertAppError(t, err, http.StatusBadRequest, apperrors.CodeValidation)
			if appErr := apperrors.AsAppError(err); appErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, appErr.Message)
			}
			if f.repo.createCalls != 0 {
				t.Errorf("expected nothing persisted, got %d creates", f.repo.createCalls)
			}
		})
	}
}

func TestCreate_WithoutFee(t *testing.T) {
	f := newFixture()
	var stored *model.Booking
	f.repo.CreateFunc = func(_ context.Context, booking *model.Booking) error {
		stored = booking
		return nil
	}

	result, err := f.service().Create(context.Background(), &model.BookingRequest{
		Email:   "  Guest@Example.COM ",
		Context: "  Need help with Go  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored == nil || stored.ID == "" {
		t.Fatal("expected booking with generated id to be stored")
	}
	if stored.Status != model.StatusPending {
		t.Errorf("expected status pending, got %s", stored.Status)
	}
	if stored.Email != "Guest@example.com" {
		t.Errorf("expected normalized email, got %q", stored.Email)
	}
	if stored.Context != "Need help with Go" {
		t.Errorf("expected trimmed context, got %q", stored.Context)
	}
	if result.ClientSecret != "" {
		t.Errorf("expected no client secret, got %q", result.ClientSecret)
	}
	if len(f.notifier.admin) != 1 {
		t.Errorf("expected one admin notification, got %d", len(f.notifier.admin))
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0] != EventBookingCreated {
		t.Errorf("expected booking.created event, got %v", f.publisher.published)
	}
}

func TestCreate_WithFee(t *testing.T) {
	f := newFixture()
	f.cfg.BookingFeeCents = 5000
	var metadata map[string]string
	f.gateway.CreateIntentFunc = func(_ context.Context, amountCents int64, currency string, md map[string]string) (*payments.Intent, error) {
		if amountCents != 5000 || currency != "usd" {
			t.Errorf("unexpected intent amount %d %s", amountCents, currency)
		}
		metadata = md
		return &payments.Intent{Reference: "pi_123", ClientSecret: "pi_123_secret"}, nil
	}

	result, err := f.service().Create(context.Background(), &model.BookingRequest{Email: "a@b.co", Context: "Hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Booking.Status != model.StatusPendingPayment {
		t.Errorf("expected pending_payment, got %s", result.Booking.Status)
	}
	if result.Booking.PaymentReference != "pi_123" {
		t.Errorf("expected payment reference pi_123, got %q", result.Booking.PaymentReference)
	}
	if result.ClientSecret != "pi_123_secret" {
		t.Errorf("unexpected client secret %q", result.ClientSecret)
	}
	if metadata["booking_id"] != result.Booking.ID || metadata["email"] != "a@b.co" {
		t.Errorf("unexpected intent metadata %v", metadata)
	}
}

func TestCreate_IntentFailureAborts(t *testing.T) {
	f := newFixture()
	f.cfg.BookingFeeCents = 5000
	f.gateway.CreateIntentFunc = func(context.Context, int64, string, map[string]string) (*payments.Intent, error) {
		return nil, errors.New("card network down")
	}

	_, err := f.service().Create(context.Background(), &model.BookingRequest{Email: "a@b.co", Context: "Hi"})

	assertAppError(t, err, http.StatusInternalServerError, apperrors.CodeExternalService)
	if f.repo.createCalls != 0 {
		t.Error("expected nothing persisted when the intent fails")
	}
}

func TestCreate_NotificationFailureIgnored(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("smtp down")

	if _, err := f.service().Create(context.Background(), &model.BookingRequest{Email: "a@b.co", Context: "Hi"}); err != nil {
		t.Fatalf("expected notification failure to be ignored, got %v", err)
	}
}

func TestList(t *testing.T) {
	f := newFixture()
	f.repo.FindAllFunc = func(context.Context) ([]*model.Booking, error) {
		return []*model.Booking{pendingBooking()}, nil
	}

	bookings, err := f.service().List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookings) != 1 {
		t.Errorf("expected 1 booking, got %d", len(bookings))
	}

	f.repo.FindAllFunc = func(context.Context) ([]*model.Booking, error) {
		return nil, errors.New("connection reset")
	}
	_, err = f.service().List(context.Background())
	assertAppError(t, err, http.StatusInternalServerError, apperrors.CodeInternal)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service().Get(context.Background(), "missing")

	assertAppError(t, err, http.StatusNotFound, apperrors.CodeNotFound)
}

func TestApprove_StatusRules(t *testing.T) {
	tests := []struct {
		name   string
		status model.BookingStatus
		want   int
	}{
		{"pending", model.StatusPending, http.StatusOK},
		{"pending payment", model.StatusPendingPayment, http.StatusConflict},
		{"payment failed", model.StatusPaymentFailed, http.StatusConflict},
		{"approved", model.StatusApproved, http.StatusConflict},
		{"rejected", model.StatusRejected, http.StatusConflict},
		{"paid", model.StatusPaid, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			booking := pendingBooking()
			booking.Status = tt.status
			f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) {
				return booking, nil
			}
			f.repo.UpdateStatusFunc = func(_ context.Context, _ string, from []model.BookingStatus, change model.StatusChange) (*model.Booking, error) {
				updated := *booking
				updated.Status = change.Status
				return &updated, nil
			}

			updated, err := f.service().Approve(context.Background(), "b-1", nil, &model.Principal{Email: "admin@example.com"})
			if tt.want == http.StatusOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if updated.Status != model.StatusApproved {
					t.Errorf("expected approved, got %s", updated.Status)
				}
				return
			}
			assertAppError(t, err, tt.want, apperrors.CodeConflict)
			if f.repo.updateCalls != 0 {
				t.Error("expected no update for a refused transition")
			}
		})
	}
}

func TestApprove_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service().Approve(context.Background(), "missing", nil, nil)

	assertAppError(t, err, http.StatusNotFound, apperrors.CodeNotFound)
}

func TestApprove_WithScheduleAndPayment(t *testing.T) {
	f := newFixture()
	booking := pendingBooking()
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) {
		return booking, nil
	}

	var eventReq calendar.EventRequest
	f.scheduler.CreateEventFunc = func(_ context.Context, req calendar.EventRequest) (*calendar.Event, error) {
		eventReq = req
		return &calendar.Event{EventID: "evt-1", EventLink: "https://calendar.test/evt-1", MeetingLink: "https://meet.test/abc"}, nil
	}
	var linkReq payments.PaymentLinkRequest
	f.gateway.CreatePaymentLinkFunc = func(_ context.Context, req payments.PaymentLinkRequest) (*payments.PaymentLink, error) {
		linkReq = req
		return &payments.PaymentLink{Reference: "plink_1", URL: "https://buy.test/plink_1"}, nil
	}
	var applied model.StatusChange
	var appliedFrom []model.BookingStatus
	f.repo.UpdateStatusFunc = func(_ context.Context, _ string, from []model.BookingStatus, change model.StatusChange) (*model.Booking, error) {
		applied = change
		appliedFrom = from
		updated := *booking
		updated.Status = change.Status
		updated.MeetingLink = change.MeetingLink
		updated.PaymentLinkURL = change.PaymentLinkURL
		return &updated, nil
	}

	_, err := f.service().Approve(context.Background(), "b-1", &model.ApprovalDetails{
		Schedule:           &model.Schedule{Date: "2026-11-02", StartTime: "10:30"},
		PaymentAmountCents: 15000,
	}, &model.Principal{Email: "admin@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2026, 11, 2, 10, 30, 0, 0, f.scheduler.location)
	if !eventReq.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, eventReq.Start)
	}
	if eventReq.DurationMinutes != 25 {
		t.Errorf("expected default duration 25, got %d", eventReq.DurationMinutes)
	}
	if eventReq.AttendeeEmail != booking.Email {
		t.Errorf("expected attendee to default to booker, got %q", eventReq.AttendeeEmail)
	}
	if linkReq.AmountCents != 15000 || linkReq.Currency != "usd" {
		t.Errorf("unexpected payment link amount %d %s", linkReq.AmountCents, linkReq.Currency)
	}
	if linkReq.ProductName != "Consultation: Architecture review" {
		t.Errorf("unexpected product name %q", linkReq.ProductName)
	}
	if linkReq.Metadata["bookingId"] != "b-1" || linkReq.Metadata["attendeeEmail"] != booking.Email {
		t.Errorf("unexpected payment link metadata %v", linkReq.Metadata)
	}
	if len(appliedFrom) != 1 || appliedFrom[0] != model.StatusPending {
		t.Errorf("expected conditional update from pending, got %v", appliedFrom)
	}
	if applied.CalendarEventID != "evt-1" || applied.MeetingLink != "https://meet.test/abc" {
		t.Errorf("expected calendar details on update, got %+v", applied)
	}
	if applied.PaymentReference != "plink_1" || applied.PaymentLinkURL != "https://buy.test/plink_1" {
		t.Errorf("expected payment link on update, got %+v", applied)
	}
	if applied.ApprovedBy != "admin@example.com" || !applied.SetApprovedAt {
		t.Errorf("expected approval stamp, got %+v", applied)
	}

	if len(f.notifier.approvals) != 1 {
		t.Fatalf("expected one approval email, got %d", len(f.notifier.approvals))
	}
	email := f.notifier.approvals[0]
	if email.PaymentURL != "https://buy.test/plink_1" || email.PaymentAmountCents != 15000 || email.EventLink == "" {
		t.Errorf("unexpected approval email %+v", email)
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0] != EventBookingApproved {
		t.Errorf("expected booking.approved event, got %v", f.publisher.published)
	}
}

func TestApprove_ExternalFailuresLeaveBookingUnchanged(t *testing.T) {
	t.Run("calendar", func(t *testing.T) {
		f := newFixture()
		f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return pendingBooking(), nil }
		f.scheduler.CreateEventFunc = func(context.Context, calendar.EventRequest) (*calendar.Event, error) {
			return nil, errors.New("quota exceeded")
		}

		_, err := f.service().Approve(context.Background(), "b-1", &model.ApprovalDetails{
			Schedule: &model.Schedule{Date: "2026-11-02", StartTime: "10:30"},
		}, nil)

		assertAppError(t, err, http.StatusInternalServerError, apperrors.CodeExternalService)
		if f.repo.updateCalls != 0 {
			t.Error("expected booking to stay unchanged")
		}
	})

	t.Run("payment link", func(t *testing.T) {
		f := newFixture()
		f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return pendingBooking(), nil }
		f.gateway.CreatePaymentLinkFunc = func(context.Context, payments.PaymentLinkRequest) (*payments.PaymentLink, error) {
			return nil, errors.New("stripe unavailable")
		}

		_, err := f.service().Approve(context.Background(), "b-1", &model.ApprovalDetails{PaymentAmountCents: 100}, nil)

		assertAppError(t, err, http.StatusInternalServerError, apperrors.CodeExternalService)
		if f.repo.updateCalls != 0 {
			t.Error("expected booking to stay unchanged")
		}
	})
}

func TestApprove_AlreadyPaid(t *testing.T) {
	f := newFixture()
	paidAt := time.Now()
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) {
		booking := pendingBooking()
		booking.PaidAt = &paidAt
		return booking, nil
	}

	_, err := f.service().Approve(context.Background(), "b-1", &model.ApprovalDetails{PaymentAmountCents: 100}, nil)

	assertAppError(t, err, http.StatusConflict, apperrors.CodeConflict)
}

func TestApprove_LostRace(t *testing.T) {
	f := newFixture()
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return pendingBooking(), nil }
	f.repo.UpdateStatusFunc = func(context.Context, string, []model.BookingStatus, model.StatusChange) (*model.Booking, error) {
		return nil, bookingserrors.ErrStatusConflict
	}

	_, err := f.service().Approve(context.Background(), "b-1", nil, nil)

	assertAppError(t, err, http.StatusConflict, apperrors.CodeConflict)
	if len(f.notifier.approvals) != 0 || len(f.publisher.published) != 0 {
		t.Error("expected no side effects when the transition was not applied")
	}
}

func TestApprove_LostRaceLogsOrphanedResources(t *testing.T) {
	f := newFixture()
	var buf bytes.Buffer
	f.cfg.Log = logger.New(logger.Config{Output: &buf, Level: logger.WARN})
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return pendingBooking(), nil }
	f.scheduler.CreateEventFunc = func(context.Context, calendar.EventRequest) (*calendar.Event, error) {
		return &calendar.Event{EventID: "evt-9", EventLink: "https://calendar.test/evt-9"}, nil
	}
	f.gateway.CreatePaymentLinkFunc = func(context.Context, payments.PaymentLinkRequest) (*payments.PaymentLink, error) {
		return &payments.PaymentLink{Reference: "plink_9", URL: "https://buy.test/plink_9"}, nil
	}
	f.repo.UpdateStatusFunc = func(context.Context, string, []model.BookingStatus, model.StatusChange) (*model.Booking, error) {
		return nil, bookingserrors.ErrStatusConflict
	}

	_, err := f.service().Approve(context.Background(), "b-1", &model.ApprovalDetails{
		Schedule:           &model.Schedule{Date: "2026-11-02", StartTime: "10:30"},
		PaymentAmountCents: 5000,
	}, nil)

	assertAppError(t, err, http.StatusConflict, apperrors.CodeConflict)
	out := buf.String()
	for _, want := range []string{`"booking_id":"b-1"`, `"calendar_event_id":"evt-9"`, `"payment_link_id":"plink_9"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected cleanup log to contain %s, got %s", want, out)
		}
	}
	if len(f.notifier.approvals) != 0 || len(f.publisher.published) != 0 {
		t.Error("expected no side effects when the transition was not applied")
	}
}

func TestApprove_AlreadyPaidSkipsCalendar(t *testing.T) {
	f := newFixture()
	paidAt := time.Now()
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) {
		booking := pendingBooking()
		booking.PaidAt = &paidAt
		return booking, nil
	}
	f.scheduler.CreateEventFunc = func(context.Context, calendar.EventRequest) (*calendar.Event, error) {
		t.Error("calendar event created for an already paid booking")
		return &calendar.Event{EventID: "evt-x"}, nil
	}

	_, err := f.service().Approve(context.Background(), "b-1", &model.ApprovalDetails{
		Schedule:           &model.Schedule{Date: "2026-11-02", StartTime: "10:30"},
		PaymentAmountCents: 100,
	}, nil)

	assertAppError(t, err, http.StatusConflict, apperrors.CodeConflict)
}

func TestReject(t *testing.T) {
	tests := []struct {
		name   string
		status model.BookingStatus
		want   int
	}{
		{"pending", model.StatusPending, http.StatusOK},
		{"pending payment", model.StatusPendingPayment, http.StatusOK},
		{"payment failed", model.StatusPaymentFailed, http.StatusOK},
		{"approved", model.StatusApproved, http.StatusConflict},
		{"rejected", model.StatusRejected, http.StatusConflict},
		{"paid", model.StatusPaid, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			booking := pendingBooking()
			booking.Status = tt.status
			f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return booking, nil }
			f.repo.UpdateStatusFunc = func(_ context.Context, _ string, _ []model.BookingStatus, change model.StatusChange) (*model.Booking, error) {
				if change.RejectedBy != "admin@example.com" || !change.SetRejectedAt {
					t.Errorf("expected rejection stamp, got %+v", change)
				}
				updated := *booking
				updated.Status = change.Status
				return &updated, nil
			}

			updated, err := f.service().Reject(context.Background(), "b-1", &model.Principal{Email: "admin@example.com"})
			if tt.want != http.StatusOK {
				assertAppError(t, err, tt.want, apperrors.CodeConflict)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Status != model.StatusRejected {
				t.Errorf("expected rejected, got %s", updated.Status)
			}
			if len(f.notifier.rejected) != 1 || f.notifier.rejected[0] != booking.Email {
				t.Errorf("expected rejection email to booker, got %v", f.notifier.rejected)
			}
		})
	}
}

func TestConfirmPayment(t *testing.T) {
	paidAt := time.Now()

	tests := []struct {
		name      string
		booking   *model.Booking
		reference string
		succeeded bool
		wantCode  string
		wantPaid  bool
	}{
		{
			name:      "missing reference",
			booking:   &model.Booking{ID: "b-1", Status: model.StatusPendingPayment, PaymentReference: "pi_1"},
			reference: " ",
			wantCode:  apperrors.CodeInvalidInput,
		},
		{
			name:      "reference mismatch",
			booking:   &model.Booking{ID: "b-1", Status: model.StatusPendingPayment, PaymentReference: "pi_1"},
			reference: "pi_other",
			wantCode:  apperrors.CodeInvalidInput,
		},
		{
			name:      "payment not successful",
			booking:   &model.Booking{ID: "b-1", Status: model.StatusPendingPayment, PaymentReference: "pi_1"},
			reference: "pi_1",
			succeeded: false,
			wantCode:  apperrors.CodeInvalidInput,
		},
		{
			name:      "rejected booking",
			booking:   &model.Booking{ID: "b-1", Status: model.StatusRejected, PaymentReference: "pi_1"},
			reference: "pi_1",
			wantCode:  apperrors.CodeConflict,
		},
		{
			name:      "already confirmed",
			booking:   &model.Booking{ID: "b-1", Status: model.StatusPending, PaymentReference: "pi_1", PaidAt: &paidAt},
			reference: "pi_1",
			wantPaid:  true,
		},
		{
			name:      "confirmed",
			booking:   &model.Booking{ID: "b-1", Status: model.StatusPendingPayment, PaymentReference: "pi_1"},
			reference: "pi_1",
			succeeded: true,
			wantPaid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return tt.booking, nil }
			f.gateway.IntentSucceededFunc = func(_ context.Context, reference string) (bool, error) {
				return tt.succeeded, nil
			}
			f.repo.UpdateStatusFunc = func(_ context.Context, _ string, from []model.BookingStatus, change model.StatusChange) (*model.Booking, error) {
				updated := *tt.booking
				updated.Status = change.Status
				updated.PaidAt = &paidAt
				return &updated, nil
			}

			booking, err := f.service().ConfirmPayment(context.Background(), "b-1", tt.reference)
			if tt.wantCode != "" {
				if err == nil || !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantPaid && booking.PaidAt == nil {
				t.Error("expected paid_at to be set")
			}
			if booking.Status != model.StatusPending {
				t.Errorf("expected pending, got %s", booking.Status)
			}
		})
	}
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	f := newFixture()
	f.gateway.ParseWebhookFunc = func([]byte, string) (*payments.WebhookEvent, error) {
		return nil, payments.ErrInvalidSignature
	}

	err := f.service().HandleWebhook(context.Background(), []byte("{}"), "bad")

	assertAppError(t, err, http.StatusBadRequest, apperrors.CodeInvalidSignature)
	if f.repo.updateCalls != 0 || len(f.events.recorded) != 0 {
		t.Error("expected no state change for an invalid signature")
	}
}

func TestHandleWebhook_Transitions(t *testing.T) {
	paidAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		status       model.BookingStatus
		paidAt       *time.Time
		event        payments.WebhookEvent
		wantStatus   model.BookingStatus
		wantResult   string
		wantNotified int
	}{
		{
			name:         "intent succeeded",
			status:       model.StatusPendingPayment,
			event:        payments.WebhookEvent{ID: "evt_1", Type: payments.EventPaymentSucceeded, Reference: "pi_1", Succeeded: true},
			wantStatus:   model.StatusPending,
			wantResult:   model.PaymentEventApplied,
			wantNotified: 1,
		},
		{
			name:         "retry after failure succeeded",
			status:       model.StatusPaymentFailed,
			event:        payments.WebhookEvent{ID: "evt_2", Type: payments.EventPaymentSucceeded, Reference: "pi_1", Succeeded: true},
			wantStatus:   model.StatusPending,
			wantResult:   model.PaymentEventApplied,
			wantNotified: 1,
		},
		{
			name:         "payment link settled",
			status:       model.StatusApproved,
			event:        payments.WebhookEvent{ID: "evt_3", Type: payments.EventCheckoutComplete, Reference: "plink_1", Succeeded: true},
			wantStatus:   model.StatusPaid,
			wantResult:   model.PaymentEventApplied,
			wantNotified: 1,
		},
		{
			name:       "late intent event after fee was confirmed",
			status:     model.StatusApproved,
			paidAt:     &paidAt,
			event:      payments.WebhookEvent{ID: "evt_6", Type: payments.EventPaymentSucceeded, Reference: "pi_1", Succeeded: true},
			wantStatus: model.StatusApproved,
			wantResult: model.PaymentEventIgnored,
		},
		{
			name:       "intent failed",
			status:     model.StatusPendingPayment,
			event:      payments.WebhookEvent{ID: "evt_4", Type: payments.EventPaymentFailed, Reference: "pi_1", Failed: true, FailureReason: "Card declined"},
			wantStatus: model.StatusPaymentFailed,
			wantResult: model.PaymentEventApplied,
		},
		{
			name:       "unknown event type",
			status:     model.StatusPendingPayment,
			event:      payments.WebhookEvent{ID: "evt_5", Type: "customer.created"},
			wantStatus: model.StatusPendingPayment,
			wantResult: model.PaymentEventIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			booking := &model.Booking{ID: "b-1", Email: "a@b.co", Status: tt.status, PaymentReference: tt.event.Reference, PaidAt: tt.paidAt}
			f.gateway.ParseWebhookFunc = func([]byte, string) (*payments.WebhookEvent, error) {
				event := tt.event
				return &event, nil
			}
			f.repo.FindByPaymentReferenceFunc = func(context.Context, string) (*model.Booking, error) {
				return booking, nil
			}
			f.repo.UpdateStatusFunc = func(_ context.Context, _ string, from []model.BookingStatus, change model.StatusChange) (*model.Booking, error) {
				if !booking.Status.In(from) {
					return nil, bookingserrors.ErrStatusConflict
				}
				if change.SetPaidAt && !change.RequireUnpaid {
					t.Error("expected paid_at to be guarded in the update filter")
				}
				if change.RequireUnpaid && booking.PaidAt != nil {
					return nil, bookingserrors.ErrStatusConflict
				}
				if change.Status == model.StatusPaymentFailed && change.PaymentError != "Card declined" {
					t.Errorf("expected failure reason to be stored, got %q", change.PaymentError)
				}
				booking.Status = change.Status
				if change.SetPaidAt {
					at := change.At
					booking.PaidAt = &at
				}
				return booking, nil
			}

			if err := f.service().HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if booking.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, booking.Status)
			}
			if len(f.events.recorded) != 1 || f.events.recorded[0].Result != tt.wantResult {
				t.Errorf("expected event recorded as %s, got %+v", tt.wantResult, f.events.recorded)
			}
			if len(f.notifier.payments) != tt.wantNotified {
				t.Errorf("expected %d payment notifications, got %d", tt.wantNotified, len(f.notifier.payments))
			}
			if tt.paidAt != nil && !booking.PaidAt.Equal(*tt.paidAt) {
				t.Errorf("expected paid_at to stay %v, got %v", *tt.paidAt, booking.PaidAt)
			}
		})
	}
}

func TestHandleWebhook_DuplicateDelivery(t *testing.T) {
	f := newFixture()
	f.events.seen["evt_1"] = true
	f.gateway.ParseWebhookFunc = func([]byte, string) (*payments.WebhookEvent, error) {
		return &payments.WebhookEvent{ID: "evt_1", Type: payments.EventPaymentSucceeded, Reference: "pi_1", Succeeded: true}, nil
	}

	if err := f.service().HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repo.updateCalls != 0 {
		t.Error("expected duplicate delivery to be acknowledged without changes")
	}
	if len(f.notifier.payments) != 0 {
		t.Error("expected no notification for a duplicate delivery")
	}
}

func TestHandleWebhook_UnknownReference(t *testing.T) {
	f := newFixture()
	f.gateway.ParseWebhookFunc = func([]byte, string) (*payments.WebhookEvent, error) {
		return &payments.WebhookEvent{ID: "evt_9", Type: payments.EventPaymentSucceeded, Reference: "pi_unknown", Succeeded: true}, nil
	}

	if err := f.service().HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repo.updateCalls != 0 {
		t.Error("expected no update for an unknown reference")
	}
	if len(f.events.recorded) != 1 || f.events.recorded[0].Result != model.PaymentEventIgnored {
		t.Errorf("expected ignored event to be recorded, got %+v", f.events.recorded)
	}
}
