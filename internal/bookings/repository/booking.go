package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "portfolio/internal/bookings/errors"
	"portfolio/pkg/config"
	"portfolio/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context) ([]*model.Booking, error)
	FindByPaymentReference(ctx context.Context, reference string) (*model.Booking, error)
	// UpdateStatus applies change only while the stored status is one of from.
	// It returns ErrNotFound for unknown ids and ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, id string, from []model.BookingStatus, change model.StatusChange) (*model.Booking, error)
	Count(ctx context.Context) (int64, error)
}

type mongoBookingRepository struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return newMongoBookingRepository(db, cfg.ReadTimeout, cfg.WriteTimeout)
}

func newMongoBookingRepository(db *mongo.Database, readTimeout, writeTimeout time.Duration) *mongoBookingRepository {
	return &mongoBookingRepository{
		collection:   db.Collection(CollectionName),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// withTimeout bounds ctx by timeout without extending an earlier deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.writeTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = booking.CreatedAt

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.readTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoBookingRepository) FindByPaymentReference(ctx context.Context, reference string) (*model.Booking, error) {
	if reference == "" {
		return nil, bookingserrors.ErrNotFound
	}

	ctx, cancel := withTimeout(ctx, r.readTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"payment_reference": reference})
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.readTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from []model.BookingStatus, change model.StatusChange) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.writeTimeout)
	defer cancel()

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}
	if change.RequireUnpaid {
		filter["paid_at"] = bson.M{"$exists": false}
	}
	update := bson.M{"$set": buildStatusUpdate(change)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	if _, findErr := r.findOne(ctx, bson.M{"_id": id}); findErr != nil {
		return nil, findErr
	}
	return nil, bookingserrors.ErrStatusConflict
}

func buildStatusUpdate(change model.StatusChange) bson.M {
	at := change.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	at = at.Truncate(time.Millisecond)

	set := bson.M{
		"status":     change.Status,
		"updated_at": at,
	}

	optional := map[string]string{
		"payment_reference": change.PaymentReference,
		"payment_link_url":  change.PaymentLinkURL,
		"payment_currency":  change.PaymentCurrency,
		"payment_error":     change.PaymentError,
		"calendar_link":     change.CalendarLink,
		"meeting_link":      change.MeetingLink,
		"calendar_event_id": change.CalendarEventID,
		"approved_by":       change.ApprovedBy,
		"rejected_by":       change.RejectedBy,
	}
	for field, value := range optional {
		if value != "" {
			set[field] = value
		}
	}

	if change.PaymentAmountCents > 0 {
		set["payment_amount_cents"] = change.PaymentAmountCents
	}
	if change.SetApprovedAt {
		set["approved_at"] = at
	}
	if change.SetRejectedAt {
		set["rejected_at"] = at
	}
	if change.SetPaidAt {
		set["paid_at"] = at
	}

	return set
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.readTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
