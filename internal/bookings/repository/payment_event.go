package repository

import (
	"context"
	"errors"
	"fmt"
	"portfolio/pkg/config"
	"portfolio/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const PaymentEventsCollectionName = "PaymentEvents"

// PaymentEventRepository remembers processed webhook deliveries so that
// at-least-once redelivery does not re-run side effects.
type PaymentEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	// Record stores event. A concurrent duplicate is not an error.
	Record(ctx context.Context, event *model.PaymentEvent) error
}

type mongoPaymentEventRepository struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoPaymentEventRepository(cfg *config.Config) PaymentEventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return newMongoPaymentEventRepository(db, cfg.ReadTimeout, cfg.WriteTimeout)
}

func newMongoPaymentEventRepository(db *mongo.Database, readTimeout, writeTimeout time.Duration) *mongoPaymentEventRepository {
	return &mongoPaymentEventRepository{
		collection:   db.Collection(PaymentEventsCollectionName),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (r *mongoPaymentEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.readTimeout)
	defer cancel()

	var event model.PaymentEvent
	err := r.collection.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up payment event: %w", err)
	}
	return true, nil
}

func (r *mongoPaymentEventRepository) Record(ctx context.Context, event *model.PaymentEvent) error {
	ctx, cancel := withTimeout(ctx, r.writeTimeout)
	defer cancel()

	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to record payment event: %w", err)
	}
	return nil
}
