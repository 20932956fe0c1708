package repository

import (
	"context"
	"fmt"
	"portfolio/pkg/config"
	"portfolio/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Analytics"
)

type AnalyticsRepository interface {
	Insert(ctx context.Context, event *model.AnalyticsEvent) error
	// FindSince returns events whose date is on or after since (YYYY-MM-DD),
	// newest date first.
	FindSince(ctx context.Context, since string) ([]*model.AnalyticsEvent, error)
}

type mongoAnalyticsRepository struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoAnalyticsRepository(cfg *config.Config) AnalyticsRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return newMongoAnalyticsRepository(db, cfg.ReadTimeout, cfg.WriteTimeout)
}

func newMongoAnalyticsRepository(db *mongo.Database, readTimeout, writeTimeout time.Duration) *mongoAnalyticsRepository {
	return &mongoAnalyticsRepository{
		collection:   db.Collection(CollectionName),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (r *mongoAnalyticsRepository) Insert(ctx context.Context, event *model.AnalyticsEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}
	return nil
}

func (r *mongoAnalyticsRepository) FindSince(ctx context.Context, since string) ([]*model.AnalyticsEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	filter := bson.M{"date": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find analytics events: %w", err)
	}
	defer cursor.Close(ctx)

	events := make([]*model.AnalyticsEvent, 0)
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode analytics events: %w", err)
	}
	return events, nil
}
