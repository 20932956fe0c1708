package client

import (
	"context"
	"portfolio/pkg/logger"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoCredentials = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)

func connectMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) *mongo.Client {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB",
			"error", err,
			"uri", mongoCredentials.ReplaceAllString(mongoURI, "${1}***:***@"),
		)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	return client
}
