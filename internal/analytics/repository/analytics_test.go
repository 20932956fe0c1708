package repository

import (
	"context"
	"portfolio/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestAnalyticsRepository_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := newMongoAnalyticsRepository(mt.DB, time.Second, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Insert(context.Background(), &model.AnalyticsEvent{ID: "e-1", Event: model.EventPageView, Path: "/"})
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
	})

	mt.Run("write error", func(mt *mtest.T) {
		repo := newMongoAnalyticsRepository(mt.DB, time.Second, time.Second)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 91, Message: "shutdown in progress"}))

		if err := repo.Insert(context.Background(), &model.AnalyticsEvent{ID: "e-1"}); err == nil {
			mt.Error("expected error")
		}
	})
}

func TestAnalyticsRepository_FindSince(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes events", func(mt *mtest.T) {
		repo := newMongoAnalyticsRepository(mt.DB, time.Second, time.Second)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "portfolio.Analytics", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "e-1"}, {Key: "event", Value: "page_view"}, {Key: "date", Value: "2026-10-18"}},
			),
			mtest.CreateCursorResponse(0, "portfolio.Analytics", mtest.NextBatch,
				bson.D{{Key: "_id", Value: "e-2"}, {Key: "event", Value: "click"}, {Key: "date", Value: "2026-10-17"}},
			),
		)

		events, err := repo.FindSince(context.Background(), "2026-09-18")
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if len(events) != 2 {
			mt.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[1].Event != model.EventClick {
			mt.Errorf("unexpected second event %+v", events[1])
		}
	})

	mt.Run("empty", func(mt *mtest.T) {
		repo := newMongoAnalyticsRepository(mt.DB, time.Second, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "portfolio.Analytics", mtest.FirstBatch))

		events, err := repo.FindSince(context.Background(), "2026-09-18")
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if events == nil || len(events) != 0 {
			mt.Errorf("expected empty non-nil slice, got %v", events)
		}
	})
}
