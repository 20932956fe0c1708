package model

import "time"

type AnalyticsEventType string

const (
	EventPageView AnalyticsEventType = "page_view"
	EventClick    AnalyticsEventType = "click"
)

const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// AnalyticsEvent is an append-only record; it is never updated after insert.
type AnalyticsEvent struct {
	ID          string             `json:"id" bson:"_id"`
	Event       AnalyticsEventType `json:"event" bson:"event"`
	Path        string             `json:"path" bson:"path"`
	Referrer    string             `json:"referrer" bson:"referrer"`
	Device      string             `json:"device" bson:"device"`
	UserAgent   string             `json:"user_agent" bson:"user_agent"`
	VisitorHash string             `json:"visitor_hash" bson:"visitor_hash"`
	Timestamp   time.Time          `json:"timestamp" bson:"timestamp"`
	Date        string             `json:"date" bson:"date"`
}

type TrackRequest struct {
	Event    string `json:"event" validate:"required,oneof=page_view click"`
	Path     string `json:"path" validate:"max=512"`
	Referrer string `json:"referrer" validate:"max=2048"`
}

type ReferrerCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type ClickCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type PeriodCounts struct {
	Today int `json:"today"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

type AnalyticsSummary struct {
	Views        PeriodCounts    `json:"views"`
	Visitors     PeriodCounts    `json:"visitors"`
	Devices      map[string]int  `json:"devices"`
	TopReferrers []ReferrerCount `json:"topReferrers"`
	TopClicks    []ClickCount    `json:"topClicks"`
	DailyViews   []DailyCount    `json:"dailyViews"`
	TotalEvents  int             `json:"totalEvents"`
}
