package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"portfolio/internal/analytics/repository"
	"portfolio/internal/analytics/validator"
	"portfolio/internal/events"
	"portfolio/internal/metrics"
	"portfolio/pkg/config"
	apperrors "portfolio/pkg/errors"
	"portfolio/pkg/model"
	"portfolio/pkg/obs"
	"portfolio/pkg/sanitizer"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	dateLayout       = "2006-01-02"
	maxUserAgent     = 200
	visitorHashBytes = 8
	topN             = 5
	summaryDays      = 30
	weekDays         = 7
	unknownClick     = "unknown"
)

var (
	tracer = obs.Tracer("portfolio/internal/analytics/service")

	mobileUserAgent = regexp.MustCompile(`(?i)Mobile|Android|iPhone|iPad`)
)

type AnalyticsService interface {
	Track(ctx context.Context, req *model.TrackRequest, client ClientInfo) error
	Summary(ctx context.Context) (*model.AnalyticsSummary, error)
}

// ClientInfo is what the HTTP layer knows about the caller. The IP is only
// used to derive the visitor hash and is never stored.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type analyticsService struct {
	repo      repository.AnalyticsRepository
	validator *validator.AnalyticsValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewAnalyticsService(
	repo repository.AnalyticsRepository,
	validator *validator.AnalyticsValidator,
	publisher events.Publisher,
	cfg *config.Config,
) AnalyticsService {
	return &analyticsService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *analyticsService) Track(ctx context.Context, req *model.TrackRequest, client ClientInfo) error {
	ctx, span := tracer.Start(ctx, "analytics.Track")
	defer span.End()

	req.Event = sanitizer.TrimAndNormalize(req.Event)
	if err := s.validator.ValidateTrack(req); err != nil {
		var validationErr validator.ValidationError
		if errors.As(err, &validationErr) {
			return apperrors.Validation(validationErr.Message, map[string]any{"field": validationErr.Field})
		}
		return apperrors.Internal("Failed to validate event", err)
	}

	now := s.now().UTC()
	event := &model.AnalyticsEvent{
		ID:          uuid.New().String(),
		Event:       model.AnalyticsEventType(req.Event),
		Path:        eventPath(model.AnalyticsEventType(req.Event), req.Path),
		Referrer:    sanitizer.TrimAndNormalize(req.Referrer),
		Device:      DeviceFromUserAgent(client.UserAgent),
		UserAgent:   sanitizer.Truncate(client.UserAgent, maxUserAgent),
		VisitorHash: VisitorHash(s.cfg.AnalyticsSalt, client.IP),
		Timestamp:   now,
		Date:        now.Format(dateLayout),
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		obs.RecordError(span, err)
		s.cfg.Log.Error("Failed to track event", "event", event.Event, "error", err)
		return apperrors.Internal("Failed to track event", err)
	}

	metrics.AnalyticsEventsTracked.WithLabelValues(string(event.Event), event.Device).Inc()
	s.publisher.Publish(ctx, event.VisitorHash, "analytics."+string(event.Event), event)
	return nil
}

func (s *analyticsService) Summary(ctx context.Context) (*model.AnalyticsSummary, error) {
	ctx, span := tracer.Start(ctx, "analytics.Summary")
	defer span.End()

	now := s.now().UTC()
	since := now.AddDate(0, 0, -summaryDays).Format(dateLayout)

	events, err := s.repo.FindSince(ctx, since)
	if err != nil {
		obs.RecordError(span, err)
		s.cfg.Log.Error("Failed to load analytics events", "since", since, "error", err)
		return nil, apperrors.Internal("Failed to fetch analytics", err)
	}

	return Summarize(events, now), nil
}

// Summarize aggregates the events of the last 30 days as of now. Views,
// visitors, devices and referrers count page views only.
func Summarize(events []*model.AnalyticsEvent, now time.Time) *model.AnalyticsSummary {
	now = now.UTC()
	today := now.Format(dateLayout)
	weekAgo := now.AddDate(0, 0, -weekDays).Format(dateLayout)

	summary := &model.AnalyticsSummary{
		Devices:     map[string]int{model.DeviceMobile: 0, model.DeviceDesktop: 0},
		TotalEvents: len(events),
	}

	visitorsToday := map[string]struct{}{}
	visitorsWeek := map[string]struct{}{}
	visitorsMonth := map[string]struct{}{}
	referrers := newCounter()
	clicks := newCounter()
	viewsByDate := map[string]int{}

	for _, event := range events {
		switch event.Event {
		case model.EventPageView:
			summary.Views.Month++
			visitorsMonth[event.VisitorHash] = struct{}{}
			if event.Date >= weekAgo {
				summary.Views.Week++
				visitorsWeek[event.VisitorHash] = struct{}{}
			}
			if event.Date == today {
				summary.Views.Today++
				visitorsToday[event.VisitorHash] = struct{}{}
			}
			if _, ok := summary.Devices[event.Device]; ok {
				summary.Devices[event.Device]++
			}
			referrers.add(sanitizer.ReferrerHost(event.Referrer))
			viewsByDate[event.Date]++
		case model.EventClick:
			label := event.Path
			if label == "" {
				label = unknownClick
			}
			clicks.add(label)
		}
	}

	summary.Visitors = model.PeriodCounts{
		Today: len(visitorsToday),
		Week:  len(visitorsWeek),
		Month: len(visitorsMonth),
	}

	summary.TopReferrers = make([]model.ReferrerCount, 0, topN)
	for _, entry := range referrers.top(topN) {
		summary.TopReferrers = append(summary.TopReferrers, model.ReferrerCount{Source: entry.key, Count: entry.count})
	}
	summary.TopClicks = make([]model.ClickCount, 0, topN)
	for _, entry := range clicks.top(topN) {
		summary.TopClicks = append(summary.TopClicks, model.ClickCount{Label: entry.key, Count: entry.count})
	}

	summary.DailyViews = make([]model.DailyCount, 0, weekDays)
	for i := weekDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		date := day.Format(dateLayout)
		summary.DailyViews = append(summary.DailyViews, model.DailyCount{
			Date:  date,
			Label: day.Weekday().String()[:3],
			Count: viewsByDate[date],
		})
	}

	return summary
}

type countEntry struct {
	key   string
	count int
}

// counter keeps first-seen order so ties rank in the order keys appeared.
type counter struct {
	index   map[string]int
	entries []countEntry
}

func newCounter() *counter {
	return &counter{index: map[string]int{}}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.entries[i].count++
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, countEntry{key: key, count: 1})
}

func (c *counter) top(n int) []countEntry {
	sorted := make([]countEntry, len(c.entries))
	copy(sorted, c.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].count > sorted[j].count
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func DeviceFromUserAgent(userAgent string) string {
	if mobileUserAgent.MatchString(userAgent) {
		return model.DeviceMobile
	}
	return model.DeviceDesktop
}

// VisitorHash derives a stable pseudonymous id from the client IP.
func VisitorHash(salt, ip string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(ip))
	return "v_" + hex.EncodeToString(mac.Sum(nil)[:visitorHashBytes])
}

// Page views are stored as site paths; click labels are kept as sent.
func eventPath(event model.AnalyticsEventType, path string) string {
	if event == model.EventPageView {
		return sanitizer.NormalizePath(path)
	}
	path = sanitizer.TrimAndNormalize(path)
	if path == "" {
		return "/"
	}
	return path
}
