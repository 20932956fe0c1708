package calendar

import (
	"context"
	"fmt"
	"portfolio/pkg/sanitizer"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	DefaultTopic       = "Booking Request"
	defaultDescription = "General discussion"
	maxSummaryTopic    = 100
)

// Scheduler creates calendar events for approved consultations.
type Scheduler interface {
	CreateEvent(ctx context.Context, req EventRequest) (*Event, error)
	Location() *time.Location
}

type EventRequest struct {
	BookingID       string
	AttendeeEmail   string
	Topic           string
	Start           time.Time
	DurationMinutes int
}

type Event struct {
	EventID     string
	EventLink   string
	MeetingLink string
	Start       time.Time
	End         time.Time
}

type GoogleCalendar struct {
	service    *gcal.Service
	calendarID string
	location   *time.Location
	timeout    time.Duration
}

// NewGoogleCalendar authenticates with a stored OAuth2 refresh token for the
// owner's account; the access token is refreshed transparently.
func NewGoogleCalendar(ctx context.Context, clientID, clientSecret, refreshToken, calendarID, timezone string, timeout time.Duration) (*GoogleCalendar, error) {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	service, err := gcal.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}

	return NewGoogleCalendarWithService(service, calendarID, timezone, timeout)
}

func NewGoogleCalendarWithService(service *gcal.Service, calendarID, timezone string, timeout time.Duration) (*GoogleCalendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", timezone, err)
	}

	return &GoogleCalendar{
		service:    service,
		calendarID: calendarID,
		location:   loc,
		timeout:    timeout,
	}, nil
}

func (c *GoogleCalendar) Location() *time.Location {
	return c.location
}

func (c *GoogleCalendar) CreateEvent(ctx context.Context, req EventRequest) (*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := req.Start.In(c.location)
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	topic := sanitizer.TrimAndNormalize(req.Topic)
	summaryTopic := DefaultTopic
	description := defaultDescription
	if topic != "" {
		summaryTopic = sanitizer.Truncate(topic, maxSummaryTopic)
		description = req.Topic
	}

	event := &gcal.Event{
		Summary:     "Consultation: " + summaryTopic,
		Description: fmt.Sprintf("Consultation call with %s\n\nTopic: %s", req.AttendeeEmail, description),
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.location.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.location.String(),
		},
		Attendees: []*gcal.EventAttendee{
			{Email: req.AttendeeEmail},
		},
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId: "booking_" + req.BookingID + "_" + strconv.FormatInt(time.Now().UnixNano(), 36),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 15},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := c.service.Events.Insert(c.calendarID, event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}

	return &Event{
		EventID:     created.Id,
		EventLink:   created.HtmlLink,
		MeetingLink: meetLink(created),
		Start:       start,
		End:         end,
	}, nil
}

func meetLink(event *gcal.Event) string {
	if event.ConferenceData == nil {
		return ""
	}
	for _, entry := range event.ConferenceData.EntryPoints {
		if entry.EntryPointType == "video" {
			return entry.Uri
		}
	}
	return ""
}

// ParseStart interprets a YYYY-MM-DD date and HH:MM time as wall-clock time in loc.
func ParseStart(date, startTime string, loc *time.Location) (time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+startTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q %q: %w", date, startTime, err)
	}
	return start, nil
}
