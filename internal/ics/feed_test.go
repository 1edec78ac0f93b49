package ics

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventfeed/internal/model"
)

var testFeed = Feed{
	ProdID:       "-//Example//Events Feed//EN",
	CalendarName: "Example Events",
	UIDDomain:    "example.org",
	SiteURL:      "https://example.org/",
}

func classified(id string, state model.State, rec model.EventRecord) model.ClassifiedEvent {
	rec.ID = id
	return model.ClassifiedEvent{EventRecord: rec, ComputedState: state}
}

func TestRenderFeedExactOutput(t *testing.T) {
	now := time.Date(2026, 1, 20, 8, 0, 0, 0, time.UTC)
	events := []model.ClassifiedEvent{
		classified("rally-berlin", model.StateUpcoming, model.EventRecord{
			Title:       "Rally in Berlin",
			Summary:     "Solidarity rally.",
			Description: "Bring flags.\nMeet at the gate.",
			Format:      model.FormatInPerson,
			Date:        model.DateInfo{Start: "2026/01/24", StartTime: "14:00", End: "2026/01/24", EndTime: "16:30"},
			Location:    &model.Location{Country: "DE", City: "Berlin", Address: "Pariser Platz"},
			Organizer:   model.Organizer{Name: "Berlin Group"},
		}),
		classified("webinar", model.StateOngoing, model.EventRecord{
			Title:     "Webinar",
			Summary:   "Online talk.",
			Format:    model.FormatOnline,
			Date:      model.DateInfo{Start: "2026/01/20", StartTime: "07:00"},
			Organizer: model.Organizer{Name: "Org"},
		}),
		classified("old", model.StatePast, model.EventRecord{
			Title: "Old",
			Date:  model.DateInfo{Start: "2025/01/01"},
		}),
	}

	want := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Example//Events Feed//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:Example Events",
		"X-WR-TIMEZONE:UTC",
		"BEGIN:VEVENT",
		"UID:rally-berlin@example.org",
		"DTSTAMP:20260120T080000Z",
		"DTSTART:20260124T140000Z",
		"DTEND:20260124T163000Z",
		"SUMMARY:Rally in Berlin",
		`DESCRIPTION:Solidarity rally.\n\nOrganizer: Berlin Group\nLink: https://example.org/events/rally-berlin\n\nBring flags.\nMeet at the gate.`,
		"LOCATION:Pariser Platz, Berlin, DE",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:webinar@example.org",
		"DTSTAMP:20260120T080000Z",
		"DTSTART:20260120T070000Z",
		"DTEND:20260120T080000Z",
		"SUMMARY:Webinar",
		`DESCRIPTION:Online talk.\n\nOrganizer: Org\nLink: https://example.org/events/webinar`,
		"LOCATION:Online",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	got := RenderFeed(events, testFeed, now)
	assert.Equal(t, want, got)
	assert.False(t, strings.HasSuffix(got, "\r\n"))
}

func TestRenderFeedExcludesPast(t *testing.T) {
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	events := []model.ClassifiedEvent{
		classified("past-one", model.StatePast, model.EventRecord{Date: model.DateInfo{Start: "2026/01/01"}}),
		classified("up-one", model.StateUpcoming, model.EventRecord{Date: model.DateInfo{Start: "2026/02/01"}}),
		classified("on-one", model.StateOngoing, model.EventRecord{Date: model.DateInfo{Start: "2026/01/20"}}),
	}

	got := RenderFeed(events, testFeed, now)
	assert.NotContains(t, got, "past-one")
	assert.Contains(t, got, "UID:up-one@example.org")
	assert.Contains(t, got, "UID:on-one@example.org")
	assert.Equal(t, 2, strings.Count(got, "BEGIN:VEVENT"))
}

func TestRenderFeedDefaultBlockIsOneHour(t *testing.T) {
	now := time.Date(2026, 1, 24, 20, 0, 0, 0, time.UTC)
	events := []model.ClassifiedEvent{
		classified("no-end", model.StateOngoing, model.EventRecord{
			Date: model.DateInfo{Start: "2026/01/24", StartTime: "17:00"},
		}),
	}

	cal, err := ical.ParseCalendar(strings.NewReader(RenderFeed(events, testFeed, now)))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)

	ev := cal.Events()[0]
	start, err := ev.GetStartAt()
	require.NoError(t, err)
	end, err := ev.GetEndAt()
	require.NoError(t, err)

	assert.True(t, start.Equal(time.Date(2026, 1, 24, 17, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, end.Sub(start))
	assert.Equal(t, "no-end@example.org", ev.GetProperty(ical.ComponentPropertyUniqueId).Value)
}

func TestRenderFeedToleratesMissingPieces(t *testing.T) {
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	events := []model.ClassifiedEvent{
		classified("bare", model.StateUpcoming, model.EventRecord{
			Format: model.FormatInPerson,
			Date:   model.DateInfo{Start: "2026/02/01"},
		}),
		classified("broken", model.StateUpcoming, model.EventRecord{
			Date: model.DateInfo{Start: "2026/02/01", End: "whenever"},
		}),
	}

	got := RenderFeed(events, testFeed, now)
	assert.Contains(t, got, "LOCATION:, ,")
	assert.Contains(t, got, `DESCRIPTION:Organizer: \nLink: https://example.org/events/bare`)
	assert.NotContains(t, got, "broken@")
	assert.True(t, strings.HasSuffix(got, "END:VCALENDAR"))
}

func TestRenderFeedEmpty(t *testing.T) {
	got := RenderFeed(nil, testFeed, time.Now())
	assert.True(t, strings.HasPrefix(got, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n"))
	assert.NotContains(t, got, "BEGIN:VEVENT")
}
