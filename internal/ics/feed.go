package ics

import (
	"strings"
	"time"

	"eventfeed/internal/lifecycle"
	appLog "eventfeed/internal/log"
	"eventfeed/internal/model"
)

const (
	// ContentType and Filename are what an HTTP handler serving the feed
	// should send; RenderFeed itself never touches headers.
	ContentType = "text/calendar; charset=utf-8"
	Filename    = "events.ics"

	// defaultBlockDuration is the calendar block length for events without an
	// explicit end. It is intentionally shorter than lifecycle.OngoingWindow.
	defaultBlockDuration = time.Hour
)

// Feed holds the calendar-level metadata of the exported feed.
type Feed struct {
	ProdID       string
	CalendarName string
	// UIDDomain is appended to event ids: "<id>@<UIDDomain>".
	UIDDomain string
	// SiteURL is the base of event permalinks: "<SiteURL>/events/<id>".
	SiteURL string
}

// RenderFeed renders the upcoming and ongoing events as an iCalendar
// document with CRLF line endings. Past events are left out. An event whose
// dates cannot be parsed is skipped; the rest of the feed is still produced.
func RenderFeed(events []model.ClassifiedEvent, feed Feed, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + feed.ProdID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + feed.CalendarName,
		"X-WR-TIMEZONE:UTC",
	}

	stamp := lifecycle.FormatInstant(now)
	rendered := 0

	for _, ev := range events {
		if !Exported(ev.ComputedState) {
			continue
		}

		start, end, err := blockBounds(ev.Date)
		if err != nil {
			appLog.Error("ics feed: skipping event with unparseable date", err, "id", ev.ID)
			continue
		}

		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+ev.ID+"@"+feed.UIDDomain,
			"DTSTAMP:"+stamp,
			"DTSTART:"+lifecycle.FormatInstant(start),
			"DTEND:"+lifecycle.FormatInstant(end),
			"SUMMARY:"+ev.Title,
			"DESCRIPTION:"+escapeNewlines(describe(ev.EventRecord, feed.SiteURL)),
			"LOCATION:"+locationLine(ev.EventRecord),
			"END:VEVENT",
		)
		rendered++
	}

	lines = append(lines, "END:VCALENDAR")

	appLog.Debug("ics feed rendered", "input_count", len(events), "vevent_count", rendered)
	return strings.Join(lines, "\r\n")
}

// Exported reports whether events in state s belong in the feed.
func Exported(s model.State) bool {
	return s == model.StateUpcoming || s == model.StateOngoing
}

// blockBounds differs from lifecycle.Bounds only in the default duration.
func blockBounds(d model.DateInfo) (time.Time, time.Time, error) {
	start, err := lifecycle.ParseEventDate(d.Start, d.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !d.HasEnd() {
		return start, start.Add(defaultBlockDuration), nil
	}
	end, err := lifecycle.ParseEventDate(d.End, d.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func describe(ev model.EventRecord, siteURL string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(ev.Summary)
	b.WriteString("\n\nOrganizer: ")
	b.WriteString(ev.Organizer.Name)
	b.WriteString("\nLink: ")
	b.WriteString(strings.TrimRight(siteURL, "/"))
	b.WriteString("/events/")
	b.WriteString(ev.ID)
	b.WriteString("\n\n")
	b.WriteString(ev.Description)
	b.WriteString("\n")
	return strings.TrimSpace(b.String())
}

func locationLine(ev model.EventRecord) string {
	if ev.Format == model.FormatOnline {
		return "Online"
	}
	var address, city, country string
	if ev.Location != nil {
		address, city, country = ev.Location.Address, ev.Location.City, ev.Location.Country
	}
	return strings.TrimSpace(address + ", " + city + ", " + country)
}

// escapeNewlines turns each LF into the two characters backslash and n.
func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}
