package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventfeed/internal/log"
)

// ParsedEvent is the normalized form of one VEVENT read from an external
// subscription. Recurrences are kept raw and expanded later by Expand.
type ParsedEvent struct {
	Source Source

	UID string

	Summary     string
	Description string
	Location    string
	URL         string
	Status      string

	// Start and End carry the event's TZID location, or UTC for all-day and
	// floating values, which keep their wall-clock numbers.
	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, if this VEVENT overrides one instance
}

// IsOverride reports whether the event replaces a single recurring instance.
func (p ParsedEvent) IsOverride() bool {
	return p.Recurrence != nil
}

// ParseICS parses one ICS payload. A VEVENT that cannot be read is logged and
// skipped; the others are still returned.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "url", redactURL(src.URL), "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{Source: src}

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	out.Summary = propValue(ve, ical.ComponentPropertySummary)
	out.Description = propValue(ve, ical.ComponentPropertyDescription)
	out.Location = propValue(ve, ical.ComponentPropertyLocation)
	out.URL = propValue(ve, ical.ComponentPropertyUrl)
	out.Status = strings.ToUpper(propValue(ve, ical.ComponentPropertyStatus))

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	var err error
	if out.AllDay {
		out.Start, err = ve.GetAllDayStartAt()
	} else {
		out.Start, err = ve.GetStartAt()
	}
	if err != nil {
		return out, err
	}
	floating := out.AllDay || isFloating(dtStart)
	out.Start = normalize(out.Start, floating)

	if end, endErr := ve.GetEndAt(); endErr == nil && normalize(end, floating).After(out.Start) {
		out.End = normalize(end, floating)
	} else if out.AllDay {
		out.End = out.Start.AddDate(0, 0, 1)
	} else {
		out.End = out.Start.Add(time.Hour)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, tzid(p)); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if rid := ve.GetProperty(ical.ComponentPropertyRecurrenceId); rid != nil {
		if t, err := parseICSTime(rid.Value, tzid(rid)); err == nil {
			out.Recurrence = &t
		}
	}

	return out, nil
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// isDateValue detects VALUE=DATE or a bare YYYYMMDD value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// isFloating reports a DATE-TIME with neither a UTC marker nor a TZID.
func isFloating(p *ical.IANAProperty) bool {
	if _, ok := p.ICalParameters["TZID"]; ok {
		return false
	}
	return !strings.HasSuffix(p.Value, "Z")
}

// normalize moves wall-clock values out of time.Local into UTC.
func normalize(t time.Time, wallClock bool) time.Time {
	if wallClock {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	}
	return t
}

func tzid(p *ical.IANAProperty) string {
	if vs, ok := p.ICalParameters["TZID"]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// parseICSTime parses a DATE or DATE-TIME value for EXDATE/RECURRENCE-ID on
// the same footing as ParsedEvent.Start.
func parseICSTime(v, tz string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	loc := time.UTC
	if tz != "" && !strings.HasSuffix(v, "Z") {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}

	var (
		t   time.Time
		err error
	)
	switch {
	case strings.HasSuffix(v, "Z"):
		t, err = time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		t, err = time.ParseInLocation("20060102T150405", v, loc)
	default:
		t, err = time.ParseInLocation("20060102", v, time.UTC)
	}
	return t, err
}
