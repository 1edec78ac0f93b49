package ics

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"eventfeed/internal/model"
)

// ImportOptions fills the record fields an ICS feed does not carry.
type ImportOptions struct {
	Organizer string
	// Country is the ISO 3166-1 alpha-2 code used for in-person events.
	// Without it events are imported as online and the LOCATION text is
	// appended to the description.
	Country string
	Tags    []string
}

const maxSlugLen = 48

// RecordID returns the storage key for an occurrence: a slug of its title
// plus a short name-based UUID over UID and instance, stable across runs.
func RecordID(occ Occurrence) string {
	sum := uuid.NewSHA1(uuid.NameSpaceURL, []byte(occ.Event.UID+"#"+occ.InstanceKey))
	return slugify(occ.Event.Summary) + "-" + strings.ReplaceAll(sum.String(), "-", "")[:8]
}

// ToRecord maps an occurrence onto an event record. Dates are written as UTC
// wall-clock numbers; all-day instances carry no times and an inclusive end
// date when they span more than one day.
func ToRecord(occ Occurrence, opts ImportOptions) model.EventRecord {
	ev := occ.Event

	title := ev.Summary
	if title == "" {
		title = "(No title)"
	}

	rec := model.EventRecord{
		ID:          RecordID(occ),
		Title:       title,
		Summary:     firstLine(ev.Description, title),
		Description: ev.Description,
		Format:      model.FormatOnline,
		Type:        "other",
		Tags:        append([]string(nil), opts.Tags...),
		Organizer:   model.Organizer{Name: opts.Organizer},
		Status:      model.StatusNotVerified,
	}

	if ev.AllDay {
		rec.Date = model.DateInfo{Start: occ.Start.Format("2006/01/02"), Precision: model.PrecisionApprox}
		if last := occ.End.AddDate(0, 0, -1); last.After(occ.Start) {
			rec.Date.End = last.Format("2006/01/02")
		}
	} else {
		rec.Date = model.DateInfo{
			Start:     occ.Start.Format("2006/01/02"),
			StartTime: occ.Start.Format("15:04"),
			End:       occ.End.Format("2006/01/02"),
			EndTime:   occ.End.Format("15:04"),
			Precision: model.PrecisionExact,
		}
	}

	if ev.Location != "" {
		if country := strings.ToUpper(strings.TrimSpace(opts.Country)); len(country) == 2 {
			rec.Format = model.FormatInPerson
			rec.Location = &model.Location{Country: country, Address: ev.Location}
		} else {
			rec.Description = strings.TrimSpace(rec.Description + "\n\nLocation: " + ev.Location)
		}
	}

	if ev.URL != "" {
		rec.Sources = []model.Source{{Title: ev.Source.ID, URL: ev.URL}}
	}
	return rec
}

func firstLine(s, fallback string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "event"
	}
	return slug
}
