package loader

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"eventfeed/internal/model"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

var eventTypes = map[string]bool{
	"rally": true, "march": true, "vigil": true, "sit_in": true,
	"webinar": true, "seminar": true, "panel": true, "conference": true,
	"workshop": true, "fundraiser": true, "film_screening": true,
	"training": true, "community_meetup": true, "other": true,
}

var onlineAccess = map[string]bool{"public": true, "rsvp_required": true, "invite_only": true}

// FieldError is one failed check, addressed by its dotted YAML path.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) Error() string {
	return e.Path + ": " + e.Message
}

// Normalize applies the value transforms validation expects, such as
// upper-casing the country code.
func Normalize(rec *model.EventRecord) {
	if rec.Location != nil {
		rec.Location.Country = strings.ToUpper(strings.TrimSpace(rec.Location.Country))
	}
}

// Validate checks rec against the event schema and returns every violation
// joined into one error, or nil.
func Validate(rec *model.EventRecord) error {
	var errs []error
	fail := func(path, format string, args ...any) {
		errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(rec.Title) == "" {
		fail("title", "required")
	}
	if strings.TrimSpace(rec.Summary) == "" {
		fail("summary", "required")
	}

	switch rec.State {
	case "", model.StateUpcoming, model.StateOngoing, model.StateHeld, model.StateCanceled, model.StatePostponed:
	default:
		fail("state", "invalid value %q", rec.State)
	}
	switch rec.Format {
	case model.FormatInPerson, model.FormatOnline, model.FormatHybrid:
	default:
		fail("format", "invalid value %q", rec.Format)
	}
	if !eventTypes[rec.Type] {
		fail("type", "invalid value %q", rec.Type)
	}

	validateDate(rec.Date, fail)

	if rec.Location != nil {
		if len(rec.Location.Country) != 2 {
			fail("location.country", "must be a 2-letter code")
		}
	} else if rec.Format == model.FormatInPerson || rec.Format == model.FormatHybrid {
		fail("location", "Location is required for in_person or hybrid events")
	}

	if rec.Online != nil {
		o := rec.Online
		checkURL("online.join_url", o.JoinURL, fail)
		checkURL("online.backup_url", o.BackupURL, fail)
		checkURL("online.registration_url", o.RegistrationURL, fail)
		checkURL("online.recording_url", o.RecordingURL, fail)
		if o.Access != "" && !onlineAccess[o.Access] {
			fail("online.access", "invalid value %q", o.Access)
		}
	}

	if strings.TrimSpace(rec.Organizer.Name) == "" {
		fail("organizer.name", "required")
	}
	checkURL("organizer.website", rec.Organizer.Website, fail)
	if rec.Organizer.ContactEmail != "" {
		if _, err := mail.ParseAddress(rec.Organizer.ContactEmail); err != nil {
			fail("organizer.contact_email", "invalid email")
		}
	}

	for i, sp := range rec.Speakers {
		if strings.TrimSpace(sp.Name) == "" {
			fail(fmt.Sprintf("speakers.%d.name", i), "required")
		}
		for j, link := range sp.Links {
			if link == "" {
				fail(fmt.Sprintf("speakers.%d.links.%d", i, j), "invalid url")
				continue
			}
			checkURL(fmt.Sprintf("speakers.%d.links.%d", i, j), link, fail)
		}
	}

	switch rec.Status {
	case model.StatusDraft, model.StatusNotVerified, model.StatusVerified:
	default:
		fail("status", "invalid value %q", rec.Status)
	}

	for i, src := range rec.Sources {
		if src.URL == "" {
			fail(fmt.Sprintf("sources.%d.url", i), "invalid url")
			continue
		}
		checkURL(fmt.Sprintf("sources.%d.url", i), src.URL, fail)
	}

	return errors.Join(errs...)
}

func validateDate(d model.DateInfo, fail func(path, format string, args ...any)) {
	if !datePattern.MatchString(d.Start) {
		fail("date.start", "Must be YYYY/MM/DD")
	}
	if d.StartTime != "" && !timePattern.MatchString(d.StartTime) {
		fail("date.start_time", "Must be HH:mm")
	}
	if d.End != "" && !datePattern.MatchString(d.End) {
		fail("date.end", "Must be YYYY/MM/DD")
	}
	if d.EndTime != "" && !timePattern.MatchString(d.EndTime) {
		fail("date.end_time", "Must be HH:mm")
	}
	switch d.Precision {
	case model.PrecisionExact, model.PrecisionApprox, model.PrecisionUnknown:
	default:
		fail("date.precision", "invalid value %q", d.Precision)
	}
}

// checkURL accepts an empty value; otherwise it must be an absolute URL.
func checkURL(path, raw string, fail func(path, format string, args ...any)) {
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		fail(path, "invalid url")
	}
}
