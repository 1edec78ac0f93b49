package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "eventfeed/internal/log"
)

const defaultMaxOccurrencesPerEvent = 500

// Occurrence is one concrete instance of an imported event, in UTC.
type Occurrence struct {
	Event ParsedEvent

	// InstanceKey identifies the instance within its UID; it is the
	// RFC3339 UTC start.
	InstanceKey string

	Start time.Time
	End   time.Time
}

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE; zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// Expand turns parsed events into occurrences intersecting
// [RangeStart, RangeEnd]. RRULE and EXDATE are applied, RECURRENCE-ID
// overrides replace their instance, and CANCELLED events are dropped. The
// result is sorted by start.
func Expand(events []ParsedEvent, cfg ExpandConfig) ([]Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	uids := make([]string, 0)

	for _, ev := range events {
		if ev.IsOverride() {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	out := make([]Occurrence, 0)
	for _, uid := range uids {
		for _, ev := range baseByUID[uid] {
			occ, hitCap := expandEvent(ev, overridesByUID[uid], cfg)
			if hitCap {
				appLog.Warn("expand: truncated occurrences for UID due to cap",
					"uid", uid,
					"cap", cfg.MaxOccurrencesPerEvent,
				)
			}
			out = append(out, occ...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	if ev.RawRRule == "" {
		return expandSingle(ev, overrides, cfg), false
	}
	return expandRecurring(ev, overrides, cfg)
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []Occurrence {
	if o, ok := findOverride(overrides, ev.Start); ok {
		ev = o
	}
	if ev.Status == "CANCELLED" || !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []Occurrence{makeOccurrence(ev, ev.Start, ev.End)}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	out := make([]Occurrence, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the duration so instances that started
	// before the range but are still running are kept.
	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.Add(-dur).In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, s := range starts {
		inst := ev
		start, end := s, s.Add(dur)
		if o, ok := findOverride(overrides, s); ok {
			inst, start, end = o, o.Start, o.End
		}
		if inst.Status == "CANCELLED" || !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, makeOccurrence(inst, start, end))
	}
	return out, hitCap
}

func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func makeOccurrence(ev ParsedEvent, start, end time.Time) Occurrence {
	start, end = start.UTC(), end.UTC()
	return Occurrence{
		Event:       ev,
		InstanceKey: start.Format(time.RFC3339),
		Start:       start,
		End:         end,
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
