package lifecycle

import (
	"time"

	appLog "eventfeed/internal/log"
	"eventfeed/internal/model"
)

// OngoingWindow is the duration assumed for an event without an explicit end.
// It only decides list membership; calendar blocks use their own default.
const OngoingWindow = 6 * time.Hour

// Bounds returns the parsed start and the effective end of d. Without an
// explicit end date the end is start + OngoingWindow.
func Bounds(d model.DateInfo) (start, end time.Time, err error) {
	start, err = ParseEventDate(d.Start, d.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if d.HasEnd() {
		end, err = ParseEventDate(d.End, d.EndTime)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}
	return start, start.Add(OngoingWindow), nil
}

// ComputeState classifies d relative to now.
//
// An event stays ongoing for the rest of the UTC calendar day its end falls
// on, even after the nominal end has passed. Unparseable dates classify as
// past together with the parse error, so they never linger as upcoming.
func ComputeState(d model.DateInfo, now time.Time) (model.State, error) {
	start, end, err := Bounds(d)
	if err != nil {
		return model.StatePast, err
	}

	if now.Before(start) {
		return model.StateUpcoming, nil
	}
	if sameUTCDate(end, now) {
		return model.StateOngoing, nil
	}
	if !now.Before(start) && !now.After(end) {
		return model.StateOngoing, nil
	}
	return model.StatePast, nil
}

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Classify attaches the state computed at now to rec.
func Classify(rec model.EventRecord, now time.Time) model.ClassifiedEvent {
	state, err := ComputeState(rec.Date, now)
	if err != nil {
		appLog.Error("classify: unparseable event date; treating as past", err, "id", rec.ID)
	}
	return model.ClassifiedEvent{EventRecord: rec, ComputedState: state}
}

// ClassifyAll classifies every record against the same instant.
func ClassifyAll(recs []model.EventRecord, now time.Time) []model.ClassifiedEvent {
	out := make([]model.ClassifiedEvent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Classify(rec, now))
	}
	return out
}
