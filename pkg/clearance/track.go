package clearance

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "03:04 PM"

	// MaxTrackLen bounds a track; appends beyond it are dropped.
	MaxTrackLen = 64
)

type Icon string

const (
	IconSuccess Icon = "success"
	IconError   Icon = "error"
	IconPending Icon = "pending"
)

// Entry is one stage in a party's clearance log.
type Entry struct {
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	Icon         Icon   `json:"icon"`
	Agent        string `json:"agent,omitempty"`
	Title        string `json:"title"`
	Actionable   bool   `json:"action"`
	ActionLabel  string `json:"actionLabel,omitempty"`
	ActionTarget string `json:"action_href,omitempty"`
}

// Stamp sets the entry's date and time from at.
func (e Entry) Stamp(at time.Time) Entry {
	e.Date = at.Format(DateLayout)
	e.Time = at.Format(TimeLayout)
	return e
}

// Track is an ordered log. Only the last entry may change; every function here
// returns a new Track and leaves its argument untouched.
type Track []Entry

func (t Track) Last() (Entry, bool) {
	if len(t) == 0 {
		return Entry{}, false
	}
	return t[len(t)-1], true
}

// Stage is the title of the last entry, or "" for an empty track.
func (t Track) Stage() string {
	last, _ := t.Last()
	return last.Title
}

// Terminal reports whether the last entry closed the shipment successfully.
func (t Track) Terminal() bool {
	last, ok := t.Last()
	return ok && last.Icon == IconSuccess && IsTerminalStage(last.Title)
}

// Find returns the first entry with the given title.
func (t Track) Find(title string) (Entry, bool) {
	for _, e := range t {
		if e.Title == title {
			return e, true
		}
	}
	return Entry{}, false
}

// Completed reports whether some entry with title was finalized successfully.
func (t Track) Completed(title string) bool {
	for _, e := range t {
		if e.Title == title && e.Icon == IconSuccess {
			return true
		}
	}
	return false
}

func (t Track) clone() Track {
	if t == nil {
		return nil
	}
	out := make(Track, len(t), len(t)+1)
	copy(out, t)
	return out
}

// FinalizeLast sets the last entry's icon, stamps it with at and clears its action.
func FinalizeLast(t Track, icon Icon, at time.Time) Track {
	if len(t) == 0 {
		return t
	}
	out := t.clone()
	last := out[len(out)-1].Stamp(at)
	last.Icon = icon
	last.Actionable = false
	last.ActionLabel = ""
	last.ActionTarget = ""
	out[len(out)-1] = last
	return out
}

func Append(t Track, e Entry) Track {
	if len(t) >= MaxTrackLen {
		return t
	}
	out := t.clone()
	return append(out, e)
}

// Step describes one AdvanceStage call. An empty Guard finalizes unconditionally;
// a nil Next finalizes without appending.
type Step struct {
	Guard        string
	FinalizeIcon Icon
	Next         *Entry
}

// AdvanceStage finalizes the last entry when it matches the guard, then appends
// Next. An empty track is returned unchanged, and a guard mismatch skips the
// finalize but still appends.
func AdvanceStage(t Track, step Step, at time.Time) Track {
	if len(t) == 0 {
		return t
	}
	if step.Guard == "" || t.Stage() == step.Guard {
		icon := step.FinalizeIcon
		if icon == "" {
			icon = IconSuccess
		}
		t = FinalizeLast(t, icon, at)
	}
	if step.Next != nil {
		t = Append(t, *step.Next)
	}
	return t
}
