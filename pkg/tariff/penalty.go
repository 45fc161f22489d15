package tariff

import (
	"strings"
	"time"
)

const (
	PenaltyGraceDays  = 5
	PenaltyCancelDays = 90
	PenaltyFlatFee    = 75.0
	PenaltyDailyRate  = 0.005
)

// Formatos aceites para o carimbo do marco, do mais específico para o mais geral.
var milestoneLayouts = []string{
	"2006-01-02 03:04 PM",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// Penalty is the late fee owed since a milestone. Cancelled means more than
// PenaltyCancelDays have passed and the shipment must not be processed further.
type Penalty struct {
	Fine       float64 `json:"fine"`
	DaysPassed int     `json:"daysPassed"`
	Cancelled  bool    `json:"cancelled"`
}

// LatePenalty computes the fee for a milestone timestamp. A timestamp that does
// not parse yields no penalty.
func LatePenalty(milestone string, now time.Time, base float64) Penalty {
	at, ok := ParseMilestone(milestone, now.Location())
	if !ok {
		return Penalty{}
	}
	return PenaltyForDays(int(now.Sub(at)/(24*time.Hour)), base)
}

// PenaltyForDays: 75 plus 0.5% of base per day beyond the grace period, rounded
// to two places.
func PenaltyForDays(days int, base float64) Penalty {
	p := Penalty{DaysPassed: days}
	switch {
	case days > PenaltyCancelDays:
		p.Cancelled = true
	case days > PenaltyGraceDays:
		p.Fine = Round(PenaltyFlatFee+float64(days-PenaltyGraceDays)*PenaltyDailyRate*base, 2)
	}
	return p
}

func ParseMilestone(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range milestoneLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MilestoneTimestamp joins a log entry's date and time; a missing time means midnight.
func MilestoneTimestamp(date, clock string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = "12:00 AM"
	}
	return date + " " + clock
}
