package models

import "time"

// DashaLevel identifies the nesting depth of a Vimshottari period.
type DashaLevel int

const (
	Mahadasha DashaLevel = iota + 1
	Antardasha
	Pratyantardasha
	Sookshma
	Prana
)

var dashaLevelNames = [...]string{"", "Mahadasha", "Antardasha", "Pratyantardasha", "Sookshma", "Prana"}

func (l DashaLevel) String() string {
	if l < Mahadasha || l > Prana {
		return "DashaLevel(?)"
	}
	return dashaLevelNames[l]
}

// MarshalText renders the level name into JSON.
func (l DashaLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// DashaPeriod is one ruler period at one level. Within a parent period the
// child periods are a non-overlapping partition: End of child i equals Start
// of child i+1 and the last End equals the parent End.
type DashaPeriod struct {
	Ruler Body       `json:"ruler"`
	Level DashaLevel `json:"level"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

// Contains reports whether t falls inside [Start, End).
func (p DashaPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// CharaPeriod is a Jaimini sign-based dasha period.
type CharaPeriod struct {
	Sign     int       `json:"sign"`
	SignName string    `json:"sign_name"`
	Years    int       `json:"years"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// YoginiPeriod is one of the eight yogini dasha periods.
type YoginiPeriod struct {
	Name  string    `json:"name"`
	Ruler Body      `json:"ruler"`
	Years int       `json:"years"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
