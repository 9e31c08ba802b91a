package models

import "time"

// LimbPeriod is one panchang limb value with its validity interval.
// Start/End are the boundary crossings of the underlying angle.
type LimbPeriod struct {
	Index int       `json:"index"` // tithi 1..30, nakshatra 0..26, yoga 0..26, karana 0..59
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Panchang carries the five limbs plus sun events for one civil date
// at one location.
type Panchang struct {
	Date      string     `json:"date"`
	Lat       float64    `json:"latitude"`
	Lon       float64    `json:"longitude"`
	TZOffset  int        `json:"tz_offset_minutes"`
	Sunrise   time.Time  `json:"sunrise"`
	Sunset    time.Time  `json:"sunset"`
	Tithi     LimbPeriod `json:"tithi"`
	Vara      string     `json:"vara"`
	Nakshatra LimbPeriod `json:"nakshatra"`
	Yoga      LimbPeriod `json:"yoga"`
	Karana    LimbPeriod `json:"karana"`
}

// Window is a labelled interval used by choghadiya, hora and muhurta output.
type Window struct {
	Index       int       `json:"index"`
	Name        string    `json:"name"`
	Lord        Body      `json:"lord,omitempty"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Suitability string    `json:"suitability,omitempty"`
}

// MuhuratReport is the API shape for the purpose-specific muhurat endpoints.
type MuhuratReport struct {
	Date     string    `json:"date"`
	Purpose  string    `json:"purpose"`
	Place    string    `json:"place,omitempty"`
	Lat      float64   `json:"latitude"`
	Lon      float64   `json:"longitude"`
	Sunrise  time.Time `json:"sunrise"`
	Sunset   time.Time `json:"sunset"`
	Muhurtas []Window  `json:"muhurtas"`
}
