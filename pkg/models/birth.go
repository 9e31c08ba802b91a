package models

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Common validation errors for birth coordinates.
var (
	ErrBadDate      = errors.New("models: invalid birth date")
	ErrBadTime      = errors.New("models: invalid birth time")
	ErrBadLatitude  = errors.New("models: latitude out of range [-90, 90]")
	ErrBadLongitude = errors.New("models: longitude out of range [-180, 180]")
	ErrNoTimezone   = errors.New("models: timezone offset is required")
)

// BirthData is the immutable birth coordinate: civil date and wall-clock
// time, geographic position and the resolved UTC offset. The caller is
// responsible for DST resolution; an unresolvable offset must be rejected,
// never defaulted to UTC.
type BirthData struct {
	Date     string `json:"date"` // YYYY-MM-DD, proleptic Gregorian
	Time     string `json:"time"` // HH:MM or HH:MM:SS, local wall clock
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	TZOffset *int    `json:"tz_offset_minutes"` // signed minutes east of UTC
	Place    string  `json:"place,omitempty"`
	Sex      string  `json:"sex,omitempty"`
	Relation string  `json:"relation,omitempty"`
}

// Validate checks ranges and calendar-parses date and time.
func (b BirthData) Validate() error {
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrBadDate, b.Date)
	}
	if _, err := parseClock(b.Time); err != nil {
		return fmt.Errorf("%w: %q", ErrBadTime, b.Time)
	}
	if b.Lat < -90 || b.Lat > 90 {
		return fmt.Errorf("%w: %v", ErrBadLatitude, b.Lat)
	}
	if b.Lon < -180 || b.Lon > 180 {
		return fmt.Errorf("%w: %v", ErrBadLongitude, b.Lon)
	}
	if b.TZOffset == nil {
		return ErrNoTimezone
	}
	if *b.TZOffset < -14*60 || *b.TZOffset > 14*60 {
		return fmt.Errorf("%w: offset %d minutes", ErrNoTimezone, *b.TZOffset)
	}
	return nil
}

// UTC converts the local wall-clock birth moment to UTC.
// Validate must have succeeded first.
func (b BirthData) UTC() time.Time {
	d, _ := time.Parse("2006-01-02", b.Date)
	h, m, s := mustClock(b.Time)
	local := time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, time.UTC)
	return local.Add(-time.Duration(*b.TZOffset) * time.Minute)
}

// Hash returns the canonical SHA-256 birth hash. Only the five fields that
// determine the chart participate; display-only fields do not.
func (b BirthData) Hash() string {
	canon := fmt.Sprintf("%s|%s|%.6f|%.6f|%d", b.Date, b.Time, b.Lat, b.Lon, derefOffset(b.TZOffset))
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:])
}

func derefOffset(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func parseClock(s string) (time.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable clock %q", s)
}

func mustClock(s string) (h, m, sec int) {
	t, _ := parseClock(s)
	return t.Hour(), t.Minute(), t.Second()
}
