// Package ephemeris computes sidereal positions of the nine grahas.
//
// The Engine interface is the single seam between the astrological layers
// and the underlying astronomy. The built-in kernel evaluates truncated
// analytic series over Keplerian elements; it is pure, deterministic and
// safe for concurrent use. The ayanamsa mode and node variant are fixed
// when the engine is built and immutable afterwards.
package ephemeris

import (
	"math"
	"time"
)

// J2000 is the Julian Day of the standard epoch 2000 January 1.5 TT.
const J2000 = 2451545.0

// JulianDay converts a UTC moment to a Julian Day in UT.
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	y, m, d := t.Year(), int(t.Month()), t.Day()
	if m <= 2 {
		y--
		m += 12
	}
	a := y / 100
	b := 2 - a + a/4
	day := float64(d) + (float64(t.Hour())+float64(t.Minute())/60+
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600)/24
	return math.Floor(365.25*float64(y+4716)) + math.Floor(30.6001*float64(m+1)) +
		day + float64(b) - 1524.5
}

// JDToTime converts a Julian Day in UT back to a UTC time.Time,
// rounded to the nearest second.
func JDToTime(jd float64) time.Time {
	z := math.Floor(jd + 0.5)
	f := jd + 0.5 - z

	a := z
	if z >= 2299161 {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}
	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day := b - d - math.Floor(30.6001*e) + f
	month := e - 1
	if e >= 14 {
		month = e - 13
	}
	year := c - 4716
	if month <= 2 {
		year = c - 4715
	}

	di := math.Floor(day)
	frac := (day - di) * 24
	h := math.Floor(frac)
	frac = (frac - h) * 60
	mi := math.Floor(frac)
	sec := math.Round((frac - mi) * 60)

	t := time.Date(int(year), time.Month(month), int(di), int(h), int(mi), 0, 0, time.UTC)
	return t.Add(time.Duration(sec) * time.Second)
}

// GMST returns the Greenwich mean sidereal time in degrees for a JD in UT.
func GMST(jd float64) float64 {
	t := (jd - J2000) / 36525
	st := 280.46061837 + 360.98564736629*(jd-J2000) +
		0.000387933*t*t - t*t*t/38710000
	return norm360(st)
}

// Obliquity returns the mean obliquity of the ecliptic in degrees.
func Obliquity(jd float64) float64 {
	t := (jd - J2000) / 36525
	return 23.4392911 - 0.0130042*t - 1.64e-7*t*t + 5.04e-7*t*t*t
}

func norm360(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
