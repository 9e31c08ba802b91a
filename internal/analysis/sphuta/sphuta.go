// Package sphuta computes composite longitudes (beeja, kshetra and kin),
// the Bhrigu Bindu and Mrityu Bhaga afflictions.
package sphuta

import (
	"math"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// Point is one composite longitude.
type Point struct {
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Sign      int     `json:"sign"`
	Degree    float64 `json:"degree"`
}

func makePoint(name string, lon float64) Point {
	lon = models.NormDeg(lon)
	return Point{Name: name, Longitude: lon, Sign: int(lon / 30), Degree: math.Mod(lon, 30)}
}

// Compute returns every composite point derivable from the chart. Beeja
// reads male fertility, kshetra female; the rest are the common composite
// sums. Points whose inputs are missing are omitted.
func Compute(c *models.NatalChart) []Point {
	var out []Point

	sum := func(bodies ...models.Body) (float64, bool) {
		var s float64
		for _, b := range bodies {
			p, ok := c.Planets[b]
			if !ok {
				return 0, false
			}
			s += p.Longitude
		}
		return s, true
	}

	if s, ok := sum(models.Sun, models.Venus, models.Jupiter); ok {
		out = append(out, makePoint("beeja", s))
	}
	if s, ok := sum(models.Moon, models.Mars, models.Jupiter); ok {
		out = append(out, makePoint("kshetra", s))
	}
	if s, ok := sum(models.Sun, models.Moon); ok {
		out = append(out, makePoint("yoga", s))
		out = append(out, makePoint("avayoga", 186.666667-s))
	}
	moon, hasMoon := c.Planets[models.Moon]
	sun, hasSun := c.Planets[models.Sun]
	if hasMoon && hasSun {
		out = append(out, makePoint("tithi", moon.Longitude-sun.Longitude))
	}
	if hasMoon {
		// Trisphuta: lagna + Moon + Gulika when available.
		if c.Gulika != nil {
			out = append(out, makePoint("trisphuta", c.Ascendant+moon.Longitude+*c.Gulika))
		}
	}
	if bb, ok := BhriguBindu(c); ok {
		out = append(out, makePoint("bhrigu_bindu", bb))
	}
	return out
}

// BhriguBindu is the midpoint of the Moon and Rahu along the shorter arc.
func BhriguBindu(c *models.NatalChart) (float64, bool) {
	moon, okM := c.Planets[models.Moon]
	rahu, okR := c.Planets[models.Rahu]
	if !okM || !okR {
		return 0, false
	}
	diff := models.NormDeg(moon.Longitude - rahu.Longitude)
	if diff > 180 {
		diff -= 360
	}
	return models.NormDeg(rahu.Longitude + diff/2), true
}

// ── Mrityu Bhaga ──

// mrityuDegrees holds the sensitive degree of each sign for each body,
// indexed Aries..Pisces. Per Jataka Parijata.
var mrityuDegrees = map[models.Body][12]float64{
	models.Sun:     {20, 9, 12, 6, 8, 24, 16, 17, 22, 2, 3, 23},
	models.Moon:    {26, 12, 13, 25, 24, 11, 26, 14, 13, 25, 5, 12},
	models.Mars:    {19, 28, 25, 23, 29, 28, 14, 21, 2, 15, 11, 6},
	models.Mercury: {15, 14, 13, 12, 8, 18, 20, 10, 21, 22, 7, 5},
	models.Jupiter: {19, 29, 12, 27, 6, 4, 13, 10, 17, 11, 15, 28},
	models.Venus:   {28, 15, 11, 17, 10, 13, 4, 6, 27, 12, 29, 19},
	models.Saturn:  {10, 4, 7, 9, 12, 16, 3, 18, 28, 14, 13, 15},
	models.Rahu:    {14, 13, 12, 11, 24, 23, 22, 21, 10, 20, 18, 8},
	models.Ketu:    {8, 18, 20, 10, 21, 22, 23, 24, 11, 12, 13, 14},
}

// ascendantMrityu per sign for the lagna degree itself.
var ascendantMrityu = [12]float64{1, 9, 22, 22, 25, 2, 4, 23, 18, 20, 24, 10}

// Severity of a mrityu bhaga hit.
type Severity string

const (
	Critical Severity = "critical" // within 0.25°
	High     Severity = "high"     // within 1°
)

// Affliction is one body sitting on its death degree.
type Affliction struct {
	Body     models.Body `json:"body"`
	IsLagna  bool        `json:"is_lagna,omitempty"`
	Sign     int         `json:"sign"`
	Orb      float64     `json:"orb"`
	Severity Severity    `json:"severity"`
}

func severityOf(orb float64) (Severity, bool) {
	switch {
	case orb <= 0.25:
		return Critical, true
	case orb <= 1:
		return High, true
	default:
		return "", false
	}
}

// MrityuBhaga flags every body (and the ascendant) within orb of its
// sign's sensitive degree.
func MrityuBhaga(c *models.NatalChart) []Affliction {
	var out []Affliction
	for _, b := range models.Bodies {
		p, ok := c.Planets[b]
		if !ok {
			continue
		}
		deg := mrityuDegrees[b][p.Sign]
		orb := math.Abs(p.Degree - deg)
		if sev, hit := severityOf(orb); hit {
			out = append(out, Affliction{Body: b, Sign: p.Sign, Orb: orb, Severity: sev})
		}
	}
	ascDeg := math.Mod(c.Ascendant, 30)
	orb := math.Abs(ascDeg - ascendantMrityu[c.AscSign])
	if sev, hit := severityOf(orb); hit {
		out = append(out, Affliction{IsLagna: true, Sign: c.AscSign, Orb: orb, Severity: sev})
	}
	return out
}
