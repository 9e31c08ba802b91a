package models

import "math"

// Position is a sidereal ecliptic position of one body.
type Position struct {
	Longitude  float64 `json:"longitude"`   // sidereal degrees, [0, 360)
	Sign       int     `json:"sign"`        // 0..11, Aries=0
	Degree     float64 `json:"degree"`      // degrees within sign, [0, 30)
	Speed      float64 `json:"speed"`       // deg/day, negative = retrograde
	Retrograde bool    `json:"retrograde"`
	House      int     `json:"house,omitempty"`    // whole-sign house 1..12, 0 if unassigned
	Nakshatra  int     `json:"nakshatra"`          // 0..26
	Pada       int     `json:"pada"`               // 1..4
}

// NewPosition derives the sign/degree/nakshatra breakdown from a sidereal
// longitude and daily speed.
func NewPosition(longitude, speed float64) Position {
	lon := NormDeg(longitude)
	nakArc := 360.0 / 27.0
	return Position{
		Longitude:  lon,
		Sign:       int(lon / 30),
		Degree:     math.Mod(lon, 30),
		Speed:      speed,
		Retrograde: speed < 0,
		Nakshatra:  int(lon / nakArc),
		Pada:       int(math.Mod(lon, nakArc)/(nakArc/4)) + 1,
	}
}

// NormDeg reduces an angle to [0, 360).
func NormDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// AngularDistance returns the smallest separation of two longitudes, 0..180.
func AngularDistance(a, b float64) float64 {
	d := math.Abs(NormDeg(a) - NormDeg(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// HouseCusp is one whole-sign house of the natal chart.
type HouseCusp struct {
	House     int     `json:"house"` // 1..12
	Sign      int     `json:"sign"`
	Longitude float64 `json:"longitude"` // start of the sign, sidereal
}

// NatalChart is the fully computed birth chart.
type NatalChart struct {
	Birth     BirthData         `json:"birth"`
	JulianDay float64           `json:"julian_day_ut"`
	Ayanamsa  float64           `json:"ayanamsa"`
	Ascendant float64           `json:"ascendant"` // sidereal degrees
	AscSign   int               `json:"ascendant_sign"`
	Houses    [12]HouseCusp     `json:"houses"`
	Planets   map[Body]Position `json:"planets"`

	// Optional derived points; nil pointers mean not computed.
	Gulika *float64 `json:"gulika,omitempty"`
	Mandi  *float64 `json:"mandi,omitempty"`
}

// HouseOf returns the whole-sign house (1..12) a sign occupies relative to
// the ascendant sign.
func (c *NatalChart) HouseOf(sign int) int {
	return ((sign-c.AscSign)%12+12)%12 + 1
}

// SignOfHouse returns the sign occupying a whole-sign house (1..12).
func (c *NatalChart) SignOfHouse(house int) int {
	return (c.AscSign + house - 1) % 12
}

// PlanetsInHouse lists bodies occupying a whole-sign house.
func (c *NatalChart) PlanetsInHouse(house int) []Body {
	var out []Body
	for _, b := range Bodies {
		if p, ok := c.Planets[b]; ok && c.HouseOf(p.Sign) == house {
			out = append(out, b)
		}
	}
	return out
}

// Has reports whether a body's position is present on the chart.
func (c *NatalChart) Has(b Body) bool {
	_, ok := c.Planets[b]
	return ok
}

// DivisionalChart maps each body through one varga division.
type DivisionalChart struct {
	Division  int               `json:"division"` // D number: 1,2,3,4,7,9,...,60
	AscSign   int               `json:"ascendant_sign"`
	Ascendant float64           `json:"ascendant"`
	Planets   map[Body]Position `json:"planets"`
}
