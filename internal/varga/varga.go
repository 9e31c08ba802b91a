// Package varga implements the sixteen classical divisional-chart mappings.
// Every mapping is a pure function of (sign, degree-in-sign, division).
package varga

import (
	"errors"
	"fmt"
	"math"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// ErrUnknownDivision is returned for a division number outside the shodasha
// varga set.
var ErrUnknownDivision = errors.New("varga: unknown division")

// Divisions lists the supported D numbers in ascending order.
var Divisions = []int{1, 2, 3, 4, 7, 9, 10, 12, 16, 20, 24, 27, 30, 40, 45, 60}

// partIndex splits [0, 30) into equal arcs of the given width and returns
// the 0-based part holding degree. Division can land a hair under an exact
// boundary (10.0 / (30.0/9) comes out just below 3), so a value within
// 1e-12° of the next boundary is snapped onto it; anything farther away,
// like a longitude a nanodegree shy of the boundary, stays in its own part.
func partIndex(degree, arc float64) int {
	p := int(degree / arc)
	if float64(p+1)*arc-degree < 1e-12 {
		p++
	}
	if last := int(math.Round(30/arc)) - 1; p > last {
		p = last
	}
	return p
}

// Supported reports whether d is one of the sixteen vargas.
func Supported(d int) bool {
	for _, v := range Divisions {
		if v == d {
			return true
		}
	}
	return false
}

// Sign maps a (sign, degree-in-sign) pair through division d and returns the
// divisional sign 0..11.
func Sign(sign int, degree float64, d int) (int, error) {
	sign = ((sign % 12) + 12) % 12
	if degree < 0 || degree >= 30 {
		return 0, fmt.Errorf("varga: degree %v outside [0, 30)", degree)
	}
	part := func(arc float64) int { return partIndex(degree, arc) }

	switch d {
	case 1:
		return sign, nil

	case 2: // Hora: halves belong to the Sun (Leo) and Moon (Cancer).
		first := degree < 15
		if models.OddSign(sign) {
			if first {
				return 4, nil
			}
			return 3, nil
		}
		if first {
			return 3, nil
		}
		return 4, nil

	case 3: // Drekkana: self, 5th, 9th.
		return (sign + 4*part(10)) % 12, nil

	case 4: // Chaturthamsa: self, 4th, 7th, 10th.
		return (sign + 3*part(7.5)) % 12, nil

	case 7: // Saptamsa: odd from self, even from the 7th.
		start := sign
		if !models.OddSign(sign) {
			start = sign + 6
		}
		return (start + part(30.0 / 7)) % 12, nil

	case 9: // Navamsa: movable from self, fixed from the 9th, dual from the 5th.
		var start int
		switch models.QualityOf(sign) {
		case models.Movable:
			start = sign
		case models.Fixed:
			start = sign + 8
		default:
			start = sign + 4
		}
		return (start + part(30.0 / 9)) % 12, nil

	case 10: // Dasamsa: odd from self, even from the 9th.
		start := sign
		if !models.OddSign(sign) {
			start = sign + 8
		}
		return (start + part(3)) % 12, nil

	case 12: // Dvadasamsa: counted from the sign itself.
		return (sign + part(2.5)) % 12, nil

	case 16: // Shodasamsa: movable from Aries, fixed from Leo, dual from Sagittarius.
		return (qualityStart(sign, 0, 4, 8) + part(30.0 / 16)) % 12, nil

	case 20: // Vimsamsa: movable from Aries, fixed from Sagittarius, dual from Leo.
		return (qualityStart(sign, 0, 8, 4) + part(1.5)) % 12, nil

	case 24: // Chaturvimsamsa: odd from Leo, even from Cancer.
		start := 4
		if !models.OddSign(sign) {
			start = 3
		}
		return (start + part(1.25)) % 12, nil

	case 27: // Bhamsa: by element — fire Aries, earth Cancer, air Libra, water Capricorn.
		start := []int{0, 3, 6, 9}[sign%4]
		return (start + part(30.0 / 27)) % 12, nil

	case 30: // Trimsamsa: unequal arcs under the five tara-graha lords.
		return trimsamsa(sign, degree), nil

	case 40: // Khavedamsa: odd from Aries, even from Libra.
		start := 0
		if !models.OddSign(sign) {
			start = 6
		}
		return (start + part(0.75)) % 12, nil

	case 45: // Akshavedamsa: movable from Aries, fixed from Leo, dual from Sagittarius.
		return (qualityStart(sign, 0, 4, 8) + part(30.0 / 45)) % 12, nil

	case 60: // Shashtiamsa: counted from the sign itself.
		return (sign + part(0.5)) % 12, nil
	}
	return 0, fmt.Errorf("%w: D%d", ErrUnknownDivision, d)
}

func qualityStart(sign, movable, fixed, dual int) int {
	switch models.QualityOf(sign) {
	case models.Movable:
		return movable
	case models.Fixed:
		return fixed
	default:
		return dual
	}
}

// trimsamsa applies the unequal 5/5/8/7/5 arcs. Odd signs run
// Mars/Saturn/Jupiter/Mercury/Venus; even signs reverse the dignities.
func trimsamsa(sign int, degree float64) int {
	// Arc boundaries are whole degrees, exactly representable, so plain
	// comparisons put an exact boundary value in the part it starts.
	deg := degree
	if models.OddSign(sign) {
		switch {
		case deg < 5:
			return 0 // Aries (Mars)
		case deg < 10:
			return 10 // Aquarius (Saturn)
		case deg < 18:
			return 8 // Sagittarius (Jupiter)
		case deg < 25:
			return 2 // Gemini (Mercury)
		default:
			return 6 // Libra (Venus)
		}
	}
	switch {
	case deg < 5:
		return 1 // Taurus (Venus)
	case deg < 12:
		return 5 // Virgo (Mercury)
	case deg < 20:
		return 11 // Pisces (Jupiter)
	case deg < 25:
		return 9 // Capricorn (Saturn)
	default:
		return 7 // Scorpio (Mars)
	}
}

// partArc returns the equal-part arc width of division d, or 0 for the
// unequal D30 and the half-based D2.
func partArc(d int) float64 {
	switch d {
	case 1:
		return 30
	case 2, 30:
		return 0
	default:
		return 30.0 / float64(d)
	}
}

// Longitude maps a full sidereal longitude through division d, returning
// the divisional longitude (divisional sign + proportional degree).
func Longitude(longitude float64, d int) (float64, error) {
	lon := models.NormDeg(longitude)
	sign := int(lon / 30)
	degree := math.Mod(lon, 30)
	dsign, err := Sign(sign, degree, d)
	if err != nil {
		return 0, err
	}
	arc := partArc(d)
	if arc == 0 {
		// D2/D30: spread the source arc across the whole divisional sign.
		return float64(dsign)*30 + math.Mod(degree*float64(maxInt(d, 1)), 30), nil
	}
	frac := (degree - float64(partIndex(degree, arc))*arc) / arc
	if frac < 0 {
		frac = 0 // snapped onto the boundary the part starts at
	}
	return models.NormDeg(float64(dsign)*30 + frac*30), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Chart maps every body of a natal chart, plus its ascendant, through
// division d. Houses of the divisional chart are whole-sign from the
// divisional ascendant.
func Chart(natal *models.NatalChart, d int) (*models.DivisionalChart, error) {
	if !Supported(d) {
		return nil, fmt.Errorf("%w: D%d", ErrUnknownDivision, d)
	}
	ascLon, err := Longitude(natal.Ascendant, d)
	if err != nil {
		return nil, err
	}
	dc := &models.DivisionalChart{
		Division:  d,
		Ascendant: ascLon,
		AscSign:   int(ascLon / 30),
		Planets:   make(map[models.Body]models.Position, len(natal.Planets)),
	}
	for b, p := range natal.Planets {
		lon, err := Longitude(p.Longitude, d)
		if err != nil {
			return nil, err
		}
		dp := models.NewPosition(lon, p.Speed)
		dp.House = ((dp.Sign-dc.AscSign)%12+12)%12 + 1
		dc.Planets[b] = dp
	}
	return dc, nil
}
