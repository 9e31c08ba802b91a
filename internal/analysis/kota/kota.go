// Package kota maps the 28-nakshatra grid into the Kota Chakra fortress
// rings and resolves Sarvatobhadra vedha cells for transiting bodies.
package kota

import (
	"math"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// Ring names, outermost to innermost.
type Ring string

const (
	Bahya    Ring = "bahya"
	Prakaara Ring = "prakaara"
	Madhya   Ring = "madhya"
	Stambha  Ring = "stambha"
)

// Abhijit occupies the last quarter of Uttara Ashadha plus the opening
// fifteenth of Shravana, splitting the 27-fold zodiac into 28 cells.
const (
	abhijitStart = 276.0 + 40.0/60
	abhijitEnd   = 280.0 + 53.0/60 + 20.0/3600
	abhijitIndex = 21
)

// Names of the 28-nakshatra scheme.
var Names = [28]string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni",
	"Uttara Phalguni", "Hasta", "Chitra", "Swati", "Vishakha", "Anuradha",
	"Jyeshtha", "Mula", "Purva Ashadha", "Uttara Ashadha", "Abhijit",
	"Shravana", "Dhanishta", "Shatabhisha", "Purva Bhadrapada",
	"Uttara Bhadrapada", "Revati",
}

// Index28 maps a sidereal longitude onto the 28-fold scheme.
func Index28(lon float64) int {
	lon = models.NormDeg(lon)
	if lon >= abhijitStart && lon < abhijitEnd {
		return abhijitIndex
	}
	i27 := int(lon / (360.0 / 27))
	if i27 > 26 {
		i27 = 26
	}
	if i27 >= 21 { // Shravana onward shifts past Abhijit
		return i27 + 1
	}
	return i27
}

// Cell is a body's placement in the fortress.
type Cell struct {
	Nakshatra int    `json:"nakshatra"` // 28-fold index
	Name      string `json:"name"`
	Ring      Ring   `json:"ring"`
	Entering  bool   `json:"entering"` // approaching the stambha
}

// Place resolves the fortress cell of a nakshatra relative to the janma
// nakshatra. The serpentine path runs Bahya -> Prakaara -> Madhya ->
// Stambha then back out, seven cells per quadrant.
func Place(janma, nak int) Cell {
	off := ((nak-janma)%28 + 28) % 28
	var ring Ring
	var entering bool
	switch off % 7 {
	case 0:
		ring, entering = Bahya, true
	case 1:
		ring, entering = Prakaara, true
	case 2:
		ring, entering = Madhya, true
	case 3:
		ring, entering = Stambha, true
	case 4:
		ring, entering = Madhya, false
	case 5:
		ring, entering = Prakaara, false
	default:
		ring, entering = Bahya, false
	}
	return Cell{Nakshatra: nak, Name: Names[nak], Ring: ring, Entering: entering}
}

// Report maps each transit body onto its fortress cell.
func Report(janmaMoonLon float64, transits map[models.Body]models.Position) map[models.Body]Cell {
	janma := Index28(janmaMoonLon)
	out := make(map[models.Body]Cell, len(transits))
	for b, p := range transits {
		out[b] = Place(janma, Index28(p.Longitude))
	}
	return out
}

// MaleficInStambha reports whether any natural malefic sits in the
// innermost ring, the classical siege condition.
func MaleficInStambha(cells map[models.Body]Cell) []models.Body {
	var out []models.Body
	for b, c := range cells {
		if !b.IsBenefic() && c.Ring == Stambha {
			out = append(out, b)
		}
	}
	return out
}

// ── Sarvatobhadra ──

// VedhaDirection of a piercing.
type VedhaDirection string

const (
	VedhaFront VedhaDirection = "front"
	VedhaLeft  VedhaDirection = "left"
	VedhaRight VedhaDirection = "right"
)

// Vedha is one piercing of a target nakshatra by a transit body.
type Vedha struct {
	Target    int            `json:"target"` // 28-fold index
	Name      string         `json:"name"`
	Direction VedhaDirection `json:"direction"`
}

// sideOf splits the 28 border cells into four walls of seven.
func sideOf(nak int) (side, pos int) {
	return nak / 7, nak % 7
}

func cellAt(side, pos int) int {
	return ((side%4+4)%4)*7 + pos
}

// VedhaTargets lists the nakshatras pierced from a transit nakshatra.
// A prograde body pierces its front cell and the right flank; a
// retrograde body pierces front and the left flank. The front cell is
// the mirrored cell of the opposite wall.
func VedhaTargets(transitNak int, retrograde bool) []Vedha {
	side, pos := sideOf(transitNak)
	mk := func(n int, d VedhaDirection) Vedha {
		return Vedha{Target: n, Name: Names[n], Direction: d}
	}
	front := mk(cellAt(side+2, 6-pos), VedhaFront)
	if retrograde {
		return []Vedha{front, mk(cellAt(side+1, 6-pos), VedhaLeft)}
	}
	return []Vedha{front, mk(cellAt(side+3, 6-pos), VedhaRight)}
}

// Pierces reports whether a transit body at the given nakshatra casts
// vedha on the target nakshatra, and in which direction.
func Pierces(transitNak, targetNak int, retrograde bool) (VedhaDirection, bool) {
	for _, v := range VedhaTargets(transitNak, retrograde) {
		if v.Target == targetNak {
			return v.Direction, true
		}
	}
	return "", false
}

// NakshatraFraction returns how far a longitude has progressed through
// its 28-fold cell, for peak estimation.
func NakshatraFraction(lon float64) float64 {
	lon = models.NormDeg(lon)
	if lon >= abhijitStart && lon < abhijitEnd {
		return (lon - abhijitStart) / (abhijitEnd - abhijitStart)
	}
	arc := 360.0 / 27
	return math.Mod(lon, arc) / arc
}
