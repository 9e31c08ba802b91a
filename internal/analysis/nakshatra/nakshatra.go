// Package nakshatra holds the 27-fold lunar mansion tables: names, Vimshottari
// lords and pada arithmetic.
package nakshatra

import (
	"math"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// Arc is the ecliptic width of one nakshatra in degrees.
const Arc = 360.0 / 27.0

// PadaArc is one quarter of a nakshatra.
const PadaArc = Arc / 4

// Names lists the 27 nakshatras in zodiacal order from Ashwini.
var Names = [27]string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni",
	"Uttara Phalguni", "Hasta", "Chitra", "Swati", "Vishakha", "Anuradha",
	"Jyeshtha", "Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana",
	"Dhanishta", "Shatabhisha", "Purva Bhadrapada", "Uttara Bhadrapada",
	"Revati",
}

// vimshottariSequence is the nine-fold lord cycle beginning with Ketu
// (lord of Ashwini).
var vimshottariSequence = [9]models.Body{
	models.Ketu, models.Venus, models.Sun, models.Moon, models.Mars,
	models.Rahu, models.Jupiter, models.Saturn, models.Mercury,
}

// VimshottariYears maps each dasha lord to its full period in years.
// The cycle totals 120 years.
var VimshottariYears = map[models.Body]int{
	models.Ketu: 7, models.Venus: 20, models.Sun: 6, models.Moon: 10,
	models.Mars: 7, models.Rahu: 18, models.Jupiter: 16, models.Saturn: 19,
	models.Mercury: 17,
}

// Index returns the nakshatra 0..26 containing a sidereal longitude.
func Index(longitude float64) int {
	return int(models.NormDeg(longitude)/Arc) % 27
}

// Pada returns the quarter 1..4 of the nakshatra at a longitude.
func Pada(longitude float64) int {
	return int(math.Mod(models.NormDeg(longitude), Arc)/PadaArc) + 1
}

// Name returns the name of nakshatra idx.
func Name(idx int) string {
	return Names[((idx%27)+27)%27]
}

// Lord returns the Vimshottari lord of nakshatra idx.
func Lord(idx int) models.Body {
	return vimshottariSequence[((idx%27)+27)%27%9]
}

// LordSequenceFrom returns the nine dasha lords beginning with the lord of
// nakshatra idx; the Vimshottari mahadasha order for a birth in idx.
func LordSequenceFrom(idx int) []models.Body {
	start := ((idx % 27) + 27) % 27 % 9
	out := make([]models.Body, 9)
	for i := 0; i < 9; i++ {
		out[i] = vimshottariSequence[(start+i)%9]
	}
	return out
}

// LordSequenceFromBody returns the nine dasha lords beginning with the
// given lord itself; the child order when subdividing that lord's period.
// The Vimshottari cycle has its own order, unrelated to the Body enum.
func LordSequenceFromBody(lord models.Body) []models.Body {
	start := 0
	for i, b := range vimshottariSequence {
		if b == lord {
			start = i
			break
		}
	}
	out := make([]models.Body, 9)
	for i := 0; i < 9; i++ {
		out[i] = vimshottariSequence[(start+i)%9]
	}
	return out
}

// Fraction returns how far a longitude has progressed through its
// nakshatra, in [0, 1).
func Fraction(longitude float64) float64 {
	return math.Mod(models.NormDeg(longitude), Arc) / Arc
}

// Gana classifies a nakshatra's temperament group (deva/manushya/rakshasa),
// used by compatibility scoring.
func Gana(idx int) string {
	deva := map[int]bool{0: true, 4: true, 6: true, 7: true, 12: true, 14: true, 16: true, 21: true, 26: true}
	manushya := map[int]bool{1: true, 3: true, 5: true, 10: true, 11: true, 19: true, 20: true, 24: true, 25: true}
	i := ((idx % 27) + 27) % 27
	switch {
	case deva[i]:
		return "deva"
	case manushya[i]:
		return "manushya"
	default:
		return "rakshasa"
	}
}
