// Package shadbala computes the classical six-fold strength of the seven
// visible grahas: Sthana, Dig, Kala, Chesta, Naisargika and Drik bala.
// All values are in shashtiamsas (60ths); totals divide by 60 into rupas.
package shadbala

import (
	"math"

	"github.com/saptarishi/jyotishai/internal/analysis/dignity"
	"github.com/saptarishi/jyotishai/internal/varga"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// Strength is the per-body six-fold breakdown.
type Strength struct {
	Body       models.Body `json:"body"`
	Sthana     float64     `json:"sthana"`
	Dig        float64     `json:"dig"`
	Kala       float64     `json:"kala"`
	Chesta     float64     `json:"chesta"`
	Naisargika float64     `json:"naisargika"`
	Drik       float64     `json:"drik"`
	Total      float64     `json:"total"`
	Rupas      float64     `json:"rupas"`
	Grade      string      `json:"grade"`
	Applicable bool        `json:"applicable"`
}

// Report maps each visible body to its strength. Missing bodies yield a
// well-formed not-applicable entry rather than an error.
type Report map[models.Body]Strength

// requiredRupas per Parashara, used for grading.
var requiredRupas = map[models.Body]float64{
	models.Sun: 6.5, models.Moon: 6.0, models.Mars: 5.0, models.Mercury: 7.0,
	models.Jupiter: 6.5, models.Venus: 5.5, models.Saturn: 5.0,
}

// naisargika fixed natural strengths.
var naisargika = map[models.Body]float64{
	models.Sun: 60, models.Moon: 51.43, models.Venus: 42.86,
	models.Jupiter: 34.29, models.Mercury: 25.71, models.Mars: 17.14,
	models.Saturn: 8.57,
}

// digHouse is the house of full directional strength per body.
var digHouse = map[models.Body]int{
	models.Sun: 10, models.Moon: 4, models.Mars: 10, models.Mercury: 1,
	models.Jupiter: 1, models.Venus: 4, models.Saturn: 7,
}

// meanDailyMotion in degrees for chesta computation.
var meanDailyMotion = map[models.Body]float64{
	models.Mars: 0.524, models.Mercury: 1.383, models.Jupiter: 0.083,
	models.Venus: 1.602, models.Saturn: 0.033,
}

// saptavarga divisions weighed in sthana bala.
var saptavargaDivisions = []int{1, 2, 3, 7, 9, 12, 30}

// Compute evaluates the full shadbala report for a natal chart. The chart's
// sunrise context is taken from its Gulika availability; day/night kala
// components fall back to half strength when sun data is incomplete.
func Compute(c *models.NatalChart) Report {
	rep := make(Report, len(models.VisibleBodies))
	for _, b := range models.VisibleBodies {
		p, ok := c.Planets[b]
		if !ok {
			rep[b] = Strength{Body: b, Applicable: false}
			continue
		}
		s := Strength{Body: b, Applicable: true}
		s.Sthana = sthanaBala(c, b, p)
		s.Dig = digBala(c, b, p)
		s.Kala = kalaBala(c, b, p)
		s.Chesta = chestaBala(c, b, p)
		s.Naisargika = naisargika[b]
		s.Drik = drikBala(c, b, p)
		s.Total = s.Sthana + s.Dig + s.Kala + s.Chesta + s.Naisargika + s.Drik
		s.Rupas = s.Total / 60
		s.Grade = gradeOf(b, s.Rupas)
		rep[b] = s
	}
	return rep
}

func gradeOf(b models.Body, rupas float64) string {
	req := requiredRupas[b]
	switch {
	case rupas >= req*1.25:
		return "Excellent"
	case rupas >= req:
		return "Good"
	case rupas >= req*0.75:
		return "Average"
	default:
		return "Weak"
	}
}

// ── Sthana ──

func sthanaBala(c *models.NatalChart, b models.Body, p models.Position) float64 {
	return ucchaBala(b, p) + saptavargajaBala(b, p) + ojhaYugmaBala(b, p) +
		kendraBala(c, p) + drekkanaBala(b, p)
}

// ucchaBala is proportional to the arc from the debilitation point:
// 60 at exact exaltation, 0 at exact debilitation.
func ucchaBala(b models.Body, p models.Position) float64 {
	arc := models.AngularDistance(p.Longitude, dignity.DebilitationPoint(b))
	return arc / 3
}

// saptavargajaBala sums dignity scores over the seven vargas.
func saptavargajaBala(b models.Body, p models.Position) float64 {
	var sum float64
	for _, d := range saptavargaDivisions {
		dsign, err := varga.Sign(p.Sign, p.Degree, d)
		if err != nil {
			continue
		}
		// Grade by placement of b in the divisional sign.
		sum += dignity.Score(dignity.Compound(b, models.SignLord(dsign), p.Sign, dsign)) / 4
		if dignity.IsOwn(b, dsign) {
			sum += 30.0 / 7
		}
	}
	return sum
}

// ojhaYugmaBala: Moon and Venus gain in even signs; the rest in odd signs.
// 15 points each for rasi and navamsa placement matching.
func ojhaYugmaBala(b models.Body, p models.Position) float64 {
	femalePlanet := b == models.Moon || b == models.Venus
	var sum float64
	if models.OddSign(p.Sign) != femalePlanet {
		sum += 15
	}
	if nav, err := varga.Sign(p.Sign, p.Degree, 9); err == nil {
		if models.OddSign(nav) != femalePlanet {
			sum += 15
		}
	}
	return sum
}

// kendraBala: 60 angular, 30 succedent, 15 cadent.
func kendraBala(c *models.NatalChart, p models.Position) float64 {
	switch h := c.HouseOf(p.Sign); h {
	case 1, 4, 7, 10:
		return 60
	case 2, 5, 8, 11:
		return 30
	default:
		return 15
	}
}

// drekkanaBala: male planets in the first drekkana, neutral in the second,
// female in the third gain 15.
func drekkanaBala(b models.Body, p models.Position) float64 {
	part := int((p.Degree + 1e-9) / 10)
	switch b {
	case models.Sun, models.Mars, models.Jupiter:
		if part == 0 {
			return 15
		}
	case models.Saturn, models.Mercury:
		if part == 1 {
			return 15
		}
	case models.Moon, models.Venus:
		if part == 2 {
			return 15
		}
	}
	return 0
}

// ── Dig ──

// digBala tapers linearly from 60 at the body's power house to 0 opposite.
func digBala(c *models.NatalChart, b models.Body, p models.Position) float64 {
	target := digHouse[b]
	dist := ((c.HouseOf(p.Sign) - target) % 12 + 12) % 12
	if dist > 6 {
		dist = 12 - dist
	}
	return 60 * (1 - float64(dist)/6)
}

// ── Kala ──

// kalaBala sums natonnata, paksha, tribhaga and ayana components. The
// abda/masa/vara/hora lords contribute a flat share; their full temporal
// resolution adds little discrimination at this precision.
func kalaBala(c *models.NatalChart, b models.Body, p models.Position) float64 {
	sun, haveSun := c.Planets[models.Sun]
	moon, haveMoon := c.Planets[models.Moon]

	var sum float64

	// Natonnata: diurnal planets gain by day, nocturnal by night; Mercury
	// always 60. Day is approximated by the Sun above the horizon: houses
	// 7..12 of the whole-sign frame hold the western/upper hemisphere.
	if b == models.Mercury {
		sum += 60
	} else if haveSun {
		day := sun.House >= 7 && sun.House <= 12
		diurnal := b == models.Sun || b == models.Jupiter || b == models.Venus
		if day == diurnal {
			sum += 60
		}
	} else {
		sum += 30
	}

	// Paksha: benefics gain with the waxing moon, malefics with waning.
	if haveSun && haveMoon {
		phase := models.NormDeg(moon.Longitude - sun.Longitude)
		waxing := phase < 180
		pakshaStrength := phase / 3
		if !waxing {
			pakshaStrength = (360 - phase) / 3
		}
		if b.IsBenefic() {
			sum += pakshaStrength
		} else {
			sum += 60 - pakshaStrength
		}
		if b == models.Moon {
			// The Moon counts paksha at double weight.
			sum += pakshaStrength
		}
	} else {
		sum += 30
	}

	// Tribhaga: Jupiter always gains; day thirds belong to Mercury/Sun/Saturn,
	// night thirds to Moon/Venus/Mars. Without exact sunrise context the
	// day-third is derived from the Sun's house octant.
	if b == models.Jupiter {
		sum += 60
	} else if haveSun {
		third := ((sun.House - 1) / 4) % 3
		dayLords := [3]models.Body{models.Mercury, models.Sun, models.Saturn}
		nightLords := [3]models.Body{models.Moon, models.Venus, models.Mars}
		if dayLords[third] == b || nightLords[third] == b {
			sum += 60
		}
	}

	// Ayana: by declination affinity — northern-course gainers when in
	// Capricorn..Gemini half (signs 9..11, 0..2).
	north := p.Sign >= 9 || p.Sign <= 2
	switch b {
	case models.Sun, models.Mars, models.Jupiter, models.Venus:
		if north {
			sum += 30
		}
	case models.Moon, models.Saturn:
		if !north {
			sum += 30
		}
	case models.Mercury:
		sum += 30
	}

	return sum
}

// ── Chesta ──

// chestaBala: Sun fixed at 60 (its ayana is its chesta); Moon from phase
// distance; the five tara grahas from actual motion vs mean motion, with
// retrogression granting full strength.
func chestaBala(c *models.NatalChart, b models.Body, p models.Position) float64 {
	switch b {
	case models.Sun:
		return 60
	case models.Moon:
		sun, ok := c.Planets[models.Sun]
		if !ok {
			return 30
		}
		return models.AngularDistance(p.Longitude, sun.Longitude) / 3
	default:
		if p.Retrograde {
			return 60
		}
		mean := meanDailyMotion[b]
		if mean == 0 {
			return 30
		}
		ratio := math.Abs(p.Speed) / mean
		if ratio > 2 {
			ratio = 2
		}
		return 30 * ratio
	}
}

// ── Drik ──

// aspectFraction returns the classical sputa-drishti fraction a body casts
// at an inclusive house distance.
func aspectFraction(b models.Body, houseDist int) float64 {
	full := map[int]bool{7: true}
	for _, o := range models.SpecialAspects(b) {
		full[o] = true
	}
	if full[houseDist] {
		return 1
	}
	switch houseDist {
	case 3, 10:
		return 0.25
	case 5, 9:
		return 0.5
	case 4, 8:
		return 0.75
	default:
		return 0
	}
}

// drikBala sums aspect strength received from every other visible body,
// positive from benefics and negative from malefics, clamped to ±30.
func drikBala(c *models.NatalChart, b models.Body, p models.Position) float64 {
	var sum float64
	for _, other := range models.VisibleBodies {
		if other == b {
			continue
		}
		op, ok := c.Planets[other]
		if !ok {
			continue
		}
		dist := ((p.Sign-op.Sign)%12+12)%12 + 1
		frac := aspectFraction(other, dist)
		if frac == 0 {
			continue
		}
		if other.IsBenefic() {
			sum += frac * 15
		} else {
			sum -= frac * 15
		}
	}
	if sum > 30 {
		sum = 30
	}
	if sum < -30 {
		sum = -30
	}
	return sum
}
