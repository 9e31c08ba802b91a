package dasha

import (
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/nakshatra"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// yogini lords in cycle order; years equal position + 1, 36 in total.
var yoginiCycle = []struct {
	name  string
	ruler models.Body
}{
	{"Mangala", models.Moon},
	{"Pingala", models.Sun},
	{"Dhanya", models.Jupiter},
	{"Bhramari", models.Mars},
	{"Bhadrika", models.Mercury},
	{"Ulka", models.Saturn},
	{"Siddha", models.Venus},
	{"Sankata", models.Rahu},
}

const totalYoginiYears = 36

// yoginiSeed returns the cycle index active at birth: (nakshatra + 3) mod 8.
func yoginiSeed(moonLon float64) int {
	return (nakshatra.Index(moonLon) + 3) % 8
}

// YoginiMahadashas lists the periods of one full 36-year cycle plus the
// following cycle, anchored so the birth falls inside the first period
// at the elapsed nakshatra fraction.
func YoginiMahadashas(birth time.Time, moonLon float64) []models.YoginiPeriod {
	seed := yoginiSeed(moonLon)
	frac := nakshatra.Fraction(moonLon)

	firstYears := seed + 1
	elapsed := time.Duration(float64(firstYears) * frac * yearSeconds * float64(time.Second))
	cursor := birth.Add(-elapsed)

	// Two cycles cover 72 years, enough for any realistic query window.
	out := make([]models.YoginiPeriod, 0, 16)
	for i := 0; i < 16; i++ {
		idx := (seed + i) % 8
		y := yoginiCycle[idx]
		years := idx + 1
		end := cursor.Add(time.Duration(float64(years) * yearSeconds * float64(time.Second)))
		out = append(out, models.YoginiPeriod{
			Name: y.name, Ruler: y.ruler, Years: years, Start: cursor, End: end,
		})
		cursor = end
	}
	return out
}

// YoginiAntardashas splits a period into eight children proportional to
// each yogini's share of the 36-year cycle, starting from the parent.
func YoginiAntardashas(p models.YoginiPeriod) []models.YoginiPeriod {
	span := p.End.Sub(p.Start)
	seedIdx := p.Years - 1
	out := make([]models.YoginiPeriod, 0, 8)
	cursor := p.Start
	for i := 0; i < 8; i++ {
		idx := (seedIdx + i) % 8
		y := yoginiCycle[idx]
		end := cursor.Add(span * time.Duration(idx+1) / totalYoginiYears)
		if i == 7 {
			end = p.End
		}
		out = append(out, models.YoginiPeriod{
			Name: y.name, Ruler: y.ruler, Years: idx + 1, Start: cursor, End: end,
		})
		cursor = end
	}
	return out
}

// ActiveYogini resolves the active period and sub-period at a moment.
func ActiveYogini(birth time.Time, moonLon float64, at time.Time) (maha, antar *models.YoginiPeriod, err error) {
	if at.Before(birth) {
		return nil, nil, ErrBeforeBirth
	}
	for _, m := range YoginiMahadashas(birth, moonLon) {
		if !at.Before(m.Start) && at.Before(m.End) {
			mm := m
			for _, a := range YoginiAntardashas(m) {
				if !at.Before(a.Start) && at.Before(a.End) {
					aa := a
					return &mm, &aa, nil
				}
			}
			return &mm, nil, nil
		}
	}
	return nil, nil, nil
}
