// Package dasha computes Vimshottari, Chara and Yogini dasha hierarchies.
package dasha

import (
	"errors"
	"math/big"
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/nakshatra"
	"github.com/saptarishi/jyotishai/pkg/models"
)

var (
	ErrNoMoon     = errors.New("dasha: chart has no moon position")
	ErrBeforeBirth = errors.New("dasha: moment precedes birth")
)

// A dasha year of 365.25 days, in seconds.
const yearSeconds = 365.25 * 86400

const totalVimshottariYears = 120

// ratSeconds builds an exact duration in seconds from years.
func ratSeconds(years *big.Rat) *big.Rat {
	return new(big.Rat).Mul(years, big.NewRat(yearSeconds, 1))
}

func addRatSeconds(t time.Time, sec *big.Rat) time.Time {
	// Split into whole seconds and nanosecond remainder so a 120-year
	// span stays exact.
	f := new(big.Rat).Set(sec)
	whole := new(big.Int).Quo(f.Num(), f.Denom())
	rem := new(big.Rat).Sub(f, new(big.Rat).SetInt(whole))
	nanos := new(big.Rat).Mul(rem, big.NewRat(1e9, 1))
	nWhole := new(big.Int).Quo(nanos.Num(), nanos.Denom())
	return t.Add(time.Duration(whole.Int64())*time.Second + time.Duration(nWhole.Int64()))
}

// vimshottariStart returns the notional start of the birth nakshatra's
// mahadasha: birth minus the elapsed fraction of the first lord's period.
func vimshottariStart(birth time.Time, moonLon float64) (time.Time, models.Body) {
	lord := nakshatra.Lord(nakshatra.Index(moonLon))
	frac := nakshatra.Fraction(moonLon)
	full := big.NewRat(int64(nakshatra.VimshottariYears[lord]), 1)
	elapsed := ratSeconds(new(big.Rat).Mul(full, floatRat(frac)))
	return addRatSeconds(birth, new(big.Rat).Neg(elapsed)), lord
}

// floatRat converts a fraction in [0,1) to an exact rational at
// nanosecond-scale resolution.
func floatRat(f float64) *big.Rat {
	const scale = 1e12
	return big.NewRat(int64(f*scale+0.5), int64(scale))
}

// VimshottariMahadashas lists mahadashas covering one full 120-year cycle
// from the notional start.
func VimshottariMahadashas(birth time.Time, moonLon float64) []models.DashaPeriod {
	start, firstLord := vimshottariStart(birth, moonLon)
	seq := nakshatra.LordSequenceFromBody(firstLord)
	out := make([]models.DashaPeriod, 0, len(seq))
	cursor := start
	elapsed := new(big.Rat)
	for _, lord := range seq {
		years := big.NewRat(int64(nakshatra.VimshottariYears[lord]), 1)
		elapsed.Add(elapsed, ratSeconds(years))
		end := addRatSeconds(start, elapsed)
		out = append(out, models.DashaPeriod{
			Ruler: lord, Level: models.Mahadasha, Start: cursor, End: end,
		})
		cursor = end
	}
	return out
}

// Subdivide splits a period into nine children proportional to each
// child lord's Vimshottari share, starting from the parent's own lord.
// Child boundaries are computed from the parent's start with exact
// rational offsets so the last child ends exactly at the parent's end.
func Subdivide(parent models.DashaPeriod) []models.DashaPeriod {
	seq := nakshatra.LordSequenceFromBody(parent.Ruler)
	span := new(big.Rat).SetInt64(int64(parent.End.Sub(parent.Start)))
	out := make([]models.DashaPeriod, 0, len(seq))
	cursor := parent.Start
	elapsed := new(big.Rat)
	for i, lord := range seq {
		share := big.NewRat(int64(nakshatra.VimshottariYears[lord]), totalVimshottariYears)
		elapsed.Add(elapsed, new(big.Rat).Mul(span, share))
		var end time.Time
		if i == len(seq)-1 {
			end = parent.End
		} else {
			off := new(big.Rat).Set(elapsed)
			whole := new(big.Int).Quo(off.Num(), off.Denom())
			end = parent.Start.Add(time.Duration(whole.Int64()))
		}
		out = append(out, models.DashaPeriod{
			Ruler: lord, Level: parent.Level + 1, Start: cursor, End: end,
		})
		cursor = end
	}
	return out
}

// ActiveVimshottari resolves the five active rulers at a moment.
func ActiveVimshottari(birth time.Time, moonLon float64, at time.Time) ([]models.DashaPeriod, error) {
	if at.Before(birth) {
		return nil, ErrBeforeBirth
	}
	levels := make([]models.DashaPeriod, 0, 5)
	periods := VimshottariMahadashas(birth, moonLon)
	for level := models.Mahadasha; level <= models.Prana; level++ {
		found := false
		for _, p := range periods {
			if p.Contains(at) {
				levels = append(levels, p)
				if level < models.Prana {
					periods = Subdivide(p)
				}
				found = true
				break
			}
		}
		if !found {
			return levels, nil // past the 120-year cycle at this depth
		}
	}
	return levels, nil
}

// VimshottariTimeline expands the tree to a requested depth for the
// periods overlapping [from, to].
func VimshottariTimeline(birth time.Time, moonLon float64, from, to time.Time, depth models.DashaLevel) []models.DashaPeriod {
	var out []models.DashaPeriod
	var walk func(periods []models.DashaPeriod)
	walk = func(periods []models.DashaPeriod) {
		for _, p := range periods {
			if p.End.Before(from) || p.Start.After(to) {
				continue
			}
			out = append(out, p)
			if p.Level < depth {
				walk(Subdivide(p))
			}
		}
	}
	walk(VimshottariMahadashas(birth, moonLon))
	return out
}
