// Package transit sweeps time windows for aspect, conjunction and vedha
// activations of transiting bodies over a natal chart.
package transit

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/ashtakavarga"
	"github.com/saptarishi/jyotishai/internal/analysis/kota"
	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// DefaultTransitBodies are the bodies worth sweeping; the Moon moves too
// fast for multi-day steps and is excluded by default.
var DefaultTransitBodies = []models.Body{
	models.Sun, models.Mars, models.Mercury, models.Jupiter,
	models.Venus, models.Saturn, models.Rahu, models.Ketu,
}

// slowBodies trigger karmic-contact flags.
var slowBodies = map[models.Body]bool{
	models.Saturn: true, models.Jupiter: true, models.Rahu: true,
}

const karmicOrb = 3.0

// Filters narrows a scan.
type Filters struct {
	Bodies        []models.Body // transit bodies; nil = DefaultTransitBodies
	TargetBodies  []models.Body // natal targets; nil = all present
	TargetHouses  []int         // house targets; nil = none
	StepDays      int           // 0 = auto by window length
	FavorableOnly bool          // keep only "Good" windows after BAV override
	WithVedha     bool
}

// Scanner sweeps windows against one ephemeris engine.
type Scanner struct {
	eng ephemeris.Engine
}

func NewScanner(eng ephemeris.Engine) *Scanner {
	return &Scanner{eng: eng}
}

func stepFor(f Filters, start, end time.Time) int {
	if f.StepDays > 0 {
		return f.StepDays
	}
	if end.Sub(start) <= 370*24*time.Hour {
		return 1
	}
	return 7
}

// stateKey identifies one (transit, target, aspect) track.
type stateKey struct {
	transit models.Body
	body    models.Body
	isHouse bool
	house   int
	aspect  models.AspectType
}

// openState is an activation under construction.
type openState struct {
	act     models.Activation
	bestSep float64
}

func aspectName(offset int) models.AspectType {
	switch offset {
	case 1:
		return models.AspectConjunction
	case 3:
		return models.Aspect3rd
	case 4:
		return models.Aspect4th
	case 5:
		return models.Aspect5th
	case 7:
		return models.Aspect7th
	case 8:
		return models.Aspect8th
	case 9:
		return models.Aspect9th
	case 10:
		return models.Aspect10th
	}
	return models.AspectSign
}

// Scan sweeps [start, end] and emits activation periods. A cancelled
// context returns everything found so far with Partial set.
func (s *Scanner) Scan(ctx context.Context, natal *models.NatalChart, start, end time.Time, f Filters) (*models.ScanResult, error) {
	step := stepFor(f, start, end)
	res := &models.ScanResult{Start: start, End: end, StepDays: step}

	bodies := f.Bodies
	if bodies == nil {
		bodies = DefaultTransitBodies
	}
	targets := f.TargetBodies
	if targets == nil {
		for _, b := range models.Bodies {
			if natal.Has(b) {
				targets = append(targets, b)
			}
		}
	}

	av := ashtakavarga.Compute(natal)
	janma28 := -1
	if moon, ok := natal.Planets[models.Moon]; ok {
		janma28 = kota.Index28(moon.Longitude)
	}

	open := map[stateKey]*openState{}
	stepDur := time.Duration(step) * 24 * time.Hour

	closeAll := func(at time.Time) {
		for k, st := range open {
			st.act.End = at
			res.Activations = append(res.Activations, st.act)
			delete(open, k)
		}
	}

	for t := start; !t.After(end); t = t.Add(stepDur) {
		select {
		case <-ctx.Done():
			closeAll(t)
			res.Partial = true
			sortActivations(res.Activations)
			return res, nil
		default:
		}

		jd := ephemeris.JulianDay(t)
		active := map[stateKey]float64{} // key -> separation from exact

		for _, tb := range bodies {
			pos, err := s.eng.Position(tb, jd)
			if err != nil {
				return nil, err
			}
			transitHouse := natal.HouseOf(pos.Sign)

			for _, offset := range models.AspectOffsets(tb) {
				aspectedSign := (pos.Sign + offset - 1) % 12
				aspect := aspectName(offset)

				for _, nb := range targets {
					np, ok := natal.Planets[nb]
					if !ok || np.Sign != aspectedSign {
						continue
					}
					sep := math.Abs(pos.Degree - np.Degree)
					k := stateKey{transit: tb, body: nb, aspect: aspect}
					active[k] = sep
					st, isOpen := open[k]
					if !isOpen {
						st = s.openActivation(natal, av, tb, pos, transitHouse,
							models.TransitTarget{Body: ptr(nb)},
							aspect, aspectedSign, t, sep)
						open[k] = st
					}
					// Latches: a contact that tightens into orb at any
					// step during the window keeps the flag.
					if slowBodies[tb] && aspect == models.AspectConjunction &&
						models.AngularDistance(pos.Longitude, np.Longitude) <= karmicOrb {
						st.act.KarmicTrigger = true
					}
				}

				for _, h := range f.TargetHouses {
					if natal.SignOfHouse(h) != aspectedSign {
						continue
					}
					sep := math.Abs(pos.Degree - 15) // exact at mid-house
					k := stateKey{transit: tb, isHouse: true, house: h, aspect: aspect}
					active[k] = sep
					if _, isOpen := open[k]; !isOpen {
						open[k] = s.openActivation(natal, av, tb, pos, transitHouse,
							models.TransitTarget{House: h}, aspect, aspectedSign, t, sep)
					}
				}
			}

			if f.WithVedha && janma28 >= 0 {
				s.checkVedha(natal, tb, pos, janma28, t, active, open, av)
			}
		}

		// Close tracks that went inactive; refresh peaks on the rest.
		for k, st := range open {
			sep, still := active[k]
			if !still {
				st.act.End = t
				res.Activations = append(res.Activations, st.act)
				delete(open, k)
				continue
			}
			if sep < st.bestSep {
				st.bestSep = sep
				st.act.Peak = t
			}
		}
	}
	closeAll(end)

	if f.FavorableOnly {
		kept := res.Activations[:0]
		for _, a := range res.Activations {
			if a.Quality == "Good" {
				kept = append(kept, a)
			}
		}
		res.Activations = kept
	}
	sortActivations(res.Activations)
	return res, nil
}

func ptr(b models.Body) *models.Body { return &b }

func sortActivations(acts []models.Activation) {
	sort.Slice(acts, func(i, j int) bool {
		if !acts[i].Start.Equal(acts[j].Start) {
			return acts[i].Start.Before(acts[j].Start)
		}
		return acts[i].Transit < acts[j].Transit
	})
}

// openActivation seeds a new track with its BAV/SAV scores and quality.
func (s *Scanner) openActivation(natal *models.NatalChart, av ashtakavarga.Chart,
	tb models.Body, pos models.Position, transitHouse int,
	target models.TransitTarget, aspect models.AspectType,
	aspectedSign int, at time.Time, sep float64) *openState {

	act := models.Activation{
		Transit:      tb,
		Target:       target,
		Aspect:       aspect,
		Start:        at,
		Peak:         at,
		TransitHouse: transitHouse,
		NatalHouse:   natal.HouseOf(aspectedSign),
	}
	bav, hasBAV := av.PointsAt(tb, aspectedSign)
	sav := av.SAVAt(aspectedSign)
	if hasBAV {
		act.BAVPoints = bav
	}
	act.SAVPoints = sav
	act.Quality = qualityOf(tb, hasBAV, bav, sav)
	act.Strength = strengthOf(tb, bav, sav)
	return &openState{act: act, bestSep: sep}
}

// qualityOf applies the BAV override: a window is called "Good" only when
// the transiting body holds at least 3 bindus in the aspected sign and
// the sign's SAV is at least 25.
func qualityOf(tb models.Body, hasBAV bool, bav, sav int) string {
	switch {
	case hasBAV && bav >= 3 && sav >= 25:
		return "Good"
	case (hasBAV && bav >= 3) || sav >= 25:
		return "Average"
	default:
		if tb.IsBenefic() {
			return "Average"
		}
		return "Challenging"
	}
}

func strengthOf(tb models.Body, bav, sav int) float64 {
	s := 30 + float64(bav)*5 + float64(sav)
	if tb.IsBenefic() {
		s += 10
	}
	if s > 100 {
		s = 100
	}
	return s
}

// checkVedha opens vedha tracks for natal bodies pierced from the transit
// body's 28-fold nakshatra cell.
func (s *Scanner) checkVedha(natal *models.NatalChart, tb models.Body, pos models.Position,
	janma28 int, at time.Time, active map[stateKey]float64,
	open map[stateKey]*openState, av ashtakavarga.Chart) {

	t28 := kota.Index28(pos.Longitude)
	for nb, np := range natal.Planets {
		n28 := kota.Index28(np.Longitude)
		dir, hit := kota.Pierces(t28, n28, pos.Retrograde)
		if !hit {
			continue
		}
		k := stateKey{transit: tb, body: nb, aspect: models.AspectVedha}
		sep := math.Abs(kota.NakshatraFraction(pos.Longitude) - 0.5)
		active[k] = sep
		if _, isOpen := open[k]; !isOpen {
			st := s.openActivation(natal, av, tb, pos, natal.HouseOf(pos.Sign),
				models.TransitTarget{Body: ptr(nb)},
				models.AspectVedha, np.Sign, at, sep)
			st.act.VedhaDir = string(dir)
			open[k] = st
		}
	}
}

// DoubleTransit reports whether Jupiter and Saturn both influence the
// given natal house or its lord during overlapping activations. Used by
// marriage timing over the 7th.
func DoubleTransit(acts []models.Activation, natal *models.NatalChart, house int) []models.Activation {
	lord := models.SignLord(natal.SignOfHouse(house))
	influences := func(a models.Activation, b models.Body) bool {
		if a.Transit != b {
			return false
		}
		if a.Target.Body == nil {
			return a.Target.House == house
		}
		return *a.Target.Body == lord || a.NatalHouse == house
	}
	var jup, sat []models.Activation
	for _, a := range acts {
		if influences(a, models.Jupiter) {
			jup = append(jup, a)
		}
		if influences(a, models.Saturn) {
			sat = append(sat, a)
		}
	}
	var out []models.Activation
	for _, j := range jup {
		for _, s := range sat {
			if j.Start.Before(s.End) && s.Start.Before(j.End) {
				ov := j
				if s.Start.After(j.Start) {
					ov.Start = s.Start
				}
				if s.End.Before(j.End) {
					ov.End = s.End
				}
				ov.Label = "double transit"
				ov.Strength = math.Min(100, (j.Strength+s.Strength)/2+15)
				out = append(out, ov)
			}
		}
	}
	sortActivations(out)
	return out
}

// ApplyAgeFilter relabels marriage-timing windows falling before the
// subject turns minAge; they are kept but marked as a learning phase.
func ApplyAgeFilter(acts []models.Activation, birth time.Time, minAge int) []models.Activation {
	cutoff := birth.AddDate(minAge, 0, 0)
	out := make([]models.Activation, len(acts))
	for i, a := range acts {
		if a.Start.Before(cutoff) {
			a.Label = "learning phase"
		}
		out[i] = a
	}
	return out
}
