package panchang

import (
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/nakshatra"
	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// NakshatraTimeline walks the Moon across every nakshatra boundary in
// [from, to] and returns the ordered periods. Boundaries are found by
// one-hour bracketing followed by bisection to roughly one minute.
// Crossings that would break the N -> N+1 sequence are rejected.
func (s *Service) NakshatraTimeline(from, to time.Time, loc *time.Location) ([]models.LimbPeriod, error) {
	if loc == nil {
		loc = time.UTC
	}
	jd := ephemeris.JulianDay(from.UTC())
	jdEnd := ephemeris.JulianDay(to.UTC())

	moon, err := s.eng.Position(models.Moon, jd)
	if err != nil {
		return nil, err
	}
	cur := nakshatra.Index(moon.Longitude)

	var out []models.LimbPeriod
	periodStart := from

	const hour = 1.0 / 24
	for t := jd; t < jdEnd; {
		// Bracket the next boundary hour by hour.
		next := t + hour
		if next > jdEnd {
			next = jdEnd
		}
		m, err := s.eng.Position(models.Moon, next)
		if err != nil {
			return nil, err
		}
		idx := nakshatra.Index(m.Longitude)
		if idx == cur {
			t = next
			continue
		}

		// Order enforcement: only the immediate successor is accepted.
		// Anything else is a sampling artifact; halve the step instead.
		if idx != (cur+1)%27 {
			if next-t < 1.0/(24*3600) {
				return nil, errOutOfOrder(cur, idx)
			}
			// Re-bracket at finer granularity around t.
			crossing, err := s.bisectNakshatra(t, next, cur)
			if err != nil {
				return nil, err
			}
			next = crossing
			idx = (cur + 1) % 27
		} else {
			crossing, err := s.bisectNakshatra(t, next, cur)
			if err != nil {
				return nil, err
			}
			next = crossing
		}

		boundary := ephemeris.JDToTime(next).In(loc)
		out = append(out, models.LimbPeriod{
			Index: cur, Name: nakshatra.Names[cur], Start: periodStart, End: boundary,
		})
		periodStart = boundary
		cur = idx
		t = next
	}
	out = append(out, models.LimbPeriod{
		Index: cur, Name: nakshatra.Names[cur], Start: periodStart, End: to.In(loc),
	})
	return out, nil
}

// bisectNakshatra narrows the crossing out of nakshatra cur within
// (lo, hi) using thirty halvings, about one-minute precision on an
// hour-wide bracket.
func (s *Service) bisectNakshatra(lo, hi float64, cur int) (float64, error) {
	for i := 0; i < 30; i++ {
		mid := (lo + hi) / 2
		m, err := s.eng.Position(models.Moon, mid)
		if err != nil {
			return 0, err
		}
		if nakshatra.Index(m.Longitude) == cur {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, nil
}

type outOfOrderError struct {
	from, to int
}

func errOutOfOrder(from, to int) error {
	return &outOfOrderError{from: from, to: to}
}

func (e *outOfOrderError) Error() string {
	return "panchang: non-sequential nakshatra crossing " +
		nakshatra.Names[e.from] + " -> " + nakshatra.Names[e.to]
}
