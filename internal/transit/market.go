package transit

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/dignity"
	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/pkg/models"
)

var ErrUnknownSector = errors.New("transit: unknown market sector")

// Sector significations: each market sector answers to one karaka planet.
var sectorRulers = map[string]models.Body{
	"banking":     models.Jupiter,
	"technology":  models.Mercury,
	"energy":      models.Sun,
	"metals":      models.Saturn,
	"realty":      models.Mars,
	"pharma":      models.Moon,
	"automobiles": models.Venus,
	"media":       models.Rahu,
}

// Sectors lists the supported sector names, sorted.
func Sectors() []string {
	out := make([]string, 0, len(sectorRulers))
	for s := range sectorRulers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// MarketForecast derives bullish/bearish windows for a sector over
// [start, end] from the dignity the sector's ruler holds while
// transiting, reinforced or undercut by Jupiter and Saturn aspects onto
// it. This is a mundane scan: no natal chart is involved.
func (s *Scanner) MarketForecast(ctx context.Context, sector string, start, end time.Time) ([]models.MarketPeriod, error) {
	ruler, ok := sectorRulers[sector]
	if !ok {
		return nil, ErrUnknownSector
	}

	const stepDays = 7
	step := stepDays * 24 * time.Hour

	type state struct {
		trend     string
		start     time.Time
		intensity float64
		reason    string
		samples   int
	}
	var cur *state
	var out []models.MarketPeriod

	flush := func(at time.Time) {
		if cur == nil {
			return
		}
		out = append(out, models.MarketPeriod{
			Sector: sector, Ruler: ruler,
			Start: cur.start, End: at,
			Trend:     cur.trend,
			Intensity: cur.intensity / float64(cur.samples),
			Reason:    cur.reason,
		})
		cur = nil
	}

	for t := start; !t.After(end); t = t.Add(step) {
		select {
		case <-ctx.Done():
			flush(t)
			return out, ctx.Err()
		default:
		}
		jd := ephemeris.JulianDay(t)
		trend, intensity, reason, err := s.sectorTrendAt(ruler, jd)
		if err != nil {
			return nil, err
		}
		if cur != nil && cur.trend != trend {
			flush(t)
		}
		if cur == nil {
			cur = &state{trend: trend, start: t, reason: reason}
		}
		cur.intensity += intensity
		cur.samples++
	}
	flush(end)
	return out, nil
}

// sectorTrendAt scores one moment: the ruler in a friendly or exalted
// sign leans bullish, afflicted by Saturn leans bearish, supported by
// Jupiter strengthens either way.
func (s *Scanner) sectorTrendAt(ruler models.Body, jd float64) (trend string, intensity float64, reason string, err error) {
	rp, err := s.eng.Position(ruler, jd)
	if err != nil {
		return "", 0, "", err
	}
	score := signAffinity(ruler, rp.Sign)
	reason = "ruler placement"

	if ruler != models.Jupiter {
		jp, err := s.eng.Position(models.Jupiter, jd)
		if err != nil {
			return "", 0, "", err
		}
		if aspectsSign(models.Jupiter, jp.Sign, rp.Sign) {
			score += 0.3
			reason = "jupiter support"
		}
	}
	if ruler != models.Saturn {
		sp, err := s.eng.Position(models.Saturn, jd)
		if err != nil {
			return "", 0, "", err
		}
		if aspectsSign(models.Saturn, sp.Sign, rp.Sign) {
			score -= 0.35
			reason = "saturn pressure"
		}
	}
	if rp.Retrograde {
		score -= 0.15
	}

	if score >= 0 {
		return "bullish", clamp01(0.5 + score), reason, nil
	}
	return "bearish", clamp01(0.5 - score), reason, nil
}

// signAffinity scores a body's comfort in a sign on a -0.5..0.5 scale.
func signAffinity(b models.Body, sign int) float64 {
	if b.IsNode() {
		return 0
	}
	lord := models.SignLord(sign)
	if lord == b {
		return 0.4
	}
	switch dignity.Natural(b, lord) {
	case dignity.RelFriend:
		return 0.2
	case dignity.RelEnemy:
		return -0.3
	}
	return 0
}

// aspectsSign reports whether a body standing in fromSign casts any of
// its aspects onto toSign.
func aspectsSign(b models.Body, fromSign, toSign int) bool {
	d := ((toSign-fromSign)%12+12)%12 + 1
	for _, o := range models.AspectOffsets(b) {
		if o == d {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
