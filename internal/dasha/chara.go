package dasha

import (
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/jaimini"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// charaYears returns the dasha years of a sign: the count from the sign
// to its lord's sign, exclusive, counted zodiacally for odd signs and
// reverse for even signs. A lord at home grants the full twelve.
func charaYears(c *models.NatalChart, sign int) (int, bool) {
	lord := models.SignLord(sign)
	lp, ok := c.Planets[lord]
	if !ok {
		return 0, false
	}
	if lp.Sign == sign {
		return 12, true
	}
	var d int
	if models.OddSign(sign) {
		d = ((lp.Sign - sign) % 12 + 12) % 12
	} else {
		d = ((sign - lp.Sign) % 12 + 12) % 12
	}
	return d, true
}

// charaSeed picks the first dasha sign from the atmakaraka's sign by its
// quality: movable signs open on themselves, fixed on the ninth from
// them, dual on the fifth.
func charaSeed(akSign int) int {
	switch models.QualityOf(akSign) {
	case models.Movable:
		return akSign
	case models.Fixed:
		return (akSign + 8) % 12
	default:
		return (akSign + 4) % 12
	}
}

// CharaMahadashas lists the twelve sign periods of the first cycle.
// Signs whose lord is missing from the chart are skipped.
func CharaMahadashas(c *models.NatalChart, birth time.Time) ([]models.CharaPeriod, error) {
	ak, ok := jaimini.Atma(c, false)
	if !ok {
		return nil, ErrNoMoon
	}
	akSign := c.Planets[ak].Sign
	seed := charaSeed(akSign)

	// Direction follows the seed sign's parity.
	step := 1
	if !models.OddSign(seed) {
		step = -1
	}

	out := make([]models.CharaPeriod, 0, 12)
	cursor := birth
	for i := 0; i < 12; i++ {
		sign := ((seed+i*step)%12 + 12) % 12
		years, ok := charaYears(c, sign)
		if !ok {
			continue
		}
		end := cursor.AddDate(years, 0, 0)
		out = append(out, models.CharaPeriod{
			Sign: sign, SignName: models.SignName(sign),
			Years: years, Start: cursor, End: end,
		})
		cursor = end
	}
	return out, nil
}

// CharaAntardashas splits a sign period into twelve equal sub-signs
// running zodiacally from the sign itself.
func CharaAntardashas(p models.CharaPeriod) []models.CharaPeriod {
	span := p.End.Sub(p.Start) / 12
	out := make([]models.CharaPeriod, 0, 12)
	cursor := p.Start
	for i := 0; i < 12; i++ {
		sign := (p.Sign + i) % 12
		end := cursor.Add(span)
		if i == 11 {
			end = p.End
		}
		out = append(out, models.CharaPeriod{
			Sign: sign, SignName: models.SignName(sign),
			Years: p.Years, Start: cursor, End: end,
		})
		cursor = end
	}
	return out
}

// ActiveChara resolves the active sign period and sub-period at a moment.
func ActiveChara(c *models.NatalChart, birth, at time.Time) (maha, antar *models.CharaPeriod, err error) {
	if at.Before(birth) {
		return nil, nil, ErrBeforeBirth
	}
	mahas, err := CharaMahadashas(c, birth)
	if err != nil {
		return nil, nil, err
	}
	for i := range mahas {
		m := mahas[i]
		if !at.Before(m.Start) && at.Before(m.End) {
			for _, a := range CharaAntardashas(m) {
				if !at.Before(a.Start) && at.Before(a.End) {
					sub := a
					return &m, &sub, nil
				}
			}
			return &m, nil, nil
		}
	}
	return nil, nil, nil
}
