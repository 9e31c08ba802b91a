// Package chart computes natal charts: sidereal ascendant, whole-sign
// houses, the nine graha positions and the upagraha points Gulika and Mandi.
package chart

import (
	"fmt"
	"math"
	"time"

	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// Compute derives the full natal chart for a validated birth coordinate.
// Identical inputs yield bit-identical output; cache keys depend on this.
func Compute(eng ephemeris.Engine, birth models.BirthData) (*models.NatalChart, error) {
	if err := birth.Validate(); err != nil {
		return nil, err
	}

	ut := birth.UTC()
	jd := ephemeris.JulianDay(ut)

	ayan := eng.Ayanamsa(jd)
	ascTropical := ephemeris.TropicalAscendant(jd, birth.Lat, birth.Lon)
	asc := models.NormDeg(ascTropical - ayan)
	ascSign := int(asc / 30)

	c := &models.NatalChart{
		Birth:     birth,
		JulianDay: jd,
		Ayanamsa:  ayan,
		Ascendant: asc,
		AscSign:   ascSign,
		Planets:   make(map[models.Body]models.Position, len(models.Bodies)),
	}

	for i := 0; i < 12; i++ {
		sign := (ascSign + i) % 12
		c.Houses[i] = models.HouseCusp{
			House:     i + 1,
			Sign:      sign,
			Longitude: float64(sign) * 30,
		}
	}

	for _, b := range models.Bodies {
		pos, err := eng.Position(b, jd)
		if err != nil {
			return nil, fmt.Errorf("chart: %v: %w", b, err)
		}
		pos.House = c.HouseOf(pos.Sign)
		c.Planets[b] = pos
	}

	if g, m, err := upagrahas(eng, birth, jd); err == nil {
		c.Gulika = &g
		c.Mandi = &m
	}

	return c, nil
}

// upagrahas computes the Gulika and Mandi longitudes from the eight-fold
// division of the day (or night) arc. Each octant is ruled in weekday-lord
// order; Saturn's octant yields the upagrahas: the lagna rising at the
// octant's start is Gulika, at its middle Mandi (Brihat Parashara 3.61-67).
func upagrahas(eng ephemeris.Engine, birth models.BirthData, birthJD float64) (gulika, mandi float64, err error) {
	tz := time.Duration(*birth.TZOffset) * time.Minute
	d, _ := time.Parse("2006-01-02", birth.Date)
	localMidnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Add(-tz)
	jd0 := ephemeris.JulianDay(localMidnight)

	rise, set, err := eng.SunRiseSet(jd0, birth.Lat, birth.Lon)
	if err != nil {
		return 0, 0, err
	}

	weekday := int(ephemeris.JDToTime(rise).Add(tz).Weekday()) // 0=Sunday
	var segStart, segLen float64
	var saturnOctant int
	if birthJD >= rise && birthJD < set {
		// Saturn octant by weekday for day births: Sun..Sat → 6,5,4,3,2,1,0.
		saturnOctant = (6 - weekday + 7) % 7
		segLen = (set - rise) / 8
		segStart = rise + float64(saturnOctant)*segLen
	} else {
		// Night arc runs sunset to next sunrise; octant lords continue from
		// the fifth lord of the weekday.
		nightRise, nightSet := set, rise
		if birthJD < rise {
			// Born before sunrise: the vedic day is the previous one.
			prevRise, prevSet, perr := eng.SunRiseSet(jd0-1, birth.Lat, birth.Lon)
			if perr != nil {
				return 0, 0, perr
			}
			weekday = int(ephemeris.JDToTime(prevRise).Add(tz).Weekday())
			nightRise, nightSet = prevSet, rise
		} else {
			nextRise, _, nerr := eng.SunRiseSet(jd0+1, birth.Lat, birth.Lon)
			if nerr != nil {
				return 0, 0, nerr
			}
			nightSet = nextRise
		}
		saturnOctant = (2 - weekday%7 + 7) % 7
		segLen = (nightSet - nightRise) / 8
		segStart = nightRise + float64(saturnOctant)*segLen
	}

	ayan := eng.Ayanamsa(segStart)
	gulika = models.NormDeg(ephemeris.TropicalAscendant(segStart, birth.Lat, birth.Lon) - ayan)
	mid := segStart + segLen/2
	mandi = models.NormDeg(ephemeris.TropicalAscendant(mid, birth.Lat, birth.Lon) - eng.Ayanamsa(mid))
	return gulika, mandi, nil
}

// DegreesInSign returns how far a body has traversed its current sign.
func DegreesInSign(p models.Position) float64 {
	return math.Mod(models.NormDeg(p.Longitude), 30)
}
