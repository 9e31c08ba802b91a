// Package panchang derives the five limbs of the Hindu almanac plus
// choghadiya, hora and muhurta windows for a civil date and place.
package panchang

import (
	"errors"
	"fmt"
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/nakshatra"
	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/pkg/models"
)

var ErrBadDate = errors.New("panchang: date must be YYYY-MM-DD")

// Service computes panchang quantities against one ephemeris engine.
type Service struct {
	eng ephemeris.Engine
}

func New(eng ephemeris.Engine) *Service {
	return &Service{eng: eng}
}

// ── Limb names ──

var tithiNames = [30]string{
	"Pratipada", "Dwitiya", "Tritiya", "Chaturthi", "Panchami", "Shashthi",
	"Saptami", "Ashtami", "Navami", "Dashami", "Ekadashi", "Dwadashi",
	"Trayodashi", "Chaturdashi", "Purnima",
	"Pratipada", "Dwitiya", "Tritiya", "Chaturthi", "Panchami", "Shashthi",
	"Saptami", "Ashtami", "Navami", "Dashami", "Ekadashi", "Dwadashi",
	"Trayodashi", "Chaturdashi", "Amavasya",
}

var yogaNames = [27]string{
	"Vishkambha", "Priti", "Ayushman", "Saubhagya", "Shobhana", "Atiganda",
	"Sukarma", "Dhriti", "Shula", "Ganda", "Vriddhi", "Dhruva", "Vyaghata",
	"Harshana", "Vajra", "Siddhi", "Vyatipata", "Variyana", "Parigha",
	"Shiva", "Siddha", "Sadhya", "Shubha", "Shukla", "Brahma", "Indra",
	"Vaidhriti",
}

// Seven movable karanas cycle eight times between the four fixed ones.
var movableKaranas = [7]string{
	"Bava", "Balava", "Kaulava", "Taitila", "Gara", "Vanija", "Vishti",
}

var varaNames = [7]string{
	"Ravivar", "Somvar", "Mangalvar", "Budhvar", "Guruvar", "Shukravar", "Shanivar",
}

func karanaName(idx int) string {
	// idx 0..59 over a lunar month. The first half-tithi is Kimstughna,
	// the last three are Shakuni, Chatushpada and Naga.
	switch idx {
	case 0:
		return "Kimstughna"
	case 57:
		return "Shakuni"
	case 58:
		return "Chatushpada"
	case 59:
		return "Naga"
	}
	return movableKaranas[(idx-1)%7]
}

// ── Angles ──

// limbAngle returns the underlying angle of a limb at a JD, in degrees.
func (s *Service) limbAngle(kind string, jd float64) (float64, error) {
	sun, err := s.eng.Position(models.Sun, jd)
	if err != nil {
		return 0, err
	}
	switch kind {
	case "tithi", "karana":
		moon, err := s.eng.Position(models.Moon, jd)
		if err != nil {
			return 0, err
		}
		return models.NormDeg(moon.Longitude - sun.Longitude), nil
	case "yoga":
		moon, err := s.eng.Position(models.Moon, jd)
		if err != nil {
			return 0, err
		}
		return models.NormDeg(moon.Longitude + sun.Longitude), nil
	case "nakshatra":
		moon, err := s.eng.Position(models.Moon, jd)
		if err != nil {
			return 0, err
		}
		return moon.Longitude, nil
	}
	return 0, fmt.Errorf("panchang: unknown limb %q", kind)
}

func limbArc(kind string) float64 {
	switch kind {
	case "tithi":
		return 12
	case "karana":
		return 6
	default:
		return 360.0 / 27
	}
}

// crossing locates the moment the limb angle passes the given boundary,
// by bisection between two JDs that bracket it.
func (s *Service) crossing(kind string, boundary, jdLo, jdHi float64) (float64, error) {
	for i := 0; i < 40; i++ {
		mid := (jdLo + jdHi) / 2
		a, err := s.limbAngle(kind, mid)
		if err != nil {
			return 0, err
		}
		// Signed offset from the boundary, wrapped to (-180, 180].
		off := models.NormDeg(a - boundary)
		if off > 180 {
			off -= 360
		}
		if off >= 0 {
			jdHi = mid
		} else {
			jdLo = mid
		}
	}
	return (jdLo + jdHi) / 2, nil
}

// limbAt resolves the limb holding at jd along with its boundary times.
func (s *Service) limbAt(kind string, jd float64, loc *time.Location) (models.LimbPeriod, error) {
	angle, err := s.limbAngle(kind, jd)
	if err != nil {
		return models.LimbPeriod{}, err
	}
	arc := limbArc(kind)
	idx := int(angle / arc)

	lower := float64(idx) * arc
	upper := lower + arc

	// Bracket the start: walk back until the angle falls below the lower
	// boundary. Tithi angles advance ~12 deg/day so two days suffice.
	startLo := jd - 2.5
	start, err := s.crossing(kind, lower, startLo, jd)
	if err != nil {
		return models.LimbPeriod{}, err
	}
	end, err := s.crossing(kind, models.NormDeg(upper), jd, jd+2.5)
	if err != nil {
		return models.LimbPeriod{}, err
	}

	p := models.LimbPeriod{
		Index: idx,
		Start: ephemeris.JDToTime(start).In(loc),
		End:   ephemeris.JDToTime(end).In(loc),
	}
	switch kind {
	case "tithi":
		p.Index = idx + 1 // tithis count 1..30
		p.Name = tithiNames[idx]
	case "nakshatra":
		p.Name = nakshatra.Names[idx%27]
	case "yoga":
		p.Name = yogaNames[idx%27]
	case "karana":
		p.Name = karanaName(idx)
	}
	return p, nil
}

// Compute builds the full panchang for a civil date at a location.
// The day is anchored at local sunrise per almanac convention.
func (s *Service) Compute(date string, lat, lon float64, tzOffsetMin int) (*models.Panchang, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, ErrBadDate
	}
	loc := time.FixedZone("local", tzOffsetMin*60)
	localMidnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	jd0 := ephemeris.JulianDay(localMidnight.UTC())

	riseJD, setJD, err := s.eng.SunRiseSet(jd0, lat, lon)
	if err != nil {
		return nil, err
	}
	sunrise := ephemeris.JDToTime(riseJD).In(loc)
	sunset := ephemeris.JDToTime(setJD).In(loc)

	p := &models.Panchang{
		Date: date, Lat: lat, Lon: lon, TZOffset: tzOffsetMin,
		Sunrise: sunrise, Sunset: sunset,
		Vara: varaNames[int(riseJD+1.5)%7],
	}
	for _, kind := range []string{"tithi", "nakshatra", "yoga", "karana"} {
		limb, err := s.limbAt(kind, riseJD, loc)
		if err != nil {
			return nil, err
		}
		switch kind {
		case "tithi":
			p.Tithi = limb
		case "nakshatra":
			p.Nakshatra = limb
		case "yoga":
			p.Yoga = limb
		case "karana":
			p.Karana = limb
		}
	}
	return p, nil
}
