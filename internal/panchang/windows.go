package panchang

import (
	"time"

	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// The planetary-hour cycle shared by choghadiya and hora, opening at the
// weekday lord.
var hourCycle = [7]models.Body{
	models.Sun, models.Venus, models.Mercury, models.Moon,
	models.Saturn, models.Jupiter, models.Mars,
}

// weekday lords indexed Sunday..Saturday.
var weekdayLord = [7]models.Body{
	models.Sun, models.Moon, models.Mars, models.Mercury,
	models.Jupiter, models.Venus, models.Saturn,
}

var choghadiyaNames = map[models.Body]string{
	models.Sun:     "Udveg",
	models.Venus:   "Char",
	models.Mercury: "Labh",
	models.Moon:    "Amrit",
	models.Saturn:  "Kaal",
	models.Jupiter: "Shubh",
	models.Mars:    "Rog",
}

var choghadiyaSuitability = map[string]string{
	"Amrit": "auspicious",
	"Shubh": "auspicious",
	"Labh":  "auspicious",
	"Char":  "neutral",
	"Udveg": "inauspicious",
	"Kaal":  "inauspicious",
	"Rog":   "inauspicious",
}

func cycleIndexOf(b models.Body) int {
	for i, c := range hourCycle {
		if c == b {
			return i
		}
	}
	return 0
}

// splitArc cuts [start, end) into n equal windows.
func splitArc(start, end time.Time, n int) []time.Time {
	span := end.Sub(start)
	out := make([]time.Time, n+1)
	for i := 0; i <= n; i++ {
		out[i] = start.Add(span * time.Duration(i) / time.Duration(n))
	}
	return out
}

// Choghadiya computes the eight day and eight night windows. The day
// sequence opens at the weekday lord; the night sequence continues the
// same rotation. nextSunrise bounds the night arc.
func Choghadiya(weekday time.Weekday, sunrise, sunset, nextSunrise time.Time) (day, night []models.Window) {
	seed := cycleIndexOf(weekdayLord[int(weekday)])

	build := func(bounds []time.Time, startIdx int) []models.Window {
		out := make([]models.Window, 0, len(bounds)-1)
		for i := 0; i < len(bounds)-1; i++ {
			lord := hourCycle[(startIdx+i)%7]
			name := choghadiyaNames[lord]
			out = append(out, models.Window{
				Index: i + 1, Name: name, Lord: lord,
				Start: bounds[i], End: bounds[i+1],
				Suitability: choghadiyaSuitability[name],
			})
		}
		return out
	}

	day = build(splitArc(sunrise, sunset, 8), seed)
	night = build(splitArc(sunset, nextSunrise, 8), seed+8)
	return day, night
}

// Hora computes the twelve day and twelve night planetary hours.
func Hora(weekday time.Weekday, sunrise, sunset, nextSunrise time.Time) (day, night []models.Window) {
	seed := cycleIndexOf(weekdayLord[int(weekday)])

	build := func(bounds []time.Time, startIdx int) []models.Window {
		out := make([]models.Window, 0, len(bounds)-1)
		for i := 0; i < len(bounds)-1; i++ {
			lord := hourCycle[(startIdx+i)%7]
			out = append(out, models.Window{
				Index: i + 1, Name: lord.String() + " Hora", Lord: lord,
				Start: bounds[i], End: bounds[i+1],
			})
		}
		return out
	}

	day = build(splitArc(sunrise, sunset, 12), seed)
	night = build(splitArc(sunset, nextSunrise, 12), seed+12)
	return day, night
}

// ── Muhurtas ──

var muhurtaNames = [15]string{
	"Rudra", "Ahi", "Mitra", "Pitri", "Vasu", "Vara", "Vishvedeva",
	"Vidhi", "Satamukhi", "Puruhuta", "Vahini", "Naktanakara", "Varuna",
	"Aryaman", "Bhaga",
}

// auspicious muhurta indices (1-based) per purpose, curated from the
// classical daytime attributions.
var purposeMuhurtas = map[string][]int{
	"marriage":      {3, 5, 7, 10, 13, 14},
	"property":      {3, 5, 6, 10, 14},
	"vehicle":       {3, 5, 7, 10, 14},
	"griha_pravesh": {3, 5, 6, 7, 13, 14},
}

// Purposes lists the supported muhurat purposes.
func Purposes() []string {
	return []string{"marriage", "property", "vehicle", "griha_pravesh"}
}

// Muhurtas splits the day arc into fifteen named windows, marking the
// ones suitable for the purpose. An unknown purpose marks none.
func Muhurtas(sunrise, sunset time.Time, purpose string) []models.Window {
	good := map[int]bool{}
	for _, idx := range purposeMuhurtas[purpose] {
		good[idx] = true
	}
	bounds := splitArc(sunrise, sunset, 15)
	out := make([]models.Window, 0, 15)
	for i := 0; i < 15; i++ {
		w := models.Window{
			Index: i + 1, Name: muhurtaNames[i],
			Start: bounds[i], End: bounds[i+1],
		}
		if good[i+1] {
			w.Suitability = "auspicious"
		} else {
			w.Suitability = "neutral"
		}
		out = append(out, w)
	}
	return out
}

// MuhuratFor builds the purpose report for one civil date.
func (s *Service) MuhuratFor(date, purpose string, lat, lon float64, tzOffsetMin int) (*models.MuhuratReport, error) {
	p, err := s.Compute(date, lat, lon, tzOffsetMin)
	if err != nil {
		return nil, err
	}
	return &models.MuhuratReport{
		Date: date, Purpose: purpose, Lat: lat, Lon: lon,
		Sunrise: p.Sunrise, Sunset: p.Sunset,
		Muhurtas: Muhurtas(p.Sunrise, p.Sunset, purpose),
	}, nil
}

// ChoghadiyaFor resolves sunrise bounds and returns the day and night
// windows for one civil date.
func (s *Service) ChoghadiyaFor(date string, lat, lon float64, tzOffsetMin int) (day, night []models.Window, err error) {
	p, err := s.Compute(date, lat, lon, tzOffsetMin)
	if err != nil {
		return nil, nil, err
	}
	nextRise, err := s.nextSunrise(p)
	if err != nil {
		return nil, nil, err
	}
	d, n := Choghadiya(p.Sunrise.Weekday(), p.Sunrise, p.Sunset, nextRise)
	return d, n, nil
}

// HoraFor returns the day and night planetary hours for one civil date.
func (s *Service) HoraFor(date string, lat, lon float64, tzOffsetMin int) (day, night []models.Window, err error) {
	p, err := s.Compute(date, lat, lon, tzOffsetMin)
	if err != nil {
		return nil, nil, err
	}
	nextRise, err := s.nextSunrise(p)
	if err != nil {
		return nil, nil, err
	}
	d, n := Hora(p.Sunrise.Weekday(), p.Sunrise, p.Sunset, nextRise)
	return d, n, nil
}

func (s *Service) nextSunrise(p *models.Panchang) (time.Time, error) {
	jd0 := ephemeris.JulianDay(p.Sunrise.UTC()) + 1
	rise, _, err := s.eng.SunRiseSet(float64(int(jd0-0.5))+0.5, p.Lat, p.Lon)
	if err != nil {
		return time.Time{}, err
	}
	return ephemeris.JDToTime(rise).In(p.Sunrise.Location()), nil
}
