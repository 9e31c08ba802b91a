package shadbala

import (
	"math"
	"testing"

	"github.com/saptarishi/jyotishai/pkg/models"
)

func testChart() *models.NatalChart {
	c := &models.NatalChart{
		Ascendant: 15.0,
		AscSign:   0,
		Planets:   map[models.Body]models.Position{},
	}
	for i := 0; i < 12; i++ {
		c.Houses[i] = models.HouseCusp{House: i + 1, Sign: i, Longitude: float64(i * 30)}
	}
	add := func(b models.Body, lon, speed float64) {
		p := models.NewPosition(lon, speed)
		p.House = c.HouseOf(p.Sign)
		c.Planets[b] = p
	}
	add(models.Sun, 30.5, 0.96)       // Taurus
	add(models.Moon, 190.0, 13.2)     // Libra, waxing far from Sun
	add(models.Mars, 298.0, 0.5)      // Capricorn, near exaltation
	add(models.Mercury, 15.0, 1.2)    // Aries
	add(models.Jupiter, 95.0, 0.08)   // Cancer, exaltation
	add(models.Venus, 60.0, 1.1)      // Gemini
	add(models.Saturn, 200.0, -0.03)  // Libra, exaltation, retrograde
	add(models.Rahu, 310.0, -0.053)
	add(models.Ketu, 130.0, -0.053)
	return c
}

func TestComputeCoversVisibleBodies(t *testing.T) {
	rep := Compute(testChart())
	if len(rep) != len(models.VisibleBodies) {
		t.Fatalf("report covers %d bodies, want %d", len(rep), len(models.VisibleBodies))
	}
	for b, s := range rep {
		if !s.Applicable {
			t.Errorf("%s marked not applicable", b)
		}
		if s.Total <= 0 {
			t.Errorf("%s total %.2f, want positive", b, s.Total)
		}
		if math.Abs(s.Rupas-s.Total/60) > 1e-9 {
			t.Errorf("%s rupas %.4f inconsistent with total %.2f", b, s.Rupas, s.Total)
		}
		if s.Grade == "" {
			t.Errorf("%s has empty grade", b)
		}
	}
}

func TestUcchaBalaAtExtremes(t *testing.T) {
	// Exact exaltation gives 60, exact debilitation gives 0.
	exalted := ucchaBala(models.Mars, models.NewPosition(298.0, 0.5))
	if math.Abs(exalted-60) > 1e-6 {
		t.Errorf("exalted Mars uccha = %.4f, want 60", exalted)
	}
	debil := ucchaBala(models.Mars, models.NewPosition(118.0, 0.5))
	if math.Abs(debil) > 1e-6 {
		t.Errorf("debilitated Mars uccha = %.4f, want 0", debil)
	}
}

func TestDigBala(t *testing.T) {
	c := testChart()
	// Mercury in the ascendant sign occupies its power house.
	full := digBala(c, models.Mercury, c.Planets[models.Mercury])
	if math.Abs(full-60) > 1e-6 {
		t.Errorf("Mercury in lagna dig = %.4f, want 60", full)
	}
	// Saturn exalted in the 7th is at its own power house too.
	sat := digBala(c, models.Saturn, c.Planets[models.Saturn])
	if math.Abs(sat-60) > 1e-6 {
		t.Errorf("Saturn in 7th dig = %.4f, want 60", sat)
	}
}

func TestChestaRetrogradeIsFull(t *testing.T) {
	c := testChart()
	got := chestaBala(c, models.Saturn, c.Planets[models.Saturn])
	if got != 60 {
		t.Errorf("retrograde Saturn chesta = %.2f, want 60", got)
	}
}

func TestNaisargikaOrdering(t *testing.T) {
	order := []models.Body{
		models.Sun, models.Moon, models.Venus, models.Jupiter,
		models.Mercury, models.Mars, models.Saturn,
	}
	for i := 1; i < len(order); i++ {
		if naisargika[order[i-1]] <= naisargika[order[i]] {
			t.Errorf("naisargika %s (%.2f) should exceed %s (%.2f)",
				order[i-1], naisargika[order[i-1]], order[i], naisargika[order[i]])
		}
	}
}

func TestDrikBalaClamped(t *testing.T) {
	c := testChart()
	for _, b := range models.VisibleBodies {
		d := drikBala(c, b, c.Planets[b])
		if d > 30 || d < -30 {
			t.Errorf("%s drik %.2f outside [-30,30]", b, d)
		}
	}
}

func TestGradeThresholds(t *testing.T) {
	if g := gradeOf(models.Sun, 6.5*1.3); g != "Excellent" {
		t.Errorf("got %s, want Excellent", g)
	}
	if g := gradeOf(models.Sun, 6.6); g != "Good" {
		t.Errorf("got %s, want Good", g)
	}
	if g := gradeOf(models.Sun, 5.5); g != "Average" {
		t.Errorf("got %s, want Average", g)
	}
	if g := gradeOf(models.Sun, 2.0); g != "Weak" {
		t.Errorf("got %s, want Weak", g)
	}
}

func TestMissingBodyNotApplicable(t *testing.T) {
	c := testChart()
	delete(c.Planets, models.Venus)
	rep := Compute(c)
	if rep[models.Venus].Applicable {
		t.Error("Venus should be not applicable when absent")
	}
	if rep[models.Venus].Total != 0 {
		t.Errorf("absent Venus total = %.2f, want 0", rep[models.Venus].Total)
	}
}
