package yoga

import (
	"testing"

	"github.com/saptarishi/jyotishai/pkg/models"
)

func chartWith(asc int, lons map[models.Body]float64) *models.NatalChart {
	c := &models.NatalChart{AscSign: asc, Planets: map[models.Body]models.Position{}}
	for b, lon := range lons {
		c.Planets[b] = models.NewPosition(lon, 1)
	}
	return c
}

func has(ys []Yoga, name string) bool {
	for _, y := range ys {
		if y.Name == name {
			return true
		}
	}
	return false
}

func TestGajaKesari(t *testing.T) {
	// Jupiter in the 4th from the Moon.
	c := chartWith(0, map[models.Body]float64{
		models.Moon:    15,  // Aries
		models.Jupiter: 100, // Cancer, also exalted
	})
	ys := gajaKesari(c)
	if len(ys) != 1 {
		t.Fatalf("got %d yogas, want 1", len(ys))
	}
	if ys[0].Strength != 1.0 {
		t.Errorf("exalted Jupiter strength %.2f, want 1.0", ys[0].Strength)
	}

	// Jupiter in the 2nd from the Moon: no yoga.
	c2 := chartWith(0, map[models.Body]float64{models.Moon: 15, models.Jupiter: 45})
	if len(gajaKesari(c2)) != 0 {
		t.Error("2nd from Moon should not form Gaja-Kesari")
	}
}

func TestBudhadityaCombustion(t *testing.T) {
	close := chartWith(0, map[models.Body]float64{models.Sun: 150, models.Mercury: 151})
	wide := chartWith(0, map[models.Body]float64{models.Sun: 150, models.Mercury: 170})
	yc := budhaditya(close)
	yw := budhaditya(wide)
	if len(yc) != 1 || len(yw) != 1 {
		t.Fatal("both placements share a sign and should form the yoga")
	}
	if yc[0].Strength >= yw[0].Strength {
		t.Errorf("combust strength %.2f should be below wide %.2f", yc[0].Strength, yw[0].Strength)
	}
}

func TestPanchaMahapurusha(t *testing.T) {
	// Saturn exalted in Libra on a Cancer lagna: Libra is the 4th house.
	c := chartWith(3, map[models.Body]float64{models.Saturn: 200})
	ys := panchaMahapurusha(c)
	if !has(ys, "Sasa") {
		t.Fatalf("want Sasa yoga, got %v", ys)
	}

	// Same Saturn on a Leo lagna sits in the 3rd: no yoga.
	c2 := chartWith(4, map[models.Body]float64{models.Saturn: 200})
	if len(panchaMahapurusha(c2)) != 0 {
		t.Error("Saturn in the 3rd should not form Sasa")
	}
}

func TestRajYoga(t *testing.T) {
	// Aries lagna: 9th lord Jupiter conjunct 10th lord Saturn.
	c := chartWith(0, map[models.Body]float64{
		models.Jupiter: 305,
		models.Saturn:  310,
	})
	ys := rajYoga(c)
	if !has(ys, "Raj-Yoga") {
		t.Fatalf("kendra lord with trikona lord should form Raj-Yoga, got %v", ys)
	}
}

func TestDhanaYoga(t *testing.T) {
	// Aries lagna: 2nd lord Venus conjunct 11th lord Saturn.
	c := chartWith(0, map[models.Body]float64{
		models.Venus:  215,
		models.Saturn: 218,
	})
	ys := dhanaYoga(c)
	if !has(ys, "Dhana-Yoga") {
		t.Fatalf("2nd and 11th lords conjunct should form Dhana-Yoga, got %v", ys)
	}
}

func TestNeechaBhanga(t *testing.T) {
	// Debilitated Mars in Cancer with the Moon (Cancer's lord) in a kendra
	// from the lagna.
	c := chartWith(0, map[models.Body]float64{
		models.Mars: 118,
		models.Moon: 95, // Cancer, the 4th house from Aries lagna
	})
	ys := neechaBhanga(c)
	if !has(ys, "Neecha-Bhanga") {
		t.Fatalf("cancelled debilitation should be detected, got %v", ys)
	}

	// Without a canceller in a kendra the fall stands.
	c2 := chartWith(0, map[models.Body]float64{
		models.Mars: 118,
		models.Moon: 35, // Taurus, 2nd house
	})
	if has(neechaBhanga(c2), "Neecha-Bhanga") {
		t.Error("no canceller in a kendra: fall should stand")
	}
}

func TestKemadruma(t *testing.T) {
	// Moon isolated: nothing in the 2nd or 12th from it.
	iso := chartWith(0, map[models.Body]float64{
		models.Moon: 15, models.Sun: 40, models.Mars: 130,
		models.Jupiter: 220, models.Saturn: 280,
	})
	if !has(kemadruma(iso), "Kemadruma") {
		t.Error("isolated Moon should form Kemadruma")
	}

	// Mars in the 2nd from the Moon breaks it.
	broken := chartWith(0, map[models.Body]float64{
		models.Moon: 15, models.Mars: 40,
	})
	if len(kemadruma(broken)) != 0 {
		t.Error("occupied 2nd from Moon should break Kemadruma")
	}
}

func TestVipareetaRaja(t *testing.T) {
	// Aries lagna: 6th lord Mercury (Virgo) placed in the 8th (Scorpio).
	c := chartWith(0, map[models.Body]float64{models.Mercury: 220})
	ys := vipareetaRaja(c)
	if !has(ys, "Vipareeta-Raja") {
		t.Fatalf("dusthana lord in another dusthana should qualify, got %v", ys)
	}
}

func TestDetectAggregates(t *testing.T) {
	c := chartWith(0, map[models.Body]float64{
		models.Sun: 150, models.Moon: 15, models.Mars: 40,
		models.Mercury: 151, models.Jupiter: 100, models.Venus: 170,
		models.Saturn: 205,
	})
	ys := Detect(c)
	if len(ys) == 0 {
		t.Fatal("expected at least one yoga on a populated chart")
	}
	for _, y := range ys {
		if y.Name == "" || y.Source == "" {
			t.Errorf("yoga missing name or source: %+v", y)
		}
		if y.Strength < 0 || y.Strength > 1 {
			t.Errorf("%s strength %.2f outside 0..1", y.Name, y.Strength)
		}
	}
}
