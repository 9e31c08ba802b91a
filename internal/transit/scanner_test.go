package transit

import (
	"context"
	"testing"
	"time"

	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// linearEngine moves each body at a constant rate from a fixed epoch
// longitude, which makes activation windows exactly predictable.
type linearEngine struct {
	epoch float64 // JD the base longitudes refer to
	base  map[models.Body]float64
	rate  map[models.Body]float64
}

func (e *linearEngine) Position(b models.Body, jd float64) (models.Position, error) {
	base, ok := e.base[b]
	if !ok {
		return models.Position{}, ephemeris.ErrUnknownBody
	}
	return models.NewPosition(base+e.rate[b]*(jd-e.epoch), e.rate[b]), nil
}

func (e *linearEngine) Ayanamsa(float64) float64 { return 24.0 }

func (e *linearEngine) SunRiseSet(jd0, lat, lon float64) (float64, float64, error) {
	return jd0 + 0.25, jd0 + 0.75, nil
}

func scanStart() time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}

func newTestEngine() *linearEngine {
	return &linearEngine{
		epoch: ephemeris.JulianDay(scanStart()),
		base: map[models.Body]float64{
			models.Sun:     250,
			models.Mars:    100,
			models.Mercury: 260,
			models.Jupiter: 55, // Taurus, 5 degrees from entering Gemini
			models.Venus:   280,
			models.Saturn:  330,
			models.Rahu:    0,
			models.Ketu:    180,
		},
		rate: map[models.Body]float64{
			models.Sun: 1, models.Mars: 0.5, models.Mercury: 1.2,
			models.Jupiter: 0.083, models.Venus: 1.1, models.Saturn: 0.033,
			models.Rahu: -0.053, models.Ketu: -0.053,
		},
	}
}

func natalFixture() *models.NatalChart {
	c := &models.NatalChart{AscSign: 0, Planets: map[models.Body]models.Position{}}
	lons := map[models.Body]float64{
		models.Sun: 75, models.Moon: 40, models.Mars: 130,
		models.Mercury: 65, models.Jupiter: 95, models.Venus: 20,
		models.Saturn: 310, models.Rahu: 200, models.Ketu: 20,
	}
	for b, lon := range lons {
		p := models.NewPosition(lon, 1)
		p.House = c.HouseOf(p.Sign)
		c.Planets[b] = p
	}
	return c
}

func TestScanFindsJupiterConjunction(t *testing.T) {
	// Natal Sun sits in Gemini. Transit Jupiter starts in Taurus and
	// crosses into Gemini after ~60 days at 0.083 deg/day.
	s := NewScanner(newTestEngine())
	start := scanStart()
	end := start.AddDate(1, 0, 0)

	res, err := s.Scan(context.Background(), natalFixture(), start, end, Filters{
		Bodies:       []models.Body{models.Jupiter},
		TargetBodies: []models.Body{models.Sun},
	})
	if err != nil {
		t.Fatal(err)
	}
	var conj *models.Activation
	for i, a := range res.Activations {
		if a.Aspect == models.AspectConjunction {
			conj = &res.Activations[i]
		}
	}
	if conj == nil {
		t.Fatal("no conjunction emitted")
	}
	// Jupiter needs 5 degrees to reach Gemini: about day 60.
	gotDay := int(conj.Start.Sub(start).Hours() / 24)
	if gotDay < 55 || gotDay > 70 {
		t.Errorf("conjunction opens at day %d, want ~60", gotDay)
	}
	if conj.End.After(end.Add(24 * time.Hour)) {
		t.Error("activation end exceeds the window")
	}
	if conj.Peak.Before(conj.Start) || conj.Peak.After(conj.End) {
		t.Error("peak outside the activation")
	}
}

func TestScanAspectFlipsCloseWindows(t *testing.T) {
	// The fast Sun sweeps every sign: each aspect track on natal Moon
	// must open and close within the year.
	s := NewScanner(newTestEngine())
	start := scanStart()
	res, err := s.Scan(context.Background(), natalFixture(), start, start.AddDate(1, 0, 0), Filters{
		Bodies:       []models.Body{models.Sun},
		TargetBodies: []models.Body{models.Moon},
		StepDays:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Activations) < 2 {
		t.Fatalf("expected multiple Sun windows, got %d", len(res.Activations))
	}
	for _, a := range res.Activations {
		if !a.End.After(a.Start) {
			t.Errorf("empty window %v..%v", a.Start, a.End)
		}
		// A one-degree-per-day body holds a sign about 30 days.
		days := a.End.Sub(a.Start).Hours() / 24
		if days > 33 {
			t.Errorf("window spans %.0f days, want about 30", days)
		}
	}
}

func TestScanStepDefaults(t *testing.T) {
	start := scanStart()
	if got := stepFor(Filters{}, start, start.AddDate(0, 2, 0)); got != 1 {
		t.Errorf("two-month window step = %d, want 1", got)
	}
	if got := stepFor(Filters{}, start, start.AddDate(5, 0, 0)); got != 7 {
		t.Errorf("five-year window step = %d, want 7", got)
	}
	if got := stepFor(Filters{StepDays: 3}, start, start.AddDate(5, 0, 0)); got != 3 {
		t.Errorf("explicit step = %d, want 3", got)
	}
}

func TestScanCancellationPartial(t *testing.T) {
	s := NewScanner(newTestEngine())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := scanStart()
	res, err := s.Scan(ctx, natalFixture(), start, start.AddDate(10, 0, 0), Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Partial {
		t.Error("cancelled scan should be marked partial")
	}
}

func TestScanHouseTargets(t *testing.T) {
	s := NewScanner(newTestEngine())
	start := scanStart()
	res, err := s.Scan(context.Background(), natalFixture(), start, start.AddDate(1, 0, 0), Filters{
		Bodies:       []models.Body{models.Saturn},
		TargetBodies: []models.Body{}, // no body targets
		TargetHouses: []int{7},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range res.Activations {
		if a.Target.Body != nil {
			t.Fatalf("expected house targets only, got body %v", *a.Target.Body)
		}
		if a.Target.House != 7 {
			t.Errorf("target house = %d, want 7", a.Target.House)
		}
	}
}

// saturnEngine places Saturn at the given base longitude so karmic-orb
// geometry against natal Saturn (310) is explicit per test.
func saturnEngine(base, rate float64) *linearEngine {
	return &linearEngine{
		epoch: ephemeris.JulianDay(scanStart()),
		base:  map[models.Body]float64{models.Saturn: base},
		rate:  map[models.Body]float64{models.Saturn: rate},
	}
}

func TestKarmicTrigger(t *testing.T) {
	// Saturn starts at 310, conjunct natal Saturn (310) within orb.
	s := NewScanner(saturnEngine(310, 0.033))
	start := scanStart()
	res, err := s.Scan(context.Background(), natalFixture(), start, start.AddDate(0, 3, 0), Filters{
		Bodies:       []models.Body{models.Saturn},
		TargetBodies: []models.Body{models.Saturn},
	})
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, a := range res.Activations {
		if a.Aspect == models.AspectConjunction && a.KarmicTrigger {
			found = true
		}
	}
	if !found {
		t.Error("slow-body contact within 3 degrees should flag karmic trigger")
	}
}

func TestKarmicTriggerLatchesAsContactTightens(t *testing.T) {
	// Saturn enters Aquarius at 301, nine degrees from natal Saturn (310),
	// so the track opens outside the karmic orb. At 0.1 deg/day the
	// contact closes to exact around day 90; the flag must latch once the
	// separation first drops within 3 degrees mid-window.
	s := NewScanner(saturnEngine(301, 0.1))
	start := scanStart()
	res, err := s.Scan(context.Background(), natalFixture(), start, start.AddDate(0, 6, 0), Filters{
		Bodies:       []models.Body{models.Saturn},
		TargetBodies: []models.Body{models.Saturn},
	})
	if err != nil {
		t.Fatal(err)
	}
	var conj *models.Activation
	for i, a := range res.Activations {
		if a.Aspect == models.AspectConjunction {
			conj = &res.Activations[i]
		}
	}
	if conj == nil {
		t.Fatal("no conjunction emitted")
	}
	if !conj.KarmicTrigger {
		t.Error("contact tightening within 3 degrees during the window should flag karmic trigger")
	}
}

func TestBAVOverrideQuality(t *testing.T) {
	if q := qualityOf(models.Jupiter, true, 4, 30); q != "Good" {
		t.Errorf("bav 4 sav 30 = %s, want Good", q)
	}
	if q := qualityOf(models.Jupiter, true, 4, 20); q != "Average" {
		t.Errorf("bav 4 sav 20 = %s, want Average", q)
	}
	if q := qualityOf(models.Saturn, true, 1, 20); q != "Challenging" {
		t.Errorf("bav 1 sav 20 for a malefic = %s, want Challenging", q)
	}
	if q := qualityOf(models.Jupiter, true, 1, 20); q != "Average" {
		t.Errorf("bav 1 sav 20 for a benefic = %s, want Average", q)
	}
}

func TestApplyAgeFilter(t *testing.T) {
	birth := time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC)
	acts := []models.Activation{
		{Start: birth.AddDate(20, 0, 0)},
		{Start: birth.AddDate(25, 0, 0)},
	}
	out := ApplyAgeFilter(acts, birth, 22)
	if out[0].Label != "learning phase" {
		t.Error("window before age 22 should be relabelled")
	}
	if out[1].Label != "" {
		t.Error("window after age 22 should keep its label")
	}
}

func TestDoubleTransit(t *testing.T) {
	natal := natalFixture()
	seven := 7
	mkBody := func(b models.Body) *models.Body { return &b }
	base := scanStart()
	acts := []models.Activation{
		{Transit: models.Jupiter, Target: models.TransitTarget{House: seven},
			Start: base, End: base.AddDate(0, 6, 0), Strength: 70},
		{Transit: models.Saturn, Target: models.TransitTarget{House: seven},
			Start: base.AddDate(0, 2, 0), End: base.AddDate(0, 9, 0), Strength: 60},
		{Transit: models.Mars, Target: models.TransitTarget{Body: mkBody(models.Venus)},
			Start: base, End: base.AddDate(0, 1, 0)},
	}
	dt := DoubleTransit(acts, natal, 7)
	if len(dt) != 1 {
		t.Fatalf("got %d double-transit windows, want 1", len(dt))
	}
	if !dt[0].Start.Equal(base.AddDate(0, 2, 0)) || !dt[0].End.Equal(base.AddDate(0, 6, 0)) {
		t.Errorf("overlap = %v..%v, want months 2..6", dt[0].Start, dt[0].End)
	}
	if dt[0].Label != "double transit" {
		t.Errorf("label = %q", dt[0].Label)
	}
}

func TestMarketForecast(t *testing.T) {
	s := NewScanner(newTestEngine())
	start := scanStart()
	periods, err := s.MarketForecast(context.Background(), "banking", start, start.AddDate(1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) == 0 {
		t.Fatal("no market periods")
	}
	for i, p := range periods {
		if p.Trend != "bullish" && p.Trend != "bearish" {
			t.Errorf("period %d trend %q", i, p.Trend)
		}
		if p.Intensity < 0 || p.Intensity > 1 {
			t.Errorf("period %d intensity %.2f out of range", i, p.Intensity)
		}
		if p.Ruler != models.Jupiter {
			t.Errorf("banking ruler = %s, want Jupiter", p.Ruler)
		}
		if i > 0 && p.Start.Before(periods[i-1].End) {
			t.Errorf("period %d overlaps its predecessor", i)
		}
	}
	if _, err := s.MarketForecast(context.Background(), "bogus", start, start.AddDate(0, 1, 0)); err != ErrUnknownSector {
		t.Fatalf("got %v, want ErrUnknownSector", err)
	}
}
