package dasha

import (
	"testing"
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/nakshatra"
	"github.com/saptarishi/jyotishai/pkg/models"
)

var testBirth = time.Date(1990, 5, 15, 9, 0, 0, 0, time.UTC)

func TestVimshottariFirstLordAndBalance(t *testing.T) {
	// Moon mid-Ashwini: Ketu mahadasha with half its period left.
	moonLon := nakshatra.Arc / 2
	mahas := VimshottariMahadashas(testBirth, moonLon)
	if len(mahas) != 9 {
		t.Fatalf("got %d mahadashas, want 9", len(mahas))
	}
	if mahas[0].Ruler != models.Ketu {
		t.Fatalf("first lord = %s, want Ketu", mahas[0].Ruler)
	}
	// Ketu runs 7 years; half elapsed leaves 3.5 from birth.
	left := mahas[0].End.Sub(testBirth)
	wantLeft := time.Duration(3.5 * yearSeconds * float64(time.Second))
	if diff := (left - wantLeft); diff > time.Minute || diff < -time.Minute {
		t.Errorf("balance = %v, want ~%v", left, wantLeft)
	}
}

func TestVimshottariPartition(t *testing.T) {
	mahas := VimshottariMahadashas(testBirth, 100.0)
	// Mahadashas tile the 120-year cycle with no gaps.
	for i := 1; i < len(mahas); i++ {
		if !mahas[i].Start.Equal(mahas[i-1].End) {
			t.Fatalf("gap between mahadasha %d and %d", i-1, i)
		}
	}
	total := mahas[len(mahas)-1].End.Sub(mahas[0].Start)
	want := time.Duration(120 * yearSeconds * float64(time.Second))
	if diff := total - want; diff > time.Second || diff < -time.Second {
		t.Errorf("cycle spans %v, want %v within 1s", total, want)
	}
}

func TestSubdividePartitionExact(t *testing.T) {
	mahas := VimshottariMahadashas(testBirth, 100.0)
	parent := mahas[2]
	kids := Subdivide(parent)
	if len(kids) != 9 {
		t.Fatalf("got %d antardashas, want 9", len(kids))
	}
	if !kids[0].Start.Equal(parent.Start) {
		t.Error("first child should start at parent start")
	}
	if !kids[8].End.Equal(parent.End) {
		t.Error("last child should end exactly at parent end")
	}
	for i := 1; i < len(kids); i++ {
		if !kids[i].Start.Equal(kids[i-1].End) {
			t.Fatalf("gap between antardasha %d and %d", i-1, i)
		}
	}
	if kids[0].Ruler != parent.Ruler {
		t.Errorf("first antardasha lord = %s, want parent lord %s", kids[0].Ruler, parent.Ruler)
	}
}

func TestSubdivideFollowsVimshottariOrder(t *testing.T) {
	// A Saturn mahadasha's antardashas run in Vimshottari cycle order
	// from Saturn itself, not in planet enum order.
	parent := models.DashaPeriod{
		Ruler: models.Saturn, Level: models.Mahadasha,
		Start: testBirth, End: testBirth.AddDate(19, 0, 0),
	}
	want := []models.Body{
		models.Saturn, models.Mercury, models.Ketu, models.Venus,
		models.Sun, models.Moon, models.Mars, models.Rahu, models.Jupiter,
	}
	for i, k := range Subdivide(parent) {
		if k.Ruler != want[i] {
			t.Errorf("antardasha %d lord = %s, want %s", i, k.Ruler, want[i])
		}
	}
}

func TestSubdivideDeepLevelsStayExact(t *testing.T) {
	// Drill to prana and confirm the partition property holds at depth.
	mahas := VimshottariMahadashas(testBirth, 250.0)
	p := mahas[0]
	for level := models.Antardasha; level <= models.Prana; level++ {
		kids := Subdivide(p)
		if !kids[len(kids)-1].End.Equal(p.End) {
			t.Fatalf("level %s: last child end drifts from parent end", level)
		}
		p = kids[3]
	}
}

func TestActiveVimshottariFiveLevels(t *testing.T) {
	at := testBirth.AddDate(30, 2, 10)
	levels, err := ActiveVimshottari(testBirth, 100.0, at)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 5 {
		t.Fatalf("got %d levels, want 5", len(levels))
	}
	for i, p := range levels {
		if p.Level != models.DashaLevel(i+1) {
			t.Errorf("level %d tagged %s", i, p.Level)
		}
		if !p.Contains(at) {
			t.Errorf("level %s period does not contain the query moment", p.Level)
		}
		if i > 0 {
			outer := levels[i-1]
			if p.Start.Before(outer.Start) || p.End.After(outer.End) {
				t.Errorf("level %s escapes its parent", p.Level)
			}
		}
	}
}

func TestActiveVimshottariBeforeBirth(t *testing.T) {
	if _, err := ActiveVimshottari(testBirth, 100.0, testBirth.AddDate(-1, 0, 0)); err != ErrBeforeBirth {
		t.Fatalf("got %v, want ErrBeforeBirth", err)
	}
}

func TestVimshottariTimeline(t *testing.T) {
	from := testBirth.AddDate(10, 0, 0)
	to := testBirth.AddDate(12, 0, 0)
	periods := VimshottariTimeline(testBirth, 40.0, from, to, models.Antardasha)
	if len(periods) == 0 {
		t.Fatal("empty timeline")
	}
	for _, p := range periods {
		if p.Level > models.Antardasha {
			t.Errorf("timeline deeper than requested: %s", p.Level)
		}
		if p.End.Before(from) || p.Start.After(to) {
			t.Errorf("period outside the window: %v..%v", p.Start, p.End)
		}
	}
}

// ── Chara ──

func charaChart() *models.NatalChart {
	c := &models.NatalChart{AscSign: 0, Planets: map[models.Body]models.Position{}}
	lons := map[models.Body]float64{
		models.Sun: 29.5, models.Moon: 100, models.Mars: 10,
		models.Mercury: 75, models.Jupiter: 250, models.Venus: 190,
		models.Saturn: 290,
	}
	for b, lon := range lons {
		c.Planets[b] = models.NewPosition(lon, 1)
	}
	return c
}

func TestCharaMahadashas(t *testing.T) {
	c := charaChart()
	mahas, err := CharaMahadashas(c, testBirth)
	if err != nil {
		t.Fatal(err)
	}
	if len(mahas) == 0 {
		t.Fatal("no chara periods")
	}
	for i, m := range mahas {
		if m.Years < 0 || m.Years > 12 {
			t.Errorf("period %d spans %d years, outside 0..12", i, m.Years)
		}
		if i > 0 && !m.Start.Equal(mahas[i-1].End) {
			t.Errorf("gap before period %d", i)
		}
	}
}

func TestCharaLordAtHomeTwelveYears(t *testing.T) {
	// Mars in Aries: the Aries period runs the full twelve years.
	c := charaChart()
	years, ok := charaYears(c, 0)
	if !ok || years != 12 {
		t.Fatalf("Aries years = %d ok=%v, want 12", years, ok)
	}
}

func TestCharaAntardashasPartition(t *testing.T) {
	c := charaChart()
	mahas, err := CharaMahadashas(c, testBirth)
	if err != nil {
		t.Fatal(err)
	}
	var parent models.CharaPeriod
	for _, m := range mahas {
		if m.Years > 0 {
			parent = m
			break
		}
	}
	subs := CharaAntardashas(parent)
	if len(subs) != 12 {
		t.Fatalf("got %d antardashas, want 12", len(subs))
	}
	if subs[0].Sign != parent.Sign {
		t.Error("antardashas should open from the mahadasha sign")
	}
	if !subs[11].End.Equal(parent.End) {
		t.Error("last antardasha should close the parent")
	}
}

// ── Yogini ──

func TestYoginiCycle36Years(t *testing.T) {
	mahas := YoginiMahadashas(testBirth, 40.0)
	var cycleYears int
	for _, m := range mahas[:8] {
		cycleYears += m.Years
	}
	if cycleYears != 36 {
		t.Fatalf("first cycle spans %d years, want 36", cycleYears)
	}
	// Years follow the 1..8 ladder in cycle order.
	for i := 1; i < 8; i++ {
		next := mahas[i].Years
		prev := mahas[i-1].Years
		if next != prev%8+1 {
			t.Errorf("period %d years = %d after %d", i, next, prev)
		}
	}
}

func TestYoginiSeed(t *testing.T) {
	// Ashwini (index 0) opens with the 4th yogini, Bhramari.
	mahas := YoginiMahadashas(testBirth, 1.0)
	if mahas[0].Name != "Bhramari" || mahas[0].Ruler != models.Mars {
		t.Fatalf("first yogini = %s/%s, want Bhramari/Mars", mahas[0].Name, mahas[0].Ruler)
	}
}

func TestActiveYogini(t *testing.T) {
	at := testBirth.AddDate(20, 0, 0)
	maha, antar, err := ActiveYogini(testBirth, 40.0, at)
	if err != nil {
		t.Fatal(err)
	}
	if maha == nil || antar == nil {
		t.Fatal("expected both levels")
	}
	if at.Before(maha.Start) || !at.Before(maha.End) {
		t.Error("mahadasha does not contain the moment")
	}
	if antar.Start.Before(maha.Start) || antar.End.After(maha.End) {
		t.Error("antardasha escapes its mahadasha")
	}
}

// ── Snapshot ──

func TestActiveAtSnapshot(t *testing.T) {
	c := charaChart()
	tz := 0
	c.Birth = models.BirthData{
		Date: "1990-05-15", Time: "09:00", Lat: 28.61, Lon: 77.21, TZOffset: &tz,
	}
	snap, err := ActiveAt(c, testBirth.AddDate(25, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Vimshottari) != 5 {
		t.Errorf("vimshottari levels = %d, want 5", len(snap.Vimshottari))
	}
	if snap.YoginiMaha == nil {
		t.Error("missing yogini mahadasha")
	}
	if snap.CharaMaha == nil {
		t.Error("missing chara mahadasha")
	}
}

func TestActiveAtNoMoon(t *testing.T) {
	c := &models.NatalChart{Planets: map[models.Body]models.Position{}}
	if _, err := ActiveAt(c, testBirth); err != ErrNoMoon {
		t.Fatalf("got %v, want ErrNoMoon", err)
	}
}
