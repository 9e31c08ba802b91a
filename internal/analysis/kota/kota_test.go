package kota

import (
	"testing"

	"github.com/saptarishi/jyotishai/pkg/models"
)

func TestIndex28Abhijit(t *testing.T) {
	cases := []struct {
		lon  float64
		want int
	}{
		{0, 0},                 // Ashwini
		{276.0, 20},            // Uttara Ashadha proper
		{277.0, abhijitIndex},  // inside Abhijit
		{280.5, abhijitIndex},  // Abhijit overlaps early Shravana
		{281.0, 22},            // Shravana
		{359.9, 27},            // Revati
	}
	for _, tc := range cases {
		if got := Index28(tc.lon); got != tc.want {
			t.Errorf("Index28(%.1f) = %d (%s), want %d (%s)",
				tc.lon, got, Names[got], tc.want, Names[tc.want])
		}
	}
}

func TestPlaceSerpentine(t *testing.T) {
	janma := 5
	wantRings := []Ring{Bahya, Prakaara, Madhya, Stambha, Madhya, Prakaara, Bahya}
	for off, want := range wantRings {
		c := Place(janma, (janma+off)%28)
		if c.Ring != want {
			t.Errorf("offset %d ring = %s, want %s", off, c.Ring, want)
		}
		if entering := off <= 3; c.Entering != entering {
			t.Errorf("offset %d entering = %v, want %v", off, c.Entering, entering)
		}
	}
	// The pattern repeats every seven cells.
	if Place(janma, (janma+7)%28).Ring != Bahya {
		t.Error("offset 7 should restart at bahya")
	}
	if Place(janma, (janma+10)%28).Ring != Stambha {
		t.Error("offset 10 should reach stambha")
	}
}

func TestJanmaIsBahyaEntering(t *testing.T) {
	c := Place(12, 12)
	if c.Ring != Bahya || !c.Entering {
		t.Errorf("janma cell = %s entering=%v, want bahya entering", c.Ring, c.Entering)
	}
}

func TestReportAndSiege(t *testing.T) {
	moonLon := 40.0 // Rohini region
	janma := Index28(moonLon)
	// Park Saturn three cells past janma: the stambha.
	satNak := (janma + 3) % 28
	satLon := float64(satNak) * (360.0 / 27)
	transits := map[models.Body]models.Position{
		models.Saturn:  models.NewPosition(satLon+1, -0.03),
		models.Jupiter: models.NewPosition(moonLon, 0.08),
	}
	cells := Report(moonLon, transits)
	if cells[models.Saturn].Ring != Stambha {
		t.Fatalf("Saturn ring = %s, want stambha", cells[models.Saturn].Ring)
	}
	siege := MaleficInStambha(cells)
	if len(siege) != 1 || siege[0] != models.Saturn {
		t.Errorf("siege = %v, want [Saturn]", siege)
	}
}

func TestVedhaDirections(t *testing.T) {
	direct := VedhaTargets(3, false)
	retro := VedhaTargets(3, true)
	if len(direct) != 2 || len(retro) != 2 {
		t.Fatal("each motion state casts two piercings")
	}
	if direct[0].Direction != VedhaFront || retro[0].Direction != VedhaFront {
		t.Error("first piercing should be frontal either way")
	}
	if direct[1].Direction != VedhaRight {
		t.Errorf("prograde flank = %s, want right", direct[1].Direction)
	}
	if retro[1].Direction != VedhaLeft {
		t.Errorf("retrograde flank = %s, want left", retro[1].Direction)
	}
	// Front cell mirrors across the fortress: wall 0 pos 3 -> wall 2 pos 3.
	if direct[0].Target != 17 {
		t.Errorf("front target = %d, want 17", direct[0].Target)
	}
}

func TestPierces(t *testing.T) {
	if _, ok := Pierces(3, 17, false); !ok {
		t.Error("front cell should be pierced")
	}
	if _, ok := Pierces(3, 5, false); ok {
		t.Error("unrelated cell should not be pierced")
	}
	// Direction flips with motion.
	dir, ok := Pierces(3, cellAt(1, 3), true)
	if !ok || dir != VedhaLeft {
		t.Errorf("retrograde piercing = %s ok=%v, want left", dir, ok)
	}
}

func TestAllCellsValid(t *testing.T) {
	for janma := 0; janma < 28; janma++ {
		for nak := 0; nak < 28; nak++ {
			c := Place(janma, nak)
			switch c.Ring {
			case Bahya, Prakaara, Madhya, Stambha:
			default:
				t.Fatalf("invalid ring %q", c.Ring)
			}
		}
	}
}
