package varga

import "testing"

func mustSign(t *testing.T, sign int, degree float64, d int) int {
	t.Helper()
	got, err := Sign(sign, degree, d)
	if err != nil {
		t.Fatalf("Sign(%d, %v, D%d): %v", sign, degree, d, err)
	}
	return got
}

func TestD1Identity(t *testing.T) {
	for sign := 0; sign < 12; sign++ {
		for _, deg := range []float64{0, 7.3, 14.999999999, 15, 29.999999999} {
			if got := mustSign(t, sign, deg, 1); got != sign {
				t.Errorf("D1(%d, %v) = %d, want identity", sign, deg, got)
			}
		}
	}
}

func TestD2Hora(t *testing.T) {
	cases := []struct {
		sign int
		deg  float64
		want int
	}{
		{0, 0, 4},             // Aries first half → Leo
		{0, 14.999999999, 4},  // still first half
		{0, 15, 3},            // exactly 15 → second half → Cancer
		{0, 29.999999999, 3},
		{1, 0, 3},  // Taurus first half → Cancer
		{1, 15, 4}, // Taurus second half → Leo
		{7, 10, 3}, // Scorpio (even) first half → Cancer
		{8, 20, 3}, // Sagittarius (odd) second half → Cancer
	}
	for _, c := range cases {
		if got := mustSign(t, c.sign, c.deg, 2); got != c.want {
			t.Errorf("D2(%d, %v) = %d, want %d", c.sign, c.deg, got, c.want)
		}
	}
}

func TestD3DrekkanaBoundaries(t *testing.T) {
	for sign := 0; sign < 12; sign++ {
		cases := []struct {
			deg  float64
			want int
		}{
			{0, sign},
			{9.999999999, sign},
			{10, (sign + 4) % 12}, // exactly 10 belongs to the second part
			{15, (sign + 4) % 12},
			{20, (sign + 8) % 12},
			{29.999999999, (sign + 8) % 12},
		}
		for _, c := range cases {
			if got := mustSign(t, sign, c.deg, 3); got != c.want {
				t.Errorf("D3(%d, %v) = %d, want %d", sign, c.deg, got, c.want)
			}
		}
	}
}

func TestD9NavamsaMovableSign(t *testing.T) {
	// Spec seed: ascendant 10.0° Aries → part 3 → Cancer.
	if got := mustSign(t, 0, 10.0, 9); got != 3 {
		t.Fatalf("D9(Aries, 10.0) = %d, want Cancer(3)", got)
	}
}

func TestD9NavamsaStarts(t *testing.T) {
	cases := []struct {
		sign int
		deg  float64
		want int
	}{
		{0, 0, 0},   // movable: self
		{3, 0, 3},   // Cancer movable: self
		{1, 0, 9},   // fixed Taurus: 9th = Capricorn
		{4, 0, 0},   // fixed Leo: 9th = Aries
		{2, 0, 6},   // dual Gemini: 5th = Libra
		{11, 0, 3},  // dual Pisces: 5th = Cancer
		{0, 29.999999999, 8}, // last navamsa of Aries = Sagittarius
	}
	for _, c := range cases {
		if got := mustSign(t, c.sign, c.deg, 9); got != c.want {
			t.Errorf("D9(%d, %v) = %d, want %d", c.sign, c.deg, got, c.want)
		}
	}
}

func TestD10Dasamsa(t *testing.T) {
	cases := []struct {
		sign int
		deg  float64
		want int
	}{
		{0, 0, 0},  // odd: from self
		{0, 20, 6}, // seventh dasamsa of Aries
		{1, 0, 9},  // even Taurus: from 9th = Capricorn
		{1, 29.999999999, 6},
	}
	for _, c := range cases {
		if got := mustSign(t, c.sign, c.deg, 10); got != c.want {
			t.Errorf("D10(%d, %v) = %d, want %d", c.sign, c.deg, got, c.want)
		}
	}
}

func TestD30Trimsamsa(t *testing.T) {
	cases := []struct {
		sign int
		deg  float64
		want int
	}{
		{0, 0, 0},    // odd, 0-5 Mars → Aries
		{0, 5, 10},   // exactly 5 → Saturn arc → Aquarius
		{0, 10, 8},   // Jupiter → Sagittarius
		{0, 18, 2},   // Mercury → Gemini
		{0, 25, 6},   // Venus → Libra
		{0, 29.999999999, 6},
		{1, 0, 1},    // even, 0-5 Venus → Taurus
		{1, 5, 5},    // Mercury → Virgo
		{1, 12, 11},  // Jupiter → Pisces
		{1, 20, 9},   // Saturn → Capricorn
		{1, 25, 7},   // Mars → Scorpio
	}
	for _, c := range cases {
		if got := mustSign(t, c.sign, c.deg, 30); got != c.want {
			t.Errorf("D30(%d, %v) = %d, want %d", c.sign, c.deg, got, c.want)
		}
	}
}

func TestD7Saptamsa(t *testing.T) {
	// Odd signs count from self, even from the 7th.
	if got := mustSign(t, 0, 0, 7); got != 0 {
		t.Errorf("D7(Aries, 0) = %d, want Aries", got)
	}
	if got := mustSign(t, 1, 0, 7); got != 7 {
		t.Errorf("D7(Taurus, 0) = %d, want Scorpio(7)", got)
	}
}

func TestAllDivisionsReturnValidSigns(t *testing.T) {
	for _, d := range Divisions {
		for sign := 0; sign < 12; sign++ {
			for _, deg := range []float64{0, 10, 14.999999999, 15, 20, 29.999999999} {
				got, err := Sign(sign, deg, d)
				if err != nil {
					t.Fatalf("D%d(%d, %v): %v", d, sign, deg, err)
				}
				if got < 0 || got > 11 {
					t.Errorf("D%d(%d, %v) = %d out of range", d, sign, deg, got)
				}
			}
		}
	}
}

func TestUnknownDivision(t *testing.T) {
	if _, err := Sign(0, 10, 13); err == nil {
		t.Fatal("expected error for D13")
	}
}

func TestLongitudeMapping(t *testing.T) {
	// 10.0° Aries through D9 lands in Cancer with zero progress into the part.
	lon, err := Longitude(10.0, 9)
	if err != nil {
		t.Fatal(err)
	}
	if int(lon/30) != 3 {
		t.Errorf("D9 longitude of 10° Aries in sign %d, want Cancer", int(lon/30))
	}
}
