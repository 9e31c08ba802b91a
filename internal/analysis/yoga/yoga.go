// Package yoga detects classical planetary combinations on a natal chart.
package yoga

import (
	"github.com/saptarishi/jyotishai/internal/analysis/dignity"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// Yoga is one detected combination.
type Yoga struct {
	Name     string        `json:"name"`
	Strength float64       `json:"strength"` // 0..1
	Source   string        `json:"classical_source"`
	Bodies   []models.Body `json:"bodies,omitempty"`
	Note     string        `json:"note,omitempty"`
}

type detector func(*models.NatalChart) []Yoga

var detectors = []detector{
	gajaKesari,
	budhaditya,
	chandraMangala,
	panchaMahapurusha,
	rajYoga,
	dhanaYoga,
	neechaBhanga,
	kemadruma,
	vipareetaRaja,
}

// Detect runs every detector and returns the combined list. An empty list
// means no combination matched, not an error.
func Detect(c *models.NatalChart) []Yoga {
	var out []Yoga
	for _, d := range detectors {
		out = append(out, d(c)...)
	}
	return out
}

func isKendra(h int) bool  { return h == 1 || h == 4 || h == 7 || h == 10 }
func isTrikona(h int) bool { return h == 1 || h == 5 || h == 9 }

// houseFrom counts inclusively from one sign to another.
func houseFrom(from, to int) int {
	return ((to-from)%12+12)%12 + 1
}

// dignityWeight scales a yoga's strength by the participant's standing.
func dignityWeight(b models.Body, p models.Position) float64 {
	switch dignity.Of(b, p.Longitude) {
	case dignity.Exalted, dignity.Moolatrikona:
		return 1.0
	case dignity.OwnSign, dignity.GreatFriend:
		return 0.85
	case dignity.Friend:
		return 0.7
	case dignity.Debilitated, dignity.GreatEnemy:
		return 0.3
	case dignity.Enemy:
		return 0.45
	default:
		return 0.55
	}
}

// gajaKesari: Jupiter in a kendra from the Moon.
func gajaKesari(c *models.NatalChart) []Yoga {
	moon, okM := c.Planets[models.Moon]
	jup, okJ := c.Planets[models.Jupiter]
	if !okM || !okJ {
		return nil
	}
	if !isKendra(houseFrom(moon.Sign, jup.Sign)) {
		return nil
	}
	return []Yoga{{
		Name:     "Gaja-Kesari",
		Strength: dignityWeight(models.Jupiter, jup),
		Source:   "Brihat Parashara Hora Shastra",
		Bodies:   []models.Body{models.Moon, models.Jupiter},
	}}
}

// budhaditya: Sun and Mercury sharing a sign.
func budhaditya(c *models.NatalChart) []Yoga {
	sun, okS := c.Planets[models.Sun]
	mer, okM := c.Planets[models.Mercury]
	if !okS || !okM || sun.Sign != mer.Sign {
		return nil
	}
	// Combustion within 3 degrees weakens the yoga.
	strength := dignityWeight(models.Mercury, mer)
	if models.AngularDistance(sun.Longitude, mer.Longitude) < 3 {
		strength *= 0.5
	}
	return []Yoga{{
		Name:     "Budha-Aditya",
		Strength: strength,
		Source:   "Phaladeepika",
		Bodies:   []models.Body{models.Sun, models.Mercury},
	}}
}

// chandraMangala: Moon and Mars conjunct or mutually opposed.
func chandraMangala(c *models.NatalChart) []Yoga {
	moon, okM := c.Planets[models.Moon]
	mars, okR := c.Planets[models.Mars]
	if !okM || !okR {
		return nil
	}
	d := houseFrom(moon.Sign, mars.Sign)
	if d != 1 && d != 7 {
		return nil
	}
	return []Yoga{{
		Name:     "Chandra-Mangala",
		Strength: (dignityWeight(models.Moon, moon) + dignityWeight(models.Mars, mars)) / 2,
		Source:   "Saravali",
		Bodies:   []models.Body{models.Moon, models.Mars},
	}}
}

// panchaMahapurusha: one of the five tara grahas in own sign or exaltation
// occupying a kendra from the lagna.
func panchaMahapurusha(c *models.NatalChart) []Yoga {
	names := map[models.Body]string{
		models.Mars:    "Ruchaka",
		models.Mercury: "Bhadra",
		models.Jupiter: "Hamsa",
		models.Venus:   "Malavya",
		models.Saturn:  "Sasa",
	}
	var out []Yoga
	for b, name := range names {
		p, ok := c.Planets[b]
		if !ok || !isKendra(c.HouseOf(p.Sign)) {
			continue
		}
		switch dignity.Of(b, p.Longitude) {
		case dignity.Exalted, dignity.Moolatrikona, dignity.OwnSign:
			out = append(out, Yoga{
				Name:     name,
				Strength: dignityWeight(b, p),
				Source:   "Brihat Parashara Hora Shastra",
				Bodies:   []models.Body{b},
				Note:     "Pancha Mahapurusha",
			})
		}
	}
	return out
}

// lordsOfHouses maps each house to its sign lord for the chart's lagna.
func lordsOfHouses(c *models.NatalChart) map[int]models.Body {
	out := make(map[int]models.Body, 12)
	for h := 1; h <= 12; h++ {
		out[h] = models.SignLord(c.SignOfHouse(h))
	}
	return out
}

// associated reports conjunction or mutual aspect (7th) between two bodies.
func associated(c *models.NatalChart, a, b models.Body) bool {
	pa, okA := c.Planets[a]
	pb, okB := c.Planets[b]
	if !okA || !okB {
		return false
	}
	d := houseFrom(pa.Sign, pb.Sign)
	return d == 1 || d == 7
}

// rajYoga: association between a kendra lord and a trikona lord.
func rajYoga(c *models.NatalChart) []Yoga {
	lords := lordsOfHouses(c)
	seen := map[[2]models.Body]bool{}
	var out []Yoga
	for kh, kl := range lords {
		if !isKendra(kh) {
			continue
		}
		for th, tl := range lords {
			if !isTrikona(th) || kl == tl {
				continue
			}
			key := [2]models.Body{kl, tl}
			if kl > tl {
				key = [2]models.Body{tl, kl}
			}
			if seen[key] || !associated(c, kl, tl) {
				continue
			}
			seen[key] = true
			pk := c.Planets[kl]
			pt := c.Planets[tl]
			out = append(out, Yoga{
				Name:     "Raj-Yoga",
				Strength: (dignityWeight(kl, pk) + dignityWeight(tl, pt)) / 2,
				Source:   "Brihat Parashara Hora Shastra",
				Bodies:   []models.Body{kl, tl},
			})
		}
	}
	return out
}

// dhanaYoga: the 2nd and 11th lords associating with each other or with
// the lagna lord.
func dhanaYoga(c *models.NatalChart) []Yoga {
	lords := lordsOfHouses(c)
	pairs := [][2]models.Body{
		{lords[2], lords[11]},
		{lords[2], lords[1]},
		{lords[11], lords[1]},
	}
	seen := map[[2]models.Body]bool{}
	var out []Yoga
	for _, pr := range pairs {
		a, b := pr[0], pr[1]
		if a == b {
			continue
		}
		key := pr
		if a > b {
			key = [2]models.Body{b, a}
		}
		if seen[key] || !associated(c, a, b) {
			continue
		}
		seen[key] = true
		out = append(out, Yoga{
			Name:     "Dhana-Yoga",
			Strength: (dignityWeight(a, c.Planets[a]) + dignityWeight(b, c.Planets[b])) / 2,
			Source:   "Hora Sara",
			Bodies:   []models.Body{a, b},
		})
	}
	return out
}

// neechaBhanga: a debilitated planet whose fall is cancelled because the
// lord of its sign, or the planet exalted there, occupies a kendra from
// the Moon or the lagna.
func neechaBhanga(c *models.NatalChart) []Yoga {
	moon, hasMoon := c.Planets[models.Moon]
	var out []Yoga
	for _, b := range models.VisibleBodies {
		p, ok := c.Planets[b]
		if !ok || dignity.Of(b, p.Longitude) != dignity.Debilitated {
			continue
		}
		cancellers := []models.Body{models.SignLord(p.Sign)}
		for _, other := range models.VisibleBodies {
			if int(dignity.ExaltationPoint(other)/30) == p.Sign {
				cancellers = append(cancellers, other)
			}
		}
		for _, cb := range cancellers {
			cp, ok := c.Planets[cb]
			if !ok || cb == b {
				continue
			}
			fromLagna := isKendra(c.HouseOf(cp.Sign))
			// The Moon cannot vouch for itself.
			fromMoon := hasMoon && cb != models.Moon && isKendra(houseFrom(moon.Sign, cp.Sign))
			if fromLagna || fromMoon {
				out = append(out, Yoga{
					Name:     "Neecha-Bhanga",
					Strength: 0.6,
					Source:   "Phaladeepika",
					Bodies:   []models.Body{b, cb},
				})
				break
			}
		}
	}
	return out
}

// kemadruma: no planet besides the Sun in the 2nd or 12th from the Moon.
// A challenging yoga; strength marks severity.
func kemadruma(c *models.NatalChart) []Yoga {
	moon, ok := c.Planets[models.Moon]
	if !ok {
		return nil
	}
	for _, b := range models.VisibleBodies {
		if b == models.Moon || b == models.Sun {
			continue
		}
		p, ok := c.Planets[b]
		if !ok {
			continue
		}
		d := houseFrom(moon.Sign, p.Sign)
		if d == 2 || d == 12 {
			return nil
		}
	}
	return []Yoga{{
		Name:     "Kemadruma",
		Strength: 0.7,
		Source:   "Brihat Jataka",
		Bodies:   []models.Body{models.Moon},
		Note:     "challenging",
	}}
}

// vipareetaRaja: a dusthana lord (6, 8, 12) placed in another dusthana.
func vipareetaRaja(c *models.NatalChart) []Yoga {
	lords := lordsOfHouses(c)
	dusthana := []int{6, 8, 12}
	var out []Yoga
	for _, h := range dusthana {
		lord := lords[h]
		p, ok := c.Planets[lord]
		if !ok {
			continue
		}
		lh := c.HouseOf(p.Sign)
		for _, d := range dusthana {
			if lh == d && d != h {
				out = append(out, Yoga{
					Name:     "Vipareeta-Raja",
					Strength: 0.5 + 0.2*dignityWeight(lord, p),
					Source:   "Uttara Kalamrita",
					Bodies:   []models.Body{lord},
				})
				break
			}
		}
	}
	return out
}
