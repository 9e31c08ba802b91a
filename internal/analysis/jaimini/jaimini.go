// Package jaimini computes chara karakas and the arudha padas of all
// twelve houses.
package jaimini

import (
	"sort"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// Karaka names in rank order. With Rahu included the eight-fold scheme
// inserts Pitrikaraka after Matrikaraka.
const (
	Atmakaraka   = "atmakaraka"
	Amatyakaraka = "amatyakaraka"
	Bhratrikaraka = "bhratrikaraka"
	Matrikaraka  = "matrikaraka"
	Pitrikaraka  = "pitrikaraka"
	Putrakaraka  = "putrakaraka"
	Gnatikaraka  = "gnatikaraka"
	Darakaraka   = "darakaraka"
)

var sevenScheme = []string{
	Atmakaraka, Amatyakaraka, Bhratrikaraka, Matrikaraka,
	Putrakaraka, Gnatikaraka, Darakaraka,
}

var eightScheme = []string{
	Atmakaraka, Amatyakaraka, Bhratrikaraka, Matrikaraka,
	Pitrikaraka, Putrakaraka, Gnatikaraka, Darakaraka,
}

// Karaka pairs a rank name with the body holding it.
type Karaka struct {
	Name   string      `json:"name"`
	Body   models.Body `json:"body"`
	Degree float64     `json:"degree"`
}

// CharaKarakas ranks bodies by degrees traversed in their sign, descending.
// Rahu, when included, counts degrees remaining in its sign since it moves
// backwards. Bodies absent from the chart are skipped; ranks then cover
// fewer karakas.
func CharaKarakas(c *models.NatalChart, includeRahu bool) []Karaka {
	type cand struct {
		body models.Body
		deg  float64
	}
	var cands []cand
	for _, b := range models.VisibleBodies {
		if p, ok := c.Planets[b]; ok {
			cands = append(cands, cand{b, p.Degree})
		}
	}
	scheme := sevenScheme
	if includeRahu {
		scheme = eightScheme
		if p, ok := c.Planets[models.Rahu]; ok {
			cands = append(cands, cand{models.Rahu, 30 - p.Degree})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].deg != cands[j].deg {
			return cands[i].deg > cands[j].deg
		}
		return cands[i].body < cands[j].body // stable tie-break
	})
	out := make([]Karaka, 0, len(scheme))
	for i, c := range cands {
		if i >= len(scheme) {
			break
		}
		out = append(out, Karaka{Name: scheme[i], Body: c.body, Degree: c.deg})
	}
	return out
}

// Atma returns the atmakaraka body, false on an empty chart.
func Atma(c *models.NatalChart, includeRahu bool) (models.Body, bool) {
	ks := CharaKarakas(c, includeRahu)
	if len(ks) == 0 {
		return 0, false
	}
	return ks[0].Body, true
}

// ArudhaPada projects house (1..12): count from the house sign to its
// lord's sign, then the same count onward from the lord. When the result
// lands in the 1st or 7th from the house the tenth therefrom is taken.
func ArudhaPada(c *models.NatalChart, house int) (int, bool) {
	houseSign := c.SignOfHouse(house)
	lord := models.SignLord(houseSign)
	lp, ok := c.Planets[lord]
	if !ok {
		return 0, false
	}
	d := ((lp.Sign - houseSign) % 12 + 12) % 12
	pada := (lp.Sign + d) % 12
	rel := ((pada - houseSign) % 12 + 12) % 12
	if rel == 0 || rel == 6 {
		pada = (pada + 9) % 12
	}
	return pada, true
}

// Padas holds the named arudha points derived from houses 1 and 12.
type Padas struct {
	ArudhaLagna *int        `json:"arudha_lagna,omitempty"`
	Upapada     *int        `json:"upapada,omitempty"`
	Houses      map[int]int `json:"houses"`
}

// AllPadas computes the arudha of every house. Upapada follows the common
// convention of the 12th house's pada.
func AllPadas(c *models.NatalChart) Padas {
	out := Padas{Houses: make(map[int]int, 12)}
	for h := 1; h <= 12; h++ {
		pada, ok := ArudhaPada(c, h)
		if !ok {
			continue
		}
		out.Houses[h] = pada
		switch h {
		case 1:
			v := pada
			out.ArudhaLagna = &v
		case 12:
			v := pada
			out.Upapada = &v
		}
	}
	return out
}
