package dasha

import (
	"time"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// Snapshot bundles the active rulers of every dasha system at one moment.
type Snapshot struct {
	At          time.Time            `json:"at"`
	Vimshottari []models.DashaPeriod `json:"vimshottari"` // mahadasha..prana
	CharaMaha   *models.CharaPeriod  `json:"chara_mahadasha,omitempty"`
	CharaAntar  *models.CharaPeriod  `json:"chara_antardasha,omitempty"`
	YoginiMaha  *models.YoginiPeriod `json:"yogini_mahadasha,omitempty"`
	YoginiAntar *models.YoginiPeriod `json:"yogini_antardasha,omitempty"`
}

// ActiveAt computes the full snapshot from a natal chart. The moon drives
// Vimshottari and Yogini; Chara additionally needs the atmakaraka.
func ActiveAt(c *models.NatalChart, at time.Time) (*Snapshot, error) {
	moon, ok := c.Planets[models.Moon]
	if !ok {
		return nil, ErrNoMoon
	}
	birth := c.Birth.UTC()

	vim, err := ActiveVimshottari(birth, moon.Longitude, at)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{At: at, Vimshottari: vim}

	if cm, ca, err := ActiveChara(c, birth, at); err == nil {
		snap.CharaMaha, snap.CharaAntar = cm, ca
	}
	ym, ya, err := ActiveYogini(birth, moon.Longitude, at)
	if err != nil {
		return nil, err
	}
	snap.YoginiMaha, snap.YoginiAntar = ym, ya
	return snap, nil
}
