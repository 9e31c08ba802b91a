package models

import "time"

// AspectType classifies how a transiting body touches a natal target.
// Vedic aspects are counted by house from the aspecting body; angular
// Western orbs are never used for these.
type AspectType string

const (
	AspectConjunction AspectType = "conjunction"
	Aspect3rd         AspectType = "3rd"
	Aspect4th         AspectType = "4th"
	Aspect5th         AspectType = "5th"
	Aspect7th         AspectType = "7th"
	Aspect8th         AspectType = "8th"
	Aspect9th         AspectType = "9th"
	Aspect10th        AspectType = "10th"
	AspectSign        AspectType = "sign"
	AspectVedha       AspectType = "vedha"
)

// SpecialAspects returns the house offsets (from the aspecting body's house,
// counted inclusively) a body casts, beyond the universal 1 (conjunction)
// and 7. Counted per Parashara: Mars 4/8, Jupiter 5/9, Saturn 3/10, and the
// nodes 5/9 in the Jaimini-influenced school this engine follows.
func SpecialAspects(b Body) []int {
	switch b {
	case Mars:
		return []int{4, 8}
	case Jupiter:
		return []int{5, 9}
	case Saturn:
		return []int{3, 10}
	case Rahu, Ketu:
		return []int{5, 9}
	default:
		return nil
	}
}

// AspectOffsets returns every inclusive house count the body aspects,
// including conjunction (1) and the universal 7th.
func AspectOffsets(b Body) []int {
	return append([]int{1, 7}, SpecialAspects(b)...)
}

// TransitTarget identifies what a transit activation touches: a natal body
// or a whole-sign house cusp.
type TransitTarget struct {
	Body  *Body `json:"body,omitempty"`
	House int   `json:"house,omitempty"` // 1..12 when Body is nil
}

// Activation is one continuous period during which a transiting body holds
// an aspect over a natal target.
type Activation struct {
	Transit      Body          `json:"transit_body"`
	Target       TransitTarget `json:"target"`
	Aspect       AspectType    `json:"aspect"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	Peak         time.Time     `json:"peak"`
	TransitHouse int           `json:"transit_house"` // house of transit body at Start
	NatalHouse   int           `json:"natal_house"`
	Strength     float64       `json:"strength"` // 0..100

	// Secondary metadata.
	CoConjunct    []Body `json:"co_conjunct,omitempty"`
	BAVPoints     int    `json:"bav_points,omitempty"`
	SAVPoints     int    `json:"sav_points,omitempty"`
	KarmicTrigger bool   `json:"karmic_trigger,omitempty"`
	VedhaDir      string `json:"vedha_direction,omitempty"`
	Quality       string `json:"quality,omitempty"` // Good/Average/Challenging after BAV override
	Label         string `json:"label,omitempty"`   // e.g. "learning phase" re-label
}

// ScanResult is the output of one transit scan.
type ScanResult struct {
	Start       time.Time    `json:"window_start"`
	End         time.Time    `json:"window_end"`
	StepDays    int          `json:"step_days"`
	Activations []Activation `json:"activations"`
	Partial     bool         `json:"partial,omitempty"` // true when cancelled mid-scan
}

// MarketPeriod is a sector bullish/bearish forecast window derived from
// slow-body transits over the sector's ruling significations.
type MarketPeriod struct {
	Sector    string    `json:"sector"`
	Ruler     Body      `json:"ruler"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Trend     string    `json:"trend"` // "bullish" | "bearish"
	Intensity float64   `json:"intensity"`
	Reason    string    `json:"reason"`
}
