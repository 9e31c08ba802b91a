// Package models defines the shared domain types for jyotish.ai:
// birth coordinates, planetary positions, natal and divisional charts,
// dasha periods, transit activations and panchang elements.
package models

import "fmt"

// Body identifies one of the nine grahas used in Vedic astrology.
// Rahu and Ketu are shadow points; Ketu is always Rahu + 180°.
type Body int

const (
	Sun Body = iota
	Moon
	Mars
	Mercury
	Jupiter
	Venus
	Saturn
	Rahu
	Ketu
)

// Bodies lists all nine grahas in canonical order.
var Bodies = []Body{Sun, Moon, Mars, Mercury, Jupiter, Venus, Saturn, Rahu, Ketu}

// VisibleBodies are the seven non-shadow grahas (used by Shadbala and
// Ashtakavarga, which exclude the nodes).
var VisibleBodies = []Body{Sun, Moon, Mars, Mercury, Jupiter, Venus, Saturn}

var bodyNames = [...]string{"Sun", "Moon", "Mars", "Mercury", "Jupiter", "Venus", "Saturn", "Rahu", "Ketu"}

func (b Body) String() string {
	if b < Sun || b > Ketu {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyNames[b]
}

// MarshalText makes Body usable as a JSON object key and value.
func (b Body) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText parses a canonical body name.
func (b *Body) UnmarshalText(text []byte) error {
	for i, n := range bodyNames {
		if n == string(text) {
			*b = Body(i)
			return nil
		}
	}
	return fmt.Errorf("models: unknown body %q", string(text))
}

// ParseBody resolves a body by its canonical English name.
func ParseBody(name string) (Body, error) {
	var b Body
	if err := b.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return b, nil
}

// IsNode reports whether the body is Rahu or Ketu.
func (b Body) IsNode() bool { return b == Rahu || b == Ketu }

// IsBenefic reports the natural benefic/malefic classification.
// Mercury and the Moon are treated as benefic in their natural state;
// conditional benefic rules live in the analysis packages.
func (b Body) IsBenefic() bool {
	switch b {
	case Jupiter, Venus, Mercury, Moon:
		return true
	default:
		return false
	}
}

// SignName returns the English name of a 0-indexed sidereal sign (Aries=0).
func SignName(sign int) string {
	names := [...]string{"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
		"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces"}
	return names[((sign%12)+12)%12]
}

// SignLord returns the classical ruler of a 0-indexed sign.
func SignLord(sign int) Body {
	lords := [...]Body{Mars, Venus, Mercury, Moon, Sun, Mercury,
		Venus, Mars, Jupiter, Saturn, Saturn, Jupiter}
	return lords[((sign%12)+12)%12]
}

// SignQuality classifies a sign as movable, fixed or dual.
type SignQuality int

const (
	Movable SignQuality = iota
	Fixed
	Dual
)

// QualityOf returns the chara/sthira/dvisvabhava quality of a sign.
func QualityOf(sign int) SignQuality {
	switch ((sign % 12) + 12) % 12 % 3 {
	case 0:
		return Movable
	case 1:
		return Fixed
	default:
		return Dual
	}
}

// OddSign reports whether a 0-indexed sign is odd (Aries, Gemini, ... in the
// classical 1-indexed sense, i.e. index 0, 2, 4, ...).
func OddSign(sign int) bool { return ((sign%12)+12)%12%2 == 0 }
