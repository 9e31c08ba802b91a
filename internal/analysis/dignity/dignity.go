// Package dignity holds the constant tables of planetary dignities:
// exaltation, debilitation, own signs, moolatrikona arcs and the natural,
// temporal and compound (panchadha maitri) friendship grids.
package dignity

import (
	"math"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// Grade is a dignity classification from strongest to weakest.
type Grade string

const (
	Exalted      Grade = "exalted"
	Moolatrikona Grade = "moolatrikona"
	OwnSign      Grade = "own"
	GreatFriend  Grade = "great_friend"
	Friend       Grade = "friend"
	Neutral      Grade = "neutral"
	Enemy        Grade = "enemy"
	GreatEnemy   Grade = "great_enemy"
	Debilitated  Grade = "debilitated"
)

// exaltation holds the exact exaltation longitude of each body; the
// debilitation point is 180° opposite.
var exaltation = map[models.Body]float64{
	models.Sun:     10,        // 10° Aries
	models.Moon:    33,        // 3° Taurus
	models.Mars:    298,       // 28° Capricorn
	models.Mercury: 165,       // 15° Virgo
	models.Jupiter: 95,        // 5° Cancer
	models.Venus:   357,       // 27° Pisces
	models.Saturn:  200,       // 20° Libra
	models.Rahu:    50,        // 20° Taurus (school-dependent)
	models.Ketu:    230,       // 20° Scorpio
}

// ExaltationPoint returns the exact exaltation longitude of b.
func ExaltationPoint(b models.Body) float64 { return exaltation[b] }

// DebilitationPoint returns the exact debilitation longitude of b.
func DebilitationPoint(b models.Body) float64 {
	return models.NormDeg(exaltation[b] + 180)
}

// moolatrikona arcs: sign plus [from, to) degree range within the sign.
var moolatrikona = map[models.Body]struct {
	sign     int
	from, to float64
}{
	models.Sun:     {4, 0, 20},
	models.Moon:    {1, 3, 30},
	models.Mars:    {0, 0, 12},
	models.Mercury: {5, 15, 20},
	models.Jupiter: {8, 0, 10},
	models.Venus:   {6, 0, 15},
	models.Saturn:  {10, 0, 20},
}

// ownSigns lists the signs each body rules.
var ownSigns = map[models.Body][]int{
	models.Sun:     {4},
	models.Moon:    {3},
	models.Mars:    {0, 7},
	models.Mercury: {2, 5},
	models.Jupiter: {8, 11},
	models.Venus:   {1, 6},
	models.Saturn:  {9, 10},
}

// naturalFriends per classical tables; bodies absent are neutral.
var naturalFriends = map[models.Body][]models.Body{
	models.Sun:     {models.Moon, models.Mars, models.Jupiter},
	models.Moon:    {models.Sun, models.Mercury},
	models.Mars:    {models.Sun, models.Moon, models.Jupiter},
	models.Mercury: {models.Sun, models.Venus},
	models.Jupiter: {models.Sun, models.Moon, models.Mars},
	models.Venus:   {models.Mercury, models.Saturn},
	models.Saturn:  {models.Mercury, models.Venus},
}

var naturalEnemies = map[models.Body][]models.Body{
	models.Sun:     {models.Venus, models.Saturn},
	models.Moon:    {},
	models.Mars:    {models.Mercury},
	models.Mercury: {models.Moon},
	models.Jupiter: {models.Mercury, models.Venus},
	models.Venus:   {models.Sun, models.Moon},
	models.Saturn:  {models.Sun, models.Moon, models.Mars},
}

// Relation captures one of friend/neutral/enemy.
type Relation int

const (
	RelEnemy Relation = iota - 1
	RelNeutral
	RelFriend
)

// Natural returns the permanent relation of a toward b.
func Natural(a, b models.Body) Relation {
	for _, f := range naturalFriends[a] {
		if f == b {
			return RelFriend
		}
	}
	for _, e := range naturalEnemies[a] {
		if e == b {
			return RelEnemy
		}
	}
	return RelNeutral
}

// Temporal returns the chart-specific relation: bodies in the 2nd, 3rd,
// 4th, 10th, 11th or 12th sign from a's sign are temporal friends, the
// rest temporal enemies.
func Temporal(aSign, bSign int) Relation {
	d := ((bSign-aSign)%12 + 12) % 12 // 0 = same sign
	switch d {
	case 1, 2, 3, 9, 10, 11:
		return RelFriend
	default:
		return RelEnemy
	}
}

// Compound combines natural and temporal relations into the five-fold
// panchadha maitri relation of a toward b.
func Compound(a, b models.Body, aSign, bSign int) Grade {
	n := Natural(a, b)
	t := Temporal(aSign, bSign)
	switch n + t {
	case 2:
		return GreatFriend
	case 1:
		return Friend
	case 0:
		return Neutral
	case -1:
		return Enemy
	default:
		return GreatEnemy
	}
}

// Of grades a body's standing in a sign at a longitude.
func Of(b models.Body, longitude float64) Grade {
	lon := models.NormDeg(longitude)
	sign := int(lon / 30)
	deg := math.Mod(lon, 30)

	if int(exaltation[b]/30) == sign {
		return Exalted
	}
	if int(DebilitationPoint(b)/30) == sign {
		return Debilitated
	}
	if mt, ok := moolatrikona[b]; ok && mt.sign == sign && deg >= mt.from && deg < mt.to {
		return Moolatrikona
	}
	for _, s := range ownSigns[b] {
		if s == sign {
			return OwnSign
		}
	}
	if b.IsNode() {
		return Neutral
	}
	switch Natural(b, models.SignLord(sign)) {
	case RelFriend:
		return Friend
	case RelEnemy:
		return Enemy
	default:
		return Neutral
	}
}

// IsOwn reports whether sign belongs to b.
func IsOwn(b models.Body, sign int) bool {
	for _, s := range ownSigns[b] {
		if s == ((sign%12)+12)%12 {
			return true
		}
	}
	return false
}

// Score maps a grade to the saptavargaja point scale used by Shadbala
// (full 30 for moolatrikona, descending to 1.875 for great enemy).
func Score(g Grade) float64 {
	switch g {
	case Exalted, Moolatrikona:
		return 30
	case OwnSign:
		return 30
	case GreatFriend:
		return 22.5
	case Friend:
		return 15
	case Neutral:
		return 7.5
	case Enemy:
		return 3.75
	case GreatEnemy:
		return 1.875
	case Debilitated:
		return 0
	}
	return 7.5
}
