// Package ashtakavarga computes Bhinnashtakavarga (per-planet bindu charts)
// and the Sarvashtakavarga sum used for transit scoring.
package ashtakavarga

import (
	"github.com/saptarishi/jyotishai/pkg/models"
)

// ascendant is a pseudo-contributor slot for the lagna.
const ascendant models.Body = -1

var contributors = []models.Body{
	models.Sun, models.Moon, models.Mars, models.Mercury,
	models.Jupiter, models.Venus, models.Saturn, ascendant,
}

// bindu holds, for each planet's varga, the auspicious house counts each
// contributor grants, counted inclusively from the contributor's sign.
// Tables per Parashara.
var bindu = map[models.Body]map[models.Body][]int{
	models.Sun: {
		models.Sun:     {1, 2, 4, 7, 8, 9, 10, 11},
		models.Moon:    {3, 6, 10, 11},
		models.Mars:    {1, 2, 4, 7, 8, 9, 10, 11},
		models.Mercury: {3, 5, 6, 9, 10, 11, 12},
		models.Jupiter: {5, 6, 9, 11},
		models.Venus:   {6, 7, 12},
		models.Saturn:  {1, 2, 4, 7, 8, 9, 10, 11},
		ascendant:      {3, 4, 6, 10, 11, 12},
	},
	models.Moon: {
		models.Sun:     {3, 6, 7, 8, 10, 11},
		models.Moon:    {1, 3, 6, 7, 10, 11},
		models.Mars:    {2, 3, 5, 6, 9, 10, 11},
		models.Mercury: {1, 3, 4, 5, 7, 8, 10, 11},
		models.Jupiter: {1, 4, 7, 8, 10, 11, 12},
		models.Venus:   {3, 4, 5, 7, 9, 10, 11},
		models.Saturn:  {3, 5, 6, 11},
		ascendant:      {3, 6, 10, 11},
	},
	models.Mars: {
		models.Sun:     {3, 5, 6, 10, 11},
		models.Moon:    {3, 6, 11},
		models.Mars:    {1, 2, 4, 7, 8, 10, 11},
		models.Mercury: {3, 5, 6, 11},
		models.Jupiter: {6, 10, 11, 12},
		models.Venus:   {6, 8, 11, 12},
		models.Saturn:  {1, 4, 7, 8, 9, 10, 11},
		ascendant:      {1, 3, 6, 10, 11},
	},
	models.Mercury: {
		models.Sun:     {5, 6, 9, 11, 12},
		models.Moon:    {2, 4, 6, 8, 10, 11},
		models.Mars:    {1, 2, 4, 7, 8, 9, 10, 11},
		models.Mercury: {1, 3, 5, 6, 9, 10, 11, 12},
		models.Jupiter: {6, 8, 11, 12},
		models.Venus:   {1, 2, 3, 4, 5, 8, 9, 11},
		models.Saturn:  {1, 2, 4, 7, 8, 9, 10, 11},
		ascendant:      {1, 2, 4, 6, 8, 10, 11},
	},
	models.Jupiter: {
		models.Sun:     {1, 2, 3, 4, 7, 8, 9, 10, 11},
		models.Moon:    {2, 5, 7, 9, 11},
		models.Mars:    {1, 2, 4, 7, 8, 10, 11},
		models.Mercury: {1, 2, 4, 5, 6, 9, 10, 11},
		models.Jupiter: {1, 2, 3, 4, 7, 8, 10, 11},
		models.Venus:   {2, 5, 6, 9, 10, 11},
		models.Saturn:  {3, 5, 6, 12},
		ascendant:      {1, 2, 4, 5, 6, 7, 9, 10, 11},
	},
	models.Venus: {
		models.Sun:     {8, 11, 12},
		models.Moon:    {1, 2, 3, 4, 5, 8, 9, 11, 12},
		models.Mars:    {3, 4, 6, 9, 11, 12},
		models.Mercury: {3, 5, 6, 9, 11},
		models.Jupiter: {5, 8, 9, 10, 11},
		models.Venus:   {1, 2, 3, 4, 5, 8, 9, 10, 11},
		models.Saturn:  {3, 4, 5, 8, 9, 10, 11},
		ascendant:      {1, 2, 3, 4, 5, 8, 9, 11},
	},
	models.Saturn: {
		models.Sun:     {1, 2, 4, 7, 8, 10, 11},
		models.Moon:    {3, 6, 11},
		models.Mars:    {3, 5, 6, 10, 11, 12},
		models.Mercury: {6, 8, 9, 10, 11, 12},
		models.Jupiter: {5, 6, 11, 12},
		models.Venus:   {6, 11, 12},
		models.Saturn:  {3, 5, 6, 11},
		ascendant:      {1, 3, 4, 6, 10, 11},
	},
}

// BAV is the 12-sign bindu chart of one planet (index 0 = Aries).
type BAV [12]int

// Chart holds every bhinnashtakavarga plus the sarvashtakavarga totals.
type Chart struct {
	BAV map[models.Body]BAV `json:"bav"`
	SAV [12]int             `json:"sav"`
}

// contributorSign resolves a contributor's placement sign in the chart.
func contributorSign(c *models.NatalChart, contrib models.Body) (int, bool) {
	if contrib == ascendant {
		return c.AscSign, true
	}
	p, ok := c.Planets[contrib]
	if !ok {
		return 0, false
	}
	return p.Sign, true
}

// Bhinna computes the bindu chart of a single planet.
func Bhinna(c *models.NatalChart, planet models.Body) (BAV, bool) {
	table, ok := bindu[planet]
	if !ok {
		return BAV{}, false
	}
	var out BAV
	for _, contrib := range contributors {
		sign, ok := contributorSign(c, contrib)
		if !ok {
			continue
		}
		for _, h := range table[contrib] {
			out[(sign+h-1)%12]++
		}
	}
	return out, true
}

// Compute builds all seven bhinnashtakavargas and their sarva sum.
func Compute(c *models.NatalChart) Chart {
	out := Chart{BAV: make(map[models.Body]BAV, 7)}
	for planet := range bindu {
		bav, _ := Bhinna(c, planet)
		out.BAV[planet] = bav
		for i, v := range bav {
			out.SAV[i] += v
		}
	}
	return out
}

// PointsAt returns the bindus a planet holds in a sign, false when the
// planet carries no varga (nodes and the ascendant).
func (ch Chart) PointsAt(planet models.Body, sign int) (int, bool) {
	bav, ok := ch.BAV[planet]
	if !ok {
		return 0, false
	}
	return bav[((sign%12)+12)%12], true
}

// SAVAt returns the sarvashtakavarga total of a sign.
func (ch Chart) SAVAt(sign int) int {
	return ch.SAV[((sign%12)+12)%12]
}
