package ephemeris

import "math"

// TropicalAscendant returns the tropical ecliptic longitude rising on the
// eastern horizon for a JD in UT at the given geographic position. Callers
// subtract the ayanamsa to obtain the sidereal lagna.
func TropicalAscendant(jd, lat, lon float64) float64 {
	ramc := deg2rad(norm360(GMST(jd) + lon))
	eps := deg2rad(Obliquity(jd))
	phi := deg2rad(lat)

	y := -math.Cos(ramc)
	x := math.Sin(ramc)*math.Cos(eps) + math.Tan(phi)*math.Sin(eps)
	asc := norm360(rad2deg(math.Atan2(y, x)))
	return asc
}

// MidheavenTropical returns the tropical MC longitude for a JD in UT at the
// given geographic longitude.
func MidheavenTropical(jd, lon float64) float64 {
	ramc := deg2rad(norm360(GMST(jd) + lon))
	eps := deg2rad(Obliquity(jd))
	mc := rad2deg(math.Atan2(math.Sin(ramc), math.Cos(ramc)*math.Cos(eps)))
	return norm360(mc)
}
