package ephemeris

import (
	"math"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// kernel evaluates truncated analytic series over osculating Keplerian
// elements (Schlyter's formulation, with the classical perturbation terms
// for the Moon, Jupiter and Saturn). Accuracy is a few arc minutes for the
// planets and ~2 arc minutes for the Moon, stable over years 600..2400.
type kernel struct {
	ayanamsaBase float64
	node         NodeMode
}

// elements holds Keplerian elements at a day number d relative to the
// epoch 2000-01-00.0 (JD 2451543.5).
type elements struct {
	N, i, w, a, e, M float64
}

const schlyterEpoch = 2451543.5

func dayNumber(jd float64) float64 { return jd - schlyterEpoch }

func elementsOf(b models.Body, d float64) elements {
	switch b {
	case models.Sun:
		return elements{0, 0, 282.9404 + 4.70935e-5*d, 1.0, 0.016709 - 1.151e-9*d, 356.0470 + 0.9856002585*d}
	case models.Moon:
		return elements{125.1228 - 0.0529538083*d, 5.1454, 318.0634 + 0.1643573223*d, 60.2666, 0.054900, 115.3654 + 13.0649929509*d}
	case models.Mercury:
		return elements{48.3313 + 3.24587e-5*d, 7.0047 + 5.00e-8*d, 29.1241 + 1.01444e-5*d, 0.387098, 0.205635 + 5.59e-10*d, 168.6562 + 4.0923344368*d}
	case models.Venus:
		return elements{76.6799 + 2.46590e-5*d, 3.3946 + 2.75e-8*d, 54.8910 + 1.38374e-5*d, 0.723330, 0.006773 - 1.302e-9*d, 48.0052 + 1.6021302244*d}
	case models.Mars:
		return elements{49.5574 + 2.11081e-5*d, 1.8497 - 1.78e-8*d, 286.5016 + 2.92961e-5*d, 1.523688, 0.093405 + 2.516e-9*d, 18.6021 + 0.5240207766*d}
	case models.Jupiter:
		return elements{100.4542 + 2.76854e-5*d, 1.3030 - 1.557e-7*d, 273.8777 + 1.64505e-5*d, 5.20256, 0.048498 + 4.469e-9*d, 19.8950 + 0.0830853001*d}
	case models.Saturn:
		return elements{113.6634 + 2.38980e-5*d, 2.4886 - 1.081e-7*d, 339.3939 + 2.97661e-5*d, 9.55475, 0.055546 - 9.499e-9*d, 316.9670 + 0.0334442282*d}
	}
	return elements{}
}

// eccentricAnomaly solves Kepler's equation by Newton iteration.
func eccentricAnomaly(M, e float64) float64 {
	Mr := deg2rad(norm360(M))
	E := Mr + e*math.Sin(Mr)*(1+e*math.Cos(Mr))
	for i := 0; i < 12; i++ {
		dE := (E - e*math.Sin(E) - Mr) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}

// heliocentric returns ecliptic rectangular coordinates from elements.
func heliocentric(el elements) (x, y, z, r float64) {
	E := eccentricAnomaly(el.M, el.e)
	xv := el.a * (math.Cos(E) - el.e)
	yv := el.a * math.Sqrt(1-el.e*el.e) * math.Sin(E)
	v := math.Atan2(yv, xv)
	r = math.Hypot(xv, yv)

	N := deg2rad(norm360(el.N))
	i := deg2rad(el.i)
	w := deg2rad(norm360(el.w))

	x = r * (math.Cos(N)*math.Cos(v+w) - math.Sin(N)*math.Sin(v+w)*math.Cos(i))
	y = r * (math.Sin(N)*math.Cos(v+w) + math.Cos(N)*math.Sin(v+w)*math.Cos(i))
	z = r * math.Sin(v+w) * math.Sin(i)
	return x, y, z, r
}

// sunTropical returns the Sun's geocentric tropical longitude in degrees.
func sunTropical(jd float64) float64 {
	d := dayNumber(jd)
	el := elementsOf(models.Sun, d)
	E := eccentricAnomaly(el.M, el.e)
	xv := math.Cos(E) - el.e
	yv := math.Sqrt(1-el.e*el.e) * math.Sin(E)
	v := rad2deg(math.Atan2(yv, xv))
	return norm360(v + el.w)
}

// sunDistance returns the Earth-Sun distance in AU.
func sunDistance(jd float64) float64 {
	d := dayNumber(jd)
	el := elementsOf(models.Sun, d)
	E := eccentricAnomaly(el.M, el.e)
	xv := math.Cos(E) - el.e
	yv := math.Sqrt(1-el.e*el.e) * math.Sin(E)
	return math.Hypot(xv, yv)
}

// moonTropical returns the Moon's geocentric tropical longitude with the
// principal perturbation terms (evection, variation, yearly equation and
// the parallactic terms).
func moonTropical(jd float64) float64 {
	d := dayNumber(jd)
	el := elementsOf(models.Moon, d)
	x, y, _, _ := heliocentric(el)
	lon := rad2deg(math.Atan2(y, x))

	sunEl := elementsOf(models.Sun, d)
	Ms := norm360(sunEl.M)
	Mm := norm360(el.M)
	Ls := norm360(Ms + sunEl.w)
	Lm := norm360(Mm + el.w + el.N)
	D := norm360(Lm - Ls)
	F := norm360(Lm - el.N)

	lon += -1.274 * sinDeg(Mm-2*D)
	lon += +0.658 * sinDeg(2*D)
	lon += -0.186 * sinDeg(Ms)
	lon += -0.059 * sinDeg(2*Mm-2*D)
	lon += -0.057 * sinDeg(Mm-2*D+Ms)
	lon += +0.053 * sinDeg(Mm+2*D)
	lon += +0.046 * sinDeg(2*D-Ms)
	lon += +0.041 * sinDeg(Mm-Ms)
	lon += -0.035 * sinDeg(D)
	lon += -0.031 * sinDeg(Mm+Ms)
	lon += -0.015 * sinDeg(2*F-2*D)
	lon += +0.011 * sinDeg(Mm-4*D)
	return norm360(lon)
}

// planetTropical returns a planet's geocentric tropical longitude.
func planetTropical(b models.Body, jd float64) float64 {
	d := dayNumber(jd)
	el := elementsOf(b, d)
	xh, yh, _, _ := heliocentric(el)

	// Great Jupiter/Saturn inequality and related long-period terms.
	if b == models.Jupiter || b == models.Saturn {
		Mj := norm360(elementsOf(models.Jupiter, d).M)
		Msat := norm360(elementsOf(models.Saturn, d).M)
		lonh := rad2deg(math.Atan2(yh, xh))
		switch b {
		case models.Jupiter:
			lonh += -0.332 * sinDeg(2*Mj-5*Msat-67.6)
			lonh += -0.056 * sinDeg(2*Mj-2*Msat+21)
			lonh += +0.042 * sinDeg(3*Mj-5*Msat+21)
			lonh += -0.036 * sinDeg(Mj-2*Msat)
			lonh += +0.022 * cosDeg(Mj-Msat)
			lonh += +0.023 * sinDeg(2*Mj-3*Msat+52)
			lonh += -0.016 * sinDeg(Mj-5*Msat-69)
		case models.Saturn:
			lonh += +0.812 * sinDeg(2*Mj-5*Msat-67.6)
			lonh += -0.229 * cosDeg(2*Mj-4*Msat-2)
			lonh += +0.119 * sinDeg(Mj-2*Msat-3)
			lonh += +0.046 * sinDeg(2*Mj-6*Msat-69)
			lonh += +0.014 * sinDeg(Mj-3*Msat+32)
		}
		rh := math.Hypot(xh, yh)
		xh = rh * cosDeg(lonh)
		yh = rh * sinDeg(lonh)
	}

	// Shift to geocentric using the Sun's rectangular position.
	slon := sunTropical(jd)
	sr := sunDistance(jd)
	xg := xh + sr*cosDeg(slon)
	yg := yh + sr*sinDeg(slon)
	return norm360(rad2deg(math.Atan2(yg, xg)))
}

// meanNodeTropical is the mean ascending lunar node.
func meanNodeTropical(jd float64) float64 {
	d := dayNumber(jd)
	return norm360(125.1228 - 0.0529538083*d)
}

// trueNodeTropical adds the dominant oscillation term (≈ ±1.45°, period
// half the draconic year) to the mean node.
func trueNodeTropical(jd float64) float64 {
	mean := meanNodeTropical(jd)
	sun := sunTropical(jd)
	return norm360(mean - 1.4579*sinDeg(2*(sun-mean)))
}

// tropicalLongitude dispatches to the per-body series.
func (k *kernel) tropicalLongitude(b models.Body, jd float64) float64 {
	switch b {
	case models.Sun:
		return sunTropical(jd)
	case models.Moon:
		return moonTropical(jd)
	case models.Rahu:
		if k.node == TrueNode {
			return trueNodeTropical(jd)
		}
		return meanNodeTropical(jd)
	case models.Ketu:
		return norm360(k.tropicalLongitude(models.Rahu, jd) + 180)
	default:
		return planetTropical(b, jd)
	}
}

// Ayanamsa implements Engine.
func (k *kernel) Ayanamsa(jd float64) float64 {
	years := (jd - J2000) / 365.25
	return k.ayanamsaBase + ayanamsaRate*years
}

// Position implements Engine. Speed is a central difference over ±12 h of
// the sidereal longitude, so the retrograde flag tracks apparent motion.
func (k *kernel) Position(b models.Body, jd float64) (models.Position, error) {
	if b < models.Sun || b > models.Ketu {
		return models.Position{}, ErrUnknownBody
	}
	if err := checkRange(jd); err != nil {
		return models.Position{}, err
	}
	lon := norm360(k.tropicalLongitude(b, jd) - k.Ayanamsa(jd))
	before := k.tropicalLongitude(b, jd-0.5)
	after := k.tropicalLongitude(b, jd+0.5)
	speed := wrapDiff(after - before)
	return models.NewPosition(lon, speed), nil
}

// SunRiseSet implements Engine. jd0 is local midnight of the civil day.
// The standard refraction altitude of -0.833° is solved via the hour-angle
// equation, then refined once against the Sun's motion during the day.
func (k *kernel) SunRiseSet(jd0, lat, lon float64) (rise, set float64, err error) {
	if err := checkRange(jd0); err != nil {
		return 0, 0, err
	}
	noonGuess := jd0 + 0.5 - lon/360
	rise, set, err = riseSetPass(noonGuess, lat, lon)
	if err != nil {
		return 0, 0, err
	}
	// Refine each event once with the declination evaluated at the event
	// itself; the Sun moves ~1°/day so a single pass converges to seconds.
	if r, _, e := riseSetPass(rise, lat, lon); e == nil {
		rise = r
	}
	if _, s, e := riseSetPass(set, lat, lon); e == nil {
		set = s
	}
	return rise, set, nil
}

func riseSetPass(noon, lat, lon float64) (rise, set float64, err error) {
	decl := sunDeclination(noon)
	const h0 = -0.833
	cosH := (sinDeg(h0) - sinDeg(lat)*sinDeg(decl)) / (cosDeg(lat) * cosDeg(decl))
	if cosH > 1 || cosH < -1 {
		return 0, 0, ErrPolarDay
	}
	H := rad2deg(math.Acos(cosH)) / 360 // fraction of a day

	// Solar transit: when the Sun crosses the local meridian.
	transit := solarTransit(noon, lon)
	return transit - H, transit + H, nil
}

// solarTransit finds the local-noon JD by iterating on the equation of time.
func solarTransit(guess, lon float64) float64 {
	jd := guess
	for i := 0; i < 4; i++ {
		ra := sunRightAscension(jd)
		lst := norm360(GMST(jd) + lon)
		delta := wrapDiff(ra - lst)
		jd += delta / 360.98564736629
	}
	return jd
}

func sunDeclination(jd float64) float64 {
	lonSun := sunTropical(jd)
	eps := Obliquity(jd)
	return rad2deg(math.Asin(sinDeg(eps) * sinDeg(lonSun)))
}

func sunRightAscension(jd float64) float64 {
	lonSun := sunTropical(jd)
	eps := Obliquity(jd)
	return norm360(rad2deg(math.Atan2(cosDeg(eps)*sinDeg(lonSun), cosDeg(lonSun))))
}

// wrapDiff reduces an angle difference to (-180, 180].
func wrapDiff(d float64) float64 {
	d = math.Mod(d, 360)
	if d <= -180 {
		d += 360
	}
	if d > 180 {
		d -= 360
	}
	return d
}

func sinDeg(d float64) float64 { return math.Sin(deg2rad(d)) }
func cosDeg(d float64) float64 { return math.Cos(deg2rad(d)) }
