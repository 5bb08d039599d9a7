package crs

import "math"

// Transverse Mercator on the WGS84 ellipsoid with the standard UTM
// parameters (k0=0.9996, 500km false easting). Series expansions follow
// Snyder, Map Projections: A Working Manual, eqs. 3-21/8-9..8-25; the
// truncation error is well under a millimeter anywhere inside a zone.

const (
	wgs84A  = 6378137.0
	wgs84F  = 1 / 298.257223563
	utmK0   = 0.9996
	falseE  = 500000.0
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

var (
	e2  = wgs84F * (2 - wgs84F) // first eccentricity squared
	e4  = e2 * e2
	e6  = e4 * e2
	ep2 = e2 / (1 - e2) // second eccentricity squared
	e1  = (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
)

// meridianArc is the distance along the meridian from the equator to
// latitude phi.
func meridianArc(phi float64) float64 {
	return wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// utmForward maps lon/lat degrees to easting/northing meters relative to
// the central meridian lon0 (radians). Northing is unshifted; the caller
// applies the southern-hemisphere false northing.
func utmForward(lonDeg, latDeg, lon0 float64) (easting, northing float64) {
	phi := latDeg * deg2rad
	lam := lonDeg * deg2rad

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := wgs84A / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := (lam - lon0) * cosPhi
	m := meridianArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	easting = falseE + utmK0*n*(a+
		(1-t+c)*a3/6+
		(5-18*t+t*t+72*c-58*ep2)*a5/120)

	northing = utmK0 * (m + n*tanPhi*(a2/2+
		(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))
	return easting, northing
}

// utmInverse maps easting/northing meters (northing already stripped of
// any false northing) back to lon/lat degrees.
func utmInverse(easting, northing, lon0 float64) (lonDeg, latDeg float64) {
	m := northing / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	oneMinus := 1 - e2*sinPhi1*sinPhi1
	n1 := wgs84A / math.Sqrt(oneMinus)
	r1 := wgs84A * (1 - e2) / (oneMinus * math.Sqrt(oneMinus))
	d := (easting - falseE) / (n1 * utmK0)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tanPhi1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)

	lam := lon0 + (d-
		(1+2*t1+c1)*d3/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120)/cosPhi1

	return lam * rad2deg, phi * rad2deg
}
