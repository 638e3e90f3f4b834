package core

// Hermite4 evaluates a 4-point, 3rd-order Hermite interpolator at t in [0, 1]
// between x0 and x1, with xm1 and x2 as outer support points.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}
