package dsp

// Fractional sample readers used by the sample playback path. All three read
// around index i with fractional position frac in [0,1) and clamp their
// neighbor taps to the slice bounds, so callers can hand over raw cursors.

func tap(s []float32, i int) float32 {
	if i < 0 {
		i = 0
	}
	if i >= len(s) {
		i = len(s) - 1
	}
	return s[i]
}

// InterpolateLinear reads between s[i] and s[i+1].
func InterpolateLinear(s []float32, i int, frac float32) float32 {
	x0 := tap(s, i)
	x1 := tap(s, i+1)
	return x0 + frac*(x1-x0)
}

// InterpolateHermite3 reads a 4-point, 3rd-order Hermite segment around s[i].
// The curve passes exactly through the samples at integer positions.
func InterpolateHermite3(s []float32, i int, frac float32) float32 {
	xm1 := tap(s, i-1)
	x0 := tap(s, i)
	x1 := tap(s, i+1)
	x2 := tap(s, i+2)

	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2.0*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*frac+c2)*frac+c1)*frac + x0
}

// InterpolateBspline3 reads a 4-point cubic B-spline segment around s[i].
// Aliasing decays faster than Hermite but integer positions are smoothed.
func InterpolateBspline3(s []float32, i int, frac float32) float32 {
	xm1 := tap(s, i-1)
	x0 := tap(s, i)
	x1 := tap(s, i+1)
	x2 := tap(s, i+2)

	ym1px1 := xm1 + x1
	c0 := (1.0/6.0)*ym1px1 + (2.0/3.0)*x0
	c1 := 0.5 * (x1 - xm1)
	c2 := 0.5*ym1px1 - x0
	c3 := 0.5*(x0-x1) + (1.0/6.0)*(x2-xm1)
	return ((c3*frac+c2)*frac+c1)*frac + c0
}
