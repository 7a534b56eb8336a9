package gpa

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"gpastrain/pkg/spectral"
)

// ringTop is the number of brightest cells averaged per radius
const ringTop = 10

// GVectorRadius estimates the distance, in spectrum pixels, from the centre
// to the dominant ring of Bragg spots. It scans the log power spectrum of
// the Hann-windowed image ring by ring, skips the central peak and returns
// the brightest remaining ring, weighted towards small radii.
func (e *Engine) GVectorRadius() int {
	rows, cols := e.image.Rows, e.image.Cols
	half := min(rows, cols) / 2

	windowed := spectral.HannWindow(e.image)
	e.plan.Forward(windowed.Data, windowed.Data)
	ps := spectral.PowerSpectrum(windowed)

	x0, y0 := cols/2, rows/2
	centre := ps.At(y0, x0)
	if centre <= 0 {
		centre = 1
	}

	var curve []float64
	var vals []float64
	for r := 1; r < min(rows, cols)/4-1; r++ {
		vals = vals[:0]
		for j := max(0, y0-r-1); j <= min(rows-1, y0+r+1); j++ {
			for i := max(0, x0-r-1); i <= min(cols-1, x0+r+1); i++ {
				d := math.Hypot(float64(i-x0), float64(j-y0))
				if d > float64(r-1) && d < float64(r+1) {
					vals = append(vals, ps.Data[j*cols+i])
				}
			}
		}

		sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
		n := min(len(vals), ringTop)
		var av float64
		if n > 0 {
			av = floats.Sum(vals[:n]) / (float64(n) * centre)
		}
		curve = append(curve, av)
	}

	if len(curve) == 0 {
		return half
	}

	floats.AddConst(-floats.Min(curve), curve)
	top := floats.Max(curve)
	if top == 0 {
		return half
	}
	floats.Scale(1/top, curve)

	// drop the shoulder of the central peak
	inner := 0
	for i := range curve {
		if curve[i] < 0.9 {
			inner = i
			break
		}
		curve[i] = 0
	}

	for i := range curve {
		curve[i] *= float64(len(curve) - i)
	}

	// curve[0] is radius 1
	return inner + floats.MaxIdx(curve[inner:]) + 1
}

// SigmaForRadius returns the default mask width for a g-vector search radius
func SigmaForRadius(radius float64) float64 {
	return radius / 6
}
