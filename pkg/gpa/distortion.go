package gpa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gpastrain/internal/models"
	"gpastrain/internal/parallel"
)

// rotationMatrix returns the 2x2 rotation for angle degrees,
// [[cos, sin], [-sin, cos]]
func rotationMatrix(angle float64) [2][2]float64 {
	rad := angle * math.Pi / 180
	s, c := math.Sincos(rad)
	return [2][2]float64{
		{c, s},
		{-s, c},
	}
}

// basisInverse inverts G = [[g1x, g1y], [g2x, g2y]] and rotates the result
// by angle degrees
func basisInverse(g1, g2 models.Coord2D[float64], angle float64) ([2][2]float64, error) {
	var out [2][2]float64

	g := mat.NewDense(2, 2, []float64{
		g1.X, g1.Y,
		g2.X, g2.Y,
	})
	if mat.Det(g) == 0 {
		return out, fmt.Errorf("%w: g1=(%g,%g) g2=(%g,%g)", ErrDegenerateBasis, g1.X, g1.Y, g2.X, g2.Y)
	}

	var a mat.Dense
	if err := a.Inverse(g); err != nil {
		return out, fmt.Errorf("%w: %v", ErrDegenerateBasis, err)
	}

	rot := rotationMatrix(angle)
	r := mat.NewDense(2, 2, []float64{
		rot[0][0], rot[0][1],
		rot[1][0], rot[1][1],
	})
	var ra mat.Dense
	ra.Mul(r, &a)

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = ra.At(i, j)
		}
	}
	return out, nil
}

// CalculateDistortion combines the gradients of both phases into the
// distortion tensor, rotated by angle degrees, and reduces it according to
// mode. On error the previously computed tensor is kept.
func (e *Engine) CalculateDistortion(angle float64, mode Mode) error {
	p1, p2 := e.phases[0], e.phases[1]
	if p1 == nil || p2 == nil {
		return ErrMissingPhase
	}
	if mode < Distortion || mode > Dilatation {
		return fmt.Errorf("gpa: unknown mode %v", mode)
	}

	a, err := basisInverse(p1.GVector(), p2.GVector(), angle)
	if err != nil {
		return err
	}

	var d1x, d1y, d2x, d2y *models.Field
	parallel.Do(
		func() { d1x, d1y = p1.Differential(angle) },
		func() { d2x, d2y = p2.Differential(angle) },
	)

	factor := -1 / (2 * math.Pi)
	combine := func(c1, c2 float64, f1, f2 *models.Field) *models.Field {
		out := models.NewField(f1.Rows, f1.Cols)
		for k := range out.Data {
			out.Data[k] = factor * (c1*f1.Data[k] + c2*f2.Data[k])
		}
		return out
	}

	var exx, exy, eyx, eyy *models.Field
	parallel.Do(
		func() { exx = combine(a[0][0], a[0][1], d1x, d2x) },
		func() { exy = combine(a[0][0], a[0][1], d1y, d2y) },
		func() { eyx = combine(a[1][0], a[1][1], d1x, d2x) },
		func() { eyy = combine(a[1][0], a[1][1], d1y, d2y) },
	)

	switch mode {
	case Distortion:
	case Strain:
		for k := range exy.Data {
			s := 0.5 * (exy.Data[k] + eyx.Data[k])
			exy.Data[k] = s
			eyx.Data[k] = s
		}
	case Rotation:
		for k := range exy.Data {
			oldExy := exy.Data[k]
			exy.Data[k] = 0.5 * (oldExy - eyx.Data[k])
			eyx.Data[k] = 0.5 * (eyx.Data[k] - oldExy)
			exx.Data[k] = 0
			eyy.Data[k] = 0
		}
	case Dilatation:
		for k := range exx.Data {
			exx.Data[k] += eyy.Data[k]
			exy.Data[k] = 0
			eyx.Data[k] = 0
			eyy.Data[k] = 0
		}
	}

	e.exx, e.exy, e.eyx, e.eyy = exx, exy, eyx, eyy
	e.mode = mode
	return nil
}
