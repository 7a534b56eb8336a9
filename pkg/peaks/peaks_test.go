package peaks

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpastrain/internal/models"
	"gpastrain/internal/parallel"
	"gpastrain/pkg/spectral"
)

// spotField returns a 32x32 field with a bright centre, two strong spots
// and one weak spot
func spotField() *models.Field {
	f := models.NewField(32, 32)
	f.Set(16, 16, 10) // centre
	f.Set(16, 17, 9)
	f.Set(16, 24, 4) // (+8, 0)
	f.Set(16, 8, 4)  // (-8, 0)
	f.Set(10, 16, 3) // (0, -6)
	f.Set(20, 20, 1) // (+4, +4), weak
	return f
}

func TestFindLocalMaxima(t *testing.T) {
	found := Find(spotField(), DefaultOptions())

	want := Peaks{
		{X: 8, Y: 0, Value: 4},
		{X: -8, Y: 0, Value: 4},
		{X: 0, Y: -6, Value: 3},
	}
	// equal values may come back in either order
	byPosition := cmp.Transformer("byPosition", func(in Peaks) map[[2]float64]float64 {
		out := make(map[[2]float64]float64, len(in))
		for _, p := range in {
			out[[2]float64{p.X, p.Y}] = p.Value
		}
		return out
	})
	if diff := cmp.Diff(want, found, byPosition); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
	assert.GreaterOrEqual(t, found[0].Value, found[len(found)-1].Value)
}

func TestFindKeepsWeakPeaksWithoutThreshold(t *testing.T) {
	found := Find(spotField(), Options{CentreRadius: 2})
	assert.Len(t, found, 4)
}

func TestFindEmpty(t *testing.T) {
	assert.Nil(t, Find(models.NewField(8, 8), DefaultOptions()))
}

func TestIndexNearestAndSnap(t *testing.T) {
	ix := NewIndex(Find(spotField(), DefaultOptions()))

	p, ok := ix.Nearest(7.2, 0.6, 2)
	require.True(t, ok)
	assert.Equal(t, Peak{X: 8, Y: 0, Value: 4}, p)

	_, ok = ix.Nearest(3, 3, 2)
	assert.False(t, ok)

	got := ix.Snap(models.Coord2D[float64]{X: 0.5, Y: -5}, 3)
	assert.Equal(t, models.Coord2D[float64]{X: 0, Y: -6}, got)

	pick := models.Coord2D[float64]{X: 12, Y: 12}
	assert.Equal(t, pick, ix.Snap(pick, 3))
}

// TestIndexMatchesLinearScan builds a tree over scattered peaks and checks
// every lookup against a brute-force search
func TestIndexMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	all := make(Peaks, 300)
	for k := range all {
		all[k] = Peak{X: rng.Float64()*128 - 64, Y: rng.Float64()*96 - 48, Value: rng.Float64()}
	}
	ix := NewIndex(append(Peaks(nil), all...))

	for q := 0; q < 100; q++ {
		x, y := rng.Float64()*128-64, rng.Float64()*96-48

		want := all[0]
		for _, p := range all[1:] {
			if math.Hypot(p.X-x, p.Y-y) < math.Hypot(want.X-x, want.Y-y) {
				want = p
			}
		}

		got, ok := ix.Nearest(x, y, 1000)
		require.True(t, ok)
		assert.Equal(t, want, got, "query (%.3f, %.3f)", x, y)
	}
}

func TestCompareRejectsUnknownAxis(t *testing.T) {
	assert.Panics(t, func() { Peak{}.Compare(Peak{}, 2) })
}

func TestEmptyIndex(t *testing.T) {
	ix := NewIndex(nil)
	_, ok := ix.Nearest(0, 0, 100)
	assert.False(t, ok)
}

// TestFindOnFringeSpectrum locates the Bragg spots of a fringe pattern
func TestFindOnFringeSpectrum(t *testing.T) {
	const n = 64
	img := models.NewComplexField(n, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			img.Set(j, i, complex(1+math.Cos(2*math.Pi*6*float64(i)/n), 0))
		}
	}

	plan := spectral.NewPlan(n, n, parallel.DefaultWorkers())
	spectrum := &models.ComplexField{Data: plan.Forward(nil, img.Data), Rows: n, Cols: n}
	ix := NewIndex(Find(spectral.PowerSpectrum(spectrum), DefaultOptions()))

	p, ok := ix.Nearest(5, 1, 3)
	require.True(t, ok)
	assert.Equal(t, 6.0, p.X)
	assert.Equal(t, 0.0, p.Y)
}
