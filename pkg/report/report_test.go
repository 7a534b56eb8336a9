package report

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"gpastrain/internal/models"
	"gpastrain/pkg/gpa"
)

func TestSummarize(t *testing.T) {
	f := &models.Field{Data: []float64{
		9, 9, 9, 9,
		9, 1, 2, 9,
		9, 3, 4, 9,
		9, 9, 9, 9,
	}, Rows: 4, Cols: 4}

	got := Summarize(f, 1)
	want := FieldStats{
		Min:    1,
		Max:    4,
		Mean:   2.5,
		Median: 2,
		StdDev: math.Sqrt(5.0 / 3),
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, FieldStats{}, Summarize(f, 2))
}

func latticeEngine(t *testing.T) *gpa.Engine {
	t.Helper()
	const n = 32
	img := models.NewComplexField(n, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v := math.Cos(2*math.Pi*4*float64(i)/n) + math.Cos(2*math.Pi*4*float64(j)/n)
			img.Set(j, i, complex(v, 0))
		}
	}
	e, err := gpa.New(img, gpa.WithWorkers(1))
	require.NoError(t, err)
	return e
}

func TestBuildRequiresTensor(t *testing.T) {
	_, err := Build(latticeEngine(t), 0, 0)
	assert.ErrorIs(t, err, ErrNoTensor)
}

func TestBuildAndWrite(t *testing.T) {
	e := latticeEngine(t)
	require.NoError(t, e.CalculatePhase(0, 4, 0, 1))
	require.NoError(t, e.CalculatePhase(1, 0, 4, 1))
	require.NoError(t, e.CalculateDistortion(0, gpa.Strain))

	r, err := Build(e, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, "Strain", r.Mode)
	assert.Equal(t, 32, r.Width)
	require.Len(t, r.GVectors, 2)
	assert.Equal(t, models.Coord2D[float64]{X: 0.125, Y: 0}, r.GVectors[0].Fractional)
	assert.ElementsMatch(t, []string{"epsxx", "epsxy", "epsyy"}, keys(r.Fields))
	assert.InDelta(t, 0, r.Fields["epsxx"].Max, 1e-6)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	if diff := cmp.Diff(*r, decoded); diff != "" {
		t.Errorf("report round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, buf.String(), "gvectors:")

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, r.Save(path))
}

func keys(m map[string]FieldStats) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
