// Package report summarises a finished GPA analysis.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"gpastrain/internal/models"
	"gpastrain/pkg/gpa"
)

// ErrNoTensor is returned when the engine has not computed a distortion tensor
var ErrNoTensor = errors.New("report: no distortion tensor computed")

// FieldStats summarises one tensor component
type FieldStats struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Mean   float64 `yaml:"mean"`
	Median float64 `yaml:"median"`
	StdDev float64 `yaml:"stdDev"`
}

// GVector is a refined g-vector in both of its units
type GVector struct {
	Pixels     models.Coord2D[float64] `yaml:"pixels"`
	Fractional models.Coord2D[float64] `yaml:"fractional"`
	Sigma      float64                 `yaml:"sigma"`
}

// Report is the serialisable result of an analysis
type Report struct {
	Width    int                   `yaml:"width"`
	Height   int                   `yaml:"height"`
	Mode     string                `yaml:"mode"`
	Angle    float64               `yaml:"angle"`
	Margin   int                   `yaml:"margin"`
	GVectors []GVector             `yaml:"gvectors"`
	Fields   map[string]FieldStats `yaml:"fields"`
}

// Summarize computes statistics over f, ignoring margin cells on every side
func Summarize(f *models.Field, margin int) FieldStats {
	if margin < 0 || 2*margin >= f.Rows || 2*margin >= f.Cols {
		return FieldStats{}
	}

	data := make([]float64, 0, f.Rows*f.Cols)
	for j := margin; j < f.Rows-margin; j++ {
		data = append(data, f.Data[j*f.Cols+margin:(j+1)*f.Cols-margin]...)
	}
	mean, std := stat.MeanStdDev(data, nil)
	sort.Float64s(data)
	return FieldStats{
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Mean:   mean,
		Median: stat.Quantile(0.5, stat.Empirical, data, nil),
		StdDev: std,
	}
}

// Build summarises the tensor held by e. angle is recorded as given.
// margin cells are left out of the statistics on every side.
func Build(e *gpa.Engine, angle float64, margin int) (*Report, error) {
	fields := e.Fields()
	if fields == nil {
		return nil, ErrNoTensor
	}
	size := e.Size()

	r := &Report{
		Width:  size.X,
		Height: size.Y,
		Mode:   e.Mode().String(),
		Angle:  angle,
		Margin: margin,
		Fields: make(map[string]FieldStats, len(fields)),
	}
	for i := 0; i < 2; i++ {
		p, err := e.Phase(i)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, gpa.ErrMissingPhase
		}
		r.GVectors = append(r.GVectors, GVector{
			Pixels:     p.GVectorPixels(),
			Fractional: p.GVector(),
			Sigma:      p.Sigma(),
		})
	}
	for name, f := range fields {
		r.Fields[name] = Summarize(f, margin)
	}
	return r, nil
}

// Write encodes r as YAML
func (r *Report) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("error marshaling report: %w", err)
	}
	return enc.Close()
}

// Save writes r to path
func (r *Report) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	if err := r.Write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
