// Package peaks finds Bragg spots in a power spectrum and snaps picked
// g-vectors onto the nearest one.
package peaks

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"gpastrain/internal/models"
)

// Peak is a local maximum of a power spectrum. X and Y are measured in
// pixels from the spectrum centre (cols/2, rows/2), the same frame the
// g-vectors use.
type Peak struct {
	X, Y  float64
	Value float64
}

// Compare orders two peaks along axis d: 0 is X, 1 is Y
func (p Peak) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Peak)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims is 2; peaks live in the spectrum plane
func (p Peak) Dims() int { return 2 }

// Distance is the squared pixel distance, the metric kdtree expects
func (p Peak) Distance(c kdtree.Comparable) float64 {
	q := c.(Peak)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Peaks is a list of peaks, strongest first. It is also the backing store
// the tree in Index partitions in place.
type Peaks []Peak

func (p Peaks) Index(i int) kdtree.Comparable         { return p[i] }
func (p Peaks) Len() int                              { return len(p) }
func (p Peaks) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot partitions p around a sampled median on axis d
func (p Peaks) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(peakPlane{Peaks: p, Dim: d}, kdtree.MedianOfRandoms(peakPlane{Peaks: p, Dim: d}, 100))
}

// peakPlane sorts peaks along a single axis while the tree is built
type peakPlane struct {
	Peaks
	kdtree.Dim
}

func (p peakPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Peaks[i].X < p.Peaks[j].X
	case 1:
		return p.Peaks[i].Y < p.Peaks[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p peakPlane) Slice(start, end int) kdtree.SortSlicer {
	return peakPlane{Peaks: p.Peaks[start:end], Dim: p.Dim}
}

func (p peakPlane) Swap(i, j int) {
	p.Peaks[i], p.Peaks[j] = p.Peaks[j], p.Peaks[i]
}

// Options controls peak detection
type Options struct {
	// CentreRadius excludes peaks within this distance of the centre, where
	// the zero-frequency term sits
	CentreRadius float64

	// MinRelative drops peaks below this fraction of the brightest kept peak
	MinRelative float64
}

// DefaultOptions returns detection settings suitable for log power spectra
func DefaultOptions() Options {
	return Options{
		CentreRadius: 2,
		MinRelative:  0.5,
	}
}

// Find returns the strict local maxima of ps over their 8-neighbourhood,
// brightest first
func Find(ps *models.Field, opts Options) Peaks {
	rows, cols := ps.Rows, ps.Cols
	x0, y0 := float64(cols/2), float64(rows/2)

	var found Peaks
	for j := 1; j < rows-1; j++ {
		for i := 1; i < cols-1; i++ {
			v := ps.Data[j*cols+i]
			if !isLocalMax(ps, j, i, v) {
				continue
			}

			p := Peak{X: float64(i) - x0, Y: float64(j) - y0, Value: v}
			if math.Hypot(p.X, p.Y) <= opts.CentreRadius {
				continue
			}
			found = append(found, p)
		}
	}

	sort.Slice(found, func(a, b int) bool { return found[a].Value > found[b].Value })
	if len(found) == 0 {
		return nil
	}

	limit := opts.MinRelative * found[0].Value
	n := sort.Search(len(found), func(k int) bool { return found[k].Value < limit })
	return found[:n]
}

func isLocalMax(ps *models.Field, j, i int, v float64) bool {
	for dj := -1; dj <= 1; dj++ {
		for di := -1; di <= 1; di++ {
			if dj == 0 && di == 0 {
				continue
			}
			if ps.Data[(j+dj)*ps.Cols+i+di] >= v {
				return false
			}
		}
	}
	return true
}

// Index answers nearest-peak queries
type Index struct {
	tree *kdtree.Tree
}

// NewIndex builds a KD-tree over peaks. The slice is reordered.
func NewIndex(peaks Peaks) *Index {
	ix := &Index{}
	if len(peaks) > 0 {
		ix.tree = kdtree.New(peaks, true)
	}
	return ix
}

// Nearest returns the peak closest to (x, y) if it lies within maxDist
func (ix *Index) Nearest(x, y, maxDist float64) (Peak, bool) {
	if ix.tree == nil {
		return Peak{}, false
	}

	c, d := ix.tree.Nearest(Peak{X: x, Y: y})
	if c == nil || d > maxDist*maxDist {
		return Peak{}, false
	}
	return c.(Peak), true
}

// Snap moves pick onto the nearest peak within maxDist, or returns it
// unchanged when there is none
func (ix *Index) Snap(pick models.Coord2D[float64], maxDist float64) models.Coord2D[float64] {
	p, ok := ix.Nearest(pick.X, pick.Y, maxDist)
	if !ok {
		return pick
	}
	return models.Coord2D[float64]{X: p.X, Y: p.Y}
}
