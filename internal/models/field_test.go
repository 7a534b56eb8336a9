package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldAccessAndClone(t *testing.T) {
	f := NewField(2, 3)
	f.Set(1, 2, 7)
	assert.Equal(t, 7.0, f.Data[5])
	assert.Equal(t, 7.0, f.At(1, 2))

	c := f.Clone()
	c.Set(1, 2, 1)
	assert.Equal(t, 7.0, f.At(1, 2))
}

func TestComplexFromRealAndBack(t *testing.T) {
	f := &Field{Data: []float64{1, -2, 3, 4}, Rows: 2, Cols: 2}
	c := ComplexFromReal(f)
	assert.Equal(t, complex(-2, 0), c.At(0, 1))

	c.Set(1, 1, complex(5, 6))
	assert.Equal(t, []float64{1, -2, 3, 5}, c.Real().Data)
	assert.Equal(t, 4.0, f.At(1, 1))
}

func TestRectBounds(t *testing.T) {
	row0, col0, row1, col1 := Rect{Top: 9, Left: 2, Bottom: 3, Right: 8}.Bounds()
	assert.Equal(t, []int{3, 2, 9, 8}, []int{row0, col0, row1, col1})
}

func TestRectFromCentered(t *testing.T) {
	r := Rect{Top: -10, Left: -5, Bottom: 10, Right: 5}.FromCentered(64, 33)
	assert.Equal(t, Rect{Top: 22, Left: 11, Bottom: 42, Right: 21}, r)
}
