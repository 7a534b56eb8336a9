package models

// Field is a real-valued 2D grid stored in row-major order
type Field struct {
	// Data holds Rows*Cols values, row after row
	Data []float64

	// Rows is the number of rows (image height)
	Rows int

	// Cols is the number of columns (image width)
	Cols int
}

// NewField allocates a zeroed field
func NewField(rows, cols int) *Field {
	return &Field{
		Data: make([]float64, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// At returns the value at (row, col)
func (f *Field) At(row, col int) float64 {
	return f.Data[row*f.Cols+col]
}

// Set stores v at (row, col)
func (f *Field) Set(row, col int, v float64) {
	f.Data[row*f.Cols+col] = v
}

// Clone returns a deep copy of the field
func (f *Field) Clone() *Field {
	c := NewField(f.Rows, f.Cols)
	copy(c.Data, f.Data)
	return c
}

// ComplexField is a complex-valued 2D grid stored in row-major order.
// Images and spectra are both carried as complex fields.
type ComplexField struct {
	Data []complex128
	Rows int
	Cols int
}

// NewComplexField allocates a zeroed complex field
func NewComplexField(rows, cols int) *ComplexField {
	return &ComplexField{
		Data: make([]complex128, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// ComplexFromReal promotes a real field to a complex one with zero imaginary part
func ComplexFromReal(f *Field) *ComplexField {
	c := NewComplexField(f.Rows, f.Cols)
	for i, v := range f.Data {
		c.Data[i] = complex(v, 0)
	}
	return c
}

// At returns the value at (row, col)
func (c *ComplexField) At(row, col int) complex128 {
	return c.Data[row*c.Cols+col]
}

// Set stores v at (row, col)
func (c *ComplexField) Set(row, col int, v complex128) {
	c.Data[row*c.Cols+col] = v
}

// Clone returns a deep copy of the field
func (c *ComplexField) Clone() *ComplexField {
	out := NewComplexField(c.Rows, c.Cols)
	copy(out.Data, c.Data)
	return out
}

// Real returns the real part of every cell
func (c *ComplexField) Real() *Field {
	f := NewField(c.Rows, c.Cols)
	for i, v := range c.Data {
		f.Data[i] = real(v)
	}
	return f
}

// Coord2D is a plain coordinate pair
type Coord2D[T int | float64] struct {
	X, Y T
}

// Rect selects a rectangular region of a field. Corners may be given in any
// order; the selected rows are [min(Top,Bottom), max(Top,Bottom)) and the
// selected columns [min(Left,Right), max(Left,Right)).
type Rect struct {
	Top    int `yaml:"top"`
	Left   int `yaml:"left"`
	Bottom int `yaml:"bottom"`
	Right  int `yaml:"right"`
}

// Bounds returns the half-open row and column ranges covered by r
func (r Rect) Bounds() (row0, col0, row1, col1 int) {
	row0, row1 = r.Top, r.Bottom
	if row0 > row1 {
		row0, row1 = row1, row0
	}
	col0, col1 = r.Left, r.Right
	if col0 > col1 {
		col0, col1 = col1, col0
	}
	return row0, col0, row1, col1
}

// FromCentered converts a rectangle picked in image-centred coordinates
// (origin at rows/2, cols/2) into array indices.
func (r Rect) FromCentered(rows, cols int) Rect {
	rowMid := rows / 2
	colMid := cols / 2
	return Rect{
		Top:    r.Top + rowMid,
		Left:   r.Left + colMid,
		Bottom: r.Bottom + rowMid,
		Right:  r.Right + colMid,
	}
}
