// Package matrix provides a dense 2D matrix with value semantics.
//
// Every operation returns a fresh Matrix and leaves its operands untouched.
// Storage and arithmetic are delegated to gonum's mat.Dense; shape checks are
// done up front so incompatible operands yield an error instead of a panic.
package matrix

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned when input data cannot form a rectangular matrix.
	ErrShape = errors.New("malformed matrix shape")
	// ErrDimensionMismatch is returned when operands have incompatible shapes.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrIndexOutOfRange is returned on out of bounds row or element access.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Matrix is a dense rows x cols matrix stored row-major.
type Matrix struct {
	d *mat.Dense
}

// New creates a rows x cols matrix from a row-major buffer. The buffer is copied.
func New(data []float64, rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(data), rows, cols)
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return &Matrix{d: mat.NewDense(rows, cols, buf)}, nil
}

// FromRows creates a matrix from nested rows, inferring its shape.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrShape)
	}
	cols := len(rows[0])
	buf := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(r), cols)
		}
		buf = append(buf, r...)
	}
	return &Matrix{d: mat.NewDense(len(rows), cols, buf)}, nil
}

// Column creates an n x 1 column matrix from values.
func Column(values []float64) (*Matrix, error) {
	return New(values, len(values), 1)
}

// Zeros creates a rows x cols matrix of zeros.
func Zeros(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	return &Matrix{d: mat.NewDense(rows, cols, nil)}, nil
}

// Random creates a rows x cols matrix with entries drawn independently and
// uniformly from [lo, hi) using rng.
func Random(rows, cols int, rng *rand.Rand, lo, hi float64) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	buf := make([]float64, rows*cols)
	for i := range buf {
		buf[i] = lo + rng.Float64()*(hi-lo)
	}
	return &Matrix{d: mat.NewDense(rows, cols, buf)}, nil
}

func wrap(d *mat.Dense) *Matrix {
	return &Matrix{d: d}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	r, _ := m.d.Dims()
	return r
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	_, c := m.d.Dims()
	return c
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (rows, cols int) {
	return m.d.Dims()
}

// At returns the element at (i, j).
func (m *Matrix) At(i, j int) (float64, error) {
	r, c := m.d.Dims()
	if i < 0 || i >= r || j < 0 || j >= c {
		return 0, fmt.Errorf("%w: (%d, %d) in %dx%d", ErrIndexOutOfRange, i, j, r, c)
	}
	return m.d.At(i, j), nil
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	return wrap(mat.DenseCopyOf(m.d))
}

// Data returns a row-major copy of the elements.
func (m *Matrix) Data() []float64 {
	r, c := m.d.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.d.RawRowView(i)...)
	}
	return out
}

// RowSlices returns a copy of the elements as nested rows.
func (m *Matrix) RowSlices() [][]float64 {
	r, _ := m.d.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = append([]float64(nil), m.d.RawRowView(i)...)
	}
	return out
}

// String formats the matrix using gonum's formatter.
func (m *Matrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(m.d, mat.Squeeze()))
}

// Multiply returns the matrix product a·b.
func Multiply(a, b *Matrix) (*Matrix, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return nil, fmt.Errorf("%w: multiply %dx%d by %dx%d", ErrDimensionMismatch, ar, ac, br, bc)
	}
	var out mat.Dense
	out.Mul(a.d, b.d)
	return wrap(&out), nil
}

func sameShape(op string, a, b *Matrix) error {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return fmt.Errorf("%w: %s %dx%d and %dx%d", ErrDimensionMismatch, op, ar, ac, br, bc)
	}
	return nil
}

// Add returns the elementwise sum a+b.
func Add(a, b *Matrix) (*Matrix, error) {
	if err := sameShape("add", a, b); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Add(a.d, b.d)
	return wrap(&out), nil
}

// Subtract returns the elementwise difference a-b.
func Subtract(a, b *Matrix) (*Matrix, error) {
	if err := sameShape("subtract", a, b); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Sub(a.d, b.d)
	return wrap(&out), nil
}

// Hadamard returns the elementwise product a⊙b.
func Hadamard(a, b *Matrix) (*Matrix, error) {
	if err := sameShape("hadamard", a, b); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.MulElem(a.d, b.d)
	return wrap(&out), nil
}

// Scale returns k·a.
func Scale(a *Matrix, k float64) *Matrix {
	var out mat.Dense
	out.Scale(k, a.d)
	return wrap(&out)
}

// Transpose returns a shape-swapped copy of a.
func Transpose(a *Matrix) *Matrix {
	return wrap(mat.DenseCopyOf(a.d.T()))
}

// Map returns a new matrix with f applied to every element of a.
func Map(a *Matrix, f func(float64) float64) *Matrix {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return f(v) }, a.d)
	return wrap(&out)
}

// MapSum returns the sum of f applied to every element of a.
func MapSum(a *Matrix, f func(float64) float64) float64 {
	vals := a.Data()
	for i, v := range vals {
		vals[i] = f(v)
	}
	return floats.Sum(vals)
}

// Row returns row i of a as a 1 x cols matrix.
func Row(a *Matrix, i int) (*Matrix, error) {
	r, c := a.Dims()
	if i < 0 || i >= r {
		return nil, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, i, r)
	}
	buf := append([]float64(nil), a.d.RawRowView(i)...)
	return wrap(mat.NewDense(1, c, buf)), nil
}

// ArgMax returns the row-major index of the first maximum element.
// For a column vector this is the row index.
func ArgMax(a *Matrix) int {
	return floats.MaxIdx(a.Data())
}

// EqualApprox reports whether a and b have the same shape and every pair of
// elements differs by at most tol.
func EqualApprox(a, b *Matrix, tol float64) bool {
	if sameShape("compare", a, b) != nil {
		return false
	}
	return mat.EqualApprox(a.d, b.d, tol)
}
