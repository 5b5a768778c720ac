package dataset

import (
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

// PixelDivisor scales 8-bit pixel intensities into [0, 1].
const PixelDivisor = 255

// Normalizer divides every feature by a fixed value. Training and serving
// must share one Normalizer so the network sees the same input distribution.
type Normalizer struct {
	Divisor float64
}

// Validate reports whether the divisor can be used.
func (n Normalizer) Validate() error {
	if n.Divisor <= 0 || math.IsNaN(n.Divisor) || math.IsInf(n.Divisor, 0) {
		return fmt.Errorf("%w: got %v", ErrDivisor, n.Divisor)
	}
	return nil
}

// Apply returns m scaled by 1/Divisor.
func (n Normalizer) Apply(m *matrix.Matrix) (*matrix.Matrix, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return matrix.Scale(m, 1/n.Divisor), nil
}

// Normalize applies n to the features of d in place.
func (d *Dataset) Normalize(n Normalizer) error {
	f, err := n.Apply(d.Features)
	if err != nil {
		return err
	}
	d.Features = f
	return nil
}
