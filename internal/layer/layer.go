// Package layer provides the fully connected layer the network is built from.
package layer

import (
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/activations"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

// Dense is a fully connected layer.
// Weights have shape [out, in] and biases [out, 1]; both take part in the
// same summation z = W·x + b.
type Dense struct {
	weights *matrix.Matrix
	biases  *matrix.Matrix
	act     activations.Activation
}

// NewDense creates a dense layer with every weight and bias drawn uniformly
// from [-1, 1) using rng.
func NewDense(in, out int, act activations.Activation, rng *rand.Rand) (*Dense, error) {
	w, err := matrix.Random(out, in, rng, -1, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create weights: %w", err)
	}
	b, err := matrix.Random(out, 1, rng, -1, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create biases: %w", err)
	}
	return &Dense{weights: w, biases: b, act: act}, nil
}

// NewDenseFrom creates a dense layer from existing parameters.
// biases must be a column with as many rows as weights.
func NewDenseFrom(weights, biases *matrix.Matrix, act activations.Activation) (*Dense, error) {
	if err := checkBiases(weights, biases); err != nil {
		return nil, err
	}
	return &Dense{weights: weights.Clone(), biases: biases.Clone(), act: act}, nil
}

func checkBiases(weights, biases *matrix.Matrix) error {
	if biases.Cols() != 1 || biases.Rows() != weights.Rows() {
		r, c := biases.Dims()
		return fmt.Errorf("%w: biases %dx%d for %d outputs", matrix.ErrDimensionMismatch, r, c, weights.Rows())
	}
	return nil
}

// Forward computes act(W·x + b) for a column input x.
func (d *Dense) Forward(x *matrix.Matrix) (*matrix.Matrix, error) {
	wx, err := matrix.Multiply(d.weights, x)
	if err != nil {
		return nil, err
	}
	z, err := matrix.Add(wx, d.biases)
	if err != nil {
		return nil, err
	}
	return activations.Apply(d.act, z), nil
}

// Delta computes the error signal dL/dz from the gradient w.r.t. this
// layer's output and the output activation itself.
func (d *Dense) Delta(grad, output *matrix.Matrix) (*matrix.Matrix, error) {
	return matrix.Hadamard(grad, activations.Prime(d.act, output))
}

// Gradients returns dL/dW = delta·inputᵀ and dL/db = delta.
func (d *Dense) Gradients(delta, input *matrix.Matrix) (gradW, gradB *matrix.Matrix, err error) {
	gradW, err = matrix.Multiply(delta, matrix.Transpose(input))
	if err != nil {
		return nil, nil, err
	}
	return gradW, delta, nil
}

// Propagate returns Wᵀ·delta, the gradient w.r.t. this layer's input.
func (d *Dense) Propagate(delta *matrix.Matrix) (*matrix.Matrix, error) {
	return matrix.Multiply(matrix.Transpose(d.weights), delta)
}

// Weights returns the weight matrix.
func (d *Dense) Weights() *matrix.Matrix {
	return d.weights
}

// Biases returns the bias column.
func (d *Dense) Biases() *matrix.Matrix {
	return d.biases
}

// SetWeights replaces the weight matrix. The shape must not change.
func (d *Dense) SetWeights(w *matrix.Matrix) error {
	wr, wc := w.Dims()
	r, c := d.weights.Dims()
	if wr != r || wc != c {
		return fmt.Errorf("%w: weights %dx%d, want %dx%d", matrix.ErrDimensionMismatch, wr, wc, r, c)
	}
	d.weights = w
	return nil
}

// SetBiases replaces the bias column. The shape must not change.
func (d *Dense) SetBiases(b *matrix.Matrix) error {
	if err := checkBiases(d.weights, b); err != nil {
		return err
	}
	d.biases = b
	return nil
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.weights.Cols()
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.weights.Rows()
}

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation {
	return d.act
}
