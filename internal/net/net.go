// Package net provides the multilayer perceptron: construction, forward
// inference, backpropagation training and evaluation.
//
// An MLP is not safe for concurrent mutation. Predict, Classify and Test only
// read parameters, so a trained MLP may serve concurrent readers as long as
// nothing calls Train, Apply or a setter at the same time.
package net

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/activations"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/layer"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

var (
	// ErrInvalidArchitecture is returned when a network has no hidden layer
	// or a non-positive layer size.
	ErrInvalidArchitecture = errors.New("invalid architecture")
	// ErrArchitectureMismatch is returned when a weight or bias sequence does
	// not match the network's layer count.
	ErrArchitectureMismatch = errors.New("architecture mismatch")
	// ErrWeightFormat is returned when a weight file cannot be parsed.
	ErrWeightFormat = errors.New("malformed weight file")
	// ErrNonFiniteLoss is returned by Train when an epoch loss is NaN or
	// infinite, usually because of NaN or infinite inputs.
	ErrNonFiniteLoss = errors.New("non-finite loss")
)

// MLP is a feed-forward network of sigmoid dense layers.
//
// It holds len(hidden)+1 dense layers; the last one is the output layer.
// Weights, Biases, SetWeights, SetBiases and Snapshot expose the parameters
// in the layout of the weight file format, where the bias recorded next to a
// weight matrix belongs to the layer before it.
type MLP struct {
	layers     []*layer.Dense
	inputSize  int
	outputSize int
	hidden     []int
}

// New creates an MLP with inputSize inputs, outputSize outputs and the given
// hidden layer sizes. Every weight and bias is drawn uniformly from [-1, 1)
// using rng.
func New(inputSize, outputSize int, hidden []int, rng *rand.Rand) (*MLP, error) {
	if len(hidden) < 1 {
		return nil, fmt.Errorf("%w: at least one hidden layer is required", ErrInvalidArchitecture)
	}
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, inputSize)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, outputSize)
	for i, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidArchitecture, i, s)
		}
	}

	m := &MLP{
		layers:     make([]*layer.Dense, 0, len(sizes)-1),
		inputSize:  inputSize,
		outputSize: outputSize,
		hidden:     append([]int(nil), hidden...),
	}
	for i := 1; i < len(sizes); i++ {
		d, err := layer.NewDense(sizes[i-1], sizes[i], activations.Sigmoid{}, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to create layer %d: %w", i-1, err)
		}
		m.layers = append(m.layers, d)
	}
	return m, nil
}

// HiddenBlock is one weights/biases pair as recorded in a weight file.
type HiddenBlock struct {
	Weights *matrix.Matrix
	Biases  *matrix.Matrix
}

// Snapshot is a copy of every network parameter in weight file layout.
//
// Hidden[i].Weights maps activation i to activation i+1 (the last entry maps
// the final hidden layer to the output). Hidden[i].Biases is added when
// computing activation i. OutputBiases is added at the output layer.
type Snapshot struct {
	InputWeights *matrix.Matrix
	Hidden       []HiddenBlock
	OutputBiases *matrix.Matrix
}

// FromSnapshot creates an MLP whose architecture is inferred from the shapes
// recorded in s.
func FromSnapshot(s Snapshot) (*MLP, error) {
	n := len(s.Hidden)
	if n < 1 {
		return nil, fmt.Errorf("%w: at least one hidden layer is required", ErrInvalidArchitecture)
	}
	if s.InputWeights == nil || s.OutputBiases == nil {
		return nil, fmt.Errorf("%w: missing input weights or output biases", ErrInvalidArchitecture)
	}

	weights := make([]*matrix.Matrix, 0, n+1)
	weights = append(weights, s.InputWeights)
	biases := make([]*matrix.Matrix, 0, n+1)
	for _, h := range s.Hidden {
		if h.Weights == nil || h.Biases == nil {
			return nil, fmt.Errorf("%w: incomplete hidden block", ErrInvalidArchitecture)
		}
		weights = append(weights, h.Weights)
		biases = append(biases, h.Biases)
	}
	biases = append(biases, s.OutputBiases)

	m := &MLP{
		layers:     make([]*layer.Dense, 0, n+1),
		inputSize:  s.InputWeights.Cols(),
		outputSize: s.Hidden[n-1].Weights.Rows(),
	}
	for i := range weights {
		if i > 0 && weights[i].Cols() != weights[i-1].Rows() {
			return nil, fmt.Errorf("%w: layer %d takes %d inputs but layer %d has %d outputs",
				matrix.ErrDimensionMismatch, i, weights[i].Cols(), i-1, weights[i-1].Rows())
		}
		d, err := layer.NewDenseFrom(weights[i], biases[i], activations.Sigmoid{})
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		m.layers = append(m.layers, d)
		if i < n {
			m.hidden = append(m.hidden, d.OutSize())
		}
	}
	return m, nil
}

// InputSize returns the number of input features.
func (m *MLP) InputSize() int { return m.inputSize }

// OutputSize returns the number of outputs.
func (m *MLP) OutputSize() int { return m.outputSize }

// HiddenSizes returns a copy of the hidden layer sizes.
func (m *MLP) HiddenSizes() []int { return append([]int(nil), m.hidden...) }

// LayerCount returns the number of hidden layers, which is also the length of
// every sequence taken or returned by the weight and bias accessors.
func (m *MLP) LayerCount() int { return len(m.hidden) }

// Weights returns the input weights and the sequence of weight matrices that
// follow them, the last of which feeds the output layer.
func (m *MLP) Weights() (input *matrix.Matrix, hidden []*matrix.Matrix) {
	hidden = make([]*matrix.Matrix, 0, len(m.layers)-1)
	for _, l := range m.layers[1:] {
		hidden = append(hidden, l.Weights().Clone())
	}
	return m.layers[0].Weights().Clone(), hidden
}

// Biases returns the output biases and the sequence of hidden biases.
func (m *MLP) Biases() (output *matrix.Matrix, hidden []*matrix.Matrix) {
	last := len(m.layers) - 1
	hidden = make([]*matrix.Matrix, 0, last)
	for _, l := range m.layers[:last] {
		hidden = append(hidden, l.Biases().Clone())
	}
	return m.layers[last].Biases().Clone(), hidden
}

// SetWeights replaces every weight matrix. hidden must have LayerCount
// entries and every shape must match the current one. On error nothing is
// changed.
func (m *MLP) SetWeights(input *matrix.Matrix, hidden []*matrix.Matrix) error {
	if len(hidden) != m.LayerCount() {
		return fmt.Errorf("%w: got %d weight matrices for %d layers", ErrArchitectureMismatch, len(hidden), m.LayerCount())
	}
	all := append([]*matrix.Matrix{input}, hidden...)
	for i, w := range all {
		r, c := w.Dims()
		if r != m.layers[i].OutSize() || c != m.layers[i].InSize() {
			return fmt.Errorf("%w: weights %d are %dx%d, want %dx%d",
				matrix.ErrDimensionMismatch, i, r, c, m.layers[i].OutSize(), m.layers[i].InSize())
		}
	}
	for i, w := range all {
		if err := m.layers[i].SetWeights(w.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// SetBiases replaces every bias column. hidden must have LayerCount entries
// and every shape must match the current one. On error nothing is changed.
func (m *MLP) SetBiases(output *matrix.Matrix, hidden []*matrix.Matrix) error {
	if len(hidden) != m.LayerCount() {
		return fmt.Errorf("%w: got %d bias vectors for %d layers", ErrArchitectureMismatch, len(hidden), m.LayerCount())
	}
	all := append(append([]*matrix.Matrix(nil), hidden...), output)
	for i, b := range all {
		r, c := b.Dims()
		if r != m.layers[i].OutSize() || c != 1 {
			return fmt.Errorf("%w: biases %d are %dx%d, want %dx1",
				matrix.ErrDimensionMismatch, i, r, c, m.layers[i].OutSize())
		}
	}
	for i, b := range all {
		if err := m.layers[i].SetBiases(b.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns a copy of the parameters in weight file layout.
func (m *MLP) Snapshot() Snapshot {
	input, weights := m.Weights()
	output, biases := m.Biases()
	s := Snapshot{
		InputWeights: input,
		Hidden:       make([]HiddenBlock, len(weights)),
		OutputBiases: output,
	}
	for i := range weights {
		s.Hidden[i] = HiddenBlock{Weights: weights[i], Biases: biases[i]}
	}
	return s
}

// Predict runs a forward pass for one example given as an InputSize x 1
// column. It returns the activation of every hidden layer in order and the
// output activation.
func (m *MLP) Predict(x *matrix.Matrix) (hidden []*matrix.Matrix, output *matrix.Matrix, err error) {
	if r, c := x.Dims(); r != m.inputSize || c != 1 {
		return nil, nil, fmt.Errorf("%w: input is %dx%d, want %dx1", matrix.ErrDimensionMismatch, r, c, m.inputSize)
	}
	hidden = make([]*matrix.Matrix, 0, len(m.layers)-1)
	a := x
	for i, l := range m.layers {
		a, err = l.Forward(a)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if i < len(m.layers)-1 {
			hidden = append(hidden, a)
		}
	}
	return hidden, a, nil
}

// Classify returns the index of the largest output for x. Ties resolve to
// the lowest index.
func (m *MLP) Classify(x *matrix.Matrix) (int, error) {
	_, out, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	return matrix.ArgMax(out), nil
}
