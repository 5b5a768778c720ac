package net

import (
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/loss"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
)

// Gradients holds one weight and one bias gradient per dense layer, in
// forward order. The last entry belongs to the output layer.
type Gradients struct {
	Weights []*matrix.Matrix
	Biases  []*matrix.Matrix
}

// Backprop runs a forward pass for one example and returns the gradients of
// the squared error loss w.r.t. every parameter, together with the loss
// itself. x is an InputSize x 1 column and y an OutputSize x 1 column.
// Parameters are not modified.
func (m *MLP) Backprop(x, y *matrix.Matrix) (*Gradients, float64, error) {
	hidden, out, err := m.Predict(x)
	if err != nil {
		return nil, 0, err
	}

	mse := loss.MSE{}
	exampleLoss, err := mse.Forward(out, y)
	if err != nil {
		return nil, 0, fmt.Errorf("label: %w", err)
	}
	grad, err := mse.Backward(out, y)
	if err != nil {
		return nil, 0, fmt.Errorf("label: %w", err)
	}

	acts := append(hidden, out)
	n := len(m.layers)
	g := &Gradients{
		Weights: make([]*matrix.Matrix, n),
		Biases:  make([]*matrix.Matrix, n),
	}
	for k := n - 1; k >= 0; k-- {
		input := x
		if k > 0 {
			input = acts[k-1]
		}
		d := m.layers[k]
		delta, err := d.Delta(grad, acts[k])
		if err != nil {
			return nil, 0, fmt.Errorf("layer %d: %w", k, err)
		}
		g.Weights[k], g.Biases[k], err = d.Gradients(delta, input)
		if err != nil {
			return nil, 0, fmt.Errorf("layer %d: %w", k, err)
		}
		if k > 0 {
			if grad, err = d.Propagate(delta); err != nil {
				return nil, 0, fmt.Errorf("layer %d: %w", k, err)
			}
		}
	}
	return g, exampleLoss, nil
}

// Apply updates every parameter with the optimizer. On error nothing is
// changed.
func (m *MLP) Apply(g *Gradients, o opt.Optimizer) error {
	n := len(m.layers)
	if len(g.Weights) != n || len(g.Biases) != n {
		return fmt.Errorf("%w: gradients for %d/%d layers, want %d", ErrArchitectureMismatch, len(g.Weights), len(g.Biases), n)
	}
	weights := make([]*matrix.Matrix, n)
	biases := make([]*matrix.Matrix, n)
	for i, l := range m.layers {
		w, err := o.Step(l.Weights(), g.Weights[i])
		if err != nil {
			return fmt.Errorf("layer %d weights: %w", i, err)
		}
		b, err := o.Step(l.Biases(), g.Biases[i])
		if err != nil {
			return fmt.Errorf("layer %d biases: %w", i, err)
		}
		weights[i], biases[i] = w, b
	}
	for i, l := range m.layers {
		if err := l.SetWeights(weights[i]); err != nil {
			return err
		}
		if err := l.SetBiases(biases[i]); err != nil {
			return err
		}
	}
	return nil
}

// StopReason tells why training ended. Both values are successful outcomes.
type StopReason int

const (
	// Converged means the epoch loss fell to or below the error cutoff.
	Converged StopReason = iota
	// MaxEpochsReached means the epoch limit was hit first.
	MaxEpochsReached
)

func (s StopReason) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxEpochsReached:
		return "max epochs reached"
	default:
		return fmt.Sprintf("StopReason(%d)", int(s))
	}
}

// TrainConfig configures Train.
type TrainConfig struct {
	LearningRate float64
	// Epochs are numbered from 0 and training continues while
	// epoch <= MaxEpochs.
	MaxEpochs   int
	ErrorCutoff float64
	// Optimizer defaults to SGD with LearningRate.
	Optimizer opt.Optimizer
	Callbacks []Callback
}

// DefaultTrainConfig returns learning rate 0.01, 100 epochs and cutoff 1e-3.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		LearningRate: 0.01,
		MaxEpochs:    100,
		ErrorCutoff:  1e-3,
	}
}

// TrainResult is the outcome of Train.
type TrainResult struct {
	Snapshot Snapshot
	// Losses holds the average example loss of every epoch run.
	Losses []float64
	// Epochs is the number of epochs run.
	Epochs int
	Stop   StopReason
}

// Train fits the network with per-example gradient descent. inputs holds one
// example per row and labels one target row per example. Examples are visited
// in order and every example updates the parameters immediately. An epoch
// whose loss is NaN or infinite ends training with ErrNonFiniteLoss.
func (m *MLP) Train(inputs, labels *matrix.Matrix, cfg TrainConfig) (*TrainResult, error) {
	if err := m.checkData(inputs, labels); err != nil {
		return nil, err
	}
	optimizer := cfg.Optimizer
	if optimizer == nil {
		optimizer = opt.SGD{LearningRate: cfg.LearningRate}
	}

	for _, c := range cfg.Callbacks {
		c.OnTrainBegin(m)
	}

	rows := inputs.Rows()
	var losses []float64
	epochLoss := math.Inf(1)
	for epoch := 0; epoch <= cfg.MaxEpochs && epochLoss > cfg.ErrorCutoff; epoch++ {
		total := 0.0
		for i := 0; i < rows; i++ {
			x, y, err := example(inputs, labels, i)
			if err != nil {
				return nil, err
			}
			g, l, err := m.Backprop(x, y)
			if err != nil {
				return nil, fmt.Errorf("example %d: %w", i, err)
			}
			total += l
			if err := m.Apply(g, optimizer); err != nil {
				return nil, fmt.Errorf("example %d: %w", i, err)
			}
		}
		epochLoss = total / float64(rows)
		if math.IsNaN(epochLoss) || math.IsInf(epochLoss, 0) {
			for _, c := range cfg.Callbacks {
				c.OnTrainEnd(m)
			}
			return nil, fmt.Errorf("%w at epoch %d", ErrNonFiniteLoss, epoch)
		}
		losses = append(losses, epochLoss)
		for _, c := range cfg.Callbacks {
			c.OnEpochEnd(epoch, epochLoss, m)
		}
	}

	for _, c := range cfg.Callbacks {
		c.OnTrainEnd(m)
	}

	stop := MaxEpochsReached
	if epochLoss <= cfg.ErrorCutoff {
		stop = Converged
	}
	return &TrainResult{Snapshot: m.Snapshot(), Losses: losses, Epochs: len(losses), Stop: stop}, nil
}

// Test returns the fraction of examples whose largest output index equals the
// index of the 1 in their one-hot label. A label without a 1 counts as
// class 0.
func (m *MLP) Test(inputs, labels *matrix.Matrix) (float64, error) {
	if err := m.checkData(inputs, labels); err != nil {
		return 0, err
	}
	rows := inputs.Rows()
	correct := 0
	for i := 0; i < rows; i++ {
		x, y, err := example(inputs, labels, i)
		if err != nil {
			return 0, err
		}
		predicted, err := m.Classify(x)
		if err != nil {
			return 0, fmt.Errorf("example %d: %w", i, err)
		}
		if predicted == labelClass(y) {
			correct++
		}
	}
	return float64(correct) / float64(rows), nil
}

func labelClass(y *matrix.Matrix) int {
	for i, v := range y.Data() {
		if v == 1 {
			return i
		}
	}
	return 0
}

func (m *MLP) checkData(inputs, labels *matrix.Matrix) error {
	ir, ic := inputs.Dims()
	lr, lc := labels.Dims()
	switch {
	case ic != m.inputSize:
		return fmt.Errorf("%w: inputs have %d features, want %d", matrix.ErrDimensionMismatch, ic, m.inputSize)
	case lc != m.outputSize:
		return fmt.Errorf("%w: labels have %d columns, want %d", matrix.ErrDimensionMismatch, lc, m.outputSize)
	case ir != lr:
		return fmt.Errorf("%w: %d examples but %d labels", matrix.ErrDimensionMismatch, ir, lr)
	}
	return nil
}

// example returns row i of inputs and labels as columns.
func example(inputs, labels *matrix.Matrix, i int) (x, y *matrix.Matrix, err error) {
	xr, err := matrix.Row(inputs, i)
	if err != nil {
		return nil, nil, err
	}
	yr, err := matrix.Row(labels, i)
	if err != nil {
		return nil, nil, err
	}
	return matrix.Transpose(xr), matrix.Transpose(yr), nil
}
