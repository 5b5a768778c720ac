// Package perceptron is the public entry point to the sigmoid multilayer
// perceptron: construction, training, evaluation, weight files and datasets.
package perceptron

import (
	"math/rand"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/net"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
)

// Re-export common types and functions for easier access
type (
	Model       = net.MLP
	Matrix      = matrix.Matrix
	Snapshot    = net.Snapshot
	HiddenBlock = net.HiddenBlock
	TrainConfig = net.TrainConfig
	TrainResult = net.TrainResult
	StopReason  = net.StopReason
	Optimizer   = opt.Optimizer
	Dataset     = dataset.Dataset
	Normalizer  = dataset.Normalizer
)

// Errors
var (
	ErrInvalidArchitecture  = net.ErrInvalidArchitecture
	ErrArchitectureMismatch = net.ErrArchitectureMismatch
	ErrWeightFormat         = net.ErrWeightFormat
	ErrNonFiniteLoss        = net.ErrNonFiniteLoss
	ErrDimensionMismatch    = matrix.ErrDimensionMismatch
	ErrShape                = matrix.ErrShape
	ErrIndexOutOfRange      = matrix.ErrIndexOutOfRange
)

const (
	Converged        = net.Converged
	MaxEpochsReached = net.MaxEpochsReached
)

// New creates a network with uniform random parameters in [-1, 1) drawn from
// a source seeded with seed.
func New(inputSize, outputSize int, hidden []int, seed int64) (*Model, error) {
	return net.New(inputSize, outputSize, hidden, rand.New(rand.NewSource(seed)))
}

// FromRows builds a matrix from nested rows.
func FromRows(rows [][]float64) (*Matrix, error) {
	return matrix.FromRows(rows)
}

// Column builds an n x 1 matrix, the input shape of Predict.
func Column(values []float64) (*Matrix, error) {
	return matrix.Column(values)
}

// DefaultTrainConfig returns learning rate 0.01, 100 epochs and cutoff 1e-3.
func DefaultTrainConfig() TrainConfig {
	return net.DefaultTrainConfig()
}

// Optimizers
func SGD(lr float64) Optimizer {
	return opt.SGD{LearningRate: lr}
}

// Callbacks
type Callback = net.Callback

func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func ModelCheckpoint(filename string) *net.ModelCheckpoint {
	return net.NewModelCheckpoint(filename)
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}

// Datasets
func LoadCSV(path string, outputSize int) (*Dataset, error) {
	return dataset.LoadCSV(path, outputSize)
}

func OneHot(labels []int, size int) (*Matrix, error) {
	return dataset.OneHot(labels, size)
}

// Model Persistence
func Load(filename string) (*Model, error) {
	return net.Load(filename)
}

func Save(filename string, m *Model) error {
	return net.SaveText(filename, m.Snapshot())
}
