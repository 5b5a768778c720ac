// Package loss provides unit tests for loss functions.
package loss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

func column(t *testing.T, v ...float64) *matrix.Matrix {
	t.Helper()
	m, err := matrix.Column(v)
	require.NoError(t, err)
	return m
}

// TestMSEForward tests MSE forward pass.
func TestMSEForward(t *testing.T) {
	mse := MSE{}

	tests := []struct {
		name     string
		yPred    []float64
		yTrue    []float64
		expected float64
	}{
		{"Perfect prediction", []float64{1.0, 2.0, 3.0}, []float64{1.0, 2.0, 3.0}, 0.0},
		{"Single error", []float64{1.0, 2.0}, []float64{1.5, 2.0}, 0.125},
		{"Multiple errors", []float64{1.0, 2.0, 3.0}, []float64{0.0, 1.0, 2.0}, 1.0},
		{"Large errors", []float64{10.0}, []float64{0.0}, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mse.Forward(column(t, tt.yPred...), column(t, tt.yTrue...))
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

// TestMSEShapeMismatch tests error handling.
func TestMSEShapeMismatch(t *testing.T) {
	mse := MSE{}

	_, err := mse.Forward(column(t, 1, 2), column(t, 1))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = mse.Backward(column(t, 1, 2), column(t, 1))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// TestMSEBackward tests MSE backward pass.
func TestMSEBackward(t *testing.T) {
	mse := MSE{}

	grad, err := mse.Backward(column(t, 1.0, 2.0, 0.25), column(t, 1.5, 2.0, 1.0))
	require.NoError(t, err)
	assert.Equal(t, []float64{-1.0, 0.0, -1.5}, grad.Data())
}
