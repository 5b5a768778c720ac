// Package loss provides the training loss.
package loss

import (
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue *matrix.Matrix) (float64, error)

	// Backward computes the gradient of the loss w.r.t. prediction.
	Backward(yPred, yTrue *matrix.Matrix) (*matrix.Matrix, error)
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes mean squared error: (1/n) * sum((y_pred - y_true)^2)
// where n is the number of prediction rows.
func (m MSE) Forward(yPred, yTrue *matrix.Matrix) (float64, error) {
	diff, err := matrix.Subtract(yPred, yTrue)
	if err != nil {
		return 0, err
	}
	return matrix.MapSum(diff, func(x float64) float64 { return x * x }) / float64(yPred.Rows()), nil
}

// Backward computes the per-element gradient 2 * (y_pred - y_true).
// The 1/n factor of Forward is not applied.
func (m MSE) Backward(yPred, yTrue *matrix.Matrix) (*matrix.Matrix, error) {
	diff, err := matrix.Subtract(yPred, yTrue)
	if err != nil {
		return nil, err
	}
	return matrix.Scale(diff, 2), nil
}
