// Package opt provides optimization algorithms.
package opt

import (
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

// Optimizer updates network parameters based on gradients.
type Optimizer interface {
	// Step computes updated parameters: params - lr * gradients
	// Returns a new matrix; params is left untouched.
	Step(params, gradients *matrix.Matrix) (*matrix.Matrix, error)
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64
}

// Step computes updated parameters: params - lr * gradients
func (s SGD) Step(params, gradients *matrix.Matrix) (*matrix.Matrix, error) {
	return matrix.Subtract(params, matrix.Scale(gradients, s.LearningRate))
}
