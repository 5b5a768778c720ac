// Package activations provides the activation function used by the network.
package activations

import (
	"math"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64

	// OutputDerivative computes f'(x) given y = f(x).
	OutputDerivative(y float64) float64
}

// Sigmoid activation function.
type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	sigma := sigmoid(x)
	return sigma * (1 - sigma)
}

// OutputDerivative computes y * (1 - y), the derivative expressed through
// an activation that has already been computed.
func (s Sigmoid) OutputDerivative(y float64) float64 {
	return y * (1 - y)
}

// Apply maps act over every element of z.
func Apply(act Activation, z *matrix.Matrix) *matrix.Matrix {
	return matrix.Map(z, act.Activate)
}

// Prime maps act's output derivative over every element of a.
func Prime(act Activation, a *matrix.Matrix) *matrix.Matrix {
	return matrix.Map(a, act.OutputDerivative)
}
