package main

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/FlavioCFOliveira/GoPerceptron/perceptron"
)

// MLP (Multi-Layer Perceptron) example
// Trains sigmoid networks of different depths on small in-memory problems
func main() {
	fmt.Println("=== MLP Examples ===")

	fmt.Println("Example 1: Separable points (2-2-1)")
	exampleSeparable()

	fmt.Println("\nExample 2: XOR with one-hot labels (2-4-4-2)")
	exampleXOR()

	fmt.Println("\nExample 3: Quadrant classification (2-8-4)")
	exampleQuadrants()
}

func exampleSeparable() {
	m, err := perceptron.New(2, 1, []int{2}, 42)
	if err != nil {
		log.Fatal(err)
	}

	trainX := [][]float64{{-4, -4}, {-4, -3}, {4, 3}, {4, 4}}
	trainY := [][]float64{{0}, {0}, {1}, {1}}

	cfg := perceptron.DefaultTrainConfig()
	cfg.LearningRate = 0.5
	cfg.MaxEpochs = 2000
	run(m, trainX, trainY, cfg)
}

func exampleXOR() {
	m, err := perceptron.New(2, 2, []int{4, 4}, 7)
	if err != nil {
		log.Fatal(err)
	}

	trainX := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	trainY := [][]float64{{1, 0}, {0, 1}, {0, 1}, {1, 0}}

	cfg := perceptron.DefaultTrainConfig()
	cfg.LearningRate = 0.8
	cfg.MaxEpochs = 5000
	cfg.Callbacks = []perceptron.Callback{perceptron.Logger(1000)}
	run(m, trainX, trainY, cfg)
}

func exampleQuadrants() {
	rng := rand.New(rand.NewSource(42))
	n := 200
	trainX := make([][]float64, n)
	trainY := make([][]float64, n)
	for i := range trainX {
		x, y := rng.Float64()*2-1, rng.Float64()*2-1
		trainX[i] = []float64{x, y}
		class := 0
		if x >= 0 {
			class++
		}
		if y >= 0 {
			class += 2
		}
		trainY[i] = make([]float64, 4)
		trainY[i][class] = 1
	}

	m, err := perceptron.New(2, 4, []int{8}, 1)
	if err != nil {
		log.Fatal(err)
	}
	cfg := perceptron.DefaultTrainConfig()
	cfg.LearningRate = 0.3
	cfg.MaxEpochs = 300
	cfg.Callbacks = []perceptron.Callback{perceptron.Logger(100)}
	run(m, trainX, trainY, cfg)
}

func run(m *perceptron.Model, trainX, trainY [][]float64, cfg perceptron.TrainConfig) {
	inputs, err := perceptron.FromRows(trainX)
	if err != nil {
		log.Fatal(err)
	}
	labels, err := perceptron.FromRows(trainY)
	if err != nil {
		log.Fatal(err)
	}

	res, err := m.Train(inputs, labels, cfg)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  Stopped after %d epochs (%s), final loss %.6f\n", res.Epochs, res.Stop, res.Losses[len(res.Losses)-1])

	acc, err := m.Test(inputs, labels)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  Training accuracy: %.1f%%\n", acc*100)

	limit := len(trainX)
	if limit > 4 {
		limit = 4
	}
	fmt.Println("  Results:")
	for i := 0; i < limit; i++ {
		x, err := perceptron.Column(trainX[i])
		if err != nil {
			log.Fatal(err)
		}
		_, pred, err := m.Predict(x)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("    %v -> %.4f (target: %v)\n", trainX[i], pred.Data(), trainY[i])
	}
}
