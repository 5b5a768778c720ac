package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/net"
)

// Trains a multilayer perceptron on a labelled CSV file (label first, then
// features) and writes the weights in the text format read by cmd/serve.
func main() {
	trainPath := flag.String("train", "", "Training CSV file (required)")
	testPath := flag.String("test", "", "Test CSV file; when empty the training set is split with -split")
	split := flag.Float64("split", 0.8, "Fraction of the training file used for training when -test is empty")
	outputs := flag.Int("outputs", 10, "Number of classes")
	hiddenFlag := flag.String("hidden", "392,196,98,49,24", "Comma separated hidden layer sizes")
	lr := flag.Float64("lr", 0.05, "Learning rate")
	epochs := flag.Int("epochs", 100, "Maximum epoch index")
	cutoff := flag.Float64("cutoff", 0.0005, "Stop once the epoch loss is at or below this value")
	divisor := flag.Float64("input-divisor", 0, "Every feature is divided by this value (required, e.g. 255 for pixels)")
	seed := flag.Int64("seed", 42, "Seed for weight initialization")
	out := flag.String("out", "weights.txt", "Output weight file")
	logCSV := flag.String("log-csv", "", "Optional CSV file for per-epoch loss")
	checkpoint := flag.String("checkpoint", "", "Optional weight file rewritten on every loss improvement")
	interval := flag.Int("log-interval", 1, "Log the loss every N epochs (0 disables)")
	flag.Parse()

	if *trainPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	norm := dataset.Normalizer{Divisor: *divisor}
	if err := norm.Validate(); err != nil {
		log.Fatalf("-input-divisor: %v", err)
	}
	hidden, err := parseHidden(*hiddenFlag)
	if err != nil {
		log.Fatalf("-hidden: %v", err)
	}

	train, test := loadData(*trainPath, *testPath, *split, *outputs, norm)
	log.Printf("Loaded %d training and %d test examples", train.Len(), test.Len())

	m, err := net.New(train.Features.Cols(), *outputs, hidden, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.Fatalf("Failed to create network: %v", err)
	}
	m.Summary(os.Stdout)

	cfg := net.TrainConfig{
		LearningRate: *lr,
		MaxEpochs:    *epochs,
		ErrorCutoff:  *cutoff,
		Callbacks:    []net.Callback{net.Logger{Interval: *interval}},
	}
	var csvLog *net.CSVLogger
	if *logCSV != "" {
		csvLog = net.NewCSVLogger(*logCSV, false)
		cfg.Callbacks = append(cfg.Callbacks, csvLog)
	}
	var cp *net.ModelCheckpoint
	if *checkpoint != "" {
		cp = net.NewModelCheckpoint(*checkpoint)
		cfg.Callbacks = append(cfg.Callbacks, cp)
	}

	res, err := m.Train(train.Features, train.Labels, cfg)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}
	log.Printf("Training stopped after %d epochs: %s", res.Epochs, res.Stop)
	if csvLog != nil && csvLog.Err != nil {
		log.Fatalf("Loss log failed: %v", csvLog.Err)
	}
	if cp != nil && cp.Err != nil {
		log.Fatalf("Checkpoint failed: %v", cp.Err)
	}

	if err := net.SaveText(*out, res.Snapshot); err != nil {
		log.Fatalf("Failed to save weights: %v", err)
	}
	log.Printf("Weights written to %s", *out)

	if test.Len() == 0 {
		return
	}
	acc, err := m.Test(test.Features, test.Labels)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	fmt.Printf("Test accuracy: %.2f%%\n", acc*100)
}

func parseHidden(s string) ([]int, error) {
	var sizes []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func loadData(trainPath, testPath string, split float64, outputs int, norm dataset.Normalizer) (train, test *dataset.Dataset) {
	train, err := dataset.LoadCSV(trainPath, outputs)
	if err != nil {
		log.Fatalf("Failed to load training data: %v", err)
	}
	if err := train.Normalize(norm); err != nil {
		log.Fatalf("Failed to normalize training data: %v", err)
	}

	if testPath == "" {
		train, test, err = train.Split(split)
		if err != nil {
			log.Fatalf("Failed to split data: %v", err)
		}
		if train == nil {
			log.Fatalf("-split %v leaves no training examples", split)
		}
		if test == nil {
			test = &dataset.Dataset{}
		}
		return train, test
	}

	test, err = dataset.LoadCSV(testPath, outputs)
	if err != nil {
		log.Fatalf("Failed to load test data: %v", err)
	}
	if err := test.Normalize(norm); err != nil {
		log.Fatalf("Failed to normalize test data: %v", err)
	}
	return train, test
}
