package net

import (
	"bytes"
	"encoding/csv"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInterval(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Interval: 10, Out: log.New(&buf, "", 0)}

	for epoch := 0; epoch < 25; epoch++ {
		l.OnEpochEnd(epoch, 0.25, nil)
	}
	assert.Equal(t, "Epoch: 0. Loss: 0.25.\nEpoch: 10. Loss: 0.25.\nEpoch: 20. Loss: 0.25.\n", buf.String())
}

func TestLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Out: log.New(&buf, "", 0)}
	l.OnEpochEnd(0, 1, nil)
	assert.Empty(t, buf.String())
}

func TestCSVLogger(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "train_log.csv")

	logger := NewCSVLogger(filename, false)
	m := newTestMLP(t, 2, 1, []int{2}, 1)

	logger.OnTrainBegin(m)
	logger.OnEpochEnd(0, 0.5, m)
	logger.OnEpochEnd(1, 0.4, m)
	logger.OnTrainEnd(m)

	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"epoch", "loss", "time_seconds"}, records[0])
	assert.Equal(t, []string{"0", "0.5"}, records[1][:2])
	assert.Equal(t, []string{"1", "0.4"}, records[2][:2])
}

func TestCSVLoggerAppend(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "train_log.csv")
	m := newTestMLP(t, 2, 1, []int{2}, 1)

	for run := 0; run < 2; run++ {
		logger := NewCSVLogger(filename, true)
		logger.OnTrainBegin(m)
		logger.OnEpochEnd(run, 0.1, m)
		logger.OnTrainEnd(m)
	}

	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	// one header, one row per run
	require.Len(t, records, 3)
	assert.Equal(t, "epoch", records[0][0])
	assert.Equal(t, "1", records[2][0])
}

func TestModelCheckpoint(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "best.txt")
	var buf bytes.Buffer

	cp := NewModelCheckpoint(filename)
	cp.Out = log.New(&buf, "", 0)

	m := newTestMLP(t, 2, 1, []int{2}, 1)
	cp.OnEpochEnd(0, 0.5, m)
	require.NoError(t, cp.Err)

	saved, err := LoadText(filename)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot().InputWeights.Data(), saved.InputWeights.Data())

	// a worse loss must not overwrite the best weights
	other := newTestMLP(t, 2, 1, []int{2}, 2)
	cp.OnEpochEnd(1, 0.7, other)
	saved, err = LoadText(filename)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot().InputWeights.Data(), saved.InputWeights.Data())

	cp.OnEpochEnd(2, 0.1, other)
	saved, err = LoadText(filename)
	require.NoError(t, err)
	assert.Equal(t, other.Snapshot().InputWeights.Data(), saved.InputWeights.Data())

	assert.Contains(t, buf.String(), "checkpoint saved")
}

func TestModelCheckpointError(t *testing.T) {
	cp := NewModelCheckpoint(filepath.Join(t.TempDir(), "missing", "best.txt"))
	cp.Out = log.New(&bytes.Buffer{}, "", 0)

	cp.OnEpochEnd(0, 0.5, newTestMLP(t, 2, 1, []int{2}, 1))
	assert.Error(t, cp.Err)
}

func TestCSVLoggerOpenError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCSVLogger(filepath.Join(t.TempDir(), "missing", "train_log.csv"), false)
	logger.Out = log.New(&buf, "", 0)

	m := newTestMLP(t, 2, 1, []int{2}, 1)
	logger.OnTrainBegin(m)
	logger.OnEpochEnd(0, 0.5, m)
	logger.OnTrainEnd(m)

	require.Error(t, logger.Err)
	assert.ErrorIs(t, logger.Err, os.ErrNotExist)
	assert.Contains(t, buf.String(), "csv log: failed to open")
}

// TestCSVLoggerTrainError checks that Train runs to the end and the failure
// stays visible on the logger.
func TestCSVLoggerTrainError(t *testing.T) {
	logger := NewCSVLogger(filepath.Join(t.TempDir(), "missing", "train_log.csv"), false)
	logger.Out = log.New(&bytes.Buffer{}, "", 0)

	m := newTestMLP(t, 2, 1, []int{2}, 1)
	inputs, labels := separablePoints(t)
	cfg := TrainConfig{LearningRate: 0.1, MaxEpochs: 2, Callbacks: []Callback{logger}}
	_, err := m.Train(inputs, labels, cfg)
	require.NoError(t, err)
	assert.Error(t, logger.Err)
}
