package net

import (
	"log"
	"math"
)

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(m *MLP)
	OnEpochEnd(epoch int, loss float64, m *MLP)
	OnTrainEnd(m *MLP)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(m *MLP)                        {}
func (c BaseCallback) OnEpochEnd(epoch int, loss float64, m *MLP) {}
func (c BaseCallback) OnTrainEnd(m *MLP)                          {}

// Logger logs training progress.
type Logger struct {
	BaseCallback
	Interval int
	// Out defaults to the standard logger.
	Out *log.Logger
}

func (c Logger) OnEpochEnd(epoch int, loss float64, m *MLP) {
	if c.Interval <= 0 || epoch%c.Interval != 0 {
		return
	}
	out := c.Out
	if out == nil {
		out = log.Default()
	}
	out.Printf("Epoch: %d. Loss: %g.", epoch, loss)
}

// ModelCheckpoint writes the network to a weight file after every epoch
// whose loss is the best so far.
type ModelCheckpoint struct {
	BaseCallback
	Filename string
	Out      *log.Logger

	bestLoss float64
	// Err holds the last save failure, if any.
	Err error
}

func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		bestLoss: math.Inf(1),
	}
}

func (c *ModelCheckpoint) OnEpochEnd(epoch int, loss float64, m *MLP) {
	if loss >= c.bestLoss {
		return
	}
	c.bestLoss = loss
	out := c.Out
	if out == nil {
		out = log.Default()
	}
	if err := SaveText(c.Filename, m.Snapshot()); err != nil {
		c.Err = err
		out.Printf("checkpoint: %v", err)
		return
	}
	out.Printf("checkpoint saved: loss %g is new best", loss)
}
