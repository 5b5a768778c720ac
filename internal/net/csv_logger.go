package net

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

var csvLogHeader = []string{"epoch", "loss", "time_seconds"}

// CSVLogger appends one epoch,loss,time_seconds row per epoch to a CSV file.
// The first failure to open or write the file is kept in Err and no further
// rows are written.
type CSVLogger struct {
	BaseCallback
	Filename string
	// Append keeps existing rows; the header is only written to an empty file.
	Append bool
	// Out defaults to the standard logger.
	Out *log.Logger

	// Err holds the first open, write or close failure, if any.
	Err error

	file  *os.File
	w     *csv.Writer
	start time.Time
}

func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{Filename: filename, Append: append}
}

func (c *CSVLogger) fail(err error) {
	if c.Err == nil {
		c.Err = err
	}
	out := c.Out
	if out == nil {
		out = log.Default()
	}
	out.Printf("csv log: %v", err)
	c.close()
}

func (c *CSVLogger) OnTrainBegin(m *MLP) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if c.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(c.Filename, flags, 0o644)
	if err != nil {
		c.fail(fmt.Errorf("failed to open %s: %w", c.Filename, err))
		return
	}
	c.file, c.w, c.start = file, csv.NewWriter(file), time.Now()

	info, err := file.Stat()
	if err != nil {
		c.fail(fmt.Errorf("failed to stat %s: %w", c.Filename, err))
		return
	}
	if info.Size() == 0 {
		c.write(csvLogHeader)
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, loss float64, m *MLP) {
	c.write([]string{
		strconv.Itoa(epoch),
		strconv.FormatFloat(loss, 'g', -1, 64),
		strconv.FormatFloat(time.Since(c.start).Seconds(), 'f', 2, 64),
	})
}

func (c *CSVLogger) write(record []string) {
	if c.w == nil {
		return
	}
	c.w.Write(record)
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.fail(fmt.Errorf("failed to write %s: %w", c.Filename, err))
	}
}

func (c *CSVLogger) OnTrainEnd(m *MLP) {
	if c.file == nil {
		return
	}
	if err := c.file.Close(); err != nil && c.Err == nil {
		c.Err = fmt.Errorf("failed to close %s: %w", c.Filename, err)
	}
	c.file, c.w = nil, nil
}

func (c *CSVLogger) close() {
	if c.file != nil {
		c.file.Close()
	}
	c.file, c.w = nil, nil
}
