package net

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
)

// Section headers of the weight file format.
const (
	headerInputWeights  = "inputWeights"
	headerHiddenWeights = "hiddenLayerWeights"
	headerHiddenBiases  = "hiddenLayerBiases"
	headerOutputBiases  = "outputBiases"
)

// WriteText writes s in the plain text weight format: an inputWeights
// section, a hiddenLayerWeights and hiddenLayerBiases section per hidden
// block, then an outputBiases section. Sections after the first are preceded
// by a blank line. Every value is followed by a space and every row by a
// newline.
func WriteText(w io.Writer, s Snapshot) error {
	bw := bufio.NewWriter(w)

	writeSection(bw, headerInputWeights, s.InputWeights, false)
	for _, h := range s.Hidden {
		writeSection(bw, headerHiddenWeights, h.Weights, true)
		writeSection(bw, headerHiddenBiases, h.Biases, true)
	}
	writeSection(bw, headerOutputBiases, s.OutputBiases, true)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return nil
}

func writeSection(w *bufio.Writer, header string, m *matrix.Matrix, blankBefore bool) {
	if blankBefore {
		w.WriteByte('\n')
	}
	w.WriteString(header)
	w.WriteByte('\n')
	for _, row := range m.RowSlices() {
		for _, v := range row {
			w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			w.WriteByte(' ')
		}
		w.WriteByte('\n')
	}
}

// ReadText parses the format written by WriteText. Hidden blocks are paired
// in order, and each pair must be a hiddenLayerWeights block followed by a
// hiddenLayerBiases block.
func ReadText(r io.Reader) (Snapshot, error) {
	var (
		section      string
		input        [][]float64
		output       [][]float64
		block        [][]float64
		hiddenBlocks [][][]float64
		blockHeaders []string
	)
	flush := func() {
		if len(block) > 0 {
			hiddenBlocks = append(hiddenBlocks, block)
			blockHeaders = append(blockHeaders, section)
			block = nil
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if section == headerHiddenWeights || section == headerHiddenBiases {
				flush()
			}
			continue
		}

		switch line {
		case headerInputWeights, headerHiddenWeights, headerHiddenBiases, headerOutputBiases:
			flush()
			section = line
			continue
		}

		row, err := parseRow(line)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: line %d: %v", ErrWeightFormat, lineNo, err)
		}
		switch section {
		case headerInputWeights:
			input = append(input, row)
		case headerHiddenWeights, headerHiddenBiases:
			block = append(block, row)
		case headerOutputBiases:
			output = append(output, row)
		default:
			return Snapshot{}, fmt.Errorf("%w: line %d: data before any section header", ErrWeightFormat, lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read weights: %w", err)
	}
	flush()

	switch {
	case len(input) == 0:
		return Snapshot{}, fmt.Errorf("%w: missing %s", ErrWeightFormat, headerInputWeights)
	case len(output) == 0:
		return Snapshot{}, fmt.Errorf("%w: missing %s", ErrWeightFormat, headerOutputBiases)
	case len(hiddenBlocks) == 0:
		return Snapshot{}, fmt.Errorf("%w: no hidden layer blocks", ErrWeightFormat)
	case len(hiddenBlocks)%2 != 0:
		return Snapshot{}, fmt.Errorf("%w: %d hidden blocks cannot pair as weights and biases", ErrWeightFormat, len(hiddenBlocks))
	}

	var s Snapshot
	var err error
	if s.InputWeights, err = matrix.FromRows(input); err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", headerInputWeights, err)
	}
	if s.OutputBiases, err = matrix.FromRows(output); err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", headerOutputBiases, err)
	}
	for i := 0; i < len(hiddenBlocks); i += 2 {
		if blockHeaders[i] != headerHiddenWeights || blockHeaders[i+1] != headerHiddenBiases {
			return Snapshot{}, fmt.Errorf("%w: hidden block %d is %s then %s, want %s then %s", ErrWeightFormat,
				i/2, blockHeaders[i], blockHeaders[i+1], headerHiddenWeights, headerHiddenBiases)
		}
		w, err := matrix.FromRows(hiddenBlocks[i])
		if err != nil {
			return Snapshot{}, fmt.Errorf("hidden block %d weights: %w", i/2, err)
		}
		b, err := matrix.FromRows(hiddenBlocks[i+1])
		if err != nil {
			return Snapshot{}, fmt.Errorf("hidden block %d biases: %w", i/2, err)
		}
		s.Hidden = append(s.Hidden, HiddenBlock{Weights: w, Biases: b})
	}
	return s, nil
}

func parseRow(line string) ([]float64, error) {
	fields := strings.Fields(line)
	row := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// SaveText writes s to filename in the text weight format.
func SaveText(filename string, s Snapshot) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteText(file, s); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// LoadText reads a snapshot from a text weight file.
func LoadText(filename string) (Snapshot, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadText(file)
}

// Load creates an MLP from a text weight file.
func Load(filename string) (*MLP, error) {
	s, err := LoadText(filename)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(s)
}
