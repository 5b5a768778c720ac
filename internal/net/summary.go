package net

import (
	"fmt"
	"io"
)

// Summary prints the layer table of the network to w.
func (m *MLP) Summary(w io.Writer) {
	fmt.Fprintln(w, "Model: MLP")
	fmt.Fprintln(w, "_________________________________________________________________")
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, "=================================================================")

	totalParams := 0
	for i, l := range m.layers {
		name := fmt.Sprintf("Dense_%d", i)
		if i == len(m.layers)-1 {
			name = "Dense_output"
		}
		params := l.InSize()*l.OutSize() + l.OutSize()
		totalParams += params
		fmt.Fprintf(w, "%-25s %-20s %-10d\n", name, fmt.Sprintf("(%d)", l.OutSize()), params)
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Total params: %d\n", totalParams)
	fmt.Fprintln(w, "_________________________________________________________________")
}
