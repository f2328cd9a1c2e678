package run

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/copyleftdev/tspmeta/internal/annealing"
)

// Output formats accepted by NewWriter.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Writer emits records to an underlying io.Writer. Call Flush when done.
type Writer struct {
	w      *bufio.Writer
	format string
}

// NewWriter returns a Writer for format, which is FormatText or FormatJSON.
//
// The text format is one line per record, "<temp> <mean> <meanSq>", every
// number in its shortest round-trip decimal form without an exponent.
func NewWriter(w io.Writer, format string) (*Writer, error) {
	switch format {
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return &Writer{w: bufio.NewWriter(w), format: format}, nil
}

// Emit writes one record.
func (w *Writer) Emit(r annealing.Record) error {
	if w.format == FormatJSON {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		_, err = w.w.Write(data)
		return err
	}
	_, err := fmt.Fprintf(w.w, "%s %s %s\n", formatFloat(r.Temperature), formatFloat(r.Mean), formatFloat(r.MeanSquare))
	return err
}

// Flush writes any buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
