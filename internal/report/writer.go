package report

import (
	"io"

	"github.com/nao1215/threadharvest/internal/model"
)

// SummaryWriter renders a run summary.
type SummaryWriter interface {
	// WriteSummary outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	WriteSummary(summary *model.RunSummary) (int, error)
}

// MultiWriter writes a summary to several SummaryWriters in turn.
type MultiWriter struct {
	writers []SummaryWriter
}

// NewMultiWriter creates a SummaryWriter that writes to all provided writers.
func NewMultiWriter(writers ...SummaryWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteSummary writes to every writer and returns the total byte count.
// Stops on first error encountered.
func (m *MultiWriter) WriteSummary(summary *model.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
