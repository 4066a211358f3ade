package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/threadharvest/internal/model"
)

// TextWriter renders a run summary as plain text for the terminal.
type TextWriter struct {
	baseWriter

	// verbose adds the top keywords of every source.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables the per-source keyword listing.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSummary implements SummaryWriter.
func (w *TextWriter) WriteSummary(s *model.RunSummary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Run finished in %s: %d source(s), %d post(s), %d failed\n",
		s.Duration().Round(time.Second), len(s.Outcomes), s.TotalPosts(), s.FailedCount())
	if s.ArtifactPath != "" {
		fmt.Fprintf(&sb, "Artifact: %s\n", s.ArtifactPath)
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	for _, o := range s.Outcomes {
		if o.Succeeded() {
			fmt.Fprintf(&sb, "  [+] %-24s %-4s %5d post(s)\n", o.Name, o.Kind, len(o.Posts))
		} else {
			fmt.Fprintf(&sb, "  [!] %-24s %-4s FAILED: %s\n", o.Name, o.Kind, o.ErrorMessage())
		}
		if w.verbose && s.Artifact != nil {
			if data, ok := s.Artifact.Get(o.Name); ok {
				w.writeKeywords(&sb, "frustrations", data.Themes.Frustrations)
				w.writeKeywords(&sb, "successes", data.Themes.Successes)
			}
		}
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *TextWriter) writeKeywords(sb *strings.Builder, label string, matches []model.ThemeMatch) {
	top := model.TopKeywords(matches, topKeywordLimit)
	if len(top) == 0 {
		return
	}
	parts := make([]string, len(top))
	for i, kc := range top {
		parts[i] = fmt.Sprintf("%s=%d", kc.Keyword, kc.Count)
	}
	fmt.Fprintf(sb, "        %s: %s\n", label, strings.Join(parts, ", "))
}

// ProgressLine formats a one-line progress message for a completed source.
func ProgressLine(o model.SourceOutcome, index, total int) string {
	if o.Succeeded() {
		return fmt.Sprintf("[%d/%d] %s (%s): %d post(s) in %s",
			index+1, total, o.Name, o.Kind, len(o.Posts), o.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("[%d/%d] %s (%s): failed: %s", index+1, total, o.Name, o.Kind, o.ErrorMessage())
}
