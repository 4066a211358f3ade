package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/threadharvest/internal/model"
)

// ArtifactTimeLayout is the timestamp layout used in artifact file names.
const ArtifactTimeLayout = "20060102_150405"

// JSONWriter encodes run artifacts as JSON.
// Output is indented with two spaces unless WithCompact is given.
type JSONWriter struct {
	baseWriter

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string; empty means compact output.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithCompact disables indentation.
func WithCompact() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indentPrefix = ""
		w.indentString = ""
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indentString: "  ",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes the artifact followed by a newline. Failures are returned
// as *SerializationError.
func (w *JSONWriter) Write(artifact *model.RunArtifact) (int, error) {
	if artifact == nil {
		artifact = model.NewRunArtifact()
	}

	var (
		data []byte
		err  error
	)
	if w.indentPrefix == "" && w.indentString == "" {
		data, err = json.Marshal(artifact)
	} else {
		data, err = json.MarshalIndent(artifact, w.indentPrefix, w.indentString)
	}
	if err != nil {
		return 0, &SerializationError{Err: err}
	}

	data = append(data, '\n')
	n, err := w.output.Write(data)
	if err != nil {
		return n, &SerializationError{Err: err}
	}
	return n, nil
}

// ArtifactFileName returns "<prefix>_<YYYYmmdd_HHMMSS>.json" for t.
func ArtifactFileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.json", prefix, t.Format(ArtifactTimeLayout))
}

// WriteArtifactFile writes the artifact into dir under a name derived from
// prefix and t, and returns the final path.
//
// The document is written to a temporary file in the same directory and
// renamed into place, so readers never observe a partial artifact. On any
// failure the temporary file is removed and a *SerializationError returned.
func WriteArtifactFile(dir, prefix string, t time.Time, artifact *model.RunArtifact) (string, error) {
	path := filepath.Join(dir, ArtifactFileName(prefix, t))

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", &SerializationError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+prefix+"_*.json.tmp")
	if err != nil {
		return "", &SerializationError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	written := false
	defer func() {
		if !written {
			_ = tmp.Close()        //nolint:errcheck // already failing
			_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		}
	}()

	if _, err := NewJSONWriter(tmp).Write(artifact); err != nil {
		return "", &SerializationError{Path: path, Err: errors.Unwrap(err)}
	}
	if err := tmp.Sync(); err != nil {
		return "", &SerializationError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &SerializationError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", &SerializationError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", &SerializationError{Path: path, Err: err}
	}
	written = true
	return path, nil
}
