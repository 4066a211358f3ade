package report

import "fmt"

// SerializationError reports that the run artifact could not be encoded
// or persisted. It is fatal for the run.
type SerializationError struct {
	// Path is the destination file, empty when writing to a stream.
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to serialize artifact: %v", e.Err)
	}
	return fmt.Sprintf("failed to write artifact %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *SerializationError) Unwrap() error {
	return e.Err
}
