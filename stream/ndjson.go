package stream

import (
	"encoding/json"
	"io"
	"iter"
)

// WriteNDJSON serializes an update sequence as newline-delimited JSON, one
// update per line, flushing after each line when the writer supports it.
// Returns the first write error; the sequence is abandoned at that point.
func WriteNDJSON(w io.Writer, updates iter.Seq[Update]) error {
	type flusher interface{ Flush() error }

	enc := json.NewEncoder(w)
	for update := range updates {
		if err := enc.Encode(update); err != nil {
			return err
		}
		if f, ok := w.(flusher); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}
