package render

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSON writes reports as indented JSON, one document per report.
type JSON struct {
	w io.Writer
}

// NewJSON returns a renderer writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

// Render encodes rep as one indented JSON document.
func (j *JSON) Render(rep *Report) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
