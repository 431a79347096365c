package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// response is the JSON envelope for --format json.
type response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// emit writes data as a JSON envelope, or text when the format is text.
func emit(w io.Writer, format string, data any, text string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
