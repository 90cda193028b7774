package photo

import (
	"encoding/json"
	"fmt"
)

// Serialize renders records as a pretty-printed JSON array. An empty batch
// is "[]", never "null".
func Serialize(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing records: %w", err)
	}
	return data, nil
}

// Render returns the document as text for display, or a human readable
// error message in its place.
func Render(records []Record) string {
	data, err := Serialize(records)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return string(data)
}
