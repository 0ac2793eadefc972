package figma

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseFile decodes a Figma file API response.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse figma file: %w", err)
	}
	if f.Document == nil {
		return nil, fmt.Errorf("parse figma file: missing document root")
	}
	return &f, nil
}

// LoadFile reads and parses a Figma file response from disk. Used for
// offline imports and tests.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseFile(data)
}
