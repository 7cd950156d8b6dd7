package report

import (
	"encoding/json"
	"os"
	"path/filepath"
)

func WriteJSON(path string, value interface{}) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return WriteFile(path, b)
}

// WriteFile creates the parent directory when needed and writes b to path.
func WriteFile(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && dir != "." {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
