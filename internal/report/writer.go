package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// Append writes one formatted summary to the end of the summary file,
// creating the directory and file on first use.
func Append(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open summary file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text + "\n"); err != nil {
		return fmt.Errorf("write summary file: %w", err)
	}
	return nil
}
