package typist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Report file names written to the output directory
const (
	DeletedColumnsFile = "deletedColumns.txt"
	ManualFile         = "ForManual.txt"
	WithMissingFile    = "columsWithNan.txt"
)

// writeLines writes one item per line, truncating or appending
func writeLines(dir, name string, lines []string, appendTo bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendTo {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			f.Close()
			return fmt.Errorf("failed to write report %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return f.Close()
}
