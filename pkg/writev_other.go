//go:build !linux

package blockdupes

import (
	"bytes"
	"fmt"
	"os"
)

func writeLines(file *os.File, lines [][]byte) error {
	if _, err := file.Write(bytes.Join(lines, nil)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
