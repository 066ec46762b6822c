//go:build linux

package blockdupes

import (
	"fmt"
	"os"
	"syscall"

	"github.com/google/vectorio"
)

// maxIovecs stays under the kernel's IOV_MAX (1024 on Linux)
const maxIovecs = 1024

// writeLines writes every buffer to file with as few writev calls as possible
func writeLines(file *os.File, lines [][]byte) error {
	bufs := make([][]byte, 0, len(lines))
	for _, line := range lines {
		if len(line) > 0 {
			bufs = append(bufs, line)
		}
	}

	for offset := 0; offset < len(bufs); offset += maxIovecs {
		end := min(offset+maxIovecs, len(bufs))
		chunk := bufs[offset:end]

		iovecs := make([]syscall.Iovec, len(chunk))
		want := 0
		for i, buf := range chunk {
			iovecs[i].Base = &buf[0]
			iovecs[i].SetLen(len(buf))
			want += len(buf)
		}

		nw, err := vectorio.WritevRaw(uintptr(file.Fd()), iovecs)
		if err != nil {
			return fmt.Errorf("failed to write report with vectorio: %w", err)
		}
		if nw < want {
			if err := writeRemainder(file, chunk, nw); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeRemainder finishes a short writev with plain writes
func writeRemainder(file *os.File, chunk [][]byte, written int) error {
	for _, buf := range chunk {
		if written >= len(buf) {
			written -= len(buf)
			continue
		}
		if _, err := file.Write(buf[written:]); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		written = 0
	}
	return nil
}
