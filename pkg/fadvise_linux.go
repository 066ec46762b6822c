//go:build linux

package blockdupes

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the file will be read front to back so
// read-ahead can be widened. Failure is harmless and ignored.
func adviseSequential(file *os.File) {
	if err := unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil && IsDebugEnabled(DebugHash) {
		VerboseLog(3, "fadvise %s: %v", file.Name(), err)
	}
}
