//go:build !linux

package blockdupes

import "os"

func adviseSequential(file *os.File) {}
