package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler returns a channel closed on the first SIGINT, SIGTERM or
// SIGPIPE. A second SIGINT or SIGTERM while the scan winds down exits at once.
func setupSignalHandler() <-chan struct{} {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE)
	return watchSignals(sigChan, os.Stderr, func(code int) {
		signal.Stop(sigChan)
		os.Exit(code)
	})
}

// watchSignals closes the returned channel on the first signal and calls
// exit(exitInterrupted) on the next user signal. SIGPIPE means stdout is gone
// (for example piped into head), so it stops the scan without a message.
func watchSignals(sigChan <-chan os.Signal, stderr io.Writer, exit func(int)) <-chan struct{} {
	shutdown := make(chan struct{})

	go func() {
		first := <-sigChan
		if first != syscall.SIGPIPE {
			fmt.Fprintf(stderr, "\nblockdupes: %v, finishing current cohort (repeat to abort)\n", first)
		}
		close(shutdown)

		for sig := range sigChan {
			if sig == syscall.SIGPIPE {
				continue
			}
			fmt.Fprintf(stderr, "blockdupes: %v again, aborting\n", sig)
			exit(exitInterrupted)
			return
		}
	}()

	return shutdown
}
