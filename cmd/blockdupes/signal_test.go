package main

import (
	"bytes"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
)

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown channel was not closed")
	}
}

func TestWatchSignals_SecondSignalExits(t *testing.T) {
	sigChan := make(chan os.Signal, 2)
	var stderr bytes.Buffer
	exitCodes := make(chan int, 1)

	shutdown := watchSignals(sigChan, &stderr, func(code int) { exitCodes <- code })

	sigChan <- syscall.SIGINT
	waitClosed(t, shutdown)
	if !strings.Contains(stderr.String(), "finishing current cohort") {
		t.Errorf("Expected shutdown notice, got %q", stderr.String())
	}
	select {
	case code := <-exitCodes:
		t.Fatalf("First signal should not exit, got code %d", code)
	default:
	}

	sigChan <- syscall.SIGTERM
	select {
	case code := <-exitCodes:
		if code != exitInterrupted {
			t.Errorf("Expected exit code %d, got %d", exitInterrupted, code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Second signal did not exit")
	}
	if !strings.Contains(stderr.String(), "aborting") {
		t.Errorf("Expected abort notice, got %q", stderr.String())
	}
}

func TestWatchSignals_SigpipeIsQuiet(t *testing.T) {
	sigChan := make(chan os.Signal, 2)
	var stderr bytes.Buffer
	exitCodes := make(chan int, 1)

	shutdown := watchSignals(sigChan, &stderr, func(code int) { exitCodes <- code })

	sigChan <- syscall.SIGPIPE
	waitClosed(t, shutdown)

	// further broken-pipe signals do not escalate
	sigChan <- syscall.SIGPIPE
	close(sigChan)
	time.Sleep(20 * time.Millisecond)

	select {
	case code := <-exitCodes:
		t.Fatalf("SIGPIPE should not exit, got code %d", code)
	default:
	}
	if stderr.Len() != 0 {
		t.Errorf("Expected no output for SIGPIPE, got %q", stderr.String())
	}
}
