package util

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// SetupInterruptHandler calls cancel on the first SIGINT/SIGTERM so running
// downloads wind down and clean their staging folders. A second signal exits
// immediately. The returned func stops listening.
func SetupInterruptHandler(cancel func()) func() {
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sig:
		case <-done:
			return
		}
		fmt.Println("\nInterrupt received. Finishing current pages and cleaning up...")
		cancel()

		select {
		case <-sig:
			fmt.Println("\nExiting due to second interrupt.")
			os.Exit(1)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sig)
		close(done)
	}
}

// RemoveIfEmpty deletes dir when it has no entries and reports whether it did.
func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}

	return os.Remove(dir) == nil
}
