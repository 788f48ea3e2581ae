package ui

import (
	"fmt"
	"os"
	"testing"
	"time"
)

// TestMain reports whether a browser is available before running the ui package.
// Tests skip themselves when it is not.
func TestMain(m *testing.M) {
	mw := os.Stderr

	if path, err := findBrowser(); err != nil {
		fmt.Fprintf(mw, "\n⚠ %v - browser tests will be skipped\n\n", err)
	} else {
		fmt.Fprintf(mw, "✓ Browser found: %s\n", path)
	}

	// Run all tests with cleanup guarantee
	var exitCode int
	func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(mw, "\n⚠ PANIC during test execution: %v\n", r)
				exitCode = 1
			}
			// Give deferred browser teardown a moment to finish
			time.Sleep(100 * time.Millisecond)
		}()
		exitCode = m.Run()
	}()

	os.Exit(exitCode)
}
