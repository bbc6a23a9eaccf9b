// Version information for the strm gateway binary.
package main

import (
	"fmt"
	"runtime"
)

const (
	// Version is set at build time via ldflags
	Version = "v0.1.0"
)

// printVersion prints version and platform information.
func printVersion() {
	fmt.Printf("strm-gateway %s (%s/%s, %s)\n", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
