// SPDX-License-Identifier: MIT
package main

import (
	"audiostate/cmd"
	"audiostate/internal/log"
	"audiostate/pkg/build"
	"context"
	"os"
	"os/signal"
	"syscall"
)

// main runs the command line. Long-running commands (listen, monitor)
// block until SIGINT or SIGTERM cancels their context, then release the
// audio device, transports and recordings before returning.
func main() {
	// Development builds have no linker flags; the defaults are fine.
	if err := build.Initialize(); err != nil {
		log.Debugf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-done
		log.Debugf("Received %s, shutting down", sig)
		cancel()
	}()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}
