//go:build !linux

package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"
)

// readDevices runs one blocking reader per device.
func readDevices(ctx context.Context, files []*os.File, events chan<- inputEvent) error {
	if len(files) == 0 {
		return errors.New("no input devices provided")
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error { return readInputEvents(ctx, f, events) })
	}
	return g.Wait()
}
