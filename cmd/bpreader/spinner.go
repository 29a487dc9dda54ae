package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chriskillpack/bpreader"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

const spinnerTick = 100 * time.Millisecond

// measure runs the reading, drawing a spinner on stderr until the model has
// replied. Stdout is left untouched for the result.
func measure(ctx context.Context, r *bpreader.Reader, path string, showSpinner bool) (*bpreader.Measurement, error) {
	if !showSpinner {
		return r.Measure(ctx, path)
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("Reading %s with %s", filepath.Base(path), r.Model())),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(spinnerTick),
		progressbar.OptionClearOnFinish(),
	)

	var (
		m    *bpreader.Measurement
		done = make(chan struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)

		var err error
		m, err = r.Measure(gctx, path)
		return err
	})
	g.Go(func() error {
		t := time.NewTicker(spinnerTick)
		defer t.Stop()

		for {
			select {
			case <-done:
				// A broken terminal must not fail the reading
				bar.Finish()
				return nil
			case <-t.C:
				bar.Add(1)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
