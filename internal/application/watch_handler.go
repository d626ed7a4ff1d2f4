package application

import (
	"context"
)

// Watch runs the pipeline in a loop, re-running when source files change.
// A failing run does not stop the watch; the callback reports each outcome.
func (s *Service) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	root, err := absRoot(opts.Root)
	if err != nil {
		return err
	}

	if err := watcher.WatchDir(root); err != nil {
		return err
	}

	runNumber := 1
	result, runErr := s.Run(ctx, opts.RunOptions)
	if callback != nil {
		callback(runNumber, result, runErr)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			result, runErr := s.Run(ctx, opts.RunOptions)
			if callback != nil {
				callback(runNumber, result, runErr)
			}
		}
	}
}
