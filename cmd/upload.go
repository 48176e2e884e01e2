package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"docq/internal/shared"
	"docq/internal/tasks"
)

// Upload sends one or more documents through the upload pipeline and reports
// per-file outcomes. Files fail individually; the command only errors when
// nothing was uploaded.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file is required", shared.ErrMissingArgument)
	}

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	files := make([]tasks.File, 0, len(paths))
	for _, path := range paths {
		data, err := shared.VerifyAndReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, tasks.File{Name: path, Data: data})
	}

	opts := r.batchOpts()
	if workers := cmd.Int("workers"); workers > 0 {
		opts.NumWorkers = int(workers)
	}

	prog := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range prog {
			switch update.Phase {
			case tasks.IndexFile, tasks.BatchDone:
				r.writePlain("%s\n", update.Message)
			case tasks.ValidateFile, tasks.TransferFile:
				if snap, ok := update.Data.(tasks.ItemSnapshot); ok && snap.Status == tasks.StatusError {
					r.writePlain("%s\n", update.Message)
				}
			}
		}
	}()

	result, err := r.pipeline.Run(ctx, prog, files, opts)
	close(prog)
	wg.Wait()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if result.Succeeded == 0 {
		return fmt.Errorf("%w: no files were uploaded", shared.ErrAPIRequest)
	}
	if result.SessionID != "" {
		r.writePlainln("Chat session ready: %s", result.SessionID)
		r.writePlain("Ask a question with: docq chat ask -s %s \"...\"\n", result.SessionID)
	}
	return nil
}
