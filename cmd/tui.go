package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"docq/internal/shared"
	"docq/internal/tasks"
	"docq/internal/ui"
)

// TUI launches the interactive terminal UI. Any file arguments are staged in
// the upload view so a batch can start without leaving the terminal.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.svc == nil {
		return fmt.Errorf("%w: backend service not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/docq-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var files []tasks.File
	for _, path := range cmd.Args().Slice() {
		data, err := shared.VerifyAndReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, tasks.File{Name: path, Data: data})
	}

	repo, closeRepo, err := r.openRepo()
	if err != nil {
		// history still works against the backend without the local cache
		fileLogger.Warn("continuing without history cache", "error", err)
		repo = nil
	} else {
		defer closeRepo()
	}

	conv := tasks.NewConversation(r.svc, fileLogger)
	model := ui.NewModel(ctx, r.controller, r.router, r.svc, r.pipeline, conv, repo, files, r.batchOpts())
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
