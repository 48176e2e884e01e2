package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"docq/internal/formatter"
	"docq/internal/models"
	"docq/internal/shared"
)

// HistoryList prints all chat sessions, falling back to the local cache when
// the backend is unreachable.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	repo, closeRepo, repoErr := r.openRepo()
	if repoErr != nil {
		r.logger.Warn("history cache unavailable", "error", repoErr)
	} else {
		defer closeRepo()
	}

	sessions, err := r.svc.Sessions(ctx)
	fromCache := false
	if err != nil {
		if repo == nil {
			return err
		}
		cached, cacheErr := repo.List()
		if cacheErr != nil {
			return err
		}
		r.logger.Warn("backend unreachable, showing cached history", "error", err)
		sessions = cached
		fromCache = true
	} else if repo != nil {
		if err := repo.Refresh(sessions); err != nil {
			r.logger.Warn("failed to refresh history cache", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(sessions, true)
	}

	if len(sessions) == 0 {
		return r.writePlain("No chat sessions yet\n")
	}
	if fromCache {
		r.writePlain("(offline: showing cached history)\n")
	}
	for _, s := range sessions {
		name := s.Filename
		if name == "" {
			name = "-"
		}
		r.writePlain("%s  %s  %d messages  %s\n",
			s.ID, name, len(s.Messages), s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// HistoryShow prints one session's transcript.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	session, err := r.fetchSession(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(session, true)
	}

	r.writePlain("Session %s", session.ID)
	if session.Filename != "" {
		r.writePlain(" (%s)", session.Filename)
	}
	r.writePlain("\n\n")
	for _, msg := range session.Messages {
		r.writePlain("Q: %s\n", msg.Query)
		r.writePlain("A: %s\n", msg.Answer)
		if len(msg.Sources) > 0 {
			r.writePlain("   Sources: %s\n", strings.Join(msg.Sources, ", "))
		}
		r.writePlain("\n")
	}
	return nil
}

// HistoryExport writes one session's transcript to a file.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	session, err := r.fetchSession(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	path, err := formatter.WriteTranscript(session, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Transcript written to %s\n", path)
}

// HistoryClear wipes all chat history on the backend and in the local cache.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		r.writePlain("Delete all chat history? This cannot be undone. [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			return r.writePlain("Aborted\n")
		}
	}

	if err := r.svc.ClearHistory(ctx); err != nil {
		return err
	}

	if repo, closeRepo, err := r.openRepo(); err == nil {
		defer closeRepo()
		if err := repo.Clear(); err != nil {
			r.logger.Warn("failed to clear history cache", "error", err)
		}
	}

	return r.writePlain("✓ Chat history cleared\n")
}

// fetchSession loads a session from the backend, falling back to the cache.
func (r *Runner) fetchSession(ctx context.Context, id string) (*models.ChatSession, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: a session id is required", shared.ErrMissingArgument)
	}

	if err := r.ensureSession(ctx); err != nil {
		return nil, err
	}

	session, err := r.svc.Session(ctx, id)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, shared.ErrSessionNotFound) {
		return nil, err
	}

	repo, closeRepo, repoErr := r.openRepo()
	if repoErr != nil {
		return nil, err
	}
	defer closeRepo()

	cached, cacheErr := repo.Get(id)
	if cacheErr != nil {
		return nil, err
	}
	r.logger.Warn("backend unreachable, showing cached session", "error", err)
	return cached, nil
}
