package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"docq/internal/shared"
	"docq/internal/tasks"
)

// ChatAsk submits one question and prints the answer with its sources.
func (r *Runner) ChatAsk(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: a question is required", shared.ErrMissingArgument)
	}

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	conv := tasks.NewConversation(r.svc, r.logger)
	if sessionID := cmd.String("session"); sessionID != "" {
		conv.Attach(sessionID)
	}

	message, err := conv.Ask(ctx, query)
	if err != nil {
		r.logger.Warn("query failed", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(message, true)
	}

	r.writePlain("%s\n", message.Answer)
	if len(message.Sources) > 0 {
		r.writePlainln("Sources: %s", strings.Join(message.Sources, ", "))
	}
	if id := conv.SessionID(); id != "" {
		r.writePlain("Session: %s\n", id)
	}
	return err
}

// ChatNew opens an empty chat session and prints its id.
func (r *Runner) ChatNew(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	id, err := r.svc.NewSession(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"session_id": id}, true)
	}

	r.writePlain("Chat session ready: %s\n", id)
	r.writePlain("Ask a question with: docq chat ask -s %s \"...\"\n", id)
	return nil
}

// Stats prints the knowledge base counters.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	stats, err := r.svc.Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlain("Documents:     %d\n", stats.TotalDocuments)
	r.writePlain("Chunks:        %d\n", stats.TotalChunks)
	r.writePlain("Chat sessions: %d\n", stats.ChatHistoryCount)
	return nil
}
