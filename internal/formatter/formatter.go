// package formatter provides functions to export chat transcripts to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"docq/internal/models"
	"docq/internal/shared"
)

// ExportToCSV converts a chat session to CSV format with columns: Timestamp, Query, Answer, Sources
func ExportToCSV(session *models.ChatSession) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Timestamp", "Query", "Answer", "Sources"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, msg := range session.Messages {
		record := []string{
			msg.Timestamp.Format(time.RFC3339),
			msg.Query,
			msg.Answer,
			strings.Join(msg.Sources, "; "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a chat session to Markdown format
func ExportToMarkdown(session *models.ChatSession) ([]byte, error) {
	var buf bytes.Buffer

	title := session.Filename
	if title == "" {
		title = session.ID
	}
	buf.WriteString(fmt.Sprintf("# Chat: %s\n\n", title))

	if !session.CreatedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Started**: %s\n", session.CreatedAt.Format(time.RFC1123)))
	}
	buf.WriteString(fmt.Sprintf("**Messages**: %d\n\n", len(session.Messages)))

	buf.WriteString("## Transcript\n\n")
	for i, msg := range session.Messages {
		buf.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, msg.Query))
		buf.WriteString(msg.Answer)
		buf.WriteString("\n\n")
		if len(msg.Sources) > 0 {
			buf.WriteString(fmt.Sprintf("> Sources: %s\n\n", strings.Join(msg.Sources, ", ")))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a chat session to plain text format
func ExportToText(session *models.ChatSession) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Session: %s\n", session.ID))
	if session.Filename != "" {
		buf.WriteString(fmt.Sprintf("Document: %s\n", session.Filename))
	}
	buf.WriteString(fmt.Sprintf("Messages: %d\n\n", len(session.Messages)))

	for i, msg := range session.Messages {
		buf.WriteString(fmt.Sprintf("%d. Q: %s\n", i+1, msg.Query))
		buf.WriteString(fmt.Sprintf("   A: %s\n", msg.Answer))
	}

	return buf.Bytes(), nil
}

// ToSessionJSON generates a JSON representation of the full session
func ToSessionJSON(session *models.ChatSession) ([]byte, error) {
	return shared.MarshalJSON(session, true)
}

// WriteTranscript exports a session in the requested format and returns the written path.
//
// Defaults to {session.ID}.{ext} in the working directory when path is empty.
// Unknown formats fall back to JSON.
func WriteTranscript(session *models.ChatSession, format, path string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(session)
		ext = "csv"
	case "markdown":
		data, err = ExportToMarkdown(session)
		ext = "md"
	case "txt":
		data, err = ExportToText(session)
		ext = "txt"
	case "json":
		fallthrough
	default:
		data, err = ToSessionJSON(session)
		ext = "json"
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if path == "" {
		path = fmt.Sprintf("%s.%s", session.ID, ext)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}

	return path, nil
}
