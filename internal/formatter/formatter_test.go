package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docq/internal/models"
)

func sampleSession() *models.ChatSession {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &models.ChatSession{
		ID:        "session123",
		UserID:    "u1",
		Filename:  "quarterly_report.pdf",
		CreatedAt: created,
		Messages: []models.Message{
			{
				ID:        "m1",
				Query:     "What was Q1 revenue?",
				Answer:    "Revenue was $4.2M.",
				Sources:   []string{"quarterly_report.pdf", "appendix.pdf"},
				Timestamp: created.Add(time.Minute),
			},
			{
				ID:        "m2",
				Query:     "And the outlook?",
				Answer:    "Growth is expected to continue.",
				Timestamp: created.Add(2 * time.Minute),
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleSession())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Timestamp,Query,Answer,Sources") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "What was Q1 revenue?") {
			t.Errorf("CSV missing first query")
		}
		if !strings.Contains(output, "Revenue was $4.2M.") {
			t.Errorf("CSV missing first answer")
		}
		if !strings.Contains(output, "quarterly_report.pdf; appendix.pdf") {
			t.Errorf("CSV missing joined sources")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleSession())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Chat: quarterly_report.pdf") {
			t.Errorf("Markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "## Transcript") {
			t.Errorf("Markdown missing transcript section")
		}
		if !strings.Contains(output, "### 1. What was Q1 revenue?") {
			t.Errorf("Markdown missing numbered question")
		}
		if !strings.Contains(output, "> Sources: quarterly_report.pdf, appendix.pdf") {
			t.Errorf("Markdown missing sources line")
		}
		if strings.Contains(output, "> Sources: \n") {
			t.Errorf("Markdown should omit empty sources")
		}
	})

	t.Run("MarkdownFallsBackToSessionID", func(t *testing.T) {
		session := sampleSession()
		session.Filename = ""

		data, err := ExportToMarkdown(session)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "# Chat: session123") {
			t.Errorf("Expected session ID title, got: %s", string(data))
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleSession())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Session: session123") {
			t.Errorf("Text missing session header")
		}
		if !strings.Contains(output, "Document: quarterly_report.pdf") {
			t.Errorf("Text missing document line")
		}
		if !strings.Contains(output, "1. Q: What was Q1 revenue?") {
			t.Errorf("Text missing first question")
		}
		if !strings.Contains(output, "   A: Revenue was $4.2M.") {
			t.Errorf("Text missing first answer")
		}
	})

	t.Run("ToSessionJSON", func(t *testing.T) {
		data, err := ToSessionJSON(sampleSession())
		if err != nil {
			t.Fatalf("ToSessionJSON failed: %v", err)
		}

		var decoded models.ChatSession
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("JSON export is not valid JSON: %v", err)
		}
		if decoded.ID != "session123" || len(decoded.Messages) != 2 {
			t.Errorf("JSON round trip mismatch: %+v", decoded)
		}
	})
}

func TestWriteTranscript(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		wantExt    string
		wantInFile string
	}{
		{"json export", "json", ".json", "session123"},
		{"csv export", "csv", ".csv", "Timestamp,Query,Answer,Sources"},
		{"markdown export", "markdown", ".md", "# Chat:"},
		{"text export", "txt", ".txt", "Session: session123"},
		{"unknown format falls back to json", "yaml", ".json", "session123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "out"+tt.wantExt)

			written, err := WriteTranscript(sampleSession(), tt.format, path)
			if err != nil {
				t.Fatalf("WriteTranscript failed: %v", err)
			}
			if written != path {
				t.Errorf("Written path = %s, want %s", written, path)
			}

			content, err := os.ReadFile(written)
			if err != nil {
				t.Fatalf("Failed to read export: %v", err)
			}
			if !strings.Contains(string(content), tt.wantInFile) {
				t.Errorf("Export missing %q, got: %s", tt.wantInFile, string(content))
			}
		})
	}

	t.Run("default path uses session id", func(t *testing.T) {
		dir := t.TempDir()
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("Getwd failed: %v", err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("Chdir failed: %v", err)
		}
		defer os.Chdir(wd)

		written, err := WriteTranscript(sampleSession(), "txt", "")
		if err != nil {
			t.Fatalf("WriteTranscript failed: %v", err)
		}
		if written != "session123.txt" {
			t.Errorf("Default path = %s, want session123.txt", written)
		}
	})
}
