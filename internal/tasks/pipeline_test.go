package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"docq/internal/services"
	"docq/internal/shared"
	dqtest "docq/internal/testing"
)

func testPipeline(svc services.Service) *UploadPipeline {
	return NewUploadPipeline(svc, shared.NewLogger(io.Discard))
}

func okUpload(receipts map[string]*services.UploadReceipt) func(context.Context, string, []byte, func(int64, int64)) (*services.UploadReceipt, error) {
	return func(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*services.UploadReceipt, error) {
		total := int64(len(data))
		progress(total/2, total)
		progress(total, total)
		if r, ok := receipts[filename]; ok {
			return r, nil
		}
		return &services.UploadReceipt{
			Message:     "File uploaded and processed successfully",
			Filename:    filename,
			ChunksCount: 3,
			SessionID:   "session-" + filename,
		}, nil
	}
}

func TestUploadPipeline_Batch(t *testing.T) {
	tests := []struct {
		name           string
		files          []File
		uploadFn       func(context.Context, string, []byte, func(int64, int64)) (*services.UploadReceipt, error)
		wantSucceeded  int
		wantFailed     int
		validateResult func(t *testing.T, result *BatchResult)
	}{
		{
			name: "all files succeed",
			files: []File{
				{Name: "report.pdf", Data: bytes.Repeat([]byte("a"), 64)},
				{Name: "notes.md", Data: bytes.Repeat([]byte("b"), 64)},
				{Name: "data.csv", Data: bytes.Repeat([]byte("c"), 64)},
			},
			uploadFn:      okUpload(nil),
			wantSucceeded: 3,
			wantFailed:    0,
			validateResult: func(t *testing.T, result *BatchResult) {
				if result.SessionID == "" {
					t.Error("expected a session id from a successful batch")
				}
				for _, item := range result.Items {
					if item.Status != StatusSuccess {
						t.Errorf("%s: expected success, got %v", item.Name, item.Status)
					}
					if item.Percent != 100 {
						t.Errorf("%s: expected 100%%, got %d", item.Name, item.Percent)
					}
				}
			},
		},
		{
			name: "one failure leaves the rest intact",
			files: []File{
				{Name: "good1.pdf", Data: []byte("good")},
				{Name: "bad.pdf", Data: []byte("bad")},
				{Name: "good2.txt", Data: []byte("good")},
			},
			uploadFn: func(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*services.UploadReceipt, error) {
				if filename == "bad.pdf" {
					return nil, fmt.Errorf("%w: Error processing file", shared.ErrAPIRequest)
				}
				return okUpload(nil)(ctx, filename, data, progress)
			},
			wantSucceeded: 2,
			wantFailed:    1,
			validateResult: func(t *testing.T, result *BatchResult) {
				for _, item := range result.Items {
					if item.Name == "bad.pdf" {
						if item.Status != StatusError {
							t.Errorf("bad.pdf: expected error status, got %v", item.Status)
						}
						if item.Percent != 0 {
							t.Errorf("bad.pdf: failed upload should reset to 0%%, got %d", item.Percent)
						}
						if item.Detail == "" {
							t.Error("bad.pdf: expected failure detail")
						}
					} else if item.Status != StatusSuccess {
						t.Errorf("%s: expected success, got %v", item.Name, item.Status)
					}
				}
			},
		},
		{
			name: "unsupported extension rejected before the network",
			files: []File{
				{Name: "malware.exe", Data: []byte("nope")},
				{Name: "paper.pdf", Data: []byte("fine")},
			},
			uploadFn: func(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*services.UploadReceipt, error) {
				if filename == "malware.exe" {
					t.Error("rejected file must not be uploaded")
				}
				return okUpload(nil)(ctx, filename, data, progress)
			},
			wantSucceeded: 1,
			wantFailed:    1,
		},
		{
			name: "oversized file rejected",
			files: []File{
				{Name: "huge.pdf", Data: bytes.Repeat([]byte("x"), 2048)},
				{Name: "small.pdf", Data: []byte("ok")},
			},
			uploadFn: func(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*services.UploadReceipt, error) {
				if filename == "huge.pdf" {
					t.Error("oversized file must not be uploaded")
				}
				return okUpload(nil)(ctx, filename, data, progress)
			},
			wantSucceeded: 1,
			wantFailed:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &dqtest.MockService{UploadFn: tt.uploadFn}
			pipeline := testPipeline(svc)

			result, err := pipeline.Run(context.Background(), nil, tt.files, BatchOpts{
				MaxSizeBytes: 1024,
				HandOffDelay: time.Millisecond,
			})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			if result.Succeeded != tt.wantSucceeded {
				t.Errorf("Succeeded = %d, want %d", result.Succeeded, tt.wantSucceeded)
			}
			if result.Failed != tt.wantFailed {
				t.Errorf("Failed = %d, want %d", result.Failed, tt.wantFailed)
			}
			if result.TotalFiles != len(tt.files) {
				t.Errorf("TotalFiles = %d, want %d", result.TotalFiles, len(tt.files))
			}
			if tt.validateResult != nil {
				tt.validateResult(t, result)
			}
		})
	}

	t.Run("empty batch", func(t *testing.T) {
		pipeline := testPipeline(&dqtest.MockService{})
		_, err := pipeline.Run(context.Background(), nil, nil, BatchOpts{})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestUploadPipeline_Progress(t *testing.T) {
	t.Run("transfer progress is monotone and capped", func(t *testing.T) {
		var percents []int
		svc := &dqtest.MockService{
			UploadFn: func(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*services.UploadReceipt, error) {
				progress(25, 100)
				progress(10, 100) // stale report arriving late
				progress(100, 100)
				return &services.UploadReceipt{Filename: filename, SessionID: "s1", ChunksCount: 1}, nil
			},
		}
		pipeline := testPipeline(svc)

		prog := make(chan ProgressUpdate, 64)
		result, err := pipeline.Run(context.Background(), prog, []File{
			{Name: "doc.pdf", Data: []byte("payload")},
		}, BatchOpts{NumWorkers: 1, HandOffDelay: time.Millisecond})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		close(prog)

		for update := range prog {
			snap, ok := update.Data.(ItemSnapshot)
			if !ok {
				continue
			}
			percents = append(percents, snap.Percent)
		}

		last := 0
		for i, p := range percents {
			if p < last {
				t.Errorf("progress went backwards at update %d: %v", i, percents)
			}
			last = p
			if p > uploadCeiling && i < len(percents)-1 {
				t.Errorf("progress passed the ceiling before completion: %v", percents)
			}
		}
		if result.Items[0].Percent != 100 {
			t.Errorf("final percent = %d, want 100", result.Items[0].Percent)
		}
	})

	t.Run("slow consumer never blocks the batch", func(t *testing.T) {
		svc := &dqtest.MockService{UploadFn: okUpload(nil)}
		pipeline := testPipeline(svc)

		// unbuffered channel with no reader
		prog := make(chan ProgressUpdate)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := pipeline.Run(context.Background(), prog, []File{
				{Name: "a.pdf", Data: []byte("a")},
				{Name: "b.pdf", Data: []byte("b")},
			}, BatchOpts{HandOffDelay: time.Millisecond})
			if err != nil {
				t.Errorf("Run failed: %v", err)
			}
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("batch stalled on a full progress channel")
		}
	})
}

func TestUploadPipeline_HandOff(t *testing.T) {
	t.Run("fires after a successful batch", func(t *testing.T) {
		svc := &dqtest.MockService{UploadFn: okUpload(map[string]*services.UploadReceipt{
			"doc.pdf": {Filename: "doc.pdf", SessionID: "session-42", ChunksCount: 2},
		})}
		pipeline := testPipeline(svc)

		var mu sync.Mutex
		var gotSession string
		_, err := pipeline.Run(context.Background(), nil, []File{
			{Name: "doc.pdf", Data: []byte("payload")},
		}, BatchOpts{
			HandOffDelay: time.Millisecond,
			OnHandOff: func(sessionID string) {
				mu.Lock()
				gotSession = sessionID
				mu.Unlock()
			},
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if gotSession != "session-42" {
			t.Errorf("hand-off session = %q, want session-42", gotSession)
		}
	})

	t.Run("skipped when every file fails", func(t *testing.T) {
		svc := &dqtest.MockService{
			UploadFn: func(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*services.UploadReceipt, error) {
				return nil, fmt.Errorf("%w: Error processing file", shared.ErrAPIRequest)
			},
		}
		pipeline := testPipeline(svc)

		_, err := pipeline.Run(context.Background(), nil, []File{
			{Name: "doc.pdf", Data: []byte("payload")},
		}, BatchOpts{
			HandOffDelay: time.Millisecond,
			OnHandOff: func(sessionID string) {
				t.Error("hand-off must not fire for a failed batch")
			},
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	})
}

func TestUploadPipeline_Items(t *testing.T) {
	pipeline := testPipeline(&dqtest.MockService{UploadFn: okUpload(nil)})

	_, err := pipeline.Run(context.Background(), nil, []File{
		{Name: "doc.pdf", Data: []byte("one")},
		{Name: "doc.pdf", Data: []byte("two")},
	}, BatchOpts{HandOffDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	t.Run("duplicate names stay distinct", func(t *testing.T) {
		items := pipeline.Items()
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0].Index == items[1].Index {
			t.Error("items sharing a name must keep distinct indices")
		}
	})

	t.Run("remove drops only the targeted item", func(t *testing.T) {
		pipeline.Remove(0)
		items := pipeline.Items()
		if len(items) != 1 {
			t.Fatalf("expected 1 item after removal, got %d", len(items))
		}
		if items[0].Index != 1 {
			t.Errorf("wrong item removed, remaining index = %d", items[0].Index)
		}
	})
}
