package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"docq/internal/services"
	"docq/internal/shared"
)

// DefaultMaxFileSize is the upload size ceiling applied when no limit is configured.
const DefaultMaxFileSize int64 = 10 << 20

// uploadCeiling caps transfer progress until the server confirms indexing,
// so a file never reads 100% while its outcome is still unknown.
const uploadCeiling = 95

// supportedExtensions are the document types the backend can ingest.
var supportedExtensions = map[string]bool{
	"pdf":  true,
	"docx": true,
	"pptx": true,
	"csv":  true,
	"txt":  true,
	"md":   true,
}

// Supported reports whether a filename carries an ingestable extension.
func Supported(name string) bool {
	return supportedExtensions[shared.FileExtension(name)]
}

// ItemStatus tracks a staged file through the upload lifecycle.
type ItemStatus int

const (
	StatusPending ItemStatus = iota
	StatusUploading
	StatusSuccess
	StatusError
)

func (s ItemStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusUploading:
		return "uploading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return ""
	}
}

// Item is one file in an upload batch. Two staged files may share a name;
// Index keeps them distinct.
type Item struct {
	Index int
	Name  string
	Size  int64

	mu          sync.Mutex
	status      ItemStatus
	percent     int
	sessionID   string
	chunksCount int
	detail      string
}

// ItemSnapshot is a point-in-time copy of an item's state, safe to hand to
// UI layers.
type ItemSnapshot struct {
	Index       int
	Name        string
	Size        int64
	Status      ItemStatus
	Percent     int
	SessionID   string
	ChunksCount int
	Detail      string
}

// Snapshot copies the item's current state.
func (it *Item) Snapshot() ItemSnapshot {
	it.mu.Lock()
	defer it.mu.Unlock()
	return ItemSnapshot{
		Index:       it.Index,
		Name:        it.Name,
		Size:        it.Size,
		Status:      it.status,
		Percent:     it.percent,
		SessionID:   it.sessionID,
		ChunksCount: it.chunksCount,
		Detail:      it.detail,
	}
}

// advance raises transfer progress. Progress only moves forward; a stale or
// repeated report never winds the bar back.
func (it *Item) advance(percent int) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if percent > uploadCeiling {
		percent = uploadCeiling
	}
	if percent > it.percent {
		it.percent = percent
	}
	it.status = StatusUploading
}

func (it *Item) succeed(receipt *services.UploadReceipt) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.status = StatusSuccess
	it.percent = 100
	it.sessionID = receipt.SessionID
	it.chunksCount = receipt.ChunksCount
	it.detail = ""
}

func (it *Item) fail(err error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.status = StatusError
	it.percent = 0
	it.detail = err.Error()
}

// ItemDetail returns the failure detail for display, empty unless the item failed.
func (it *Item) Detail() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.detail
}

// File is raw upload input, usually read from disk by the caller.
type File struct {
	Name string
	Data []byte
}

// BatchOpts contains configuration for batch uploads.
type BatchOpts struct {
	NumWorkers   int                    // Concurrent workers (default: 5)
	RateLimit    float64                // Requests per second (default: 5)
	MaxSizeBytes int64                  // Per-file size ceiling (default: 10 MiB)
	HandOffDelay time.Duration          // Pause before the chat hand-off (default: 1.5s)
	OnHandOff    func(sessionID string) // Invoked after a successful batch settles
}

// BatchResult summarizes an upload batch.
type BatchResult struct {
	TotalFiles int
	Succeeded  int
	Failed     int
	SessionID  string // chat session from the first successful upload
	Items      []ItemSnapshot
}

type uploadJob struct {
	item *Item
	data []byte
}

// UploadPipeline uploads document batches concurrently with rate limiting
// and per-file progress tracking. Each file succeeds or fails on its own; a
// rejected or failed file never aborts the rest of the batch.
type UploadPipeline struct {
	svc    services.Service
	logger *log.Logger

	mu    sync.Mutex
	items []*Item
	next  int
}

// NewUploadPipeline creates a pipeline backed by the given service.
func NewUploadPipeline(svc services.Service, logger *log.Logger) *UploadPipeline {
	return &UploadPipeline{svc: svc, logger: logger}
}

// Items returns snapshots of every staged item still in the list.
func (p *UploadPipeline) Items() []ItemSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ItemSnapshot, 0, len(p.items))
	for _, it := range p.items {
		out = append(out, it.Snapshot())
	}
	return out
}

// Remove drops an item from the staged list. An in-flight upload keeps
// running; removal only affects what is displayed.
func (p *UploadPipeline) Remove(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, it := range p.items {
		if it.Index == index {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return
		}
	}
}

func (p *UploadPipeline) stage(f File) *Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	item := &Item{Index: p.next, Name: f.Name, Size: int64(len(f.Data))}
	p.next++
	p.items = append(p.items, item)
	return item
}

// sendProgress sends a progress update through the channel without blocking.
// A slow or absent consumer never stalls an upload.
func (p *UploadPipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run uploads a batch of files concurrently.
//
// Files failing validation (unsupported extension, over the size ceiling)
// are marked failed immediately and never reach the network. The rest go
// through a worker pool paced by a rate limiter; every file reports its own
// transfer progress and settles independently. After a batch with at least
// one success, the OnHandOff callback fires once the hand-off delay elapses.
func (p *UploadPipeline) Run(ctx context.Context, prog chan<- ProgressUpdate, files []File, opts BatchOpts) (*BatchResult, error) {
	if p.svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", shared.ErrInvalidInput)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.MaxSizeBytes <= 0 {
		opts.MaxSizeBytes = DefaultMaxFileSize
	}
	if opts.HandOffDelay <= 0 {
		opts.HandOffDelay = 1500 * time.Millisecond
	}

	total := len(files)
	result := &BatchResult{TotalFiles: total}

	staged := make([]*Item, 0, total)
	pending := make([]uploadJob, 0, total)
	for _, f := range files {
		item := p.stage(f)
		staged = append(staged, item)

		if !Supported(f.Name) {
			item.fail(fmt.Errorf("%w: .%s", shared.ErrUnsupportedFile, shared.FileExtension(f.Name)))
			p.sendProgress(prog, rejectedUpdate(item.Index+1, total, item, shared.ErrUnsupportedFile))
			result.Failed++
			continue
		}
		if item.Size > opts.MaxSizeBytes {
			item.fail(fmt.Errorf("%w: %d bytes (limit %d)", shared.ErrFileTooLarge, item.Size, opts.MaxSizeBytes))
			p.sendProgress(prog, rejectedUpdate(item.Index+1, total, item, shared.ErrFileTooLarge))
			result.Failed++
			continue
		}

		p.sendProgress(prog, queuedUpdate(item.Index+1, total, item))
		pending = append(pending, uploadJob{item: item, data: f.Data})
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan uploadJob, len(pending))
	results := make(chan *Item, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go p.uploadWorker(ctx, &wg, prog, total, jobs, results)
	}

	go func() {
		for _, job := range pending {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(jobs)
				return
			}
			jobs <- job
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := result.Failed
	for item := range results {
		completed++
		snap := item.Snapshot()
		if snap.Status == StatusSuccess {
			result.Succeeded++
			if result.SessionID == "" {
				result.SessionID = snap.SessionID
			}
			p.sendProgress(prog, indexedUpdate(completed, total, item))
		} else {
			result.Failed++
			p.sendProgress(prog, failedUpdate(completed, total, item))
		}
	}

	for _, item := range staged {
		result.Items = append(result.Items, item.Snapshot())
	}

	p.sendProgress(prog, batchDoneUpdate(result.Succeeded, total))
	p.logger.Info("upload batch finished", "succeeded", result.Succeeded, "failed", result.Failed)

	if result.Succeeded > 0 && opts.OnHandOff != nil {
		p.sendProgress(prog, handOffUpdate(result.SessionID))
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(opts.HandOffDelay):
		}
		opts.OnHandOff(result.SessionID)
	}

	return result, nil
}

// uploadWorker is a worker goroutine that uploads files from the jobs channel.
func (p *UploadPipeline) uploadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	prog chan<- ProgressUpdate,
	total int,
	jobs <-chan uploadJob,
	results chan<- *Item,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item := job.item
		item.advance(0)

		receipt, err := p.svc.Upload(ctx, item.Name, job.data, func(sent, size int64) {
			if size <= 0 {
				return
			}
			item.advance(int(sent * uploadCeiling / size))
			p.sendProgress(prog, transferUpdate(item.Index+1, total, item))
		})
		if err != nil {
			item.fail(err)
			p.logger.Warn("upload failed", "file", item.Name, "error", err)
		} else {
			item.succeed(receipt)
		}
		results <- item
	}
}
