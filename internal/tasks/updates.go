package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidateFile Phase = iota
	TransferFile
	IndexFile
	BatchDone
	HandOff
	AskQuestion
)

func (p Phase) String() string {
	switch p {
	case ValidateFile:
		return "validate_file"
	case TransferFile:
		return "transfer_file"
	case IndexFile:
		return "index_file"
	case BatchDone:
		return "batch_done"
	case HandOff:
		return "hand_off"
	case AskQuestion:
		return "ask_question"
	default:
		return ""
	}
}

func queuedUpdate(step, total int, item *Item) ProgressUpdate {
	snap := item.Snapshot()
	return ProgressUpdate{
		Phase:   ValidateFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Queued: %s", snap.Name),
		Data:    snap,
	}
}

func rejectedUpdate(step, total int, item *Item, err error) ProgressUpdate {
	snap := item.Snapshot()
	return ProgressUpdate{
		Phase:   ValidateFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ %s: %v", snap.Name, err),
		Data:    snap,
	}
}

func transferUpdate(step, total int, item *Item) ProgressUpdate {
	snap := item.Snapshot()
	return ProgressUpdate{
		Phase:   TransferFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading %s (%d%%)", step, total, snap.Name, snap.Percent),
		Data:    snap,
	}
}

func indexedUpdate(step, total int, item *Item) ProgressUpdate {
	snap := item.Snapshot()
	return ProgressUpdate{
		Phase:   IndexFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d chunks)", step, total, snap.Name, snap.ChunksCount),
		Data:    snap,
	}
}

func failedUpdate(step, total int, item *Item) ProgressUpdate {
	snap := item.Snapshot()
	return ProgressUpdate{
		Phase:   TransferFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, snap.Name, snap.Detail),
		Data:    snap,
	}
}

func batchDoneUpdate(succeeded, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Uploaded %d of %d files", succeeded, total),
	}
}

func handOffUpdate(sessionID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   HandOff,
		Step:    1,
		Total:   1,
		Message: "Opening chat...",
		Data:    sessionID,
	}
}
