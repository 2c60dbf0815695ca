package reconciliation

import "errors"

var (
	ErrTaskNotFound       = errors.New("reconciliation task not found")
	ErrTaskNotCancellable = errors.New("task can only be cancelled while queued or running")
	ErrTaskTimeout        = errors.New("task exceeded its time budget")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrConfigNotFound     = errors.New("reconciliation config not found")

	// Store implementations return these from ClaimAndCreate so the
	// finalizer can isolate conflicts per group.
	ErrRecordClaimed  = errors.New("record already claimed by an active reconciliation")
	ErrRecordNotFound = errors.New("record not found")
	ErrGroupFinalized = errors.New("group already finalized")
)

// ErrTaskCancelledMessage is the human-readable error recorded on cancelled
// tasks.
const ErrTaskCancelledMessage = "task cancelled by request"
