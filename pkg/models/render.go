package models

import (
	"fmt"
	"time"
)

// RenderStatus is the canonical status of a video render job. External
// consumers pattern-match on the exact strings.
type RenderStatus string

const (
	RenderQueued           RenderStatus = "queued"
	RenderProcessing       RenderStatus = "processing"
	RenderCompleted        RenderStatus = "completed"
	RenderFailed           RenderStatus = "failed"
	RenderAwaitingProvider RenderStatus = "awaiting_provider"
	RenderBudgetExceeded   RenderStatus = "budget_exceeded"
)

// Terminal reports whether the status allows no further transitions.
// A terminal job is retried by creating a new job, never by flipping status.
func (s RenderStatus) Terminal() bool {
	switch s {
	case RenderCompleted, RenderFailed, RenderAwaitingProvider, RenderBudgetExceeded:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal transition.
func (s RenderStatus) CanTransition(next RenderStatus) bool {
	switch s {
	case RenderQueued:
		switch next {
		case RenderProcessing, RenderAwaitingProvider, RenderBudgetExceeded:
			return true
		}
	case RenderProcessing:
		switch next {
		case RenderCompleted, RenderFailed:
			return true
		}
	}
	return false
}

// NextAction tells the UI what the user should do next without requiring
// provider-specific knowledge.
type NextAction struct {
	Label  string `json:"label"`
	Link   string `json:"link,omitempty"`
	Action string `json:"action,omitempty"`
}

// RenderResult represents one asynchronous video-generation attempt. It is
// owned by the content item that requested it and outlives the request that
// created it.
type RenderResult struct {
	JobID        string       `json:"job_id"`
	ProviderID   string       `json:"provider_id"`
	Status       RenderStatus `json:"status"`
	PreviewURL   string       `json:"preview_url,omitempty"`
	OutputURL    string       `json:"output_url,omitempty"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
	Storyboard   []string     `json:"storyboard,omitempty"`
	Progress     *int         `json:"progress,omitempty"`
	Error        string       `json:"error,omitempty"`
	ErrorCode    string       `json:"error_code,omitempty"`
	NextAction   *NextAction  `json:"next_action,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Validate enforces the render result contract:
//   - completed results carry a preview or output URL
//   - failed results carry an error message
//   - progress is only populated while processing and stays within 0-100
//   - awaiting_provider results carry a next action
func (r *RenderResult) Validate() error {
	switch r.Status {
	case RenderCompleted:
		if r.PreviewURL == "" && r.OutputURL == "" {
			return fmt.Errorf("render result %s: completed without preview or output URL", r.JobID)
		}
	case RenderFailed:
		if r.Error == "" {
			return fmt.Errorf("render result %s: failed without error message", r.JobID)
		}
	case RenderAwaitingProvider:
		if r.NextAction == nil {
			return fmt.Errorf("render result %s: awaiting_provider without next action", r.JobID)
		}
	}
	if r.Progress != nil {
		if r.Status != RenderProcessing {
			return fmt.Errorf("render result %s: progress set outside processing", r.JobID)
		}
		if *r.Progress < 0 || *r.Progress > 100 {
			return fmt.Errorf("render result %s: progress %d out of range", r.JobID, *r.Progress)
		}
	}
	return nil
}
