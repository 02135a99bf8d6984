package model

import "time"

// StageStatus is the lifecycle state of one stage run for a project.
type StageStatus string

const (
	StatusPending StageStatus = "pending"
	StatusRunning StageStatus = "running"
	StatusDone    StageStatus = "done"
	StatusPaused  StageStatus = "paused"
	StatusError   StageStatus = "error"
)

// HistoryEntry records one completed work item. History is append-only and
// ordered by completion time, which may differ from input order when the
// pool runs concurrently.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Target    string    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
	Completed int       `json:"completed_count"`
	Outcome   string    `json:"outcome"`
}

// Checkpoint is a stage's persisted progress document. It is overwritten
// whole on every unit of progress; Completed never decreases and History
// only grows.
type Checkpoint struct {
	Stage     string         `json:"stage"`
	Status    StageStatus    `json:"status"`
	Completed int            `json:"completed_count"`
	Total     int            `json:"total_count"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Error     string         `json:"error,omitempty"`
	Skipped   []string       `json:"skipped,omitempty"`
	History   []HistoryEntry `json:"history"`
}

// ResumeFrom applies the resumption rule: with force everything restarts,
// otherwise resume at the completed count capped at total.
func (c *Checkpoint) ResumeFrom(total int, force bool) int {
	if force || c == nil {
		return 0
	}
	if c.Completed > total {
		return total
	}
	return c.Completed
}
