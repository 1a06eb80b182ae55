// internal/domain/journal/entry.go
package journal

import "time"

// Outcome describes how a poll cycle ended.
type Outcome string

const (
	OutcomeStatusChanged Outcome = "STATUS_CHANGED"
	OutcomeUnchanged     Outcome = "UNCHANGED"
	OutcomeFailed        Outcome = "FAILED"
)

// Entry is one poll cycle as written to the 'poll_cycles' table.
type Entry struct {
	ID             int64
	FromDate       int64 // checkpoint the fetch used
	NextCheckpoint int64 // checkpoint after the cycle
	Outcome        Outcome
	Message        string // last message produced by the cycle, if any
	Delivered      bool
	ErrorText      string
	CreatedAt      time.Time
}
