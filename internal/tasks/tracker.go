// Package tasks tracks the lifecycle of background jobs and enforces that at
// most one job of each kind runs at a time.
package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/venturelens/paper-scout/internal/domain"
)

// Kind identifies a background job type.
type Kind string

const (
	KindIngestion Kind = "ingestion"
	KindScoring   Kind = "scoring"
)

// State is the lifecycle state of a job kind.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Status is the observable state of one job kind. Terminal states persist
// until the next start overwrites them.
type Status struct {
	State      State      `json:"state"`
	RunID      string     `json:"run_id,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Tracker serializes starts per job kind. The check-and-start is atomic under
// the tracker mutex, so two concurrent starts of the same kind cannot both
// succeed.
type Tracker struct {
	mu   sync.Mutex
	jobs map[Kind]Status
	now  func() time.Time
}

// NewTracker creates an empty tracker; every kind starts idle.
func NewTracker() *Tracker {
	return &Tracker{
		jobs: make(map[Kind]Status),
		now:  time.Now,
	}
}

// TryStart transitions the kind to running and returns a fresh run ID, or
// ErrAlreadyRunning when a run is still in flight.
func (t *Tracker) TryStart(kind Kind) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.jobs[kind].State == StateRunning {
		return "", fmt.Errorf("%s job: %w", kind, domain.ErrAlreadyRunning)
	}

	runID := uuid.NewString()
	started := t.now().UTC()
	t.jobs[kind] = Status{
		State:     StateRunning,
		RunID:     runID,
		StartedAt: &started,
	}
	return runID, nil
}

// Finish transitions the kind to completed, or to failed with the error text
// as detail.
func (t *Tracker) Finish(kind Kind, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := t.jobs[kind]
	finished := t.now().UTC()
	status.FinishedAt = &finished

	if err != nil {
		status.State = StateFailed
		status.Detail = err.Error()
	} else {
		status.State = StateCompleted
		status.Detail = ""
	}
	t.jobs[kind] = status
}

// Status returns the current state of one job kind without blocking on the
// job itself.
func (t *Tracker) Status(kind Kind) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.jobs[kind]
	if !ok {
		return Status{State: StateIdle}
	}
	return status
}

// Snapshot returns the state of all job kinds.
func (t *Tracker) Snapshot() map[Kind]Status {
	out := make(map[Kind]Status, 2)
	for _, kind := range []Kind{KindIngestion, KindScoring} {
		out[kind] = t.Status(kind)
	}
	return out
}
