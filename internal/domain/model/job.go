package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Stage represents the processing state of a job.
type Stage string

const (
	StagePending     Stage = "PENDING"
	StageDownloading Stage = "DOWNLOADING"
	StageTranscoding Stage = "TRANSCODING"
	StageDone        Stage = "DONE"
	StageFailed      Stage = "FAILED"
)

// Valid stage transitions:
// PENDING -> DOWNLOADING -> TRANSCODING -> DONE
//                      \-> DONE (download-only jobs)
//                       \-> FAILED (from either active stage)
var validTransitions = map[Stage][]Stage{
	StagePending:     {StageDownloading},
	StageDownloading: {StageTranscoding, StageDone, StageFailed},
	StageTranscoding: {StageDone, StageFailed},
	StageDone:        {},
	StageFailed:      {},
}

func (s Stage) IsValid() bool {
	switch s {
	case StagePending, StageDownloading, StageTranscoding, StageDone, StageFailed:
		return true
	default:
		return false
	}
}

func (s Stage) CanTransitionTo(next Stage) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, stage := range allowed {
		if stage == next {
			return true
		}
	}
	return false
}

func (s Stage) String() string {
	return string(s)
}

var (
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// Job tracks a single download/transcode request. Failures are terminal:
// a failed job is never retried, callers issue a new request with a new ID.
type Job struct {
	ID          string
	Stage       Stage
	FailedStage Stage
	Cause       error
	CreatedAt   time.Time
}

// NewJob creates a job with a collision-resistant random identifier.
func NewJob() *Job {
	return &Job{
		ID:        uuid.NewString(),
		Stage:     StagePending,
		CreatedAt: time.Now(),
	}
}

// TransitionTo advances the job to the next stage.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(next Stage) error {
	if !next.IsValid() {
		return ErrInvalidTransition
	}
	if !j.Stage.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	j.Stage = next
	return nil
}

// Fail marks the job as terminally failed, recording the stage it failed in.
func (j *Job) Fail(cause error) {
	if j.Stage == StageDone || j.Stage == StageFailed {
		return
	}
	j.FailedStage = j.Stage
	j.Stage = StageFailed
	j.Cause = cause
}

// IsTerminal returns true once the job can make no further progress.
func (j *Job) IsTerminal() bool {
	return j.Stage == StageDone || j.Stage == StageFailed
}
