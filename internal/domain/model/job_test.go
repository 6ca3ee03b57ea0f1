package model

import (
	"errors"
	"testing"
)

func TestJob_Lifecycle(t *testing.T) {
	t.Run("new job", func(t *testing.T) {
		job := NewJob()
		if job.ID == "" {
			t.Error("job has no id")
		}
		if job.Stage != StagePending {
			t.Errorf("stage = %v, want %v", job.Stage, StagePending)
		}
		if NewJob().ID == job.ID {
			t.Error("job ids collide")
		}
	})

	t.Run("full pipeline path", func(t *testing.T) {
		job := NewJob()
		for _, next := range []Stage{StageDownloading, StageTranscoding, StageDone} {
			if err := job.TransitionTo(next); err != nil {
				t.Fatalf("TransitionTo(%v) error = %v", next, err)
			}
		}
		if !job.IsTerminal() {
			t.Error("done job not terminal")
		}
	})

	t.Run("download-only path", func(t *testing.T) {
		job := NewJob()
		if err := job.TransitionTo(StageDownloading); err != nil {
			t.Fatal(err)
		}
		if err := job.TransitionTo(StageDone); err != nil {
			t.Errorf("downloading -> done rejected: %v", err)
		}
	})

	t.Run("invalid transitions", func(t *testing.T) {
		tests := []struct {
			name string
			from Stage
			to   Stage
		}{
			{name: "skip downloading", from: StagePending, to: StageTranscoding},
			{name: "pending straight to done", from: StagePending, to: StageDone},
			{name: "done is terminal", from: StageDone, to: StageDownloading},
			{name: "failed is terminal", from: StageFailed, to: StageDownloading},
			{name: "backwards", from: StageTranscoding, to: StageDownloading},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				job := &Job{ID: "j", Stage: tt.from}
				if err := job.TransitionTo(tt.to); !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("error = %v, want ErrInvalidTransition", err)
				}
			})
		}
	})

	t.Run("fail records the active stage", func(t *testing.T) {
		job := NewJob()
		_ = job.TransitionTo(StageDownloading)
		_ = job.TransitionTo(StageTranscoding)

		cause := errors.New("encoder crashed")
		job.Fail(cause)

		if job.Stage != StageFailed {
			t.Errorf("stage = %v, want %v", job.Stage, StageFailed)
		}
		if job.FailedStage != StageTranscoding {
			t.Errorf("failed stage = %v, want %v", job.FailedStage, StageTranscoding)
		}
		if !errors.Is(job.Cause, cause) {
			t.Errorf("cause = %v", job.Cause)
		}
	})

	t.Run("fail after done is a no-op", func(t *testing.T) {
		job := NewJob()
		_ = job.TransitionTo(StageDownloading)
		_ = job.TransitionTo(StageDone)

		job.Fail(errors.New("late failure"))
		if job.Stage != StageDone {
			t.Errorf("stage = %v, terminal state overwritten", job.Stage)
		}
	})
}
