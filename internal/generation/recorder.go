package generation

import (
	"context"
	"time"
)

type Kind string

const (
	KindSections Kind = "sections"
	KindQuiz     Kind = "quiz"
)

type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeEmpty Outcome = "empty"
	OutcomeError Outcome = "error"
)

// Run describes one call to the generative-text service.
type Run struct {
	Kind     Kind
	Model    string
	Outcome  Outcome
	Items    int
	Duration time.Duration
}

// Recorder keeps a usage trail of generation calls.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// NopRecorder discards runs.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Run) error { return nil }
