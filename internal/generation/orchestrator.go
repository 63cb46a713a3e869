package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"studysync-service/internal/domain"
)

// Completer sends a prompt to a generative-text service and returns its free-text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyCompletion is returned when the service answers with no content.
var ErrEmptyCompletion = errors.New("no content returned from completion service")

const (
	defaultTimeout       = 60 * time.Second
	defaultMaxConcurrent = 4
)

// Orchestrator turns notes into sections and sections into quizzes.
//
// Every call is single-shot: external failures and unusable answers are logged, recorded,
// and returned as empty results. Concurrent calls to the external service are bounded.
type Orchestrator struct {
	completer Completer
	recorder  Recorder
	model     string
	timeout   time.Duration
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

// Options configures an Orchestrator. Zero values fall back to defaults.
type Options struct {
	Model         string
	Timeout       time.Duration
	MaxConcurrent int64
	Recorder      Recorder
	Logger        *slog.Logger
}

func NewOrchestrator(completer Completer, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		completer: completer,
		recorder:  opts.Recorder,
		model:     opts.Model,
		timeout:   opts.Timeout,
		sem:       semaphore.NewWeighted(opts.MaxConcurrent),
		logger:    opts.Logger.With(slog.String("component", "generation")),
	}
}

// GenerateSections asks the service to split notes into titled sections.
func (o *Orchestrator) GenerateSections(ctx context.Context, notes string) []domain.Section {
	start := time.Now()
	content, err := o.complete(ctx, sectionsPrompt(notes))
	if err != nil {
		o.logger.Error("error generating sections", slog.String("error", err.Error()))
		o.record(ctx, KindSections, OutcomeError, 0, start)
		return []domain.Section{}
	}

	sections, ok := parseSections(content)
	if !ok {
		o.logger.Warn("unusable sections response", slog.Int("length", len(content)))
		o.record(ctx, KindSections, OutcomeEmpty, 0, start)
		return []domain.Section{}
	}
	o.record(ctx, KindSections, OutcomeOK, len(sections), start)
	return sections
}

// GenerateQuiz asks the service for a multiple-choice quiz over one section.
func (o *Orchestrator) GenerateQuiz(ctx context.Context, req domain.QuizRequest) domain.Quiz {
	start := time.Now()
	content, err := o.complete(ctx, quizPrompt(req))
	if err != nil {
		o.logger.Error("error creating quiz",
			slog.Int("section", req.SectionIndex),
			slog.String("error", err.Error()))
		o.record(ctx, KindQuiz, OutcomeError, 0, start)
		return domain.Quiz{Questions: []domain.Question{}}
	}

	quiz, ok := parseQuiz(content, req.QuestionCount)
	if !ok {
		o.logger.Warn("unusable quiz response", slog.Int("section", req.SectionIndex), slog.Int("length", len(content)))
		o.record(ctx, KindQuiz, OutcomeEmpty, 0, start)
		return quiz
	}
	o.record(ctx, KindQuiz, OutcomeOK, len(quiz.Questions), start)
	return quiz
}

// complete bounds the whole call, including the wait for a free slot, by the timeout.
func (o *Orchestrator) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.sem.Acquire(callCtx, 1); err != nil {
		return "", fmt.Errorf("wait for generation slot: %w", err)
	}
	defer o.sem.Release(1)
	return o.completer.Complete(callCtx, prompt)
}

func (o *Orchestrator) record(ctx context.Context, kind Kind, outcome Outcome, items int, start time.Time) {
	run := Run{
		Kind:     kind,
		Model:    o.model,
		Outcome:  outcome,
		Items:    items,
		Duration: time.Since(start),
	}
	if err := o.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		o.logger.Warn("failed to record generation run", slog.String("error", err.Error()))
	}
}
