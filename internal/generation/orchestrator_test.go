package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studysync-service/internal/domain"
)

type stubCompleter struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.answer, s.err
}

type memoryRecorder struct {
	mu   sync.Mutex
	runs []Run
}

func (r *memoryRecorder) Record(_ context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func newTestOrchestrator(c Completer, rec Recorder) *Orchestrator {
	return NewOrchestrator(c, Options{
		Model:    "test-model",
		Timeout:  time.Second,
		Recorder: rec,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestGenerateSections(t *testing.T) {
	completer := &stubCompleter{answer: `[{"title":"T1","content":"C1"}]`}
	recorder := &memoryRecorder{}
	o := newTestOrchestrator(completer, recorder)

	sections := o.GenerateSections(context.Background(), "X")

	assert.Equal(t, []domain.Section{{Title: "T1", Content: "C1"}}, sections)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "Study Notes:\nX")
	require.Len(t, recorder.runs, 1)
	assert.Equal(t, KindSections, recorder.runs[0].Kind)
	assert.Equal(t, OutcomeOK, recorder.runs[0].Outcome)
	assert.Equal(t, 1, recorder.runs[0].Items)
	assert.Equal(t, "test-model", recorder.runs[0].Model)
}

func TestGenerateSectionsNeverCaches(t *testing.T) {
	completer := &stubCompleter{answer: `[{"title":"T1","content":"C1"}]`}
	o := newTestOrchestrator(completer, nil)

	o.GenerateSections(context.Background(), "X")
	o.GenerateSections(context.Background(), "X")

	assert.Len(t, completer.prompts, 2)
}

func TestGenerateSectionsDegradesToEmpty(t *testing.T) {
	cases := map[string]*stubCompleter{
		"service error": {err: errors.New("quota exceeded")},
		"not json":      {answer: "Here are some thoughts about your notes."},
		"wrong shape":   {answer: `{"title":"T1"}`},
	}
	for name, completer := range cases {
		t.Run(name, func(t *testing.T) {
			recorder := &memoryRecorder{}
			sections := newTestOrchestrator(completer, recorder).GenerateSections(context.Background(), "notes")
			assert.NotNil(t, sections)
			assert.Empty(t, sections)
			require.Len(t, recorder.runs, 1)
			assert.NotEqual(t, OutcomeOK, recorder.runs[0].Outcome)
		})
	}
}

func TestGenerateQuizPrompt(t *testing.T) {
	completer := &stubCompleter{answer: `[{"question":"Q","options":["a","b","c","d"],"correctAnswer":0}]`}
	o := newTestOrchestrator(completer, nil)

	quiz := o.GenerateQuiz(context.Background(), domain.QuizRequest{
		SectionContent: "Mitochondria produce ATP.",
		QuestionCount:  3,
		SectionTitle:   "Cells",
		SectionIndex:   1,
	})

	require.Len(t, quiz.Questions, 1)
	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]
	assert.Contains(t, prompt, `"Cells" (Section 2)`)
	assert.Contains(t, prompt, "Generate 3 questions with 4 options each")
	assert.True(t, strings.HasSuffix(prompt, "Mitochondria produce ATP."))
}

func TestGenerateQuizDegradesToEmpty(t *testing.T) {
	recorder := &memoryRecorder{}
	o := newTestOrchestrator(&stubCompleter{err: context.DeadlineExceeded}, recorder)

	quiz := o.GenerateQuiz(context.Background(), domain.QuizRequest{SectionContent: "c", QuestionCount: 2})

	assert.Empty(t, quiz.Questions)
	require.Len(t, recorder.runs, 1)
	assert.Equal(t, OutcomeError, recorder.runs[0].Outcome)
	assert.Equal(t, KindQuiz, recorder.runs[0].Kind)
}

type blockingCompleter struct {
	release  chan struct{}
	active   atomic.Int32
	maxSeen  atomic.Int32
	finished atomic.Int32
}

func (b *blockingCompleter) Complete(ctx context.Context, _ string) (string, error) {
	n := b.active.Add(1)
	for {
		seen := b.maxSeen.Load()
		if n <= seen || b.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	defer b.active.Add(-1)
	defer b.finished.Add(1)
	select {
	case <-b.release:
		return `[{"title":"T","content":"C"}]`, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestOrchestratorBoundsConcurrentCalls(t *testing.T) {
	completer := &blockingCompleter{release: make(chan struct{})}
	o := NewOrchestrator(completer, Options{
		Timeout:       5 * time.Second,
		MaxConcurrent: 2,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.GenerateSections(context.Background(), "notes")
		}()
	}

	require.Eventually(t, func() bool { return completer.active.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(completer.release)
	wg.Wait()

	assert.Equal(t, int32(2), completer.maxSeen.Load())
	assert.Equal(t, int32(5), completer.finished.Load())
}

func TestGenerateSectionsRespectsCancelledContext(t *testing.T) {
	completer := &blockingCompleter{release: make(chan struct{})}
	o := newTestOrchestrator(completer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, o.GenerateSections(ctx, "notes"))
}

type gatedCompleter struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedCompleter) Complete(context.Context, string) (string, error) {
	g.calls.Add(1)
	<-g.release
	return `[{"title":"T","content":"C"}]`, nil
}

func TestTimeoutCoversWaitForSlot(t *testing.T) {
	completer := &gatedCompleter{release: make(chan struct{})}
	recorder := &memoryRecorder{}
	o := NewOrchestrator(completer, Options{
		Timeout:       100 * time.Millisecond,
		MaxConcurrent: 1,
		Recorder:      recorder,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.GenerateSections(context.Background(), "first")
	}()
	require.Eventually(t, func() bool { return completer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	assert.Empty(t, o.GenerateSections(context.Background(), "second"))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), completer.calls.Load())

	close(completer.release)
	<-done
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.runs, 2)
	assert.Equal(t, OutcomeError, recorder.runs[0].Outcome)
	assert.Equal(t, OutcomeOK, recorder.runs[1].Outcome)
}
