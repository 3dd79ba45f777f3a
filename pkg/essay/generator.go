package essay

import (
	"context"
	"time"

	"github.com/nikogura/sop-writer/pkg/llm"
	"github.com/nikogura/sop-writer/pkg/logging"
	"github.com/nikogura/sop-writer/pkg/profile"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Event is emitted on every state transition of a submission.
type Event struct {
	State   State
	Attempt int
	// Result is set once the attempt's backend call has returned.
	Result  *Attempt
	Elapsed time.Duration
	Err     error
}

// Observer receives submission events. It is called synchronously.
type Observer func(Event)

// Generator runs the generate, measure and correct loop.
type Generator struct {
	completer   llm.Completer
	logger      *zap.Logger
	model       string
	temperature float64
	maxTokens   int
	maxAttempts int
	callTimeout time.Duration
	observers   []Observer
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = logging.Nop(l) }
}

// WithModel overrides the backend's default model.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) { g.temperature = t }
}

// WithMaxTokens caps the length of each completion.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// WithMaxAttempts sets the total number of generations, first call included.
// Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n >= 1 {
			g.maxAttempts = n
		}
	}
}

// WithCallTimeout bounds each backend call. Zero leaves calls bounded only by
// the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Generator) { g.callTimeout = d }
}

// WithObserver registers an event callback.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observers = append(g.observers, o)
		}
	}
}

// NewGenerator creates a Generator backed by c.
func NewGenerator(c llm.Completer, opts ...Option) (g *Generator) {
	g = &Generator{
		completer:   c,
		logger:      zap.NewNop(),
		temperature: llm.DefaultTemperature,
		maxTokens:   llm.DefaultMaxTokens,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate validates the submission and drafts an essay. A validation failure
// returns *profile.ValidationError before any backend call. A backend failure
// returns *ServiceError and no essay. Running out of attempts is not an error:
// the last draft is returned with BudgetMet false.
func (g *Generator) Generate(ctx context.Context, p profile.ApplicantProfile, b profile.WordBudget) (result Essay, err error) {
	g.emit(Event{State: StateIdle})

	err = profile.Validate(p, b)
	if err != nil {
		return result, err
	}

	log := g.logger.With(
		zap.String("applicant", p.Name),
		zap.String("program", p.Program),
		zap.Int("min_words", b.Min),
		zap.Int("max_words", b.Max),
	)

	instr := Instruction{Base: llm.BuildSOPPrompt(p, b)}
	result.Budget = b

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		g.emit(Event{State: StateGenerating, Attempt: attempt})

		start := time.Now()
		var text string
		var count int
		text, count, err = g.Step(ctx, instr)
		elapsed := time.Since(start)
		if err != nil {
			err = &ServiceError{Attempt: attempt, Err: err}
			log.Error("generation failed", zap.Int("attempt", attempt), zap.Duration("elapsed", elapsed), zap.Error(err))
			g.emit(Event{State: StateFatal, Attempt: attempt, Elapsed: elapsed, Err: err})
			result = Essay{}
			return result, err
		}

		a := Attempt{
			Index:     attempt,
			Prompt:    instr.Text(),
			Text:      text,
			WordCount: count,
			Verdict:   Judge(count, b),
		}
		result.Attempts = append(result.Attempts, a)
		result.Text = text
		result.WordCount = count

		log.Debug("attempt complete",
			zap.Int("attempt", attempt),
			zap.Int("word_count", count),
			zap.String("verdict", string(a.Verdict)),
			zap.Duration("elapsed", elapsed),
		)
		g.emit(Event{State: StateGenerating, Attempt: attempt, Result: &a, Elapsed: elapsed})

		switch a.Verdict {
		case WithinBudget:
			result.BudgetMet = true
		case TooShort:
			instr = instr.With(llm.ExpandClause(b.Min))
		case TooLong:
			instr = instr.With(llm.CondenseClause(b.Max))
		}

		if result.BudgetMet {
			break
		}
	}

	if result.BudgetMet {
		log.Info("essay generated", zap.Int("word_count", result.WordCount), zap.Int("attempts", len(result.Attempts)))
	} else {
		log.Warn("word budget not met, returning last draft", zap.Int("word_count", result.WordCount), zap.Int("attempts", len(result.Attempts)))
	}
	g.emit(Event{State: StateDone, Attempt: len(result.Attempts)})

	return result, err
}

// Step makes one backend call for instr and measures the response.
func (g *Generator) Step(ctx context.Context, instr Instruction) (text string, count int, err error) {
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	text, err = g.completer.Complete(ctx, llm.CompletionRequest{
		Prompt:      instr.Text(),
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		err = errors.Wrap(err, "completion request failed")
		return text, count, err
	}

	count = CountWords(text)
	return text, count, err
}

func (g *Generator) emit(ev Event) {
	for _, o := range g.observers {
		o(ev)
	}
}
