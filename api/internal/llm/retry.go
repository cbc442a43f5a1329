package llm

import (
	"context"
	"log/slog"
	"time"
)

// Result of one generation: Text on success, otherwise Kind and Err.
type Result struct {
	Text string
	Kind Kind
	Err  error
	// Attempts is the number of engine calls made.
	Attempts int
}

func (r Result) OK() bool { return r.Err == nil }

func success(text string, attempts int) Result {
	return Result{Text: text, Attempts: attempts}
}

func failure(err error, attempts int) Result {
	return Result{Kind: Classify(err), Err: err, Attempts: attempts}
}

// Sleeper pauses between attempts; it returns early with ctx.Err() when
// the context ends first.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const (
	DefaultAttempts = 3
	DefaultWait     = 5 * time.Second
	MinWait         = 5 * time.Second
	MaxWait         = 10 * time.Second
)

// Policy is a fixed-wait retry policy applied to rate-limit failures only.
type Policy struct {
	Attempts int
	Wait     time.Duration
	Sleep    Sleeper
	Logger   *slog.Logger
}

func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Wait: DefaultWait, Sleep: ContextSleep}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.Wait <= 0 {
		p.Wait = DefaultWait
	}
	if p.Sleep == nil {
		p.Sleep = ContextSleep
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p
}

// Generate calls eng up to p.Attempts times. Rate-limit failures sleep
// p.Wait and try again; anything else is returned at once. It never
// panics on engine errors and never returns an error-shaped Text.
func Generate(ctx context.Context, eng Engine, prompt string, p Policy) Result {
	p = p.normalized()
	log := p.Logger.With("engine", eng.Name(), "model", eng.Model())

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		text, err := eng.Generate(ctx, prompt)
		if err == nil {
			if attempt > 1 {
				log.Info("generation succeeded after retry", "attempt", attempt)
			}
			return success(text, attempt)
		}
		lastErr = err

		if !IsRateLimited(err) {
			log.Warn("generation failed", "attempt", attempt, "kind", Classify(err), "error", err)
			return failure(err, attempt)
		}
		if attempt == p.Attempts {
			break
		}
		log.Warn("rate limited, waiting before retry", "attempt", attempt, "wait", p.Wait)
		if serr := p.Sleep(ctx, p.Wait); serr != nil {
			return failure(serr, attempt)
		}
	}

	log.Warn("rate limit persisted after all attempts", "attempts", p.Attempts, "error", lastErr)
	return Result{Kind: KindRateLimited, Err: &Error{Kind: KindRateLimited, Err: lastErr}, Attempts: p.Attempts}
}
