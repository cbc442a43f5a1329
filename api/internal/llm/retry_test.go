package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type scriptedEngine struct {
	errs  []error
	text  string
	calls int
}

func (s *scriptedEngine) Name() string  { return "fake" }
func (s *scriptedEngine) Model() string { return "fake-model" }

func (s *scriptedEngine) Generate(_ context.Context, _ string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.text, nil
}

type countingSleeper struct {
	calls int
	waits []time.Duration
}

func (c *countingSleeper) sleep(_ context.Context, d time.Duration) error {
	c.calls++
	c.waits = append(c.waits, d)
	return nil
}

func rateLimited() error {
	return status.Error(codes.ResourceExhausted, "quota exceeded for model")
}

func testPolicy(s *countingSleeper) Policy {
	return Policy{Attempts: 3, Wait: 5 * time.Second, Sleep: s.sleep}
}

func TestGenerate_SucceedsOnThirdAttemptAfterTwoSleeps(t *testing.T) {
	eng := &scriptedEngine{errs: []error{rateLimited(), rateLimited()}, text: "| ID | Desc |"}
	sl := &countingSleeper{}

	res := Generate(context.Background(), eng, "prompt", testPolicy(sl))

	require.True(t, res.OK())
	assert.Equal(t, "| ID | Desc |", res.Text)
	assert.Equal(t, 3, eng.calls)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 2, sl.calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sl.waits)
}

func TestGenerate_RateLimitedOnEveryAttempt(t *testing.T) {
	eng := &scriptedEngine{errs: []error{rateLimited(), rateLimited(), rateLimited()}}
	sl := &countingSleeper{}

	var res Result
	assert.NotPanics(t, func() {
		res = Generate(context.Background(), eng, "prompt", testPolicy(sl))
	})

	assert.False(t, res.OK())
	assert.Equal(t, KindRateLimited, res.Kind)
	assert.Empty(t, res.Text)
	assert.Equal(t, 3, eng.calls)
	assert.Equal(t, 2, sl.calls)
	assert.True(t, IsRateLimited(res.Err))
}

func TestGenerate_OtherErrorIsNotRetried(t *testing.T) {
	eng := &scriptedEngine{errs: []error{errors.New("connection reset by peer")}}
	sl := &countingSleeper{}

	res := Generate(context.Background(), eng, "prompt", testPolicy(sl))

	assert.False(t, res.OK())
	assert.Equal(t, KindProvider, res.Kind)
	assert.Equal(t, 1, eng.calls)
	assert.Equal(t, 0, sl.calls)
}

func TestGenerate_PermissionDeniedMentioningQuotaIsNotRetried(t *testing.T) {
	denied := status.Error(codes.PermissionDenied, "Vertex AI API requires a quota project, which is not set by default")
	eng := &scriptedEngine{errs: []error{denied, denied, denied}}
	sl := &countingSleeper{}

	res := Generate(context.Background(), eng, "prompt", testPolicy(sl))

	assert.False(t, res.OK())
	assert.Equal(t, KindProvider, res.Kind)
	assert.Equal(t, 1, eng.calls)
	assert.Equal(t, 0, sl.calls)
}

func TestGenerate_ContentBlockKeepsItsKind(t *testing.T) {
	eng := &scriptedEngine{errs: []error{Blocked(nil)}}
	sl := &countingSleeper{}

	res := Generate(context.Background(), eng, "prompt", testPolicy(sl))

	assert.Equal(t, KindContentBlocked, res.Kind)
	assert.Equal(t, 1, eng.calls)
	assert.ErrorIs(t, res.Err, ErrNoCandidates)
}

func TestGenerate_CancelledDuringWait(t *testing.T) {
	eng := &scriptedEngine{errs: []error{rateLimited(), rateLimited(), rateLimited()}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Generate(ctx, eng, "prompt", Policy{Attempts: 3, Wait: time.Hour, Sleep: ContextSleep})

	assert.False(t, res.OK())
	assert.Equal(t, 1, eng.calls)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, KindProvider, res.Kind)
}

func TestGenerate_ZeroPolicyUsesDefaults(t *testing.T) {
	eng := &scriptedEngine{text: "ok"}

	res := Generate(context.Background(), eng, "prompt", Policy{})

	assert.True(t, res.OK())
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 1, res.Attempts)
}
