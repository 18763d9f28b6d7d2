package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gamecat/pkg/logger"
)

func TestPoolResultsFollowSlots(t *testing.T) {
	properties := gopter.NewProperties(nil)
	l := logger.Nop()

	properties.Property("every job lands in its own slot", prop.ForAll(
		func(numJobs, numWorkers int) bool {
			p := NewPool[int](l, numWorkers, numJobs)
			p.Start(context.Background())

			for i := 0; i < numJobs; i++ {
				i := i
				delay := time.Duration(rand.Intn(50)) * time.Microsecond
				if err := p.Submit(context.Background(), Job[int]{
					Index: i,
					Name:  fmt.Sprintf("job-%d", i),
					Run: func(context.Context) (int, error) {
						time.Sleep(delay)
						return i * i, nil
					},
				}); err != nil {
					return false
				}
			}
			if err := p.Shutdown(context.Background()); err != nil {
				return false
			}

			for i, res := range p.Results() {
				if !res.Done || res.Value != i*i || res.Name != fmt.Sprintf("job-%d", i) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPoolIsolatesFailures(t *testing.T) {
	p := NewPool[string](logger.Nop(), 2, 3)
	p.Start(context.Background())

	require.NoError(t, p.Submit(context.Background(), Job[string]{Index: 0, Name: "playstation", Run: func(context.Context) (string, error) {
		return "ok", nil
	}}))
	require.NoError(t, p.Submit(context.Background(), Job[string]{Index: 1, Name: "steam", Run: func(context.Context) (string, error) {
		return "", errors.New("unreadable extract")
	}}))
	require.NoError(t, p.Submit(context.Background(), Job[string]{Index: 2, Name: "xbox", Run: func(context.Context) (string, error) {
		panic("boom")
	}}))
	require.NoError(t, p.Shutdown(context.Background()))

	results := p.Results()
	assert.True(t, results[0].Done)
	assert.Equal(t, "ok", results[0].Value)
	assert.EqualError(t, results[1].Err, "unreadable extract")
	assert.False(t, results[1].Done)
	assert.ErrorContains(t, results[2].Err, "panicked")
}

func TestPoolLeavesFailureReportingToCaller(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	p := NewPool[int](logger.Wrap(zap.New(core)), 1, 1)
	p.Start(context.Background())

	require.NoError(t, p.Submit(context.Background(), Job[int]{Index: 0, Name: "steam", Run: func(context.Context) (int, error) {
		return 0, errors.New("unreadable extract")
	}}))
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Error(t, p.Results()[0].Err)
	assert.Zero(t, observed.Len())
}

func TestPoolRejectsBadSlot(t *testing.T) {
	p := NewPool[int](logger.Nop(), 1, 1)
	p.Start(context.Background())
	defer p.Shutdown(context.Background())

	err := p.Submit(context.Background(), Job[int]{Index: 1})
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
}

func TestPoolCancelledContextSkipsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool[int](logger.Nop(), 1, 2)
	p.Start(ctx)
	cancel()

	ran := false
	require.NoError(t, p.Submit(context.Background(), Job[int]{Index: 0, Run: func(context.Context) (int, error) {
		ran = true
		return 1, nil
	}}))
	require.NoError(t, p.Shutdown(context.Background()))

	assert.False(t, ran)
	assert.ErrorIs(t, p.Results()[0].Err, context.Canceled)
}

func TestPoolShutdown(t *testing.T) {
	p := NewPool[int](logger.Nop(), 1, 0)
	p.Start(context.Background())
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.Empty(t, p.Results())
}

func BenchmarkPoolSubmit(b *testing.B) {
	p := NewPool[int](logger.Nop(), 4, 1)
	p.Start(context.Background())
	defer p.Shutdown(context.Background())

	job := Job[int]{Index: 0, Name: "bench", Run: func(context.Context) (int, error) { return 1, nil }}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = p.Submit(context.Background(), job)
	}
}
