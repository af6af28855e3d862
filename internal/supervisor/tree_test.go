package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-board/internal/logging"
)

type countingService struct {
	name   string
	starts atomic.Int32
	fail   bool
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if s.fail && n == 1 {
		return errors.New("boom")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{})

	assert.Equal(t, 5.0, tree.config.FailureThreshold)
	assert.Equal(t, 30.0, tree.config.FailureDecay)
	assert.Equal(t, 15*time.Second, tree.config.FailureBackoff)
	assert.Equal(t, 10*time.Second, tree.config.ShutdownTimeout)
}

func TestTreeRunsAndRestartsServices(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})

	hub := &countingService{name: "hub", fail: true}
	api := &countingService{name: "api"}
	tree.AddRealtimeService(hub)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	require.Eventually(t, func() bool { return hub.starts.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return api.starts.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	require.NoError(t, err)
	assert.Empty(t, report)
}
