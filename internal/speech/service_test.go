package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu      sync.Mutex
	spoken  []string
	active  int
	maxSeen int
	gate    chan struct{}
	fail    map[string]error
	closed  bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{fail: map[string]error{}}
}

func (e *fakeEngine) Speak(ctx context.Context, text string) error {
	e.mu.Lock()
	e.active++
	if e.active > e.maxSeen {
		e.maxSeen = e.active
	}
	gate := e.gate
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.active--
		e.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		time.Sleep(2 * time.Millisecond)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.fail[text]; err != nil {
		return err
	}
	e.spoken = append(e.spoken, text)
	return nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) snapshot() ([]string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.spoken...), e.maxSeen
}

func TestService_PlaysInOrderOneAtATime(t *testing.T) {
	engine := newFakeEngine()
	s := NewService(engine, 8)

	want := []string{"Hello", "Goodbye", "OK", "Hello"}
	for _, w := range want {
		require.NoError(t, s.Say(w))
	}

	require.NoError(t, s.Close(context.Background()))

	spoken, maxActive := engine.snapshot()
	assert.Equal(t, want, spoken)
	assert.Equal(t, 1, maxActive)
	assert.EqualValues(t, 4, s.Spoken())
	assert.True(t, engine.closed)
}

func TestService_SayDoesNotWaitForPlayback(t *testing.T) {
	engine := newFakeEngine()
	engine.gate = make(chan struct{})
	s := NewService(engine, 4)
	defer func() {
		close(engine.gate)
		_ = s.Close(context.Background())
	}()

	start := time.Now()
	require.NoError(t, s.Say("Hello"))
	require.NoError(t, s.Say("OK"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestService_QueueFull(t *testing.T) {
	engine := newFakeEngine()
	engine.gate = make(chan struct{})
	s := NewService(engine, 1)

	require.NoError(t, s.Say("first"))
	// Wait until the playback goroutine holds "first" so the queue is empty.
	require.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, s.Say("second"))
	assert.ErrorIs(t, s.Say("third"), ErrQueueFull)

	close(engine.gate)
	require.NoError(t, s.Close(context.Background()))

	spoken, _ := engine.snapshot()
	assert.Equal(t, []string{"first", "second"}, spoken)
}

func TestService_SayAfterClose(t *testing.T) {
	s := NewService(newFakeEngine(), 1)
	require.NoError(t, s.Close(context.Background()))

	assert.ErrorIs(t, s.Say("late"), ErrClosed)
	assert.NoError(t, s.Close(context.Background()), "second close")
}

func TestService_CloseInterruptsAfterGrace(t *testing.T) {
	engine := newFakeEngine()
	engine.gate = make(chan struct{}) // never opened
	s := NewService(engine, 4)

	require.NoError(t, s.Say("stuck"))
	require.NoError(t, s.Say("never"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, s.Close(ctx))
	assert.Less(t, time.Since(start), time.Second)

	spoken, _ := engine.snapshot()
	assert.Empty(t, spoken)
}

func TestService_EngineErrorsDoNotStopQueue(t *testing.T) {
	engine := newFakeEngine()
	engine.fail["bad"] = errors.New("device busy")
	s := NewService(engine, 4)

	require.NoError(t, s.Say("bad"))
	require.NoError(t, s.Say("good"))
	require.NoError(t, s.Close(context.Background()))

	spoken, _ := engine.snapshot()
	assert.Equal(t, []string{"good"}, spoken)
	assert.EqualValues(t, 1, s.Failed())
	assert.EqualValues(t, 1, s.Spoken())
}

func TestService_ConcurrentCallers(t *testing.T) {
	engine := newFakeEngine()
	s := NewService(engine, 64)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				assert.NoError(t, s.Say("x"))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close(context.Background()))

	spoken, maxActive := engine.snapshot()
	assert.Len(t, spoken, 32)
	assert.Equal(t, 1, maxActive)
}
