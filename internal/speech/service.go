package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	log "github.com/echocat/slf4g"
)

// DefaultQueueSize is the number of utterances that may wait for playback.
const DefaultQueueSize = 16

var (
	// ErrClosed is returned by Say after Close.
	ErrClosed = errors.New("speech service closed")
	// ErrQueueFull is returned by Say when the playback backlog is at capacity.
	ErrQueueFull = errors.New("speech queue full")
)

// Service serializes all speech in the process through one playback
// goroutine. Utterances play in the order they were queued, one at a time.
type Service struct {
	engine Engine
	queue  chan string

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	spoken atomic.Int64
	failed atomic.Int64
}

// NewService starts a speech service on top of engine.
func NewService(engine Engine, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		engine: engine,
		queue:  make(chan string, queueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run()

	log.With("engine", engine.Name()).
		With("queueSize", queueSize).
		Info("Speech service started.")
	return s
}

// Say queues text for playback and returns without waiting for it.
func (s *Service) Say(text string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	select {
	case s.queue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued utterances not yet started.
func (s *Service) Pending() int {
	return len(s.queue)
}

// Spoken returns how many utterances finished successfully.
func (s *Service) Spoken() int64 {
	return s.spoken.Load()
}

// Failed returns how many utterances the engine rejected.
func (s *Service) Failed() int64 {
	return s.failed.Load()
}

// Close stops accepting utterances and lets the backlog play until ctx is
// done. Whatever is still playing then is interrupted.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-ctx.Done():
		log.With("pending", len(s.queue)).
			Warn("Speech backlog not finished before shutdown, interrupting.")
		s.cancel()
		<-s.done
	}
	s.cancel()

	return s.engine.Close()
}

func (s *Service) run() {
	defer close(s.done)

	for text := range s.queue {
		if s.ctx.Err() != nil {
			continue
		}

		log.With("text", text).Debug("Speaking.")
		if err := s.engine.Speak(s.ctx, text); err != nil {
			s.failed.Add(1)
			log.WithError(err).
				With("text", text).
				Warn("Cannot speak utterance.")
			continue
		}
		s.spoken.Add(1)
	}
}
