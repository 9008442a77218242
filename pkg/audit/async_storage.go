package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/logger"
)

const (
	defaultAsyncBuffer  = 1000
	defaultFlushTimeout = 5 * time.Second
)

// AsyncStorage decorates a Storage with a buffered channel and a background
// worker, decoupling the caller from storage latency. Security decisions must
// never wait on audit I/O, so Store returns as soon as the event is queued;
// when the buffer is full the event is dropped and ErrBufferFull returned.
type AsyncStorage struct {
	inner  Storage
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

// NewAsyncStorage wraps inner with an asynchronous buffer of the given size.
// A non-positive size falls back to the default.
func NewAsyncStorage(inner Storage, bufferSize int, log *slog.Logger) *AsyncStorage {
	if inner == nil {
		panic("audit: storage cannot be nil")
	}
	if bufferSize <= 0 {
		bufferSize = defaultAsyncBuffer
	}
	if log == nil {
		log = slog.Default()
	}

	as := &AsyncStorage{
		inner:  inner,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
		log:    log,
	}

	as.wg.Add(1)
	go as.worker()

	return as
}

// Store implements Storage. It never blocks on the backend.
func (as *AsyncStorage) Store(_ context.Context, event Event) error {
	select {
	case <-as.done:
		return ErrStorageNotAvailable
	default:
	}

	select {
	case as.events <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

func (as *AsyncStorage) worker() {
	defer as.wg.Done()

	for {
		select {
		case event := <-as.events:
			as.flush(event)
		case <-as.done:
			// Drain whatever is still queued before exiting
			for {
				select {
				case event := <-as.events:
					as.flush(event)
				default:
					return
				}
			}
		}
	}
}

// flush writes one event with a detached context so a canceled request cannot
// take the audit write down with it.
func (as *AsyncStorage) flush(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultFlushTimeout)
	defer cancel()

	if err := as.inner.Store(ctx, event); err != nil {
		as.log.Warn("audit event write failed",
			slog.String("audit_id", event.ID),
			logger.Action(event.Action),
			logger.Error(err),
		)
	}
}

// Close stops the worker after draining queued events. The context bounds how
// long the drain may take.
func (as *AsyncStorage) Close(ctx context.Context) error {
	close(as.done)

	finished := make(chan struct{})
	go func() {
		as.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
