package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler manages graceful shutdown. Operations registered with Begin are
// allowed to finish before cleanup functions run.
type Handler struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	cleanupFns []func()
	mu         sync.Mutex
	closing    bool
	once       sync.Once
}

// New creates a new shutdown handler
func New() *Handler {
	return WithParent(context.Background())
}

// WithParent creates a handler whose context is derived from parent.
func WithParent(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	return &Handler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the shutdown context
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers a cleanup function to be called on shutdown
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFns = append(h.cleanupFns, fn)
}

// Listen starts listening for shutdown signals
func (h *Handler) Listen() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			h.Shutdown()
		case <-h.ctx.Done():
		}
		signal.Stop(sigChan)
	}()
}

// Begin registers an in-flight operation. It reports false once shutdown
// has started, in which case the operation must not run. Every successful
// Begin must be paired with End.
func (h *Handler) Begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.wg.Add(1)
	return true
}

// End marks an operation started with Begin as finished.
func (h *Handler) End() {
	h.wg.Done()
}

// Shutdown cancels the context, waits for in-flight operations and runs the
// cleanup functions in registration order. Later calls are no-ops.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closing = true
		h.mu.Unlock()

		h.cancel()
		h.wg.Wait()

		h.mu.Lock()
		fns := h.cleanupFns
		h.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}

// Wait waits for all in-flight operations to complete
func (h *Handler) Wait() {
	h.wg.Wait()
}
