package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalContext is a context cancelled on SIGINT or SIGTERM that remembers
// which signal cancelled it.
type SignalContext struct {
	context.Context
	cancel context.CancelFunc
	sigCh  chan os.Signal

	mu     sync.Mutex
	sigVal os.Signal
	stop   sync.Once
}

// NewSignalContext starts listening for SIGINT and SIGTERM.
// Call Stop to release the signal handler.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.cancel()
		case <-ctx.Done():
		}
		sc.release()
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// Stop cancels the context and stops signal delivery.
func (sc *SignalContext) Stop() {
	sc.cancel()
	sc.release()
}

func (sc *SignalContext) release() {
	sc.stop.Do(func() {
		signal.Stop(sc.sigCh)
	})
}
