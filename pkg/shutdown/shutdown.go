// Package shutdown runs registered cleanup functions in reverse order once
// the process is asked to stop.
package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/psantana5/timekeeper/pkg/logging"
	"github.com/psantana5/timekeeper/pkg/report"
)

// Manager handles graceful shutdown
type Manager struct {
	shutdownFuncs []namedFunc
	mu            sync.Mutex
	timeout       time.Duration
	logger        *logging.Logger
}

type namedFunc struct {
	name string
	fn   func(context.Context) error
}

// New creates a shutdown manager whose functions share one timeout
func New(timeout time.Duration, logger *logging.Logger) *Manager {
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a shutdown function.
// Functions are called in reverse order (LIFO).
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownFuncs = append(m.shutdownFuncs, namedFunc{name: name, fn: fn})
}

// Wait blocks until SIGINT or SIGTERM is received or ctx is done
func (m *Manager) Wait(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.logger.Info("Received signal, initiating graceful shutdown", map[string]interface{}{
			"signal": sig.String(),
		})
	case <-ctx.Done():
		m.logger.Info("Initiating graceful shutdown")
	}
}

// Shutdown executes all registered shutdown functions and returns the
// number that failed
func (m *Manager) Shutdown() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	failed := 0
	for i := len(m.shutdownFuncs) - 1; i >= 0; i-- {
		f := m.shutdownFuncs[i]
		m.logger.Debug("Stopping "+f.name)
		if err := f.fn(ctx); err != nil {
			failed++
			m.logger.WithError(err).Error("Shutdown step failed", map[string]interface{}{"step": f.name})
		}
	}

	m.logger.Info("Graceful shutdown complete")
	return failed
}

// StopHTTPServer creates a shutdown function for http.Server
func StopHTTPServer(server interface{ Shutdown(context.Context) error }) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop HTTP server: %w", err)
		}
		return nil
	}
}

// StopTimings creates a shutdown function that stops every running timing
// and logs it through p
func StopTimings(p *report.Printer) func(context.Context) error {
	return func(context.Context) error {
		p.StopAll()
		return nil
	}
}
