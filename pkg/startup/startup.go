// Package startup sequences the external dependencies the service needs
// before it can serve traffic. Dependencies declare what they depend on and
// are started in order; the whole sequence is retried with fibonacci backoff
// so a deploy does not race its database or broker coming up.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

type Dependency interface {
	Name() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
	statusFailed
)

type Startup struct {
	order        []string
	dependencies map[string]Dependency
	statuses     map[string]status
	logger       ectologger.Logger
	maxAttempts  int
}

func New(logger ectologger.Logger, maxAttempts int) *Startup {
	return &Startup{
		logger:       logger,
		dependencies: make(map[string]Dependency),
		statuses:     make(map[string]status),
		maxAttempts:  maxAttempts,
	}
}

func (s *Startup) Add(dependency Dependency) {
	name := dependency.Name()
	if _, ok := s.dependencies[name]; !ok {
		s.order = append(s.order, name)
	}
	s.dependencies[name] = dependency
}

// Start brings up every registered dependency. A failed attempt resets
// nothing that already started; only the failed dependency and anything
// after it are retried.
func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithContext(ctx).WithField("attempt", attempt).Info("Starting dependencies")

		lastErr = nil
		for _, name := range s.order {
			if err := s.startDependency(ctx, s.dependencies[name]); err != nil {
				s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"dependency": name,
					"attempt":    attempt,
				}).Warn("Dependency failed to start")
				lastErr = err
				break
			}
		}
		if lastErr == nil {
			return nil
		}
		if attempt == s.maxAttempts {
			break
		}

		wait := time.Duration(a) * time.Second
		a, b = b, a+b
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Startup) startDependency(ctx context.Context, dependency Dependency) error {
	name := dependency.Name()
	if s.statuses[name] == statusStarted {
		return nil
	}

	for _, upstream := range dependency.DependsOn() {
		dep, ok := s.dependencies[upstream]
		if !ok {
			return fmt.Errorf("dependency %q requires unregistered dependency %q", name, upstream)
		}
		if err := s.startDependency(ctx, dep); err != nil {
			return err
		}
	}

	s.logger.WithContext(ctx).WithField("dependency", name).Info("Starting dependency")
	if err := dependency.Start(ctx); err != nil {
		s.statuses[name] = statusFailed
		return err
	}
	s.statuses[name] = statusStarted
	return nil
}

// Stop shuts started dependencies down in reverse registration order.
func (s *Startup) Stop(ctx context.Context) error {
	var lastErr error
	for i := len(s.order) - 1; i >= 0; i-- {
		name := s.order[i]
		if s.statuses[name] != statusStarted {
			continue
		}
		if err := s.dependencies[name].Stop(ctx); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("dependency", name).Error("Failed to stop dependency")
			lastErr = err
			continue
		}
		s.statuses[name] = statusStopped
	}
	return lastErr
}
