// Package service provides the business logic for the syncpoint API.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stacklok/syncpoint-server/internal/logger"
	"github.com/stacklok/syncpoint-server/internal/rendezvous"
	"github.com/stacklok/syncpoint-server/internal/telemetry"
)

var (
	// ErrInvalidWaitID is returned when a wait is requested with an empty id.
	ErrInvalidWaitID = errors.New("wait id is required")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go SyncService

// SyncService defines the interface for wait operations.
type SyncService interface {
	// Wait joins the rendezvous for waitID and blocks until a second
	// party arrives or the configured timeout elapses.
	Wait(ctx context.Context, waitID string) (rendezvous.Outcome, error)

	// Timeout returns the configured wait deadline.
	Timeout() time.Duration

	// ActiveWaits returns the number of wait IDs currently awaiting a
	// second party.
	ActiveWaits() int

	// CheckReadiness checks if the service is ready to serve requests.
	CheckReadiness(ctx context.Context) error
}

// Option configures the service returned by NewService.
type Option func(*syncService)

// WithMetrics wires wait-outcome instrumentation into the service.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *syncService) {
		s.metrics = m
		m.RegisterActiveWaits(func() float64 {
			return float64(s.registry.Len())
		})
	}
}

type syncService struct {
	registry *rendezvous.Registry
	timeout  time.Duration
	metrics  *telemetry.Metrics
}

// NewService creates a SyncService on top of the given registry with a fixed
// wait timeout.
func NewService(registry *rendezvous.Registry, timeout time.Duration, opts ...Option) (SyncService, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	s := &syncService{
		registry: registry,
		timeout:  timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *syncService) Wait(ctx context.Context, waitID string) (rendezvous.Outcome, error) {
	if waitID == "" {
		return rendezvous.OutcomeNone, ErrInvalidWaitID
	}

	logger.Debugf("Party arrived for wait id %q", waitID)
	outcome, err := s.registry.Join(ctx, waitID, s.timeout)
	if err != nil {
		return outcome, err
	}

	logger.Debugf("Wait for id %q finished: %s", waitID, outcome)
	s.metrics.RecordWait(outcome.String())
	return outcome, nil
}

func (s *syncService) Timeout() time.Duration {
	return s.timeout
}

func (s *syncService) ActiveWaits() int {
	return s.registry.Len()
}

func (s *syncService) CheckReadiness(_ context.Context) error {
	// The service has no external dependencies; once constructed it is
	// ready.
	return nil
}
