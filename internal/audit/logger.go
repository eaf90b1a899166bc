package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexshield/lifecycle-engine/internal/config"
	"github.com/lexshield/lifecycle-engine/internal/lifecycle"
)

// DecisionEvent records one transition decision made by the engine. The
// engine itself stays pure; events are captured at the service boundary.
type DecisionEvent struct {
	ID        string              `json:"id"`
	CaseType  lifecycle.CaseType  `json:"case_type"`
	FromPhase lifecycle.Phase     `json:"from_phase"`
	ToPhase   lifecycle.Phase     `json:"to_phase"`
	Role      lifecycle.Role      `json:"role"`
	IsValid   bool                `json:"is_valid"`
	Errors    []string            `json:"errors"`
	Warnings  []string            `json:"warnings"`
	RequestID string              `json:"request_id"`
	Timestamp time.Time           `json:"timestamp"`
}

// Logger buffers decision events in memory and emits them as structured logs.
// Persistence of the audit trail belongs to an external collaborator; this
// component only keeps a bounded ring of recent decisions for inspection.
type Logger struct {
	config   config.AuditConfig
	logger   *zap.Logger
	events   chan DecisionEvent
	ring     []DecisionEvent
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewLogger creates a new decision audit logger.
func NewLogger(cfg config.AuditConfig, logger *zap.Logger) *Logger {
	return &Logger{
		config:   cfg,
		logger:   logger,
		events:   make(chan DecisionEvent, cfg.BufferSize),
		ring:     make([]DecisionEvent, 0, cfg.RingSize),
		stopChan: make(chan struct{}),
	}
}

// Start starts the background event consumer.
func (l *Logger) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("audit logger is already running")
	}

	l.wg.Add(1)
	go l.consumeLoop(ctx)

	l.running = true
	l.logger.Info("Audit logger started")
	return nil
}

// Stop drains the event channel and stops the consumer.
func (l *Logger) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopChan)
	l.wg.Wait()

	l.logger.Info("Audit logger stopped")
	return nil
}

// RecordDecision queues a decision event. A full buffer drops the event with
// a warning rather than blocking the request path.
func (l *Logger) RecordDecision(requestID string, state lifecycle.CaseState, target lifecycle.Phase, role lifecycle.Role, result lifecycle.ValidationResult) {
	l.mu.RLock()
	running := l.running
	l.mu.RUnlock()
	if !running {
		return
	}

	event := DecisionEvent{
		ID:        uuid.New().String(),
		CaseType:  state.CaseType,
		FromPhase: state.Phase,
		ToPhase:   target,
		Role:      role,
		IsValid:   result.IsValid,
		Errors:    result.Errors,
		Warnings:  result.Warnings,
		RequestID: requestID,
		Timestamp: time.Now(),
	}

	select {
	case l.events <- event:
	default:
		l.logger.Warn("Audit event buffer full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("request_id", requestID),
		)
	}
}

// Recent returns up to limit of the most recent decision events, newest
// first.
func (l *Logger) Recent(limit int) []DecisionEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.ring) {
		limit = len(l.ring)
	}
	out := make([]DecisionEvent, 0, limit)
	for i := len(l.ring) - 1; i >= len(l.ring)-limit; i-- {
		out = append(out, l.ring[i])
	}
	return out
}

func (l *Logger) consumeLoop(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopChan:
			// Drain whatever is already queued.
			for {
				select {
				case event := <-l.events:
					l.append(event)
				default:
					return
				}
			}
		case event := <-l.events:
			l.append(event)
		}
	}
}

func (l *Logger) append(event DecisionEvent) {
	l.mu.Lock()
	if len(l.ring) >= l.config.RingSize {
		l.ring = l.ring[1:]
	}
	l.ring = append(l.ring, event)
	l.mu.Unlock()

	l.logger.Info("transition decision",
		zap.String("event_id", event.ID),
		zap.String("request_id", event.RequestID),
		zap.String("case_type", string(event.CaseType)),
		zap.String("from", string(event.FromPhase)),
		zap.String("to", string(event.ToPhase)),
		zap.String("role", string(event.Role)),
		zap.Bool("is_valid", event.IsValid),
		zap.Strings("errors", event.Errors),
		zap.Strings("warnings", event.Warnings),
	)
}
