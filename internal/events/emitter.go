package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter dispatches events synchronously to handlers
// registered in process.
type InMemoryEventEmitter struct {
	handlers []EventHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds a handler to receive every later event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", "handler_count", len(e.handlers))
}

// EmitEvent sends event to every handler. A failing handler does not stop
// delivery to the rest; the first error is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *RunEvent) error {
	e.mu.RLock()
	handlers := append([]EventHandler(nil), e.handlers...)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// LoggingHandler writes each event to a structured logger.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a handler that logs at info level.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{logger: logger.With("component", "run_events")}
}

// HandleEvent logs the event and its progress counts when present.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *RunEvent) error {
	attrs := []any{
		"event_type", event.Type,
		"run_id", event.RunID,
		"stage", event.Stage,
	}
	if len(event.Payload) > 0 {
		var p Progress
		if err := event.UnmarshalPayload(&p); err == nil {
			attrs = append(attrs,
				"round", p.Round,
				"contexts", p.Contexts,
				"questions", p.Questions,
				"approved", p.Approved,
				"forced", p.Forced,
				"pending", p.Pending,
				"failed", p.Failed)
			if p.Error != "" {
				attrs = append(attrs, "error", p.Error)
			}
		}
	}

	level := slog.LevelInfo
	if event.Type == TypeRunFailed {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "run event", attrs...)
	return nil
}
