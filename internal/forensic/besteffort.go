package forensic

import (
	"context"
	"log/slog"
)

// Recorder is the producer-facing slice of the hub. Producers depend on this
// interface so tests can substitute failing hubs.
type Recorder interface {
	Log(ctx context.Context, entry Entry) (uint64, error)
}

// TryLog is the single fault-isolation point for every forensic call site.
// Logging is an observability side channel, never a correctness dependency:
// whether the hub errors, panics, or is paused, the producing operation must
// proceed as if the log had succeeded. Keeping the swallow in one function
// keeps the non-blocking guarantee auditable.
func TryLog(ctx context.Context, rec Recorder, logger *slog.Logger, entry Entry) {
	if rec == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			monitoringSwallowed.Inc()
			if logger != nil {
				logger.DebugContext(ctx, "forensic log panicked, continuing",
					"category", entry.Category, "panic", r)
			}
		}
	}()

	if _, err := rec.Log(ctx, entry); err != nil {
		monitoringSwallowed.Inc()
		if logger != nil {
			logger.DebugContext(ctx, "forensic log failed, continuing",
				"category", entry.Category, "error", err)
		}
	}
}
