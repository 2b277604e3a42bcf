package forensic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
	"sentinelguard/pkg/platform/sentinel"
)

// RecordStore persists accepted records. Implementations must be append-only.
type RecordStore interface {
	Append(ctx context.Context, record Record) error
	Get(ctx context.Context, sequenceID uint64) (*Record, error)
	Count(ctx context.Context) (uint64, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}

// CooldownStore tracks the last accepted timestamp per bucket.
type CooldownStore interface {
	Last(ctx context.Context, bucket string) (time.Time, bool, error)
	Touch(ctx context.Context, bucket string, at time.Time) error
}

// Hub is the forensic monitoring hub. All methods are safe for concurrent
// use; Log serializes internally so sequence ids stay gapless and monotonic.
type Hub struct {
	mu        sync.Mutex
	store     RecordStore
	cooldowns CooldownStore
	window    time.Duration
	active    bool
	seq       uint64
	seqLoaded bool
	now       func() time.Time
	height    func() uint64
	logger    *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithCooldownWindow sets the suppression window for sub-critical records.
func WithCooldownWindow(d time.Duration) Option {
	return func(h *Hub) { h.window = d }
}

// WithClock overrides the hub clock.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// WithHeightFunc supplies the block height recorded with each entry when the
// surrounding transaction context knows one.
func WithHeightFunc(height func() uint64) Option {
	return func(h *Hub) { h.height = height }
}

// WithLogger sets the hub's own diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// New builds an active hub. Both stores are required.
func New(store RecordStore, cooldowns CooldownStore, opts ...Option) (*Hub, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if cooldowns == nil {
		return nil, fmt.Errorf("cooldown store is required")
	}

	h := &Hub{
		store:     store,
		cooldowns: cooldowns,
		window:    time.Minute,
		active:    true,
		now:       time.Now,
		height:    func() uint64 { return 0 },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Log records a forensic entry. Returns the assigned sequence id, or 0 with a
// nil error when the entry was suppressed by the cooldown window. Producers
// must treat any error as non-fatal; see TryLog.
func (h *Hub) Log(ctx context.Context, entry Entry) (uint64, error) {
	if !entry.Severity.Valid() {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "unknown severity %q", entry.Severity)
	}
	if entry.Category == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "category is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active {
		monitoringSuppressed.WithLabelValues("inactive").Inc()
		return 0, fmt.Errorf("monitoring hub paused: %w", sentinel.ErrUnavailable)
	}

	if err := h.loadSequenceLocked(ctx); err != nil {
		return 0, err
	}

	now := h.now()
	bucket := BucketKey(entry.Category, entry.Severity)

	// Anti-spam: sub-critical records inside the window are dropped with no
	// record, no error, and no sequence increment. A cooldown-store fault is
	// treated as "no cooldown on file": losing rate limiting briefly is
	// better than losing the record.
	if entry.Severity.Rank() < SeverityCritical.Rank() {
		last, ok, err := h.cooldowns.Last(ctx, bucket)
		if err != nil {
			h.logger.WarnContext(ctx, "cooldown lookup failed, accepting record",
				"bucket", bucket, "error", err)
		} else if ok && now.Sub(last) < h.window {
			monitoringSuppressed.WithLabelValues("cooldown").Inc()
			return 0, nil
		}
	}

	seq := h.seq + 1
	record := Record{
		ID:          uuid.New(),
		SequenceID:  seq,
		Source:      entry.Source,
		Actor:       entry.Actor,
		Severity:    entry.Severity,
		Category:    entry.Category,
		Details:     entry.Details,
		RiskScore:   RiskScore(entry.Severity, entry.Category),
		Timestamp:   now,
		BlockHeight: h.height(),
	}

	if err := h.store.Append(ctx, record); err != nil {
		return 0, fmt.Errorf("append forensic record: %w", err)
	}
	h.seq = seq

	if err := h.cooldowns.Touch(ctx, bucket, now); err != nil {
		h.logger.WarnContext(ctx, "cooldown touch failed", "bucket", bucket, "error", err)
	}

	monitoringRecords.WithLabelValues(string(entry.Severity)).Inc()
	monitoringRiskScore.Observe(float64(record.RiskScore))
	return seq, nil
}

// QuickLog is the convenience producer entry point: an INFO record tying an
// actor to a related endpoint.
func (h *Hub) QuickLog(ctx context.Context, actor, related domain.Address, category, details string) (uint64, error) {
	return h.Log(ctx, Entry{
		Source:   related,
		Actor:    actor,
		Severity: SeverityInfo,
		Category: category,
		Details:  details,
	})
}

// GetRecord fetches a record by sequence id.
func (h *Hub) GetRecord(ctx context.Context, sequenceID uint64) (*Record, error) {
	record, err := h.store.Get(ctx, sequenceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load record")
	}
	return record, nil
}

// RecordCount returns the number of stored records.
func (h *Hub) RecordCount(ctx context.Context) (uint64, error) {
	return h.store.Count(ctx)
}

// ListRecent returns up to limit most recent records for the audit surface.
func (h *Hub) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return h.store.ListRecent(ctx, limit)
}

// IsActive reports whether the hub accepts records.
func (h *Hub) IsActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// SetActive pauses or resumes the hub. While paused, Log fails; producers
// swallow that failure per the non-blocking contract.
func (h *Hub) SetActive(active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = active
}

// loadSequenceLocked primes the sequence counter from the store on first use
// so restarts continue the sequence instead of reusing ids.
func (h *Hub) loadSequenceLocked(ctx context.Context) error {
	if h.seqLoaded {
		return nil
	}
	count, err := h.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("load sequence counter: %w", err)
	}
	h.seq = count
	h.seqLoaded = true
	return nil
}
