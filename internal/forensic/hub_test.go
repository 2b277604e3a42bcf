package forensic_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sentinelguard/internal/forensic"
	"sentinelguard/internal/forensic/cooldown"
	"sentinelguard/internal/forensic/store/memory"
	dErrors "sentinelguard/pkg/domainerrors"
)

type HubSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.InMemoryStore
	hub   *forensic.Hub
	now   time.Time
	mu    sync.Mutex
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

func (s *HubSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	hub, err := forensic.New(s.store, cooldown.NewInMemoryStore(),
		forensic.WithCooldownWindow(time.Minute),
		forensic.WithClock(s.clock),
		forensic.WithHeightFunc(func() uint64 { return 42 }),
	)
	s.Require().NoError(err)
	s.hub = hub
}

func (s *HubSuite) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *HubSuite) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *HubSuite) entry(severity forensic.Severity, category string) forensic.Entry {
	return forensic.Entry{
		Source:   "ledger-core",
		Actor:    "acct-1",
		Severity: severity,
		Category: category,
		Details:  "test",
	}
}

func (s *HubSuite) TestSequenceIsMonotonic() {
	var prev uint64
	categories := []string{forensic.CategoryMint, forensic.CategoryBurn, forensic.CategoryTransfer}
	for _, cat := range categories {
		seq, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityInfo, cat))
		s.Require().NoError(err)
		s.Greater(seq, prev)
		prev = seq
	}

	count, err := s.hub.RecordCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(len(categories)), count)
}

func (s *HubSuite) TestCooldownSuppressesSubCritical() {
	// N entries in the same bucket inside the window store exactly one record.
	for range 5 {
		_, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityInfo, forensic.CategoryTransfer))
		s.Require().NoError(err)
	}

	count, err := s.hub.RecordCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)

	// After the window elapses the bucket accepts again.
	s.advance(61 * time.Second)
	seq, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityInfo, forensic.CategoryTransfer))
	s.Require().NoError(err)
	s.Equal(uint64(2), seq)
}

func (s *HubSuite) TestSuppressionReturnsZeroWithoutError() {
	seq, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityWarning, forensic.CategoryTransfer))
	s.Require().NoError(err)
	s.Equal(uint64(1), seq)

	seq, err = s.hub.Log(s.ctx, s.entry(forensic.SeverityWarning, forensic.CategoryTransfer))
	s.Require().NoError(err)
	s.Zero(seq)
}

func (s *HubSuite) TestCriticalBypassesCooldown() {
	for i := 1; i <= 4; i++ {
		seq, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityCritical, forensic.CategoryUpgrade))
		s.Require().NoError(err)
		s.Equal(uint64(i), seq)
	}
}

func (s *HubSuite) TestBucketsAreIndependent() {
	_, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityInfo, forensic.CategoryTransfer))
	s.Require().NoError(err)

	// Same category, higher severity: separate bucket, not suppressed.
	seq, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityWarning, forensic.CategoryTransfer))
	s.Require().NoError(err)
	s.Equal(uint64(2), seq)

	// Different category, same severity: separate bucket.
	seq, err = s.hub.Log(s.ctx, s.entry(forensic.SeverityInfo, forensic.CategoryMint))
	s.Require().NoError(err)
	s.Equal(uint64(3), seq)
}

func (s *HubSuite) TestRiskScoring() {
	seq, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityInfo, forensic.CategoryMint))
	s.Require().NoError(err)
	record, err := s.hub.GetRecord(s.ctx, seq)
	s.Require().NoError(err)
	s.Equal(uint16(10), record.RiskScore)

	seq, err = s.hub.Log(s.ctx, s.entry(forensic.SeverityWarning, forensic.CategoryRoleChange))
	s.Require().NoError(err)
	record, err = s.hub.GetRecord(s.ctx, seq)
	s.Require().NoError(err)
	s.Equal(uint16(55), record.RiskScore)

	// Critical baseline plus escalation premium.
	seq, err = s.hub.Log(s.ctx, s.entry(forensic.SeverityCritical, forensic.CategoryEmergencyHalt))
	s.Require().NoError(err)
	record, err = s.hub.GetRecord(s.ctx, seq)
	s.Require().NoError(err)
	s.Equal(uint16(95), record.RiskScore)
}

func (s *HubSuite) TestRecordFieldsAreStamped() {
	seq, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityWarning, forensic.CategoryPolicyFailure))
	s.Require().NoError(err)

	record, err := s.hub.GetRecord(s.ctx, seq)
	s.Require().NoError(err)
	s.Equal(seq, record.SequenceID)
	s.Equal(forensic.SeverityWarning, record.Severity)
	s.Equal(s.clock(), record.Timestamp)
	s.Equal(uint64(42), record.BlockHeight)
	s.NotEqual("00000000-0000-0000-0000-000000000000", record.ID.String())
}

func (s *HubSuite) TestPauseRejectsWithoutSequenceIncrement() {
	s.hub.SetActive(false)
	s.False(s.hub.IsActive())

	_, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityCritical, forensic.CategoryUpgrade))
	s.Error(err)

	s.hub.SetActive(true)
	seq, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityCritical, forensic.CategoryUpgrade))
	s.Require().NoError(err)
	s.Equal(uint64(1), seq)
}

func (s *HubSuite) TestValidation() {
	_, err := s.hub.Log(s.ctx, s.entry("debug", forensic.CategoryMint))
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))

	_, err = s.hub.Log(s.ctx, s.entry(forensic.SeverityInfo, ""))
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func (s *HubSuite) TestGetRecordNotFound() {
	_, err := s.hub.GetRecord(s.ctx, 999)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *HubSuite) TestQuickLog() {
	seq, err := s.hub.QuickLog(s.ctx, "acct-1", "guardian-7", forensic.CategoryRoleChange, "guardian rotation")
	s.Require().NoError(err)

	record, err := s.hub.GetRecord(s.ctx, seq)
	s.Require().NoError(err)
	s.Equal(forensic.SeverityInfo, record.Severity)
	s.Equal("acct-1", record.Actor.String())
	s.Equal("guardian-7", record.Source.String())
}

func (s *HubSuite) TestSequenceResumesFromStore() {
	_, err := s.hub.Log(s.ctx, s.entry(forensic.SeverityCritical, forensic.CategoryUpgrade))
	s.Require().NoError(err)
	_, err = s.hub.Log(s.ctx, s.entry(forensic.SeverityCritical, forensic.CategoryUpgrade))
	s.Require().NoError(err)

	// A new hub over the same store continues rather than reusing ids.
	hub2, err := forensic.New(s.store, cooldown.NewInMemoryStore(), forensic.WithClock(s.clock))
	s.Require().NoError(err)

	seq, err := hub2.Log(s.ctx, s.entry(forensic.SeverityCritical, forensic.CategoryUpgrade))
	s.Require().NoError(err)
	s.Equal(uint64(3), seq)
}

// failingRecorder always errors; panicRecorder always panics.
type failingRecorder struct{}

func (failingRecorder) Log(context.Context, forensic.Entry) (uint64, error) {
	return 0, errors.New("hub unreachable")
}

type panicRecorder struct{}

func (panicRecorder) Log(context.Context, forensic.Entry) (uint64, error) {
	panic("hub corrupted")
}

func TestTryLog_SwallowsFailures(t *testing.T) {
	ctx := context.Background()
	entry := forensic.Entry{Severity: forensic.SeverityInfo, Category: forensic.CategoryMint}

	// Must not panic or propagate in any failure mode.
	forensic.TryLog(ctx, failingRecorder{}, slog.Default(), entry)
	forensic.TryLog(ctx, panicRecorder{}, slog.Default(), entry)
	forensic.TryLog(ctx, nil, slog.Default(), entry)
	forensic.TryLog(ctx, failingRecorder{}, nil, entry)
}
