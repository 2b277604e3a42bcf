package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"sentinelguard/internal/forensic"
	"sentinelguard/internal/platform/metrics"
	"sentinelguard/internal/policy"
	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

// BalanceStore persists account balances. Apply must commit every entry in
// the map atomically: either all new balances land or none do.
type BalanceStore interface {
	Get(ctx context.Context, account domain.Address) (domain.Amount, error)
	Apply(ctx context.Context, balances map[domain.Address]domain.Amount) error
	All(ctx context.Context) (map[domain.Address]domain.Amount, error)
}

// RoleAuthority is the slice of the role service the ledger needs.
type RoleAuthority interface {
	RequireRole(ctx context.Context, role domain.RoleID, account domain.Address) error
	HasRole(ctx context.Context, role domain.RoleID, account domain.Address) (bool, error)
}

// TransferNotifier receives successful transfers for downstream reputation
// scoring. Implementations must not block the caller.
type TransferNotifier interface {
	TransferExecuted(ctx context.Context, from, to domain.Address, amount domain.Amount)
}

// State is a point-in-time snapshot of the storage block plus total supply.
type State struct {
	Halted            bool             `json:"halted"`
	EnforcementActive bool             `json:"enforcement_active"`
	PolicyAddress     domain.Address   `json:"policy_address,omitempty"`
	AuthorizerAddress domain.Address   `json:"authorizer_address,omitempty"`
	SupplyCap         domain.Amount    `json:"supply_cap"`
	TotalSupply       domain.Amount    `json:"total_supply"`
	Exemptions        []domain.Address `json:"exemptions"`
	LastActionHash    string           `json:"last_action_hash"`

	// CurrentLogic is filled in by the transport from the upgrade manager.
	CurrentLogic domain.Address `json:"current_logic,omitempty"`
}

// Service executes all value-moving and administrative operations against a
// single storage block. Every entry point follows the same gate order:
// reentrancy guard, emergency halt, role check, then (for transfers) the
// policy hook, and only then balance math.
type Service struct {
	// mu serializes state-changing operations so supply and balance math
	// never interleaves. It is acquired only after the reentrancy guard
	// passes, so a policy calling back into the service is rejected
	// instead of deadlocking on its own lock.
	mu sync.Mutex

	block    *StorageBlock
	balances BalanceStore
	roles    RoleAuthority

	policy   policy.TransferPolicy
	hub      forensic.Recorder
	notifier TransferNotifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	source   domain.Address
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithRecorder(hub forensic.Recorder) Option {
	return func(s *Service) { s.hub = hub }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n TransferNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithSource sets the address this component reports as the forensic source.
func WithSource(source domain.Address) Option {
	return func(s *Service) { s.source = source }
}

func New(block *StorageBlock, balances BalanceStore, roles RoleAuthority, opts ...Option) (*Service, error) {
	if block == nil {
		return nil, fmt.Errorf("storage block is required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance store is required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role authority is required")
	}
	s := &Service{
		block:    block,
		balances: balances,
		roles:    roles,
		source:   "ledger-core",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type inFlightKey struct{}

// enter is the reentrancy guard. The returned context carries an in-flight
// marker; any call that arrives with the marker already set was made from
// inside an active operation (a policy calling back into the ledger) and is
// rejected before touching state.
func (s *Service) enter(ctx context.Context) (context.Context, error) {
	if ctx.Value(inFlightKey{}) != nil {
		return nil, dErrors.New(dErrors.CodeReentrantCall, "operation already in flight")
	}
	return context.WithValue(ctx, inFlightKey{}, struct{}{}), nil
}

func (s *Service) rejected(code dErrors.Code) {
	if s.metrics != nil {
		s.metrics.RejectedTotal.WithLabelValues(string(code)).Inc()
	}
}

func (s *Service) haltCheck() error {
	if s.block.Halted() {
		return dErrors.New(dErrors.CodeEmergencyHalt, "system is halted")
	}
	return nil
}

// Mint creates new units for an account. Minting obeys the halt switch and
// the supply cap but never consults the transfer policy.
func (s *Service) Mint(ctx context.Context, caller, to domain.Address, amount domain.Amount) error {
	ctx, err := s.enter(ctx)
	if err != nil {
		s.rejected(dErrors.CodeReentrantCall)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.haltCheck(); err != nil {
		s.rejected(dErrors.CodeEmergencyHalt)
		return err
	}
	if err := s.roles.RequireRole(ctx, domain.RoleMinter, caller); err != nil {
		s.rejected(dErrors.CodeOf(err))
		return err
	}
	if to.IsZero() {
		s.rejected(dErrors.CodeBadRequest)
		return dErrors.New(dErrors.CodeBadRequest, "recipient is required")
	}
	if amount.IsZero() {
		s.rejected(dErrors.CodeBadRequest)
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	supply := s.block.TotalSupply()
	newSupply, err := supply.Add(amount)
	if err != nil || newSupply.Cmp(s.block.SupplyCap()) > 0 {
		s.rejected(dErrors.CodeSupplyCapExceeded)
		return dErrors.SupplyCapExceeded(amount, s.block.SupplyCap())
	}

	balance, err := s.balances.Get(ctx, to)
	if err != nil {
		s.rejected(dErrors.CodeInternal)
		return dErrors.Wrap(err, dErrors.CodeInternal, "load recipient balance")
	}
	newBalance, err := balance.Add(amount)
	if err != nil {
		s.rejected(dErrors.CodeInternal)
		return dErrors.Wrap(err, dErrors.CodeInternal, "credit recipient")
	}
	if err := s.balances.Apply(ctx, map[domain.Address]domain.Amount{to: newBalance}); err != nil {
		s.rejected(dErrors.CodeInternal)
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist mint")
	}
	s.block.SetTotalSupply(newSupply)
	s.block.RecordAction(fmt.Sprintf("mint/%s/%s/%s", caller, to, amount))

	if s.metrics != nil {
		s.metrics.MintsTotal.Inc()
	}
	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityInfo,
		Category: forensic.CategoryMint,
		Details:  fmt.Sprintf("minted %s to %s", amount, to),
	})
	return nil
}

// Burn destroys units held by an account. Burning obeys the halt switch but
// never consults the transfer policy.
func (s *Service) Burn(ctx context.Context, caller, from domain.Address, amount domain.Amount) error {
	ctx, err := s.enter(ctx)
	if err != nil {
		s.rejected(dErrors.CodeReentrantCall)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.haltCheck(); err != nil {
		s.rejected(dErrors.CodeEmergencyHalt)
		return err
	}
	if err := s.roles.RequireRole(ctx, domain.RoleBurner, caller); err != nil {
		s.rejected(dErrors.CodeOf(err))
		return err
	}
	if from.IsZero() {
		s.rejected(dErrors.CodeBadRequest)
		return dErrors.New(dErrors.CodeBadRequest, "account is required")
	}
	if amount.IsZero() {
		s.rejected(dErrors.CodeBadRequest)
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	balance, err := s.balances.Get(ctx, from)
	if err != nil {
		s.rejected(dErrors.CodeInternal)
		return dErrors.Wrap(err, dErrors.CodeInternal, "load account balance")
	}
	newBalance, err := balance.Sub(amount)
	if err != nil {
		s.rejected(dErrors.CodeInsufficientBalance)
		return dErrors.InsufficientBalance(from, amount, balance)
	}
	newSupply, err := s.block.TotalSupply().Sub(amount)
	if err != nil {
		s.rejected(dErrors.CodeInternal)
		return dErrors.Wrap(err, dErrors.CodeInternal, "debit total supply")
	}
	if err := s.balances.Apply(ctx, map[domain.Address]domain.Amount{from: newBalance}); err != nil {
		s.rejected(dErrors.CodeInternal)
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist burn")
	}
	s.block.SetTotalSupply(newSupply)
	s.block.RecordAction(fmt.Sprintf("burn/%s/%s/%s", caller, from, amount))

	if s.metrics != nil {
		s.metrics.BurnsTotal.Inc()
	}
	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityInfo,
		Category: forensic.CategoryBurn,
		Details:  fmt.Sprintf("burned %s from %s", amount, from),
	})
	return nil
}

// Transfer moves units between accounts. The caller must be the sender or
// hold the operator role. When enforcement is active, a bound policy has
// been set, and neither endpoint is exempt, the policy decides; a policy
// error or panic denies the transfer.
func (s *Service) Transfer(ctx context.Context, caller, from, to domain.Address, amount domain.Amount) error {
	ctx, err := s.enter(ctx)
	if err != nil {
		s.rejected(dErrors.CodeReentrantCall)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.haltCheck(); err != nil {
		s.rejected(dErrors.CodeEmergencyHalt)
		return err
	}
	if caller != from {
		if err := s.roles.RequireRole(ctx, domain.RoleOperator, caller); err != nil {
			s.rejected(dErrors.CodeOf(err))
			return err
		}
	}
	if from.IsZero() || to.IsZero() {
		s.rejected(dErrors.CodeBadRequest)
		return dErrors.New(dErrors.CodeBadRequest, "sender and recipient are required")
	}
	if amount.IsZero() {
		s.rejected(dErrors.CodeBadRequest)
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	if s.policyApplies(from, to) {
		if err := policy.Check(ctx, s.policy, from, to, amount); err != nil {
			s.rejected(dErrors.CodePolicyViolation)
			forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
				Source:   s.source,
				Actor:    caller,
				Severity: forensic.SeverityWarning,
				Category: forensic.CategoryPolicyFailure,
				Details:  fmt.Sprintf("policy rejected transfer of %s from %s to %s", amount, from, to),
			})
			return err
		}
	}

	fromBalance, err := s.balances.Get(ctx, from)
	if err != nil {
		s.rejected(dErrors.CodeInternal)
		return dErrors.Wrap(err, dErrors.CodeInternal, "load sender balance")
	}
	newFrom, err := fromBalance.Sub(amount)
	if err != nil {
		s.rejected(dErrors.CodeInsufficientBalance)
		return dErrors.InsufficientBalance(from, amount, fromBalance)
	}

	changes := map[domain.Address]domain.Amount{from: newFrom}
	if from != to {
		toBalance, err := s.balances.Get(ctx, to)
		if err != nil {
			s.rejected(dErrors.CodeInternal)
			return dErrors.Wrap(err, dErrors.CodeInternal, "load recipient balance")
		}
		newTo, err := toBalance.Add(amount)
		if err != nil {
			s.rejected(dErrors.CodeInternal)
			return dErrors.Wrap(err, dErrors.CodeInternal, "credit recipient")
		}
		changes[to] = newTo
	} else {
		// Self-transfer leaves the balance untouched.
		changes[from] = fromBalance
	}
	if err := s.balances.Apply(ctx, changes); err != nil {
		s.rejected(dErrors.CodeInternal)
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist transfer")
	}
	s.block.RecordAction(fmt.Sprintf("transfer/%s/%s/%s/%s", caller, from, to, amount))

	if s.metrics != nil {
		s.metrics.TransfersTotal.Inc()
	}
	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityInfo,
		Category: forensic.CategoryTransfer,
		Details:  fmt.Sprintf("transferred %s from %s to %s", amount, from, to),
	})
	s.tryNotify(ctx, from, to, amount)
	return nil
}

func (s *Service) policyApplies(from, to domain.Address) bool {
	if !s.block.EnforcementActive() || s.policy == nil {
		return false
	}
	if s.block.IsExempt(from) || s.block.IsExempt(to) {
		return false
	}
	return true
}

// tryNotify isolates the reputation pipeline from the transfer path. A
// panicking notifier is logged and swallowed.
func (s *Service) tryNotify(ctx context.Context, from, to domain.Address, amount domain.Amount) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "transfer notifier panicked", slog.Any("panic", r))
		}
	}()
	s.notifier.TransferExecuted(ctx, from, to, amount)
}

// SetHalt flips the emergency halt switch. Halting is logged at critical
// severity so it is never suppressed by the monitoring cooldown; resuming
// logs a warning.
func (s *Service) SetHalt(ctx context.Context, caller domain.Address, halted bool) error {
	ctx, err := s.enter(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.roles.RequireRole(ctx, domain.RoleAdmin, caller); err != nil {
		return err
	}
	s.block.SetHalted(halted)
	s.block.RecordAction(fmt.Sprintf("halt/%s/%t", caller, halted))
	if s.metrics != nil {
		if halted {
			s.metrics.Halted.Set(1)
		} else {
			s.metrics.Halted.Set(0)
		}
	}

	severity, detail := forensic.SeverityCritical, "emergency halt activated"
	if !halted {
		severity, detail = forensic.SeverityWarning, "emergency halt lifted"
	}
	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: severity,
		Category: forensic.CategoryEmergencyHalt,
		Details:  detail,
	})
	return nil
}

// SetEnforcement toggles policy enforcement without unbinding the policy.
func (s *Service) SetEnforcement(ctx context.Context, caller domain.Address, active bool) error {
	ctx, err := s.enter(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.roles.RequireRole(ctx, domain.RoleAdmin, caller); err != nil {
		return err
	}
	s.block.SetEnforcementActive(active)
	s.block.RecordAction(fmt.Sprintf("enforcement/%s/%t", caller, active))

	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityWarning,
		Category: forensic.CategoryConfigChange,
		Details:  fmt.Sprintf("policy enforcement set to %t", active),
	})
	return nil
}

// SetPolicy binds a transfer policy under the given address. Passing a nil
// policy unbinds, which disables dispatch regardless of the enforcement flag.
func (s *Service) SetPolicy(ctx context.Context, caller, addr domain.Address, p policy.TransferPolicy) error {
	ctx, err := s.enter(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.roles.RequireRole(ctx, domain.RoleAdmin, caller); err != nil {
		return err
	}
	if p == nil {
		addr = domain.ZeroAddress
	}
	s.policy = p
	s.block.SetPolicyAddress(addr)
	s.block.RecordAction(fmt.Sprintf("policy/%s/%s", caller, addr))

	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityWarning,
		Category: forensic.CategoryConfigChange,
		Details:  fmt.Sprintf("transfer policy set to %q", addr),
	})
	return nil
}

// SetSupplyCap adjusts the supply ceiling. The cap can never drop below the
// circulating supply.
func (s *Service) SetSupplyCap(ctx context.Context, caller domain.Address, cap domain.Amount) error {
	ctx, err := s.enter(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.roles.RequireRole(ctx, domain.RoleAdmin, caller); err != nil {
		return err
	}
	if cap.Cmp(s.block.TotalSupply()) < 0 {
		return dErrors.Newf(dErrors.CodeBadRequest,
			"cap %s is below circulating supply %s", cap, s.block.TotalSupply())
	}
	s.block.SetSupplyCap(cap)
	s.block.RecordAction(fmt.Sprintf("cap/%s/%s", caller, cap))

	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityWarning,
		Category: forensic.CategoryConfigChange,
		Details:  fmt.Sprintf("supply cap set to %s", cap),
	})
	return nil
}

// AddExemption excludes an account from policy dispatch on either side of a
// transfer.
func (s *Service) AddExemption(ctx context.Context, caller, account domain.Address) error {
	return s.setExemption(ctx, caller, account, true)
}

// RemoveExemption re-subjects an account to policy dispatch.
func (s *Service) RemoveExemption(ctx context.Context, caller, account domain.Address) error {
	return s.setExemption(ctx, caller, account, false)
}

func (s *Service) setExemption(ctx context.Context, caller, account domain.Address, exempt bool) error {
	ctx, err := s.enter(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.roles.RequireRole(ctx, domain.RoleAdmin, caller); err != nil {
		return err
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "account is required")
	}
	verb := "exempted"
	if exempt {
		s.block.AddExempt(account)
	} else {
		s.block.RemoveExempt(account)
		verb = "unexempted"
	}
	s.block.RecordAction(fmt.Sprintf("exempt/%s/%s/%t", caller, account, exempt))

	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityWarning,
		Category: forensic.CategoryExemption,
		Details:  fmt.Sprintf("%s %s from policy checks", verb, account),
	})
	return nil
}

// Balance returns the current balance of an account. Unknown accounts hold
// zero.
func (s *Service) Balance(ctx context.Context, account domain.Address) (domain.Amount, error) {
	return s.balances.Get(ctx, account)
}

// TotalSupply returns the circulating supply.
func (s *Service) TotalSupply() domain.Amount {
	return s.block.TotalSupply()
}

// State snapshots the storage block for the unprivileged read surface.
func (s *Service) State(ctx context.Context) State {
	hash := s.block.LastActionHash()
	return State{
		Halted:            s.block.Halted(),
		EnforcementActive: s.block.EnforcementActive(),
		PolicyAddress:     s.block.PolicyAddress(),
		AuthorizerAddress: s.block.AuthorizerAddress(),
		SupplyCap:         s.block.SupplyCap(),
		TotalSupply:       s.block.TotalSupply(),
		Exemptions:        s.block.Exemptions(),
		LastActionHash:    fmt.Sprintf("%x", hash),
	}
}

// RestoreSupply rebuilds the tracked total supply from the balance store.
// Balances can outlive the process while the storage block cannot, so a
// restarted instance must re-prime the figure before serving traffic or the
// conservation invariant breaks and the cap stops bounding persisted value.
// Persisted balances already above the cap abort startup.
func (s *Service) RestoreSupply(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.balances.All(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load balances")
	}
	sum := domain.Amount{}
	for account, balance := range all {
		sum, err = sum.Add(balance)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal,
				fmt.Sprintf("sum overflow at %s", account))
		}
	}
	if sum.Cmp(s.block.SupplyCap()) > 0 {
		return dErrors.SupplyCapExceeded(sum, s.block.SupplyCap())
	}
	s.block.SetTotalSupply(sum)
	return nil
}

// VerifySupply recomputes total supply from individual balances and compares
// it to the tracked figure. A mismatch means the conservation invariant was
// broken somewhere.
func (s *Service) VerifySupply(ctx context.Context) error {
	all, err := s.balances.All(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load balances")
	}
	sum := domain.Amount{}
	for account, balance := range all {
		sum, err = sum.Add(balance)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal,
				fmt.Sprintf("sum overflow at %s", account))
		}
	}
	if sum.Cmp(s.block.TotalSupply()) != 0 {
		return dErrors.Newf(dErrors.CodeInternal,
			"supply mismatch: tracked %s, summed %s", s.block.TotalSupply(), sum)
	}
	return nil
}

// Block exposes the storage block for the upgrade manager, which shares it.
func (s *Service) Block() *StorageBlock { return s.block }
