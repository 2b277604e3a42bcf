// Package forensic implements the monitoring hub: an append-only, severity
// tiered log of privileged actions with per-bucket rate limiting and risk
// scoring. The hub owns the sequence counter; no other component may forge a
// sequence id.
package forensic

import (
	"time"

	"github.com/google/uuid"

	"sentinelguard/pkg/domain"
)

// Severity tiers for forensic records.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities so the hub can compare against the critical tier.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	}
	return 0
}

// Valid reports whether the severity is a known tier.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// Categories used by the core components. The hub accepts arbitrary category
// strings; these constants exist so producers and the risk table agree.
const (
	CategoryMint          = "mint"
	CategoryBurn          = "burn"
	CategoryTransfer      = "transfer"
	CategoryRoleChange    = "role_change"
	CategoryEmergencyHalt = "emergency_halt"
	CategoryUpgrade       = "upgrade"
	CategoryPolicyFailure = "policy_failure"
	CategoryConfigChange  = "config_change"
	CategoryExemption     = "exemption"
)

// Entry is what producers hand to the hub. The hub assigns everything else:
// sequence id, risk score, timestamp, block height.
type Entry struct {
	Source   domain.Address
	Actor    domain.Address
	Severity Severity
	Category string
	Details  string
}

// Record is the persisted, append-only form of an accepted entry. Records are
// never mutated or deleted.
type Record struct {
	ID          uuid.UUID      `json:"id"`
	SequenceID  uint64         `json:"sequence_id"`
	Source      domain.Address `json:"source"`
	Actor       domain.Address `json:"actor"`
	Severity    Severity       `json:"severity"`
	Category    string         `json:"category"`
	Details     string         `json:"details"`
	RiskScore   uint16         `json:"risk_score"`
	Timestamp   time.Time      `json:"timestamp"`
	BlockHeight uint64         `json:"block_height"`
}

// severityBaseline maps tiers to baseline risk scores.
var severityBaseline = map[Severity]uint16{
	SeverityInfo:     10,
	SeverityWarning:  40,
	SeverityCritical: 80,
}

// escalatedCategories carry an additional risk premium regardless of tier.
var escalatedCategories = map[string]struct{}{
	CategoryUpgrade:       {},
	CategoryEmergencyHalt: {},
	CategoryRoleChange:    {},
	CategoryPolicyFailure: {},
}

const (
	riskEscalation = 15
	riskCeiling    = 100
)

// RiskScore computes the score persisted with a record.
func RiskScore(severity Severity, category string) uint16 {
	score := severityBaseline[severity]
	if _, ok := escalatedCategories[category]; ok {
		score += riskEscalation
	}
	if score > riskCeiling {
		score = riskCeiling
	}
	return score
}

// BucketKey derives the cooldown bucket for an entry. Buckets are keyed by
// category and severity so an INFO flood cannot starve WARNING records.
func BucketKey(category string, severity Severity) string {
	return category + "/" + string(severity)
}
