package policy

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

var policyDenials = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinelguard_policy_denials_total",
	Help: "Transfers denied at policy dispatch, by cause",
}, []string{"cause"})

// Check performs the fault-isolated policy call. A returned error and a
// panic both deny the transfer: a faulty policy must never let unauthorized
// value move. The caller cannot tell rejection from malfunction; only the
// denial cause label and the forensic details differ.
func Check(ctx context.Context, p TransferPolicy, from, to domain.Address, amount domain.Amount) (err error) {
	defer func() {
		if r := recover(); r != nil {
			policyDenials.WithLabelValues("panic").Inc()
			err = dErrors.Wrap(fmt.Errorf("policy panic: %v", r),
				dErrors.CodePolicyViolation, "transfer rejected")
		}
	}()

	if err := p.ValidateTransfer(ctx, from, to, amount); err != nil {
		policyDenials.WithLabelValues("rejected").Inc()
		return dErrors.Wrap(err, dErrors.CodePolicyViolation, "transfer rejected")
	}
	return nil
}
