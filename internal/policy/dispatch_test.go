package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"sentinelguard/internal/policy"
	"sentinelguard/internal/policy/mocks"
	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

func TestCheck_AllowsWhenPolicyReturnsNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := mocks.NewMockTransferPolicy(ctrl)
	mock.EXPECT().
		ValidateTransfer(gomock.Any(), domain.Address("a"), domain.Address("b"), gomock.Any()).
		Return(nil)

	err := policy.Check(context.Background(), mock, "a", "b", domain.NewAmount(10))
	assert.NoError(t, err)
}

func TestCheck_DeniesOnExplicitRejection(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := mocks.NewMockTransferPolicy(ctrl)
	mock.EXPECT().
		ValidateTransfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("jurisdiction mismatch"))

	err := policy.Check(context.Background(), mock, "a", "b", domain.NewAmount(10))
	assert.Equal(t, dErrors.CodePolicyViolation, dErrors.CodeOf(err))
}

type panickingPolicy struct{}

func (panickingPolicy) ValidateTransfer(context.Context, domain.Address, domain.Address, domain.Amount) error {
	panic("index out of range")
}

func TestCheck_FailsClosedOnPanic(t *testing.T) {
	// A malfunctioning policy must deny the transfer, not crash the core.
	err := policy.Check(context.Background(), panickingPolicy{}, "a", "b", domain.NewAmount(10))
	assert.Equal(t, dErrors.CodePolicyViolation, dErrors.CodeOf(err))
}

func TestCheck_CallerCannotDistinguishCauses(t *testing.T) {
	rejected := policy.Check(context.Background(), denyAll{}, "a", "b", domain.NewAmount(1))
	panicked := policy.Check(context.Background(), panickingPolicy{}, "a", "b", domain.NewAmount(1))

	assert.Equal(t, dErrors.CodeOf(rejected), dErrors.CodeOf(panicked))
}

type denyAll struct{}

func (denyAll) ValidateTransfer(context.Context, domain.Address, domain.Address, domain.Amount) error {
	return errors.New("denied")
}
