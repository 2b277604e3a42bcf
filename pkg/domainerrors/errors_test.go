package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelguard/pkg/domain"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeUnauthorized, "minter role required")
	assert.Equal(t, CodeUnauthorized, CodeOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, CodeUnauthorized, CodeOf(wrapped))

	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestSupplyCapExceeded_CarriesParameters(t *testing.T) {
	err := SupplyCapExceeded(domain.NewAmount(1), domain.NewAmount(100))
	assert.Equal(t, CodeSupplyCapExceeded, CodeOf(err))

	var capErr *SupplyCapExceededError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "1", capErr.Requested.String())
	assert.Equal(t, "100", capErr.Cap.String())
	assert.Contains(t, capErr.Error(), "requested 1, cap 100")
}

func TestInsufficientBalance_CarriesParameters(t *testing.T) {
	err := InsufficientBalance("acct-1", domain.NewAmount(50), domain.NewAmount(10))
	assert.Equal(t, CodeInsufficientBalance, CodeOf(err))

	var balErr *InsufficientBalanceError
	require.True(t, errors.As(err, &balErr))
	assert.Equal(t, domain.Address("acct-1"), balErr.Account)
	assert.Equal(t, "50", balErr.Requested.String())
	assert.Equal(t, "10", balErr.Available.String())
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, ToHTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusServiceUnavailable, ToHTTPStatus(CodeEmergencyHalt))
	assert.Equal(t, http.StatusUnprocessableEntity, ToHTTPStatus(CodePolicyViolation))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeReentrantCall))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(CodeInternal))
}
