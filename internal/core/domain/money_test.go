package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"whole", "50000", false},
		{"two decimals", "12.34", false},
		{"trailing zeros", "12.300", false},
		{"zero", "0", true},
		{"negative", "-5", true},
		{"three decimals", "1.005", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	raw, err := ToMinorUnits(decimal.RequireFromString("50000"), 2)
	require.NoError(t, err)
	assert.Equal(t, "5000000", raw)

	back, err := FromMinorUnits(raw, 2)
	require.NoError(t, err)
	assert.True(t, back.Equal(decimal.RequireFromString("50000.00")))

	raw, err = ToMinorUnits(decimal.RequireFromString("10.5"), 2)
	require.NoError(t, err)
	assert.Equal(t, "1050", raw)
}

func TestToMinorUnitsRejectsExtraPrecision(t *testing.T) {
	_, err := ToMinorUnits(decimal.RequireFromString("1.234"), 2)
	assert.ErrorIs(t, err, ErrFractionalAmount)

	_, err = ToMinorUnits(decimal.RequireFromString("1.5"), 0)
	assert.ErrorIs(t, err, ErrFractionalAmount)
}

func TestFromMinorUnitsRejectsNonDigits(t *testing.T) {
	for _, raw := range []string{"", "-100", "1e5", "100.0", " 100", "abc"} {
		_, err := FromMinorUnits(raw, 2)
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}
}

func TestPaymentPatchApply(t *testing.T) {
	note := "old"
	p := &Payment{Status: PaymentPending, Note: &note}

	status := PaymentProcessing
	txn := "TXN-1"
	patch := PaymentPatch{Status: &status, TransactionID: &txn}
	require.NoError(t, patch.Validate())
	patch.Apply(p)

	assert.Equal(t, PaymentProcessing, p.Status)
	require.NotNil(t, p.TransactionID)
	assert.Equal(t, "TXN-1", *p.TransactionID)
	assert.Equal(t, "old", *p.Note)

	bad := PaymentStatus("settled")
	assert.ErrorIs(t, PaymentPatch{Status: &bad}.Validate(), ErrInvalidPaymentPatch)
	assert.ErrorIs(t, PaymentPatch{GatewayResponse: []byte("{")}.Validate(), ErrInvalidPaymentPatch)
	assert.True(t, PaymentPatch{}.Empty())
}

func TestPaymentPatchStatusRules(t *testing.T) {
	for _, target := range []PaymentStatus{PaymentCompleted, PaymentFailed, PaymentRefunded} {
		status := target
		assert.ErrorIs(t, PaymentPatch{Status: &status}.Validate(), ErrInvalidPaymentPatch, string(target))
	}
	for _, target := range []PaymentStatus{PaymentPending, PaymentProcessing, PaymentCancelled} {
		status := target
		assert.NoError(t, PaymentPatch{Status: &status}.Validate(), string(target))
	}

	pending := PaymentPending
	txn := "FORGED"
	note := "checked"
	for _, current := range []PaymentStatus{PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentCancelled} {
		assert.ErrorIs(t, PaymentPatch{Status: &pending}.CheckAgainst(current), ErrPaymentFinalized, string(current))
		assert.ErrorIs(t, PaymentPatch{TransactionID: &txn}.CheckAgainst(current), ErrPaymentFinalized, string(current))
		assert.ErrorIs(t, PaymentPatch{GatewayResponse: []byte(`{}`)}.CheckAgainst(current), ErrPaymentFinalized, string(current))
		assert.NoError(t, PaymentPatch{Note: &note}.CheckAgainst(current), string(current))
	}
	assert.NoError(t, PaymentPatch{Status: &pending, TransactionID: &txn}.CheckAgainst(PaymentProcessing))
}

func TestOutboxBackoff(t *testing.T) {
	assert.Equal(t, 10*time.Second, OutboxBackoff(0))
	assert.Equal(t, 50*time.Second, OutboxBackoff(4))
	assert.Equal(t, EventPaymentCompleted, EventTypeFor(PaymentCompleted))
	assert.Equal(t, EventPaymentFailed, EventTypeFor(PaymentCancelled))
	assert.True(t, PaymentFailed.IsTerminal())
	assert.False(t, PaymentPending.IsTerminal())
	assert.False(t, PaymentProcessing.IsTerminal())
}
