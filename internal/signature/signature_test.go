package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	message := PaymentMessage("gw_order_1", "gw_pay_1")
	sig := Sign("secret", message)

	assert.True(t, Verify("secret", message, sig))
}

func TestVerifyRejectsTampering(t *testing.T) {
	message := PaymentMessage("gw_order_1", "gw_pay_1")
	sig := Sign("secret", message)

	assert.False(t, Verify("secret", PaymentMessage("gw_order_1", "gw_pay_2"), sig))
	assert.False(t, Verify("other-secret", message, sig))
	assert.False(t, Verify("secret", message, sig[:len(sig)-1]+"0"))
	assert.False(t, Verify("secret", message, ""))
}

func TestPaymentMessageFormat(t *testing.T) {
	assert.Equal(t, []byte("a|b"), PaymentMessage("a", "b"))
}
