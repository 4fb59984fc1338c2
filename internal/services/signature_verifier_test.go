package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureVerifier(t *testing.T) {
	verifier := NewSignatureVerifier("whsec_test")
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","amount":100000}}}}`)
	signature := verifier.Sign(body)

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, verifier.Verify(body, signature))
		assert.NoError(t, verifier.Verify(body, strings.ToUpper(signature)))
	})

	t.Run("Missing header", func(t *testing.T) {
		assert.ErrorIs(t, verifier.Verify(body, ""), ErrUnauthenticated)
		assert.ErrorIs(t, verifier.Verify(body, "   "), ErrUnauthenticated)
	})

	t.Run("Tampered body", func(t *testing.T) {
		tampered := []byte(strings.Replace(string(body), "100000", "1", 1))
		assert.ErrorIs(t, verifier.Verify(tampered, signature), ErrUnauthenticated)
	})

	t.Run("Reformatted body", func(t *testing.T) {
		spaced := []byte(strings.Replace(string(body), ",", ", ", -1))
		assert.ErrorIs(t, verifier.Verify(spaced, signature), ErrUnauthenticated)
	})

	t.Run("Different secret", func(t *testing.T) {
		other := NewSignatureVerifier("whsec_other")
		assert.ErrorIs(t, other.Verify(body, signature), ErrUnauthenticated)
	})

	t.Run("Not hex", func(t *testing.T) {
		assert.ErrorIs(t, verifier.Verify(body, "zz-not-hex"), ErrUnauthenticated)
	})

	t.Run("Known vector", func(t *testing.T) {
		// echo -n 'hello' | openssl dgst -sha256 -hmac 'key'
		v := NewSignatureVerifier("key")
		assert.Equal(t, "9307b3b915efb5171ff14d8cb55fbcc798c6c0ef1456d66ded1a6aa723a58b7b", v.Sign([]byte("hello")))
	})
}

func TestClassifyEvent(t *testing.T) {
	cases := map[string]EventAction{
		"payment.captured":   ActionCapture,
		"payment.authorized": ActionAcknowledge,
		"payment.failed":     ActionFailure,
		"order.paid":         ActionOrderPaid,
		"refund.processed":   ActionRefundSettled,
		"refund.failed":      ActionRefundFailed,
		"payment.dispute":    ActionIgnore,
		"":                   ActionIgnore,
	}

	for name, want := range cases {
		assert.Equal(t, want, ClassifyEvent(name), name)
	}
	assert.Equal(t, "capture", ActionCapture.String())
	assert.Equal(t, "ignore", ActionIgnore.String())
}
