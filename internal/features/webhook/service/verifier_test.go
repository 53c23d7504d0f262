package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v := NewVerifier("topsecret")
	body := []byte(`{"type":"follow.created"}`)

	sig := sign("topsecret", body)
	require.NoError(t, v.Verify(body, sig))

	// Replays of the same authentic pair keep verifying.
	require.NoError(t, v.Verify(body, sig))
}

func TestVerifyRejectsMutatedBody(t *testing.T) {
	v := NewVerifier("topsecret")
	body := []byte(`{"type":"follow.created"}`)
	sig := sign("topsecret", body)

	mutated := append([]byte{}, body...)
	mutated[0] ^= 0x01
	assert.Error(t, v.Verify(mutated, sig))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewVerifier("topsecret")
	body := []byte(`{}`)
	assert.Error(t, v.Verify(body, sign("othersecret", body)))
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	v := NewVerifier("topsecret")
	assert.Error(t, v.Verify([]byte(`{}`), ""))
}
