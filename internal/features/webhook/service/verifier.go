package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"

	"beamr-points-backend/internal/common/errors"
)

// Verifier authenticates webhook deliveries with a shared HMAC secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the hex HMAC-SHA512 signature over the exact raw body bytes.
// Any re-serialization of the body before this point breaks authentication.
func (v *Verifier) Verify(rawBody []byte, signature string) error {
	if signature == "" {
		return errors.NewUnauthorizedError("missing webhook signature")
	}

	mac := hmac.New(sha512.New, v.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errors.NewUnauthorizedError("invalid webhook signature")
	}

	return nil
}
