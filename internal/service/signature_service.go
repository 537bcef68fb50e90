package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance bounds how old a signed timestamp may be. Replays of a
// captured header outside this window fail verification even with a valid MAC.
const signatureTolerance = 5 * time.Minute

// ProviderSignatureVerifier implements ports.EventVerifier for the payment
// provider's webhook scheme: a header of the form
//
//	t=<unix seconds>,v1=<hex hmac-sha256>
//
// where the MAC covers "<t>.<raw body>" with the shared webhook secret.
type ProviderSignatureVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewProviderSignatureVerifier creates a verifier bound to the shared secret.
func NewProviderSignatureVerifier(secret string) *ProviderSignatureVerifier {
	return &ProviderSignatureVerifier{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Verify validates the signature header against the raw request body.
func (v *ProviderSignatureVerifier) Verify(payload []byte, signatureHeader string) error {
	timestamp, sig, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance: %s", age)
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// parseSignatureHeader splits "t=...,v1=..." into its parts. Unknown schemes
// (v0, future v2) are skipped so the provider can rotate schemes.
func parseSignatureHeader(header string) (timestamp int64, sig string, err error) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("invalid signature timestamp %q", value)
			}
		case "v1":
			sig = value
		}
	}
	if timestamp == 0 || sig == "" {
		return 0, "", fmt.Errorf("signature header missing t or v1 element")
	}
	return timestamp, sig, nil
}
