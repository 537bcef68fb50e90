package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPayload(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func signedHeader(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, signPayload(secret, timestamp, payload))
}

func TestProviderSignatureVerifier_Valid(t *testing.T) {
	v := NewProviderSignatureVerifier("whsec_test")
	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader("whsec_test", time.Now().Unix(), payload)

	assert.NoError(t, v.Verify(payload, header))
}

func TestProviderSignatureVerifier_WrongSecret(t *testing.T) {
	v := NewProviderSignatureVerifier("whsec_test")
	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader("whsec_other", time.Now().Unix(), payload)

	assert.Error(t, v.Verify(payload, header))
}

func TestProviderSignatureVerifier_TamperedBody(t *testing.T) {
	v := NewProviderSignatureVerifier("whsec_test")
	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader("whsec_test", time.Now().Unix(), payload)

	tampered := []byte(`{"id":"evt_1","amount":999999}`)
	assert.Error(t, v.Verify(tampered, header))
}

func TestProviderSignatureVerifier_StaleTimestamp(t *testing.T) {
	v := NewProviderSignatureVerifier("whsec_test")
	payload := []byte(`{"id":"evt_1"}`)
	stale := time.Now().Add(-10 * time.Minute).Unix()
	header := signedHeader("whsec_test", stale, payload)

	err := v.Verify(payload, header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tolerance")
}

func TestProviderSignatureVerifier_MalformedHeader(t *testing.T) {
	v := NewProviderSignatureVerifier("whsec_test")
	payload := []byte(`{"id":"evt_1"}`)

	cases := []string{
		"",
		"t=notanumber,v1=abc",
		"v1=abc",
		fmt.Sprintf("t=%d", time.Now().Unix()),
		"garbage",
	}
	for _, header := range cases {
		assert.Error(t, v.Verify(payload, header), "header %q should fail", header)
	}
}

func TestProviderSignatureVerifier_SkipsUnknownSchemes(t *testing.T) {
	v := NewProviderSignatureVerifier("whsec_test")
	payload := []byte(`{"id":"evt_1"}`)
	ts := time.Now().Unix()

	// v0 elements are ignored as long as a valid v1 is present
	header := fmt.Sprintf("t=%d,v0=deadbeef,v1=%s", ts, signPayload("whsec_test", ts, payload))
	assert.NoError(t, v.Verify(payload, header))
}
