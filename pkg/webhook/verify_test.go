package webhook

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("medipay-webhook-test-secret"))

func newTestVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, 5*time.Minute)
	require.NoError(t, err)
	return v.WithClock(func() time.Time { return now })
}

func TestVerify(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	v := newTestVerifier(t, now)
	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	sig, err := v.Sign("msg_1", now, payload)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sig, "v1,"))

	ts := strconv.FormatInt(now.Unix(), 10)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.Verify(payload, Headers{ID: "msg_1", Timestamp: ts, Signature: sig}))
	})

	t.Run("one of several signatures", func(t *testing.T) {
		multi := "v1,bm90LXRoZS1zaWduYXR1cmU= " + sig
		assert.NoError(t, v.Verify(payload, Headers{ID: "msg_1", Timestamp: ts, Signature: multi}))
	})

	t.Run("tampered body", func(t *testing.T) {
		err := v.Verify([]byte(`{"type":"user.deleted"}`), Headers{ID: "msg_1", Timestamp: ts, Signature: sig})
		assert.ErrorIs(t, err, ErrNoMatchingSignature)
	})

	t.Run("different id", func(t *testing.T) {
		err := v.Verify(payload, Headers{ID: "msg_2", Timestamp: ts, Signature: sig})
		assert.ErrorIs(t, err, ErrNoMatchingSignature)
	})

	t.Run("missing headers", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify(payload, Headers{ID: "msg_1", Timestamp: ts}), ErrMissingHeaders)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		err := v.Verify(payload, Headers{ID: "msg_1", Timestamp: "yesterday", Signature: sig})
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	})

	t.Run("stale", func(t *testing.T) {
		later := newTestVerifier(t, now.Add(6*time.Minute))
		err := later.Verify(payload, Headers{ID: "msg_1", Timestamp: ts, Signature: sig})
		assert.ErrorIs(t, err, ErrTimestampOutOfRange)
	})

	t.Run("unknown version ignored", func(t *testing.T) {
		err := v.Verify(payload, Headers{ID: "msg_1", Timestamp: ts, Signature: "v2," + sig[3:]})
		assert.ErrorIs(t, err, ErrNoMatchingSignature)
	})
}

func TestNewVerifierRejectsBadSecret(t *testing.T) {
	for _, secret := range []string{"whsec_***", "whsec_", ""} {
		_, err := NewVerifier(secret, time.Minute)
		assert.ErrorIs(t, err, ErrInvalidSecret, secret)
	}
}

func TestVerifyAcceptsUnprefixedSecret(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	payload := []byte(`{"type":"user.deleted","data":{"id":"user_1"}}`)

	signer := newTestVerifier(t, now)
	sig, err := signer.Sign("msg_9", now, payload)
	require.NoError(t, err)

	bare, err := NewVerifier(strings.TrimPrefix(testSecret, "whsec_"), 0)
	require.NoError(t, err)
	bare.WithClock(func() time.Time { return now })

	assert.NoError(t, bare.Verify(payload, Headers{ID: "msg_9", Timestamp: strconv.FormatInt(now.Unix(), 10), Signature: sig}))
}
