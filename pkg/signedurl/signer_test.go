package signedurl

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignerSignAndVerify(t *testing.T) {
	signer := New("secret", time.Hour)
	expires, signature, err := signer.Sign("person/12")
	require.NoError(t, err)
	require.NotEmpty(t, signature)

	require.NoError(t, signer.Verify("person/12", strconv.FormatInt(expires, 10), signature))
	require.Error(t, signer.Verify("person/13", strconv.FormatInt(expires, 10), signature))
	require.Error(t, signer.Verify("person/12", "abc", signature))
}

func TestSignerExpired(t *testing.T) {
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	signer := New("secret", time.Minute).WithClock(func() time.Time { return now })
	expires, signature, err := signer.Sign("teacher/3")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	require.EqualError(t, signer.Verify("teacher/3", strconv.FormatInt(expires, 10), signature), "signature expired")
}

func TestSignerRequiresSecret(t *testing.T) {
	_, _, err := New("", time.Hour).Sign("person/1")
	require.Error(t, err)
}
