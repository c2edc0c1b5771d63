package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPersonal(t *testing.T, message string) (common.Address, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(personalHash(message), key)
	require.NoError(t, err)
	sig[64] += 27 // wallets return v as 27/28
	return crypto.PubkeyToAddress(key.PublicKey), hexutil.Encode(sig)
}

func TestVerifyEIP191Signature(t *testing.T) {
	signer, sig := signPersonal(t, "hello vault")

	got, err := VerifyEIP191Signature("hello vault", sig)
	require.NoError(t, err)
	assert.Equal(t, signer, got)

	other, err := VerifyEIP191Signature("hello vaulT", sig)
	require.NoError(t, err)
	assert.NotEqual(t, signer, other, "a different message recovers a different key")

	_, err = VerifyEIP191Signature("hello vault", "0xzz")
	assert.Error(t, err)
	_, err = VerifyEIP191Signature("hello vault", "0x1234")
	assert.ErrorContains(t, err, "invalid signature length")
}

func TestVerifyLogin(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := LoginMessage(now.Add(-time.Minute))
	signer, sig := signPersonal(t, msg)

	got, err := VerifyLogin(msg, sig, now, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, signer, got)

	_, err = VerifyLogin(msg, sig, now.Add(time.Hour), 5*time.Minute)
	assert.ErrorIs(t, err, ErrStaleLogin)

	_, err = VerifyLogin("sign me", sig, now, 5*time.Minute)
	assert.Error(t, err)
	_, err = VerifyLogin(loginPrefix+"soon", sig, now, 5*time.Minute)
	assert.Error(t, err)
}

func TestSessions_IssueAndValidate(t *testing.T) {
	caller := common.HexToAddress("0xa11ce")
	s := NewSessions("0123456789abcdef0123456789abcdef", time.Hour)

	token, exp, err := s.Issue(caller)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	got, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, caller, got)

	_, err = NewSessions("another-secret-another-secret-xx", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestSessions_Middleware(t *testing.T) {
	caller := common.HexToAddress("0xa11ce")
	s := NewSessions("0123456789abcdef0123456789abcdef", time.Hour)
	token, _, err := s.Issue(caller)
	require.NoError(t, err)

	var seen common.Address
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/balances", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, caller, seen)
}

func TestStaticAdmins(t *testing.T) {
	ctx := context.Background()
	a := common.HexToAddress("0xad")
	g := NewStaticAdmins(a)

	assert.True(t, g.HasAdminCapability(ctx, a))
	g.Revoke(a)
	assert.False(t, g.HasAdminCapability(ctx, a))
	g.Grant(a)
	assert.True(t, g.HasAdminCapability(ctx, a))

	_, ok := CallerFromContext(ctx)
	assert.False(t, ok)
	got, ok := CallerFromContext(WithCaller(ctx, a))
	require.True(t, ok)
	assert.Equal(t, a, got)
}
