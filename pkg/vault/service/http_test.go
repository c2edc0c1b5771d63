package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/vault-ledger/pkg/app/errors"
	"github.com/chainsafe/vault-ledger/pkg/auth"
	"github.com/chainsafe/vault-ledger/pkg/vault"
	"github.com/chainsafe/vault-ledger/pkg/vault/service/mocks"
)

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func newTestServer(t *testing.T, svc Service) (http.Handler, string) {
	t.Helper()
	sessions := auth.NewSessions(testSecret, time.Hour)
	r := chi.NewRouter()
	RegisterRoutes(r, svc, sessions, zap.NewNop())

	token, _, err := sessions.Issue(alice)
	require.NoError(t, err)
	return r, token
}

func do(handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var got errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestHTTP_Login(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().
		Login(mock.Anything, &vault.LoginRequest{Message: "m", Signature: "s"}).
		Return(&vault.LoginResponse{Token: "tok", Address: alice.Hex()}, nil)
	handler, _ := newTestServer(t, svc)

	rec := do(handler, http.MethodPost, "/v1/auth/login", "", `{"message":"m","signature":"s"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got vault.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "tok", got.Token)
}

func TestHTTP_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	svc := mocks.NewService(t)
	handler, token := newTestServer(t, svc)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", "{invalid"},
		{"unknown field", `{"asset":"native","amount":"1","memo":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(handler, http.MethodPost, "/v1/deposits", token, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid request body", decodeError(t, rec).Error)
		})
	}
}

func TestHTTP_SessionRequired(t *testing.T) {
	svc := mocks.NewService(t)
	handler, _ := newTestServer(t, svc)

	paths := []struct{ method, path string }{
		{http.MethodPost, "/v1/deposits"},
		{http.MethodPost, "/v1/withdrawals"},
		{http.MethodGet, "/v1/account"},
		{http.MethodGet, "/v1/history"},
		{http.MethodPost, "/v1/admin/assets"},
		{http.MethodDelete, "/v1/admin/assets/native"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := do(handler, p.method, p.path, "", `{}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = do(handler, p.method, p.path, "not-a-token", `{}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestHTTP_Deposit(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().
		Deposit(mock.Anything, alice, &vault.DepositRequest{Asset: "native", Amount: "10"}).
		Return(&vault.EventResponse{ID: "ev-1", Kind: "deposit", USDValue: "20"}, nil)
	handler, token := newTestServer(t, svc)

	rec := do(handler, http.MethodPost, "/v1/deposits", token, `{"asset":"native","amount":"10"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got vault.EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ev-1", got.ID)
	assert.Equal(t, "20", got.USDValue)
}

func TestHTTP_ServiceErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"conflict", apperrors.ConflictError(vault.ErrInsufficientBalance, "insufficient balance"), http.StatusConflict, "insufficient balance"},
		{"bad request", apperrors.BadRequestError(vault.ErrWithdrawalLimitExceeded, "withdrawal limit exceeded"), http.StatusBadRequest, "withdrawal limit exceeded"},
		{"dependency", apperrors.DependencyError(vault.ErrTransferFailed, "asset transfer failed"), http.StatusBadGateway, "asset transfer failed"},
		{"unexpected", assert.AnError, http.StatusInternalServerError, "Unexpected Service Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewService(t)
			svc.EXPECT().Withdraw(mock.Anything, alice, mock.Anything).Return(nil, tt.err)
			handler, token := newTestServer(t, svc)

			rec := do(handler, http.MethodPost, "/v1/withdrawals", token, `{"asset":"native","amount":"1"}`)
			require.Equal(t, tt.status, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, tt.msg, got.Error)
			assert.Equal(t, tt.status, got.Code)
		})
	}
}

func TestHTTP_History(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().History(mock.Anything, alice, 25).Return([]vault.EventResponse{{ID: "a"}, {ID: "b"}}, nil)
	handler, token := newTestServer(t, svc)

	rec := do(handler, http.MethodGet, "/v1/history?limit=25", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []vault.EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	rec = do(handler, http.MethodGet, "/v1/history?limit=-1", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_PublicReads(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().Totals(mock.Anything).Return(&vault.TotalsResponse{TotalDepositedUSD: "7"}, nil)
	svc.EXPECT().Assets(mock.Anything).Return([]vault.AssetResponse{{Asset: usdc.Hex(), Supported: true}}, nil)
	handler, _ := newTestServer(t, svc)

	rec := do(handler, http.MethodGet, "/v1/totals", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var totals vault.TotalsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &totals))
	assert.Equal(t, "7", totals.TotalDepositedUSD)

	rec = do(handler, http.MethodGet, "/v1/assets", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTP_AdminRoutes(t *testing.T) {
	svc := mocks.NewService(t)
	svc.EXPECT().UnsupportAsset(mock.Anything, alice, usdc.Hex()).Return(nil)
	svc.EXPECT().
		SetAssetFeed(mock.Anything, alice, usdc.Hex(), &vault.SetFeedRequest{Feed: usdcFeed.Hex()}).
		Return(&vault.AssetResponse{Asset: usdc.Hex()}, nil)
	svc.EXPECT().
		SupportAsset(mock.Anything, alice, mock.Anything).
		Return(nil, apperrors.ForbiddenError(vault.ErrUnauthorized, "admin capability required"))
	handler, token := newTestServer(t, svc)

	rec := do(handler, http.MethodDelete, "/v1/admin/assets/"+usdc.Hex(), token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(handler, http.MethodPut, "/v1/admin/assets/"+usdc.Hex()+"/feed", token, `{"feed":"`+usdcFeed.Hex()+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(handler, http.MethodPost, "/v1/admin/assets", token, `{"asset":"`+dai.Hex()+`"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin capability required", decodeError(t, rec).Error)
}
