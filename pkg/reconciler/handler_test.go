package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandler_ServesLastResult(t *testing.T) {
	v, _ := newLedger(t)
	r := New(v, nil, zap.NewNop())
	h := NewHandler(r, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/audit", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := r.ReconcileAll(context.Background())
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/audit", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Healthy)
	assert.Equal(t, "1100000000", got.RecordedUSD)
	assert.Equal(t, "0", got.DriftUSD)
	assert.Equal(t, "1100000000", got.MarketValueUSD)
	assert.Empty(t, got.PersistedDriftUSD)
	assert.Equal(t, 1, got.Accounts)
	assert.Equal(t, 2, got.Holdings)
}

func TestHandler_ReportsRevalueFailure(t *testing.T) {
	v, feed := newLedger(t)
	r := New(v, nil, zap.NewNop())
	h := NewHandler(r, zap.NewNop())

	feed.Fail(ethFeed, errors.New("rpc down"))
	_, err := r.ReconcileAll(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/audit", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Healthy)
	assert.Equal(t, "0", got.DriftUSD)
	assert.Empty(t, got.MarketValueUSD)
	assert.Contains(t, got.RevalueError, "rpc down")
}

func TestHandler_RejectsOtherMethods(t *testing.T) {
	v, _ := newLedger(t)
	h := NewHandler(New(v, nil, zap.NewNop()), zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/audit", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
