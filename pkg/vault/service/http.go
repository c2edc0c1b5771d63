package service

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/vault-ledger/pkg/app/errors"
	apphttp "github.com/chainsafe/vault-ledger/pkg/app/http"
	"github.com/chainsafe/vault-ledger/pkg/auth"
	"github.com/chainsafe/vault-ledger/pkg/vault"
)

// HTTP exposes the Service over chi routes
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes mounts the vault API on r. Everything except login, totals
// and the asset list requires a session token issued by sessions.
func RegisterRoutes(r chi.Router, service Service, sessions *auth.Sessions, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/v1/auth/login", apphttp.HandleError(h.login))
	r.Get("/v1/totals", apphttp.HandleError(h.totals))
	r.Get("/v1/assets", apphttp.HandleError(h.assets))

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Post("/v1/deposits", apphttp.HandleError(h.deposit))
		r.Post("/v1/withdrawals", apphttp.HandleError(h.withdraw))
		r.Get("/v1/account", apphttp.HandleError(h.account))
		r.Get("/v1/history", apphttp.HandleError(h.history))

		r.Post("/v1/admin/assets", apphttp.HandleError(h.supportAsset))
		r.Delete("/v1/admin/assets/{asset}", apphttp.HandleError(h.unsupportAsset))
		r.Put("/v1/admin/assets/{asset}/feed", apphttp.HandleError(h.setAssetFeed))
	})
}

func callerOf(r *http.Request) (common.Address, error) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return common.Address{}, apperrors.UnAuthorizedError(nil, "session required")
	}
	return caller, nil
}

func (h *HTTP) login(w http.ResponseWriter, r *http.Request) error {
	var req vault.LoginRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) deposit(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}
	var req vault.DepositRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Deposit(r.Context(), caller, &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusCreated, resp)
}

func (h *HTTP) withdraw(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}
	var req vault.WithdrawRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Withdraw(r.Context(), caller, &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusCreated, resp)
}

func (h *HTTP) account(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}
	resp, err := h.service.Account(r.Context(), caller)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) history(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return apperrors.BadRequestError(err, "limit must be a positive integer")
		}
	}
	resp, err := h.service.History(r.Context(), caller, limit)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) totals(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.service.Totals(r.Context())
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) assets(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.service.Assets(r.Context())
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) supportAsset(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}
	var req vault.SupportAssetRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.service.SupportAsset(r.Context(), caller, &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) unsupportAsset(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}
	if err := h.service.UnsupportAsset(r.Context(), caller, chi.URLParam(r, "asset")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *HTTP) setAssetFeed(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerOf(r)
	if err != nil {
		return err
	}
	var req vault.SetFeedRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.service.SetAssetFeed(r.Context(), caller, chi.URLParam(r, "asset"), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}
