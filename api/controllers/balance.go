package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/api/middleware"
	"github.com/stakeline/stakeline-backend/api/responses"
	"github.com/stakeline/stakeline-backend/api/validators"
	"github.com/stakeline/stakeline-backend/internal/wallet"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type walletView struct {
	Asset     enums.Asset `json:"asset"`
	Balance   string      `json:"balance"`
	IsPrimary bool        `json:"is_primary"`
}

type operationResultView struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Balance string `json:"balance"`
	Error   string `json:"error,omitempty"`
}

func resultView(result wallet.Result) operationResultView {
	return operationResultView{
		Success: result.Success,
		Status:  string(result.Status),
		Balance: result.Balance.String(),
		Error:   result.Error,
	}
}

// authedUser pulls the authenticated user id from the request context.
func authedUser(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return userID, nil
}

func assetParam(r *http.Request) (enums.Asset, error) {
	raw := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "asset")))
	return enums.ParseAsset(raw)
}

// operationIDFromHeader reads the client idempotency key reused as the
// ledger operation id on player-initiated money movement.
func operationIDFromHeader(r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
	}
	return key, nil
}

// ListWallets returns every wallet of the authenticated user.
func ListWallets(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallets, err := svc.GetWallets(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]walletView, 0, len(wallets))
		for _, row := range wallets {
			views = append(views, walletView{
				Asset:     row.Asset,
				Balance:   row.Balance.String(),
				IsPrimary: row.IsPrimary,
			})
		}
		responses.WriteSuccess(w, views)
	}
}

// GetBalance returns the spendable balance for one asset.
func GetBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		asset, err := assetParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset"))
			return
		}

		balance, err := svc.GetBalance(r.Context(), userID, asset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"asset":   string(asset),
			"balance": balance.String(),
		})
	}
}

// ListBalanceHistory returns recent ledger entries for one asset.
func ListBalanceHistory(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		asset, err := assetParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListHistory(r.Context(), userID, asset, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

type moveFundsRequest struct {
	Asset  string `json:"asset" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

func (req moveFundsRequest) parse() (enums.Asset, decimal.Decimal, error) {
	asset, err := enums.ParseAsset(strings.ToUpper(strings.TrimSpace(req.Asset)))
	if err != nil {
		return "", decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return "", decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}
	return asset, amount, nil
}

// Deposit credits the authenticated user's wallet.
func Deposit(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return moveFunds(svc, logg, enums.OperationDeposit)
}

// Withdraw debits the authenticated user's wallet, subject to daily limits.
func Withdraw(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return moveFunds(svc, logg, enums.OperationWithdraw)
}

func moveFunds(svc wallet.Service, logg *logger.Logger, kind enums.OperationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operationID, err := operationIDFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req moveFundsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		asset, amount, err := req.parse()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Perform(r.Context(), wallet.Operation{
			OperationID: operationID,
			Kind:        kind,
			UserID:      userID,
			Asset:       asset,
			Amount:      amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resultView(result))
	}
}

type switchPrimaryRequest struct {
	Asset string `json:"asset" validate:"required"`
}

// SwitchPrimary changes which wallet is the user's primary.
func SwitchPrimary(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req switchPrimaryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		asset, err := enums.ParseAsset(strings.ToUpper(strings.TrimSpace(req.Asset)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset"))
			return
		}

		switched, err := svc.SwitchPrimaryWallet(r.Context(), userID, asset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, walletView{
			Asset:     switched.Asset,
			Balance:   switched.Balance.String(),
			IsPrimary: switched.IsPrimary,
		})
	}
}

// GetStatistics returns the user's lifetime gambling aggregates.
func GetStatistics(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		statistics, err := svc.GetStatistics(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statistics)
	}
}
