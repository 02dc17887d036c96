package controllers

import (
	"context"
	"net/http"

	"github.com/stakeline/stakeline-backend/api/responses"
	"github.com/stakeline/stakeline-backend/api/validators"
	"github.com/stakeline/stakeline-backend/internal/vault"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/logger"
)

type vaultTransferView struct {
	Status        string `json:"status"`
	WalletBalance string `json:"wallet_balance"`
	VaultBalance  string `json:"vault_balance"`
}

// VaultDeposit moves funds out of the spendable wallet into the vault.
func VaultDeposit(svc vault.Service, logg *logger.Logger) http.HandlerFunc {
	return vaultTransfer(svc.Deposit, logg)
}

// VaultWithdraw moves funds from the vault back into the spendable wallet.
func VaultWithdraw(svc vault.Service, logg *logger.Logger) http.HandlerFunc {
	return vaultTransfer(svc.Withdraw, logg)
}

func vaultTransfer(
	move func(ctx context.Context, input vault.TransferInput) (*vault.TransferResult, error),
	logg *logger.Logger,
) http.HandlerFunc {
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

		result, err := move(r.Context(), vault.TransferInput{
			OperationID: operationID,
			UserID:      userID,
			Asset:       asset,
			Amount:      amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vaultTransferView{
			Status:        string(result.Status),
			WalletBalance: result.WalletBalance.String(),
			VaultBalance:  result.VaultBalance.String(),
		})
	}
}

// GetVaultBalance returns the locked vault balance for one asset.
func GetVaultBalance(svc vault.Service, logg *logger.Logger) http.HandlerFunc {
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

// ListVaultHistory returns recent vault transfers for one asset.
func ListVaultHistory(svc vault.Service, logg *logger.Logger) http.HandlerFunc {
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
