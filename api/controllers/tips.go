package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/api/responses"
	"github.com/stakeline/stakeline-backend/api/validators"
	"github.com/stakeline/stakeline-backend/internal/tip"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/logger"
)

type sendTipRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Asset       string `json:"asset" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Public      bool   `json:"public"`
}

type sendTipView struct {
	Status        string `json:"status"`
	SenderBalance string `json:"sender_balance"`
}

// SendTip transfers funds from the authenticated user to another player.
func SendTip(svc tip.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operationID, err := operationIDFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req sendTipRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipientID, err := uuid.Parse(req.RecipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipient id"))
			return
		}
		asset, err := enums.ParseAsset(strings.ToUpper(strings.TrimSpace(req.Asset)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset"))
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		result, err := svc.Send(r.Context(), tip.SendInput{
			OperationID: operationID,
			SenderID:    senderID,
			RecipientID: recipientID,
			Asset:       asset,
			Amount:      amount,
			Public:      req.Public,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sendTipView{
			Status:        string(result.Status),
			SenderBalance: result.SenderBalance.String(),
		})
	}
}
