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
	"github.com/stakeline/stakeline-backend/pkg/auth"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/logger"
)

// operationRequest is the game-server surface for a single ledger mutation.
type operationRequest struct {
	OperationID string         `json:"operation_id" validate:"required,max=128"`
	Kind        string         `json:"kind" validate:"required"`
	UserID      string         `json:"user_id" validate:"required,uuid"`
	Asset       string         `json:"asset" validate:"required"`
	Amount      string         `json:"amount" validate:"required"`
	Description string         `json:"description,omitempty" validate:"omitempty,max=512"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	HouseEdge   *string        `json:"house_edge,omitempty"`
	Channel     string         `json:"channel,omitempty"`
}

type batchRequest struct {
	Operations []operationRequest `json:"operations" validate:"required,min=1,dive"`
}

func (req operationRequest) toOperation() (wallet.Operation, error) {
	kind, err := enums.ParseOperationKind(strings.ToUpper(strings.TrimSpace(req.Kind)))
	if err != nil {
		return wallet.Operation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid operation kind")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return wallet.Operation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	asset, err := enums.ParseAsset(strings.ToUpper(strings.TrimSpace(req.Asset)))
	if err != nil {
		return wallet.Operation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return wallet.Operation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}

	op := wallet.Operation{
		OperationID: req.OperationID,
		Kind:        kind,
		UserID:      userID,
		Asset:       asset,
		Amount:      amount,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if req.HouseEdge != nil {
		edge, err := decimal.NewFromString(strings.TrimSpace(*req.HouseEdge))
		if err != nil {
			return wallet.Operation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid house edge")
		}
		op.HouseEdge = &edge
	}
	if req.Channel != "" {
		channel, err := enums.ParseGameChannel(strings.ToLower(strings.TrimSpace(req.Channel)))
		if err != nil {
			return wallet.Operation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel")
		}
		op.Channel = channel
	}
	return op, nil
}

// allowedKind gates correction kinds to admins; regular settlement kinds are
// open to any trusted service caller.
func allowedKind(r *http.Request, kind enums.OperationKind) error {
	if !kind.IsCorrection() {
		return nil
	}
	if middleware.RoleFromContext(r.Context()) != string(auth.RoleAdmin) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "corrections require admin role")
	}
	return nil
}

// PerformOperation applies one ledger mutation on behalf of a game server.
func PerformOperation(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req operationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		op, err := req.toOperation()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := allowedKind(r, op.Kind); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOperation(ctx, op.OperationID, string(op.Kind))
		}
		result, err := svc.Perform(ctx, op)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resultView(result))
	}
}

// PerformBatch applies a batch of operations for one user and asset
// atomically.
func PerformBatch(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ops := make([]wallet.Operation, 0, len(req.Operations))
		for _, opReq := range req.Operations {
			op, err := opReq.toOperation()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := allowedKind(r, op.Kind); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ops = append(ops, op)
		}

		results, err := svc.PerformBatch(r.Context(), ops)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]operationResultView, 0, len(results))
		for _, result := range results {
			views = append(views, resultView(result))
		}
		responses.WriteSuccess(w, views)
	}
}
