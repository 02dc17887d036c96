package limits

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
)

type checker struct {
	policy  PolicySource
	stats   GamblingStats
	history WithdrawHistory
	daily   map[enums.Asset]decimal.Decimal
	now     func() time.Time
}

// NewChecker wires limit enforcement. dailyLimits maps each asset to its
// configured daily withdrawal cap; assets missing from the map are
// uncapped.
func NewChecker(policy PolicySource, stats GamblingStats, history WithdrawHistory, dailyLimits map[enums.Asset]decimal.Decimal) (Checker, error) {
	if policy == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "policy source required")
	}
	if stats == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gambling stats source required")
	}
	if history == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "withdraw history required")
	}
	return &checker{
		policy:  policy,
		stats:   stats,
		history: history,
		daily:   dailyLimits,
		now:     time.Now,
	}, nil
}

// WithHistory rebinds the withdrawal-history source, keeping every other
// collaborator. Passing nil keeps the current source.
func (c *checker) WithHistory(history WithdrawHistory) Checker {
	if history == nil {
		return c
	}
	clone := *c
	clone.history = history
	return &clone
}

// CheckBet enforces self-exclusion, wager-limit and loss-limit restrictions
// against the bet's fiat value.
func (c *checker) CheckBet(ctx context.Context, userID uuid.UUID, amountFiatCents int64) error {
	restrictions, err := c.policy.ActiveRestrictions(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch restrictions")
	}

	now := c.now().UTC()
	for _, restriction := range restrictions {
		switch restriction.Type {
		case enums.RestrictionSelfExclusion:
			return pkgerrors.New(pkgerrors.CodeLimitExceeded, "betting is currently restricted for this account")

		case enums.RestrictionWagerLimit:
			from := windowStart(now, restriction.PeriodDays)
			wagered, err := c.stats.TotalWagered(ctx, userID, from, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch wagered total")
			}
			if wagered+amountFiatCents > restriction.LimitFiatCents {
				return pkgerrors.New(pkgerrors.CodeLimitExceeded, "wager limit reached")
			}

		case enums.RestrictionLossLimit:
			from := windowStart(now, restriction.PeriodDays)
			lost, err := c.stats.TotalLost(ctx, userID, from, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch loss total")
			}
			if lost >= restriction.LimitFiatCents {
				return pkgerrors.New(pkgerrors.CodeLimitExceeded, "loss limit reached")
			}
		}
	}
	return nil
}

// CheckWithdraw enforces the per-asset daily withdrawal cap by summing the
// ledger's own WITHDRAW history for the current UTC day.
func (c *checker) CheckWithdraw(ctx context.Context, userID uuid.UUID, asset enums.Asset, amount decimal.Decimal) error {
	limit, capped := c.daily[asset]
	if !capped {
		return nil
	}

	now := c.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	withdrawn, err := c.history.WithdrawnSince(ctx, userID, asset, dayStart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum withdrawals")
	}
	if withdrawn.Add(amount.Abs()).GreaterThan(limit) {
		return pkgerrors.New(pkgerrors.CodeLimitExceeded, "daily withdrawal limit reached")
	}
	return nil
}

func windowStart(now time.Time, periodDays int) time.Time {
	if periodDays <= 0 {
		periodDays = 1
	}
	return now.AddDate(0, 0, -periodDays)
}
