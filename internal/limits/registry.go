// Package limits owns spending limits: resolution of the current limit per
// (account, category), redefinition under the cooldown policy, and the
// remainder bookkeeping the transaction protocol relies on.
package limits

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bank-limits/internal/models"
	"bank-limits/internal/store"
)

// CooldownMonths is how many calendar months must pass, at day granularity,
// between two redefinitions of the same limit.
const CooldownMonths = 1

// Registry is the limit service.
type Registry struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewRegistry builds a Registry over the given store.
func NewRegistry(s store.Store, log zerolog.Logger) *Registry {
	return &Registry{store: s, log: log, now: time.Now}
}

// Current returns the active limit for the pair, or an error wrapping
// models.ErrNotFound.
func (r *Registry) Current(ctx context.Context, accountID int64, category models.Category) (*models.Limit, error) {
	return r.store.Limits().Current(ctx, accountID, category)
}

// Define redefines the current limit for (accountID, category) to newSum.
//
// Redefinition adjusts the remainder by the delta between new and old sum
// rather than resetting it, so whatever has already been spent stays spent.
// First-time creation is an external provisioning concern: a missing
// current limit is ErrNotFound, not an implicit insert. A redefinition
// attempted before the cooldown elapses is ErrUpdateNotAllowed — a policy
// rejection, not bad input, because the identical request succeeds later.
func (r *Registry) Define(ctx context.Context, accountID int64, category models.Category, newSum decimal.Decimal) (*models.Limit, error) {
	if !newSum.IsPositive() {
		return nil, fmt.Errorf("%w: limit must be greater than zero", models.ErrInvalid)
	}

	var updated *models.Limit
	err := r.store.WithinTx(ctx, func(tx store.Store) error {
		current, err := tx.Limits().Current(ctx, accountID, category)
		if err != nil {
			return err
		}

		now := r.now()
		if monthsBetween(current.LastUpdated, now) < CooldownMonths {
			r.log.Warn().
				Int64("account_id", accountID).
				Str("category", string(category)).
				Time("last_updated", current.LastUpdated).
				Msg("limit redefinition attempted inside cooldown")
			return fmt.Errorf("%w: limit can be redefined once per %d month(s), last update was %s",
				models.ErrUpdateNotAllowed, CooldownMonths, current.LastUpdated.Format(time.DateOnly))
		}

		if current.Remainder == nil {
			return fmt.Errorf("%w: remainder unset on limit %d", models.ErrDataIntegrity, current.ID)
		}

		remainder := current.Remainder.Add(newSum.Sub(current.Sum))
		current.Sum = newSum
		current.Remainder = &remainder
		current.Currency = models.ReferenceCurrency
		current.LastUpdated = now

		if err := tx.Limits().Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Int64("limit_id", updated.ID).
		Str("sum", updated.Sum.String()).
		Str("remainder", updated.Remainder.String()).
		Msg("limit redefined")
	return updated, nil
}

// ListByAccount returns summaries of all limits belonging to accountID.
func (r *Registry) ListByAccount(ctx context.Context, accountID int64) ([]models.LimitSummary, error) {
	ls, err := r.store.Limits().ByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return r.summarize(ctx, ls)
}

// ListAll returns summaries of every limit in the registry.
func (r *Registry) ListAll(ctx context.Context) ([]models.LimitSummary, error) {
	ls, err := r.store.Limits().All(ctx)
	if err != nil {
		return nil, err
	}
	return r.summarize(ctx, ls)
}

// summarize resolves each limit's owning account. A limit whose account
// cannot be resolved is corrupted state and surfaces as ErrDataIntegrity
// instead of being silently skipped.
func (r *Registry) summarize(ctx context.Context, ls []*models.Limit) ([]models.LimitSummary, error) {
	out := make([]models.LimitSummary, 0, len(ls))
	for _, l := range ls {
		if _, err := r.store.Accounts().Get(ctx, l.AccountID); err != nil {
			r.log.Error().
				Err(err).
				Int64("limit_id", l.ID).
				Int64("account_id", l.AccountID).
				Msg("limit references unresolvable account")
			return nil, fmt.Errorf("%w: limit %d references missing account %d",
				models.ErrDataIntegrity, l.ID, l.AccountID)
		}
		if l.Remainder == nil {
			return nil, fmt.Errorf("%w: remainder unset on limit %d", models.ErrDataIntegrity, l.ID)
		}
		out = append(out, models.LimitSummary{
			AccountID:   l.AccountID,
			Category:    l.Category,
			Sum:         l.Sum,
			Remainder:   *l.Remainder,
			Currency:    l.Currency,
			LastUpdated: l.LastUpdated,
		})
	}
	return out, nil
}

// Decrement subtracts amount (already in the limit's currency) from the
// limit's remainder and persists it through repo. The remainder may go
// negative: breaches are recorded, never blocked. A nil remainder on a
// stored limit should be impossible and is reported as ErrDataIntegrity.
//
// Decrement takes the repository so the transaction protocol can run it
// inside its own unit of work.
func Decrement(ctx context.Context, repo store.LimitRepository, limit *models.Limit, amount decimal.Decimal) error {
	if limit.Remainder == nil {
		return fmt.Errorf("%w: remainder unset on limit %d", models.ErrDataIntegrity, limit.ID)
	}
	remainder := limit.Remainder.Sub(amount)
	limit.Remainder = &remainder
	return repo.Update(ctx, limit)
}

// monthsBetween counts whole calendar months from a to b at day
// granularity; time of day is ignored. Negative when b precedes a.
func monthsBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	months := (by-ay)*12 + int(bm) - int(am)
	if bd < ad {
		months--
	}
	return months
}
