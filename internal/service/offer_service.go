package service

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/concurrency"
	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/rules"
)

const (
	defaultWorkers           = 4
	defaultCodeIssueAttempts = 5
)

type Options struct {
	// Workers bounds how many candidate offers are evaluated at once.
	Workers           int
	CodeIssueAttempts int
	Now               func() time.Time
	// GenerateCode overrides code generation, mainly for tests.
	GenerateCode func(prefix string) string
}

// OfferService is the evaluation entry point used by checkout, plus the
// redemption and code issuing operations.
type OfferService struct {
	store    Store
	limiter  *Limiter
	resolver *CodeResolver

	workers      int
	attempts     int
	now          func() time.Time
	generateCode func(prefix string) string
}

func NewOfferService(store Store, opts Options) *OfferService {
	s := &OfferService{
		store:        store,
		limiter:      NewLimiter(store),
		resolver:     NewCodeResolver(store, store, store),
		workers:      opts.Workers,
		attempts:     opts.CodeIssueAttempts,
		now:          opts.Now,
		generateCode: opts.GenerateCode,
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.attempts <= 0 {
		s.attempts = defaultCodeIssueAttempts
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.generateCode == nil {
		s.generateCode = generateCode
	}
	return s
}

type EvaluateRequest struct {
	Cart       models.Cart
	CustomerID string
	Customer   *models.CustomerContext
}

type CodeEvaluateRequest struct {
	Code string
	EvaluateRequest
}

// EvaluateAll returns every auto-apply offer that applies to the cart, in
// catalog order. It writes nothing.
func (s *OfferService) EvaluateAll(ctx context.Context, req EvaluateRequest) ([]models.OfferEvaluation, error) {
	all, err := s.scan(ctx, req)
	if err != nil {
		return nil, err
	}
	applicable := make([]models.OfferEvaluation, 0, len(all))
	for _, ev := range all {
		if ev.Applicable {
			applicable = append(applicable, ev)
		}
	}
	return applicable, nil
}

// Explain evaluates the same candidates as EvaluateAll but keeps the
// inapplicable ones with the reason they do not apply.
func (s *OfferService) Explain(ctx context.Context, req EvaluateRequest) ([]models.OfferEvaluation, error) {
	return s.scan(ctx, req)
}

// PickBest returns the applicable offer with the largest discount, nil when
// none applies. Ties go to higher priority, then to the earliest created.
func (s *OfferService) PickBest(ctx context.Context, req EvaluateRequest) (*models.OfferEvaluation, error) {
	evals, err := s.EvaluateAll(ctx, req)
	if err != nil {
		return nil, err
	}
	var best *models.OfferEvaluation
	for i := range evals {
		if best == nil || better(&evals[i], best) {
			best = &evals[i]
		}
	}
	return best, nil
}

func better(a, b *models.OfferEvaluation) bool {
	if c := a.DiscountAmount.Cmp(b.DiscountAmount); c != 0 {
		return c > 0
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// EvaluateByCode evaluates the single offer behind code. Unlike the bulk
// paths it returns an *OfferError whenever the offer cannot be used.
func (s *OfferService) EvaluateByCode(ctx context.Context, req CodeEvaluateRequest) (*models.OfferEvaluation, error) {
	if err := validateCart(req.Cart); err != nil {
		return nil, err
	}
	now := s.now()
	offer, code, err := s.resolver.Resolve(ctx, req.Code, req.CustomerID, now)
	if err != nil {
		return nil, err
	}

	ok, reason, err := s.limiter.IsWithinLimits(ctx, offer, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(KindOfferUsageExhausted, "%s", reason)
	}

	ev, kind := s.evaluate(offer, req.EvaluateRequest)
	if kind != "" {
		return nil, newError(kind, "%s", ev.Reason)
	}
	ev.Code = code.Code
	return &ev, nil
}

// validateCart rejects lines that would make a cart total or a discount
// negative.
func validateCart(cart models.Cart) error {
	for i, it := range cart.Items {
		if it.Quantity < 1 {
			return newError(KindInvalidRequest, "item %d: quantity must be at least 1", i)
		}
		if it.UnitPrice.IsNegative() {
			return newError(KindInvalidRequest, "item %d: unit_price must not be negative", i)
		}
	}
	return nil
}

// scan evaluates every auto-apply catalog offer. Results keep catalog order
// whatever order the workers finish in.
func (s *OfferService) scan(ctx context.Context, req EvaluateRequest) ([]models.OfferEvaluation, error) {
	if err := validateCart(req.Cart); err != nil {
		return nil, err
	}
	now := s.now()
	offers, err := s.store.ListActiveOffers(ctx, now)
	if err != nil {
		return nil, errors.Wrap(err, "list active offers")
	}

	candidates := make([]*models.Offer, 0, len(offers))
	for i := range offers {
		if offers[i].AutoApply {
			candidates = append(candidates, &offers[i])
		}
	}

	results := make([]models.OfferEvaluation, len(candidates))
	err = concurrency.ForEach(ctx, s.workers, len(candidates), func(ctx context.Context, i int) error {
		offer := candidates[i]
		if !offer.IsLive(now) {
			results[i] = inapplicable(offer, "offer is not currently available")
			return nil
		}
		ok, reason, err := s.limiter.IsWithinLimits(ctx, offer, req.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			results[i] = inapplicable(offer, reason)
			return nil
		}
		results[i], _ = s.evaluate(offer, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// evaluate runs the minimum cart check, the conditions and the rewards for
// one offer. kind is empty when the offer applies.
func (s *OfferService) evaluate(offer *models.Offer, req EvaluateRequest) (models.OfferEvaluation, Kind) {
	total := req.Cart.Total()
	if offer.MinCartAmount != nil && total.LessThan(*offer.MinCartAmount) {
		return inapplicable(offer, "cart total "+total.StringFixed(2)+" is below the minimum of "+offer.MinCartAmount.StringFixed(2)),
			KindMinCartAmountNotMet
	}

	if res := rules.EvaluateConditions(offer.Conditions, req.Cart, req.Customer); !res.Matched {
		return inapplicable(offer, res.Reason), KindConditionNotMet
	}

	reward := rules.Calculate(offer, req.Cart)
	ev := inapplicable(offer, "")
	ev.Applicable = true
	ev.DiscountAmount = reward.DiscountAmount
	ev.FreeProducts = reward.FreeProducts
	ev.FreeShipping = reward.FreeShipping
	return ev, ""
}

func inapplicable(offer *models.Offer, reason string) models.OfferEvaluation {
	return models.OfferEvaluation{
		OfferID:        offer.ID,
		OfferName:      offer.Name,
		Priority:       offer.Priority,
		CreatedAt:      offer.CreatedAt,
		DiscountAmount: decimal.Zero,
		Reason:         reason,
	}
}
