package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

func TestPickBestChoosesLargestDiscount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	a := store.AddOffer(liveOffer("10% off", 1, percentReward(t, "10")))
	b := liveOffer("150 off", 1, flatReward(t, "150"))
	b.MinCartAmount = decPtr("900")
	bID := store.AddOffer(b)

	evals, err := svc.EvaluateAll(ctx, EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	require.Len(t, evals, 2)

	byID := map[int64]models.OfferEvaluation{}
	for _, ev := range evals {
		assert.True(t, ev.Applicable)
		byID[ev.OfferID] = ev
	}
	assert.Equal(t, "100.00", byID[a].DiscountAmount.StringFixed(2))
	assert.Equal(t, "150.00", byID[bID].DiscountAmount.StringFixed(2))

	best, err := svc.PickBest(ctx, EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, bID, best.OfferID)
}

func TestPickBestTieBreaks(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	low := liveOffer("low priority", 1, flatReward(t, "50"))
	store.AddOffer(low)
	high := liveOffer("high priority", 5, flatReward(t, "50"))
	highID := store.AddOffer(high)

	best, err := svc.PickBest(ctx, EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	assert.Equal(t, highID, best.OfferID)

	// same discount and priority: earliest created wins
	older := liveOffer("older", 5, flatReward(t, "50"))
	older.CreatedAt = testNow.Add(-72 * time.Hour)
	olderID := store.AddOffer(older)

	best, err = svc.PickBest(ctx, EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	assert.Equal(t, olderID, best.OfferID)

	// a strictly greater discount beats priority
	bigger := liveOffer("bigger", 0, flatReward(t, "50.01"))
	biggerID := store.AddOffer(bigger)

	best, err = svc.PickBest(ctx, EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	assert.Equal(t, biggerID, best.OfferID)
}

func TestPickBestNoneApplies(t *testing.T) {
	svc, store := newTestService(t)

	o := liveOffer("big spenders", 1, percentReward(t, "10"))
	o.MinCartAmount = decPtr("5000")
	store.AddOffer(o)

	best, err := svc.PickBest(context.Background(), EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestMinCartAmountNeverApplicableBelowMinimum(t *testing.T) {
	svc, store := newTestService(t)
	o := liveOffer("min 900", 1, flatReward(t, "10"))
	o.MinCartAmount = decPtr("900")
	store.AddOffer(o)

	for _, price := range []string{"0.01", "100", "449.99", "899.99"} {
		cart := models.Cart{Items: []models.CartItem{{ProductID: "1", Quantity: 1, UnitPrice: dec(price)}}}
		evals, err := svc.EvaluateAll(context.Background(), EvaluateRequest{Cart: cart})
		require.NoError(t, err)
		assert.Empty(t, evals, "cart of %s", price)
	}
}

func TestExplainReportsReasons(t *testing.T) {
	svc, store := newTestService(t)

	minCart := liveOffer("min cart", 3, flatReward(t, "10"))
	minCart.MinCartAmount = decPtr("2000")
	store.AddOffer(minCart)

	books := liveOffer("books only", 2, percentReward(t, "5"))
	books.Conditions = []models.Condition{condition(t, models.CondCategory, "", `{"category_id":"books"}`)}
	store.AddOffer(books)

	exhausted := liveOffer("sold out", 1, flatReward(t, "10"))
	exhausted.MaxUsageTotal = intPtr(3)
	exhausted.CurrentUsage = 3
	store.AddOffer(exhausted)

	evals, err := svc.Explain(context.Background(), EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	require.Len(t, evals, 3)

	assert.Equal(t, "min cart", evals[0].OfferName)
	assert.Equal(t, "cart total 1000.00 is below the minimum of 2000.00", evals[0].Reason)
	assert.Equal(t, "cart has no item in category books", evals[1].Reason)
	assert.Equal(t, "offer usage limit reached", evals[2].Reason)
	for _, ev := range evals {
		assert.False(t, ev.Applicable)
		assert.True(t, ev.DiscountAmount.IsZero())
	}

	applicable, err := svc.EvaluateAll(context.Background(), EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	assert.Empty(t, applicable)
}

func TestEvaluateAllFiltersPerCustomerLimit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	o := liveOffer("once per customer", 1, percentReward(t, "10"))
	o.MaxUsagePerUser = intPtr(1)
	id := store.AddOffer(o)

	_, err := svc.RecordUsage(ctx, RecordUsageRequest{OfferID: id, CustomerID: "alice", OrderID: "o-1", DiscountAmount: dec("100")})
	require.NoError(t, err)

	evals, err := svc.EvaluateAll(ctx, EvaluateRequest{Cart: exampleCart(), CustomerID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, evals)

	evals, err = svc.EvaluateAll(ctx, EvaluateRequest{Cart: exampleCart(), CustomerID: "bob"})
	require.NoError(t, err)
	assert.Len(t, evals, 1)
}

func TestEvaluateAllSkipsCodeOnlyAndOutOfWindowOffers(t *testing.T) {
	svc, store := newTestService(t)

	codeOnly := liveOffer("code only", 1, flatReward(t, "10"))
	codeOnly.AutoApply = false
	store.AddOffer(codeOnly)

	expired := liveOffer("expired", 1, flatReward(t, "10"))
	expired.EndTime = testNow.Add(-time.Hour)
	store.AddOffer(expired)

	inactive := liveOffer("inactive", 1, flatReward(t, "10"))
	inactive.Status = models.StatusInactive
	store.AddOffer(inactive)

	evals, err := svc.Explain(context.Background(), EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	assert.Empty(t, evals)
}

func TestEvaluateAllIsDeterministicAndSideEffectFree(t *testing.T) {
	svc, store := newTestService(t)
	for i := 0; i < 8; i++ {
		o := liveOffer("offer", i%3, percentReward(t, "5"), flatReward(t, "3"))
		o.CreatedAt = testNow.Add(-time.Duration(i) * time.Hour)
		store.AddOffer(o)
	}
	req := EvaluateRequest{Cart: exampleCart(), CustomerID: "alice", Customer: &models.CustomerContext{TotalOrders: intPtr(2)}}

	first, err := svc.EvaluateAll(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first, 8)
	for i := 0; i < 5; i++ {
		again, err := svc.EvaluateAll(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.Equal(t, 0, store.UsageCount())
	for _, ev := range first {
		o, err := store.GetOfferByID(context.Background(), ev.OfferID)
		require.NoError(t, err)
		assert.Equal(t, 0, o.CurrentUsage)
	}
}

func TestEvaluateAllCapsCombinedRewards(t *testing.T) {
	svc, store := newTestService(t)
	o := liveOffer("capped", 1, percentReward(t, "10"), percentReward(t, "10"))
	o.MaxDiscountAmount = decPtr("80")
	store.AddOffer(o)

	best, err := svc.PickBest(context.Background(), EvaluateRequest{Cart: exampleCart()})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "80.00", best.DiscountAmount.StringFixed(2))
}

func TestEvaluationRejectsInvalidCarts(t *testing.T) {
	svc, store := newTestService(t)
	id := store.AddOffer(liveOffer("ten", 1, percentReward(t, "10")))
	addCode(t, store, models.OfferCode{Code: "TEN", OfferID: id})

	carts := map[string]models.Cart{
		"negative quantity": {Items: []models.CartItem{{ProductID: "1", Quantity: -3, UnitPrice: dec("100")}}},
		"zero quantity":     {Items: []models.CartItem{{ProductID: "1", Quantity: 0, UnitPrice: dec("100")}}},
		"negative price":    {Items: []models.CartItem{{ProductID: "1", Quantity: 1, UnitPrice: dec("-100")}}},
	}
	ctx := context.Background()
	for name, cart := range carts {
		t.Run(name, func(t *testing.T) {
			req := EvaluateRequest{Cart: cart}

			_, err := svc.EvaluateAll(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidRequest)

			_, err = svc.Explain(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidRequest)

			_, err = svc.PickBest(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidRequest)

			_, err = svc.EvaluateByCode(ctx, CodeEvaluateRequest{Code: "TEN", EvaluateRequest: req})
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}
