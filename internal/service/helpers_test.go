package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/repository/memory"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*OfferService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewOfferService(store, Options{
		Workers: 3,
		Now:     func() time.Time { return testNow },
	})
	return svc, store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func percentReward(t *testing.T, p string) models.Reward {
	t.Helper()
	r, err := models.DecodeReward(1, models.RewardPercent, []byte(fmt.Sprintf(`{"percent":%q}`, p)), 0)
	require.NoError(t, err)
	return r
}

func flatReward(t *testing.T, a string) models.Reward {
	t.Helper()
	r, err := models.DecodeReward(2, models.RewardFlat, []byte(fmt.Sprintf(`{"amount":%q}`, a)), 0)
	require.NoError(t, err)
	return r
}

func condition(t *testing.T, typ models.ConditionType, op models.Operator, raw string) models.Condition {
	t.Helper()
	c, err := models.DecodeCondition(1, typ, op, []byte(raw))
	require.NoError(t, err)
	return c
}

// liveOffer is an active auto-apply offer whose window contains testNow.
func liveOffer(name string, priority int, rewards ...models.Reward) models.Offer {
	return models.Offer{
		Name:      name,
		Type:      models.OfferPercentage,
		Status:    models.StatusActive,
		StartTime: testNow.Add(-24 * time.Hour),
		EndTime:   testNow.Add(24 * time.Hour),
		Priority:  priority,
		AutoApply: true,
		CreatedAt: testNow.Add(-48 * time.Hour),
		Rewards:   rewards,
	}
}

// exampleCart totals 1000.
func exampleCart() models.Cart {
	return models.Cart{Items: []models.CartItem{{ProductID: "1", Quantity: 2, UnitPrice: dec("500")}}}
}

func addCode(t *testing.T, store *memory.Store, code models.OfferCode) *models.OfferCode {
	t.Helper()
	code.IsActive = true
	require.NoError(t, store.CreateOfferCode(context.Background(), &code))
	return &code
}
