package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/repository/memory"
)

func TestIssueCodeFormat(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	id := store.AddOffer(liveOffer("welcome", 1, flatReward(t, "20")))

	oc, err := svc.IssueCode(ctx, id, IssueCodeOptions{Prefix: "welcome", MaxUses: intPtr(1), AssignedCustomerID: strPtr("alice")})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^WELCOME-[0-9A-F]{8}$`), oc.Code)
	assert.Equal(t, id, oc.OfferID)
	assert.True(t, oc.IsActive)
	assert.Equal(t, 0, oc.CurrentUses)

	stored, err := store.GetOfferCodeByCode(ctx, oc.Code)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "alice", *stored.AssignedCustomerID)

	plain, err := svc.IssueCode(ctx, id, IssueCodeOptions{})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{8}$`), plain.Code)
}

func TestIssueCodeRetriesOnCollision(t *testing.T) {
	store := memory.NewStore()
	id := store.AddOffer(liveOffer("offer", 1, flatReward(t, "5")))
	require.NoError(t, store.CreateOfferCode(context.Background(), &models.OfferCode{Code: "TAKEN", OfferID: id, IsActive: true}))

	calls := 0
	svc := NewOfferService(store, Options{
		Now:               func() time.Time { return testNow },
		CodeIssueAttempts: 3,
		GenerateCode: func(string) string {
			calls++
			if calls < 3 {
				return "taken"
			}
			return "FRESH"
		},
	})

	oc, err := svc.IssueCode(context.Background(), id, IssueCodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "FRESH", oc.Code)
	assert.Equal(t, 3, calls)
}

func TestIssueCodeGivesUpAfterAttempts(t *testing.T) {
	store := memory.NewStore()
	id := store.AddOffer(liveOffer("offer", 1, flatReward(t, "5")))
	require.NoError(t, store.CreateOfferCode(context.Background(), &models.OfferCode{Code: "TAKEN", OfferID: id, IsActive: true}))

	calls := 0
	svc := NewOfferService(store, Options{
		Now:          func() time.Time { return testNow },
		GenerateCode: func(string) string { calls++; return "TAKEN" },
	})

	_, err := svc.IssueCode(context.Background(), id, IssueCodeOptions{})
	assert.ErrorIs(t, err, ErrCodeGenerationCollision)
	assert.Equal(t, defaultCodeIssueAttempts, calls)
}

func TestIssueCodeValidation(t *testing.T) {
	svc, store := newTestService(t)
	id := store.AddOffer(liveOffer("offer", 1, flatReward(t, "5")))
	from := testNow.Add(time.Hour)
	to := testNow

	tests := []struct {
		name string
		opts IssueCodeOptions
	}{
		{"prefix with dash", IssueCodeOptions{Prefix: "SAVE-10"}},
		{"prefix too long", IssueCodeOptions{Prefix: "ABCDEFGHIJKLMNOPQ"}},
		{"zero max uses", IssueCodeOptions{MaxUses: intPtr(0)}},
		{"zero per customer", IssueCodeOptions{MaxUsesPerCustomer: intPtr(0)}},
		{"inverted window", IssueCodeOptions{ValidFrom: &from, ValidTo: &to}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.IssueCode(context.Background(), id, tc.opts)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	_, err := svc.IssueCode(context.Background(), 404, IssueCodeOptions{})
	assert.ErrorIs(t, err, ErrOfferNotFound)
}
