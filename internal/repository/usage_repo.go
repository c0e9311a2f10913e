package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

type UsageRepo struct {
	db *sql.DB
}

func NewUsageRepo(db *sql.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

func (r *UsageRepo) CountUsagesByCustomer(ctx context.Context, offerID int64, customerID string) (int, error) {
	query := `SELECT COUNT(*) FROM offer_usages WHERE offer_id = $1 AND customer_id = $2`

	var n int
	if err := r.db.QueryRowContext(ctx, query, offerID, customerID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count usages")
	}
	return n, nil
}

// Redeem records one redemption in a single transaction. Each counter moves
// through a conditional update, so two concurrent redemptions can never both
// take the last slot. Any cap failure rolls everything back.
func (r *UsageRepo) Redeem(ctx context.Context, rd models.Redemption) (models.OfferUsage, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.OfferUsage{}, false, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	usage, created, err := r.insertUsage(ctx, tx, rd)
	if err != nil {
		return models.OfferUsage{}, false, err
	}
	if !created {
		return usage, false, tx.Commit()
	}

	if err := r.incrementOffer(ctx, tx, rd.OfferID); err != nil {
		return models.OfferUsage{}, false, err
	}
	if rd.CustomerID != "" {
		if err := r.incrementCustomer(ctx, tx, rd); err != nil {
			return models.OfferUsage{}, false, err
		}
	}
	if rd.OfferCodeID != nil {
		if err := r.incrementCode(ctx, tx, *rd.OfferCodeID, rd.UsedAt); err != nil {
			return models.OfferUsage{}, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.OfferUsage{}, false, errors.Wrap(err, "commit redemption")
	}
	return usage, true, nil
}

// insertUsage claims (offer, order). When the pair already exists the stored
// row is returned with created false.
func (r *UsageRepo) insertUsage(ctx context.Context, tx *sql.Tx, rd models.Redemption) (models.OfferUsage, bool, error) {
	insert := `
		INSERT INTO offer_usages (offer_id, customer_id, order_id, offer_code_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (offer_id, order_id) DO NOTHING
		RETURNING id
	`

	usage := models.OfferUsage{
		OfferID:        rd.OfferID,
		CustomerID:     rd.CustomerID,
		OrderID:        rd.OrderID,
		OfferCodeID:    rd.OfferCodeID,
		DiscountAmount: rd.DiscountAmount,
		UsedAt:         rd.UsedAt,
	}
	err := tx.QueryRowContext(ctx, insert,
		rd.OfferID, rd.CustomerID, rd.OrderID, rd.OfferCodeID, rd.DiscountAmount, rd.UsedAt,
	).Scan(&usage.ID)
	if err == nil {
		return usage, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return usage, false, errors.Wrap(err, "insert usage")
	}

	existing := `
		SELECT id, offer_id, customer_id, order_id, offer_code_id, discount_amount, used_at
		FROM offer_usages
		WHERE offer_id = $1 AND order_id = $2
	`
	var codeID sql.NullInt64
	err = tx.QueryRowContext(ctx, existing, rd.OfferID, rd.OrderID).Scan(
		&usage.ID,
		&usage.OfferID,
		&usage.CustomerID,
		&usage.OrderID,
		&codeID,
		&usage.DiscountAmount,
		&usage.UsedAt,
	)
	if err != nil {
		return usage, false, errors.Wrap(err, "load existing usage")
	}
	usage.OfferCodeID = nil
	if codeID.Valid {
		usage.OfferCodeID = &codeID.Int64
	}
	return usage, false, nil
}

func (r *UsageRepo) incrementOffer(ctx context.Context, tx *sql.Tx, offerID int64) error {
	query := `
		UPDATE offers
		SET current_usage = current_usage + 1
		WHERE id = $1 AND (max_usage_total IS NULL OR current_usage < max_usage_total)
	`
	return execCapped(ctx, tx, ErrOfferUsageCapReached, query, offerID)
}

// incrementCustomer upserts the per-customer counter. The update only happens
// while the counter is below the limit; a NULL limit means unlimited.
func (r *UsageRepo) incrementCustomer(ctx context.Context, tx *sql.Tx, rd models.Redemption) error {
	query := `
		INSERT INTO offer_customer_usage (offer_id, customer_id, usage_count, last_used)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (offer_id, customer_id) DO UPDATE
		SET usage_count = offer_customer_usage.usage_count + 1,
		    last_used = EXCLUDED.last_used
		WHERE $4::int IS NULL OR offer_customer_usage.usage_count < $4::int
	`

	var limit sql.NullInt64
	if rd.CustomerLimit != nil {
		// the insert branch ignores the WHERE clause
		if *rd.CustomerLimit < 1 {
			return ErrCustomerUsageCapReached
		}
		limit = sql.NullInt64{Int64: int64(*rd.CustomerLimit), Valid: true}
	}
	return execCapped(ctx, tx, ErrCustomerUsageCapReached, query, rd.OfferID, rd.CustomerID, rd.UsedAt, limit)
}

// incrementCode takes one use of the code if it is active, inside its window
// at the redemption time and below its cap. On failure the row is read back
// to tell which check failed.
func (r *UsageRepo) incrementCode(ctx context.Context, tx *sql.Tx, codeID int64, at time.Time) error {
	query := `
		UPDATE offer_codes
		SET current_uses = current_uses + 1
		WHERE id = $1 AND is_active
		  AND (valid_from IS NULL OR valid_from <= $2)
		  AND (valid_to IS NULL OR valid_to >= $2)
		  AND (max_uses IS NULL OR current_uses < max_uses)
	`
	err := execCapped(ctx, tx, ErrCodeUsageCapReached, query, codeID, at)
	if !errors.Is(err, ErrCodeUsageCapReached) {
		return err
	}

	check := `SELECT is_active, valid_from, valid_to FROM offer_codes WHERE id = $1`
	var (
		active   bool
		from, to sql.NullTime
	)
	if err := tx.QueryRowContext(ctx, check, codeID).Scan(&active, &from, &to); err != nil {
		return errors.Wrap(err, "check offer code")
	}
	switch {
	case !active:
		return ErrCodeInactive
	case from.Valid && at.Before(from.Time), to.Valid && at.After(to.Time):
		return ErrCodeOutOfWindow
	}
	return ErrCodeUsageCapReached
}

// execCapped runs a conditional update and returns capErr when it matched no row.
func execCapped(ctx context.Context, tx *sql.Tx, capErr error, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "update usage counter")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return capErr
	}
	return nil
}
