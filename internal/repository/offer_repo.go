package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

const offerColumns = `
	id, name, type, status, start_time, end_time, priority, auto_apply,
	max_usage_total, current_usage, max_usage_per_user,
	min_cart_amount, max_discount_amount, created_at`

type OfferRepo struct {
	db *sql.DB
}

func NewOfferRepo(db *sql.DB) *OfferRepo {
	return &OfferRepo{db: db}
}

func (r *OfferRepo) ListActiveOffers(ctx context.Context, now time.Time) ([]models.Offer, error) {
	query := `SELECT` + offerColumns + `
		FROM offers
		WHERE status = 'active' AND start_time <= $1 AND end_time >= $1
		ORDER BY priority DESC, created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, errors.Wrap(err, "query offers")
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate offers")
	}

	if err := r.loadChildren(ctx, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *OfferRepo) GetOfferByID(ctx context.Context, id int64) (*models.Offer, error) {
	query := `SELECT` + offerColumns + ` FROM offers WHERE id = $1`

	o, err := scanOffer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	offers := []models.Offer{o}
	if err := r.loadChildren(ctx, offers); err != nil {
		return nil, err
	}
	return &offers[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffer(row scanner) (models.Offer, error) {
	var (
		o                      models.Offer
		maxTotal, maxPerUser   sql.NullInt64
		minCart, maxDiscount   decimal.NullDecimal
		offerType, offerStatus string
	)
	err := row.Scan(
		&o.ID,
		&o.Name,
		&offerType,
		&offerStatus,
		&o.StartTime,
		&o.EndTime,
		&o.Priority,
		&o.AutoApply,
		&maxTotal,
		&o.CurrentUsage,
		&maxPerUser,
		&minCart,
		&maxDiscount,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, err
		}
		return o, errors.Wrap(err, "scan offer")
	}

	o.Type = models.OfferType(offerType)
	o.Status = models.OfferStatus(offerStatus)
	o.MaxUsageTotal = nullInt(maxTotal)
	o.MaxUsagePerUser = nullInt(maxPerUser)
	o.MinCartAmount = nullDecimal(minCart)
	o.MaxDiscountAmount = nullDecimal(maxDiscount)
	return o, nil
}

// loadChildren fills conditions, rewards and eligibility lists for all offers
// with one query per child table.
func (r *OfferRepo) loadChildren(ctx context.Context, offers []models.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	ids := make([]int64, len(offers))
	index := make(map[int64]*models.Offer, len(offers))
	for i := range offers {
		ids[i] = offers[i].ID
		index[offers[i].ID] = &offers[i]
	}

	if err := r.loadConditions(ctx, ids, index); err != nil {
		return err
	}
	if err := r.loadRewards(ctx, ids, index); err != nil {
		return err
	}

	products, err := r.loadStrings(ctx, `SELECT offer_id, product_id FROM offer_products WHERE offer_id = ANY($1) ORDER BY product_id`, ids)
	if err != nil {
		return errors.Wrap(err, "load offer products")
	}
	categories, err := r.loadStrings(ctx, `SELECT offer_id, category_id FROM offer_categories WHERE offer_id = ANY($1) ORDER BY category_id`, ids)
	if err != nil {
		return errors.Wrap(err, "load offer categories")
	}
	for id, o := range index {
		o.ProductIDs = products[id]
		o.CategoryIDs = categories[id]
	}
	return nil
}

func (r *OfferRepo) loadConditions(ctx context.Context, ids []int64, index map[int64]*models.Offer) error {
	query := `SELECT id, offer_id, type, operator, value FROM offer_conditions WHERE offer_id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "query offer conditions")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, offerID int64
			typ, op     string
			raw         []byte
		)
		if err := rows.Scan(&id, &offerID, &typ, &op, &raw); err != nil {
			return errors.Wrap(err, "scan offer condition")
		}
		cond, err := models.DecodeCondition(id, models.ConditionType(typ), models.Operator(op), raw)
		if err != nil {
			return errors.Wrapf(err, "offer %d", offerID)
		}
		if o, ok := index[offerID]; ok {
			o.Conditions = append(o.Conditions, cond)
		}
	}
	return rows.Err()
}

func (r *OfferRepo) loadRewards(ctx context.Context, ids []int64, index map[int64]*models.Offer) error {
	query := `SELECT id, offer_id, type, value, max_free_qty FROM offer_rewards WHERE offer_id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "query offer rewards")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, offerID int64
			typ         string
			raw         []byte
			maxFreeQty  int
		)
		if err := rows.Scan(&id, &offerID, &typ, &raw, &maxFreeQty); err != nil {
			return errors.Wrap(err, "scan offer reward")
		}
		reward, err := models.DecodeReward(id, models.RewardType(typ), raw, maxFreeQty)
		if err != nil {
			return errors.Wrapf(err, "offer %d", offerID)
		}
		if o, ok := index[offerID]; ok {
			o.Rewards = append(o.Rewards, reward)
		}
	}
	return rows.Err()
}

func (r *OfferRepo) loadStrings(ctx context.Context, query string, ids []int64) (map[int64][]string, error) {
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var (
			offerID int64
			value   string
		)
		if err := rows.Scan(&offerID, &value); err != nil {
			return nil, err
		}
		out[offerID] = append(out[offerID], value)
	}
	return out, rows.Err()
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullDecimal(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}
