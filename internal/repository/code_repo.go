package repository

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/lib/pq"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

const uniqueViolation = "23505"

type CodeRepo struct {
	db *sql.DB
}

func NewCodeRepo(db *sql.DB) *CodeRepo {
	return &CodeRepo{db: db}
}

func (r *CodeRepo) GetOfferCodeByCode(ctx context.Context, code string) (*models.OfferCode, error) {
	query := `
		SELECT id, code, offer_id, max_uses, current_uses, assigned_customer_id,
		       max_uses_per_customer, valid_from, valid_to, is_active, created_at
		FROM offer_codes
		WHERE code = $1
	`

	var (
		c                   models.OfferCode
		maxUses, maxPerCust sql.NullInt64
		assigned            sql.NullString
		validFrom, validTo  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, models.NormalizeCode(code)).Scan(
		&c.ID,
		&c.Code,
		&c.OfferID,
		&maxUses,
		&c.CurrentUses,
		&assigned,
		&maxPerCust,
		&validFrom,
		&validTo,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "scan offer code")
	}

	c.MaxUses = nullInt(maxUses)
	c.MaxUsesPerCustomer = nullInt(maxPerCust)
	if assigned.Valid {
		c.AssignedCustomerID = &assigned.String
	}
	if validFrom.Valid {
		c.ValidFrom = &validFrom.Time
	}
	if validTo.Valid {
		c.ValidTo = &validTo.Time
	}
	return &c, nil
}

// CreateOfferCode inserts code and fills in its ID. A clash on the unique code
// column is reported as ErrDuplicateCode.
func (r *CodeRepo) CreateOfferCode(ctx context.Context, code *models.OfferCode) error {
	query := `
		INSERT INTO offer_codes (code, offer_id, max_uses, assigned_customer_id,
		                         max_uses_per_customer, valid_from, valid_to, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	code.Code = models.NormalizeCode(code.Code)
	err := r.db.QueryRowContext(ctx, query,
		code.Code,
		code.OfferID,
		code.MaxUses,
		code.AssignedCustomerID,
		code.MaxUsesPerCustomer,
		code.ValidFrom,
		code.ValidTo,
		code.IsActive,
	).Scan(&code.ID, &code.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateCode
		}
		return errors.Wrap(err, "insert offer code")
	}
	return nil
}
