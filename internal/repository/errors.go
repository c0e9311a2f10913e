package repository

import "github.com/go-faster/errors"

// Sentinel errors shared by every store implementation. Redeem returns the
// cap errors after rolling the whole redemption back.
var (
	ErrOfferUsageCapReached    = errors.New("offer usage cap reached")
	ErrCustomerUsageCapReached = errors.New("customer usage cap reached")
	ErrCodeUsageCapReached     = errors.New("offer code usage cap reached")
	ErrCodeInactive            = errors.New("offer code inactive")
	ErrCodeOutOfWindow         = errors.New("offer code outside its validity window")
	ErrDuplicateCode           = errors.New("offer code already exists")
)
