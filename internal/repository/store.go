package repository

import "database/sql"

// Store bundles the Postgres repositories into the single storage value the
// offer service depends on.
type Store struct {
	*OfferRepo
	*CodeRepo
	*UsageRepo
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		OfferRepo: NewOfferRepo(db),
		CodeRepo:  NewCodeRepo(db),
		UsageRepo: NewUsageRepo(db),
	}
}
