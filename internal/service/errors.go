package service

import "fmt"

// Kind classifies business-rule failures.
type Kind string

const (
	KindConditionNotMet            Kind = "ConditionNotMet"
	KindMinCartAmountNotMet        Kind = "MinCartAmountNotMet"
	KindCodeNotFound               Kind = "CodeNotFound"
	KindCodeInactive               Kind = "CodeInactive"
	KindCodeExpired                Kind = "CodeExpired"
	KindCodeNotYetActive           Kind = "CodeNotYetActive"
	KindCodeNotAssignedToCustomer  Kind = "CodeNotAssignedToCustomer"
	KindCodeUsageExhausted         Kind = "CodeUsageExhausted"
	KindOfferNotFound              Kind = "OfferNotFound"
	KindOfferInactiveOrOutOfWindow Kind = "OfferInactiveOrOutOfWindow"
	KindOfferUsageExhausted        Kind = "OfferUsageExhausted"
	KindUsageLimitExceeded         Kind = "UsageLimitExceeded"
	KindCodeGenerationCollision    Kind = "CodeGenerationCollision"
	KindInvalidRequest             Kind = "InvalidRequest"
)

// OfferError is a business-rule failure with a human readable reason.
type OfferError struct {
	Kind   Kind
	Reason string
}

func (e *OfferError) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is matches any OfferError of the same kind, so the sentinels below work
// with errors.Is whatever the reason.
func (e *OfferError) Is(target error) bool {
	t, ok := target.(*OfferError)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *OfferError {
	return &OfferError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

var (
	ErrConditionNotMet            = &OfferError{Kind: KindConditionNotMet}
	ErrMinCartAmountNotMet        = &OfferError{Kind: KindMinCartAmountNotMet}
	ErrCodeNotFound               = &OfferError{Kind: KindCodeNotFound}
	ErrCodeInactive               = &OfferError{Kind: KindCodeInactive}
	ErrCodeExpired                = &OfferError{Kind: KindCodeExpired}
	ErrCodeNotYetActive           = &OfferError{Kind: KindCodeNotYetActive}
	ErrCodeNotAssignedToCustomer  = &OfferError{Kind: KindCodeNotAssignedToCustomer}
	ErrCodeUsageExhausted         = &OfferError{Kind: KindCodeUsageExhausted}
	ErrOfferNotFound              = &OfferError{Kind: KindOfferNotFound}
	ErrOfferInactiveOrOutOfWindow = &OfferError{Kind: KindOfferInactiveOrOutOfWindow}
	ErrOfferUsageExhausted        = &OfferError{Kind: KindOfferUsageExhausted}
	ErrUsageLimitExceeded         = &OfferError{Kind: KindUsageLimitExceeded}
	ErrCodeGenerationCollision    = &OfferError{Kind: KindCodeGenerationCollision}
	ErrInvalidRequest             = &OfferError{Kind: KindInvalidRequest}
)
