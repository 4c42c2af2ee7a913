package checkout

import "errors"

var (
	ErrValidation           = errors.New("validation error")
	ErrPanelClosed          = errors.New("check-out panel is not open")
	ErrInvalidPhase         = errors.New("action not allowed in the current check-out phase")
	ErrBookingNotEligible   = errors.New("booking is not in the check-out list")
	ErrCalculationPending   = errors.New("check-out calculation is not available yet")
	ErrSubmitting           = errors.New("a check-out submission is in progress")
	ErrNoteMissing          = errors.New("housekeeping note is required before payment")
	ErrReadinessChecking    = errors.New("housekeeping status is being checked, try again")
	ErrNegativeAmount       = errors.New("final amount is negative")
	ErrInsufficientCash     = errors.New("cash received is less than the final amount")
	ErrInvalidPaymentMethod = errors.New("payment method must be Cash or Bank Transfer")
	ErrServiceNotInCart     = errors.New("service is not in the pending list")
	ErrPossibleDuplicate    = errors.New("a previous check-out for this booking has an unknown outcome")
)
