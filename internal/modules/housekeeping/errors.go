package housekeeping

import "errors"

var (
	ErrStaffRequired        = errors.New("select a housekeeper first")
	ErrConfirmationRequired = errors.New("cancelling a task must be confirmed")
	ErrTaskAlreadyActive    = errors.New("the room already has an active cleaning task")
	ErrInvalidID            = errors.New("invalid id")
)
