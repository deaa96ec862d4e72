package invoice

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("invoice not found")
	ErrInvalidOperation = errors.New("invalid operation")

	ErrInvalidAmount     = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrMissingPaymentURI = fmt.Errorf("%w: payment uri is required", ErrValidation)
)
