package trade

import (
	"errors"
	"fmt"
)

var ErrUnauthorized = errors.New("Unauthorised")

// RetriesExhaustedError is returned when every order creation attempt failed.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return e.Err.Error()
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

type InsufficientFundsError struct {
	Buyer   string
	TokenId string
	Price   string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Funds on wallet %s are insufficient for buying NFT %s (%s wei)", e.Buyer, e.TokenId, e.Price)
}
