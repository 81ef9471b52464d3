package trade

import "errors"

var (
	// ErrOrderNotFound indicates no live order matches the reference.
	ErrOrderNotFound = errors.New("trade: sale order not found")
	// ErrItemOnSale indicates the item already has a live sale order.
	ErrItemOnSale = errors.New("trade: item already on sale")
	// ErrItemOnAuction indicates the item is held by a live auction.
	ErrItemOnAuction = errors.New("trade: item is on auction")
	// ErrNotOrderOwner indicates the caller did not place the order.
	ErrNotOrderOwner = errors.New("trade: caller is not the order owner")
	// ErrNotItemOwner indicates the caller does not hold the item being listed.
	ErrNotItemOwner = errors.New("trade: caller is not the item owner")
	// ErrInvalidValue indicates a zero or oversized order amount.
	ErrInvalidValue = errors.New("trade: invalid order value")
	// ErrOrderExhausted indicates the split order cannot cover the requested amount.
	ErrOrderExhausted = errors.New("trade: split order balance too low")
	// ErrInsufficientFunds indicates the buyer cannot cover the price and
	// royalty from unlocked balance.
	ErrInsufficientFunds = errors.New("trade: insufficient funds for purchase")
	// ErrModeNotSeparable indicates split orders are limited to Fungible and
	// ReFungible collections.
	ErrModeNotSeparable = errors.New("trade: collection mode does not support split orders")
	// ErrArithmetic indicates a price or balance computation would overflow.
	ErrArithmetic = errors.New("trade: arithmetic overflow")
	// ErrNilStore indicates the engine was constructed without storage.
	ErrNilStore = errors.New("trade: storage not configured")
	// ErrNilCollaborator indicates a required collaborator is missing.
	ErrNilCollaborator = errors.New("trade: item or currency ledger not configured")
)
