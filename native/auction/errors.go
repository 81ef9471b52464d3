package auction

import "errors"

var (
	// ErrAuctionNotFound indicates no live auction exists for the item.
	ErrAuctionNotFound = errors.New("auction: auction not found")
	// ErrItemOnAuction indicates the item already has a live auction.
	ErrItemOnAuction = errors.New("auction: item already on auction")
	// ErrItemOnSale indicates the item has a live sale listing.
	ErrItemOnSale = errors.New("auction: item is on sale")
	// ErrNotItemOwner indicates the caller does not hold the item.
	ErrNotItemOwner = errors.New("auction: caller is not the item owner")
	// ErrNotAuctionOwner indicates the caller did not open the auction.
	ErrNotAuctionOwner = errors.New("auction: caller is not the auction owner")
	// ErrInvalidWindow indicates the bidding window is empty or already closed.
	ErrInvalidWindow = errors.New("auction: invalid bidding window")
	// ErrInvalidValue indicates a zero auction value.
	ErrInvalidValue = errors.New("auction: invalid auction value")
	// ErrNotStarted indicates a bid arrived before the window opened.
	ErrNotStarted = errors.New("auction: bidding has not started")
	// ErrExpired indicates a bid arrived after the window closed.
	ErrExpired = errors.New("auction: bidding window has closed")
	// ErrStillLive indicates settlement was requested before the window closed.
	ErrStillLive = errors.New("auction: bidding window has not closed")
	// ErrHasBids indicates cancellation was requested after bids were placed.
	ErrHasBids = errors.New("auction: auction already has bids")
	// ErrInsufficientFunds indicates the bidder's balance cannot cover the bid.
	ErrInsufficientFunds = errors.New("auction: insufficient funds for bid")
	// ErrNilStore indicates the engine was constructed without storage.
	ErrNilStore = errors.New("auction: storage not configured")
	// ErrNilCollaborator indicates a required collaborator is missing.
	ErrNilCollaborator = errors.New("auction: item or fund ledger not configured")
)
