package nft

import "errors"

var (
	// ErrCollectionNotFound indicates the referenced collection id does not exist.
	ErrCollectionNotFound = errors.New("nft: collection not found")
	// ErrItemNotFound indicates the referenced item id does not exist in the collection.
	ErrItemNotFound = errors.New("nft: item not found")
	// ErrNotCollectionOwner indicates the caller does not own the collection.
	ErrNotCollectionOwner = errors.New("nft: caller is not the collection owner")
	// ErrNoPermission indicates the caller is neither the collection owner nor an admin.
	ErrNoPermission = errors.New("nft: caller has no permission to manage this collection")
	// ErrNotItemOwner indicates the caller does not own the item, or the named
	// sender holds no stake of it.
	ErrNotItemOwner = errors.New("nft: address is not the item owner")
	// ErrNotWhiteListed indicates the address is absent from the collection white list.
	ErrNotWhiteListed = errors.New("nft: address is not in the collection white list")
	// ErrNotInMintMode indicates public minting is disabled for the collection.
	ErrNotInMintMode = errors.New("nft: collection is not in mint mode")
	// ErrNotSponsor indicates the caller is not the pending sponsor of the collection.
	ErrNotSponsor = errors.New("nft: caller is not the unconfirmed collection sponsor")
	// ErrInvalidMode indicates the collection mode kind is not one of the supported shapes.
	ErrInvalidMode = errors.New("nft: invalid collection mode")
	// ErrDecimalPointsTooLarge indicates the fungible decimal points exceed the ceiling of 4.
	ErrDecimalPointsTooLarge = errors.New("nft: decimal points must not exceed 4")
	// ErrNameTooLong indicates the collection name exceeds 63 bytes.
	ErrNameTooLong = errors.New("nft: collection name too long")
	// ErrDescriptionTooLong indicates the collection description exceeds 255 bytes.
	ErrDescriptionTooLong = errors.New("nft: collection description too long")
	// ErrTokenPrefixTooLong indicates the token prefix exceeds 15 bytes.
	ErrTokenPrefixTooLong = errors.New("nft: token prefix too long")
	// ErrDataTooLarge indicates item properties exceed the collection's custom data size.
	ErrDataTooLarge = errors.New("nft: item data exceeds collection custom data size")
	// ErrDataNotEmpty indicates properties were supplied for a fungible item.
	ErrDataNotEmpty = errors.New("nft: fungible items carry no custom data")
	// ErrRoyaltyRateTooHigh indicates the royalty rate exceeds the configured ceiling.
	ErrRoyaltyRateTooHigh = errors.New("nft: royalty rate exceeds ceiling")
	// ErrItemBalanceTooLow indicates the sender's held amount cannot cover the transfer.
	ErrItemBalanceTooLow = errors.New("nft: item balance too low")
	// ErrNotApproved indicates no matching approval exists for the spender.
	ErrNotApproved = errors.New("nft: spender is not approved for this item")
	// ErrApprovedAmountTooLow indicates the approval cannot cover the requested amount.
	ErrApprovedAmountTooLow = errors.New("nft: approved amount too low")
	// ErrArithmetic indicates a counter or balance operation would overflow or underflow.
	ErrArithmetic = errors.New("nft: arithmetic overflow")
	// ErrNilStore indicates the ledger was constructed without backing storage.
	ErrNilStore = errors.New("nft: storage not configured")
	// ErrNilCurrency indicates the ledger has no currency collaborator wired.
	ErrNilCurrency = errors.New("nft: currency ledger not configured")
)
