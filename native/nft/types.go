package nft

import (
	"uniart/core/types"
)

// ModeKind discriminates the three item shapes a collection can hold.
type ModeKind uint8

const (
	ModeInvalid ModeKind = iota
	ModeNFT
	ModeFungible
	ModeReFungible
)

// Mode is the collection mode together with its mode-specific parameters.
// The mode lives on the collection, never on the item, and is immutable after
// creation.
type Mode struct {
	Kind           ModeKind
	CustomDataSize uint32
	DecimalPoints  uint32
}

// NFTMode builds the mode for single-owner items carrying up to
// customDataSize bytes of opaque data.
func NFTMode(customDataSize uint32) Mode {
	return Mode{Kind: ModeNFT, CustomDataSize: customDataSize}
}

// FungibleMode builds the mode for pooled-value items minted at
// 10^decimalPoints units.
func FungibleMode(decimalPoints uint32) Mode {
	return Mode{Kind: ModeFungible, DecimalPoints: decimalPoints}
}

// ReFungibleMode builds the mode for fractional multi-owner items.
func ReFungibleMode(customDataSize, decimalPoints uint32) Mode {
	return Mode{Kind: ModeReFungible, CustomDataSize: customDataSize, DecimalPoints: decimalPoints}
}

// Valid reports whether the mode kind is one of the supported shapes.
func (m Mode) Valid() bool {
	switch m.Kind {
	case ModeNFT, ModeFungible, ModeReFungible:
		return true
	default:
		return false
	}
}

// AccessMode controls who may interact with a collection.
type AccessMode uint8

const (
	AccessNormal AccessMode = iota
	AccessWhiteList
)

// Collection holds the registry record for one collection.
type Collection struct {
	Owner              types.Address
	Mode               Mode
	Access             AccessMode
	Name               string // 64 bytes max including terminator
	Description        string // 256 bytes max including terminator
	TokenPrefix        []byte // 16 bytes max including terminator
	MintMode           bool
	OffchainSchema     []byte
	Sponsor            types.Address // zero address means fees fall on the sender
	UnconfirmedSponsor types.Address
}

// NFTItem is a single-owner item.
type NFTItem struct {
	Collection uint64
	Owner      types.Address
	Data       []byte
	Hash       [20]byte
}

// FungibleItem is a pooled-value holding. Several records may exist per
// collection, one per holder.
type FungibleItem struct {
	Collection uint64
	Owner      types.Address
	Value      uint64
	Hash       [20]byte
}

// Ownership is one fractional stake of a ReFungible item.
type Ownership struct {
	Owner    types.Address
	Fraction uint64
}

// ReFungibleItem is a single physical record shared by fractional owners.
type ReFungibleItem struct {
	Collection uint64
	Owners     []Ownership
	Data       []byte
	Hash       [20]byte
}

// Royalty is charged on every settlement of the item while ExpiredAt has not
// passed. Rate is expressed in basis points against a 10000 denominator.
type Royalty struct {
	Owner     types.Address
	Rate      uint32
	ExpiredAt uint64
}

// ApprovePermission is a single-use transfer allowance granted by an item
// owner to a spender.
type ApprovePermission struct {
	Approved types.Address
	Amount   uint64
}
