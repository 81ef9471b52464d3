package nft

import (
	"encoding/hex"
	"strconv"

	"uniart/core/types"
)

const (
	// EventTypeCollectionCreated is emitted when a collection is registered.
	EventTypeCollectionCreated = "nft.collection.created"
	// EventTypeCollectionUpdated is emitted on any registry mutation.
	EventTypeCollectionUpdated = "nft.collection.updated"
	// EventTypeCollectionDestroyed is emitted when a collection is removed.
	EventTypeCollectionDestroyed = "nft.collection.destroyed"
	// EventTypeItemCreated is emitted when an item is minted.
	EventTypeItemCreated = "nft.item.created"
	// EventTypeItemDestroyed is emitted when a holding is burned.
	EventTypeItemDestroyed = "nft.item.destroyed"
	// EventTypeItemTransferred is emitted when item units change hands.
	EventTypeItemTransferred = "nft.item.transferred"
	// EventTypeRoyaltyCharged is emitted when a royalty fee settles.
	EventTypeRoyaltyCharged = "nft.royalty.charged"
)

type ledgerEvent struct {
	evt *types.Event
}

func (e ledgerEvent) EventType() string   { return e.evt.Type }
func (e ledgerEvent) Event() *types.Event { return e.evt }

func addrHex(addr types.Address) string { return hex.EncodeToString(addr[:]) }

func collectionCreatedEvent(id uint64, kind ModeKind, owner types.Address) ledgerEvent {
	return ledgerEvent{evt: &types.Event{
		Type: EventTypeCollectionCreated,
		Attributes: map[string]string{
			"collection": strconv.FormatUint(id, 10),
			"mode":       strconv.FormatUint(uint64(kind), 10),
			"owner":      addrHex(owner),
		},
	}}
}

func collectionUpdatedEvent(id uint64, field string) ledgerEvent {
	return ledgerEvent{evt: &types.Event{
		Type: EventTypeCollectionUpdated,
		Attributes: map[string]string{
			"collection": strconv.FormatUint(id, 10),
			"field":      field,
		},
	}}
}

func collectionDestroyedEvent(id uint64, owner types.Address) ledgerEvent {
	return ledgerEvent{evt: &types.Event{
		Type: EventTypeCollectionDestroyed,
		Attributes: map[string]string{
			"collection": strconv.FormatUint(id, 10),
			"owner":      addrHex(owner),
		},
	}}
}

func itemCreatedEvent(collectionID, itemID uint64, owner types.Address) ledgerEvent {
	return ledgerEvent{evt: &types.Event{
		Type: EventTypeItemCreated,
		Attributes: map[string]string{
			"collection": strconv.FormatUint(collectionID, 10),
			"item":       strconv.FormatUint(itemID, 10),
			"owner":      addrHex(owner),
		},
	}}
}

func itemDestroyedEvent(collectionID, itemID uint64) ledgerEvent {
	return ledgerEvent{evt: &types.Event{
		Type: EventTypeItemDestroyed,
		Attributes: map[string]string{
			"collection": strconv.FormatUint(collectionID, 10),
			"item":       strconv.FormatUint(itemID, 10),
		},
	}}
}

func itemTransferredEvent(collectionID, itemID uint64, from, to types.Address, value uint64) ledgerEvent {
	return ledgerEvent{evt: &types.Event{
		Type: EventTypeItemTransferred,
		Attributes: map[string]string{
			"collection": strconv.FormatUint(collectionID, 10),
			"item":       strconv.FormatUint(itemID, 10),
			"from":       addrHex(from),
			"to":         addrHex(to),
			"value":      strconv.FormatUint(value, 10),
		},
	}}
}

func royaltyChargedEvent(collectionID, itemID uint64, payer, beneficiary types.Address, currency types.CurrencyID, fee uint64) ledgerEvent {
	return ledgerEvent{evt: &types.Event{
		Type: EventTypeRoyaltyCharged,
		Attributes: map[string]string{
			"collection":  strconv.FormatUint(collectionID, 10),
			"item":        strconv.FormatUint(itemID, 10),
			"payer":       addrHex(payer),
			"beneficiary": addrHex(beneficiary),
			"currency":    strconv.FormatUint(uint64(currency), 10),
			"fee":         strconv.FormatUint(fee, 10),
		},
	}}
}
