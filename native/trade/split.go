package trade

import (
	"math/big"

	"uniart/core/types"
	"uniart/native/nft"
	"uniart/observability/metrics"
)

// CreateSplitSaleOrder escrows value units of a divisible item and lists
// them at price per unit. Several split orders may coexist on one item.
// Returns the order id.
func (e *Engine) CreateSplitSaleOrder(caller types.Address, collectionID, itemID uint64, currency types.CurrencyID, value, price uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	col, ok, err := e.items.Collection(collectionID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nft.ErrCollectionNotFound
	}
	if col.Mode.Kind != nft.ModeFungible && col.Mode.Kind != nft.ModeReFungible {
		return 0, ErrModeNotSeparable
	}
	if value == 0 {
		return 0, ErrInvalidValue
	}
	owns, err := e.items.IsItemOwner(caller, collectionID, itemID)
	if err != nil {
		return 0, err
	}
	if !owns {
		if err := e.items.CheckWhiteList(collectionID, caller); err != nil {
			return 0, err
		}
		return 0, ErrNotItemOwner
	}
	// A whole-item listing and split listings are mutually exclusive.
	var whole SaleOrder
	if ok, err := e.store.KVGet(orderKey(collectionID, itemID), &whole); err != nil {
		return 0, err
	} else if ok {
		return 0, ErrItemOnSale
	}
	if e.auctions != nil {
		live, err := e.auctions.HasAuction(collectionID, itemID)
		if err != nil {
			return 0, err
		}
		if live {
			return 0, ErrItemOnAuction
		}
	}

	if err := e.transferItem(col, collectionID, itemID, value, caller, nft.ModuleAddress()); err != nil {
		return 0, err
	}
	orderID, err := e.nextOrderID()
	if err != nil {
		return 0, err
	}
	order := SplitSaleOrder{
		ID:         orderID,
		Collection: collectionID,
		Item:       itemID,
		Currency:   currency,
		Value:      value,
		Balance:    value,
		Seller:     caller,
		Price:      price,
	}
	if err := e.store.KVPut(splitOrderKey(orderID), &order); err != nil {
		return 0, err
	}
	ids, err := e.splitList(collectionID, itemID)
	if err != nil {
		return 0, err
	}
	ids = append(ids, orderID)
	if err := e.store.KVPut(splitListKey(collectionID, itemID), ids); err != nil {
		return 0, err
	}
	metrics.OrderCreated("split")
	e.logger.Debug("split sale order created", "order", orderID, "collection", collectionID, "item", itemID, "value", value, "price", price)
	e.emitter.Emit(splitOrderCreatedEvent(&order))
	return orderID, nil
}

// CancelSplitSaleOrder returns the unsold balance to the seller and removes
// the listing. Only the seller may cancel.
func (e *Engine) CancelSplitSaleOrder(caller types.Address, orderID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	order, ok, err := e.SplitOrder(orderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderNotFound
	}
	if order.Seller != caller {
		return ErrNotOrderOwner
	}
	col, ok, err := e.items.Collection(order.Collection)
	if err != nil {
		return err
	}
	if !ok {
		return nft.ErrCollectionNotFound
	}
	if err := e.releaseEscrow(col, order.Collection, order.Item, order.Balance, order.Seller); err != nil {
		return err
	}
	if err := e.removeSplitOrder(order); err != nil {
		return err
	}
	metrics.OrderCancelled("split")
	e.emitter.Emit(splitOrderCancelledEvent(order))
	return nil
}

// AcceptSplitSaleOrder buys value units from the split listing at the listed
// per-unit price. A listing drained to zero is removed; otherwise its
// balance shrinks in place.
func (e *Engine) AcceptSplitSaleOrder(caller types.Address, orderID, value, now uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	order, ok, err := e.SplitOrder(orderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderNotFound
	}
	if value == 0 {
		return ErrInvalidValue
	}
	if value > order.Balance {
		return ErrOrderExhausted
	}
	col, ok, err := e.items.Collection(order.Collection)
	if err != nil {
		return err
	}
	if !ok {
		return nft.ErrCollectionNotFound
	}
	amount, err := mulU64(order.Price, value)
	if err != nil {
		return err
	}
	if err := e.checkBuyerFunds(caller, order.Collection, order.Item, order.Currency, amount, now); err != nil {
		return err
	}
	if err := e.items.ChargeRoyalty(caller, order.Collection, order.Item, order.Currency, amount, now); err != nil {
		return err
	}
	if err := e.currency.Transfer(order.Currency, caller, order.Seller, new(big.Int).SetUint64(amount)); err != nil {
		return err
	}
	if err := e.releaseEscrow(col, order.Collection, order.Item, value, caller); err != nil {
		return err
	}

	order.Balance -= value
	if order.Balance == 0 {
		if err := e.removeSplitOrder(order); err != nil {
			return err
		}
	} else {
		if err := e.store.KVPut(splitOrderKey(orderID), order); err != nil {
			return err
		}
	}
	if err := e.RecordSale(order.Collection, order.Item, SaleRecord{
		Currency: order.Currency,
		Price:    amount,
		Value:    value,
		Seller:   order.Seller,
		Buyer:    caller,
		Time:     now,
	}); err != nil {
		return err
	}
	metrics.OrderSettled("split")
	e.logger.Debug("split sale order settled", "order", orderID, "value", value, "remaining", order.Balance)
	e.emitter.Emit(splitOrderAcceptedEvent(order, caller, value, amount))
	return nil
}

// SplitOrder loads a split listing by id.
func (e *Engine) SplitOrder(orderID uint64) (*SplitSaleOrder, bool, error) {
	if e == nil || e.store == nil {
		return nil, false, ErrNilStore
	}
	var order SplitSaleOrder
	ok, err := e.store.KVGet(splitOrderKey(orderID), &order)
	if err != nil || !ok {
		return nil, false, err
	}
	return &order, true, nil
}

// SplitOrders returns the ids of the live split listings on the item.
func (e *Engine) SplitOrders(collectionID, itemID uint64) ([]uint64, error) {
	if e == nil || e.store == nil {
		return nil, ErrNilStore
	}
	return e.splitList(collectionID, itemID)
}

func (e *Engine) splitList(collectionID, itemID uint64) ([]uint64, error) {
	var ids []uint64
	if _, err := e.store.KVGet(splitListKey(collectionID, itemID), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (e *Engine) removeSplitOrder(order *SplitSaleOrder) error {
	ids, err := e.splitList(order.Collection, order.Item)
	if err != nil {
		return err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != order.ID {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		if err := e.store.KVDelete(splitListKey(order.Collection, order.Item)); err != nil {
			return err
		}
	} else {
		if err := e.store.KVPut(splitListKey(order.Collection, order.Item), out); err != nil {
			return err
		}
	}
	return e.store.KVDelete(splitOrderKey(order.ID))
}

func mulU64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	prod := a * b
	if prod/a != b {
		return 0, ErrArithmetic
	}
	return prod, nil
}
