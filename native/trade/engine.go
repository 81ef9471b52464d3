package trade

import (
	"io"
	"log/slog"
	"math/big"

	"uniart/core/events"
	"uniart/core/types"
	"uniart/native/nft"
	"uniart/observability/metrics"
)

// SaleOrder is a fixed-price listing of a whole item holding. The listed
// units sit in the module escrow account until the order settles or is
// cancelled.
type SaleOrder struct {
	ID         uint64
	Collection uint64
	Item       uint64
	Currency   types.CurrencyID
	Value      uint64
	Seller     types.Address
	Price      uint64
}

// SplitSaleOrder is a per-unit listing of a divisible holding. Value is the
// quantity originally listed and never changes; Balance tracks the units
// still available as buyers take arbitrary amounts until it drains.
type SplitSaleOrder struct {
	ID         uint64
	Collection uint64
	Item       uint64
	Currency   types.CurrencyID
	Value      uint64
	Balance    uint64
	Seller     types.Address
	Price      uint64
}

// SaleRecord is one settled trade appended to the item's sale history.
type SaleRecord struct {
	Currency types.CurrencyID
	Price    uint64
	Value    uint64
	Seller   types.Address
	Buyer    types.Address
	Time     uint64
}

// Storage captures the persistence surface the engine needs.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// ItemLedger is the slice of the item ledger the trading engine consumes.
type ItemLedger interface {
	Collection(id uint64) (*nft.Collection, bool, error)
	IsItemOwner(subject types.Address, collectionID, itemID uint64) (bool, error)
	CheckWhiteList(collectionID uint64, addr types.Address) error
	OwnedItems(collectionID uint64, addr types.Address) ([]uint64, error)
	TransferNFT(collectionID, itemID uint64, sender, recipient types.Address) error
	TransferFungible(collectionID, itemID, value uint64, sender, recipient types.Address) error
	TransferReFungible(collectionID, itemID, value uint64, sender, recipient types.Address) error
	RoyaltyFee(buyer types.Address, collectionID, itemID uint64, price, now uint64) (uint64, error)
	ChargeRoyalty(buyer types.Address, collectionID, itemID uint64, currency types.CurrencyID, price, now uint64) error
}

// CurrencyLedger moves sale proceeds between accounts. The balance accessors
// let settlement verify the buyer can pay before anything moves.
type CurrencyLedger interface {
	FreeBalance(currency types.CurrencyID, addr types.Address) (*big.Int, error)
	LockedBalance(currency types.CurrencyID, addr types.Address) (*big.Int, error)
	Transfer(currency types.CurrencyID, from, to types.Address, amount *big.Int) error
}

// AuctionGuard lets the engine refuse listings for items that are already
// held by a live auction.
type AuctionGuard interface {
	HasAuction(collectionID, itemID uint64) (bool, error)
}

// Engine implements fixed-price trading over the item ledger.
type Engine struct {
	store    Storage
	items    ItemLedger
	currency CurrencyLedger
	auctions AuctionGuard
	emitter  events.Emitter
	logger   *slog.Logger
}

// NewEngine wires a trading engine over its collaborators.
func NewEngine(store Storage, items ItemLedger, currency CurrencyLedger) *Engine {
	return &Engine{
		store:    store,
		items:    items,
		currency: currency,
		emitter:  events.NoopEmitter{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetEmitter configures the event sink. Passing nil restores the no-op sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetLogger configures structured logging. Passing nil silences the engine.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.logger = logger
}

// SetAuctionGuard wires the optional auction collaborator used to reject
// listings of items already under auction.
func (e *Engine) SetAuctionGuard(guard AuctionGuard) {
	e.auctions = guard
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil {
		return ErrNilStore
	}
	if e.items == nil || e.currency == nil {
		return ErrNilCollaborator
	}
	return nil
}

// CreateSaleOrder escrows the item and lists it for price in the given
// currency. NFT items always list a value of exactly 1. Returns the order id.
func (e *Engine) CreateSaleOrder(caller types.Address, collectionID, itemID uint64, currency types.CurrencyID, value, price uint64) (uint64, error) {
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
	if err := e.ensureNotListed(collectionID, itemID); err != nil {
		return 0, err
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
	if col.Mode.Kind == nft.ModeNFT {
		value = 1
	}
	if value == 0 {
		return 0, ErrInvalidValue
	}

	if err := e.transferItem(col, collectionID, itemID, value, caller, nft.ModuleAddress()); err != nil {
		return 0, err
	}
	orderID, err := e.nextOrderID()
	if err != nil {
		return 0, err
	}
	order := SaleOrder{
		ID:         orderID,
		Collection: collectionID,
		Item:       itemID,
		Currency:   currency,
		Value:      value,
		Seller:     caller,
		Price:      price,
	}
	if err := e.store.KVPut(orderKey(collectionID, itemID), &order); err != nil {
		return 0, err
	}
	if err := e.store.KVPut(orderByIDKey(orderID), &order); err != nil {
		return 0, err
	}
	metrics.OrderCreated("sale")
	e.logger.Debug("sale order created", "order", orderID, "collection", collectionID, "item", itemID, "price", price)
	e.emitter.Emit(orderCreatedEvent(&order, false))
	return orderID, nil
}

// CancelSaleOrder returns the escrowed item to the seller and removes the
// listing. Only the seller may cancel.
func (e *Engine) CancelSaleOrder(caller types.Address, collectionID, itemID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	var order SaleOrder
	ok, err := e.store.KVGet(orderKey(collectionID, itemID), &order)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderNotFound
	}
	if order.Seller != caller {
		return ErrNotOrderOwner
	}
	col, ok, err := e.items.Collection(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		return nft.ErrCollectionNotFound
	}
	if err := e.releaseEscrow(col, collectionID, itemID, order.Value, order.Seller); err != nil {
		return err
	}
	if err := e.dropOrder(&order); err != nil {
		return err
	}
	metrics.OrderCancelled("sale")
	e.emitter.Emit(orderCancelledEvent(&order, false))
	return nil
}

// AcceptSaleOrder settles the listing: the buyer pays the royalty and the
// price, receives the escrowed item, and the trade is appended to the item's
// sale history. The buyer's unlocked balance must cover both charges up
// front, so a settlement either completes or leaves no trace.
func (e *Engine) AcceptSaleOrder(caller types.Address, collectionID, itemID, now uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	var order SaleOrder
	ok, err := e.store.KVGet(orderKey(collectionID, itemID), &order)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderNotFound
	}
	col, ok, err := e.items.Collection(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		return nft.ErrCollectionNotFound
	}
	if err := e.checkBuyerFunds(caller, collectionID, itemID, order.Currency, order.Price, now); err != nil {
		return err
	}
	if err := e.items.ChargeRoyalty(caller, collectionID, itemID, order.Currency, order.Price, now); err != nil {
		return err
	}
	if err := e.currency.Transfer(order.Currency, caller, order.Seller, new(big.Int).SetUint64(order.Price)); err != nil {
		return err
	}
	if err := e.releaseEscrow(col, collectionID, itemID, order.Value, caller); err != nil {
		return err
	}
	if err := e.RecordSale(collectionID, itemID, SaleRecord{
		Currency: order.Currency,
		Price:    order.Price,
		Value:    order.Value,
		Seller:   order.Seller,
		Buyer:    caller,
		Time:     now,
	}); err != nil {
		return err
	}
	if err := e.dropOrder(&order); err != nil {
		return err
	}
	metrics.OrderSettled("sale")
	e.logger.Debug("sale order settled", "order", order.ID, "collection", collectionID, "item", itemID, "buyer", caller)
	e.emitter.Emit(orderAcceptedEvent(&order, caller, order.Value, order.Price, false))
	return nil
}

// Order returns the live whole-item listing for the item, if any.
func (e *Engine) Order(collectionID, itemID uint64) (*SaleOrder, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	var order SaleOrder
	ok, err := e.store.KVGet(orderKey(collectionID, itemID), &order)
	if err != nil || !ok {
		return nil, false, err
	}
	return &order, true, nil
}

// OrderByID loads a live whole-item listing by its order id.
func (e *Engine) OrderByID(orderID uint64) (*SaleOrder, bool, error) {
	if e == nil || e.store == nil {
		return nil, false, ErrNilStore
	}
	var order SaleOrder
	ok, err := e.store.KVGet(orderByIDKey(orderID), &order)
	if err != nil || !ok {
		return nil, false, err
	}
	return &order, true, nil
}

// HasOrder reports whether the item has any live listing, whole or split.
func (e *Engine) HasOrder(collectionID, itemID uint64) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	var order SaleOrder
	ok, err := e.store.KVGet(orderKey(collectionID, itemID), &order)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	ids, err := e.splitList(collectionID, itemID)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// SaleHistory returns the settled trades recorded against the item, oldest
// first.
func (e *Engine) SaleHistory(collectionID, itemID uint64) ([]SaleRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	var records []SaleRecord
	if _, err := e.store.KVGet(historyKey(collectionID, itemID), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// RecordSale appends one settled trade to the item's history. The auction
// engine records its settlements through this.
func (e *Engine) RecordSale(collectionID, itemID uint64, record SaleRecord) error {
	if e == nil || e.store == nil {
		return ErrNilStore
	}
	records, err := e.SaleHistory(collectionID, itemID)
	if err != nil {
		return err
	}
	records = append(records, record)
	return e.store.KVPut(historyKey(collectionID, itemID), records)
}

func (e *Engine) dropOrder(order *SaleOrder) error {
	if err := e.store.KVDelete(orderKey(order.Collection, order.Item)); err != nil {
		return err
	}
	return e.store.KVDelete(orderByIDKey(order.ID))
}

// checkBuyerFunds verifies the buyer's unlocked balance covers the price plus
// the royalty that the settlement will charge.
func (e *Engine) checkBuyerFunds(buyer types.Address, collectionID, itemID uint64, currency types.CurrencyID, price, now uint64) error {
	fee, err := e.items.RoyaltyFee(buyer, collectionID, itemID, price, now)
	if err != nil {
		return err
	}
	free, err := e.currency.FreeBalance(currency, buyer)
	if err != nil {
		return err
	}
	locked, err := e.currency.LockedBalance(currency, buyer)
	if err != nil {
		return err
	}
	total := new(big.Int).SetUint64(price)
	total.Add(total, new(big.Int).SetUint64(fee))
	if new(big.Int).Sub(free, locked).Cmp(total) < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (e *Engine) ensureNotListed(collectionID, itemID uint64) error {
	listed, err := e.HasOrder(collectionID, itemID)
	if err != nil {
		return err
	}
	if listed {
		return ErrItemOnSale
	}
	if e.auctions != nil {
		live, err := e.auctions.HasAuction(collectionID, itemID)
		if err != nil {
			return err
		}
		if live {
			return ErrItemOnAuction
		}
	}
	return nil
}

func (e *Engine) nextOrderID() (uint64, error) {
	var count uint64
	if _, err := e.store.KVGet(orderCountKey(), &count); err != nil {
		return 0, err
	}
	next := count + 1
	if next == 0 {
		return 0, ErrArithmetic
	}
	if err := e.store.KVPut(orderCountKey(), next); err != nil {
		return 0, err
	}
	return next, nil
}

func (e *Engine) transferItem(col *nft.Collection, collectionID, itemID, value uint64, from, to types.Address) error {
	switch col.Mode.Kind {
	case nft.ModeNFT:
		return e.items.TransferNFT(collectionID, itemID, from, to)
	case nft.ModeFungible:
		return e.items.TransferFungible(collectionID, itemID, value, from, to)
	case nft.ModeReFungible:
		return e.items.TransferReFungible(collectionID, itemID, value, from, to)
	default:
		return nft.ErrInvalidMode
	}
}

// releaseEscrow moves value units from the module account back out. Fungible
// escrow may live under a different record id than the listed item, so the
// module's own holding is resolved first.
func (e *Engine) releaseEscrow(col *nft.Collection, collectionID, itemID, value uint64, to types.Address) error {
	escrowID := itemID
	if col.Mode.Kind == nft.ModeFungible {
		ids, err := e.items.OwnedItems(collectionID, nft.ModuleAddress())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nft.ErrItemNotFound
		}
		escrowID = ids[0]
	}
	return e.transferItem(col, collectionID, escrowID, value, nft.ModuleAddress(), to)
}
