package auction

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math/big"

	"uniart/core/events"
	"uniart/core/types"
	"uniart/native/ledger"
	"uniart/native/nft"
	"uniart/native/trade"
	"uniart/observability/metrics"
)

// lockPrefix tags every auction fund lock so lock ids never collide with
// other modules using the same currency ledger.
var lockPrefix = [3]byte{'u', 'a', 't'}

// Auction is one timed ascending auction. The auctioned units sit in the
// module escrow account for the lifetime of the record.
type Auction struct {
	ID           uint64
	Collection   uint64
	Item         uint64
	Currency     types.CurrencyID
	Value        uint64
	Owner        types.Address
	StartPrice   uint64
	CurrentPrice uint64
	MinimumStep  uint64
	StartTime    uint64
	EndTime      uint64
}

// Bid is one accepted bid. The latest entry of the history is the current
// leader.
type Bid struct {
	Bidder types.Address
	Price  uint64
	Time   uint64
}

// Storage captures the persistence surface the engine needs.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// ItemLedger is the slice of the item ledger the auction engine consumes.
type ItemLedger interface {
	Collection(id uint64) (*nft.Collection, bool, error)
	IsItemOwner(subject types.Address, collectionID, itemID uint64) (bool, error)
	OwnedItems(collectionID uint64, addr types.Address) ([]uint64, error)
	TransferNFT(collectionID, itemID uint64, sender, recipient types.Address) error
	TransferFungible(collectionID, itemID, value uint64, sender, recipient types.Address) error
	TransferReFungible(collectionID, itemID, value uint64, sender, recipient types.Address) error
	RoyaltyFee(buyer types.Address, collectionID, itemID uint64, price, now uint64) (uint64, error)
	ChargeRoyalty(buyer types.Address, collectionID, itemID uint64, currency types.CurrencyID, price, now uint64) error
}

// FundLedger holds bidder funds. Bids are secured with named locks rather
// than up-front transfers, so outbid parties keep earning on their balance.
type FundLedger interface {
	FreeBalance(currency types.CurrencyID, addr types.Address) (*big.Int, error)
	LockedBalance(currency types.CurrencyID, addr types.Address) (*big.Int, error)
	Transfer(currency types.CurrencyID, from, to types.Address, amount *big.Int) error
	ExtendLock(id ledger.LockID, currency types.CurrencyID, addr types.Address, amount *big.Int) error
	RemoveLock(id ledger.LockID, currency types.CurrencyID, addr types.Address) error
}

// SaleRecorder appends settled auctions to the item's sale history.
type SaleRecorder interface {
	RecordSale(collectionID, itemID uint64, record trade.SaleRecord) error
}

// OrderGuard lets the engine refuse auctions for items with live sale
// listings.
type OrderGuard interface {
	HasOrder(collectionID, itemID uint64) (bool, error)
}

// Engine implements timed ascending auctions over the item ledger.
type Engine struct {
	store   Storage
	items   ItemLedger
	funds   FundLedger
	sales   SaleRecorder
	orders  OrderGuard
	emitter events.Emitter
	logger  *slog.Logger
}

// NewEngine wires an auction engine over its collaborators.
func NewEngine(store Storage, items ItemLedger, funds FundLedger) *Engine {
	return &Engine{
		store:   store,
		items:   items,
		funds:   funds,
		emitter: events.NoopEmitter{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
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

// SetSaleRecorder wires the sale history sink used on settlement.
func (e *Engine) SetSaleRecorder(sales SaleRecorder) {
	e.sales = sales
}

// SetOrderGuard wires the optional trade collaborator used to reject
// auctions of items already on sale.
func (e *Engine) SetOrderGuard(guard OrderGuard) {
	e.orders = guard
}

// LockIDFor returns the fund lock id used for the auction.
func LockIDFor(auctionID uint64) ledger.LockID {
	var id ledger.LockID
	binary.BigEndian.PutUint64(id[:], auctionID)
	copy(id[:3], lockPrefix[:])
	return id
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil {
		return ErrNilStore
	}
	if e.items == nil || e.funds == nil {
		return ErrNilCollaborator
	}
	return nil
}

// CreateAuction escrows the item and opens a bidding window from startTime
// to endTime. NFT items always auction a value of exactly 1. Returns the
// auction id.
func (e *Engine) CreateAuction(caller types.Address, collectionID, itemID uint64, currency types.CurrencyID, value, startPrice, minimumStep, startTime, endTime, now uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if startTime >= endTime || now >= endTime {
		return 0, ErrInvalidWindow
	}
	col, ok, err := e.items.Collection(collectionID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nft.ErrCollectionNotFound
	}
	if _, live, err := e.Auction(collectionID, itemID); err != nil {
		return 0, err
	} else if live {
		return 0, ErrItemOnAuction
	}
	if e.orders != nil {
		listed, err := e.orders.HasOrder(collectionID, itemID)
		if err != nil {
			return 0, err
		}
		if listed {
			return 0, ErrItemOnSale
		}
	}
	owns, err := e.items.IsItemOwner(caller, collectionID, itemID)
	if err != nil {
		return 0, err
	}
	if !owns {
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
	auctionID, err := e.nextAuctionID()
	if err != nil {
		return 0, err
	}
	auction := Auction{
		ID:           auctionID,
		Collection:   collectionID,
		Item:         itemID,
		Currency:     currency,
		Value:        value,
		Owner:        caller,
		StartPrice:   startPrice,
		CurrentPrice: startPrice,
		MinimumStep:  minimumStep,
		StartTime:    startTime,
		EndTime:      endTime,
	}
	if err := e.store.KVPut(auctionKey(collectionID, itemID), &auction); err != nil {
		return 0, err
	}
	metrics.AuctionCreated()
	e.logger.Debug("auction created", "auction", auctionID, "collection", collectionID, "item", itemID, "end", endTime)
	e.emitter.Emit(auctionCreatedEvent(&auction))
	return auctionID, nil
}

// Bid places a bid at the next price: the current price raised by the
// minimum step, saturating at the maximum representable price. The current
// price starts at the start price, so the first bid lands one step above it.
// The bid amount is secured with a fund lock on the bidder's balance.
func (e *Engine) Bid(caller types.Address, collectionID, itemID, now uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	auction, ok, err := e.Auction(collectionID, itemID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrAuctionNotFound
	}
	if now < auction.StartTime {
		return 0, ErrNotStarted
	}
	if now > auction.EndTime {
		return 0, ErrExpired
	}
	price := saturatingAdd(auction.CurrentPrice, auction.MinimumStep)

	free, err := e.funds.FreeBalance(auction.Currency, caller)
	if err != nil {
		return 0, err
	}
	if free.Cmp(new(big.Int).SetUint64(price)) <= 0 {
		return 0, ErrInsufficientFunds
	}
	if err := e.funds.ExtendLock(LockIDFor(auction.ID), auction.Currency, caller, new(big.Int).SetUint64(price)); err != nil {
		return 0, err
	}
	bids, err := e.BidHistory(auction.ID)
	if err != nil {
		return 0, err
	}
	bids = append(bids, Bid{Bidder: caller, Price: price, Time: now})
	if err := e.store.KVPut(bidsKey(auction.ID), bids); err != nil {
		return 0, err
	}
	auction.CurrentPrice = price
	if err := e.store.KVPut(auctionKey(collectionID, itemID), auction); err != nil {
		return 0, err
	}
	metrics.AuctionBid()
	e.logger.Debug("bid accepted", "auction", auction.ID, "price", price)
	e.emitter.Emit(bidPlacedEvent(auction, caller, price))
	return price, nil
}

// FinishAuction settles an expired auction. With bids, the last bidder
// wins: their lock is released, they pay the royalty and the winning price,
// and receive the escrowed item; every other bidder's lock is released and
// the trade lands in the sale history under the winning bid's time. The
// winner's unlocked balance must cover price and royalty before anything
// moves; otherwise the auction stays live with its lock intact. Without bids
// the item returns to the auction owner. Anyone may settle.
func (e *Engine) FinishAuction(collectionID, itemID, now uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	auction, ok, err := e.Auction(collectionID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuctionNotFound
	}
	if now <= auction.EndTime {
		return ErrStillLive
	}
	col, ok, err := e.items.Collection(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		return nft.ErrCollectionNotFound
	}
	bids, err := e.BidHistory(auction.ID)
	if err != nil {
		return err
	}

	outcome := "unsold"
	if len(bids) > 0 {
		outcome = "won"
		winner := bids[len(bids)-1]
		lockID := LockIDFor(auction.ID)
		fee, err := e.items.RoyaltyFee(winner.Bidder, collectionID, itemID, winner.Price, winner.Time)
		if err != nil {
			return err
		}
		if err := e.funds.RemoveLock(lockID, auction.Currency, winner.Bidder); err != nil {
			return err
		}
		total := new(big.Int).SetUint64(winner.Price)
		total.Add(total, new(big.Int).SetUint64(fee))
		spendable, err := e.spendable(auction.Currency, winner.Bidder)
		if err != nil {
			return err
		}
		if spendable.Cmp(total) < 0 {
			// The winning lock equals the winning price; restoring it
			// leaves the auction settleable once the winner is funded.
			if err := e.funds.ExtendLock(lockID, auction.Currency, winner.Bidder, new(big.Int).SetUint64(winner.Price)); err != nil {
				return err
			}
			return ErrInsufficientFunds
		}
		if err := e.items.ChargeRoyalty(winner.Bidder, collectionID, itemID, auction.Currency, winner.Price, winner.Time); err != nil {
			return err
		}
		if err := e.funds.Transfer(auction.Currency, winner.Bidder, auction.Owner, new(big.Int).SetUint64(winner.Price)); err != nil {
			return err
		}
		if err := e.releaseEscrow(col, collectionID, itemID, auction.Value, winner.Bidder); err != nil {
			return err
		}
		for _, bidder := range losingBidders(bids, winner.Bidder) {
			if err := e.funds.RemoveLock(lockID, auction.Currency, bidder); err != nil {
				return err
			}
		}
		if e.sales != nil {
			if err := e.sales.RecordSale(collectionID, itemID, trade.SaleRecord{
				Currency: auction.Currency,
				Price:    winner.Price,
				Value:    auction.Value,
				Seller:   auction.Owner,
				Buyer:    winner.Bidder,
				Time:     winner.Time,
			}); err != nil {
				return err
			}
		}
	} else {
		if err := e.releaseEscrow(col, collectionID, itemID, auction.Value, auction.Owner); err != nil {
			return err
		}
	}

	if err := e.store.KVDelete(bidsKey(auction.ID)); err != nil {
		return err
	}
	if err := e.store.KVDelete(auctionKey(collectionID, itemID)); err != nil {
		return err
	}
	metrics.AuctionClosed(outcome)
	e.logger.Debug("auction settled", "auction", auction.ID, "outcome", outcome)
	e.emitter.Emit(auctionSettledEvent(auction, outcome, bids))
	return nil
}

// CancelAuction withdraws an auction that has not yet attracted any bids and
// returns the escrowed item. Only the auction owner may cancel.
func (e *Engine) CancelAuction(caller types.Address, collectionID, itemID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	auction, ok, err := e.Auction(collectionID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuctionNotFound
	}
	if auction.Owner != caller {
		return ErrNotAuctionOwner
	}
	bids, err := e.BidHistory(auction.ID)
	if err != nil {
		return err
	}
	if len(bids) > 0 {
		return ErrHasBids
	}
	col, ok, err := e.items.Collection(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		return nft.ErrCollectionNotFound
	}
	if err := e.releaseEscrow(col, collectionID, itemID, auction.Value, auction.Owner); err != nil {
		return err
	}
	if err := e.store.KVDelete(auctionKey(collectionID, itemID)); err != nil {
		return err
	}
	metrics.AuctionClosed("cancelled")
	e.emitter.Emit(auctionCancelledEvent(auction))
	return nil
}

// Auction loads the live auction for the item, if any.
func (e *Engine) Auction(collectionID, itemID uint64) (*Auction, bool, error) {
	if e == nil || e.store == nil {
		return nil, false, ErrNilStore
	}
	var auction Auction
	ok, err := e.store.KVGet(auctionKey(collectionID, itemID), &auction)
	if err != nil || !ok {
		return nil, false, err
	}
	return &auction, true, nil
}

// HasAuction reports whether the item is held by a live auction.
func (e *Engine) HasAuction(collectionID, itemID uint64) (bool, error) {
	_, ok, err := e.Auction(collectionID, itemID)
	return ok, err
}

// BidHistory returns the accepted bids for the auction, oldest first.
func (e *Engine) BidHistory(auctionID uint64) ([]Bid, error) {
	if e == nil || e.store == nil {
		return nil, ErrNilStore
	}
	var bids []Bid
	if _, err := e.store.KVGet(bidsKey(auctionID), &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

func (e *Engine) nextAuctionID() (uint64, error) {
	var count uint64
	if _, err := e.store.KVGet(auctionCountKey(), &count); err != nil {
		return 0, err
	}
	next := count + 1
	if err := e.store.KVPut(auctionCountKey(), next); err != nil {
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

// spendable is the balance the account can transfer: free balance minus the
// frozen amount.
func (e *Engine) spendable(currency types.CurrencyID, addr types.Address) (*big.Int, error) {
	free, err := e.funds.FreeBalance(currency, addr)
	if err != nil {
		return nil, err
	}
	locked, err := e.funds.LockedBalance(currency, addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(free, locked), nil
}

// losingBidders returns the unique bidders other than the winner.
func losingBidders(bids []Bid, winner types.Address) []types.Address {
	seen := map[types.Address]bool{winner: true}
	var out []types.Address
	for _, b := range bids {
		if !seen[b.Bidder] {
			seen[b.Bidder] = true
			out = append(out, b.Bidder)
		}
	}
	return out
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}
