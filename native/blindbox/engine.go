package blindbox

import (
	"io"
	"log/slog"
	"math/big"

	"uniart/core/events"
	"uniart/core/types"
	"uniart/native/nft"
)

// DrawMode selects how a card group is picked on purchase.
type DrawMode uint8

const (
	// DrawWeighted picks groups in proportion to their remaining card count.
	DrawWeighted DrawMode = iota
	// DrawUniform picks uniformly across groups regardless of their size.
	DrawUniform
)

// Box is one blind box: a priced pool of escrowed cards sold sight unseen
// during the [StartTime, EndTime] sales window.
type Box struct {
	ID        uint64
	Owner     types.Address
	Currency  types.CurrencyID
	Price     uint64
	Mode      DrawMode
	Open      bool
	StartTime uint64
	EndTime   uint64
	Remain    uint64
	Groups    []uint64
}

// CardGroup is one kind of card inside a box. Count draws remain, each
// handing Value units of the referenced item to the buyer.
type CardGroup struct {
	ID         uint64
	Box        uint64
	Collection uint64
	Item       uint64
	Value      uint64
	Count      uint64
}

// Storage captures the persistence surface the engine needs.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// ItemLedger is the slice of the item ledger the engine consumes.
type ItemLedger interface {
	Collection(id uint64) (*nft.Collection, bool, error)
	IsItemOwner(subject types.Address, collectionID, itemID uint64) (bool, error)
	OwnedItems(collectionID uint64, addr types.Address) ([]uint64, error)
	TransferNFT(collectionID, itemID uint64, sender, recipient types.Address) error
	TransferFungible(collectionID, itemID, value uint64, sender, recipient types.Address) error
	TransferReFungible(collectionID, itemID, value uint64, sender, recipient types.Address) error
}

// CurrencyLedger moves purchase proceeds between accounts. The balance
// accessors let Buy verify the buyer can pay before the draw commits.
type CurrencyLedger interface {
	FreeBalance(currency types.CurrencyID, addr types.Address) (*big.Int, error)
	LockedBalance(currency types.CurrencyID, addr types.Address) (*big.Int, error)
	Transfer(currency types.CurrencyID, from, to types.Address, amount *big.Int) error
}

// Engine sells escrowed cards through randomized blind box draws.
type Engine struct {
	store    Storage
	items    ItemLedger
	currency CurrencyLedger
	rng      Randomness
	emitter  events.Emitter
	logger   *slog.Logger
}

// NewEngine wires a blind box engine over its collaborators. Draw entropy
// defaults to BLAKE3.
func NewEngine(store Storage, items ItemLedger, currency CurrencyLedger) *Engine {
	return &Engine{
		store:    store,
		items:    items,
		currency: currency,
		rng:      Blake3Randomness{},
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

// SetRandomness overrides the entropy source. Passing nil restores BLAKE3.
func (e *Engine) SetRandomness(rng Randomness) {
	if rng == nil {
		rng = Blake3Randomness{}
	}
	e.rng = rng
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil {
		return ErrNilStore
	}
	if e.items == nil || e.currency == nil || e.rng == nil {
		return ErrNilCollaborator
	}
	return nil
}

// CreateBox registers an empty, closed blind box selling during the
// [startTime, endTime] window and returns its id. A price of zero makes the
// box free and restricts draws to the owner.
func (e *Engine) CreateBox(caller types.Address, startTime, endTime uint64, currency types.CurrencyID, price uint64, mode DrawMode) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if endTime < startTime {
		return 0, ErrNotOnSale
	}
	var count uint64
	if _, err := e.store.KVGet(boxCountKey(), &count); err != nil {
		return 0, err
	}
	next := count + 1
	if next == 0 {
		return 0, ErrArithmetic
	}
	if err := e.store.KVPut(boxCountKey(), next); err != nil {
		return 0, err
	}
	box := Box{ID: next, Owner: caller, Currency: currency, Price: price, Mode: mode, StartTime: startTime, EndTime: endTime}
	if err := e.store.KVPut(boxKey(next), &box); err != nil {
		return 0, err
	}
	e.emitter.Emit(boxCreatedEvent(&box))
	return next, nil
}

// AddCardGroup escrows count draws of value units each from the caller's
// holding into the box. The box must be closed while its contents change.
func (e *Engine) AddCardGroup(caller types.Address, boxID, collectionID, itemID, value, count uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	box, err := e.box(boxID)
	if err != nil {
		return 0, err
	}
	if box.Owner != caller {
		return 0, ErrNotBoxOwner
	}
	if box.Open {
		return 0, ErrBoxOpen
	}
	if value == 0 || count == 0 {
		return 0, ErrInvalidCount
	}
	col, ok, err := e.items.Collection(collectionID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nft.ErrCollectionNotFound
	}
	total, err := mulU64(value, count)
	if err != nil {
		return 0, err
	}
	if col.Mode.Kind == nft.ModeNFT {
		if value != 1 || count != 1 {
			return 0, ErrInvalidCount
		}
		total = 1
	}
	if err := e.transferItem(col, collectionID, itemID, total, caller, nft.ModuleAddress()); err != nil {
		return 0, err
	}

	var groupCount uint64
	if _, err := e.store.KVGet(groupCountKey(), &groupCount); err != nil {
		return 0, err
	}
	groupID := groupCount + 1
	if groupID == 0 {
		return 0, ErrArithmetic
	}
	if err := e.store.KVPut(groupCountKey(), groupID); err != nil {
		return 0, err
	}
	group := CardGroup{ID: groupID, Box: boxID, Collection: collectionID, Item: itemID, Value: value, Count: count}
	if err := e.store.KVPut(groupKey(groupID), &group); err != nil {
		return 0, err
	}
	remain, err := addU64(box.Remain, count)
	if err != nil {
		return 0, err
	}
	box.Remain = remain
	box.Groups = append(box.Groups, groupID)
	if err := e.store.KVPut(boxKey(boxID), box); err != nil {
		return 0, err
	}
	e.emitter.Emit(groupAddedEvent(box, &group))
	return groupID, nil
}

// RemoveCardGroup returns a group's remaining escrow to the box owner and
// drops the group. The box must be closed.
func (e *Engine) RemoveCardGroup(caller types.Address, groupID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	group, err := e.group(groupID)
	if err != nil {
		return err
	}
	box, err := e.box(group.Box)
	if err != nil {
		return err
	}
	if box.Owner != caller {
		return ErrNotBoxOwner
	}
	if box.Open {
		return ErrBoxOpen
	}
	if err := e.refundGroup(box, group); err != nil {
		return err
	}
	return e.detachGroup(box, group)
}

// OpenBox opens the box for purchases.
func (e *Engine) OpenBox(caller types.Address, boxID uint64) error {
	return e.setOpen(caller, boxID, true)
}

// CloseBox suspends purchases.
func (e *Engine) CloseBox(caller types.Address, boxID uint64) error {
	return e.setOpen(caller, boxID, false)
}

func (e *Engine) setOpen(caller types.Address, boxID uint64, open bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	box, err := e.box(boxID)
	if err != nil {
		return err
	}
	if box.Owner != caller {
		return ErrNotBoxOwner
	}
	if box.Open == open {
		return nil
	}
	box.Open = open
	if err := e.store.KVPut(boxKey(boxID), box); err != nil {
		return err
	}
	e.emitter.Emit(boxToggledEvent(box))
	return nil
}

// Buy purchases one draw inside the sales window: the buyer pays the box
// price, a group is drawn by the box's draw mode, and one card's worth of
// the group's item leaves escrow for receive. A zero receive delivers to
// the caller. Free boxes only serve their owner. Returns the drawn group id.
func (e *Engine) Buy(caller types.Address, boxID uint64, receive types.Address, now uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	box, err := e.box(boxID)
	if err != nil {
		return 0, err
	}
	if now < box.StartTime || now > box.EndTime {
		return 0, ErrNotOnSale
	}
	if !box.Open {
		return 0, ErrBoxClosed
	}
	if box.Remain == 0 {
		return 0, ErrBoxEmpty
	}
	if box.Price == 0 && caller != box.Owner {
		return 0, ErrNotBoxOwner
	}
	if receive == (types.Address{}) {
		receive = caller
	}
	if box.Price > 0 {
		free, err := e.currency.FreeBalance(box.Currency, caller)
		if err != nil {
			return 0, err
		}
		locked, err := e.currency.LockedBalance(box.Currency, caller)
		if err != nil {
			return 0, err
		}
		if new(big.Int).Sub(free, locked).Cmp(new(big.Int).SetUint64(box.Price)) < 0 {
			return 0, ErrInsufficientFunds
		}
	}

	group, err := e.draw(box)
	if err != nil {
		return 0, err
	}
	if box.Price > 0 {
		if err := e.currency.Transfer(box.Currency, caller, box.Owner, new(big.Int).SetUint64(box.Price)); err != nil {
			return 0, err
		}
	}
	col, ok, err := e.items.Collection(group.Collection)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nft.ErrCollectionNotFound
	}
	if err := e.releaseEscrow(col, group.Collection, group.Item, group.Value, receive); err != nil {
		return 0, err
	}

	group.Count--
	box.Remain--
	if group.Count == 0 {
		if err := e.detachGroup(box, group); err != nil {
			return 0, err
		}
	} else {
		if err := e.store.KVPut(groupKey(group.ID), group); err != nil {
			return 0, err
		}
		if err := e.store.KVPut(boxKey(box.ID), box); err != nil {
			return 0, err
		}
	}
	e.logger.Debug("blind box draw", "box", box.ID, "group", group.ID, "buyer", receive)
	e.emitter.Emit(boxPurchasedEvent(box, group, receive))
	return group.ID, nil
}

// CancelBox refunds every remaining card group to the owner and deletes the
// box. The box must be closed.
func (e *Engine) CancelBox(caller types.Address, boxID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	box, err := e.box(boxID)
	if err != nil {
		return err
	}
	if box.Owner != caller {
		return ErrNotBoxOwner
	}
	if box.Open {
		return ErrBoxOpen
	}
	for _, groupID := range box.Groups {
		group, err := e.group(groupID)
		if err != nil {
			return err
		}
		if err := e.refundGroup(box, group); err != nil {
			return err
		}
		if err := e.store.KVDelete(groupKey(groupID)); err != nil {
			return err
		}
	}
	if err := e.store.KVDelete(boxKey(boxID)); err != nil {
		return err
	}
	e.emitter.Emit(boxCancelledEvent(box))
	return nil
}

// BoxRecord loads a blind box by id.
func (e *Engine) BoxRecord(boxID uint64) (*Box, bool, error) {
	if e == nil || e.store == nil {
		return nil, false, ErrNilStore
	}
	var box Box
	ok, err := e.store.KVGet(boxKey(boxID), &box)
	if err != nil || !ok {
		return nil, false, err
	}
	return &box, true, nil
}

// GroupRecord loads a card group by id.
func (e *Engine) GroupRecord(groupID uint64) (*CardGroup, bool, error) {
	if e == nil || e.store == nil {
		return nil, false, ErrNilStore
	}
	var group CardGroup
	ok, err := e.store.KVGet(groupKey(groupID), &group)
	if err != nil || !ok {
		return nil, false, err
	}
	return &group, true, nil
}

func (e *Engine) box(boxID uint64) (*Box, error) {
	box, ok, err := e.BoxRecord(boxID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBoxNotFound
	}
	return box, nil
}

func (e *Engine) group(groupID uint64) (*CardGroup, error) {
	group, ok, err := e.GroupRecord(groupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// draw picks a card group according to the box draw mode using the stored
// seed counter, which advances on every draw.
func (e *Engine) draw(box *Box) (*CardGroup, error) {
	var seed uint64
	if _, err := e.store.KVGet(seedKey(), &seed); err != nil {
		return nil, err
	}
	seed++
	if err := e.store.KVPut(seedKey(), seed); err != nil {
		return nil, err
	}

	switch box.Mode {
	case DrawUniform:
		idx, err := drawIndex(e.rng, seed, uint64(len(box.Groups)))
		if err != nil {
			return nil, err
		}
		return e.group(box.Groups[idx])
	default:
		idx, err := drawIndex(e.rng, seed, box.Remain)
		if err != nil {
			return nil, err
		}
		for _, groupID := range box.Groups {
			group, err := e.group(groupID)
			if err != nil {
				return nil, err
			}
			if idx < group.Count {
				return group, nil
			}
			idx -= group.Count
		}
		return nil, ErrBoxEmpty
	}
}

func (e *Engine) refundGroup(box *Box, group *CardGroup) error {
	if group.Count == 0 {
		return nil
	}
	col, ok, err := e.items.Collection(group.Collection)
	if err != nil {
		return err
	}
	if !ok {
		return nft.ErrCollectionNotFound
	}
	total, err := mulU64(group.Value, group.Count)
	if err != nil {
		return err
	}
	return e.releaseEscrow(col, group.Collection, group.Item, total, box.Owner)
}

// detachGroup removes the group from the box and deletes its record.
func (e *Engine) detachGroup(box *Box, group *CardGroup) error {
	groups := box.Groups[:0]
	for _, id := range box.Groups {
		if id != group.ID {
			groups = append(groups, id)
		}
	}
	box.Groups = groups
	remaining, err := subU64(box.Remain, group.Count)
	if err != nil {
		return err
	}
	box.Remain = remaining
	if err := e.store.KVDelete(groupKey(group.ID)); err != nil {
		return err
	}
	return e.store.KVPut(boxKey(box.ID), box)
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

func addU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmetic
	}
	return sum, nil
}

func subU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmetic
	}
	return a - b, nil
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
