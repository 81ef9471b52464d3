package nft

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"uniart/core/types"
)

// CreateItem mints an item in the collection and returns its id. Collection
// owners and admins may always mint; other callers need the collection's mint
// mode enabled and must pass the white-list check. The royalty terms are
// recorded against the new item with the minting caller as beneficiary.
func (l *Ledger) CreateItem(caller types.Address, collectionID uint64, properties []byte, owner types.Address, royaltyRate uint32, royaltyExpiredAt uint64) (uint64, error) {
	col, err := l.collection(collectionID)
	if err != nil {
		return 0, err
	}
	if err := l.checkOwnerOrAdmin(col, collectionID, caller); err != nil {
		if !col.MintMode {
			return 0, ErrNotInMintMode
		}
		if err := l.checkWhiteList(col, collectionID, owner); err != nil {
			return 0, err
		}
	}
	if royaltyRate > l.royaltyCeiling {
		return 0, ErrRoyaltyRateTooHigh
	}

	itemHash, err := l.nextItemHash()
	if err != nil {
		return 0, err
	}

	var itemID uint64
	switch col.Mode.Kind {
	case ModeNFT:
		if uint64(len(properties)) > uint64(col.Mode.CustomDataSize) {
			return 0, ErrDataTooLarge
		}
		itemID, err = l.addNFTItem(collectionID, &NFTItem{
			Collection: collectionID,
			Owner:      owner,
			Data:       properties,
			Hash:       itemHash,
		})
	case ModeFungible:
		if len(properties) != 0 {
			return 0, ErrDataNotEmpty
		}
		itemID, err = l.addFungibleItem(collectionID, &FungibleItem{
			Collection: collectionID,
			Owner:      owner,
			Value:      pow10(col.Mode.DecimalPoints),
			Hash:       itemHash,
		})
	case ModeReFungible:
		if uint64(len(properties)) > uint64(col.Mode.CustomDataSize) {
			return 0, ErrDataTooLarge
		}
		itemID, err = l.addReFungibleItem(collectionID, &ReFungibleItem{
			Collection: collectionID,
			Owners:     []Ownership{{Owner: owner, Fraction: pow10(col.Mode.DecimalPoints)}},
			Data:       properties,
			Hash:       itemHash,
		})
	default:
		return 0, ErrInvalidMode
	}
	if err != nil {
		return 0, err
	}

	royalty := Royalty{Owner: caller, Rate: royaltyRate, ExpiredAt: royaltyExpiredAt}
	if err := l.store.KVPut(royaltyKey(collectionID, itemID), &royalty); err != nil {
		return 0, err
	}
	l.emitter.Emit(itemCreatedEvent(collectionID, itemID, owner))
	return itemID, nil
}

// BurnItem destroys the caller's holding of the item. For ReFungible items
// only the caller's stake is burned; the record and royalty entry disappear
// once the last stake is gone.
func (l *Ledger) BurnItem(caller types.Address, collectionID, itemID uint64) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	owns, err := l.IsItemOwner(caller, collectionID, itemID)
	if err != nil {
		return err
	}
	if !owns {
		if err := l.checkOwnerOrAdmin(col, collectionID, caller); err != nil {
			// Explicit white-list members act as collection operators here.
			member, werr := l.isWhiteListed(collectionID, caller)
			if werr != nil {
				return werr
			}
			if !member {
				return ErrNotItemOwner
			}
		}
	}

	removed := true
	switch col.Mode.Kind {
	case ModeNFT:
		err = l.burnNFTItem(collectionID, itemID)
	case ModeFungible:
		err = l.burnFungibleItem(collectionID, itemID)
	case ModeReFungible:
		removed, err = l.burnReFungibleStake(collectionID, itemID, caller)
	default:
		return ErrInvalidMode
	}
	if err != nil {
		return err
	}
	if removed {
		if err := l.store.KVDelete(royaltyKey(collectionID, itemID)); err != nil {
			return err
		}
	}
	l.emitter.Emit(itemDestroyedEvent(collectionID, itemID))
	return nil
}

// IsItemOwner reports whether subject owns the item, or for ReFungible items
// holds any stake of it. A missing item is simply not owned.
func (l *Ledger) IsItemOwner(subject types.Address, collectionID, itemID uint64) (bool, error) {
	col, err := l.collection(collectionID)
	if err != nil {
		return false, err
	}
	switch col.Mode.Kind {
	case ModeNFT:
		var item NFTItem
		ok, err := l.store.KVGet(nftItemKey(collectionID, itemID), &item)
		if err != nil || !ok {
			return false, err
		}
		return item.Owner == subject, nil
	case ModeFungible:
		var item FungibleItem
		ok, err := l.store.KVGet(fungibleItemKey(collectionID, itemID), &item)
		if err != nil || !ok {
			return false, err
		}
		return item.Owner == subject, nil
	case ModeReFungible:
		var item ReFungibleItem
		ok, err := l.store.KVGet(reFungibleItemKey(collectionID, itemID), &item)
		if err != nil || !ok {
			return false, err
		}
		for _, o := range item.Owners {
			if o.Owner == subject {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, ErrInvalidMode
	}
}

// Balance returns the total units of the collection held by addr across all
// of its item records.
func (l *Ledger) Balance(collectionID uint64, addr types.Address) (uint64, error) {
	if l == nil || l.store == nil {
		return 0, ErrNilStore
	}
	var bal uint64
	if _, err := l.store.KVGet(balanceKey(collectionID, addr), &bal); err != nil {
		return 0, err
	}
	return bal, nil
}

// OwnedItems returns the item ids addr currently holds in the collection.
func (l *Ledger) OwnedItems(collectionID uint64, addr types.Address) ([]uint64, error) {
	if l == nil || l.store == nil {
		return nil, ErrNilStore
	}
	var ids []uint64
	if _, err := l.store.KVGet(ownedKey(collectionID, addr), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// NFTItemRecord loads an NFT item record.
func (l *Ledger) NFTItemRecord(collectionID, itemID uint64) (*NFTItem, bool, error) {
	var item NFTItem
	ok, err := l.store.KVGet(nftItemKey(collectionID, itemID), &item)
	if err != nil || !ok {
		return nil, false, err
	}
	return &item, true, nil
}

// FungibleItemRecord loads a fungible item record.
func (l *Ledger) FungibleItemRecord(collectionID, itemID uint64) (*FungibleItem, bool, error) {
	var item FungibleItem
	ok, err := l.store.KVGet(fungibleItemKey(collectionID, itemID), &item)
	if err != nil || !ok {
		return nil, false, err
	}
	return &item, true, nil
}

// ReFungibleItemRecord loads a refungible item record.
func (l *Ledger) ReFungibleItemRecord(collectionID, itemID uint64) (*ReFungibleItem, bool, error) {
	var item ReFungibleItem
	ok, err := l.store.KVGet(reFungibleItemKey(collectionID, itemID), &item)
	if err != nil || !ok {
		return nil, false, err
	}
	return &item, true, nil
}

func (l *Ledger) nextItemHash() ([20]byte, error) {
	var index uint64
	if _, err := l.store.KVGet(hashIndexKey(), &index); err != nil {
		return [20]byte{}, err
	}
	next, err := addU64(index, 1)
	if err != nil {
		return [20]byte{}, err
	}
	if err := l.store.KVPut(hashIndexKey(), next); err != nil {
		return [20]byte{}, err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], next)
	sum := crypto.Keccak256(buf[:])
	var hash [20]byte
	copy(hash[:], sum[12:])
	return hash, nil
}

func (l *Ledger) nextItemID(collectionID uint64) (uint64, error) {
	var index uint64
	if _, err := l.store.KVGet(itemIndexKey(collectionID), &index); err != nil {
		return 0, err
	}
	next, err := addU64(index, 1)
	if err != nil {
		return 0, err
	}
	if err := l.store.KVPut(itemIndexKey(collectionID), next); err != nil {
		return 0, err
	}
	return next, nil
}

func (l *Ledger) addNFTItem(collectionID uint64, item *NFTItem) (uint64, error) {
	itemID, err := l.nextItemID(collectionID)
	if err != nil {
		return 0, err
	}
	if err := l.addOwnedIndex(collectionID, item.Owner, itemID); err != nil {
		return 0, err
	}
	if err := l.store.KVPut(nftItemKey(collectionID, itemID), item); err != nil {
		return 0, err
	}
	if err := l.addBalance(collectionID, item.Owner, 1); err != nil {
		return 0, err
	}
	return itemID, nil
}

func (l *Ledger) addFungibleItem(collectionID uint64, item *FungibleItem) (uint64, error) {
	itemID, err := l.nextItemID(collectionID)
	if err != nil {
		return 0, err
	}
	if err := l.addOwnedIndex(collectionID, item.Owner, itemID); err != nil {
		return 0, err
	}
	if err := l.store.KVPut(fungibleItemKey(collectionID, itemID), item); err != nil {
		return 0, err
	}
	if err := l.addBalance(collectionID, item.Owner, item.Value); err != nil {
		return 0, err
	}
	return itemID, nil
}

func (l *Ledger) addReFungibleItem(collectionID uint64, item *ReFungibleItem) (uint64, error) {
	itemID, err := l.nextItemID(collectionID)
	if err != nil {
		return 0, err
	}
	for _, o := range item.Owners {
		if err := l.addOwnedIndex(collectionID, o.Owner, itemID); err != nil {
			return 0, err
		}
		if err := l.addBalance(collectionID, o.Owner, o.Fraction); err != nil {
			return 0, err
		}
	}
	if err := l.store.KVPut(reFungibleItemKey(collectionID, itemID), item); err != nil {
		return 0, err
	}
	return itemID, nil
}

func (l *Ledger) burnNFTItem(collectionID, itemID uint64) error {
	var item NFTItem
	ok, err := l.store.KVGet(nftItemKey(collectionID, itemID), &item)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	if err := l.removeOwnedIndex(collectionID, item.Owner, itemID); err != nil {
		return err
	}
	if err := l.store.KVDelete(approvedKey(collectionID, itemID, item.Owner)); err != nil {
		return err
	}
	if err := l.subBalance(collectionID, item.Owner, 1); err != nil {
		return err
	}
	return l.store.KVDelete(nftItemKey(collectionID, itemID))
}

func (l *Ledger) burnFungibleItem(collectionID, itemID uint64) error {
	var item FungibleItem
	ok, err := l.store.KVGet(fungibleItemKey(collectionID, itemID), &item)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	if err := l.removeOwnedIndex(collectionID, item.Owner, itemID); err != nil {
		return err
	}
	if err := l.store.KVDelete(approvedKey(collectionID, itemID, item.Owner)); err != nil {
		return err
	}
	if err := l.subBalance(collectionID, item.Owner, item.Value); err != nil {
		return err
	}
	return l.store.KVDelete(fungibleItemKey(collectionID, itemID))
}

func (l *Ledger) burnReFungibleStake(collectionID, itemID uint64, owner types.Address) (bool, error) {
	var item ReFungibleItem
	ok, err := l.store.KVGet(reFungibleItemKey(collectionID, itemID), &item)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrItemNotFound
	}
	idx := -1
	for i, o := range item.Owners {
		if o.Owner == owner {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrNotItemOwner
	}
	stake := item.Owners[idx]
	if err := l.removeOwnedIndex(collectionID, owner, itemID); err != nil {
		return false, err
	}
	if err := l.store.KVDelete(approvedKey(collectionID, itemID, owner)); err != nil {
		return false, err
	}
	if err := l.subBalance(collectionID, owner, stake.Fraction); err != nil {
		return false, err
	}
	item.Owners = append(item.Owners[:idx], item.Owners[idx+1:]...)
	if len(item.Owners) == 0 {
		return true, l.store.KVDelete(reFungibleItemKey(collectionID, itemID))
	}
	return false, l.store.KVPut(reFungibleItemKey(collectionID, itemID), &item)
}

func (l *Ledger) addBalance(collectionID uint64, addr types.Address, amount uint64) error {
	var bal uint64
	if _, err := l.store.KVGet(balanceKey(collectionID, addr), &bal); err != nil {
		return err
	}
	next, err := addU64(bal, amount)
	if err != nil {
		return err
	}
	return l.store.KVPut(balanceKey(collectionID, addr), next)
}

func (l *Ledger) subBalance(collectionID uint64, addr types.Address, amount uint64) error {
	var bal uint64
	if _, err := l.store.KVGet(balanceKey(collectionID, addr), &bal); err != nil {
		return err
	}
	next, err := subU64(bal, amount)
	if err != nil {
		return err
	}
	if next == 0 {
		return l.store.KVDelete(balanceKey(collectionID, addr))
	}
	return l.store.KVPut(balanceKey(collectionID, addr), next)
}

func (l *Ledger) addOwnedIndex(collectionID uint64, addr types.Address, itemID uint64) error {
	ids, err := l.OwnedItems(collectionID, addr)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == itemID {
			return nil
		}
	}
	ids = append(ids, itemID)
	return l.store.KVPut(ownedKey(collectionID, addr), ids)
}

func (l *Ledger) removeOwnedIndex(collectionID uint64, addr types.Address, itemID uint64) error {
	ids, err := l.OwnedItems(collectionID, addr)
	if err != nil {
		return err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != itemID {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return l.store.KVDelete(ownedKey(collectionID, addr))
	}
	return l.store.KVPut(ownedKey(collectionID, addr), out)
}

func (l *Ledger) moveOwnedIndex(collectionID uint64, from, to types.Address, itemID uint64) error {
	if err := l.removeOwnedIndex(collectionID, from, itemID); err != nil {
		return err
	}
	return l.addOwnedIndex(collectionID, to, itemID)
}
