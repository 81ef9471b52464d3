package nft

import (
	"uniart/core/types"
)

// Transfer moves value units of the item from the caller to recipient. NFT
// items always move whole, so value is ignored for them. Non-owners are
// rejected by the mode-specific primitive; both parties must satisfy the
// collection access policy.
func (l *Ledger) Transfer(caller, recipient types.Address, collectionID, itemID, value uint64) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if err := l.checkWhiteList(col, collectionID, caller); err != nil {
		return err
	}
	if err := l.checkWhiteList(col, collectionID, recipient); err != nil {
		return err
	}
	if err := l.transferByMode(col, collectionID, itemID, value, caller, recipient); err != nil {
		return err
	}
	l.emitter.Emit(itemTransferredEvent(collectionID, itemID, caller, recipient, value))
	return nil
}

// TransferNFT re-points a single-owner item from sender to recipient. The
// sender must be the current owner. Outstanding approvals granted by the old
// owner are revoked.
func (l *Ledger) TransferNFT(collectionID, itemID uint64, sender, recipient types.Address) error {
	var item NFTItem
	ok, err := l.store.KVGet(nftItemKey(collectionID, itemID), &item)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	if item.Owner != sender {
		return ErrNotItemOwner
	}
	if err := l.subBalance(collectionID, sender, 1); err != nil {
		return err
	}
	if err := l.addBalance(collectionID, recipient, 1); err != nil {
		return err
	}
	if err := l.moveOwnedIndex(collectionID, sender, recipient, itemID); err != nil {
		return err
	}
	if err := l.store.KVDelete(approvedKey(collectionID, itemID, sender)); err != nil {
		return err
	}
	item.Owner = recipient
	return l.store.KVPut(nftItemKey(collectionID, itemID), &item)
}

// TransferFungible moves value units out of the sender's holding. When the
// full amount moves and the recipient has no holding in the collection the
// record is re-pointed; otherwise the amount is merged into the recipient's
// record, or a fresh record is minted for them. A source record drained to
// zero is removed.
func (l *Ledger) TransferFungible(collectionID, itemID, value uint64, sender, recipient types.Address) error {
	var item FungibleItem
	ok, err := l.store.KVGet(fungibleItemKey(collectionID, itemID), &item)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	if item.Owner != sender {
		return ErrNotItemOwner
	}
	if item.Value < value {
		return ErrItemBalanceTooLow
	}
	if sender == recipient {
		return nil
	}

	recipientItems, err := l.OwnedItems(collectionID, recipient)
	if err != nil {
		return err
	}

	if item.Value == value && len(recipientItems) == 0 {
		// Whole holding moves to an empty account: re-point the record.
		if err := l.subBalance(collectionID, sender, value); err != nil {
			return err
		}
		if err := l.addBalance(collectionID, recipient, value); err != nil {
			return err
		}
		if err := l.moveOwnedIndex(collectionID, sender, recipient, itemID); err != nil {
			return err
		}
		if err := l.store.KVDelete(approvedKey(collectionID, itemID, sender)); err != nil {
			return err
		}
		item.Owner = recipient
		return l.store.KVPut(fungibleItemKey(collectionID, itemID), &item)
	}

	if len(recipientItems) > 0 {
		targetID := recipientItems[0]
		var target FungibleItem
		ok, err := l.store.KVGet(fungibleItemKey(collectionID, targetID), &target)
		if err != nil {
			return err
		}
		if !ok {
			return ErrItemNotFound
		}
		merged, err := addU64(target.Value, value)
		if err != nil {
			return err
		}
		target.Value = merged
		if err := l.store.KVPut(fungibleItemKey(collectionID, targetID), &target); err != nil {
			return err
		}
		if err := l.addBalance(collectionID, recipient, value); err != nil {
			return err
		}
	} else {
		if _, err := l.addFungibleItem(collectionID, &FungibleItem{
			Collection: collectionID,
			Owner:      recipient,
			Value:      value,
			Hash:       item.Hash,
		}); err != nil {
			return err
		}
	}

	if err := l.subBalance(collectionID, sender, value); err != nil {
		return err
	}
	if item.Value == value {
		if err := l.removeOwnedIndex(collectionID, sender, itemID); err != nil {
			return err
		}
		if err := l.store.KVDelete(approvedKey(collectionID, itemID, sender)); err != nil {
			return err
		}
		return l.store.KVDelete(fungibleItemKey(collectionID, itemID))
	}
	item.Value -= value
	return l.store.KVPut(fungibleItemKey(collectionID, itemID), &item)
}

// TransferReFungible moves value units of the sender's stake to recipient
// inside the shared record. A full stake moving to an address with no
// existing stake re-points the ownership entry; otherwise entries are
// adjusted and a drained entry is removed.
func (l *Ledger) TransferReFungible(collectionID, itemID, value uint64, sender, recipient types.Address) error {
	var item ReFungibleItem
	ok, err := l.store.KVGet(reFungibleItemKey(collectionID, itemID), &item)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	senderIdx, recipientIdx := -1, -1
	for i, o := range item.Owners {
		switch o.Owner {
		case sender:
			senderIdx = i
		case recipient:
			recipientIdx = i
		}
	}
	if senderIdx < 0 {
		return ErrNotItemOwner
	}
	if item.Owners[senderIdx].Fraction < value {
		return ErrItemBalanceTooLow
	}
	if sender == recipient {
		return nil
	}

	if err := l.subBalance(collectionID, sender, value); err != nil {
		return err
	}
	if err := l.addBalance(collectionID, recipient, value); err != nil {
		return err
	}

	if item.Owners[senderIdx].Fraction == value && recipientIdx < 0 {
		item.Owners[senderIdx].Owner = recipient
		if err := l.moveOwnedIndex(collectionID, sender, recipient, itemID); err != nil {
			return err
		}
		if err := l.store.KVDelete(approvedKey(collectionID, itemID, sender)); err != nil {
			return err
		}
		return l.store.KVPut(reFungibleItemKey(collectionID, itemID), &item)
	}

	if recipientIdx >= 0 {
		merged, err := addU64(item.Owners[recipientIdx].Fraction, value)
		if err != nil {
			return err
		}
		item.Owners[recipientIdx].Fraction = merged
	} else {
		item.Owners = append(item.Owners, Ownership{Owner: recipient, Fraction: value})
		if err := l.addOwnedIndex(collectionID, recipient, itemID); err != nil {
			return err
		}
	}

	item.Owners[senderIdx].Fraction -= value
	if item.Owners[senderIdx].Fraction == 0 {
		item.Owners = append(item.Owners[:senderIdx], item.Owners[senderIdx+1:]...)
		if err := l.removeOwnedIndex(collectionID, sender, itemID); err != nil {
			return err
		}
		if err := l.store.KVDelete(approvedKey(collectionID, itemID, sender)); err != nil {
			return err
		}
	}
	return l.store.KVPut(reFungibleItemKey(collectionID, itemID), &item)
}

// Approve grants spender the right to move up to amount units of the
// caller's item via TransferFrom. A repeated approval for the same spender
// replaces the recorded amount.
func (l *Ledger) Approve(caller, spender types.Address, collectionID, itemID, amount uint64) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	owns, err := l.IsItemOwner(caller, collectionID, itemID)
	if err != nil {
		return err
	}
	if !owns {
		return ErrNotItemOwner
	}
	if err := l.checkWhiteList(col, collectionID, spender); err != nil {
		return err
	}
	list, err := l.approvals(collectionID, itemID, caller)
	if err != nil {
		return err
	}
	found := false
	for i := range list {
		if list[i].Approved == spender {
			list[i].Amount = amount
			found = true
			break
		}
	}
	if !found {
		list = append(list, ApprovePermission{Approved: spender, Amount: amount})
	}
	return l.store.KVPut(approvedKey(collectionID, itemID, caller), list)
}

// TransferFrom moves value units of from's item to recipient, consuming the
// caller's approval. The approval is single use and is removed even when it
// covered more than value.
func (l *Ledger) TransferFrom(caller, from, recipient types.Address, collectionID, itemID, value uint64) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	list, err := l.approvals(collectionID, itemID, from)
	if err != nil {
		return err
	}
	idx := -1
	for i := range list {
		if list[i].Approved == caller {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotApproved
	}
	if list[idx].Amount < value {
		return ErrApprovedAmountTooLow
	}
	if err := l.checkWhiteList(col, collectionID, from); err != nil {
		return err
	}
	if err := l.checkWhiteList(col, collectionID, recipient); err != nil {
		return err
	}

	list = append(list[:idx], list[idx+1:]...)
	if len(list) == 0 {
		if err := l.store.KVDelete(approvedKey(collectionID, itemID, from)); err != nil {
			return err
		}
	} else {
		if err := l.store.KVPut(approvedKey(collectionID, itemID, from), list); err != nil {
			return err
		}
	}

	if err := l.transferByMode(col, collectionID, itemID, value, from, recipient); err != nil {
		return err
	}
	l.emitter.Emit(itemTransferredEvent(collectionID, itemID, from, recipient, value))
	return nil
}

// SafeTransferFrom moves the caller's whole item to newOwner, but only when
// the caller previously approved newOwner for it.
func (l *Ledger) SafeTransferFrom(caller, newOwner types.Address, collectionID, itemID uint64) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	list, err := l.approvals(collectionID, itemID, caller)
	if err != nil {
		return err
	}
	approved := false
	var amount uint64
	for _, p := range list {
		if p.Approved == newOwner {
			approved = true
			amount = p.Amount
			break
		}
	}
	if !approved {
		return ErrNotApproved
	}
	if err := l.transferByMode(col, collectionID, itemID, amount, caller, newOwner); err != nil {
		return err
	}
	l.emitter.Emit(itemTransferredEvent(collectionID, itemID, caller, newOwner, amount))
	return nil
}

func (l *Ledger) transferByMode(col *Collection, collectionID, itemID, value uint64, from, to types.Address) error {
	switch col.Mode.Kind {
	case ModeNFT:
		return l.TransferNFT(collectionID, itemID, from, to)
	case ModeFungible:
		return l.TransferFungible(collectionID, itemID, value, from, to)
	case ModeReFungible:
		return l.TransferReFungible(collectionID, itemID, value, from, to)
	default:
		return ErrInvalidMode
	}
}

func (l *Ledger) approvals(collectionID, itemID uint64, owner types.Address) ([]ApprovePermission, error) {
	var list []ApprovePermission
	if _, err := l.store.KVGet(approvedKey(collectionID, itemID, owner), &list); err != nil {
		return nil, err
	}
	return list, nil
}
