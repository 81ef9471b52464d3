package nft

import (
	"math/big"

	"uniart/core/types"
)

// ItemRoyalty loads the royalty terms recorded for the item.
func (l *Ledger) ItemRoyalty(collectionID, itemID uint64) (*Royalty, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, ErrNilStore
	}
	var royalty Royalty
	ok, err := l.store.KVGet(royaltyKey(collectionID, itemID), &royalty)
	if err != nil || !ok {
		return nil, false, err
	}
	return &royalty, true, nil
}

// RoyaltyFee returns the royalty a sale of the item at price would charge the
// buyer at the given height. Zero when no royalty is recorded, the terms have
// expired, the buyer is the royalty owner, or the fee rounds to zero.
// Settlement engines quote the fee through this before moving any funds.
func (l *Ledger) RoyaltyFee(buyer types.Address, collectionID, itemID uint64, price, now uint64) (uint64, error) {
	if l == nil || l.store == nil {
		return 0, ErrNilStore
	}
	royalty, ok, err := l.ItemRoyalty(collectionID, itemID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return royaltyFeeFor(royalty, buyer, price, now)
}

func royaltyFeeFor(royalty *Royalty, buyer types.Address, price, now uint64) (uint64, error) {
	if royalty.Rate == 0 || royalty.ExpiredAt < now || buyer == royalty.Owner {
		return 0, nil
	}
	product, err := mulU64(price, uint64(royalty.Rate))
	if err != nil {
		return 0, err
	}
	return product / uint64(DefaultRoyaltyCeiling), nil
}

// ChargeRoyalty settles the royalty due on a sale of the item at price, paid
// by buyer in the given currency. Nothing is charged when no royalty is
// recorded, the terms have expired, or the computed fee rounds to zero.
func (l *Ledger) ChargeRoyalty(buyer types.Address, collectionID, itemID uint64, currency types.CurrencyID, price uint64, now uint64) error {
	if l == nil || l.store == nil {
		return ErrNilStore
	}
	royalty, ok, err := l.ItemRoyalty(collectionID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	fee, err := royaltyFeeFor(royalty, buyer, price, now)
	if err != nil {
		return err
	}
	if fee == 0 {
		return nil
	}
	if l.currency == nil {
		return ErrNilCurrency
	}
	if err := l.currency.Transfer(currency, buyer, royalty.Owner, new(big.Int).SetUint64(fee)); err != nil {
		return err
	}
	l.emitter.Emit(royaltyChargedEvent(collectionID, itemID, buyer, royalty.Owner, currency, fee))
	return nil
}
