package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"uniart/core/types"
)

var (
	errNilStore = errors.New("ledger: state not configured")

	// ErrInsufficientFunds is returned when a transfer would spend more
	// than the account's unlocked balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient balance")
)

// LockID names a fund lock. Locks are keyed per (lock id, currency, account):
// extending the same id twice keeps the larger amount, and removing an id on
// one account leaves other accounts' locks under that id untouched.
type LockID = [8]byte

// Storage is the subset of state manager functionality the currency ledger
// needs.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

type balanceRecord struct {
	Amount *big.Int
}

type lockRecord struct {
	ID     LockID
	Amount *big.Int
}

// Ledger keeps multi-currency account balances with named fund locks. Locked
// funds stay on the account; they only reduce the transferable amount. The
// frozen amount of an account is the maximum of its lock amounts, so a lock
// never double-counts against overlapping locks.
type Ledger struct {
	store Storage
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store Storage) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) balance(currency types.CurrencyID, addr types.Address) (*big.Int, error) {
	if l == nil || l.store == nil {
		return nil, errNilStore
	}
	var rec balanceRecord
	ok, err := l.store.KVGet(balanceKey(currency, addr), &rec)
	if err != nil {
		return nil, err
	}
	if !ok || rec.Amount == nil {
		return big.NewInt(0), nil
	}
	return rec.Amount, nil
}

func (l *Ledger) setBalance(currency types.CurrencyID, addr types.Address, amount *big.Int) error {
	return l.store.KVPut(balanceKey(currency, addr), &balanceRecord{Amount: amount})
}

func (l *Ledger) locks(currency types.CurrencyID, addr types.Address) ([]lockRecord, error) {
	var recs []lockRecord
	if _, err := l.store.KVGet(lockKey(currency, addr), &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// FreeBalance returns the account's free balance, locked funds included.
func (l *Ledger) FreeBalance(currency types.CurrencyID, addr types.Address) (*big.Int, error) {
	bal, err := l.balance(currency, addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(bal), nil
}

// LockedBalance returns the frozen amount: the maximum over the account's
// lock amounts for the currency.
func (l *Ledger) LockedBalance(currency types.CurrencyID, addr types.Address) (*big.Int, error) {
	if l == nil || l.store == nil {
		return nil, errNilStore
	}
	recs, err := l.locks(currency, addr)
	if err != nil {
		return nil, err
	}
	frozen := big.NewInt(0)
	for _, rec := range recs {
		if rec.Amount != nil && rec.Amount.Cmp(frozen) > 0 {
			frozen = new(big.Int).Set(rec.Amount)
		}
	}
	return frozen, nil
}

// Deposit credits the account. Used by genesis construction and tests.
func (l *Ledger) Deposit(currency types.CurrencyID, addr types.Address, amount *big.Int) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("ledger: deposit amount must be non-negative")
	}
	bal, err := l.balance(currency, addr)
	if err != nil {
		return err
	}
	return l.setBalance(currency, addr, new(big.Int).Add(bal, amount))
}

// Transfer moves amount from one account to another. The sender must hold the
// amount over and above its frozen (locked) balance.
func (l *Ledger) Transfer(currency types.CurrencyID, from, to types.Address, amount *big.Int) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("ledger: transfer amount must be non-negative")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBal, err := l.balance(currency, from)
	if err != nil {
		return err
	}
	frozen, err := l.LockedBalance(currency, from)
	if err != nil {
		return err
	}
	spendable := new(big.Int).Sub(fromBal, frozen)
	if spendable.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	toBal, err := l.balance(currency, to)
	if err != nil {
		return err
	}
	if err := l.setBalance(currency, from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.setBalance(currency, to, new(big.Int).Add(toBal, amount))
}

// ExtendLock sets the named lock to at least amount. An existing lock with the
// same id keeps the larger of its current and the requested amount.
func (l *Ledger) ExtendLock(id LockID, currency types.CurrencyID, addr types.Address, amount *big.Int) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("ledger: lock amount must be non-negative")
	}
	recs, err := l.locks(currency, addr)
	if err != nil {
		return err
	}
	updated := false
	for i := range recs {
		if recs[i].ID == id {
			if recs[i].Amount == nil || recs[i].Amount.Cmp(amount) < 0 {
				recs[i].Amount = new(big.Int).Set(amount)
			}
			updated = true
			break
		}
	}
	if !updated {
		recs = append(recs, lockRecord{ID: id, Amount: new(big.Int).Set(amount)})
	}
	return l.store.KVPut(lockKey(currency, addr), recs)
}

// RemoveLock drops the named lock from the account. Removing a lock that does
// not exist is a no-op.
func (l *Ledger) RemoveLock(id LockID, currency types.CurrencyID, addr types.Address) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	recs, err := l.locks(currency, addr)
	if err != nil {
		return err
	}
	kept := recs[:0]
	for _, rec := range recs {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(recs) {
		return nil
	}
	if len(kept) == 0 {
		return l.store.KVDelete(lockKey(currency, addr))
	}
	return l.store.KVPut(lockKey(currency, addr), kept)
}
