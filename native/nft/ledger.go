package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"uniart/core/events"
	"uniart/core/types"
)

// ModuleID identifies the custodial account shared by the marketplace
// modules. Items and funds held in escrow are parked under ModuleAddress.
const ModuleID = "uart/nftm"

// DefaultRoyaltyCeiling is the maximum royalty rate in basis points.
const DefaultRoyaltyCeiling uint32 = 10000

const (
	maxNameBytes        = 64
	maxDescriptionBytes = 256
	maxTokenPrefixBytes = 16
	maxDecimalPoints    = 4
)

// ModuleAddress derives the custodial account from ModuleID. The derivation
// is a pure function of the constant, so every node computes the same
// address and no key material exists for it.
func ModuleAddress() types.Address {
	sum := crypto.Keccak256([]byte("modl" + ModuleID))
	var addr types.Address
	copy(addr[:], sum[12:])
	return addr
}

// Storage captures the persistence surface the ledger needs.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVDeletePrefix(prefix []byte) error
}

// CurrencyLedger moves funds between accounts. Royalty settlement is the only
// currency movement this package performs itself.
type CurrencyLedger interface {
	Transfer(currency types.CurrencyID, from, to types.Address, amount *big.Int) error
}

// Ledger implements the collection registry and the item ledger.
type Ledger struct {
	store          Storage
	currency       CurrencyLedger
	emitter        events.Emitter
	royaltyCeiling uint32
}

// NewLedger wires a ledger over the provided storage and currency
// collaborator.
func NewLedger(store Storage, currency CurrencyLedger) *Ledger {
	return &Ledger{
		store:          store,
		currency:       currency,
		emitter:        events.NoopEmitter{},
		royaltyCeiling: DefaultRoyaltyCeiling,
	}
}

// SetEmitter configures the event sink. Passing nil restores the no-op sink.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.emitter = emitter
}

// SetRoyaltyCeiling overrides the maximum accepted royalty rate. Zero resets
// the ceiling to the default.
func (l *Ledger) SetRoyaltyCeiling(ceiling uint32) {
	if ceiling == 0 {
		ceiling = DefaultRoyaltyCeiling
	}
	l.royaltyCeiling = ceiling
}

// Collection loads the registry record for id.
func (l *Ledger) Collection(id uint64) (*Collection, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, ErrNilStore
	}
	var col Collection
	ok, err := l.store.KVGet(collectionKey(id), &col)
	if err != nil || !ok {
		return nil, false, err
	}
	return &col, true, nil
}

func (l *Ledger) collection(id uint64) (*Collection, error) {
	col, ok, err := l.Collection(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return col, nil
}

// CreateCollection registers a new collection owned by the caller and returns
// its id. Ids are assigned from a monotonic counter starting at 1.
func (l *Ledger) CreateCollection(caller types.Address, name, description string, tokenPrefix []byte, mode Mode) (uint64, error) {
	if l == nil || l.store == nil {
		return 0, ErrNilStore
	}
	if !mode.Valid() {
		return 0, ErrInvalidMode
	}
	switch mode.Kind {
	case ModeFungible, ModeReFungible:
		if mode.DecimalPoints > maxDecimalPoints {
			return 0, ErrDecimalPointsTooLarge
		}
	}
	// Limits count the traditional string terminator, matching the wire
	// bounds of the original chain format.
	if len(name)+1 > maxNameBytes {
		return 0, ErrNameTooLong
	}
	if len(description)+1 > maxDescriptionBytes {
		return 0, ErrDescriptionTooLong
	}
	if len(tokenPrefix)+1 > maxTokenPrefixBytes {
		return 0, ErrTokenPrefixTooLong
	}

	var count uint64
	if _, err := l.store.KVGet(collectionCountKey(), &count); err != nil {
		return 0, err
	}
	next, err := addU64(count, 1)
	if err != nil {
		return 0, err
	}
	col := Collection{
		Owner:       caller,
		Mode:        mode,
		Access:      AccessNormal,
		Name:        name,
		Description: description,
		TokenPrefix: tokenPrefix,
		MintMode:    false,
	}
	if err := l.store.KVPut(collectionCountKey(), next); err != nil {
		return 0, err
	}
	if err := l.store.KVPut(collectionKey(next), &col); err != nil {
		return 0, err
	}
	l.emitter.Emit(collectionCreatedEvent(next, mode.Kind, caller))
	return next, nil
}

// DestroyCollection removes the collection and purges its dependent storage.
// Only the collection owner may destroy it.
func (l *Ledger) DestroyCollection(caller types.Address, collectionID uint64) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if col.Owner != caller {
		return ErrNotCollectionOwner
	}
	if err := l.store.KVDeletePrefix(ownedPrefixKey(collectionID)); err != nil {
		return err
	}
	if err := l.store.KVDeletePrefix(approvedPrefixKey(collectionID)); err != nil {
		return err
	}
	if err := l.store.KVDeletePrefix(balancePrefixKey(collectionID)); err != nil {
		return err
	}
	for _, prefix := range [][]byte{
		[]byte(itemPrefix + "n/" + u64s(collectionID) + "/"),
		[]byte(itemPrefix + "f/" + u64s(collectionID) + "/"),
		[]byte(itemPrefix + "r/" + u64s(collectionID) + "/"),
		[]byte(royaltyPrefix + u64s(collectionID) + "/"),
	} {
		if err := l.store.KVDeletePrefix(prefix); err != nil {
			return err
		}
	}
	if err := l.store.KVDelete(itemIndexKey(collectionID)); err != nil {
		return err
	}
	if err := l.store.KVDelete(adminsKey(collectionID)); err != nil {
		return err
	}
	if err := l.store.KVDelete(whiteListKey(collectionID)); err != nil {
		return err
	}
	if err := l.store.KVDelete(collectionKey(collectionID)); err != nil {
		return err
	}
	l.emitter.Emit(collectionDestroyedEvent(collectionID, caller))
	return nil
}

// ChangeCollectionOwner hands the collection to a new owner.
func (l *Ledger) ChangeCollectionOwner(caller types.Address, collectionID uint64, newOwner types.Address) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if col.Owner != caller {
		return ErrNotCollectionOwner
	}
	col.Owner = newOwner
	if err := l.store.KVPut(collectionKey(collectionID), col); err != nil {
		return err
	}
	l.emitter.Emit(collectionUpdatedEvent(collectionID, "owner"))
	return nil
}

// SetPublicAccessMode switches the collection between normal and
// white-list-gated access.
func (l *Ledger) SetPublicAccessMode(caller types.Address, collectionID uint64, access AccessMode) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if col.Owner != caller {
		return ErrNotCollectionOwner
	}
	col.Access = access
	if err := l.store.KVPut(collectionKey(collectionID), col); err != nil {
		return err
	}
	l.emitter.Emit(collectionUpdatedEvent(collectionID, "access"))
	return nil
}

// SetMintPermission toggles public minting for the collection.
func (l *Ledger) SetMintPermission(caller types.Address, collectionID uint64, mintMode bool) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if col.Owner != caller {
		return ErrNotCollectionOwner
	}
	col.MintMode = mintMode
	if err := l.store.KVPut(collectionKey(collectionID), col); err != nil {
		return err
	}
	l.emitter.Emit(collectionUpdatedEvent(collectionID, "mintMode"))
	return nil
}

// SetOffchainSchema replaces the collection's off-chain metadata schema. The
// owner and admins may update it.
func (l *Ledger) SetOffchainSchema(caller types.Address, collectionID uint64, schema []byte) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if err := l.checkOwnerOrAdmin(col, collectionID, caller); err != nil {
		return err
	}
	col.OffchainSchema = schema
	if err := l.store.KVPut(collectionKey(collectionID), col); err != nil {
		return err
	}
	l.emitter.Emit(collectionUpdatedEvent(collectionID, "offchainSchema"))
	return nil
}

// AddCollectionAdmin grants admin rights on the collection.
func (l *Ledger) AddCollectionAdmin(caller types.Address, collectionID uint64, admin types.Address) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if err := l.checkOwnerOrAdmin(col, collectionID, caller); err != nil {
		return err
	}
	admins, err := l.adminList(collectionID)
	if err != nil {
		return err
	}
	if containsAddress(admins, admin) {
		return nil
	}
	admins = append(admins, admin)
	return l.store.KVPut(adminsKey(collectionID), admins)
}

// RemoveCollectionAdmin revokes admin rights on the collection.
func (l *Ledger) RemoveCollectionAdmin(caller types.Address, collectionID uint64, admin types.Address) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if err := l.checkOwnerOrAdmin(col, collectionID, caller); err != nil {
		return err
	}
	admins, err := l.adminList(collectionID)
	if err != nil {
		return err
	}
	filtered := removeAddress(admins, admin)
	if len(filtered) == len(admins) {
		return nil
	}
	if len(filtered) == 0 {
		return l.store.KVDelete(adminsKey(collectionID))
	}
	return l.store.KVPut(adminsKey(collectionID), filtered)
}

// AddToWhiteList admits an address to the collection white list.
func (l *Ledger) AddToWhiteList(caller types.Address, collectionID uint64, addr types.Address) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if err := l.checkOwnerOrAdmin(col, collectionID, caller); err != nil {
		return err
	}
	list, err := l.whiteList(collectionID)
	if err != nil {
		return err
	}
	if containsAddress(list, addr) {
		return nil
	}
	list = append(list, addr)
	return l.store.KVPut(whiteListKey(collectionID), list)
}

// RemoveFromWhiteList drops an address from the collection white list.
func (l *Ledger) RemoveFromWhiteList(caller types.Address, collectionID uint64, addr types.Address) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if err := l.checkOwnerOrAdmin(col, collectionID, caller); err != nil {
		return err
	}
	list, err := l.whiteList(collectionID)
	if err != nil {
		return err
	}
	filtered := removeAddress(list, addr)
	if len(filtered) == len(list) {
		return nil
	}
	if len(filtered) == 0 {
		return l.store.KVDelete(whiteListKey(collectionID))
	}
	return l.store.KVPut(whiteListKey(collectionID), filtered)
}

// SetCollectionSponsor records a pending sponsor. Sponsorship only takes
// effect once the sponsor confirms.
func (l *Ledger) SetCollectionSponsor(caller types.Address, collectionID uint64, sponsor types.Address) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if col.Owner != caller {
		return ErrNotCollectionOwner
	}
	col.UnconfirmedSponsor = sponsor
	if err := l.store.KVPut(collectionKey(collectionID), col); err != nil {
		return err
	}
	l.emitter.Emit(collectionUpdatedEvent(collectionID, "sponsor"))
	return nil
}

// ConfirmSponsorship is called by the pending sponsor to accept the role.
func (l *Ledger) ConfirmSponsorship(caller types.Address, collectionID uint64) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if col.UnconfirmedSponsor != caller {
		return ErrNotSponsor
	}
	col.Sponsor = caller
	col.UnconfirmedSponsor = types.Address{}
	if err := l.store.KVPut(collectionKey(collectionID), col); err != nil {
		return err
	}
	l.emitter.Emit(collectionUpdatedEvent(collectionID, "sponsor"))
	return nil
}

// RemoveCollectionSponsor clears both the confirmed and the pending sponsor.
func (l *Ledger) RemoveCollectionSponsor(caller types.Address, collectionID uint64) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	if col.Owner != caller {
		return ErrNotCollectionOwner
	}
	col.Sponsor = types.Address{}
	col.UnconfirmedSponsor = types.Address{}
	if err := l.store.KVPut(collectionKey(collectionID), col); err != nil {
		return err
	}
	l.emitter.Emit(collectionUpdatedEvent(collectionID, "sponsor"))
	return nil
}

// IsCollectionAdmin reports whether addr is on the collection admin list.
func (l *Ledger) IsCollectionAdmin(collectionID uint64, addr types.Address) (bool, error) {
	admins, err := l.adminList(collectionID)
	if err != nil {
		return false, err
	}
	return containsAddress(admins, addr), nil
}

// CheckWhiteList enforces the collection access policy for addr: the check
// fails only when the collection is in white-list mode and addr is absent.
func (l *Ledger) CheckWhiteList(collectionID uint64, addr types.Address) error {
	col, err := l.collection(collectionID)
	if err != nil {
		return err
	}
	return l.checkWhiteList(col, collectionID, addr)
}

func (l *Ledger) checkWhiteList(col *Collection, collectionID uint64, addr types.Address) error {
	if col.Access != AccessWhiteList {
		return nil
	}
	list, err := l.whiteList(collectionID)
	if err != nil {
		return err
	}
	if !containsAddress(list, addr) {
		return ErrNotWhiteListed
	}
	return nil
}

func (l *Ledger) isWhiteListed(collectionID uint64, addr types.Address) (bool, error) {
	list, err := l.whiteList(collectionID)
	if err != nil {
		return false, err
	}
	return containsAddress(list, addr), nil
}

func (l *Ledger) checkOwnerOrAdmin(col *Collection, collectionID uint64, addr types.Address) error {
	if col.Owner == addr {
		return nil
	}
	admins, err := l.adminList(collectionID)
	if err != nil {
		return err
	}
	if containsAddress(admins, addr) {
		return nil
	}
	return ErrNoPermission
}

func (l *Ledger) adminList(collectionID uint64) ([]types.Address, error) {
	var admins []types.Address
	if _, err := l.store.KVGet(adminsKey(collectionID), &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

func (l *Ledger) whiteList(collectionID uint64) ([]types.Address, error) {
	var list []types.Address
	if _, err := l.store.KVGet(whiteListKey(collectionID), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func containsAddress(list []types.Address, addr types.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func removeAddress(list []types.Address, addr types.Address) []types.Address {
	out := make([]types.Address, 0, len(list))
	for _, a := range list {
		if a != addr {
			out = append(out, a)
		}
	}
	return out
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

func pow10(exp uint32) uint64 {
	v := uint64(1)
	for i := uint32(0); i < exp; i++ {
		v *= 10
	}
	return v
}
