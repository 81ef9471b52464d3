package trade

import (
	"errors"
	"math/big"
	"testing"

	"uniart/core/events"
	"uniart/core/state"
	"uniart/core/types"
	"uniart/native/ledger"
	"uniart/native/nft"
	"uniart/storage"
)

const testCurrency types.CurrencyID = 1

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

type stubAuctionGuard struct {
	live bool
}

func (s stubAuctionGuard) HasAuction(uint64, uint64) (bool, error) { return s.live, nil }

func newTestEngine(t *testing.T) (*Engine, *nft.Ledger, *ledger.Ledger, *events.Recorder) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	currency := ledger.NewLedger(mgr)
	items := nft.NewLedger(mgr, currency)
	engine := NewEngine(mgr, items, currency)
	rec := &events.Recorder{}
	engine.SetEmitter(rec)
	return engine, items, currency, rec
}

func fund(t *testing.T, currency *ledger.Ledger, a types.Address, amount int64) {
	t.Helper()
	if err := currency.Deposit(testCurrency, a, big.NewInt(amount)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
}

func free(t *testing.T, currency *ledger.Ledger, a types.Address) int64 {
	t.Helper()
	bal, err := currency.FreeBalance(testCurrency, a)
	if err != nil {
		t.Fatalf("free balance: %v", err)
	}
	return bal.Int64()
}

func TestSaleOrderLifecycle(t *testing.T) {
	engine, items, currency, rec := newTestEngine(t)
	alice := addr(1)
	bob := addr(2)
	creator := addr(3)
	fund(t, currency, bob, 1_000)

	cid, err := items.CreateCollection(alice, "art", "d", nil, nft.NFTMode(16))
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	iid, err := items.CreateItem(alice, cid, nil, alice, 0, 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	// Royalty terms belong to the creator of record.
	if _, err := items.CreateItem(alice, cid, nil, creator, 0, 0); err != nil {
		t.Fatalf("mint second: %v", err)
	}

	orderID, err := engine.CreateSaleOrder(alice, cid, iid, testCurrency, 5, 100)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if orderID != 1 {
		t.Fatalf("order id = %d, want 1", orderID)
	}
	// The item moved into escrow.
	item, _, _ := items.NFTItemRecord(cid, iid)
	if item.Owner != nft.ModuleAddress() {
		t.Fatalf("item owner = %x, want module account", item.Owner)
	}
	order, ok, err := engine.Order(cid, iid)
	if err != nil || !ok {
		t.Fatalf("load order: ok=%v err=%v", ok, err)
	}
	if order.Value != 1 {
		t.Fatalf("order value = %d, want 1 for NFT listings", order.Value)
	}

	if err := engine.AcceptSaleOrder(bob, cid, iid, 10); err != nil {
		t.Fatalf("accept order: %v", err)
	}
	item, _, _ = items.NFTItemRecord(cid, iid)
	if item.Owner != bob {
		t.Fatalf("item owner = %x, want buyer", item.Owner)
	}
	if got := free(t, currency, bob); got != 900 {
		t.Fatalf("buyer balance = %d, want 900", got)
	}
	if got := free(t, currency, alice); got != 100 {
		t.Fatalf("seller balance = %d, want 100", got)
	}
	if _, ok, _ := engine.Order(cid, iid); ok {
		t.Fatal("order survived settlement")
	}
	history, err := engine.SaleHistory(cid, iid)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Buyer != bob || history[0].Price != 100 || history[0].Time != 10 {
		t.Fatalf("unexpected history: %+v", history)
	}
	wantEvents := map[string]bool{EventTypeOrderCreated: false, EventTypeOrderAccepted: false}
	for _, typ := range rec.Types() {
		if _, tracked := wantEvents[typ]; tracked {
			wantEvents[typ] = true
		}
	}
	for typ, seen := range wantEvents {
		if !seen {
			t.Fatalf("missing event %s: %v", typ, rec.Types())
		}
	}
}

func TestCreateSaleOrderGuards(t *testing.T) {
	engine, items, _, _ := newTestEngine(t)
	alice := addr(1)
	bob := addr(2)

	cid, _ := items.CreateCollection(alice, "art", "d", nil, nft.NFTMode(16))
	iid, _ := items.CreateItem(alice, cid, nil, alice, 0, 0)

	if _, err := engine.CreateSaleOrder(bob, cid, iid, testCurrency, 1, 50); !errors.Is(err, ErrNotItemOwner) {
		t.Fatalf("non-owner listing: got %v", err)
	}
	if _, err := engine.CreateSaleOrder(alice, cid, iid, testCurrency, 1, 50); err != nil {
		t.Fatalf("listing: %v", err)
	}
	// The escrowed item cannot be listed again by anyone.
	if _, err := engine.CreateSaleOrder(alice, cid, iid, testCurrency, 1, 60); !errors.Is(err, ErrItemOnSale) {
		t.Fatalf("double listing: got %v", err)
	}

	iid2, _ := items.CreateItem(alice, cid, nil, alice, 0, 0)
	engine.SetAuctionGuard(stubAuctionGuard{live: true})
	if _, err := engine.CreateSaleOrder(alice, cid, iid2, testCurrency, 1, 50); !errors.Is(err, ErrItemOnAuction) {
		t.Fatalf("auctioned item listing: got %v", err)
	}
}

func TestCancelSaleOrderReturnsItem(t *testing.T) {
	engine, items, _, _ := newTestEngine(t)
	alice := addr(1)
	bob := addr(2)

	cid, _ := items.CreateCollection(alice, "art", "d", nil, nft.NFTMode(16))
	iid, _ := items.CreateItem(alice, cid, nil, alice, 0, 0)
	if _, err := engine.CreateSaleOrder(alice, cid, iid, testCurrency, 1, 50); err != nil {
		t.Fatalf("listing: %v", err)
	}

	if err := engine.CancelSaleOrder(bob, cid, iid); !errors.Is(err, ErrNotOrderOwner) {
		t.Fatalf("stranger cancel: got %v", err)
	}
	if err := engine.CancelSaleOrder(alice, cid, iid); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	item, _, _ := items.NFTItemRecord(cid, iid)
	if item.Owner != alice {
		t.Fatalf("item owner = %x, want seller", item.Owner)
	}
	if err := engine.CancelSaleOrder(alice, cid, iid); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("double cancel: got %v", err)
	}
}

func TestAcceptSaleOrderChargesRoyalty(t *testing.T) {
	engine, items, currency, _ := newTestEngine(t)
	creator := addr(1)
	buyer := addr(2)
	fund(t, currency, buyer, 1_000)

	cid, _ := items.CreateCollection(creator, "art", "d", nil, nft.NFTMode(16))
	// 10% royalty active until height 100.
	iid, err := items.CreateItem(creator, cid, nil, creator, 1000, 100)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := engine.CreateSaleOrder(creator, cid, iid, testCurrency, 1, 200); err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := engine.AcceptSaleOrder(buyer, cid, iid, 50); err != nil {
		t.Fatalf("accept: %v", err)
	}
	// Creator receives the price plus the 20 unit royalty.
	if got := free(t, currency, creator); got != 220 {
		t.Fatalf("creator balance = %d, want 220", got)
	}
	if got := free(t, currency, buyer); got != 780 {
		t.Fatalf("buyer balance = %d, want 780", got)
	}
}

func TestAcceptSaleOrderRejectsUnderfundedBuyer(t *testing.T) {
	engine, items, currency, _ := newTestEngine(t)
	creator := addr(1)
	buyer := addr(2)
	fund(t, currency, buyer, 50)

	cid, _ := items.CreateCollection(creator, "art", "d", nil, nft.NFTMode(16))
	// 10% royalty on top of the 100 unit price.
	iid, err := items.CreateItem(creator, cid, nil, creator, 1000, 100)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := engine.CreateSaleOrder(creator, cid, iid, testCurrency, 1, 100); err != nil {
		t.Fatalf("listing: %v", err)
	}

	if err := engine.AcceptSaleOrder(buyer, cid, iid, 10); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("underfunded accept: got %v", err)
	}
	// The failed settlement moved nothing: no royalty, no price, no item.
	if got := free(t, currency, buyer); got != 50 {
		t.Fatalf("buyer balance = %d, want 50", got)
	}
	if got := free(t, currency, creator); got != 0 {
		t.Fatalf("creator balance = %d, want 0", got)
	}
	item, _, _ := items.NFTItemRecord(cid, iid)
	if item.Owner != nft.ModuleAddress() {
		t.Fatalf("item owner = %x, want module account", item.Owner)
	}
	if _, ok, _ := engine.Order(cid, iid); !ok {
		t.Fatal("order vanished after failed settlement")
	}

	// Topping the buyer up lets the same settlement go through.
	fund(t, currency, buyer, 60)
	if err := engine.AcceptSaleOrder(buyer, cid, iid, 10); err != nil {
		t.Fatalf("funded accept: %v", err)
	}
	if got := free(t, currency, creator); got != 110 {
		t.Fatalf("creator balance = %d, want 110", got)
	}
}

func TestOrderByIDTracksLifecycle(t *testing.T) {
	engine, items, currency, _ := newTestEngine(t)
	alice := addr(1)
	bob := addr(2)
	fund(t, currency, bob, 500)

	cid, _ := items.CreateCollection(alice, "art", "d", nil, nft.NFTMode(16))
	iid, _ := items.CreateItem(alice, cid, nil, alice, 0, 0)
	iid2, _ := items.CreateItem(alice, cid, nil, alice, 0, 0)

	orderID, err := engine.CreateSaleOrder(alice, cid, iid, testCurrency, 1, 100)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	order, ok, err := engine.OrderByID(orderID)
	if err != nil || !ok {
		t.Fatalf("lookup by id: ok=%v err=%v", ok, err)
	}
	if order.Collection != cid || order.Item != iid || order.Price != 100 {
		t.Fatalf("unexpected order: %+v", order)
	}
	if _, ok, _ := engine.OrderByID(orderID + 1); ok {
		t.Fatal("lookup found an order that was never created")
	}

	if err := engine.AcceptSaleOrder(bob, cid, iid, 5); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, ok, _ := engine.OrderByID(orderID); ok {
		t.Fatal("settled order still indexed by id")
	}

	orderID2, err := engine.CreateSaleOrder(alice, cid, iid2, testCurrency, 1, 80)
	if err != nil {
		t.Fatalf("second listing: %v", err)
	}
	if err := engine.CancelSaleOrder(alice, cid, iid2); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok, _ := engine.OrderByID(orderID2); ok {
		t.Fatal("cancelled order still indexed by id")
	}
}

func TestSplitSaleOrderLifecycle(t *testing.T) {
	engine, items, currency, _ := newTestEngine(t)
	alice := addr(1)
	bob := addr(2)
	carol := addr(3)
	fund(t, currency, bob, 500)
	fund(t, currency, carol, 500)

	cid, _ := items.CreateCollection(alice, "coins", "d", nil, nft.FungibleMode(2))
	iid, err := items.CreateItem(alice, cid, nil, alice, 0, 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	orderID, err := engine.CreateSplitSaleOrder(alice, cid, iid, testCurrency, 60, 2)
	if err != nil {
		t.Fatalf("create split order: %v", err)
	}
	if bal, _ := items.Balance(cid, alice); bal != 40 {
		t.Fatalf("seller balance after escrow = %d, want 40", bal)
	}
	if bal, _ := items.Balance(cid, nft.ModuleAddress()); bal != 60 {
		t.Fatalf("escrow balance = %d, want 60", bal)
	}

	if err := engine.AcceptSplitSaleOrder(bob, orderID, 25, 10); err != nil {
		t.Fatalf("partial buy: %v", err)
	}
	order, ok, _ := engine.SplitOrder(orderID)
	if !ok || order.Balance != 35 {
		t.Fatalf("order after partial buy = %+v, want balance 35", order)
	}
	// The listed quantity is frozen at creation; only Balance drains.
	if order.Value != 60 {
		t.Fatalf("order value = %d, want the original 60", order.Value)
	}
	if got := free(t, currency, bob); got != 450 {
		t.Fatalf("bob funds = %d, want 450", got)
	}
	if bal, _ := items.Balance(cid, bob); bal != 25 {
		t.Fatalf("bob units = %d, want 25", bal)
	}

	if err := engine.AcceptSplitSaleOrder(carol, orderID, 40, 11); !errors.Is(err, ErrOrderExhausted) {
		t.Fatalf("over-buy: got %v", err)
	}
	if err := engine.AcceptSplitSaleOrder(carol, orderID, 35, 11); err != nil {
		t.Fatalf("draining buy: %v", err)
	}
	if _, ok, _ := engine.SplitOrder(orderID); ok {
		t.Fatal("drained order still present")
	}
	ids, _ := engine.SplitOrders(cid, iid)
	if len(ids) != 0 {
		t.Fatalf("split list = %v, want empty", ids)
	}
	if got := free(t, currency, alice); got != 120 {
		t.Fatalf("alice proceeds = %d, want 120", got)
	}
	history, _ := engine.SaleHistory(cid, iid)
	if len(history) != 2 {
		t.Fatalf("history entries = %d, want 2", len(history))
	}
}

func TestSplitSaleOrderCancelReturnsBalance(t *testing.T) {
	engine, items, currency, _ := newTestEngine(t)
	alice := addr(1)
	bob := addr(2)
	fund(t, currency, bob, 500)

	cid, _ := items.CreateCollection(alice, "coins", "d", nil, nft.FungibleMode(2))
	iid, _ := items.CreateItem(alice, cid, nil, alice, 0, 0)

	orderID, err := engine.CreateSplitSaleOrder(alice, cid, iid, testCurrency, 80, 3)
	if err != nil {
		t.Fatalf("create split order: %v", err)
	}
	if err := engine.AcceptSplitSaleOrder(bob, orderID, 30, 5); err != nil {
		t.Fatalf("partial buy: %v", err)
	}
	if err := engine.CancelSplitSaleOrder(bob, orderID); !errors.Is(err, ErrNotOrderOwner) {
		t.Fatalf("stranger cancel: got %v", err)
	}
	if err := engine.CancelSplitSaleOrder(alice, orderID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// 20 units stayed with alice, 50 returned from escrow.
	if bal, _ := items.Balance(cid, alice); bal != 70 {
		t.Fatalf("alice units = %d, want 70", bal)
	}
	if bal, _ := items.Balance(cid, nft.ModuleAddress()); bal != 0 {
		t.Fatalf("escrow units = %d, want 0", bal)
	}
}

func TestSplitSaleOrderRejectsNFTMode(t *testing.T) {
	engine, items, _, _ := newTestEngine(t)
	alice := addr(1)

	cid, _ := items.CreateCollection(alice, "art", "d", nil, nft.NFTMode(16))
	iid, _ := items.CreateItem(alice, cid, nil, alice, 0, 0)
	if _, err := engine.CreateSplitSaleOrder(alice, cid, iid, testCurrency, 1, 10); !errors.Is(err, ErrModeNotSeparable) {
		t.Fatalf("split NFT listing: got %v", err)
	}
}

func TestWholeAndSplitListingsAreExclusive(t *testing.T) {
	engine, items, _, _ := newTestEngine(t)
	alice := addr(1)

	cid, _ := items.CreateCollection(alice, "coins", "d", nil, nft.FungibleMode(2))
	iid, _ := items.CreateItem(alice, cid, nil, alice, 0, 0)

	if _, err := engine.CreateSplitSaleOrder(alice, cid, iid, testCurrency, 30, 1); err != nil {
		t.Fatalf("split listing: %v", err)
	}
	if _, err := engine.CreateSaleOrder(alice, cid, iid, testCurrency, 70, 100); !errors.Is(err, ErrItemOnSale) {
		t.Fatalf("whole listing over split: got %v", err)
	}
}
