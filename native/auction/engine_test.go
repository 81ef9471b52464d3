package auction

import (
	"errors"
	"math/big"
	"testing"

	"uniart/core/events"
	"uniart/core/state"
	"uniart/core/types"
	"uniart/native/ledger"
	"uniart/native/nft"
	"uniart/native/trade"
	"uniart/storage"
)

const testCurrency types.CurrencyID = 1

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func newTestStack(t *testing.T) (*Engine, *trade.Engine, *nft.Ledger, *ledger.Ledger, *events.Recorder) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	funds := ledger.NewLedger(mgr)
	items := nft.NewLedger(mgr, funds)
	trades := trade.NewEngine(mgr, items, funds)
	engine := NewEngine(mgr, items, funds)
	engine.SetSaleRecorder(trades)
	engine.SetOrderGuard(trades)
	trades.SetAuctionGuard(engine)
	rec := &events.Recorder{}
	engine.SetEmitter(rec)
	return engine, trades, items, funds, rec
}

func fund(t *testing.T, funds *ledger.Ledger, a types.Address, amount int64) {
	t.Helper()
	if err := funds.Deposit(testCurrency, a, big.NewInt(amount)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
}

func free(t *testing.T, funds *ledger.Ledger, a types.Address) int64 {
	t.Helper()
	bal, err := funds.FreeBalance(testCurrency, a)
	if err != nil {
		t.Fatalf("free balance: %v", err)
	}
	return bal.Int64()
}

func mintNFT(t *testing.T, items *nft.Ledger, owner types.Address) (uint64, uint64) {
	t.Helper()
	cid, err := items.CreateCollection(owner, "art", "d", nil, nft.NFTMode(16))
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	iid, err := items.CreateItem(owner, cid, nil, owner, 0, 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return cid, iid
}

func TestAuctionLifecycleWithBids(t *testing.T) {
	engine, trades, items, funds, rec := newTestStack(t)
	seller := addr(1)
	bob := addr(2)
	carol := addr(3)
	fund(t, funds, bob, 1_000)
	fund(t, funds, carol, 1_000)

	cid, iid := mintNFT(t, items, seller)
	auctionID, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 5, 50, 1)
	if err != nil {
		t.Fatalf("create auction: %v", err)
	}
	if auctionID != 1 {
		t.Fatalf("auction id = %d, want 1", auctionID)
	}
	item, _, _ := items.NFTItemRecord(cid, iid)
	if item.Owner != nft.ModuleAddress() {
		t.Fatalf("item owner = %x, want module account", item.Owner)
	}

	price, err := engine.Bid(bob, cid, iid, 10)
	if err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if price != 110 {
		t.Fatalf("first bid price = %d, want start plus step 110", price)
	}
	price, err = engine.Bid(carol, cid, iid, 20)
	if err != nil {
		t.Fatalf("second bid: %v", err)
	}
	if price != 120 {
		t.Fatalf("second bid price = %d, want 120", price)
	}

	// Bob's bid is secured: he cannot move his whole balance while locked.
	if err := funds.Transfer(testCurrency, bob, carol, big.NewInt(950)); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("locked spend: got %v", err)
	}
	auction, _, _ := engine.Auction(cid, iid)
	if auction.CurrentPrice != 120 {
		t.Fatalf("current price = %d, want 120", auction.CurrentPrice)
	}

	if err := engine.FinishAuction(cid, iid, 30); !errors.Is(err, ErrStillLive) {
		t.Fatalf("early settle: got %v", err)
	}
	if err := engine.FinishAuction(cid, iid, 51); err != nil {
		t.Fatalf("settle: %v", err)
	}

	item, _, _ = items.NFTItemRecord(cid, iid)
	if item.Owner != carol {
		t.Fatalf("item owner = %x, want winner", item.Owner)
	}
	if got := free(t, funds, carol); got != 880 {
		t.Fatalf("winner funds = %d, want 880", got)
	}
	if got := free(t, funds, seller); got != 120 {
		t.Fatalf("seller proceeds = %d, want 120", got)
	}
	// Losing bidder's lock is gone.
	if err := funds.Transfer(testCurrency, bob, carol, big.NewInt(1_000)); err != nil {
		t.Fatalf("post-settle spend: %v", err)
	}
	if _, live, _ := engine.Auction(cid, iid); live {
		t.Fatal("auction survived settlement")
	}
	history, err := trades.SaleHistory(cid, iid)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Buyer != carol || history[0].Price != 120 {
		t.Fatalf("unexpected history: %+v", history)
	}
	// The history entry carries the winning bid's time, not the settle time.
	if history[0].Time != 20 {
		t.Fatalf("history time = %d, want winning bid time 20", history[0].Time)
	}
	settled := false
	for _, typ := range rec.Types() {
		if typ == EventTypeAuctionSettled {
			settled = true
		}
	}
	if !settled {
		t.Fatalf("missing settle event: %v", rec.Types())
	}
}

func TestBidWindowAndFunds(t *testing.T) {
	engine, _, items, funds, _ := newTestStack(t)
	seller := addr(1)
	bob := addr(2)
	pauper := addr(3)
	fund(t, funds, bob, 1_000)
	fund(t, funds, pauper, 100)

	cid, iid := mintNFT(t, items, seller)
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 10, 50, 1); err != nil {
		t.Fatalf("create auction: %v", err)
	}

	if _, err := engine.Bid(bob, cid, iid, 5); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("early bid: got %v", err)
	}
	if _, err := engine.Bid(bob, cid, iid, 51); !errors.Is(err, ErrExpired) {
		t.Fatalf("late bid: got %v", err)
	}
	// The first bid lands at start plus step (110), and the balance must
	// strictly exceed it.
	if _, err := engine.Bid(pauper, cid, iid, 20); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("pauper bid: got %v", err)
	}
	if _, err := engine.Bid(bob, cid, iid, 20); err != nil {
		t.Fatalf("bid: %v", err)
	}
	// Bids at the window edges are accepted.
	if _, err := engine.Bid(bob, cid, iid, 50); err != nil {
		t.Fatalf("closing bid: %v", err)
	}
}

func TestRebidExtendsLockToMaximum(t *testing.T) {
	engine, _, items, funds, _ := newTestStack(t)
	seller := addr(1)
	bob := addr(2)
	carol := addr(3)
	fund(t, funds, bob, 1_000)
	fund(t, funds, carol, 1_000)

	cid, iid := mintNFT(t, items, seller)
	auctionID, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 25, 0, 50, 1)
	if err != nil {
		t.Fatalf("create auction: %v", err)
	}
	if _, err := engine.Bid(bob, cid, iid, 5); err != nil {
		t.Fatalf("bid 1: %v", err)
	}
	if _, err := engine.Bid(carol, cid, iid, 6); err != nil {
		t.Fatalf("bid 2: %v", err)
	}
	if _, err := engine.Bid(bob, cid, iid, 7); err != nil {
		t.Fatalf("bid 3: %v", err)
	}
	// Bob holds one lock at his highest bid of 175, not two stacked ones.
	locked, err := funds.LockedBalance(testCurrency, bob)
	if err != nil {
		t.Fatalf("locked balance: %v", err)
	}
	if locked.Int64() != 175 {
		t.Fatalf("locked = %d, want 175", locked.Int64())
	}
	bids, err := engine.BidHistory(auctionID)
	if err != nil {
		t.Fatalf("bid history: %v", err)
	}
	if len(bids) != 3 || bids[2].Price != 175 {
		t.Fatalf("unexpected bids: %+v", bids)
	}
}

func TestFinishWithoutBidsReturnsItem(t *testing.T) {
	engine, _, items, _, _ := newTestStack(t)
	seller := addr(1)

	cid, iid := mintNFT(t, items, seller)
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 0, 50, 1); err != nil {
		t.Fatalf("create auction: %v", err)
	}
	if err := engine.FinishAuction(cid, iid, 51); err != nil {
		t.Fatalf("settle: %v", err)
	}
	item, _, _ := items.NFTItemRecord(cid, iid)
	if item.Owner != seller {
		t.Fatalf("item owner = %x, want seller", item.Owner)
	}
	if _, live, _ := engine.Auction(cid, iid); live {
		t.Fatal("auction survived settlement")
	}
}

func TestCancelAuction(t *testing.T) {
	engine, _, items, funds, _ := newTestStack(t)
	seller := addr(1)
	bob := addr(2)
	fund(t, funds, bob, 1_000)

	cid, iid := mintNFT(t, items, seller)
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 0, 50, 1); err != nil {
		t.Fatalf("create auction: %v", err)
	}
	if err := engine.CancelAuction(bob, cid, iid); !errors.Is(err, ErrNotAuctionOwner) {
		t.Fatalf("stranger cancel: got %v", err)
	}
	if _, err := engine.Bid(bob, cid, iid, 5); err != nil {
		t.Fatalf("bid: %v", err)
	}
	if err := engine.CancelAuction(seller, cid, iid); !errors.Is(err, ErrHasBids) {
		t.Fatalf("cancel with bids: got %v", err)
	}
}

func TestCancelAuctionBeforeBids(t *testing.T) {
	engine, _, items, _, _ := newTestStack(t)
	seller := addr(1)

	cid, iid := mintNFT(t, items, seller)
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 0, 50, 1); err != nil {
		t.Fatalf("create auction: %v", err)
	}
	if err := engine.CancelAuction(seller, cid, iid); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	item, _, _ := items.NFTItemRecord(cid, iid)
	if item.Owner != seller {
		t.Fatalf("item owner = %x, want seller", item.Owner)
	}
	if err := engine.CancelAuction(seller, cid, iid); !errors.Is(err, ErrAuctionNotFound) {
		t.Fatalf("double cancel: got %v", err)
	}
}

func TestCreateAuctionGuards(t *testing.T) {
	engine, trades, items, _, _ := newTestStack(t)
	seller := addr(1)
	stranger := addr(9)

	cid, iid := mintNFT(t, items, seller)
	// Only the item owner may put it up for auction.
	if _, err := engine.CreateAuction(stranger, cid, iid, testCurrency, 1, 100, 10, 0, 50, 1); !errors.Is(err, ErrNotItemOwner) {
		t.Fatalf("stranger auction: got %v", err)
	}
	// Empty or closed windows are rejected.
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 50, 50, 1); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("empty window: got %v", err)
	}
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 0, 50, 50); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("closed window: got %v", err)
	}

	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 0, 50, 1); err != nil {
		t.Fatalf("create auction: %v", err)
	}
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 0, 60, 1); !errors.Is(err, ErrItemOnAuction) {
		t.Fatalf("double auction: got %v", err)
	}

	// An item on sale cannot be auctioned.
	iid2, err := items.CreateItem(seller, cid, nil, seller, 0, 0)
	if err != nil {
		t.Fatalf("mint second: %v", err)
	}
	if _, err := trades.CreateSaleOrder(seller, cid, iid2, testCurrency, 1, 10); err != nil {
		t.Fatalf("listing: %v", err)
	}
	if _, err := engine.CreateAuction(seller, cid, iid2, testCurrency, 1, 100, 10, 0, 50, 1); !errors.Is(err, ErrItemOnSale) {
		t.Fatalf("auction over listing: got %v", err)
	}
}

func TestAuctionSaturatesBidPrice(t *testing.T) {
	engine, _, items, funds, _ := newTestStack(t)
	seller := addr(1)
	bob := addr(2)
	const whale = int64(1) << 62
	fund(t, funds, bob, whale)

	cid, iid := mintNFT(t, items, seller)
	maxStep := ^uint64(0)
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 10, maxStep, 0, 50, 1); err != nil {
		t.Fatalf("create auction: %v", err)
	}
	// The bid price saturates instead of wrapping, so no balance covers it.
	if _, err := engine.Bid(bob, cid, iid, 5); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("saturated bid: got %v", err)
	}
}

func TestFinishRecordsWinningBid(t *testing.T) {
	engine, trades, items, funds, _ := newTestStack(t)
	seller := addr(1)
	bob := addr(2)
	carol := addr(3)
	fund(t, funds, bob, 1_000)
	fund(t, funds, carol, 1_000)

	cid, iid := mintNFT(t, items, seller)
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 50, 5, 1, 10, 1); err != nil {
		t.Fatalf("create auction: %v", err)
	}
	price, err := engine.Bid(bob, cid, iid, 2)
	if err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if price != 55 {
		t.Fatalf("first bid price = %d, want 55", price)
	}
	price, err = engine.Bid(carol, cid, iid, 3)
	if err != nil {
		t.Fatalf("second bid: %v", err)
	}
	if price != 60 {
		t.Fatalf("second bid price = %d, want 60", price)
	}
	if err := engine.FinishAuction(cid, iid, 11); err != nil {
		t.Fatalf("settle: %v", err)
	}
	history, err := trades.SaleHistory(cid, iid)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Price != 60 || history[0].Time != 3 || history[0].Buyer != carol {
		t.Fatalf("unexpected history: %+v", history)
	}
	if got := free(t, funds, seller); got != 60 {
		t.Fatalf("seller proceeds = %d, want 60", got)
	}
}

func TestFinishWithUnderfundedWinnerLeavesAuctionIntact(t *testing.T) {
	engine, _, items, funds, _ := newTestStack(t)
	seller := addr(1)
	bob := addr(2)
	// Enough to outbid, but not to also cover the 10% royalty at settlement.
	fund(t, funds, bob, 111)

	cid, err := items.CreateCollection(seller, "art", "d", nil, nft.NFTMode(16))
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	iid, err := items.CreateItem(seller, cid, nil, seller, 1000, 100)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := engine.CreateAuction(seller, cid, iid, testCurrency, 1, 100, 10, 0, 50, 1); err != nil {
		t.Fatalf("create auction: %v", err)
	}
	if _, err := engine.Bid(bob, cid, iid, 5); err != nil {
		t.Fatalf("bid: %v", err)
	}

	if err := engine.FinishAuction(cid, iid, 51); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("underfunded settle: got %v", err)
	}
	// Nothing moved: the auction is still live, the winning lock is back,
	// and no funds changed hands.
	if _, live, _ := engine.Auction(cid, iid); !live {
		t.Fatal("auction vanished after failed settlement")
	}
	locked, err := funds.LockedBalance(testCurrency, bob)
	if err != nil {
		t.Fatalf("locked balance: %v", err)
	}
	if locked.Int64() != 110 {
		t.Fatalf("winner lock = %d, want 110", locked.Int64())
	}
	if got := free(t, funds, seller); got != 0 {
		t.Fatalf("seller balance = %d, want 0", got)
	}
	item, _, _ := items.NFTItemRecord(cid, iid)
	if item.Owner != nft.ModuleAddress() {
		t.Fatalf("item owner = %x, want module escrow", item.Owner)
	}

	// Once funded, the same settlement succeeds.
	fund(t, funds, bob, 10)
	if err := engine.FinishAuction(cid, iid, 51); err != nil {
		t.Fatalf("funded settle: %v", err)
	}
	if got := free(t, funds, seller); got != 121 {
		t.Fatalf("seller balance = %d, want price plus royalty 121", got)
	}
	if got := free(t, funds, bob); got != 0 {
		t.Fatalf("winner balance = %d, want 0", got)
	}
}
