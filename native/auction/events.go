package auction

import (
	"encoding/hex"
	"strconv"

	"uniart/core/types"
)

const (
	// EventTypeAuctionCreated is emitted when an auction opens.
	EventTypeAuctionCreated = "auction.created"
	// EventTypeBidPlaced is emitted for every accepted bid.
	EventTypeBidPlaced = "auction.bid"
	// EventTypeAuctionSettled is emitted when an expired auction settles.
	EventTypeAuctionSettled = "auction.settled"
	// EventTypeAuctionCancelled is emitted when an auction is withdrawn.
	EventTypeAuctionCancelled = "auction.cancelled"
)

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string   { return e.evt.Type }
func (e auctionEvent) Event() *types.Event { return e.evt }

func auctionAttributes(a *Auction) map[string]string {
	return map[string]string{
		"auction":    strconv.FormatUint(a.ID, 10),
		"collection": strconv.FormatUint(a.Collection, 10),
		"item":       strconv.FormatUint(a.Item, 10),
		"owner":      hex.EncodeToString(a.Owner[:]),
	}
}

func auctionCreatedEvent(a *Auction) auctionEvent {
	attrs := auctionAttributes(a)
	attrs["currency"] = strconv.FormatUint(uint64(a.Currency), 10)
	attrs["value"] = strconv.FormatUint(a.Value, 10)
	attrs["startPrice"] = strconv.FormatUint(a.StartPrice, 10)
	attrs["minimumStep"] = strconv.FormatUint(a.MinimumStep, 10)
	attrs["startTime"] = strconv.FormatUint(a.StartTime, 10)
	attrs["endTime"] = strconv.FormatUint(a.EndTime, 10)
	return auctionEvent{evt: &types.Event{Type: EventTypeAuctionCreated, Attributes: attrs}}
}

func bidPlacedEvent(a *Auction, bidder types.Address, price uint64) auctionEvent {
	attrs := auctionAttributes(a)
	attrs["bidder"] = hex.EncodeToString(bidder[:])
	attrs["price"] = strconv.FormatUint(price, 10)
	return auctionEvent{evt: &types.Event{Type: EventTypeBidPlaced, Attributes: attrs}}
}

func auctionSettledEvent(a *Auction, outcome string, bids []Bid) auctionEvent {
	attrs := auctionAttributes(a)
	attrs["outcome"] = outcome
	if len(bids) > 0 {
		winner := bids[len(bids)-1]
		attrs["winner"] = hex.EncodeToString(winner.Bidder[:])
		attrs["price"] = strconv.FormatUint(winner.Price, 10)
	}
	return auctionEvent{evt: &types.Event{Type: EventTypeAuctionSettled, Attributes: attrs}}
}

func auctionCancelledEvent(a *Auction) auctionEvent {
	return auctionEvent{evt: &types.Event{Type: EventTypeAuctionCancelled, Attributes: auctionAttributes(a)}}
}
