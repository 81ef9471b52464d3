package trade

import (
	"encoding/hex"
	"strconv"

	"uniart/core/types"
)

const (
	// EventTypeOrderCreated is emitted when a listing opens.
	EventTypeOrderCreated = "trade.order.created"
	// EventTypeOrderCancelled is emitted when a seller withdraws a listing.
	EventTypeOrderCancelled = "trade.order.cancelled"
	// EventTypeOrderAccepted is emitted when a listing settles.
	EventTypeOrderAccepted = "trade.order.accepted"
)

type tradeEvent struct {
	evt *types.Event
}

func (e tradeEvent) EventType() string   { return e.evt.Type }
func (e tradeEvent) Event() *types.Event { return e.evt }

func orderAttributes(id, collectionID, itemID uint64, seller types.Address, separable bool) map[string]string {
	return map[string]string{
		"order":      strconv.FormatUint(id, 10),
		"collection": strconv.FormatUint(collectionID, 10),
		"item":       strconv.FormatUint(itemID, 10),
		"seller":     hex.EncodeToString(seller[:]),
		"separable":  strconv.FormatBool(separable),
	}
}

func orderCreatedEvent(order *SaleOrder, separable bool) tradeEvent {
	attrs := orderAttributes(order.ID, order.Collection, order.Item, order.Seller, separable)
	attrs["currency"] = strconv.FormatUint(uint64(order.Currency), 10)
	attrs["value"] = strconv.FormatUint(order.Value, 10)
	attrs["price"] = strconv.FormatUint(order.Price, 10)
	return tradeEvent{evt: &types.Event{Type: EventTypeOrderCreated, Attributes: attrs}}
}

func orderCancelledEvent(order *SaleOrder, separable bool) tradeEvent {
	return tradeEvent{evt: &types.Event{
		Type:       EventTypeOrderCancelled,
		Attributes: orderAttributes(order.ID, order.Collection, order.Item, order.Seller, separable),
	}}
}

func orderAcceptedEvent(order *SaleOrder, buyer types.Address, value, price uint64, separable bool) tradeEvent {
	attrs := orderAttributes(order.ID, order.Collection, order.Item, order.Seller, separable)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["value"] = strconv.FormatUint(value, 10)
	attrs["price"] = strconv.FormatUint(price, 10)
	return tradeEvent{evt: &types.Event{Type: EventTypeOrderAccepted, Attributes: attrs}}
}

func splitOrderCreatedEvent(order *SplitSaleOrder) tradeEvent {
	attrs := orderAttributes(order.ID, order.Collection, order.Item, order.Seller, true)
	attrs["currency"] = strconv.FormatUint(uint64(order.Currency), 10)
	attrs["value"] = strconv.FormatUint(order.Balance, 10)
	attrs["price"] = strconv.FormatUint(order.Price, 10)
	return tradeEvent{evt: &types.Event{Type: EventTypeOrderCreated, Attributes: attrs}}
}

func splitOrderCancelledEvent(order *SplitSaleOrder) tradeEvent {
	return tradeEvent{evt: &types.Event{
		Type:       EventTypeOrderCancelled,
		Attributes: orderAttributes(order.ID, order.Collection, order.Item, order.Seller, true),
	}}
}

func splitOrderAcceptedEvent(order *SplitSaleOrder, buyer types.Address, value, price uint64) tradeEvent {
	attrs := orderAttributes(order.ID, order.Collection, order.Item, order.Seller, true)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["value"] = strconv.FormatUint(value, 10)
	attrs["price"] = strconv.FormatUint(price, 10)
	attrs["remaining"] = strconv.FormatUint(order.Balance, 10)
	return tradeEvent{evt: &types.Event{Type: EventTypeOrderAccepted, Attributes: attrs}}
}
