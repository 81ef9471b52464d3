package blindbox

import (
	"encoding/hex"
	"strconv"

	"uniart/core/types"
)

const (
	// EventTypeBoxCreated is emitted when a blind box is registered.
	EventTypeBoxCreated = "blindbox.created"
	// EventTypeBoxUpdated is emitted when a box opens, closes or gains cards.
	EventTypeBoxUpdated = "blindbox.updated"
	// EventTypeBoxPurchased is emitted for every settled draw.
	EventTypeBoxPurchased = "blindbox.purchased"
	// EventTypeBoxCancelled is emitted when a box is withdrawn.
	EventTypeBoxCancelled = "blindbox.cancelled"
)

type boxEvent struct {
	evt *types.Event
}

func (e boxEvent) EventType() string   { return e.evt.Type }
func (e boxEvent) Event() *types.Event { return e.evt }

func boxAttributes(box *Box) map[string]string {
	return map[string]string{
		"box":   strconv.FormatUint(box.ID, 10),
		"owner": hex.EncodeToString(box.Owner[:]),
	}
}

func boxCreatedEvent(box *Box) boxEvent {
	attrs := boxAttributes(box)
	attrs["currency"] = strconv.FormatUint(uint64(box.Currency), 10)
	attrs["price"] = strconv.FormatUint(box.Price, 10)
	attrs["mode"] = strconv.FormatUint(uint64(box.Mode), 10)
	return boxEvent{evt: &types.Event{Type: EventTypeBoxCreated, Attributes: attrs}}
}

func groupAddedEvent(box *Box, group *CardGroup) boxEvent {
	attrs := boxAttributes(box)
	attrs["group"] = strconv.FormatUint(group.ID, 10)
	attrs["collection"] = strconv.FormatUint(group.Collection, 10)
	attrs["item"] = strconv.FormatUint(group.Item, 10)
	attrs["count"] = strconv.FormatUint(group.Count, 10)
	return boxEvent{evt: &types.Event{Type: EventTypeBoxUpdated, Attributes: attrs}}
}

func boxToggledEvent(box *Box) boxEvent {
	attrs := boxAttributes(box)
	attrs["open"] = strconv.FormatBool(box.Open)
	return boxEvent{evt: &types.Event{Type: EventTypeBoxUpdated, Attributes: attrs}}
}

func boxPurchasedEvent(box *Box, group *CardGroup, buyer types.Address) boxEvent {
	attrs := boxAttributes(box)
	attrs["group"] = strconv.FormatUint(group.ID, 10)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["price"] = strconv.FormatUint(box.Price, 10)
	return boxEvent{evt: &types.Event{Type: EventTypeBoxPurchased, Attributes: attrs}}
}

func boxCancelledEvent(box *Box) boxEvent {
	return boxEvent{evt: &types.Event{Type: EventTypeBoxCancelled, Attributes: boxAttributes(box)}}
}
