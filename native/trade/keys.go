package trade

import "strconv"

const (
	orderPrefix     = "trade/order/"
	orderByIDPrefix = "trade/orderid/"
	splitPrefix     = "trade/split/"
	splitListPrefix = "trade/splitlist/"
	historyPrefix   = "trade/history/"

	orderCountKeyLiteral = "trade/order/count"
)

func u64s(v uint64) string { return strconv.FormatUint(v, 10) }

func orderKey(collectionID, itemID uint64) []byte {
	return []byte(orderPrefix + u64s(collectionID) + "/" + u64s(itemID))
}

func orderCountKey() []byte { return []byte(orderCountKeyLiteral) }

func orderByIDKey(orderID uint64) []byte {
	return []byte(orderByIDPrefix + u64s(orderID))
}

func splitOrderKey(orderID uint64) []byte {
	return []byte(splitPrefix + u64s(orderID))
}

func splitListKey(collectionID, itemID uint64) []byte {
	return []byte(splitListPrefix + u64s(collectionID) + "/" + u64s(itemID))
}

func historyKey(collectionID, itemID uint64) []byte {
	return []byte(historyPrefix + u64s(collectionID) + "/" + u64s(itemID))
}
