package auction

import "strconv"

const (
	auctionPrefix = "auction/item/"
	bidsPrefix    = "auction/bids/"

	auctionCountKeyLiteral = "auction/count"
)

func u64s(v uint64) string { return strconv.FormatUint(v, 10) }

func auctionKey(collectionID, itemID uint64) []byte {
	return []byte(auctionPrefix + u64s(collectionID) + "/" + u64s(itemID))
}

func auctionCountKey() []byte { return []byte(auctionCountKeyLiteral) }

func bidsKey(auctionID uint64) []byte {
	return []byte(bidsPrefix + u64s(auctionID))
}
