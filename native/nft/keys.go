package nft

import (
	"strconv"

	"uniart/core/types"
)

const (
	collectionPrefix = "nft/collection/"
	itemPrefix       = "nft/item/"
	royaltyPrefix    = "nft/royalty/"
	balancePrefix    = "nft/balance/"
	ownedPrefix      = "nft/owned/"
	approvedPrefix   = "nft/approved/"
	adminsPrefix     = "nft/admins/"
	whiteListPrefix  = "nft/whitelist/"
	itemIndexPrefix  = "nft/itemindex/"

	collectionCountKeyLiteral = "nft/collection/count"
	hashIndexKeyLiteral       = "nft/hashindex"
)

func u64s(v uint64) string { return strconv.FormatUint(v, 10) }

func collectionKey(collectionID uint64) []byte {
	return []byte(collectionPrefix + u64s(collectionID))
}

func collectionCountKey() []byte { return []byte(collectionCountKeyLiteral) }

func hashIndexKey() []byte { return []byte(hashIndexKeyLiteral) }

func itemIndexKey(collectionID uint64) []byte {
	return []byte(itemIndexPrefix + u64s(collectionID))
}

func adminsKey(collectionID uint64) []byte {
	return []byte(adminsPrefix + u64s(collectionID))
}

func whiteListKey(collectionID uint64) []byte {
	return []byte(whiteListPrefix + u64s(collectionID))
}

func nftItemKey(collectionID, itemID uint64) []byte {
	return []byte(itemPrefix + "n/" + u64s(collectionID) + "/" + u64s(itemID))
}

func fungibleItemKey(collectionID, itemID uint64) []byte {
	return []byte(itemPrefix + "f/" + u64s(collectionID) + "/" + u64s(itemID))
}

func reFungibleItemKey(collectionID, itemID uint64) []byte {
	return []byte(itemPrefix + "r/" + u64s(collectionID) + "/" + u64s(itemID))
}

func royaltyKey(collectionID, itemID uint64) []byte {
	return []byte(royaltyPrefix + u64s(collectionID) + "/" + u64s(itemID))
}

func balanceKey(collectionID uint64, addr types.Address) []byte {
	return append([]byte(balancePrefix+u64s(collectionID)+"/"), addr[:]...)
}

func balancePrefixKey(collectionID uint64) []byte {
	return []byte(balancePrefix + u64s(collectionID) + "/")
}

func ownedKey(collectionID uint64, addr types.Address) []byte {
	return append([]byte(ownedPrefix+u64s(collectionID)+"/"), addr[:]...)
}

func ownedPrefixKey(collectionID uint64) []byte {
	return []byte(ownedPrefix + u64s(collectionID) + "/")
}

func approvedKey(collectionID, itemID uint64, owner types.Address) []byte {
	return append([]byte(approvedPrefix+u64s(collectionID)+"/"+u64s(itemID)+"/"), owner[:]...)
}

func approvedPrefixKey(collectionID uint64) []byte {
	return []byte(approvedPrefix + u64s(collectionID) + "/")
}
