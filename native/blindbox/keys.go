package blindbox

import "strconv"

const (
	boxPrefix   = "blindbox/box/"
	groupPrefix = "blindbox/group/"

	boxCountKeyLiteral   = "blindbox/box/count"
	groupCountKeyLiteral = "blindbox/group/count"
	seedKeyLiteral       = "blindbox/seed"
)

func u64s(v uint64) string { return strconv.FormatUint(v, 10) }

func boxKey(boxID uint64) []byte { return []byte(boxPrefix + u64s(boxID)) }

func groupKey(groupID uint64) []byte { return []byte(groupPrefix + u64s(groupID)) }

func boxCountKey() []byte { return []byte(boxCountKeyLiteral) }

func groupCountKey() []byte { return []byte(groupCountKeyLiteral) }

func seedKey() []byte { return []byte(seedKeyLiteral) }
