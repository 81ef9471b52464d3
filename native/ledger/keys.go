package ledger

import (
	"strconv"

	"uniart/core/types"
)

var (
	balancePrefix = []byte("ledger/balance/")
	lockPrefix    = []byte("ledger/lock/")
)

func appendCurrencyAccount(buf []byte, currency types.CurrencyID, addr types.Address) []byte {
	buf = strconv.AppendUint(buf, uint64(currency), 10)
	buf = append(buf, '/')
	buf = append(buf, addr[:]...)
	return buf
}

func balanceKey(currency types.CurrencyID, addr types.Address) []byte {
	return appendCurrencyAccount(append([]byte(nil), balancePrefix...), currency, addr)
}

func lockKey(currency types.CurrencyID, addr types.Address) []byte {
	return appendCurrencyAccount(append([]byte(nil), lockPrefix...), currency, addr)
}
