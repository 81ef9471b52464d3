package types

// Address is a 20-byte account identifier. The zero value doubles as the
// "unset" sentinel for optional account slots such as collection sponsors.
type Address = [20]byte

// CurrencyID identifies one of the currencies managed by the multi-currency
// ledger. The ledger treats the value as opaque.
type CurrencyID uint32

// ZeroAddress reports whether addr is the all-zero sentinel.
func ZeroAddress(addr Address) bool {
	return addr == Address{}
}
