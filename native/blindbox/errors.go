package blindbox

import "errors"

var (
	// ErrBoxNotFound indicates the referenced blind box does not exist.
	ErrBoxNotFound = errors.New("blindbox: box not found")
	// ErrGroupNotFound indicates the referenced card group does not exist.
	ErrGroupNotFound = errors.New("blindbox: card group not found")
	// ErrNotBoxOwner indicates the caller does not own the blind box.
	ErrNotBoxOwner = errors.New("blindbox: caller is not the box owner")
	// ErrBoxClosed indicates the box is not open for purchases.
	ErrBoxClosed = errors.New("blindbox: box is closed")
	// ErrBoxOpen indicates a mutation that requires the box to be closed.
	ErrBoxOpen = errors.New("blindbox: box is open")
	// ErrBoxEmpty indicates no cards remain to draw.
	ErrBoxEmpty = errors.New("blindbox: no cards remain")
	// ErrNotOnSale indicates a purchase outside the box sales window.
	ErrNotOnSale = errors.New("blindbox: outside the sales window")
	// ErrInsufficientFunds indicates the buyer cannot cover the box price.
	ErrInsufficientFunds = errors.New("blindbox: insufficient funds for draw")
	// ErrInvalidCount indicates a zero card count or value.
	ErrInvalidCount = errors.New("blindbox: invalid card count")
	// ErrNoEntropy indicates the draw could not produce an unbiased index.
	ErrNoEntropy = errors.New("blindbox: randomness rejected too many times")
	// ErrArithmetic indicates a count or price computation would overflow.
	ErrArithmetic = errors.New("blindbox: arithmetic overflow")
	// ErrNilStore indicates the engine was constructed without storage.
	ErrNilStore = errors.New("blindbox: storage not configured")
	// ErrNilCollaborator indicates a required collaborator is missing.
	ErrNilCollaborator = errors.New("blindbox: collaborator not configured")
)
