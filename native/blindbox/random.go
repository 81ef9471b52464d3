package blindbox

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// Randomness produces deterministic draw entropy from a seed. Every node
// must compute the same digest for the same seed.
type Randomness interface {
	Random(seed []byte) [32]byte
}

// Blake3Randomness derives draw entropy with BLAKE3.
type Blake3Randomness struct{}

func (Blake3Randomness) Random(seed []byte) [32]byte {
	return blake3.Sum256(seed)
}

// drawIndex maps entropy onto [0, total) without modulo bias: digests whose
// leading word falls into the uneven tail of the uint64 range are rejected
// and fresh entropy is derived, up to maxDrawRetries times.
const maxDrawRetries = 20

func drawIndex(rng Randomness, seed uint64, total uint64) (uint64, error) {
	if total == 0 {
		return 0, ErrBoxEmpty
	}
	bound := ^uint64(0) - (^uint64(0) % total)
	var material [16]byte
	binary.BigEndian.PutUint64(material[:8], seed)
	for retry := 0; retry < maxDrawRetries; retry++ {
		binary.BigEndian.PutUint64(material[8:], uint64(retry))
		digest := rng.Random(material[:])
		r := binary.BigEndian.Uint64(digest[:8])
		if r < bound {
			return r % total, nil
		}
	}
	return 0, ErrNoEntropy
}
