package piece

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// Bag deals pieces under the seven-bag rule: each run of seven contains
// every piece type exactly once, in shuffled order. Not safe for concurrent
// use; each game runner owns its own bag.
type Bag struct {
	rng  *frand.RNG
	next []Piece
}

// NewBag returns a bag with an unpredictable shuffle order.
func NewBag() *Bag {
	return &Bag{rng: frand.New()}
}

// NewSeededBag returns a bag whose deal order is fully determined by seed,
// for replayable self-play games.
func NewSeededBag(seed uint64) *Bag {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return &Bag{rng: frand.NewCustom(key[:], 1024, 12)}
}

func (b *Bag) refill(n int) {
	for len(b.next) < n {
		start := len(b.next)
		b.next = append(b.next, All[:]...)
		batch := b.next[start:]
		b.rng.Shuffle(len(batch), func(i, j int) {
			batch[i], batch[j] = batch[j], batch[i]
		})
	}
}

// Draw removes and returns the next piece.
func (b *Bag) Draw() Piece {
	b.refill(1)
	p := b.next[0]
	b.next = b.next[1:]
	return p
}

// Peek returns the next n pieces without drawing them. The returned slice
// is only valid until the next Draw.
func (b *Bag) Peek(n int) []Piece {
	b.refill(n)
	return b.next[:n]
}
