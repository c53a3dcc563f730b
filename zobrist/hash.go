package zobrist

import (
	"lukechampine.com/frand"

	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/piece"
)

const bignum = 1<<63 - 2

// Zobrist generates hashes for search states so the pattern solver can
// recognize transpositions: different move orders reaching the same board
// with the same piece context.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	cellTable  [][]uint64
	pieceTable [piece.NumPieces + 1]uint64
	holdTable  [piece.NumPieces + 1]uint64
	depthTable []uint64
	usedHold   uint64

	width  int
	height int
}

// Initialize sizes the random tables for one board geometry. maxDepth
// bounds the depth component; deeper states reuse the last entry.
func (z *Zobrist) Initialize(width, height, maxDepth int) {
	z.width = width
	z.height = height
	z.cellTable = make([][]uint64, height)
	for y := 0; y < height; y++ {
		z.cellTable[y] = make([]uint64, width)
		for x := 0; x < width; x++ {
			z.cellTable[y][x] = frand.Uint64n(bignum) + 1
		}
	}
	for i := range z.pieceTable {
		z.pieceTable[i] = frand.Uint64n(bignum) + 1
		z.holdTable[i] = frand.Uint64n(bignum) + 1
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	z.depthTable = make([]uint64, maxDepth+1)
	for i := range z.depthTable {
		z.depthTable[i] = frand.Uint64n(bignum) + 1
	}
	z.usedHold = frand.Uint64n(bignum) + 1
}

// Hash keys a full search state: the board cells plus the piece context.
// Depth disambiguates states whose remaining queues differ only by how far
// along they are.
func (z *Zobrist) Hash(b board.Board, current, hold piece.Piece, usedHold bool, depth int) uint64 {
	key := uint64(0)
	for y := 0; y < z.height; y++ {
		row := b.Row(y)
		for x := 0; row != 0 && x < z.width; x++ {
			if row&(1<<uint(x)) != 0 {
				key ^= z.cellTable[y][x]
				row &^= 1 << uint(x)
			}
		}
	}
	key ^= z.pieceTable[current]
	key ^= z.holdTable[hold]
	if usedHold {
		key ^= z.usedHold
	}
	if depth >= len(z.depthTable) {
		depth = len(z.depthTable) - 1
	}
	key ^= z.depthTable[depth]
	return key
}
