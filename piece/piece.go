// Package piece defines the seven tetrominoes, their rotation states under
// the standard rotation system, and the wall-kick offset tables used when a
// rotation collides. Everything in here is immutable after init; shapes and
// kick tables are shared lookups, never copied per search node.
package piece

import "fmt"

// Piece identifies one of the seven tetromino types. The zero value None
// stands for "no piece", used for an empty hold slot and empty queues.
type Piece uint8

const (
	None Piece = iota
	I
	J
	L
	O
	S
	T
	Z
)

// NumPieces is the number of real piece types, excluding None.
const NumPieces = 7

// All lists the real piece types in canonical order.
var All = [NumPieces]Piece{I, J, L, O, S, T, Z}

var pieceLetters = [NumPieces + 1]byte{'.', 'I', 'J', 'L', 'O', 'S', 'T', 'Z'}

func (p Piece) String() string {
	if p > Z {
		return fmt.Sprintf("Piece(%d)", uint8(p))
	}
	return string(pieceLetters[p])
}

// Letter returns the single-character form used in queue strings and logs.
// None renders as '.'.
func (p Piece) Letter() byte {
	if p > Z {
		return '?'
	}
	return pieceLetters[p]
}

// FromLetter parses a single piece letter, case-insensitively. '.' and '-'
// both map to None so queue strings can carry explicit blanks.
func FromLetter(c byte) (Piece, error) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	switch c {
	case '.', '-':
		return None, nil
	case 'I':
		return I, nil
	case 'J':
		return J, nil
	case 'L':
		return L, nil
	case 'O':
		return O, nil
	case 'S':
		return S, nil
	case 'T':
		return T, nil
	case 'Z':
		return Z, nil
	}
	return None, fmt.Errorf("not a piece letter: %q", string(c))
}

// ParseQueue converts a string such as "TIZO" into a piece slice, skipping
// whitespace. It fails on the first unknown letter.
func ParseQueue(s string) ([]Piece, error) {
	out := make([]Piece, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			continue
		}
		p, err := FromLetter(c)
		if err != nil {
			return nil, err
		}
		if p == None {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// QueueString renders a piece slice as a compact letter string.
func QueueString(ps []Piece) string {
	b := make([]byte, len(ps))
	for i, p := range ps {
		b[i] = p.Letter()
	}
	return string(b)
}

// Set is a small bitset over piece types. Used by feasibility checks that
// only care about membership, not order or multiplicity.
type Set uint8

func (s Set) Add(p Piece) Set {
	if p == None || p > Z {
		return s
	}
	return s | 1<<(p-1)
}

func (s Set) Has(p Piece) bool {
	if p == None || p > Z {
		return false
	}
	return s&(1<<(p-1)) != 0
}

func (s Set) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// SetOf builds a Set from the given pieces, ignoring None.
func SetOf(ps ...Piece) Set {
	var s Set
	for _, p := range ps {
		s = s.Add(p)
	}
	return s
}
