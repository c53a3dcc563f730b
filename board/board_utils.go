package board

import (
	"fmt"
	"strings"
)

// ToDisplayText draws the board for the shell, with column digits on top
// and the hidden spawn rows marked. Filled cells render as X.
func (b Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("\n   ")
	for x := 0; x < b.width; x++ {
		fmt.Fprintf(&sb, "%d", x%10)
	}
	sb.WriteString("\n   ")
	sb.WriteString(strings.Repeat("-", b.width))
	sb.WriteString("\n")
	for y := 0; y < len(b.rows); y++ {
		fmt.Fprintf(&sb, "%2d|", y)
		for x := 0; x < b.width; x++ {
			if b.rows[y]&(1<<uint(x)) != 0 {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|")
		if len(b.rows) == StandardHeight && y < HiddenRows {
			sb.WriteString(" (hidden)")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("   ")
	sb.WriteString(strings.Repeat("-", b.width))
	sb.WriteString("\n")
	return sb.String()
}

// String renders the rows as a compact single line of row masks, mostly for
// debug logs.
func (b Board) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "board[%dx%d", b.width, len(b.rows))
	for y, r := range b.rows {
		if r != 0 {
			fmt.Fprintf(&sb, " %d:%0*b", y, b.width, r)
		}
	}
	sb.WriteString("]")
	return sb.String()
}
