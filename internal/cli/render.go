package cli

import (
	"fmt"
	"strings"

	"ctchen222/BigTicTacToe/internal/game"

	"github.com/muesli/termenv"
)

// Renderer draws boards with colored marks. On a terminal without color
// support the output is plain text.
type Renderer struct {
	out *termenv.Output
}

func NewRenderer(out *termenv.Output) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) mark(m game.PlayerMark) string {
	switch m {
	case game.PlayerX:
		return r.out.String("X").Foreground(r.out.Color("4")).Bold().String()
	case game.PlayerO:
		return r.out.String("O").Foreground(r.out.Color("1")).Bold().String()
	default:
		return " "
	}
}

// Board renders b with 1-based row and column numbers.
func (r *Renderer) Board(b *game.Board) string {
	n := b.Size()
	label := len(fmt.Sprint(n))
	pad := strings.Repeat(" ", label)
	separator := pad + strings.Repeat("--", n) + "-\n"

	var sb strings.Builder
	sb.WriteString(pad)
	for c := 0; c < n; c++ {
		// Two-digit columns lose alignment; only size 10 has one.
		fmt.Fprintf(&sb, " %d", c+1)
	}
	sb.WriteByte('\n')
	for row := 0; row < n; row++ {
		sb.WriteString(separator)
		fmt.Fprintf(&sb, "%*d", label, row+1)
		for c := 0; c < n; c++ {
			sb.WriteString("|" + r.mark(b.At(row, c)))
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(separator)
	return sb.String()
}

// Headline renders a bold status line.
func (r *Renderer) Headline(s string) string {
	return r.out.String(s).Bold().String()
}
