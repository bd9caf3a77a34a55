// Package cli runs a human-vs-computer game in the terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"ctchen222/BigTicTacToe/internal/engine"
	"ctchen222/BigTicTacToe/internal/game"

	"github.com/muesli/termenv"
)

// The human always plays X and moves first.
const (
	humanMark    = game.PlayerX
	computerMark = game.PlayerO
)

var errBadInput = errors.New("enter row,column such as 2,3")

// Options configure a terminal game.
type Options struct {
	// Size is the board side; zero asks the player.
	Size int
	// Seed makes the engine and the autopilot reproducible; zero is random.
	Seed uint64
	// Autopilot plays random human moves instead of reading input.
	Autopilot bool
	In        io.Reader
	Out       *termenv.Output
}

// Play runs one game to the end and returns its outcome. It returns
// ctx.Err() once ctx is cancelled, even while waiting for input.
func Play(ctx context.Context, opts Options) (engine.Outcome, error) {
	out := opts.Out
	in := &lineReader{in: bufio.NewReader(opts.In)}
	r := NewRenderer(out)

	size := opts.Size
	if size == 0 {
		var err error
		if size, err = askSize(ctx, in, out); err != nil {
			return engine.Ongoing, err
		}
	}
	if size < game.MinSize || size > game.MaxSize {
		return engine.Ongoing, fmt.Errorf("%w: %d", game.ErrInvalidSize, size)
	}

	engineOpts := []engine.Option{}
	human := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	if opts.Seed != 0 {
		engineOpts = append(engineOpts, engine.WithSeed(opts.Seed))
		human = rand.New(rand.NewPCG(opts.Seed, opts.Seed+1))
	}
	computer, err := engine.New(computerMark, engineOpts...)
	if err != nil {
		return engine.Ongoing, err
	}

	board, err := game.NewBoard(size)
	if err != nil {
		return engine.Ongoing, err
	}
	fmt.Fprint(out, r.Board(board))

	for {
		if err := ctx.Err(); err != nil {
			return engine.Ongoing, err
		}
		var move game.Move
		if opts.Autopilot {
			empty := board.EmptyCells()
			move = empty[human.IntN(len(empty))]
			row, col := move.OneBased()
			fmt.Fprintf(out, "Autopilot chose: %d,%d\n", row, col)
			if err := board.Apply(move, humanMark); err != nil {
				return engine.Ongoing, err
			}
		} else if move, err = askMove(ctx, in, out, board); err != nil {
			return engine.Ongoing, err
		}
		fmt.Fprint(out, r.Board(board))
		if o := outcome(board); o != engine.Ongoing {
			return finish(out, r, o), nil
		}
		if err := ctx.Err(); err != nil {
			return engine.Ongoing, err
		}

		move, err = computer.BestMove(ctx, board)
		if err != nil {
			return engine.Ongoing, fmt.Errorf("computer failed to move: %w", err)
		}
		if err := board.Apply(move, computerMark); err != nil {
			return engine.Ongoing, err
		}
		row, col := move.OneBased()
		fmt.Fprintf(out, "Computer chose: %d,%d\n", row, col)
		fmt.Fprint(out, r.Board(board))
		if o := outcome(board); o != engine.Ongoing {
			return finish(out, r, o), nil
		}
	}
}

func askSize(ctx context.Context, in *lineReader, out io.Writer) (int, error) {
	for {
		fmt.Fprintf(out, "Please enter the size of the board n (%d-%d): ", game.MinSize, game.MaxSize)
		line, err := in.ReadLine(ctx)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= game.MinSize && n <= game.MaxSize {
			return n, nil
		}
		fmt.Fprintf(out, "Board size must be a number from %d to %d.\n", game.MinSize, game.MaxSize)
	}
}

// askMove reads moves until one can be applied to board.
func askMove(ctx context.Context, in *lineReader, out io.Writer, board *game.Board) (game.Move, error) {
	for {
		fmt.Fprintln(out, "Player's Move")
		fmt.Fprint(out, "Choose your move (row,column): ")
		line, err := in.ReadLine(ctx)
		if err != nil {
			return game.Move{}, err
		}
		move, err := parseMove(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		switch err := board.Apply(move, humanMark); {
		case errors.Is(err, game.ErrOutOfBounds):
			fmt.Fprintln(out, "Not a valid row or column!")
		case errors.Is(err, game.ErrCellOccupied):
			fmt.Fprintln(out, "Position is already taken!")
		case err != nil:
			return game.Move{}, err
		default:
			return move, nil
		}
	}
}

// parseMove reads a 1-based "row,col" pair.
func parseMove(line string) (game.Move, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return game.Move{}, errBadInput
	}
	row, errRow := strconv.Atoi(strings.TrimSpace(parts[0]))
	col, errCol := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errRow != nil || errCol != nil {
		return game.Move{}, errBadInput
	}
	return game.MoveFromOneBased(row, col), nil
}

type lineResult struct {
	line string
	err  error
}

// lineReader reads input lines on a goroutine so a blocked read does not
// hold up cancellation. At most one read is in flight; a read abandoned by
// a cancelled call is picked up by the next one.
type lineReader struct {
	in      *bufio.Reader
	pending chan lineResult
}

func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	if l.pending == nil {
		ch := make(chan lineResult, 1)
		l.pending = ch
		go func() {
			line, err := readLine(l.in)
			ch <- lineResult{line: line, err: err}
		}()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-l.pending:
		l.pending = nil
		return res.line, res.err
	}
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func outcome(b *game.Board) engine.Outcome {
	switch {
	case b.HasLine(humanMark):
		return engine.PlayerWon
	case b.HasLine(computerMark):
		return engine.ComputerWon
	case b.IsFull():
		return engine.Draw
	default:
		return engine.Ongoing
	}
}

func finish(out io.Writer, r *Renderer, o engine.Outcome) engine.Outcome {
	fmt.Fprintln(out, r.Headline("GAME OVER"))
	switch o {
	case engine.PlayerWon:
		fmt.Fprintln(out, "You Win!")
	case engine.ComputerWon:
		fmt.Fprintln(out, "You Lose!")
	default:
		fmt.Fprintln(out, "It's a draw!")
	}
	return o
}
