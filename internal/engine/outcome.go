package engine

// Outcome is the terminal classification of a position.
type Outcome int

const (
	Ongoing Outcome = iota
	ComputerWon
	PlayerWon
	Draw
)

// Score returns the exact search value of a decided outcome. Draws are
// scored with jitter by the search, so their nominal value is only used
// for reporting.
func (o Outcome) Score() float64 {
	switch o {
	case ComputerWon:
		return 1
	case PlayerWon:
		return -1
	default:
		return 0
	}
}

func (o Outcome) String() string {
	switch o {
	case ComputerWon:
		return "computer_won"
	case PlayerWon:
		return "player_won"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Perspective selects which side a score is computed for.
type Perspective int

const (
	// Human is the minimizing side.
	Human Perspective = iota
	// Computer is the maximizing side.
	Computer
)

func (p Perspective) String() string {
	if p == Computer {
		return "computer"
	}
	return "human"
}
