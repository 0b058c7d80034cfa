package game

import (
	"github.com/robalobadob/wordstar/internal/letters"
)

// Selection tracks the tiles a player has swiped, in order. A tile can be
// selected once, so the spelled word never needs more copies of a letter than
// the board holds.
type Selection struct {
	board   letters.Multiset
	indices []int
}

// NewSelection starts an empty selection over board.
func NewSelection(board letters.Multiset) *Selection {
	return &Selection{board: board}
}

// Add appends tile i.
func (s *Selection) Add(i int) error {
	if i < 0 || i >= len(s.board) {
		return ErrTileOutOfRange
	}
	for _, j := range s.indices {
		if j == i {
			return ErrTileReused
		}
	}
	if !letters.CanBuildStrict(s.word()+string(s.board[i]), s.board) {
		return ErrTileReused
	}
	s.indices = append(s.indices, i)
	return nil
}

// Undo drops the last tile, if any.
func (s *Selection) Undo() {
	if len(s.indices) > 0 {
		s.indices = s.indices[:len(s.indices)-1]
	}
}

// Clear empties the selection.
func (s *Selection) Clear() { s.indices = s.indices[:0] }

// Indices returns the selected tile indexes in order.
func (s *Selection) Indices() []int { return append([]int(nil), s.indices...) }

// Word spells the selection.
func (s *Selection) Word() string { return s.word() }

func (s *Selection) word() string {
	rs := make([]rune, len(s.indices))
	for k, i := range s.indices {
		rs[k] = s.board[i]
	}
	return string(rs)
}
