// Package leaderboard keeps in-memory rankings of users by an integer value.
package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// Board names.
const (
	LongestStreak = "longest_streak"
	Badges        = "badges"
)

// Entry is a leaderboard row. Users with equal values share a rank and the
// following rank skips accordingly.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Value  int64  `json:"value"`
}

// Board is a treap-ordered ranking, safe for concurrent use.
type Board struct {
	name string
	mu   sync.RWMutex
	root *node
	byID map[string]int64
}

// NewBoard returns an empty board.
func NewBoard(name string) *Board {
	return &Board{name: name, byID: make(map[string]int64)}
}

// Name returns the board name.
func (b *Board) Name() string { return b.name }

// Set stores value for userID. It reports whether the value changed.
func (b *Board) Set(_ context.Context, userID string, value int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.byID[userID]; ok {
		if old == value {
			return false
		}
		b.root = remove(b.root, userID, old)
	}
	b.byID[userID] = value
	b.root = insert(b.root, userID, value)
	return true
}

// Rank returns the row for userID in O(log n).
func (b *Board) Rank(_ context.Context, userID string) (Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.byID[userID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{Rank: countGreater(b.root, value) + 1, UserID: userID, Value: value}, nil
}

// TopN returns the best n rows.
func (b *Board) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(b.byID)))
	collectTopN(b.root, n, &out)
	for i := range out {
		if i > 0 && out[i].Value == out[i-1].Value {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out, nil
}

// Count returns the number of users on the board.
func (b *Board) Count(_ context.Context) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byID)
}

// Reset removes every user from the board.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.root = nil
	b.byID = make(map[string]int64)
}

// Set is a named collection of boards.
type Set struct {
	boards map[string]*Board
}

// NewSet creates boards for each name.
func NewSet(names ...string) *Set {
	s := &Set{boards: make(map[string]*Board, len(names))}
	for _, name := range names {
		s.boards[name] = NewBoard(name)
	}
	return s
}

// Board returns the board called name.
func (s *Set) Board(name string) (*Board, error) {
	b, ok := s.boards[name]
	if !ok {
		return nil, ErrUnknownBoard
	}
	return b, nil
}

// Reset empties every board in the set.
func (s *Set) Reset() {
	for _, b := range s.boards {
		b.Reset()
	}
}

// Names returns the board names sorted.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.boards))
	for name := range s.boards {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
