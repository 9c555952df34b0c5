package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
)

func TestBoard_BasicOperations(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(Badges)

	if count := b.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if !b.Set(ctx, "reader1", 4) {
		t.Error("expected first set to change the board")
	}
	if b.Set(ctx, "reader1", 4) {
		t.Error("expected identical set to be a no-op")
	}

	entry, err := b.Rank(ctx, "reader1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Value != 4 {
		t.Errorf("expected rank 1 value 4, got %+v", entry)
	}

	if _, err := b.Rank(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := b.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestBoard_OrderingAndTies(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(LongestStreak)

	b.Set(ctx, "carol", 30)
	b.Set(ctx, "alice", 7)
	b.Set(ctx, "bob", 30)
	b.Set(ctx, "dave", 3)

	top, err := b.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Entry{
		{Rank: 1, UserID: "bob", Value: 30},
		{Rank: 1, UserID: "carol", Value: 30},
		{Rank: 3, UserID: "alice", Value: 7},
		{Rank: 4, UserID: "dave", Value: 3},
	}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("position %d: expected %+v, got %+v", i, want[i], top[i])
		}
	}

	for _, w := range want {
		got, err := b.Rank(ctx, w.UserID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Rank != w.Rank {
			t.Errorf("%s: expected rank %d, got %d", w.UserID, w.Rank, got.Rank)
		}
	}

	// moving a user down re-sorts the board
	b.Set(ctx, "bob", 1)
	top, _ = b.TopN(ctx, 2)
	if top[0].UserID != "carol" || top[1].UserID != "alice" {
		t.Errorf("unexpected order after update: %+v", top)
	}
	if e, _ := b.Rank(ctx, "bob"); e.Rank != 4 {
		t.Errorf("expected bob at rank 4, got %d", e.Rank)
	}
}

func TestBoard_RankMatchesSortUnderStress(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(Badges)
	rng := rand.New(rand.NewSource(3))
	values := make(map[string]int64)

	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("u%03d", rng.Intn(300))
		v := rng.Int63n(50)
		values[id] = v
		b.Set(ctx, id, v)
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if values[ids[i]] != values[ids[j]] {
			return values[ids[i]] > values[ids[j]]
		}
		return ids[i] < ids[j]
	})

	top, _ := b.TopN(ctx, len(ids))
	if len(top) != len(ids) {
		t.Fatalf("expected %d entries, got %d", len(ids), len(top))
	}
	for i, id := range ids {
		if top[i].UserID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, top[i].UserID)
		}
		e, err := b.Rank(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Rank != top[i].Rank {
			t.Fatalf("%s: Rank %d disagrees with TopN rank %d", id, e.Rank, top[i].Rank)
		}
	}
}

func TestBoard_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(Badges)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("g%d-%d", g, i%20)
				b.Set(ctx, id, int64(i))
				_, _ = b.Rank(ctx, id)
				_, _ = b.TopN(ctx, 5)
			}
		}(g)
	}
	wg.Wait()

	if count := b.Count(ctx); count != 160 {
		t.Errorf("expected 160 users, got %d", count)
	}
}

func TestSet_Lookup(t *testing.T) {
	s := NewSet(LongestStreak, Badges)
	if _, err := s.Board(LongestStreak); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Board("pages"); !errors.Is(err, ErrUnknownBoard) {
		t.Errorf("expected ErrUnknownBoard, got %v", err)
	}
	names := s.Names()
	if len(names) != 2 || names[0] != Badges || names[1] != LongestStreak {
		t.Errorf("unexpected names %v", names)
	}
}

func TestSet_Reset(t *testing.T) {
	ctx := context.Background()
	s := NewSet(LongestStreak, Badges)
	streaks, _ := s.Board(LongestStreak)
	badges, _ := s.Board(Badges)
	streaks.Set(ctx, "reader1", 3)
	badges.Set(ctx, "reader1", 2)

	s.Reset()

	if n := streaks.Count(ctx); n != 0 {
		t.Errorf("expected empty streak board, got %d", n)
	}
	if _, err := badges.Rank(ctx, "reader1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after reset, got %v", err)
	}
	if !streaks.Set(ctx, "reader2", 1) {
		t.Error("expected set after reset to change the board")
	}
	if entry, err := streaks.Rank(ctx, "reader2"); err != nil || entry.Rank != 1 {
		t.Errorf("expected reader2 at rank 1, got %+v, %v", entry, err)
	}
}
