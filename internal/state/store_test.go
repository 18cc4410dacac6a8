package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"contract-agent/internal/agent"
)

func TestAppendNeverMutatesPreviousSnapshot(t *testing.T) {
	base := New("c1").Append(agent.Message{ID: "1", Role: agent.RoleUser, Content: "hi"})
	// 预留容量也不能被共享。
	base.Messages = append(make([]agent.Message, 0, 8), base.Messages...)

	next := base.Append(agent.Message{ID: "2", Role: agent.RoleAssistant, Content: "hello"})
	other := base.Append(agent.Message{ID: "3", Role: agent.RoleAssistant, Content: "other"})

	if len(base.Messages) != 1 || base.Messages[0].ID != "1" {
		t.Fatalf("base mutated: %#v", base.Messages)
	}
	if len(next.Messages) != 2 || next.Messages[1].ID != "2" {
		t.Fatalf("next = %#v", next.Messages)
	}
	if other.Messages[1].ID != "3" || next.Messages[1].ID != "2" {
		t.Fatalf("appends share a backing array")
	}
	next.Messages[0].Content = "changed"
	if base.Messages[0].Content != "hi" {
		t.Fatalf("writing through next changed base")
	}
}

func TestTurnUpdateStagesAndDoneCommitsOnce(t *testing.T) {
	store := NewStore(nil)
	sess, err := store.Open(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var commits []State
	turn := sess.BeginTurn(context.Background(), func(_ context.Context, s State) error {
		commits = append(commits, s)
		return nil
	})

	staged := turn.Get().Append(agent.Message{ID: "u", Role: agent.RoleUser, Content: "hi"})
	if err := turn.Update(staged); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(commits) != 0 {
		t.Fatalf("Update must not persist")
	}
	if got := sess.Snapshot(); len(got.Messages) != 1 {
		t.Fatalf("session snapshot = %#v", got)
	}

	final := turn.Get().Append(agent.Message{ID: "a", Role: agent.RoleAssistant, Content: "yo"})
	if err := turn.Done(final); err != nil {
		t.Fatalf("Done: %v", err)
	}
	if len(commits) != 1 || len(commits[0].Messages) != 2 {
		t.Fatalf("commits = %#v", commits)
	}
	if !errors.Is(turn.Done(final), ErrTurnCommitted) {
		t.Fatalf("second Done should fail")
	}
	if !errors.Is(turn.Update(final), ErrTurnCommitted) {
		t.Fatalf("Update after Done should fail")
	}
	if len(commits) != 1 {
		t.Fatalf("hook ran %d times", len(commits))
	}
	if sess.Version() != 1 {
		t.Fatalf("version = %d, want 1", sess.Version())
	}
}

func TestNilHookSkipsPersistence(t *testing.T) {
	sess, _ := NewStore(nil).Open(context.Background(), "anon")
	turn := sess.BeginTurn(context.Background(), nil)
	if err := turn.Done(turn.Get().Append(agent.Message{Role: agent.RoleUser, Content: "x"})); err != nil {
		t.Fatalf("Done: %v", err)
	}
	if !turn.Committed() || len(sess.Snapshot().Messages) != 1 {
		t.Fatalf("state not committed in memory")
	}
}

func TestOpenHydratesFromLoaderOnce(t *testing.T) {
	calls := 0
	store := NewStore(func(_ context.Context, chatID string) (State, bool, error) {
		calls++
		if chatID != "saved" {
			return State{}, false, nil
		}
		return State{Messages: []agent.Message{{ID: "1", Role: agent.RoleUser, Content: "persisted"}}}, true, nil
	})

	sess, err := store.Open(context.Background(), "saved")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	snap := sess.Snapshot()
	if snap.ChatID != "saved" || len(snap.Messages) != 1 {
		t.Fatalf("snapshot = %#v", snap)
	}
	again, _ := store.Open(context.Background(), "saved")
	if again != sess || calls != 1 {
		t.Fatalf("session not reused (calls=%d)", calls)
	}

	store.Drop("saved")
	if _, err := store.Open(context.Background(), "saved"); err != nil || calls != 2 {
		t.Fatalf("Drop should force reload (calls=%d, err=%v)", calls, err)
	}
}

func TestOpenPropagatesLoaderError(t *testing.T) {
	boom := errors.New("db down")
	store := NewStore(func(context.Context, string) (State, bool, error) { return State{}, false, boom })
	if _, err := store.Open(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestConcurrentTurnsLastWriterWins(t *testing.T) {
	sess, _ := NewStore(nil).Open(context.Background(), "c")
	a := sess.BeginTurn(context.Background(), nil)
	b := sess.BeginTurn(context.Background(), nil)

	_ = a.Done(a.Get().Append(agent.Message{ID: "a"}))
	_ = b.Done(b.Get().Append(agent.Message{ID: "b"}))

	snap := sess.Snapshot()
	if len(snap.Messages) != 1 || snap.Messages[0].ID != "b" {
		t.Fatalf("snapshot = %#v, want only b", snap.Messages)
	}
}

func TestFirstUserTextAndLast(t *testing.T) {
	s := New("c").Append(
		agent.Message{Role: agent.RoleSystem, Content: "sys"},
		agent.Message{Role: agent.RoleUser, Content: "first"},
		agent.Message{Role: agent.RoleUser, Content: "second"},
	)
	if s.FirstUserText() != "first" {
		t.Fatalf("FirstUserText = %q", s.FirstUserText())
	}
	if last, ok := s.Last(); !ok || last.Content != "second" {
		t.Fatalf("Last = %#v", last)
	}
	if _, ok := New("x").Last(); ok {
		t.Fatalf("empty state has no last message")
	}
}

func TestSweepDropsIdleSessionsAndReloads(t *testing.T) {
	loads := 0
	store := NewStore(func(_ context.Context, chatID string) (State, bool, error) {
		loads++
		return New(chatID), false, nil
	})
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	ctx := context.Background()
	if _, err := store.Open(ctx, "old"); err != nil {
		t.Fatalf("Open old: %v", err)
	}
	clock = clock.Add(50 * time.Minute)
	busy, err := store.Open(ctx, "busy")
	if err != nil {
		t.Fatalf("Open busy: %v", err)
	}
	clock = clock.Add(20 * time.Minute)
	turn := busy.BeginTurn(ctx, nil)
	if err := turn.Update(turn.Get().Append(agent.Message{ID: "u", Role: agent.RoleUser, Content: "hi"})); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if n := store.Sweep(time.Hour); n != 1 {
		t.Fatalf("Sweep removed %d sessions, want 1", n)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
	if n := store.Sweep(0); n != 0 {
		t.Fatalf("Sweep(0) must be a no-op, removed %d", n)
	}

	if _, err := store.Open(ctx, "old"); err != nil {
		t.Fatalf("reopen old: %v", err)
	}
	if loads != 3 {
		t.Fatalf("loader calls = %d, want 3", loads)
	}
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.RunSweeper(ctx, time.Millisecond, time.Hour) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunSweeper: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RunSweeper did not stop")
	}
}
