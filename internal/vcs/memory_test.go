package vcs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoLineage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	when := time.Now()

	m.AddCommit("r", "ann", "root", when, map[string]string{"a.py": "1"})
	m.AddCommit("h", "ann", "head", when.Add(time.Hour), map[string]string{"a.py": "1", "b.py": "2"})

	head, err := m.Head(ctx)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Hash != "h" || len(head.Parents) != 1 || head.Parents[0] != "r" {
		t.Errorf("head = %+v", head)
	}

	root, err := m.Commit(ctx, "r")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(root.Parents) != 0 {
		t.Errorf("root parents = %v", root.Parents)
	}
}

func TestMemoryRepoDiff(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	m.AddCommit("r", "", "", time.Now(), map[string]string{"a.py": "1", "b.py": "1"})
	m.AddCommit("h", "", "", time.Now(), map[string]string{"a.py": "2", "c.py": "1"})

	changes, err := m.Diff(ctx, "r", "h")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	got := map[string]ChangeKind{}
	for _, ch := range changes {
		got[ch.Path] = ch.Kind
	}
	if got["a.py"] != Modified || got["b.py"] != Deleted || got["c.py"] != Added {
		t.Errorf("changes = %v", changes)
	}

	if _, err := m.Diff(ctx, "r", "nope"); err == nil {
		t.Error("expected error for unknown commit")
	}
}

func TestMemoryRepoCheckout(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	m.AddCommit("r", "", "", time.Now(), nil)
	m.AddCommit("h", "", "", time.Now(), nil)

	if err := m.Checkout(ctx, "r"); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if m.CheckedOut() != "r" {
		t.Errorf("checked out %s", m.CheckedOut())
	}

	boom := errors.New("nope")
	m.FailCheckout("h", boom)
	if err := m.Checkout(ctx, "h"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if m.CheckedOut() != "r" {
		t.Errorf("failed checkout moved the tree to %s", m.CheckedOut())
	}
}

func TestMemoryRepoEmpty(t *testing.T) {
	if _, err := NewMemoryRepo().Head(context.Background()); err == nil {
		t.Error("expected error on empty repository")
	}
}
