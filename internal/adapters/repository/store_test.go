package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

// storeContract exercises behavior every Store must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Genetic(ctx, "a1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.Biometrics(ctx, "a1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		all, err := s.AllBiometrics(ctx)
		if err != nil || len(all) != 0 {
			t.Fatalf("expected no documents, got %d (%v)", len(all), err)
		}
		if n := s.Count(ctx); n != 0 {
			t.Fatalf("expected count 0, got %d", n)
		}
	})

	t.Run("append and read back in order", func(t *testing.T) {
		s := newStore(t)
		if err := s.AppendGenetic(ctx, "a1", []json.RawMessage{raw(`{"Gene":"ACTN3"}`), raw(`{"Gene":"ACE"}`)}); err != nil {
			t.Fatalf("append genetic: %v", err)
		}
		if err := s.AppendBiometrics(ctx, "a2", []json.RawMessage{raw(`{"AthleteId":"a2","Date":"2024-05-01"}`)}); err != nil {
			t.Fatalf("append biometrics: %v", err)
		}
		if err := s.AppendBiometrics(ctx, "a1", []json.RawMessage{raw(`{"AthleteId":"a1","Date":"2024-05-01"}`)}); err != nil {
			t.Fatalf("append biometrics: %v", err)
		}

		docs, err := s.Genetic(ctx, "a1")
		if err != nil {
			t.Fatalf("genetic: %v", err)
		}
		if len(docs) != 2 || string(docs[0]) != `{"Gene":"ACTN3"}` || string(docs[1]) != `{"Gene":"ACE"}` {
			t.Fatalf("unexpected genetic docs: %s", docs)
		}
		if _, err := s.Genetic(ctx, "a2"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("a2 has no genetic docs, got %v", err)
		}

		all, err := s.AllBiometrics(ctx)
		if err != nil || len(all) != 2 {
			t.Fatalf("expected 2 biometric docs, got %d (%v)", len(all), err)
		}
		if string(all[0]) != `{"AthleteId":"a2","Date":"2024-05-01"}` {
			t.Fatalf("expected insertion order, got %s", all[0])
		}

		ids, err := s.Athletes(ctx)
		if err != nil || len(ids) != 2 || ids[0] != "a1" || ids[1] != "a2" {
			t.Fatalf("unexpected athletes %v (%v)", ids, err)
		}
		if n := s.Count(ctx); n != 4 {
			t.Fatalf("expected count 4, got %d", n)
		}
	})

	t.Run("malformed documents are stored verbatim", func(t *testing.T) {
		s := newStore(t)
		if err := s.AppendGenetic(ctx, "a1", []json.RawMessage{raw(`{"Genes":"{broken"}`)}); err != nil {
			t.Fatalf("append: %v", err)
		}
		docs, err := s.Genetic(ctx, "a1")
		if err != nil || string(docs[0]) != `{"Genes":"{broken"}` {
			t.Fatalf("unexpected %s (%v)", docs, err)
		}
	})

	t.Run("blank athlete id is rejected", func(t *testing.T) {
		s := newStore(t)
		if err := s.AppendGenetic(ctx, "  ", []json.RawMessage{raw(`{}`)}); !errors.Is(err, ErrInvalidAthlete) {
			t.Fatalf("expected ErrInvalidAthlete, got %v", err)
		}
		if _, err := s.Biometrics(ctx, ""); !errors.Is(err, ErrInvalidAthlete) {
			t.Fatalf("expected ErrInvalidAthlete, got %v", err)
		}
	})

	t.Run("concurrent appends", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					if err := s.AppendBiometrics(ctx, "a1", []json.RawMessage{raw(`{}`)}); err != nil {
						t.Errorf("append: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()
		docs, err := s.Biometrics(ctx, "a1")
		if err != nil || len(docs) != 80 {
			t.Fatalf("expected 80 docs, got %d (%v)", len(docs), err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s := NewMemoryStore()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Close()
	if err := s.AppendGenetic(context.Background(), "a1", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryStore_CopiesInput(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	doc := []byte(`{"a":1}`)
	_ = s.AppendGenetic(ctx, "a1", []json.RawMessage{doc})
	doc[2] = 'b'
	docs, _ := s.Genetic(ctx, "a1")
	if string(docs[0]) != `{"a":1}` {
		t.Fatalf("stored document was mutated: %s", docs[0])
	}
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "athletix.db"))
		if err != nil {
			t.Skipf("sqlite unavailable: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "athletix.db")
	s, err := NewSQLiteStore(ctx, path, WithMaxOpenConns(1))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := s.AppendGenetic(ctx, "a1", []json.RawMessage{raw(`{"ACTN3":"RR"}`)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = s.Close()

	s, err = NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	docs, err := s.Genetic(ctx, "a1")
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected persisted document, got %d (%v)", len(docs), err)
	}
	if s.Path() != path {
		t.Fatalf("unexpected path %s", s.Path())
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "memory", "")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", s)
	}
	if _, err := Open(ctx, "mongo", ""); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}
