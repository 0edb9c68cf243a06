package bbolt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/examflow/storage"
)

func newTestDB(t *testing.T) (*bbolt.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		t.Fatalf("could not open db: %v", err)
	}
	return db, path
}

func TestBBoltStore(t *testing.T) {
	db, _ := newTestDB(t)
	s := NewStore(db, "")
	defer s.Close()

	t.Run("GetBeforeAnyWrite", func(t *testing.T) {
		_, err := s.Get("token")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on empty db, got %v", err)
		}
	})

	t.Run("PutGet", func(t *testing.T) {
		if err := s.Put("token", "abc123"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.Get("token")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "abc123" {
			t.Errorf("expected %q, got %q", "abc123", got)
		}
	})

	t.Run("DeleteMissingIsNoop", func(t *testing.T) {
		if err := s.Delete("never-existed"); err != nil {
			t.Fatalf("Delete of missing key failed: %v", err)
		}
	})

	t.Run("BatchRollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.Batch(func(tx storage.BatchTx) error {
			if err := tx.Put("token", "overwritten"); err != nil {
				return err
			}
			if err := tx.Put("user", "{}"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, _ := s.Get("token")
		if got != "abc123" {
			t.Errorf("expected rollback to keep %q, got %q", "abc123", got)
		}
		if _, err := s.Get("user"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected user to be absent after rollback, got %v", err)
		}
	})

	t.Run("DeletePair", func(t *testing.T) {
		if err := s.Put("user", `{"id":1}`); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Delete("token", "user"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		for _, k := range []string{"token", "user"} {
			if _, err := s.Get(k); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected %s to be deleted, got %v", k, err)
			}
		}
	})
}

func TestBBoltStoreSurvivesReopen(t *testing.T) {
	db, path := newTestDB(t)
	s := NewStore(db, "")
	if err := s.Put("token", "persisted"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("token")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got != "persisted" {
		t.Errorf("expected %q, got %q", "persisted", got)
	}
}

func TestNewStoreFromFileBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStoreFromFile(filepath.Join(blocker, "session.db"), nil); err == nil {
		t.Fatal("expected error opening db beneath a regular file")
	}
}
