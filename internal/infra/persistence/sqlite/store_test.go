package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tutorcore/pkg/domain"
)

func TestRoundTripSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "tutorcore.db")

	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateStudent(domain.Student{Base: domain.Base{ID: "std-1"}, Name: "Aminah", Status: domain.StatusActive}); err != nil {
			return err
		}
		if _, err := tx.CreateClass(domain.Class{Base: domain.Base{ID: "cls-1"}, Name: "Math", StudentIDs: []string{"std-1"}, TeacherIDs: []string{}}); err != nil {
			return err
		}
		if _, err := tx.PrependAnnouncement(domain.Announcement{Base: domain.Base{ID: "ann-1"}, Title: "Welcome"}); err != nil {
			return err
		}
		tx.SetSettings(domain.Settings{CenterName: "Center", Credentials: map[string]string{"admin": "pw"}})
		return nil
	}); err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	state := reopened.ExportState()
	if state.Students["std-1"].Name != "Aminah" {
		t.Fatalf("student not restored: %+v", state.Students)
	}
	class, ok := state.Classes["cls-1"]
	if !ok || len(class.StudentIDs) != 1 || class.StudentIDs[0] != "std-1" {
		t.Fatalf("class membership not restored: %+v", class)
	}
	if len(state.Announcements) != 1 || state.Announcements[0].Title != "Welcome" {
		t.Fatalf("announcements not restored: %+v", state.Announcements)
	}
	if state.Settings.CenterName != "Center" || state.Settings.Credentials["admin"] != "pw" {
		t.Fatalf("settings not restored: %+v", state.Settings)
	}
}

func TestPersistAfterImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutorcore.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store.ImportState(domain.Snapshot{
		Teachers: map[string]domain.Teacher{"tch-1": {Base: domain.Base{ID: "tch-1"}, Name: "Farah"}},
	})
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if reopened.ExportState().Teachers["tch-1"].Name != "Farah" {
		t.Fatalf("imported state not persisted")
	}
}

func TestFailedTransactionWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutorcore.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateStudent(domain.Student{Name: "X"}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}

	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed transaction must not snapshot, got %d buckets", count)
	}
}

func TestDefaultPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explicit.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Path() != path {
		t.Fatalf("Path() = %q", store.Path())
	}
}
