package core

import (
	"context"
	"errors"
	"testing"

	"tutorcore/pkg/domain"
)

func TestIncomeAndExpenseLifecycle(t *testing.T) {
	svc := newTestService(t)
	mustApply(t, svc, domain.AddIncome{Item: IncomeItem{Base: domain.Base{ID: "inc-1"}, Amount: 50000, Description: "book sales"}})
	mustApply(t, svc, domain.AddExpense{Item: ExpenseItem{Base: domain.Base{ID: "exp-1"}, Amount: 12000, Description: "stationery", Date: "2024-03-01"}})

	state := svc.State()
	if state.Income["inc-1"].Date != testToday {
		t.Fatalf("income date should default to today, got %q", state.Income["inc-1"].Date)
	}
	if state.Expenses["exp-1"].Date != "2024-03-01" {
		t.Fatalf("explicit expense date must be kept, got %q", state.Expenses["exp-1"].Date)
	}

	mustApply(t, svc, domain.DeleteIncome{ID: "inc-1"})
	mustApply(t, svc, domain.DeleteExpense{ID: "exp-1"})
	state = svc.State()
	if len(state.Income) != 0 || len(state.Expenses) != 0 {
		t.Fatalf("items not deleted")
	}
}

func TestAnnouncementsPrependAndScope(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.AddAnnouncement{Announcement: Announcement{Title: "older"}})
	mustApply(t, svc, domain.AddAnnouncement{Announcement: Announcement{Title: "newer", ClassID: "cls-m"}})

	state := svc.State()
	if len(state.Announcements) != 2 {
		t.Fatalf("expected 2 announcements, got %d", len(state.Announcements))
	}
	if state.Announcements[0].Title != "newer" {
		t.Fatalf("newest announcement must come first, got %q", state.Announcements[0].Title)
	}
	if state.Announcements[0].Date != testToday {
		t.Fatalf("announcement date should default to today")
	}

	_, err := svc.Apply(context.Background(), domain.AddAnnouncement{Announcement: Announcement{Title: "bad", ClassID: "cls-missing"}})
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unknown class scope, got %v", err)
	}

	mustApply(t, svc, domain.DeleteAnnouncement{ID: state.Announcements[0].ID})
	state = svc.State()
	if len(state.Announcements) != 1 || state.Announcements[0].Title != "older" {
		t.Fatalf("deletion broke ordering: %+v", state.Announcements)
	}
}

func TestUpdateSettingsKeepsCredentialsWhenAbsent(t *testing.T) {
	svc := newTestService(t)
	mustApply(t, svc, domain.UpdateSettings{Settings: Settings{
		CenterName:  "Center",
		Credentials: map[string]string{"admin": "secret"},
	}})

	// A settings update without credentials must not wipe the stored logins.
	mustApply(t, svc, domain.UpdateSettings{Settings: Settings{
		CenterName: "Renamed Center",
		ThemeColor: "#123456",
	}})
	settings := svc.State().Settings
	if settings.CenterName != "Renamed Center" || settings.ThemeColor != "#123456" {
		t.Fatalf("settings not replaced: %+v", settings)
	}
	if settings.Credentials["admin"] != "secret" {
		t.Fatalf("credentials wiped by settings update: %+v", settings.Credentials)
	}

	// An explicit credentials map replaces the stored one.
	mustApply(t, svc, domain.UpdateSettings{Settings: Settings{
		CenterName:  "Renamed Center",
		Credentials: map[string]string{"admin": "rotated"},
	}})
	if got := svc.State().Settings.Credentials["admin"]; got != "rotated" {
		t.Fatalf("explicit credentials not applied: %q", got)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := newTestService(t)
	mustApply(t, svc, domain.UpdateSettings{Settings: Settings{
		Credentials: map[string]string{"admin": "old", "teacher": "t"},
	}})
	mustApply(t, svc, domain.UpdatePassword{Role: "admin", Password: "new"})
	creds := svc.State().Settings.Credentials
	if creds["admin"] != "new" || creds["teacher"] != "t" {
		t.Fatalf("password update wrong: %+v", creds)
	}

	_, err := svc.Apply(context.Background(), domain.UpdatePassword{Role: "janitor", Password: "x"})
	var invalid domain.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError for unknown role, got %v", err)
	}
}
