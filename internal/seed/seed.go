// Package seed provides the fixed default dataset loaded on first start and
// restored by the reset endpoint.
package seed

import (
	"time"

	"tutorcore/pkg/domain"
)

var seededAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func base(id string) domain.Base {
	return domain.Base{ID: id, CreatedAt: seededAt, UpdatedAt: seededAt}
}

// DefaultSnapshot returns the seed dataset. Every call builds a fresh value
// so callers may mutate the result freely.
func DefaultSnapshot() domain.Snapshot {
	students := map[string]domain.Student{
		"std-seed-0001": {
			Base:     base("std-seed-0001"),
			Name:     "Aisyah Rahman",
			Guardian: "Siti Rahman",
			Phone:    "012-3456789",
			Status:   domain.StatusActive,
			JoinDate: "2024-01-01",
		},
		"std-seed-0002": {
			Base:     base("std-seed-0002"),
			Name:     "Daniel Lim",
			Guardian: "Susan Lim",
			Phone:    "012-9876543",
			Status:   domain.StatusActive,
			JoinDate: "2024-01-01",
		},
	}
	teachers := map[string]domain.Teacher{
		"tch-seed-0001": {
			Base:     base("tch-seed-0001"),
			Name:     "Cikgu Farah",
			Phone:    "013-1112222",
			Status:   domain.StatusActive,
			JoinDate: "2024-01-01",
			Salary:   domain.Salary{Type: domain.SalaryMonthly, Rate: 250000},
		},
	}
	staff := map[string]domain.StaffMember{
		"stf-seed-0001": {
			Base:     base("stf-seed-0001"),
			Name:     "Mei Ling",
			Role:     "admin",
			Status:   domain.StatusActive,
			JoinDate: "2024-01-01",
		},
	}
	classes := map[string]domain.Class{
		"cls-seed-0001": {
			Base:       base("cls-seed-0001"),
			Name:       "Mathematics Form 1",
			Schedule:   "Mon 15:00",
			Fee:        domain.Fee{Type: domain.FeeMonthly, Amount: 120000},
			StudentIDs: []string{"std-seed-0001", "std-seed-0002"},
			TeacherIDs: []string{"tch-seed-0001"},
		},
		"cls-seed-0002": {
			Base:       base("cls-seed-0002"),
			Name:       "Science Form 1",
			Schedule:   "Wed 15:00",
			Fee:        domain.Fee{Type: domain.FeePerSession, Amount: 30000},
			StudentIDs: []string{"std-seed-0001"},
			TeacherIDs: []string{"tch-seed-0001"},
		},
	}
	announcements := []domain.Announcement{
		{
			Base:    base("ann-seed-0001"),
			Date:    "2024-01-01",
			Title:   "Welcome",
			Content: "Welcome to the new term.",
		},
	}
	return domain.Snapshot{
		Students:        students,
		Teachers:        teachers,
		Staff:           staff,
		Classes:         classes,
		Attendance:      map[string]domain.AttendanceRecord{},
		Invoices:        map[string]domain.Invoice{},
		ProgressReports: map[string]domain.ProgressReport{},
		Ledger:          map[string]domain.LedgerEntry{},
		Income:          map[string]domain.IncomeItem{},
		Expenses:        map[string]domain.ExpenseItem{},
		Payrolls:        map[string]domain.Payroll{},
		Announcements:   announcements,
		Settings: domain.Settings{
			CenterName:        "Pusat Tuisyen Cemerlang",
			CurrencyLocale:    "ms-MY",
			BankName:          "Maybank",
			BankAccountNumber: "512345678901",
			BankAccountHolder: "Pusat Tuisyen Cemerlang",
			BankCode:          "MBBEMYKL",
			ThemeColor:        "#1d4ed8",
			Credentials: map[string]string{
				"admin":   "admin",
				"teacher": "teacher",
			},
		},
	}
}
