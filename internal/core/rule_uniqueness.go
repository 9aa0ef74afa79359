package core

import (
	"context"
	"fmt"

	"tutorcore/pkg/domain"
)

// AttendanceUniquenessRule blocks duplicate attendance rows for the same
// (class, student, date) triple.
func AttendanceUniquenessRule() domain.Rule {
	return attendanceUniquenessRule{}
}

type attendanceUniquenessRule struct{}

func (attendanceUniquenessRule) Name() string { return "attendance-uniqueness" }

func (attendanceUniquenessRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	seen := make(map[string]string)
	var result Result
	for _, rec := range view.ListAttendanceRecords() {
		key := rec.ClassID + "|" + rec.StudentID + "|" + rec.Date
		if firstID, dup := seen[key]; dup {
			result.Violations = append(result.Violations, Violation{
				Rule:     "attendance-uniqueness",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("duplicate attendance for class %s student %s on %s (first %s)", rec.ClassID, rec.StudentID, rec.Date, firstID),
				Entity:   domain.EntityAttendanceRecord,
				EntityID: rec.ID,
			})
			continue
		}
		seen[key] = rec.ID
	}
	return result, nil
}

// InvoiceUniquenessRule blocks more than one invoice per (student, month).
// A cancelled invoice still occupies its slot, so regeneration for a month a
// cancelled invoice covers never creates a duplicate.
func InvoiceUniquenessRule() domain.Rule {
	return invoiceUniquenessRule{}
}

type invoiceUniquenessRule struct{}

func (invoiceUniquenessRule) Name() string { return "invoice-uniqueness" }

func (invoiceUniquenessRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	seen := make(map[string]string)
	var result Result
	for _, inv := range view.ListInvoices() {
		key := inv.StudentID + "|" + inv.Month
		if firstID, dup := seen[key]; dup {
			result.Violations = append(result.Violations, Violation{
				Rule:     "invoice-uniqueness",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("duplicate invoice for student %s month %s (first %s)", inv.StudentID, inv.Month, firstID),
				Entity:   domain.EntityInvoice,
				EntityID: inv.ID,
			})
			continue
		}
		seen[key] = inv.ID
	}
	return result, nil
}

// NewDefaultRulesEngine registers the standard blocking rules.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StudentBalanceRule())
	engine.Register(ReferentialIntegrityRule())
	engine.Register(AttendanceUniquenessRule())
	engine.Register(InvoiceUniquenessRule())
	return engine
}
