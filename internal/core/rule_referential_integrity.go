package core

import (
	"context"
	"fmt"

	"tutorcore/pkg/domain"
)

// ReferentialIntegrityRule blocks transactions that leave dangling references
// behind: membership lists naming missing people, attendance or reports for
// missing students/classes, invoices or ledger rows for missing students, and
// payrolls for missing teachers. Delete cascades are exercised against this
// rule, so an incomplete cascade can never commit.
func ReferentialIntegrityRule() domain.Rule {
	return referentialIntegrityRule{}
}

type referentialIntegrityRule struct{}

func (referentialIntegrityRule) Name() string { return "referential-integrity" }

func (referentialIntegrityRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	students := make(map[string]bool)
	for _, s := range view.ListStudents() {
		students[s.ID] = true
	}
	teachers := make(map[string]bool)
	for _, t := range view.ListTeachers() {
		teachers[t.ID] = true
	}
	classes := make(map[string]bool)
	for _, c := range view.ListClasses() {
		classes[c.ID] = true
	}

	var result Result
	blocked := func(entity domain.EntityType, id, msg string) {
		result.Violations = append(result.Violations, Violation{
			Rule:     "referential-integrity",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   entity,
			EntityID: id,
		})
	}

	for _, class := range view.ListClasses() {
		for _, id := range class.StudentIDs {
			if !students[id] {
				blocked(domain.EntityClass, class.ID, fmt.Sprintf("membership references missing student %s", id))
			}
		}
		for _, id := range class.TeacherIDs {
			if !teachers[id] {
				blocked(domain.EntityClass, class.ID, fmt.Sprintf("assignment references missing teacher %s", id))
			}
		}
	}
	for _, rec := range view.ListAttendanceRecords() {
		if !students[rec.StudentID] {
			blocked(domain.EntityAttendanceRecord, rec.ID, fmt.Sprintf("attendance references missing student %s", rec.StudentID))
		}
		if !classes[rec.ClassID] {
			blocked(domain.EntityAttendanceRecord, rec.ID, fmt.Sprintf("attendance references missing class %s", rec.ClassID))
		}
	}
	for _, inv := range view.ListInvoices() {
		if !students[inv.StudentID] {
			blocked(domain.EntityInvoice, inv.ID, fmt.Sprintf("invoice references missing student %s", inv.StudentID))
		}
	}
	for _, report := range view.ListProgressReports() {
		if !students[report.StudentID] {
			blocked(domain.EntityProgressReport, report.ID, fmt.Sprintf("report references missing student %s", report.StudentID))
		}
		if !classes[report.ClassID] {
			blocked(domain.EntityProgressReport, report.ID, fmt.Sprintf("report references missing class %s", report.ClassID))
		}
	}
	for _, entry := range view.ListLedgerEntries() {
		if !students[entry.StudentID] {
			blocked(domain.EntityLedgerEntry, entry.ID, fmt.Sprintf("ledger entry references missing student %s", entry.StudentID))
		}
	}
	for _, payroll := range view.ListPayrolls() {
		if !teachers[payroll.TeacherID] {
			blocked(domain.EntityPayroll, payroll.ID, fmt.Sprintf("payroll references missing teacher %s", payroll.TeacherID))
		}
	}
	return result, nil
}
