// Package core implements the operation applicator: the dispatcher that turns
// named operations into transactional state transitions over the center's
// snapshot, plus the invariant rules evaluated before every commit.
package core

import "tutorcore/pkg/domain"

type (
	Student          = domain.Student
	Teacher          = domain.Teacher
	StaffMember      = domain.StaffMember
	Class            = domain.Class
	AttendanceRecord = domain.AttendanceRecord
	Invoice          = domain.Invoice
	ProgressReport   = domain.ProgressReport
	LedgerEntry      = domain.LedgerEntry
	IncomeItem       = domain.IncomeItem
	ExpenseItem      = domain.ExpenseItem
	Payroll          = domain.Payroll
	Announcement     = domain.Announcement
	Settings         = domain.Settings
	Snapshot         = domain.Snapshot

	Operation       = domain.Operation
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
	RulesEngine     = domain.RulesEngine
	Result          = domain.Result
	Change          = domain.Change
	Violation       = domain.Violation
)
