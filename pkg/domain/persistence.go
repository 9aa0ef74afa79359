package domain

import "context"

// Snapshot is the full in-memory dataset of the center at a point in time:
// the single aggregate root every operation transitions. All collections are
// unordered sets keyed by id except announcements, which keep insertion order
// (newest first).
type Snapshot struct {
	Students        map[string]Student          `json:"students"`
	Teachers        map[string]Teacher          `json:"teachers"`
	Staff           map[string]StaffMember      `json:"staff"`
	Classes         map[string]Class            `json:"classes"`
	Attendance      map[string]AttendanceRecord `json:"attendance"`
	Invoices        map[string]Invoice          `json:"invoices"`
	ProgressReports map[string]ProgressReport   `json:"progress_reports"`
	Ledger          map[string]LedgerEntry      `json:"ledger"`
	Income          map[string]IncomeItem       `json:"income"`
	Expenses        map[string]ExpenseItem      `json:"expenses"`
	Payrolls        map[string]Payroll          `json:"payrolls"`
	Announcements   []Announcement              `json:"announcements"`
	Settings        Settings                    `json:"settings"`
}

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Create methods generate ids and stamp
// timestamps; Replace methods support id renames; Update methods mutate in
// place via the supplied mutator.
type Transaction interface {
	Snapshot() TransactionView
	Now() string // today's date key, fixed for the transaction

	CreateStudent(Student) (Student, error)
	ReplaceStudent(originalID string, s Student) (Student, error)
	UpdateStudent(id string, mutator func(*Student) error) (Student, error)
	DeleteStudent(id string) error
	FindStudent(id string) (Student, bool)
	ListStudents() []Student

	CreateTeacher(Teacher) (Teacher, error)
	ReplaceTeacher(originalID string, t Teacher) (Teacher, error)
	DeleteTeacher(id string) error
	FindTeacher(id string) (Teacher, bool)
	ListTeachers() []Teacher

	CreateStaffMember(StaffMember) (StaffMember, error)
	ReplaceStaffMember(originalID string, m StaffMember) (StaffMember, error)
	DeleteStaffMember(id string) error
	FindStaffMember(id string) (StaffMember, bool)
	ListStaffMembers() []StaffMember

	CreateClass(Class) (Class, error)
	ReplaceClass(originalID string, c Class) (Class, error)
	UpdateClass(id string, mutator func(*Class) error) (Class, error)
	DeleteClass(id string) error
	FindClass(id string) (Class, bool)
	ListClasses() []Class

	CreateAttendanceRecord(AttendanceRecord) (AttendanceRecord, error)
	UpdateAttendanceRecord(id string, mutator func(*AttendanceRecord) error) (AttendanceRecord, error)
	DeleteAttendanceRecord(id string) error
	ListAttendanceRecords() []AttendanceRecord

	CreateInvoice(Invoice) (Invoice, error)
	UpdateInvoice(id string, mutator func(*Invoice) error) (Invoice, error)
	DeleteInvoice(id string) error
	FindInvoice(id string) (Invoice, bool)
	ListInvoices() []Invoice

	CreateProgressReport(ProgressReport) (ProgressReport, error)
	UpdateProgressReport(id string, mutator func(*ProgressReport) error) (ProgressReport, error)
	DeleteProgressReport(id string) error
	ListProgressReports() []ProgressReport

	CreateLedgerEntry(LedgerEntry) (LedgerEntry, error)
	UpdateLedgerEntry(id string, mutator func(*LedgerEntry) error) (LedgerEntry, error)
	DeleteLedgerEntry(id string) error
	FindLedgerEntry(id string) (LedgerEntry, bool)
	ListLedgerEntries() []LedgerEntry

	CreateIncomeItem(IncomeItem) (IncomeItem, error)
	DeleteIncomeItem(id string) error
	ListIncomeItems() []IncomeItem

	CreateExpenseItem(ExpenseItem) (ExpenseItem, error)
	DeleteExpenseItem(id string) error
	ListExpenseItems() []ExpenseItem

	// PutPayroll upserts by the deterministic payroll id.
	PutPayroll(Payroll) (Payroll, error)
	DeletePayroll(id string) error
	FindPayroll(id string) (Payroll, bool)
	ListPayrolls() []Payroll

	PrependAnnouncement(Announcement) (Announcement, error)
	DeleteAnnouncement(id string) error
	ListAnnouncements() []Announcement

	Settings() Settings
	SetSettings(Settings)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListStudents() []Student
	ListTeachers() []Teacher
	ListStaffMembers() []StaffMember
	ListClasses() []Class
	ListAttendanceRecords() []AttendanceRecord
	ListInvoices() []Invoice
	ListProgressReports() []ProgressReport
	ListLedgerEntries() []LedgerEntry
	ListPayrolls() []Payroll
	ListAnnouncements() []Announcement
	FindStudent(id string) (Student, bool)
	FindTeacher(id string) (Teacher, bool)
	FindClass(id string) (Class, bool)
	FindInvoice(id string) (Invoice, bool)
}

// PersistentStore is a minimal abstraction over durable backends. A store
// guarantees all-or-nothing semantics per RunInTransaction call; cross-call
// atomicity is explicitly out of scope (last write wins at the boundary).
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState() Snapshot
	ImportState(Snapshot)
}
