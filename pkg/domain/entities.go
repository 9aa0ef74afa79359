// Package domain defines the persistent entities, operation sum type, error
// taxonomy, and rule evaluation primitives used by tutorcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityStudent identifies an enrolled student record.
	EntityStudent EntityType = "student"
	// EntityTeacher identifies a teacher record.
	EntityTeacher EntityType = "teacher"
	// EntityStaffMember identifies an administrative staff record.
	EntityStaffMember EntityType = "staff_member"
	// EntityClass identifies a class record.
	EntityClass EntityType = "class"
	// EntityAttendanceRecord identifies a single attendance row.
	EntityAttendanceRecord EntityType = "attendance_record"
	// EntityInvoice identifies a monthly billing statement.
	EntityInvoice EntityType = "invoice"
	// EntityProgressReport identifies a student progress report.
	EntityProgressReport EntityType = "progress_report"
	// EntityLedgerEntry identifies a ledger line item.
	EntityLedgerEntry EntityType = "ledger_entry"
	// EntityIncomeItem identifies a non-tuition income row.
	EntityIncomeItem EntityType = "income_item"
	// EntityExpenseItem identifies an expense row.
	EntityExpenseItem EntityType = "expense_item"
	// EntityPayroll identifies a monthly teacher payroll record.
	EntityPayroll EntityType = "payroll"
	// EntityAnnouncement identifies an announcement record.
	EntityAnnouncement EntityType = "announcement"
	// EntitySettings identifies the settings sub-document.
	EntitySettings EntityType = "settings"
)

// PersonStatus represents the enrollment/employment state of a person.
type PersonStatus string

// Canonical person statuses. Only active people participate in invoice and
// payroll generation.
const (
	StatusActive   PersonStatus = "active"
	StatusInactive PersonStatus = "inactive"
)

// FeeType determines how a class fee contributes to a monthly invoice.
type FeeType string

// Canonical class fee types.
const (
	// FeeMonthly bills the flat fee amount every month.
	FeeMonthly FeeType = "monthly"
	// FeePerSession bills the fee amount per attended (present or late) session.
	FeePerSession FeeType = "per_session"
	// FeePerCourse bills the flat fee amount like FeeMonthly; the distinction
	// is informational for reporting.
	FeePerCourse FeeType = "per_course"
)

// SalaryType determines how a teacher's monthly payroll total is computed.
type SalaryType string

// Canonical salary types.
const (
	SalaryMonthly    SalaryType = "monthly"
	SalaryPerSession SalaryType = "per_session"
)

// AttendanceStatus records a student's presence for one class session.
type AttendanceStatus string

// Canonical attendance statuses.
const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid reports whether the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// Billable reports whether the status counts toward per-session fees.
func (s AttendanceStatus) Billable() bool {
	return s == AttendancePresent || s == AttendanceLate
}

// InvoiceStatus enumerates the invoice state machine. UNPAID and PAID convert
// freely (payment undo); CANCELLED is terminal.
type InvoiceStatus string

// Canonical invoice statuses.
const (
	InvoiceUnpaid    InvoiceStatus = "unpaid"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether the status is a supported value.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceUnpaid, InvoicePaid, InvoiceCancelled:
		return true
	default:
		return false
	}
}

// LedgerEntryType classifies ledger line items.
type LedgerEntryType string

// Canonical ledger entry types.
const (
	// LedgerInvoice is the negative entry paired with an issued invoice.
	LedgerInvoice LedgerEntryType = "invoice"
	// LedgerPayment is a positive entry recording money received.
	LedgerPayment LedgerEntryType = "payment"
	// LedgerAdjustmentCredit is a positive manual correction.
	LedgerAdjustmentCredit LedgerEntryType = "adjustment_credit"
	// LedgerAdjustmentDebit is a negative manual correction.
	LedgerAdjustmentDebit LedgerEntryType = "adjustment_debit"
)

// AdjustmentKind selects the sign normalization applied by the addAdjustment
// operation. Anything other than credit is treated as a debit.
type AdjustmentKind string

// Adjustment kinds accepted in payloads.
const (
	AdjustmentCredit AdjustmentKind = "credit"
	AdjustmentDebit  AdjustmentKind = "debit"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Student represents an enrolled student. Balance is a signed amount in minor
// currency units: positive means credit owed to the student, negative means
// debt owed by the student. Balance always equals the sum of the student's
// ledger entry amounts; every mutating operation maintains it incrementally.
type Student struct {
	Base
	Name     string       `json:"name"`
	Guardian string       `json:"guardian,omitempty"`
	Phone    string       `json:"phone,omitempty"`
	Address  string       `json:"address,omitempty"`
	Status   PersonStatus `json:"status"`
	JoinDate string       `json:"join_date"`
	Balance  int64        `json:"balance"`
}

// Salary captures a teacher's compensation scheme.
type Salary struct {
	Type SalaryType `json:"type"`
	Rate int64      `json:"rate"`
}

// Teacher represents a teaching employee.
type Teacher struct {
	Base
	Name     string       `json:"name"`
	Phone    string       `json:"phone,omitempty"`
	Status   PersonStatus `json:"status"`
	JoinDate string       `json:"join_date"`
	Salary   Salary       `json:"salary"`
}

// StaffMember represents non-teaching staff.
type StaffMember struct {
	Base
	Name     string       `json:"name"`
	Role     string       `json:"role"`
	Phone    string       `json:"phone,omitempty"`
	Status   PersonStatus `json:"status"`
	JoinDate string       `json:"join_date"`
}

// Fee captures a class fee scheme.
type Fee struct {
	Type   FeeType `json:"type"`
	Amount int64   `json:"amount"`
}

// Class holds membership lists by reference, not ownership. A student or
// teacher id appears in a membership list iff an active enrollment or
// assignment exists.
type Class struct {
	Base
	Name       string   `json:"name"`
	Schedule   string   `json:"schedule,omitempty"`
	Fee        Fee      `json:"fee"`
	StudentIDs []string `json:"student_ids"`
	TeacherIDs []string `json:"teacher_ids"`
}

// AttendanceRecord is conceptually keyed by (classID, studentID, date) though
// it carries its own generated id. At most one record exists per triple.
type AttendanceRecord struct {
	Base
	ClassID   string           `json:"class_id"`
	StudentID string           `json:"student_id"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Note      string           `json:"note,omitempty"`
}

// Invoice is a billing statement for one student for one calendar month.
type Invoice struct {
	Base
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name"`
	Month       string        `json:"month"` // YYYY-MM
	Amount      int64         `json:"amount"`
	Details     string        `json:"details"`
	Status      InvoiceStatus `json:"status"`
	IssueDate   string        `json:"issue_date"`
	PaymentDate string        `json:"payment_date,omitempty"`
}

// LedgerEntry is a ledger line item, the sole source of truth for student
// balances. Entries are immutable except through the updateTransaction
// operation, which keeps the owning balance consistent via deltas.
type LedgerEntry struct {
	Base
	StudentID        string          `json:"student_id"`
	Date             string          `json:"date"`
	Amount           int64           `json:"amount"`
	Description      string          `json:"description"`
	Type             LedgerEntryType `json:"type"`
	RelatedInvoiceID string          `json:"related_invoice_id,omitempty"`
}

// ProgressReport captures a periodic academic note for a student in a class.
type ProgressReport struct {
	Base
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
	Date      string `json:"date"`
	Content   string `json:"content"`
}

// IncomeItem records non-tuition income.
type IncomeItem struct {
	Base
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// ExpenseItem records center expenses.
type ExpenseItem struct {
	Base
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// Payroll is a monthly salary statement for one teacher. Its id is the
// deterministic composite teacherID + "-" + month so regeneration overwrites
// the prior record for that period.
type Payroll struct {
	Base
	TeacherID      string     `json:"teacher_id"`
	TeacherName    string     `json:"teacher_name"`
	Month          string     `json:"month"` // YYYY-MM
	SalaryType     SalaryType `json:"salary_type"`
	Rate           int64      `json:"rate"`
	SessionsTaught int        `json:"sessions_taught"`
	TotalSalary    int64      `json:"total_salary"`
}

// PayrollID builds the deterministic payroll id for a teacher and month.
func PayrollID(teacherID, month string) string {
	return teacherID + "-" + month
}

// Announcement is a dated notice, optionally scoped to a single class.
// Announcements are the only insertion-ordered collection (newest first).
type Announcement struct {
	Base
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
	ClassID string `json:"class_id,omitempty"`
}

// Settings is the opaque pass-through configuration consumed by financial and
// report rendering components. The core never interprets these fields beyond
// the credentials map used by the updatePassword operation.
type Settings struct {
	CenterName        string            `json:"center_name"`
	CurrencyLocale    string            `json:"currency_locale"`
	BankName          string            `json:"bank_name"`
	BankAccountNumber string            `json:"bank_account_number"`
	BankAccountHolder string            `json:"bank_account_holder"`
	BankCode          string            `json:"bank_code"`
	ThemeColor        string            `json:"theme_color"`
	Credentials       map[string]string `json:"credentials,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn surfaces a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
