package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation is the closed sum of every named state transition the applicator
// understands. Each variant carries its own strongly-typed payload; the
// isOperation marker keeps the set closed to this package.
type Operation interface {
	Kind() string
	isOperation()
}

// Operation kind identifiers as they appear on the wire.
const (
	OpAddStudent           = "addStudent"
	OpUpdateStudent        = "updateStudent"
	OpDeleteStudent        = "deleteStudent"
	OpAddTeacher           = "addTeacher"
	OpUpdateTeacher        = "updateTeacher"
	OpDeleteTeacher        = "deleteTeacher"
	OpAddStaff             = "addStaff"
	OpUpdateStaff          = "updateStaff"
	OpDeleteStaff          = "deleteStaff"
	OpAddClass             = "addClass"
	OpUpdateClass          = "updateClass"
	OpDeleteClass          = "deleteClass"
	OpUpdateAttendance     = "updateAttendance"
	OpAddProgressReport    = "addProgressReport"
	OpUpdateProgressReport = "updateProgressReport"
	OpDeleteProgressReport = "deleteProgressReport"
	OpGenerateInvoices     = "generateInvoices"
	OpCancelInvoice        = "cancelInvoice"
	OpSetInvoiceStatus     = "setInvoiceStatus"
	OpAddAdjustment        = "addAdjustment"
	OpUpdateTransaction    = "updateTransaction"
	OpDeleteTransaction    = "deleteTransaction"
	OpClearAllTransactions = "clearAllTransactions"
	OpGeneratePayroll      = "generatePayroll"
	OpDeletePayroll        = "deletePayroll"
	OpAddIncome            = "addIncome"
	OpDeleteIncome         = "deleteIncome"
	OpAddExpense           = "addExpense"
	OpDeleteExpense        = "deleteExpense"
	OpAddAnnouncement      = "addAnnouncement"
	OpDeleteAnnouncement   = "deleteAnnouncement"
	OpUpdateSettings       = "updateSettings"
	OpUpdatePassword       = "updatePassword"
	OpClearCollections     = "clearCollections"
)

// AddStudent creates a student and enrolls it into the named classes.
type AddStudent struct {
	Student  Student  `json:"student"`
	ClassIDs []string `json:"class_ids"`
}

// UpdateStudent replaces a student record, optionally renaming its id, and
// reconciles class memberships against ClassIDs.
type UpdateStudent struct {
	OriginalID string   `json:"original_id"`
	Student    Student  `json:"student"`
	ClassIDs   []string `json:"class_ids"`
}

// DeleteStudent removes a student and every row referencing it.
type DeleteStudent struct {
	ID string `json:"id"`
}

// AddTeacher creates a teacher and assigns it to the named classes.
type AddTeacher struct {
	Teacher  Teacher  `json:"teacher"`
	ClassIDs []string `json:"class_ids"`
}

// UpdateTeacher replaces a teacher record, optionally renaming its id, and
// reconciles class assignments against ClassIDs.
type UpdateTeacher struct {
	OriginalID string   `json:"original_id"`
	Teacher    Teacher  `json:"teacher"`
	ClassIDs   []string `json:"class_ids"`
}

// DeleteTeacher removes a teacher, its class assignments and its payrolls.
type DeleteTeacher struct {
	ID string `json:"id"`
}

// AddStaff creates a staff member.
type AddStaff struct {
	Staff StaffMember `json:"staff"`
}

// UpdateStaff replaces a staff record, optionally renaming its id.
type UpdateStaff struct {
	OriginalID string      `json:"original_id"`
	Staff      StaffMember `json:"staff"`
}

// DeleteStaff removes a staff member.
type DeleteStaff struct {
	ID string `json:"id"`
}

// AddClass creates a class.
type AddClass struct {
	Class Class `json:"class"`
}

// UpdateClass replaces a class record, optionally renaming its id.
type UpdateClass struct {
	OriginalID string `json:"original_id"`
	Class      Class  `json:"class"`
}

// DeleteClass removes a class and cascades into attendance, progress reports
// and class-scoped announcements.
type DeleteClass struct {
	ID string `json:"id"`
}

// UpdateAttendance replaces attendance day-by-day: records are grouped by
// (classID, date) and each group replaces all existing records for that key.
type UpdateAttendance struct {
	Records []AttendanceRecord `json:"records"`
}

// AddProgressReport creates a progress report.
type AddProgressReport struct {
	Report ProgressReport `json:"report"`
}

// UpdateProgressReport replaces an existing progress report by id.
type UpdateProgressReport struct {
	Report ProgressReport `json:"report"`
}

// DeleteProgressReport removes a progress report.
type DeleteProgressReport struct {
	ID string `json:"id"`
}

// GenerateInvoices computes or reconciles one invoice per active student for
// the given calendar month.
type GenerateInvoices struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// CancelInvoice cancels an unpaid invoice and credits its amount back.
type CancelInvoice struct {
	InvoiceID string `json:"invoice_id"`
}

// SetInvoiceStatus moves an invoice between UNPAID and PAID, creating or
// reversing the paired payment ledger entry.
type SetInvoiceStatus struct {
	InvoiceID string        `json:"invoice_id"`
	Status    InvoiceStatus `json:"status"`
	Date      string        `json:"date,omitempty"` // payment date, defaults to today
}

// AddAdjustment applies a manual credit or debit to a student balance.
type AddAdjustment struct {
	StudentID   string         `json:"student_id"`
	Adjustment  AdjustmentKind `json:"kind"`
	Amount      int64          `json:"amount"`
	Description string         `json:"description"`
	Date        string         `json:"date,omitempty"`
}

// UpdateTransaction edits a ledger entry's amount, description and date,
// applying the amount delta to the owning student balance.
type UpdateTransaction struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// DeleteTransaction removes a ledger entry and reverses its amount.
type DeleteTransaction struct {
	ID string `json:"id"`
}

// ClearAllTransactions zeroes every balance and empties the ledger and
// invoice collections.
type ClearAllTransactions struct{}

// GeneratePayroll computes one payroll record per active teacher for the
// given calendar month, overwriting prior records for the period.
type GeneratePayroll struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// DeletePayroll removes a payroll record.
type DeletePayroll struct {
	ID string `json:"id"`
}

// AddIncome records an income item.
type AddIncome struct {
	Item IncomeItem `json:"item"`
}

// DeleteIncome removes an income item.
type DeleteIncome struct {
	ID string `json:"id"`
}

// AddExpense records an expense item.
type AddExpense struct {
	Item ExpenseItem `json:"item"`
}

// DeleteExpense removes an expense item.
type DeleteExpense struct {
	ID string `json:"id"`
}

// AddAnnouncement prepends an announcement (newest first).
type AddAnnouncement struct {
	Announcement Announcement `json:"announcement"`
}

// DeleteAnnouncement removes an announcement.
type DeleteAnnouncement struct {
	ID string `json:"id"`
}

// UpdateSettings replaces the settings sub-document.
type UpdateSettings struct {
	Settings Settings `json:"settings"`
}

// UpdatePassword replaces the stored password for a role.
type UpdatePassword struct {
	Role     string `json:"role"`
	Password string `json:"password"`
}

// ClearCollections wipes the named entity collections with their cascades.
type ClearCollections struct {
	Targets []EntityType `json:"targets"`
}

func (AddStudent) Kind() string           { return OpAddStudent }
func (UpdateStudent) Kind() string        { return OpUpdateStudent }
func (DeleteStudent) Kind() string        { return OpDeleteStudent }
func (AddTeacher) Kind() string           { return OpAddTeacher }
func (UpdateTeacher) Kind() string        { return OpUpdateTeacher }
func (DeleteTeacher) Kind() string        { return OpDeleteTeacher }
func (AddStaff) Kind() string             { return OpAddStaff }
func (UpdateStaff) Kind() string          { return OpUpdateStaff }
func (DeleteStaff) Kind() string          { return OpDeleteStaff }
func (AddClass) Kind() string             { return OpAddClass }
func (UpdateClass) Kind() string          { return OpUpdateClass }
func (DeleteClass) Kind() string          { return OpDeleteClass }
func (UpdateAttendance) Kind() string     { return OpUpdateAttendance }
func (AddProgressReport) Kind() string    { return OpAddProgressReport }
func (UpdateProgressReport) Kind() string { return OpUpdateProgressReport }
func (DeleteProgressReport) Kind() string { return OpDeleteProgressReport }
func (GenerateInvoices) Kind() string     { return OpGenerateInvoices }
func (CancelInvoice) Kind() string        { return OpCancelInvoice }
func (SetInvoiceStatus) Kind() string     { return OpSetInvoiceStatus }
func (AddAdjustment) Kind() string        { return OpAddAdjustment }
func (UpdateTransaction) Kind() string    { return OpUpdateTransaction }
func (DeleteTransaction) Kind() string    { return OpDeleteTransaction }
func (ClearAllTransactions) Kind() string { return OpClearAllTransactions }
func (GeneratePayroll) Kind() string      { return OpGeneratePayroll }
func (DeletePayroll) Kind() string        { return OpDeletePayroll }
func (AddIncome) Kind() string            { return OpAddIncome }
func (DeleteIncome) Kind() string         { return OpDeleteIncome }
func (AddExpense) Kind() string           { return OpAddExpense }
func (DeleteExpense) Kind() string        { return OpDeleteExpense }
func (AddAnnouncement) Kind() string      { return OpAddAnnouncement }
func (DeleteAnnouncement) Kind() string   { return OpDeleteAnnouncement }
func (UpdateSettings) Kind() string       { return OpUpdateSettings }
func (UpdatePassword) Kind() string       { return OpUpdatePassword }
func (ClearCollections) Kind() string     { return OpClearCollections }

func (AddStudent) isOperation()           {}
func (UpdateStudent) isOperation()        {}
func (DeleteStudent) isOperation()        {}
func (AddTeacher) isOperation()           {}
func (UpdateTeacher) isOperation()        {}
func (DeleteTeacher) isOperation()        {}
func (AddStaff) isOperation()             {}
func (UpdateStaff) isOperation()          {}
func (DeleteStaff) isOperation()          {}
func (AddClass) isOperation()             {}
func (UpdateClass) isOperation()          {}
func (DeleteClass) isOperation()          {}
func (UpdateAttendance) isOperation()     {}
func (AddProgressReport) isOperation()    {}
func (UpdateProgressReport) isOperation() {}
func (DeleteProgressReport) isOperation() {}
func (GenerateInvoices) isOperation()     {}
func (CancelInvoice) isOperation()        {}
func (SetInvoiceStatus) isOperation()     {}
func (AddAdjustment) isOperation()        {}
func (UpdateTransaction) isOperation()    {}
func (DeleteTransaction) isOperation()    {}
func (ClearAllTransactions) isOperation() {}
func (GeneratePayroll) isOperation()      {}
func (DeletePayroll) isOperation()        {}
func (AddIncome) isOperation()            {}
func (DeleteIncome) isOperation()         {}
func (AddExpense) isOperation()           {}
func (DeleteExpense) isOperation()        {}
func (AddAnnouncement) isOperation()      {}
func (DeleteAnnouncement) isOperation()   {}
func (UpdateSettings) isOperation()       {}
func (UpdatePassword) isOperation()       {}
func (ClearCollections) isOperation()     {}

// Envelope is the wire form of an operation: a kind tag plus raw payload.
type Envelope struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

func decodeInto[T Operation](raw json.RawMessage) (Operation, error) {
	var op T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &op); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", op.Kind(), err)
		}
	}
	return op, nil
}

var operationDecoders = map[string]func(json.RawMessage) (Operation, error){
	OpAddStudent:           decodeInto[AddStudent],
	OpUpdateStudent:        decodeInto[UpdateStudent],
	OpDeleteStudent:        decodeInto[DeleteStudent],
	OpAddTeacher:           decodeInto[AddTeacher],
	OpUpdateTeacher:        decodeInto[UpdateTeacher],
	OpDeleteTeacher:        decodeInto[DeleteTeacher],
	OpAddStaff:             decodeInto[AddStaff],
	OpUpdateStaff:          decodeInto[UpdateStaff],
	OpDeleteStaff:          decodeInto[DeleteStaff],
	OpAddClass:             decodeInto[AddClass],
	OpUpdateClass:          decodeInto[UpdateClass],
	OpDeleteClass:          decodeInto[DeleteClass],
	OpUpdateAttendance:     decodeInto[UpdateAttendance],
	OpAddProgressReport:    decodeInto[AddProgressReport],
	OpUpdateProgressReport: decodeInto[UpdateProgressReport],
	OpDeleteProgressReport: decodeInto[DeleteProgressReport],
	OpGenerateInvoices:     decodeInto[GenerateInvoices],
	OpCancelInvoice:        decodeInto[CancelInvoice],
	OpSetInvoiceStatus:     decodeInto[SetInvoiceStatus],
	OpAddAdjustment:        decodeInto[AddAdjustment],
	OpUpdateTransaction:    decodeInto[UpdateTransaction],
	OpDeleteTransaction:    decodeInto[DeleteTransaction],
	OpClearAllTransactions: decodeInto[ClearAllTransactions],
	OpGeneratePayroll:      decodeInto[GeneratePayroll],
	OpDeletePayroll:        decodeInto[DeletePayroll],
	OpAddIncome:            decodeInto[AddIncome],
	OpDeleteIncome:         decodeInto[DeleteIncome],
	OpAddExpense:           decodeInto[AddExpense],
	OpDeleteExpense:        decodeInto[DeleteExpense],
	OpAddAnnouncement:      decodeInto[AddAnnouncement],
	OpDeleteAnnouncement:   decodeInto[DeleteAnnouncement],
	OpUpdateSettings:       decodeInto[UpdateSettings],
	OpUpdatePassword:       decodeInto[UpdatePassword],
	OpClearCollections:     decodeInto[ClearCollections],
}

// DecodeOperation resolves an envelope into its typed operation. An
// unrecognized kind yields UnknownOperationError.
func DecodeOperation(env Envelope) (Operation, error) {
	decode, ok := operationDecoders[env.Op]
	if !ok {
		return nil, UnknownOperationError{Kind: env.Op}
	}
	return decode(env.Payload)
}

// OperationKinds lists every registered operation kind. Intended for
// diagnostics and contract tests.
func OperationKinds() []string {
	kinds := make([]string, 0, len(operationDecoders))
	for kind := range operationDecoders {
		kinds = append(kinds, kind)
	}
	return kinds
}

// MonthKey formats a calendar month as the YYYY-MM key used by invoices and
// payrolls.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// DateKey formats a time as the YYYY-MM-DD date string stored on records.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
