// Package memory provides the in-memory implementation of the core
// persistence store. Durable backends embed it and snapshot its state.
package memory

import (
	"context"
	"sync"
	"time"

	"tutorcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Student aliases domain.Student for in-memory persistence operations.
	Student = domain.Student
	// Teacher aliases domain.Teacher.
	Teacher = domain.Teacher
	// StaffMember aliases domain.StaffMember.
	StaffMember = domain.StaffMember
	// Class aliases domain.Class.
	Class = domain.Class
	// AttendanceRecord aliases domain.AttendanceRecord.
	AttendanceRecord = domain.AttendanceRecord
	// Invoice aliases domain.Invoice.
	Invoice = domain.Invoice
	// ProgressReport aliases domain.ProgressReport.
	ProgressReport = domain.ProgressReport
	// LedgerEntry aliases domain.LedgerEntry.
	LedgerEntry = domain.LedgerEntry
	// IncomeItem aliases domain.IncomeItem.
	IncomeItem = domain.IncomeItem
	// ExpenseItem aliases domain.ExpenseItem.
	ExpenseItem = domain.ExpenseItem
	// Payroll aliases domain.Payroll.
	Payroll = domain.Payroll
	// Announcement aliases domain.Announcement.
	Announcement = domain.Announcement
	// Settings aliases domain.Settings.
	Settings = domain.Settings
	// Snapshot aliases domain.Snapshot captured by export/import.
	Snapshot = domain.Snapshot
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	students      map[string]Student
	teachers      map[string]Teacher
	staff         map[string]StaffMember
	classes       map[string]Class
	attendance    map[string]AttendanceRecord
	invoices      map[string]Invoice
	reports       map[string]ProgressReport
	ledger        map[string]LedgerEntry
	income        map[string]IncomeItem
	expenses      map[string]ExpenseItem
	payrolls      map[string]Payroll
	announcements []Announcement
	settings      Settings
}

func newMemoryState() memoryState {
	return memoryState{
		students:   make(map[string]Student),
		teachers:   make(map[string]Teacher),
		staff:      make(map[string]StaffMember),
		classes:    make(map[string]Class),
		attendance: make(map[string]AttendanceRecord),
		invoices:   make(map[string]Invoice),
		reports:    make(map[string]ProgressReport),
		ledger:     make(map[string]LedgerEntry),
		income:     make(map[string]IncomeItem),
		expenses:   make(map[string]ExpenseItem),
		payrolls:   make(map[string]Payroll),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.students {
		cloned.students[k] = v
	}
	for k, v := range s.teachers {
		cloned.teachers[k] = v
	}
	for k, v := range s.staff {
		cloned.staff[k] = v
	}
	for k, v := range s.classes {
		cloned.classes[k] = cloneClass(v)
	}
	for k, v := range s.attendance {
		cloned.attendance[k] = v
	}
	for k, v := range s.invoices {
		cloned.invoices[k] = v
	}
	for k, v := range s.reports {
		cloned.reports[k] = v
	}
	for k, v := range s.ledger {
		cloned.ledger[k] = v
	}
	for k, v := range s.income {
		cloned.income[k] = v
	}
	for k, v := range s.expenses {
		cloned.expenses[k] = v
	}
	for k, v := range s.payrolls {
		cloned.payrolls[k] = v
	}
	cloned.announcements = append([]Announcement(nil), s.announcements...)
	cloned.settings = cloneSettings(s.settings)
	return cloned
}

func cloneClass(c Class) Class {
	cp := c
	cp.StudentIDs = append([]string(nil), c.StudentIDs...)
	cp.TeacherIDs = append([]string(nil), c.TeacherIDs...)
	return cp
}

func cloneSettings(s Settings) Settings {
	cp := s
	if s.Credentials != nil {
		cp.Credentials = make(map[string]string, len(s.Credentials))
		for k, v := range s.Credentials {
			cp.Credentials[k] = v
		}
	}
	return cp
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Students:        make(map[string]Student, len(state.students)),
		Teachers:        make(map[string]Teacher, len(state.teachers)),
		Staff:           make(map[string]StaffMember, len(state.staff)),
		Classes:         make(map[string]Class, len(state.classes)),
		Attendance:      make(map[string]AttendanceRecord, len(state.attendance)),
		Invoices:        make(map[string]Invoice, len(state.invoices)),
		ProgressReports: make(map[string]ProgressReport, len(state.reports)),
		Ledger:          make(map[string]LedgerEntry, len(state.ledger)),
		Income:          make(map[string]IncomeItem, len(state.income)),
		Expenses:        make(map[string]ExpenseItem, len(state.expenses)),
		Payrolls:        make(map[string]Payroll, len(state.payrolls)),
		Announcements:   append([]Announcement(nil), state.announcements...),
		Settings:        cloneSettings(state.settings),
	}
	for k, v := range state.students {
		s.Students[k] = v
	}
	for k, v := range state.teachers {
		s.Teachers[k] = v
	}
	for k, v := range state.staff {
		s.Staff[k] = v
	}
	for k, v := range state.classes {
		s.Classes[k] = cloneClass(v)
	}
	for k, v := range state.attendance {
		s.Attendance[k] = v
	}
	for k, v := range state.invoices {
		s.Invoices[k] = v
	}
	for k, v := range state.reports {
		s.ProgressReports[k] = v
	}
	for k, v := range state.ledger {
		s.Ledger[k] = v
	}
	for k, v := range state.income {
		s.Income[k] = v
	}
	for k, v := range state.expenses {
		s.Expenses[k] = v
	}
	for k, v := range state.payrolls {
		s.Payrolls[k] = v
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Students {
		state.students[k] = v
	}
	for k, v := range s.Teachers {
		state.teachers[k] = v
	}
	for k, v := range s.Staff {
		state.staff[k] = v
	}
	for k, v := range s.Classes {
		state.classes[k] = cloneClass(v)
	}
	for k, v := range s.Attendance {
		state.attendance[k] = v
	}
	for k, v := range s.Invoices {
		state.invoices[k] = v
	}
	for k, v := range s.ProgressReports {
		state.reports[k] = v
	}
	for k, v := range s.Ledger {
		state.ledger[k] = v
	}
	for k, v := range s.Income {
		state.income[k] = v
	}
	for k, v := range s.Expenses {
		state.expenses[k] = v
	}
	for k, v := range s.Payrolls {
		state.payrolls[k] = v
	}
	state.announcements = append([]Announcement(nil), s.Announcements...)
	state.settings = cloneSettings(s.Settings)
	return state
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	ids    domain.IDGenerator
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		ids:    domain.RandomIDGenerator{},
	}
}

// SetNowFunc overrides the clock, primarily for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// SetIDGenerator overrides the id generator, primarily for tests.
func (s *Store) SetIDGenerator(g domain.IDGenerator) {
	if g != nil {
		s.ids = g
	}
}

// RulesEngine exposes the engine for rule registration.
func (s *Store) RulesEngine() *RulesEngine { return s.engine }

// NowFunc exposes the configured clock.
func (s *Store) NowFunc() func() time.Time { return s.nowFn }

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy is committed only when fn succeeds and no registered rule
// reports a blocking violation, so a failed operation leaves no partial
// mutation behind.
func (s *Store) RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newView(&snapshot))
}

// ExportState returns a deep copy of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the committed state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// IsEmpty reports whether the committed state holds no records at all. Used
// by the boundary to decide when to seed the default dataset.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.students) == 0 &&
		len(s.state.teachers) == 0 &&
		len(s.state.staff) == 0 &&
		len(s.state.classes) == 0 &&
		len(s.state.attendance) == 0 &&
		len(s.state.invoices) == 0 &&
		len(s.state.reports) == 0 &&
		len(s.state.ledger) == 0 &&
		len(s.state.income) == 0 &&
		len(s.state.expenses) == 0 &&
		len(s.state.payrolls) == 0 &&
		len(s.state.announcements) == 0
}
