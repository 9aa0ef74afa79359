package memory

import (
	"time"

	"tutorcore/pkg/domain"
)

// memTx is the unit of work handed to operation handlers. All mutations act
// on a private clone of the store state; commit happens in RunInTransaction.
type memTx struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

var _ Transaction = (*memTx)(nil)

func (tx *memTx) record(entity domain.EntityType, action domain.Action, before, after any) {
	tx.changes = append(tx.changes, Change{Entity: entity, Action: action, Before: before, After: after})
}

func (tx *memTx) newID(entity domain.EntityType) string {
	return tx.store.ids.NewID(entity)
}

// Snapshot exposes the transactional state read-only, for handlers that need
// to scan collections mid-operation.
func (tx *memTx) Snapshot() TransactionView {
	return newView(&tx.state)
}

// Now returns the transaction's fixed date key.
func (tx *memTx) Now() string {
	return domain.DateKey(tx.now)
}

// Students --------------------------------------------------------------------

func (tx *memTx) CreateStudent(s Student) (Student, error) {
	if s.ID == "" {
		s.ID = tx.newID(domain.EntityStudent)
	}
	if _, exists := tx.state.students[s.ID]; exists {
		return Student{}, domain.DuplicateIDError{Entity: domain.EntityStudent, ID: s.ID}
	}
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	tx.state.students[s.ID] = s
	tx.record(domain.EntityStudent, domain.ActionCreate, nil, s)
	return s, nil
}

func (tx *memTx) ReplaceStudent(originalID string, s Student) (Student, error) {
	current, ok := tx.state.students[originalID]
	if !ok {
		return Student{}, domain.NotFoundError{Entity: domain.EntityStudent, ID: originalID}
	}
	if s.ID == "" {
		s.ID = originalID
	}
	if s.ID != originalID {
		if _, exists := tx.state.students[s.ID]; exists {
			return Student{}, domain.DuplicateIDError{Entity: domain.EntityStudent, ID: s.ID}
		}
		delete(tx.state.students, originalID)
	}
	s.CreatedAt = current.CreatedAt
	s.UpdatedAt = tx.now
	tx.state.students[s.ID] = s
	tx.record(domain.EntityStudent, domain.ActionUpdate, current, s)
	return s, nil
}

func (tx *memTx) UpdateStudent(id string, mutator func(*Student) error) (Student, error) {
	current, ok := tx.state.students[id]
	if !ok {
		return Student{}, domain.NotFoundError{Entity: domain.EntityStudent, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Student{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.students[id] = current
	tx.record(domain.EntityStudent, domain.ActionUpdate, before, current)
	return current, nil
}

func (tx *memTx) DeleteStudent(id string) error {
	current, ok := tx.state.students[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityStudent, ID: id}
	}
	delete(tx.state.students, id)
	tx.record(domain.EntityStudent, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) FindStudent(id string) (Student, bool) {
	s, ok := tx.state.students[id]
	return s, ok
}

func (tx *memTx) ListStudents() []Student {
	out := make([]Student, 0, len(tx.state.students))
	for _, s := range tx.state.students {
		out = append(out, s)
	}
	return out
}

// Teachers --------------------------------------------------------------------

func (tx *memTx) CreateTeacher(t Teacher) (Teacher, error) {
	if t.ID == "" {
		t.ID = tx.newID(domain.EntityTeacher)
	}
	if _, exists := tx.state.teachers[t.ID]; exists {
		return Teacher{}, domain.DuplicateIDError{Entity: domain.EntityTeacher, ID: t.ID}
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.teachers[t.ID] = t
	tx.record(domain.EntityTeacher, domain.ActionCreate, nil, t)
	return t, nil
}

func (tx *memTx) ReplaceTeacher(originalID string, t Teacher) (Teacher, error) {
	current, ok := tx.state.teachers[originalID]
	if !ok {
		return Teacher{}, domain.NotFoundError{Entity: domain.EntityTeacher, ID: originalID}
	}
	if t.ID == "" {
		t.ID = originalID
	}
	if t.ID != originalID {
		if _, exists := tx.state.teachers[t.ID]; exists {
			return Teacher{}, domain.DuplicateIDError{Entity: domain.EntityTeacher, ID: t.ID}
		}
		delete(tx.state.teachers, originalID)
	}
	t.CreatedAt = current.CreatedAt
	t.UpdatedAt = tx.now
	tx.state.teachers[t.ID] = t
	tx.record(domain.EntityTeacher, domain.ActionUpdate, current, t)
	return t, nil
}

func (tx *memTx) DeleteTeacher(id string) error {
	current, ok := tx.state.teachers[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityTeacher, ID: id}
	}
	delete(tx.state.teachers, id)
	tx.record(domain.EntityTeacher, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) FindTeacher(id string) (Teacher, bool) {
	t, ok := tx.state.teachers[id]
	return t, ok
}

func (tx *memTx) ListTeachers() []Teacher {
	out := make([]Teacher, 0, len(tx.state.teachers))
	for _, t := range tx.state.teachers {
		out = append(out, t)
	}
	return out
}

// Staff -----------------------------------------------------------------------

func (tx *memTx) CreateStaffMember(m StaffMember) (StaffMember, error) {
	if m.ID == "" {
		m.ID = tx.newID(domain.EntityStaffMember)
	}
	if _, exists := tx.state.staff[m.ID]; exists {
		return StaffMember{}, domain.DuplicateIDError{Entity: domain.EntityStaffMember, ID: m.ID}
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.staff[m.ID] = m
	tx.record(domain.EntityStaffMember, domain.ActionCreate, nil, m)
	return m, nil
}

func (tx *memTx) ReplaceStaffMember(originalID string, m StaffMember) (StaffMember, error) {
	current, ok := tx.state.staff[originalID]
	if !ok {
		return StaffMember{}, domain.NotFoundError{Entity: domain.EntityStaffMember, ID: originalID}
	}
	if m.ID == "" {
		m.ID = originalID
	}
	if m.ID != originalID {
		if _, exists := tx.state.staff[m.ID]; exists {
			return StaffMember{}, domain.DuplicateIDError{Entity: domain.EntityStaffMember, ID: m.ID}
		}
		delete(tx.state.staff, originalID)
	}
	m.CreatedAt = current.CreatedAt
	m.UpdatedAt = tx.now
	tx.state.staff[m.ID] = m
	tx.record(domain.EntityStaffMember, domain.ActionUpdate, current, m)
	return m, nil
}

func (tx *memTx) DeleteStaffMember(id string) error {
	current, ok := tx.state.staff[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityStaffMember, ID: id}
	}
	delete(tx.state.staff, id)
	tx.record(domain.EntityStaffMember, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) FindStaffMember(id string) (StaffMember, bool) {
	m, ok := tx.state.staff[id]
	return m, ok
}

func (tx *memTx) ListStaffMembers() []StaffMember {
	out := make([]StaffMember, 0, len(tx.state.staff))
	for _, m := range tx.state.staff {
		out = append(out, m)
	}
	return out
}

// Classes ---------------------------------------------------------------------

func (tx *memTx) CreateClass(c Class) (Class, error) {
	if c.ID == "" {
		c.ID = tx.newID(domain.EntityClass)
	}
	if _, exists := tx.state.classes[c.ID]; exists {
		return Class{}, domain.DuplicateIDError{Entity: domain.EntityClass, ID: c.ID}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	cp := cloneClass(c)
	tx.state.classes[c.ID] = cp
	tx.record(domain.EntityClass, domain.ActionCreate, nil, cp)
	return cloneClass(cp), nil
}

func (tx *memTx) ReplaceClass(originalID string, c Class) (Class, error) {
	current, ok := tx.state.classes[originalID]
	if !ok {
		return Class{}, domain.NotFoundError{Entity: domain.EntityClass, ID: originalID}
	}
	if c.ID == "" {
		c.ID = originalID
	}
	if c.ID != originalID {
		if _, exists := tx.state.classes[c.ID]; exists {
			return Class{}, domain.DuplicateIDError{Entity: domain.EntityClass, ID: c.ID}
		}
		delete(tx.state.classes, originalID)
	}
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = tx.now
	cp := cloneClass(c)
	tx.state.classes[c.ID] = cp
	tx.record(domain.EntityClass, domain.ActionUpdate, current, cp)
	return cloneClass(cp), nil
}

func (tx *memTx) UpdateClass(id string, mutator func(*Class) error) (Class, error) {
	current, ok := tx.state.classes[id]
	if !ok {
		return Class{}, domain.NotFoundError{Entity: domain.EntityClass, ID: id}
	}
	before := cloneClass(current)
	working := cloneClass(current)
	if err := mutator(&working); err != nil {
		return Class{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	tx.state.classes[id] = working
	tx.record(domain.EntityClass, domain.ActionUpdate, before, working)
	return cloneClass(working), nil
}

func (tx *memTx) DeleteClass(id string) error {
	current, ok := tx.state.classes[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityClass, ID: id}
	}
	delete(tx.state.classes, id)
	tx.record(domain.EntityClass, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) FindClass(id string) (Class, bool) {
	c, ok := tx.state.classes[id]
	if !ok {
		return Class{}, false
	}
	return cloneClass(c), true
}

func (tx *memTx) ListClasses() []Class {
	out := make([]Class, 0, len(tx.state.classes))
	for _, c := range tx.state.classes {
		out = append(out, cloneClass(c))
	}
	return out
}

// Attendance ------------------------------------------------------------------

func (tx *memTx) CreateAttendanceRecord(r AttendanceRecord) (AttendanceRecord, error) {
	if r.ID == "" {
		r.ID = tx.newID(domain.EntityAttendanceRecord)
	}
	if _, exists := tx.state.attendance[r.ID]; exists {
		return AttendanceRecord{}, domain.DuplicateIDError{Entity: domain.EntityAttendanceRecord, ID: r.ID}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.attendance[r.ID] = r
	tx.record(domain.EntityAttendanceRecord, domain.ActionCreate, nil, r)
	return r, nil
}

func (tx *memTx) UpdateAttendanceRecord(id string, mutator func(*AttendanceRecord) error) (AttendanceRecord, error) {
	current, ok := tx.state.attendance[id]
	if !ok {
		return AttendanceRecord{}, domain.NotFoundError{Entity: domain.EntityAttendanceRecord, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return AttendanceRecord{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.attendance[id] = current
	tx.record(domain.EntityAttendanceRecord, domain.ActionUpdate, before, current)
	return current, nil
}

func (tx *memTx) DeleteAttendanceRecord(id string) error {
	current, ok := tx.state.attendance[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAttendanceRecord, ID: id}
	}
	delete(tx.state.attendance, id)
	tx.record(domain.EntityAttendanceRecord, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) ListAttendanceRecords() []AttendanceRecord {
	out := make([]AttendanceRecord, 0, len(tx.state.attendance))
	for _, r := range tx.state.attendance {
		out = append(out, r)
	}
	return out
}

// Invoices --------------------------------------------------------------------

func (tx *memTx) CreateInvoice(inv Invoice) (Invoice, error) {
	if inv.ID == "" {
		inv.ID = tx.newID(domain.EntityInvoice)
	}
	if _, exists := tx.state.invoices[inv.ID]; exists {
		return Invoice{}, domain.DuplicateIDError{Entity: domain.EntityInvoice, ID: inv.ID}
	}
	inv.CreatedAt = tx.now
	inv.UpdatedAt = tx.now
	tx.state.invoices[inv.ID] = inv
	tx.record(domain.EntityInvoice, domain.ActionCreate, nil, inv)
	return inv, nil
}

func (tx *memTx) UpdateInvoice(id string, mutator func(*Invoice) error) (Invoice, error) {
	current, ok := tx.state.invoices[id]
	if !ok {
		return Invoice{}, domain.NotFoundError{Entity: domain.EntityInvoice, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Invoice{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.invoices[id] = current
	tx.record(domain.EntityInvoice, domain.ActionUpdate, before, current)
	return current, nil
}

func (tx *memTx) DeleteInvoice(id string) error {
	current, ok := tx.state.invoices[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityInvoice, ID: id}
	}
	delete(tx.state.invoices, id)
	tx.record(domain.EntityInvoice, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) FindInvoice(id string) (Invoice, bool) {
	inv, ok := tx.state.invoices[id]
	return inv, ok
}

func (tx *memTx) ListInvoices() []Invoice {
	out := make([]Invoice, 0, len(tx.state.invoices))
	for _, inv := range tx.state.invoices {
		out = append(out, inv)
	}
	return out
}

// Progress reports ------------------------------------------------------------

func (tx *memTx) CreateProgressReport(r ProgressReport) (ProgressReport, error) {
	if r.ID == "" {
		r.ID = tx.newID(domain.EntityProgressReport)
	}
	if _, exists := tx.state.reports[r.ID]; exists {
		return ProgressReport{}, domain.DuplicateIDError{Entity: domain.EntityProgressReport, ID: r.ID}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.reports[r.ID] = r
	tx.record(domain.EntityProgressReport, domain.ActionCreate, nil, r)
	return r, nil
}

func (tx *memTx) UpdateProgressReport(id string, mutator func(*ProgressReport) error) (ProgressReport, error) {
	current, ok := tx.state.reports[id]
	if !ok {
		return ProgressReport{}, domain.NotFoundError{Entity: domain.EntityProgressReport, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return ProgressReport{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.reports[id] = current
	tx.record(domain.EntityProgressReport, domain.ActionUpdate, before, current)
	return current, nil
}

func (tx *memTx) DeleteProgressReport(id string) error {
	current, ok := tx.state.reports[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityProgressReport, ID: id}
	}
	delete(tx.state.reports, id)
	tx.record(domain.EntityProgressReport, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) ListProgressReports() []ProgressReport {
	out := make([]ProgressReport, 0, len(tx.state.reports))
	for _, r := range tx.state.reports {
		out = append(out, r)
	}
	return out
}

// Ledger ----------------------------------------------------------------------

func (tx *memTx) CreateLedgerEntry(e LedgerEntry) (LedgerEntry, error) {
	if e.ID == "" {
		e.ID = tx.newID(domain.EntityLedgerEntry)
	}
	if _, exists := tx.state.ledger[e.ID]; exists {
		return LedgerEntry{}, domain.DuplicateIDError{Entity: domain.EntityLedgerEntry, ID: e.ID}
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	tx.state.ledger[e.ID] = e
	tx.record(domain.EntityLedgerEntry, domain.ActionCreate, nil, e)
	return e, nil
}

func (tx *memTx) UpdateLedgerEntry(id string, mutator func(*LedgerEntry) error) (LedgerEntry, error) {
	current, ok := tx.state.ledger[id]
	if !ok {
		return LedgerEntry{}, domain.NotFoundError{Entity: domain.EntityLedgerEntry, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return LedgerEntry{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.ledger[id] = current
	tx.record(domain.EntityLedgerEntry, domain.ActionUpdate, before, current)
	return current, nil
}

func (tx *memTx) DeleteLedgerEntry(id string) error {
	current, ok := tx.state.ledger[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityLedgerEntry, ID: id}
	}
	delete(tx.state.ledger, id)
	tx.record(domain.EntityLedgerEntry, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) FindLedgerEntry(id string) (LedgerEntry, bool) {
	e, ok := tx.state.ledger[id]
	return e, ok
}

func (tx *memTx) ListLedgerEntries() []LedgerEntry {
	out := make([]LedgerEntry, 0, len(tx.state.ledger))
	for _, e := range tx.state.ledger {
		out = append(out, e)
	}
	return out
}

// Income / expenses -----------------------------------------------------------

func (tx *memTx) CreateIncomeItem(item IncomeItem) (IncomeItem, error) {
	if item.ID == "" {
		item.ID = tx.newID(domain.EntityIncomeItem)
	}
	if _, exists := tx.state.income[item.ID]; exists {
		return IncomeItem{}, domain.DuplicateIDError{Entity: domain.EntityIncomeItem, ID: item.ID}
	}
	item.CreatedAt = tx.now
	item.UpdatedAt = tx.now
	tx.state.income[item.ID] = item
	tx.record(domain.EntityIncomeItem, domain.ActionCreate, nil, item)
	return item, nil
}

func (tx *memTx) DeleteIncomeItem(id string) error {
	current, ok := tx.state.income[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityIncomeItem, ID: id}
	}
	delete(tx.state.income, id)
	tx.record(domain.EntityIncomeItem, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) ListIncomeItems() []IncomeItem {
	out := make([]IncomeItem, 0, len(tx.state.income))
	for _, item := range tx.state.income {
		out = append(out, item)
	}
	return out
}

func (tx *memTx) CreateExpenseItem(item ExpenseItem) (ExpenseItem, error) {
	if item.ID == "" {
		item.ID = tx.newID(domain.EntityExpenseItem)
	}
	if _, exists := tx.state.expenses[item.ID]; exists {
		return ExpenseItem{}, domain.DuplicateIDError{Entity: domain.EntityExpenseItem, ID: item.ID}
	}
	item.CreatedAt = tx.now
	item.UpdatedAt = tx.now
	tx.state.expenses[item.ID] = item
	tx.record(domain.EntityExpenseItem, domain.ActionCreate, nil, item)
	return item, nil
}

func (tx *memTx) DeleteExpenseItem(id string) error {
	current, ok := tx.state.expenses[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityExpenseItem, ID: id}
	}
	delete(tx.state.expenses, id)
	tx.record(domain.EntityExpenseItem, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) ListExpenseItems() []ExpenseItem {
	out := make([]ExpenseItem, 0, len(tx.state.expenses))
	for _, item := range tx.state.expenses {
		out = append(out, item)
	}
	return out
}

// Payrolls --------------------------------------------------------------------

func (tx *memTx) PutPayroll(p Payroll) (Payroll, error) {
	if p.ID == "" {
		return Payroll{}, domain.InvalidStateError{Message: "payroll id must be set"}
	}
	if current, exists := tx.state.payrolls[p.ID]; exists {
		p.CreatedAt = current.CreatedAt
		p.UpdatedAt = tx.now
		tx.state.payrolls[p.ID] = p
		tx.record(domain.EntityPayroll, domain.ActionUpdate, current, p)
		return p, nil
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.payrolls[p.ID] = p
	tx.record(domain.EntityPayroll, domain.ActionCreate, nil, p)
	return p, nil
}

func (tx *memTx) DeletePayroll(id string) error {
	current, ok := tx.state.payrolls[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityPayroll, ID: id}
	}
	delete(tx.state.payrolls, id)
	tx.record(domain.EntityPayroll, domain.ActionDelete, current, nil)
	return nil
}

func (tx *memTx) FindPayroll(id string) (Payroll, bool) {
	p, ok := tx.state.payrolls[id]
	return p, ok
}

func (tx *memTx) ListPayrolls() []Payroll {
	out := make([]Payroll, 0, len(tx.state.payrolls))
	for _, p := range tx.state.payrolls {
		out = append(out, p)
	}
	return out
}

// Announcements ---------------------------------------------------------------

func (tx *memTx) PrependAnnouncement(a Announcement) (Announcement, error) {
	if a.ID == "" {
		a.ID = tx.newID(domain.EntityAnnouncement)
	}
	for _, existing := range tx.state.announcements {
		if existing.ID == a.ID {
			return Announcement{}, domain.DuplicateIDError{Entity: domain.EntityAnnouncement, ID: a.ID}
		}
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.announcements = append([]Announcement{a}, tx.state.announcements...)
	tx.record(domain.EntityAnnouncement, domain.ActionCreate, nil, a)
	return a, nil
}

func (tx *memTx) DeleteAnnouncement(id string) error {
	for i, a := range tx.state.announcements {
		if a.ID == id {
			tx.state.announcements = append(tx.state.announcements[:i:i], tx.state.announcements[i+1:]...)
			tx.record(domain.EntityAnnouncement, domain.ActionDelete, a, nil)
			return nil
		}
	}
	return domain.NotFoundError{Entity: domain.EntityAnnouncement, ID: id}
}

func (tx *memTx) ListAnnouncements() []Announcement {
	return append([]Announcement(nil), tx.state.announcements...)
}

// Settings --------------------------------------------------------------------

func (tx *memTx) Settings() Settings {
	return cloneSettings(tx.state.settings)
}

func (tx *memTx) SetSettings(s Settings) {
	before := tx.state.settings
	tx.state.settings = cloneSettings(s)
	tx.record(domain.EntitySettings, domain.ActionUpdate, before, tx.state.settings)
}
