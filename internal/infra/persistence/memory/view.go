package memory

// view adapts a memoryState pointer to the read-only interface handed to
// rules. It reads the transactional state directly so rules see uncommitted
// mutations.
type view struct {
	state *memoryState
}

var _ TransactionView = view{}

func newView(state *memoryState) TransactionView {
	return view{state: state}
}

func (v view) ListStudents() []Student {
	out := make([]Student, 0, len(v.state.students))
	for _, s := range v.state.students {
		out = append(out, s)
	}
	return out
}

func (v view) ListTeachers() []Teacher {
	out := make([]Teacher, 0, len(v.state.teachers))
	for _, t := range v.state.teachers {
		out = append(out, t)
	}
	return out
}

func (v view) ListStaffMembers() []StaffMember {
	out := make([]StaffMember, 0, len(v.state.staff))
	for _, m := range v.state.staff {
		out = append(out, m)
	}
	return out
}

func (v view) ListClasses() []Class {
	out := make([]Class, 0, len(v.state.classes))
	for _, c := range v.state.classes {
		out = append(out, cloneClass(c))
	}
	return out
}

func (v view) ListAttendanceRecords() []AttendanceRecord {
	out := make([]AttendanceRecord, 0, len(v.state.attendance))
	for _, r := range v.state.attendance {
		out = append(out, r)
	}
	return out
}

func (v view) ListInvoices() []Invoice {
	out := make([]Invoice, 0, len(v.state.invoices))
	for _, inv := range v.state.invoices {
		out = append(out, inv)
	}
	return out
}

func (v view) ListProgressReports() []ProgressReport {
	out := make([]ProgressReport, 0, len(v.state.reports))
	for _, r := range v.state.reports {
		out = append(out, r)
	}
	return out
}

func (v view) ListLedgerEntries() []LedgerEntry {
	out := make([]LedgerEntry, 0, len(v.state.ledger))
	for _, e := range v.state.ledger {
		out = append(out, e)
	}
	return out
}

func (v view) ListPayrolls() []Payroll {
	out := make([]Payroll, 0, len(v.state.payrolls))
	for _, p := range v.state.payrolls {
		out = append(out, p)
	}
	return out
}

func (v view) ListAnnouncements() []Announcement {
	return append([]Announcement(nil), v.state.announcements...)
}

func (v view) FindStudent(id string) (Student, bool) {
	s, ok := v.state.students[id]
	return s, ok
}

func (v view) FindTeacher(id string) (Teacher, bool) {
	t, ok := v.state.teachers[id]
	return t, ok
}

func (v view) FindClass(id string) (Class, bool) {
	c, ok := v.state.classes[id]
	if !ok {
		return Class{}, false
	}
	return cloneClass(c), true
}

func (v view) FindInvoice(id string) (Invoice, bool) {
	inv, ok := v.state.invoices[id]
	return inv, ok
}
