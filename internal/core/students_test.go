package core

import (
	"context"
	"errors"
	"testing"

	"tutorcore/pkg/domain"
)

func TestAddStudentDefaults(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.AddStudent{
		Student:  Student{Base: domain.Base{ID: "std-3"}, Name: "Hana", Balance: 999},
		ClassIDs: []string{"cls-s"},
	})
	state := svc.State()
	student := state.Students["std-3"]
	if student.Status != domain.StatusActive {
		t.Fatalf("status should default to active, got %q", student.Status)
	}
	if student.JoinDate != testToday {
		t.Fatalf("join date should default to today, got %q", student.JoinDate)
	}
	if student.Balance != 0 {
		t.Fatalf("balance must start at zero regardless of payload, got %d", student.Balance)
	}
	if ids := state.Classes["cls-s"].StudentIDs; !containsID(ids, "std-3") {
		t.Fatalf("student not enrolled: %v", ids)
	}
}

func TestUpdateStudentPreservesBalanceAndSyncsInvoiceName(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.GenerateInvoices{Year: 2024, Month: 3})
	balanceBefore := svc.State().Students["std-1"].Balance
	if balanceBefore == 0 {
		t.Fatalf("fixture should leave std-1 with debt")
	}

	mustApply(t, svc, domain.UpdateStudent{
		OriginalID: "std-1",
		Student:    Student{Base: domain.Base{ID: "std-1"}, Name: "Aminah Binti Rahman", Balance: 12345},
	})
	state := svc.State()
	student := state.Students["std-1"]
	if student.Balance != balanceBefore {
		t.Fatalf("profile update must not change balance: %d != %d", student.Balance, balanceBefore)
	}
	inv := singleInvoice(t, state, "std-1", "2024-03")
	if inv.StudentName != "Aminah Binti Rahman" {
		t.Fatalf("invoice name not synced: %q", inv.StudentName)
	}
	// Nil ClassIDs leaves memberships alone.
	if !containsID(state.Classes["cls-m"].StudentIDs, "std-1") || !containsID(state.Classes["cls-s"].StudentIDs, "std-1") {
		t.Fatalf("memberships must survive an update without class ids")
	}
	assertBalancesConsistent(t, state)
}

func TestUpdateStudentReconcilesMemberships(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.UpdateStudent{
		OriginalID: "std-1",
		Student:    Student{Base: domain.Base{ID: "std-1"}, Name: "Aminah"},
		ClassIDs:   []string{"cls-s"},
	})
	state := svc.State()
	if containsID(state.Classes["cls-m"].StudentIDs, "std-1") {
		t.Fatalf("std-1 should have been removed from cls-m")
	}
	if !containsID(state.Classes["cls-s"].StudentIDs, "std-1") {
		t.Fatalf("std-1 should remain in cls-s")
	}
	if !containsID(state.Classes["cls-m"].StudentIDs, "std-2") {
		t.Fatalf("other memberships must be untouched")
	}
}

func TestUpdateStudentRenameCascades(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.UpdateAttendance{Records: []AttendanceRecord{
		{ClassID: "cls-s", StudentID: "std-1", Date: "2024-03-04", Status: domain.AttendancePresent},
	}})
	mustApply(t, svc, domain.AddProgressReport{Report: ProgressReport{
		StudentID: "std-1", ClassID: "cls-m", Content: "doing well",
	}})
	mustApply(t, svc, domain.GenerateInvoices{Year: 2024, Month: 3})

	mustApply(t, svc, domain.UpdateStudent{
		OriginalID: "std-1",
		Student:    Student{Base: domain.Base{ID: "std-renamed"}, Name: "Aminah"},
	})
	state := svc.State()
	if _, still := state.Students["std-1"]; still {
		t.Fatalf("old student id must be gone")
	}
	if !containsID(state.Classes["cls-m"].StudentIDs, "std-renamed") {
		t.Fatalf("class membership not renamed: %v", state.Classes["cls-m"].StudentIDs)
	}
	for _, rec := range state.Attendance {
		if rec.StudentID == "std-1" {
			t.Fatalf("attendance still references old id")
		}
	}
	for _, report := range state.ProgressReports {
		if report.StudentID == "std-1" {
			t.Fatalf("report still references old id")
		}
	}
	for _, entry := range state.Ledger {
		if entry.StudentID == "std-1" {
			t.Fatalf("ledger still references old id")
		}
	}
	inv := singleInvoice(t, state, "std-renamed", "2024-03")
	if inv.Amount == 0 {
		t.Fatalf("invoice lost its amount through rename")
	}
	assertBalancesConsistent(t, state)
}

func TestDeleteStudentLeavesNoReferences(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.UpdateAttendance{Records: []AttendanceRecord{
		{ClassID: "cls-m", StudentID: "std-1", Date: "2024-03-04", Status: domain.AttendancePresent},
		{ClassID: "cls-m", StudentID: "std-2", Date: "2024-03-04", Status: domain.AttendanceAbsent},
	}})
	mustApply(t, svc, domain.AddProgressReport{Report: ProgressReport{
		StudentID: "std-1", ClassID: "cls-m", Content: "note",
	}})
	mustApply(t, svc, domain.GenerateInvoices{Year: 2024, Month: 3})

	mustApply(t, svc, domain.DeleteStudent{ID: "std-1"})
	state := svc.State()
	if _, still := state.Students["std-1"]; still {
		t.Fatalf("student must be deleted")
	}
	for _, class := range state.Classes {
		if containsID(class.StudentIDs, "std-1") {
			t.Fatalf("class %s still lists deleted student", class.ID)
		}
	}
	for _, rec := range state.Attendance {
		if rec.StudentID == "std-1" {
			t.Fatalf("attendance row survived student deletion")
		}
	}
	for _, inv := range state.Invoices {
		if inv.StudentID == "std-1" {
			t.Fatalf("invoice survived student deletion")
		}
	}
	for _, report := range state.ProgressReports {
		if report.StudentID == "std-1" {
			t.Fatalf("report survived student deletion")
		}
	}
	for _, entry := range state.Ledger {
		if entry.StudentID == "std-1" {
			t.Fatalf("ledger entry survived student deletion")
		}
	}
	// The other student is untouched.
	if _, ok := state.Students["std-2"]; !ok {
		t.Fatalf("unrelated student removed")
	}
	assertBalancesConsistent(t, state)
}

func TestTeacherRenameDropsPayrolls(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.GeneratePayroll{Year: 2024, Month: 3})
	if len(svc.State().Payrolls) != 1 {
		t.Fatalf("fixture should have one payroll")
	}

	mustApply(t, svc, domain.UpdateTeacher{
		OriginalID: "tch-1",
		Teacher: Teacher{
			Base:   domain.Base{ID: "tch-renamed"},
			Name:   "Farah",
			Salary: domain.Salary{Type: domain.SalaryMonthly, Rate: 250000},
		},
	})
	state := svc.State()
	if _, still := state.Teachers["tch-1"]; still {
		t.Fatalf("old teacher id must be gone")
	}
	if !containsID(state.Classes["cls-m"].TeacherIDs, "tch-renamed") {
		t.Fatalf("class assignment not renamed")
	}
	if len(state.Payrolls) != 0 {
		t.Fatalf("payrolls keyed by the old id must be dropped, got %d", len(state.Payrolls))
	}
}

func TestDeleteTeacherCascades(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.GeneratePayroll{Year: 2024, Month: 3})
	mustApply(t, svc, domain.DeleteTeacher{ID: "tch-1"})
	state := svc.State()
	for _, class := range state.Classes {
		if containsID(class.TeacherIDs, "tch-1") {
			t.Fatalf("class %s still lists deleted teacher", class.ID)
		}
	}
	if len(state.Payrolls) != 0 {
		t.Fatalf("payrolls survived teacher deletion")
	}
}

func TestUpdateTeacherReconcilesAssignments(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.UpdateTeacher{
		OriginalID: "tch-1",
		Teacher:    Teacher{Base: domain.Base{ID: "tch-1"}, Name: "Farah", Salary: domain.Salary{Type: domain.SalaryMonthly, Rate: 250000}},
		ClassIDs:   []string{"cls-m"},
	})
	state := svc.State()
	if containsID(state.Classes["cls-s"].TeacherIDs, "tch-1") {
		t.Fatalf("tch-1 should have been unassigned from cls-s")
	}
	if !containsID(state.Classes["cls-m"].TeacherIDs, "tch-1") {
		t.Fatalf("tch-1 should stay on cls-m")
	}
}

func TestStaffLifecycle(t *testing.T) {
	svc := newTestService(t)
	mustApply(t, svc, domain.AddStaff{Staff: StaffMember{Base: domain.Base{ID: "stf-1"}, Name: "Mei", Role: "admin"}})
	state := svc.State()
	if state.Staff["stf-1"].Status != domain.StatusActive {
		t.Fatalf("staff status should default to active")
	}
	if state.Staff["stf-1"].JoinDate != testToday {
		t.Fatalf("staff join date should default to today")
	}

	mustApply(t, svc, domain.UpdateStaff{
		OriginalID: "stf-1",
		Staff:      StaffMember{Base: domain.Base{ID: "stf-1"}, Name: "Mei Ling", Role: "manager"},
	})
	if got := svc.State().Staff["stf-1"]; got.Role != "manager" || got.JoinDate != testToday {
		t.Fatalf("staff update wrong: %+v", got)
	}

	mustApply(t, svc, domain.DeleteStaff{ID: "stf-1"})
	if len(svc.State().Staff) != 0 {
		t.Fatalf("staff not deleted")
	}
}

func TestClassRenameMovesAttendanceAndReports(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.UpdateAttendance{Records: []AttendanceRecord{
		{ClassID: "cls-m", StudentID: "std-1", Date: "2024-03-04", Status: domain.AttendancePresent},
	}})
	mustApply(t, svc, domain.AddProgressReport{Report: ProgressReport{
		StudentID: "std-1", ClassID: "cls-m", Content: "note",
	}})
	mustApply(t, svc, domain.UpdateClass{
		OriginalID: "cls-m",
		Class:      Class{Base: domain.Base{ID: "cls-math"}, Name: "Mathematics", Fee: domain.Fee{Type: domain.FeeMonthly, Amount: 30000}},
	})
	state := svc.State()
	if _, still := state.Classes["cls-m"]; still {
		t.Fatalf("old class id must be gone")
	}
	class := state.Classes["cls-math"]
	if !containsID(class.StudentIDs, "std-1") || !containsID(class.TeacherIDs, "tch-1") {
		t.Fatalf("membership lists must survive an update without lists: %+v", class)
	}
	for _, rec := range state.Attendance {
		if rec.ClassID != "cls-math" {
			t.Fatalf("attendance not moved to renamed class: %+v", rec)
		}
	}
	for _, report := range state.ProgressReports {
		if report.ClassID != "cls-math" {
			t.Fatalf("report not moved to renamed class: %+v", report)
		}
	}
}

func TestDeleteClassCascadesButKeepsInvoices(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.UpdateAttendance{Records: []AttendanceRecord{
		{ClassID: "cls-m", StudentID: "std-1", Date: "2024-03-04", Status: domain.AttendancePresent},
	}})
	mustApply(t, svc, domain.AddProgressReport{Report: ProgressReport{
		StudentID: "std-1", ClassID: "cls-m", Content: "note",
	}})
	mustApply(t, svc, domain.AddAnnouncement{Announcement: Announcement{Title: "class notice", ClassID: "cls-m"}})
	mustApply(t, svc, domain.AddAnnouncement{Announcement: Announcement{Title: "general notice"}})
	mustApply(t, svc, domain.GenerateInvoices{Year: 2024, Month: 3})
	invoicesBefore := len(svc.State().Invoices)

	mustApply(t, svc, domain.DeleteClass{ID: "cls-m"})
	state := svc.State()
	if len(state.Attendance) != 0 {
		t.Fatalf("attendance survived class deletion")
	}
	if len(state.ProgressReports) != 0 {
		t.Fatalf("reports survived class deletion")
	}
	if len(state.Announcements) != 1 || state.Announcements[0].Title != "general notice" {
		t.Fatalf("class-scoped announcement should be removed, general kept: %+v", state.Announcements)
	}
	if len(state.Invoices) != invoicesBefore {
		t.Fatalf("invoices must survive class deletion: %d != %d", len(state.Invoices), invoicesBefore)
	}
	assertBalancesConsistent(t, state)
}

func TestClearCollections(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	mustApply(t, svc, domain.UpdateAttendance{Records: []AttendanceRecord{
		{ClassID: "cls-m", StudentID: "std-1", Date: "2024-03-04", Status: domain.AttendancePresent},
	}})
	mustApply(t, svc, domain.GenerateInvoices{Year: 2024, Month: 3})
	mustApply(t, svc, domain.GeneratePayroll{Year: 2024, Month: 3})
	mustApply(t, svc, domain.AddStaff{Staff: StaffMember{Base: domain.Base{ID: "stf-1"}, Name: "Mei", Role: "admin"}})

	mustApply(t, svc, domain.ClearCollections{Targets: []domain.EntityType{domain.EntityStudent}})
	state := svc.State()
	if len(state.Students) != 0 || len(state.Attendance) != 0 || len(state.Invoices) != 0 || len(state.Ledger) != 0 || len(state.ProgressReports) != 0 {
		t.Fatalf("clearing students must cascade: %d students, %d attendance, %d invoices, %d ledger", len(state.Students), len(state.Attendance), len(state.Invoices), len(state.Ledger))
	}
	for _, class := range state.Classes {
		if len(class.StudentIDs) != 0 {
			t.Fatalf("class %s retains members after clear", class.ID)
		}
	}
	if len(state.Teachers) != 1 || len(state.Payrolls) != 1 {
		t.Fatalf("clearing students must not touch teachers or payrolls")
	}

	mustApply(t, svc, domain.ClearCollections{Targets: []domain.EntityType{domain.EntityTeacher, domain.EntityStaffMember}})
	state = svc.State()
	if len(state.Teachers) != 0 || len(state.Payrolls) != 0 || len(state.Staff) != 0 {
		t.Fatalf("clearing teachers and staff incomplete")
	}
	for _, class := range state.Classes {
		if len(class.TeacherIDs) != 0 {
			t.Fatalf("class %s retains teachers after clear", class.ID)
		}
	}

	mustApply(t, svc, domain.ClearCollections{Targets: []domain.EntityType{domain.EntityClass}})
	if len(svc.State().Classes) != 0 {
		t.Fatalf("classes not cleared")
	}
}

func TestClearCollectionsRejectsUnknownTarget(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Apply(context.Background(), domain.ClearCollections{Targets: []domain.EntityType{domain.EntityInvoice}})
	var invalid domain.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}
