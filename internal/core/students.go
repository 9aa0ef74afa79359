package core

import (
	"tutorcore/pkg/domain"
)

func applyAddStudent(tx Transaction, p domain.AddStudent) error {
	student := p.Student
	if student.Status == "" {
		student.Status = domain.StatusActive
	}
	if student.JoinDate == "" {
		student.JoinDate = tx.Now()
	}
	student.Balance = 0
	created, err := tx.CreateStudent(student)
	if err != nil {
		return err
	}
	return enrollStudent(tx, created.ID, p.ClassIDs)
}

func applyUpdateStudent(tx Transaction, p domain.UpdateStudent) error {
	student := p.Student
	current, ok := tx.FindStudent(p.OriginalID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityStudent, ID: p.OriginalID}
	}
	// Balance is maintained by ledger operations only; a profile update must
	// never change it.
	student.Balance = current.Balance
	if student.JoinDate == "" {
		student.JoinDate = current.JoinDate
	}
	if student.Status == "" {
		student.Status = current.Status
	}
	updated, err := tx.ReplaceStudent(p.OriginalID, student)
	if err != nil {
		return err
	}
	if err := cascadeStudentRename(tx, p.OriginalID, updated); err != nil {
		return err
	}
	if p.ClassIDs != nil {
		return reconcileStudentMemberships(tx, updated.ID, p.ClassIDs)
	}
	return nil
}

func applyDeleteStudent(tx Transaction, p domain.DeleteStudent) error {
	if err := tx.DeleteStudent(p.ID); err != nil {
		return err
	}
	return cascadeStudentDelete(tx, p.ID)
}

// enrollStudent appends the student to each named class membership list.
func enrollStudent(tx Transaction, studentID string, classIDs []string) error {
	for _, classID := range classIDs {
		if _, ok := tx.FindClass(classID); !ok {
			return domain.NotFoundError{Entity: domain.EntityClass, ID: classID}
		}
		if _, err := tx.UpdateClass(classID, func(c *Class) error {
			if !containsID(c.StudentIDs, studentID) {
				c.StudentIDs = append(c.StudentIDs, studentID)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// reconcileStudentMemberships applies the symmetric difference between the
// student's current class memberships and the desired set in one pass.
func reconcileStudentMemberships(tx Transaction, studentID string, classIDs []string) error {
	desired := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		if _, ok := tx.FindClass(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityClass, ID: id}
		}
		desired[id] = true
	}
	for _, class := range tx.ListClasses() {
		member := containsID(class.StudentIDs, studentID)
		switch {
		case desired[class.ID] && !member:
			if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
				c.StudentIDs = append(c.StudentIDs, studentID)
				return nil
			}); err != nil {
				return err
			}
		case !desired[class.ID] && member:
			if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
				c.StudentIDs = removeID(c.StudentIDs, studentID)
				return nil
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// cascadeStudentRename rewrites every foreign reference after a student
// update. Invoices additionally carry the denormalized student name, which is
// kept in sync on every update, not only on renames.
func cascadeStudentRename(tx Transaction, oldID string, updated Student) error {
	renamed := oldID != updated.ID
	if renamed {
		for _, class := range tx.ListClasses() {
			if !containsID(class.StudentIDs, oldID) {
				continue
			}
			if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
				c.StudentIDs = replaceID(c.StudentIDs, oldID, updated.ID)
				return nil
			}); err != nil {
				return err
			}
		}
		for _, rec := range tx.ListAttendanceRecords() {
			if rec.StudentID != oldID {
				continue
			}
			if _, err := tx.UpdateAttendanceRecord(rec.ID, func(r *AttendanceRecord) error {
				r.StudentID = updated.ID
				return nil
			}); err != nil {
				return err
			}
		}
		for _, report := range tx.ListProgressReports() {
			if report.StudentID != oldID {
				continue
			}
			if _, err := tx.UpdateProgressReport(report.ID, func(r *ProgressReport) error {
				r.StudentID = updated.ID
				return nil
			}); err != nil {
				return err
			}
		}
		for _, entry := range tx.ListLedgerEntries() {
			if entry.StudentID != oldID {
				continue
			}
			if _, err := tx.UpdateLedgerEntry(entry.ID, func(e *LedgerEntry) error {
				e.StudentID = updated.ID
				return nil
			}); err != nil {
				return err
			}
		}
	}
	for _, inv := range tx.ListInvoices() {
		if inv.StudentID != oldID {
			continue
		}
		if _, err := tx.UpdateInvoice(inv.ID, func(i *Invoice) error {
			i.StudentID = updated.ID
			i.StudentName = updated.Name
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// cascadeStudentDelete removes every row referencing the deleted student.
func cascadeStudentDelete(tx Transaction, studentID string) error {
	for _, class := range tx.ListClasses() {
		if !containsID(class.StudentIDs, studentID) {
			continue
		}
		if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
			c.StudentIDs = removeID(c.StudentIDs, studentID)
			return nil
		}); err != nil {
			return err
		}
	}
	for _, rec := range tx.ListAttendanceRecords() {
		if rec.StudentID == studentID {
			if err := tx.DeleteAttendanceRecord(rec.ID); err != nil {
				return err
			}
		}
	}
	for _, inv := range tx.ListInvoices() {
		if inv.StudentID == studentID {
			if err := tx.DeleteInvoice(inv.ID); err != nil {
				return err
			}
		}
	}
	for _, report := range tx.ListProgressReports() {
		if report.StudentID == studentID {
			if err := tx.DeleteProgressReport(report.ID); err != nil {
				return err
			}
		}
	}
	for _, entry := range tx.ListLedgerEntries() {
		if entry.StudentID == studentID {
			if err := tx.DeleteLedgerEntry(entry.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func replaceID(ids []string, oldID, newID string) []string {
	for i, candidate := range ids {
		if candidate == oldID {
			ids[i] = newID
		}
	}
	return ids
}
