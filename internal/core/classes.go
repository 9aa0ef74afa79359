package core

import (
	"tutorcore/pkg/domain"
)

func applyAddClass(tx Transaction, p domain.AddClass) error {
	class := p.Class
	if class.StudentIDs == nil {
		class.StudentIDs = []string{}
	}
	if class.TeacherIDs == nil {
		class.TeacherIDs = []string{}
	}
	_, err := tx.CreateClass(class)
	return err
}

func applyUpdateClass(tx Transaction, p domain.UpdateClass) error {
	class := p.Class
	current, ok := tx.FindClass(p.OriginalID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityClass, ID: p.OriginalID}
	}
	// Membership lists are managed through student/teacher operations; an
	// absent list in the payload keeps the current one.
	if class.StudentIDs == nil {
		class.StudentIDs = current.StudentIDs
	}
	if class.TeacherIDs == nil {
		class.TeacherIDs = current.TeacherIDs
	}
	updated, err := tx.ReplaceClass(p.OriginalID, class)
	if err != nil {
		return err
	}
	return cascadeClassRename(tx, p.OriginalID, updated.ID)
}

func applyDeleteClass(tx Transaction, p domain.DeleteClass) error {
	if err := tx.DeleteClass(p.ID); err != nil {
		return err
	}
	return cascadeClassDelete(tx, p.ID)
}

func cascadeClassRename(tx Transaction, oldID, newID string) error {
	if oldID == newID {
		return nil
	}
	for _, rec := range tx.ListAttendanceRecords() {
		if rec.ClassID != oldID {
			continue
		}
		if _, err := tx.UpdateAttendanceRecord(rec.ID, func(r *AttendanceRecord) error {
			r.ClassID = newID
			return nil
		}); err != nil {
			return err
		}
	}
	for _, report := range tx.ListProgressReports() {
		if report.ClassID != oldID {
			continue
		}
		if _, err := tx.UpdateProgressReport(report.ID, func(r *ProgressReport) error {
			r.ClassID = newID
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// cascadeClassDelete removes attendance, progress reports and class-scoped
// announcements. Invoices survive: they key off (student, month), not class.
func cascadeClassDelete(tx Transaction, classID string) error {
	for _, rec := range tx.ListAttendanceRecords() {
		if rec.ClassID == classID {
			if err := tx.DeleteAttendanceRecord(rec.ID); err != nil {
				return err
			}
		}
	}
	for _, report := range tx.ListProgressReports() {
		if report.ClassID == classID {
			if err := tx.DeleteProgressReport(report.ID); err != nil {
				return err
			}
		}
	}
	for _, ann := range tx.ListAnnouncements() {
		if ann.ClassID == classID {
			if err := tx.DeleteAnnouncement(ann.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
