package core

import (
	"tutorcore/pkg/domain"
)

func applyAddIncome(tx Transaction, p domain.AddIncome) error {
	item := p.Item
	if item.Date == "" {
		item.Date = tx.Now()
	}
	_, err := tx.CreateIncomeItem(item)
	return err
}

func applyDeleteIncome(tx Transaction, p domain.DeleteIncome) error {
	return tx.DeleteIncomeItem(p.ID)
}

func applyAddExpense(tx Transaction, p domain.AddExpense) error {
	item := p.Item
	if item.Date == "" {
		item.Date = tx.Now()
	}
	_, err := tx.CreateExpenseItem(item)
	return err
}

func applyDeleteExpense(tx Transaction, p domain.DeleteExpense) error {
	return tx.DeleteExpenseItem(p.ID)
}

func applyAddAnnouncement(tx Transaction, p domain.AddAnnouncement) error {
	ann := p.Announcement
	if ann.Date == "" {
		ann.Date = tx.Now()
	}
	if ann.ClassID != "" {
		if _, ok := tx.FindClass(ann.ClassID); !ok {
			return domain.NotFoundError{Entity: domain.EntityClass, ID: ann.ClassID}
		}
	}
	_, err := tx.PrependAnnouncement(ann)
	return err
}

func applyDeleteAnnouncement(tx Transaction, p domain.DeleteAnnouncement) error {
	return tx.DeleteAnnouncement(p.ID)
}

// applyUpdateSettings replaces the settings document wholesale. Credentials
// are managed exclusively through updatePassword, so an absent credentials
// map keeps the stored one instead of wiping every login.
func applyUpdateSettings(tx Transaction, p domain.UpdateSettings) error {
	incoming := p.Settings
	if incoming.Credentials == nil {
		incoming.Credentials = tx.Settings().Credentials
	}
	tx.SetSettings(incoming)
	return nil
}

func applyUpdatePassword(tx Transaction, p domain.UpdatePassword) error {
	settings := tx.Settings()
	if _, ok := settings.Credentials[p.Role]; !ok {
		return domain.InvalidStateError{Message: "unknown role " + p.Role}
	}
	settings.Credentials[p.Role] = p.Password
	tx.SetSettings(settings)
	return nil
}

// applyClearCollections wipes the named collections with their cascades.
// Clearing classes leaves invoices alone: invoices key off (student, month).
func applyClearCollections(tx Transaction, p domain.ClearCollections) error {
	for _, target := range p.Targets {
		switch target {
		case domain.EntityStudent:
			if err := clearStudents(tx); err != nil {
				return err
			}
		case domain.EntityTeacher:
			if err := clearTeachers(tx); err != nil {
				return err
			}
		case domain.EntityStaffMember:
			for _, member := range tx.ListStaffMembers() {
				if err := tx.DeleteStaffMember(member.ID); err != nil {
					return err
				}
			}
		case domain.EntityClass:
			if err := clearClasses(tx); err != nil {
				return err
			}
		default:
			return domain.InvalidStateError{Message: "collection " + string(target) + " cannot be cleared"}
		}
	}
	return nil
}

func clearStudents(tx Transaction) error {
	for _, student := range tx.ListStudents() {
		if err := tx.DeleteStudent(student.ID); err != nil {
			return err
		}
	}
	for _, rec := range tx.ListAttendanceRecords() {
		if err := tx.DeleteAttendanceRecord(rec.ID); err != nil {
			return err
		}
	}
	for _, inv := range tx.ListInvoices() {
		if err := tx.DeleteInvoice(inv.ID); err != nil {
			return err
		}
	}
	for _, report := range tx.ListProgressReports() {
		if err := tx.DeleteProgressReport(report.ID); err != nil {
			return err
		}
	}
	for _, entry := range tx.ListLedgerEntries() {
		if err := tx.DeleteLedgerEntry(entry.ID); err != nil {
			return err
		}
	}
	for _, class := range tx.ListClasses() {
		if len(class.StudentIDs) == 0 {
			continue
		}
		if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
			c.StudentIDs = []string{}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func clearTeachers(tx Transaction) error {
	for _, teacher := range tx.ListTeachers() {
		if err := tx.DeleteTeacher(teacher.ID); err != nil {
			return err
		}
	}
	for _, payroll := range tx.ListPayrolls() {
		if err := tx.DeletePayroll(payroll.ID); err != nil {
			return err
		}
	}
	for _, class := range tx.ListClasses() {
		if len(class.TeacherIDs) == 0 {
			continue
		}
		if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
			c.TeacherIDs = []string{}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func clearClasses(tx Transaction) error {
	for _, class := range tx.ListClasses() {
		if err := tx.DeleteClass(class.ID); err != nil {
			return err
		}
	}
	for _, rec := range tx.ListAttendanceRecords() {
		if err := tx.DeleteAttendanceRecord(rec.ID); err != nil {
			return err
		}
	}
	for _, report := range tx.ListProgressReports() {
		if err := tx.DeleteProgressReport(report.ID); err != nil {
			return err
		}
	}
	return nil
}
