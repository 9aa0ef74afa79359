package core

import (
	"tutorcore/pkg/domain"
)

func applyAddTeacher(tx Transaction, p domain.AddTeacher) error {
	teacher := p.Teacher
	if teacher.Status == "" {
		teacher.Status = domain.StatusActive
	}
	if teacher.JoinDate == "" {
		teacher.JoinDate = tx.Now()
	}
	created, err := tx.CreateTeacher(teacher)
	if err != nil {
		return err
	}
	return assignTeacher(tx, created.ID, p.ClassIDs)
}

func applyUpdateTeacher(tx Transaction, p domain.UpdateTeacher) error {
	teacher := p.Teacher
	current, ok := tx.FindTeacher(p.OriginalID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityTeacher, ID: p.OriginalID}
	}
	if teacher.JoinDate == "" {
		teacher.JoinDate = current.JoinDate
	}
	if teacher.Status == "" {
		teacher.Status = current.Status
	}
	updated, err := tx.ReplaceTeacher(p.OriginalID, teacher)
	if err != nil {
		return err
	}
	if err := cascadeTeacherRename(tx, p.OriginalID, updated); err != nil {
		return err
	}
	if p.ClassIDs != nil {
		return reconcileTeacherAssignments(tx, updated.ID, p.ClassIDs)
	}
	return nil
}

func applyDeleteTeacher(tx Transaction, p domain.DeleteTeacher) error {
	if err := tx.DeleteTeacher(p.ID); err != nil {
		return err
	}
	return cascadeTeacherDelete(tx, p.ID)
}

func applyAddStaff(tx Transaction, p domain.AddStaff) error {
	member := p.Staff
	if member.Status == "" {
		member.Status = domain.StatusActive
	}
	if member.JoinDate == "" {
		member.JoinDate = tx.Now()
	}
	_, err := tx.CreateStaffMember(member)
	return err
}

func applyUpdateStaff(tx Transaction, p domain.UpdateStaff) error {
	member := p.Staff
	current, ok := tx.FindStaffMember(p.OriginalID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityStaffMember, ID: p.OriginalID}
	}
	if member.JoinDate == "" {
		member.JoinDate = current.JoinDate
	}
	if member.Status == "" {
		member.Status = current.Status
	}
	_, err := tx.ReplaceStaffMember(p.OriginalID, member)
	return err
}

func applyDeleteStaff(tx Transaction, p domain.DeleteStaff) error {
	return tx.DeleteStaffMember(p.ID)
}

func assignTeacher(tx Transaction, teacherID string, classIDs []string) error {
	for _, classID := range classIDs {
		if _, ok := tx.FindClass(classID); !ok {
			return domain.NotFoundError{Entity: domain.EntityClass, ID: classID}
		}
		if _, err := tx.UpdateClass(classID, func(c *Class) error {
			if !containsID(c.TeacherIDs, teacherID) {
				c.TeacherIDs = append(c.TeacherIDs, teacherID)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func reconcileTeacherAssignments(tx Transaction, teacherID string, classIDs []string) error {
	desired := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		if _, ok := tx.FindClass(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityClass, ID: id}
		}
		desired[id] = true
	}
	for _, class := range tx.ListClasses() {
		assigned := containsID(class.TeacherIDs, teacherID)
		switch {
		case desired[class.ID] && !assigned:
			if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
				c.TeacherIDs = append(c.TeacherIDs, teacherID)
				return nil
			}); err != nil {
				return err
			}
		case !desired[class.ID] && assigned:
			if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
				c.TeacherIDs = removeID(c.TeacherIDs, teacherID)
				return nil
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// cascadeTeacherRename rewrites class assignments and drops payrolls keyed by
// the old id. Payroll ids embed the teacher id, so history under the old id
// would be orphaned; it is removed rather than renamed.
func cascadeTeacherRename(tx Transaction, oldID string, updated Teacher) error {
	if oldID == updated.ID {
		return nil
	}
	for _, class := range tx.ListClasses() {
		if !containsID(class.TeacherIDs, oldID) {
			continue
		}
		if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
			c.TeacherIDs = replaceID(c.TeacherIDs, oldID, updated.ID)
			return nil
		}); err != nil {
			return err
		}
	}
	for _, payroll := range tx.ListPayrolls() {
		if payroll.TeacherID == oldID {
			if err := tx.DeletePayroll(payroll.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func cascadeTeacherDelete(tx Transaction, teacherID string) error {
	for _, class := range tx.ListClasses() {
		if !containsID(class.TeacherIDs, teacherID) {
			continue
		}
		if _, err := tx.UpdateClass(class.ID, func(c *Class) error {
			c.TeacherIDs = removeID(c.TeacherIDs, teacherID)
			return nil
		}); err != nil {
			return err
		}
	}
	for _, payroll := range tx.ListPayrolls() {
		if payroll.TeacherID == teacherID {
			if err := tx.DeletePayroll(payroll.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
