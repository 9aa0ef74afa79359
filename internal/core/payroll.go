package core

import (
	"fmt"
	"strings"
	"time"

	"tutorcore/pkg/domain"
)

// applyGeneratePayroll computes one payroll record per active teacher for a
// calendar month. The deterministic id (teacher id + month) makes
// regeneration overwrite the prior record for the period.
func applyGeneratePayroll(tx Transaction, p domain.GeneratePayroll) error {
	if p.Month < 1 || p.Month > 12 {
		return domain.InvalidStateError{Message: fmt.Sprintf("month %d out of range", p.Month)}
	}
	monthKey := domain.MonthKey(p.Year, time.Month(p.Month))

	for _, teacher := range tx.ListTeachers() {
		if teacher.Status != domain.StatusActive {
			continue
		}
		payroll := Payroll{
			Base:        domain.Base{ID: domain.PayrollID(teacher.ID, monthKey)},
			TeacherID:   teacher.ID,
			TeacherName: teacher.Name,
			Month:       monthKey,
			SalaryType:  teacher.Salary.Type,
			Rate:        teacher.Salary.Rate,
		}
		switch teacher.Salary.Type {
		case domain.SalaryPerSession:
			sessions := sessionsTaught(tx, teacher.ID, monthKey)
			payroll.SessionsTaught = sessions
			payroll.TotalSalary = int64(sessions) * teacher.Salary.Rate
		default:
			payroll.TotalSalary = teacher.Salary.Rate
		}
		if _, err := tx.PutPayroll(payroll); err != nil {
			return err
		}
	}
	return nil
}

// sessionsTaught counts distinct (class, date) pairs in the month with any
// attendance across the teacher's assigned classes. A session counts once
// regardless of how many students attended.
func sessionsTaught(tx Transaction, teacherID, monthKey string) int {
	assigned := make(map[string]bool)
	for _, class := range tx.ListClasses() {
		if containsID(class.TeacherIDs, teacherID) {
			assigned[class.ID] = true
		}
	}
	if len(assigned) == 0 {
		return 0
	}
	sessions := make(map[string]bool)
	for _, rec := range tx.ListAttendanceRecords() {
		if !assigned[rec.ClassID] || !strings.HasPrefix(rec.Date, monthKey) {
			continue
		}
		sessions[rec.ClassID+"|"+rec.Date] = true
	}
	return len(sessions)
}

func applyDeletePayroll(tx Transaction, p domain.DeletePayroll) error {
	return tx.DeletePayroll(p.ID)
}
