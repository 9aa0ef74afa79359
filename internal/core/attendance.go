package core

import (
	"tutorcore/pkg/domain"
)

// applyUpdateAttendance replaces attendance day-by-day: the input is
// partitioned by (classID, date) and each group replaces every existing
// record for that key. Callers therefore submit the full roster's status for
// a session; students omitted from a resubmission are dropped for that slot.
func applyUpdateAttendance(tx Transaction, p domain.UpdateAttendance) error {
	if len(p.Records) == 0 {
		return nil
	}

	type sessionKey struct {
		classID string
		date    string
	}
	groups := make(map[sessionKey][]AttendanceRecord)
	order := make([]sessionKey, 0)
	for _, rec := range p.Records {
		if !rec.Status.Valid() {
			return domain.InvalidStateError{Message: "unknown attendance status " + string(rec.Status)}
		}
		key := sessionKey{classID: rec.ClassID, date: rec.Date}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	for _, key := range order {
		for _, existing := range tx.ListAttendanceRecords() {
			if existing.ClassID == key.classID && existing.Date == key.date {
				if err := tx.DeleteAttendanceRecord(existing.ID); err != nil {
					return err
				}
			}
		}
		// Last submission wins when a student appears twice in one group.
		byStudent := make(map[string]AttendanceRecord, len(groups[key]))
		students := make([]string, 0, len(groups[key]))
		for _, rec := range groups[key] {
			if _, seen := byStudent[rec.StudentID]; !seen {
				students = append(students, rec.StudentID)
			}
			byStudent[rec.StudentID] = rec
		}
		for _, studentID := range students {
			rec := byStudent[studentID]
			rec.Base = domain.Base{ID: rec.ID}
			if _, err := tx.CreateAttendanceRecord(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
