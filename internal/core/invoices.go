package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tutorcore/pkg/domain"
)

// applyGenerateInvoices computes or reconciles one invoice per active student
// for a calendar month. Settled invoices (paid or cancelled) are never
// touched, so repeated generation with unchanged attendance converges.
func applyGenerateInvoices(tx Transaction, p domain.GenerateInvoices) error {
	if p.Month < 1 || p.Month > 12 {
		return domain.InvalidStateError{Message: fmt.Sprintf("month %d out of range", p.Month)}
	}
	monthKey := domain.MonthKey(p.Year, time.Month(p.Month))

	students := tx.ListStudents()
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })

	for _, student := range students {
		if student.Status != domain.StatusActive {
			continue
		}
		total, details := monthlyCharges(tx, student.ID, monthKey)
		if err := reconcileInvoice(tx, student, monthKey, total, details); err != nil {
			return err
		}
	}
	return nil
}

// monthlyCharges sums the student's fee contributions for the month and
// builds the itemized details string, one line per non-zero contribution.
func monthlyCharges(tx Transaction, studentID, monthKey string) (int64, string) {
	classes := tx.ListClasses()
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })

	var total int64
	var lines []string
	for _, class := range classes {
		if !containsID(class.StudentIDs, studentID) {
			continue
		}
		var contribution int64
		var line string
		switch class.Fee.Type {
		case domain.FeePerSession:
			sessions := billableSessions(tx, studentID, class.ID, monthKey)
			contribution = int64(sessions) * class.Fee.Amount
			line = fmt.Sprintf("%s: %d sessions x %d", class.Name, sessions, class.Fee.Amount)
		case domain.FeeMonthly, domain.FeePerCourse:
			contribution = class.Fee.Amount
			line = fmt.Sprintf("%s: %d", class.Name, class.Fee.Amount)
		default:
			// Unknown fee types never generate charges.
			continue
		}
		if contribution <= 0 {
			continue
		}
		total += contribution
		lines = append(lines, line)
	}
	return total, strings.Join(lines, "\n")
}

func billableSessions(tx Transaction, studentID, classID, monthKey string) int {
	count := 0
	for _, rec := range tx.ListAttendanceRecords() {
		if rec.StudentID != studentID || rec.ClassID != classID {
			continue
		}
		if !strings.HasPrefix(rec.Date, monthKey) {
			continue
		}
		if rec.Status.Billable() {
			count++
		}
	}
	return count
}

// reconcileInvoice applies the generation policy against any existing invoice
// for (student, month):
//   - unpaid and total changed: adjust invoice, linked ledger entry and
//     balance in place by the delta.
//   - paid or cancelled: leave untouched.
//   - absent and total > 0: create an unpaid invoice plus its ledger charge.
//   - absent and total == 0: nothing; zero-amount invoices are never stored.
func reconcileInvoice(tx Transaction, student Student, monthKey string, total int64, details string) error {
	var existing *Invoice
	for _, inv := range tx.ListInvoices() {
		if inv.StudentID == student.ID && inv.Month == monthKey {
			match := inv
			existing = &match
			break
		}
	}

	if existing != nil {
		if existing.Status != domain.InvoiceUnpaid {
			return nil
		}
		if existing.Amount == total {
			return nil
		}
		delta := total - existing.Amount
		if _, err := tx.UpdateInvoice(existing.ID, func(i *Invoice) error {
			i.Amount = total
			i.Details = details
			return nil
		}); err != nil {
			return err
		}
		if err := adjustInvoiceCharge(tx, student.ID, existing.ID, -total, monthKey); err != nil {
			return err
		}
		_, err := tx.UpdateStudent(student.ID, func(s *Student) error {
			s.Balance -= delta
			return nil
		})
		return err
	}

	if total <= 0 {
		return nil
	}
	created, err := tx.CreateInvoice(Invoice{
		StudentID:   student.ID,
		StudentName: student.Name,
		Month:       monthKey,
		Amount:      total,
		Details:     details,
		Status:      domain.InvoiceUnpaid,
		IssueDate:   tx.Now(),
	})
	if err != nil {
		return err
	}
	if _, err := tx.CreateLedgerEntry(LedgerEntry{
		StudentID:        student.ID,
		Date:             tx.Now(),
		Amount:           -total,
		Description:      "Invoice " + monthKey,
		Type:             domain.LedgerInvoice,
		RelatedInvoiceID: created.ID,
	}); err != nil {
		return err
	}
	_, err = tx.UpdateStudent(student.ID, func(s *Student) error {
		s.Balance -= total
		return nil
	})
	return err
}

// adjustInvoiceCharge rewrites the invoice-type ledger entry linked to the
// invoice to the new charge amount, creating it when absent so the balance
// invariant holds either way.
func adjustInvoiceCharge(tx Transaction, studentID, invoiceID string, amount int64, monthKey string) error {
	for _, entry := range tx.ListLedgerEntries() {
		if entry.RelatedInvoiceID == invoiceID && entry.Type == domain.LedgerInvoice {
			_, err := tx.UpdateLedgerEntry(entry.ID, func(e *LedgerEntry) error {
				e.Amount = amount
				return nil
			})
			return err
		}
	}
	_, err := tx.CreateLedgerEntry(LedgerEntry{
		StudentID:        studentID,
		Date:             tx.Now(),
		Amount:           amount,
		Description:      "Invoice " + monthKey,
		Type:             domain.LedgerInvoice,
		RelatedInvoiceID: invoiceID,
	})
	return err
}

func applyCancelInvoice(tx Transaction, p domain.CancelInvoice) error {
	inv, ok := tx.FindInvoice(p.InvoiceID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityInvoice, ID: p.InvoiceID}
	}
	if inv.Status == domain.InvoicePaid {
		return domain.InvalidStateError{Message: "cannot cancel a paid invoice; reverse it with an adjustment"}
	}
	if inv.Status == domain.InvoiceCancelled {
		return nil
	}
	if _, ok := tx.FindStudent(inv.StudentID); !ok {
		return domain.NotFoundError{Entity: domain.EntityStudent, ID: inv.StudentID}
	}
	if _, err := tx.UpdateInvoice(inv.ID, func(i *Invoice) error {
		i.Status = domain.InvoiceCancelled
		return nil
	}); err != nil {
		return err
	}
	if _, err := tx.CreateLedgerEntry(LedgerEntry{
		StudentID:        inv.StudentID,
		Date:             tx.Now(),
		Amount:           inv.Amount,
		Description:      "Cancelled invoice " + inv.Month,
		Type:             domain.LedgerAdjustmentCredit,
		RelatedInvoiceID: inv.ID,
	}); err != nil {
		return err
	}
	_, err := tx.UpdateStudent(inv.StudentID, func(s *Student) error {
		s.Balance += inv.Amount
		return nil
	})
	return err
}

func applySetInvoiceStatus(tx Transaction, p domain.SetInvoiceStatus) error {
	if !p.Status.Valid() {
		return domain.InvalidStateError{Message: "unknown invoice status " + string(p.Status)}
	}
	inv, ok := tx.FindInvoice(p.InvoiceID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityInvoice, ID: p.InvoiceID}
	}
	if inv.Status == domain.InvoiceCancelled || p.Status == domain.InvoiceCancelled {
		return domain.InvalidStateError{Message: "cancellation state can only be entered through cancelInvoice"}
	}
	if inv.Status == p.Status {
		return nil
	}
	if _, ok := tx.FindStudent(inv.StudentID); !ok {
		return domain.NotFoundError{Entity: domain.EntityStudent, ID: inv.StudentID}
	}

	switch p.Status {
	case domain.InvoicePaid:
		paymentDate := p.Date
		if paymentDate == "" {
			paymentDate = tx.Now()
		}
		if _, err := tx.UpdateInvoice(inv.ID, func(i *Invoice) error {
			i.Status = domain.InvoicePaid
			i.PaymentDate = paymentDate
			return nil
		}); err != nil {
			return err
		}
		if _, err := tx.CreateLedgerEntry(LedgerEntry{
			StudentID:        inv.StudentID,
			Date:             paymentDate,
			Amount:           inv.Amount,
			Description:      "Payment for invoice " + inv.Month,
			Type:             domain.LedgerPayment,
			RelatedInvoiceID: inv.ID,
		}); err != nil {
			return err
		}
		_, err := tx.UpdateStudent(inv.StudentID, func(s *Student) error {
			s.Balance += inv.Amount
			return nil
		})
		return err

	default: // payment undo: paid -> unpaid
		var reversed int64
		for _, entry := range tx.ListLedgerEntries() {
			if entry.RelatedInvoiceID == inv.ID && entry.Type == domain.LedgerPayment {
				reversed += entry.Amount
				if err := tx.DeleteLedgerEntry(entry.ID); err != nil {
					return err
				}
			}
		}
		if _, err := tx.UpdateInvoice(inv.ID, func(i *Invoice) error {
			i.Status = domain.InvoiceUnpaid
			i.PaymentDate = ""
			return nil
		}); err != nil {
			return err
		}
		_, err := tx.UpdateStudent(inv.StudentID, func(s *Student) error {
			s.Balance -= reversed
			return nil
		})
		return err
	}
}
