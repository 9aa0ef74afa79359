package core

import (
	"tutorcore/pkg/domain"
)

func applyAddAdjustment(tx Transaction, p domain.AddAdjustment) error {
	if _, ok := tx.FindStudent(p.StudentID); !ok {
		return domain.NotFoundError{Entity: domain.EntityStudent, ID: p.StudentID}
	}
	amount := p.Amount
	if amount < 0 {
		amount = -amount
	}
	entryType := domain.LedgerAdjustmentDebit
	if p.Adjustment == domain.AdjustmentCredit {
		entryType = domain.LedgerPayment
	} else {
		amount = -amount
	}
	date := p.Date
	if date == "" {
		date = tx.Now()
	}
	if _, err := tx.CreateLedgerEntry(LedgerEntry{
		StudentID:   p.StudentID,
		Date:        date,
		Amount:      amount,
		Description: p.Description,
		Type:        entryType,
	}); err != nil {
		return err
	}
	_, err := tx.UpdateStudent(p.StudentID, func(s *Student) error {
		s.Balance += amount
		return nil
	})
	return err
}

// applyUpdateTransaction edits a ledger entry and applies delta = new - old
// to the owning student balance, the general mechanism keeping any ledger
// edit balance-consistent. Adjustment entries are re-typed by the sign of the
// new amount; invoice and payment entries keep their type.
func applyUpdateTransaction(tx Transaction, p domain.UpdateTransaction) error {
	entry, ok := tx.FindLedgerEntry(p.ID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityLedgerEntry, ID: p.ID}
	}
	delta := p.Amount - entry.Amount
	if _, err := tx.UpdateLedgerEntry(p.ID, func(e *LedgerEntry) error {
		e.Amount = p.Amount
		e.Description = p.Description
		if p.Date != "" {
			e.Date = p.Date
		}
		if e.Type == domain.LedgerAdjustmentCredit || e.Type == domain.LedgerAdjustmentDebit {
			if p.Amount >= 0 {
				e.Type = domain.LedgerAdjustmentCredit
			} else {
				e.Type = domain.LedgerAdjustmentDebit
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, err := tx.UpdateStudent(entry.StudentID, func(s *Student) error {
		s.Balance += delta
		return nil
	})
	return err
}

func applyDeleteTransaction(tx Transaction, p domain.DeleteTransaction) error {
	entry, ok := tx.FindLedgerEntry(p.ID)
	if !ok {
		return nil
	}
	if err := tx.DeleteLedgerEntry(p.ID); err != nil {
		return err
	}
	_, err := tx.UpdateStudent(entry.StudentID, func(s *Student) error {
		s.Balance -= entry.Amount
		return nil
	})
	return err
}

// applyClearAllTransactions zeroes every balance and empties the ledger and
// invoice collections. No cascade beyond those two collections.
func applyClearAllTransactions(tx Transaction) error {
	for _, entry := range tx.ListLedgerEntries() {
		if err := tx.DeleteLedgerEntry(entry.ID); err != nil {
			return err
		}
	}
	for _, inv := range tx.ListInvoices() {
		if err := tx.DeleteInvoice(inv.ID); err != nil {
			return err
		}
	}
	for _, student := range tx.ListStudents() {
		if student.Balance == 0 {
			continue
		}
		if _, err := tx.UpdateStudent(student.ID, func(s *Student) error {
			s.Balance = 0
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
