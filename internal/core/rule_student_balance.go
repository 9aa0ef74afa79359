package core

import (
	"context"
	"fmt"

	"tutorcore/pkg/domain"
)

// StudentBalanceRule blocks any transaction that leaves a student balance out
// of sync with the sum of that student's ledger entries. Operations maintain
// balances incrementally; this rule is the structural guarantee that none of
// them drifts.
func StudentBalanceRule() domain.Rule {
	return studentBalanceRule{}
}

type studentBalanceRule struct{}

func (studentBalanceRule) Name() string { return "student-balance" }

func (studentBalanceRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	sums := make(map[string]int64)
	for _, entry := range view.ListLedgerEntries() {
		sums[entry.StudentID] += entry.Amount
	}
	var result Result
	for _, student := range view.ListStudents() {
		if student.Balance == sums[student.ID] {
			continue
		}
		result.Violations = append(result.Violations, Violation{
			Rule:     "student-balance",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("balance %d does not match ledger sum %d", student.Balance, sums[student.ID]),
			Entity:   domain.EntityStudent,
			EntityID: student.ID,
		})
	}
	return result, nil
}
