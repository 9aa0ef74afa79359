package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tutorcore/internal/infra/persistence/memory"
	"tutorcore/pkg/domain"
)

var testNow = time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)

const testToday = "2024-03-15"

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine())
	store.SetNowFunc(func() time.Time { return testNow })
	store.SetIDGenerator(&domain.SequenceIDGenerator{})
	return NewService(store, opts...)
}

func mustApply(t *testing.T, svc *Service, op Operation) {
	t.Helper()
	if _, err := svc.Apply(context.Background(), op); err != nil {
		t.Fatalf("apply %s: %v", op.Kind(), err)
	}
}

// seedCenter builds the standing fixture: a monthly and a per-session class,
// one teacher on both, and two students (std-1 in both classes, std-2 in the
// monthly one).
func seedCenter(t *testing.T, svc *Service) {
	t.Helper()
	mustApply(t, svc, domain.AddClass{Class: Class{
		Base: domain.Base{ID: "cls-m"},
		Name: "Mathematics",
		Fee:  domain.Fee{Type: domain.FeeMonthly, Amount: 30000},
	}})
	mustApply(t, svc, domain.AddClass{Class: Class{
		Base: domain.Base{ID: "cls-s"},
		Name: "Science",
		Fee:  domain.Fee{Type: domain.FeePerSession, Amount: 5000},
	}})
	mustApply(t, svc, domain.AddTeacher{
		Teacher: Teacher{
			Base:   domain.Base{ID: "tch-1"},
			Name:   "Farah",
			Salary: domain.Salary{Type: domain.SalaryMonthly, Rate: 250000},
		},
		ClassIDs: []string{"cls-m", "cls-s"},
	})
	mustApply(t, svc, domain.AddStudent{
		Student:  Student{Base: domain.Base{ID: "std-1"}, Name: "Aminah"},
		ClassIDs: []string{"cls-m", "cls-s"},
	})
	mustApply(t, svc, domain.AddStudent{
		Student:  Student{Base: domain.Base{ID: "std-2"}, Name: "Daniel"},
		ClassIDs: []string{"cls-m"},
	})
}

func ledgerSum(state Snapshot, studentID string) int64 {
	var sum int64
	for _, entry := range state.Ledger {
		if entry.StudentID == studentID {
			sum += entry.Amount
		}
	}
	return sum
}

// assertBalancesConsistent re-checks the balance invariant from the committed
// snapshot, independent of the rule that enforces it at commit time.
func assertBalancesConsistent(t *testing.T, state Snapshot) {
	t.Helper()
	for id, student := range state.Students {
		if sum := ledgerSum(state, id); student.Balance != sum {
			t.Fatalf("student %s balance %d != ledger sum %d", id, student.Balance, sum)
		}
	}
}

func singleInvoice(t *testing.T, state Snapshot, studentID, month string) Invoice {
	t.Helper()
	var found []Invoice
	for _, inv := range state.Invoices {
		if inv.StudentID == studentID && inv.Month == month {
			found = append(found, inv)
		}
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one invoice for %s %s, got %d", studentID, month, len(found))
	}
	return found[0]
}

func TestApplyEnvelopeDispatches(t *testing.T) {
	svc := newTestService(t)
	payload, err := json.Marshal(domain.AddClass{Class: Class{Base: domain.Base{ID: "cls-1"}, Name: "Math"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := svc.ApplyEnvelope(context.Background(), domain.Envelope{Op: domain.OpAddClass, Payload: payload}); err != nil {
		t.Fatalf("ApplyEnvelope: %v", err)
	}
	if svc.State().Classes["cls-1"].Name != "Math" {
		t.Fatalf("class not created via envelope")
	}
}

func TestApplyEnvelopeUnknownKind(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ApplyEnvelope(context.Background(), domain.Envelope{Op: "warpDrive"})
	var unknown domain.UnknownOperationError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownOperationError, got %v", err)
	}
}

func TestApplyRollsBackOnHandlerError(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	before := svc.State()

	// Enrolling into a missing class fails after the student is created; the
	// whole transaction must vanish.
	_, err := svc.Apply(context.Background(), domain.AddStudent{
		Student:  Student{Base: domain.Base{ID: "std-9"}, Name: "Ghost"},
		ClassIDs: []string{"cls-missing"},
	})
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	after := svc.State()
	if _, exists := after.Students["std-9"]; exists {
		t.Fatalf("student from failed operation must not exist")
	}
	if len(after.Students) != len(before.Students) {
		t.Fatalf("failed operation changed student count")
	}
}

type captureRecorder struct {
	mu       sync.Mutex
	ops      []string
	statuses []bool
}

func (r *captureRecorder) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, operation)
	r.statuses = append(r.statuses, success)
}

func TestApplyObservesMetrics(t *testing.T) {
	rec := &captureRecorder{}
	svc := newTestService(t, WithMetricsRecorder(rec))

	mustApply(t, svc, domain.AddClass{Class: Class{Base: domain.Base{ID: "cls-1"}, Name: "Math"}})
	if _, err := svc.Apply(context.Background(), domain.DeleteClass{ID: "cls-missing"}); err == nil {
		t.Fatalf("expected failure for missing class")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.ops) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(rec.ops))
	}
	if rec.ops[0] != domain.OpAddClass || !rec.statuses[0] {
		t.Fatalf("first observation wrong: %s/%v", rec.ops[0], rec.statuses[0])
	}
	if rec.ops[1] != domain.OpDeleteClass || rec.statuses[1] {
		t.Fatalf("second observation wrong: %s/%v", rec.ops[1], rec.statuses[1])
	}
}

func TestDuplicateStudentIDRejected(t *testing.T) {
	svc := newTestService(t)
	seedCenter(t, svc)
	_, err := svc.Apply(context.Background(), domain.AddStudent{
		Student: Student{Base: domain.Base{ID: "std-1"}, Name: "Clone"},
	})
	var dup domain.DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateIDError, got %v", err)
	}
	if svc.State().Students["std-1"].Name != "Aminah" {
		t.Fatalf("existing student must be untouched")
	}
}
