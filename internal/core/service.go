package core

import (
	"context"
	"time"

	"tutorcore/pkg/domain"
)

// Service is the operation applicator: it dispatches typed operations into a
// single transaction against the backing store. Each Apply call is
// all-or-nothing; a handler error or blocking rule violation leaves the
// committed state untouched.
type Service struct {
	store   PersistentStore
	metrics MetricsRecorder
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetricsRecorder attaches a metrics recorder observed by Apply.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Apply executes one operation transactionally and returns the rule
// evaluation result. The new snapshot is observable via State afterwards.
func (s *Service) Apply(ctx context.Context, op Operation) (Result, error) {
	started := time.Now()
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return s.dispatch(tx, op)
	})
	if s.metrics != nil {
		s.metrics.Observe(ctx, op.Kind(), err == nil, time.Since(started))
	}
	return res, err
}

// ApplyEnvelope decodes a wire envelope and applies the resulting operation.
func (s *Service) ApplyEnvelope(ctx context.Context, env domain.Envelope) (Result, error) {
	op, err := domain.DecodeOperation(env)
	if err != nil {
		return Result{}, err
	}
	return s.Apply(ctx, op)
}

// State returns a deep copy of the committed snapshot.
func (s *Service) State() Snapshot { return s.store.ExportState() }

func (s *Service) dispatch(tx Transaction, op Operation) error {
	switch p := op.(type) {
	case domain.AddStudent:
		return applyAddStudent(tx, p)
	case domain.UpdateStudent:
		return applyUpdateStudent(tx, p)
	case domain.DeleteStudent:
		return applyDeleteStudent(tx, p)
	case domain.AddTeacher:
		return applyAddTeacher(tx, p)
	case domain.UpdateTeacher:
		return applyUpdateTeacher(tx, p)
	case domain.DeleteTeacher:
		return applyDeleteTeacher(tx, p)
	case domain.AddStaff:
		return applyAddStaff(tx, p)
	case domain.UpdateStaff:
		return applyUpdateStaff(tx, p)
	case domain.DeleteStaff:
		return applyDeleteStaff(tx, p)
	case domain.AddClass:
		return applyAddClass(tx, p)
	case domain.UpdateClass:
		return applyUpdateClass(tx, p)
	case domain.DeleteClass:
		return applyDeleteClass(tx, p)
	case domain.UpdateAttendance:
		return applyUpdateAttendance(tx, p)
	case domain.AddProgressReport:
		return applyAddProgressReport(tx, p)
	case domain.UpdateProgressReport:
		return applyUpdateProgressReport(tx, p)
	case domain.DeleteProgressReport:
		return applyDeleteProgressReport(tx, p)
	case domain.GenerateInvoices:
		return applyGenerateInvoices(tx, p)
	case domain.CancelInvoice:
		return applyCancelInvoice(tx, p)
	case domain.SetInvoiceStatus:
		return applySetInvoiceStatus(tx, p)
	case domain.AddAdjustment:
		return applyAddAdjustment(tx, p)
	case domain.UpdateTransaction:
		return applyUpdateTransaction(tx, p)
	case domain.DeleteTransaction:
		return applyDeleteTransaction(tx, p)
	case domain.ClearAllTransactions:
		return applyClearAllTransactions(tx)
	case domain.GeneratePayroll:
		return applyGeneratePayroll(tx, p)
	case domain.DeletePayroll:
		return applyDeletePayroll(tx, p)
	case domain.AddIncome:
		return applyAddIncome(tx, p)
	case domain.DeleteIncome:
		return applyDeleteIncome(tx, p)
	case domain.AddExpense:
		return applyAddExpense(tx, p)
	case domain.DeleteExpense:
		return applyDeleteExpense(tx, p)
	case domain.AddAnnouncement:
		return applyAddAnnouncement(tx, p)
	case domain.DeleteAnnouncement:
		return applyDeleteAnnouncement(tx, p)
	case domain.UpdateSettings:
		return applyUpdateSettings(tx, p)
	case domain.UpdatePassword:
		return applyUpdatePassword(tx, p)
	case domain.ClearCollections:
		return applyClearCollections(tx, p)
	default:
		return domain.UnknownOperationError{Kind: op.Kind()}
	}
}
