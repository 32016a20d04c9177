package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/log"
)

const defaultSweepConcurrency = 8

// PaymentService owns the payment lifecycle: creation, status updates,
// reminder flag, and the batch sweep that marks past-due pending payments
// as overdue.
type PaymentService struct {
	repo             PaymentRepository
	publisher        ReminderPublisher
	sweepConcurrency int
	now              func() time.Time
}

// NewPaymentService builds the service. publisher may be nil, in which case
// reminder events are skipped. sweepConcurrency caps the parallel writes of
// the overdue sweep; values below 1 fall back to the default.
func NewPaymentService(repo PaymentRepository, publisher ReminderPublisher, sweepConcurrency int) *PaymentService {
	if sweepConcurrency < 1 {
		sweepConcurrency = defaultSweepConcurrency
	}
	return &PaymentService{
		repo:             repo,
		publisher:        publisher,
		sweepConcurrency: sweepConcurrency,
		now:              time.Now,
	}
}

// SweepResult reports the per-item outcome of an overdue sweep. A failing
// write does not abort the batch; its payment ID lands in Failed instead.
type SweepResult struct {
	Marked  int
	Failed  []string
	Message string
}

func (s *PaymentService) Create(ctx context.Context, accountID, name string, amount decimal.Decimal, typ string, dueDate time.Time, reminder bool, comment string) (core.Payment, error) {
	if strings.TrimSpace(accountID) == "" {
		return core.Payment{}, core.ErrEmptyAccountID
	}
	if strings.TrimSpace(name) == "" {
		return core.Payment{}, core.ErrEmptyName
	}
	if !amount.IsPositive() {
		return core.Payment{}, core.ErrInvalidAmount
	}
	if dueDate.IsZero() {
		return core.Payment{}, core.ErrMissingDueDate
	}
	if dueDate.Before(core.StartOfDay(s.now())) {
		return core.Payment{}, core.ErrPastDueDate
	}
	if typ == "" {
		typ = core.DefaultCategory
	}

	payment, err := s.repo.CreatePayment(ctx, core.Payment{
		AccountID: accountID,
		Name:      name,
		Amount:    amount,
		Type:      typ,
		DueDate:   dueDate,
		Status:    core.StatusPending,
		Reminder:  reminder,
		Comment:   comment,
	})
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment created",
		log.FieldComponent, log.ComponentPayment,
		log.FieldPayment, payment.ID,
		log.FieldAccountID, accountID,
		log.FieldAmount, payment.Amount.String(),
		log.FieldDueDate, payment.DueDate.Format("2006-01-02"))

	return payment, nil
}

// ListByAccount returns an account's payments ordered by due date, latest
// deadline first.
func (s *PaymentService) ListByAccount(ctx context.Context, accountID string) ([]core.Payment, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, core.ErrEmptyAccountID
	}
	return s.repo.ListPaymentsByAccount(ctx, accountID)
}

// UpdateStatus sets the payment's status to any of the three lifecycle
// values. No transition graph is enforced; only the sweep restricts itself
// to the pending-to-overdue edge.
func (s *PaymentService) UpdateStatus(ctx context.Context, paymentID string, status core.PaymentStatus) (core.Payment, error) {
	if !status.Valid() {
		return core.Payment{}, core.ErrInvalidStatus
	}

	payment, err := s.repo.UpdatePaymentStatus(ctx, paymentID, status)
	if err != nil {
		return core.Payment{}, fmt.Errorf("update payment status: %w", err)
	}

	slog.InfoContext(ctx, "Payment status updated",
		log.FieldComponent, log.ComponentPayment,
		log.FieldPayment, payment.ID,
		log.FieldStatus, string(payment.Status))

	return payment, nil
}

// ToggleReminder flips the reminder flag unconditionally.
func (s *PaymentService) ToggleReminder(ctx context.Context, paymentID string) (core.Payment, error) {
	payment, err := s.repo.TogglePaymentReminder(ctx, paymentID)
	if err != nil {
		return core.Payment{}, fmt.Errorf("toggle payment reminder: %w", err)
	}
	return payment, nil
}

func (s *PaymentService) Delete(ctx context.Context, paymentID string) error {
	if err := s.repo.DeletePayment(ctx, paymentID); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment deleted",
		log.FieldComponent, log.ComponentPayment,
		log.FieldPayment, paymentID)

	return nil
}

// Count returns the total number of payments across all accounts.
func (s *PaymentService) Count(ctx context.Context) (int64, error) {
	return s.repo.CountPayments(ctx)
}

// SweepOverdue marks every pending payment whose due date is strictly
// before today as overdue. Each payment is written independently with
// bounded parallelism; failures are collected per item instead of aborting
// the batch. Already overdue or paid payments are never selected, so
// re-running the sweep is idempotent.
func (s *PaymentService) SweepOverdue(ctx context.Context) (SweepResult, error) {
	today := core.StartOfDay(s.now())

	candidates, err := s.repo.ListOverduePending(ctx, today)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list overdue pending payments: %w", err)
	}
	if len(candidates) == 0 {
		return SweepResult{Message: "no overdue payments to update"}, nil
	}

	var (
		mu     sync.Mutex
		marked []core.Payment
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepConcurrency)
	for _, candidate := range candidates {
		g.Go(func() error {
			payment, err := s.repo.UpdatePaymentStatus(gctx, candidate.ID, core.StatusOverdue)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.ErrorContext(gctx, "Failed to mark payment overdue",
					log.FieldComponent, log.ComponentPayment,
					log.FieldOperation, log.OpSweep,
					log.FieldPayment, candidate.ID,
					log.FieldError, err)
				failed = append(failed, candidate.ID)
				return nil
			}
			marked = append(marked, payment)
			return nil
		})
	}
	// Tasks never return errors; Wait only synchronizes.
	_ = g.Wait()

	for _, payment := range marked {
		if !payment.Reminder {
			continue
		}
		s.publishReminder(ctx, payment)
	}

	result := SweepResult{
		Marked:  len(marked),
		Failed:  failed,
		Message: fmt.Sprintf("marked %d payments as overdue", len(marked)),
	}
	if len(failed) > 0 {
		result.Message = fmt.Sprintf("marked %d payments as overdue, %d failed", len(marked), len(failed))
	}

	slog.InfoContext(ctx, "Overdue sweep finished",
		log.FieldComponent, log.ComponentPayment,
		log.FieldOperation, log.OpSweep,
		log.FieldCount, result.Marked,
		"failed", len(failed))

	return result, nil
}

func (s *PaymentService) publishReminder(ctx context.Context, payment core.Payment) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Reminder publisher not available, skipping overdue event",
			log.FieldComponent, log.ComponentPayment,
			log.FieldPayment, payment.ID)
		return
	}
	if err := s.publisher.PublishPaymentOverdue(ctx, payment); err != nil {
		// The sweep already succeeded; a lost event must not fail it.
		slog.ErrorContext(ctx, "Failed to publish overdue reminder",
			log.FieldComponent, log.ComponentPayment,
			log.FieldPayment, payment.ID,
			log.FieldError, err)
	}
}
