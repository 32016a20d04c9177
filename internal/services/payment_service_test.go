package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
)

var paymentTestNow = time.Date(2024, 4, 15, 13, 30, 0, 0, time.UTC)

func newPaymentService(store *fakeStore, publisher ReminderPublisher) *PaymentService {
	svc := NewPaymentService(store, publisher, 4)
	svc.now = func() time.Time { return paymentTestNow }
	return svc
}

func TestPaymentService_Create(t *testing.T) {
	today := core.StartOfDay(paymentTestNow)

	tests := []struct {
		name      string
		accountID string
		payName   string
		amount    string
		dueDate   time.Time
		wantErr   error
	}{
		{
			name:      "due today is accepted",
			accountID: "acc-1",
			payName:   "Rent",
			amount:    "100",
			dueDate:   today,
		},
		{
			name:      "due tomorrow is accepted",
			accountID: "acc-1",
			payName:   "Rent",
			amount:    "100",
			dueDate:   today.AddDate(0, 0, 1),
		},
		{
			name:      "due yesterday is rejected",
			accountID: "acc-1",
			payName:   "Rent",
			amount:    "100",
			dueDate:   today.AddDate(0, 0, -1),
			wantErr:   core.ErrPastDueDate,
		},
		{
			name:      "zero amount is rejected",
			accountID: "acc-1",
			payName:   "Rent",
			amount:    "0",
			dueDate:   today,
			wantErr:   core.ErrInvalidAmount,
		},
		{
			name:      "negative amount is rejected",
			accountID: "acc-1",
			payName:   "Rent",
			amount:    "-10",
			dueDate:   today,
			wantErr:   core.ErrInvalidAmount,
		},
		{
			name:    "missing account id",
			payName: "Rent",
			amount:  "100",
			dueDate: today,
			wantErr: core.ErrEmptyAccountID,
		},
		{
			name:      "missing name",
			accountID: "acc-1",
			amount:    "100",
			dueDate:   today,
			wantErr:   core.ErrEmptyName,
		},
		{
			name:      "missing due date",
			accountID: "acc-1",
			payName:   "Rent",
			amount:    "100",
			wantErr:   core.ErrMissingDueDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newPaymentService(newFakeStore(), nil)
			payment, err := svc.Create(context.Background(), tt.accountID, tt.payName,
				decimal.RequireFromString(tt.amount), "", tt.dueDate, false, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			if payment.Status != core.StatusPending {
				t.Errorf("Status = %q, want %q", payment.Status, core.StatusPending)
			}
			if payment.Type != core.DefaultCategory {
				t.Errorf("Type = %q, want default %q", payment.Type, core.DefaultCategory)
			}
		})
	}
}

func TestPaymentService_ListByAccount_DueDateOrder(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store, nil)
	ctx := context.Background()
	today := core.StartOfDay(paymentTestNow)

	early, _ := svc.Create(ctx, "acc-1", "Early", decimal.NewFromInt(10), "", today.AddDate(0, 0, 2), false, "")
	late, _ := svc.Create(ctx, "acc-1", "Late", decimal.NewFromInt(10), "", today.AddDate(0, 1, 0), false, "")

	payments, err := svc.ListByAccount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListByAccount() error: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, want 2", len(payments))
	}
	if payments[0].ID != late.ID || payments[1].ID != early.ID {
		t.Errorf("payments not ordered by due date descending: [%s %s]", payments[0].ID, payments[1].ID)
	}
}

func TestPaymentService_UpdateStatus(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store, nil)
	ctx := context.Background()

	payment, _ := svc.Create(ctx, "acc-1", "Rent", decimal.NewFromInt(100), "", core.StartOfDay(paymentTestNow), false, "")

	t.Run("invalid status rejected", func(t *testing.T) {
		if _, err := svc.UpdateStatus(ctx, payment.ID, "Cancelado"); !errors.Is(err, core.ErrInvalidStatus) {
			t.Errorf("UpdateStatus() error = %v, want ErrInvalidStatus", err)
		}
	})

	t.Run("any valid transition allowed", func(t *testing.T) {
		// No transition graph: paid can go back to pending.
		if _, err := svc.UpdateStatus(ctx, payment.ID, core.StatusPaid); err != nil {
			t.Fatalf("to Pagado: %v", err)
		}
		updated, err := svc.UpdateStatus(ctx, payment.ID, core.StatusPending)
		if err != nil {
			t.Fatalf("back to Pendiente: %v", err)
		}
		if updated.Status != core.StatusPending {
			t.Errorf("Status = %q, want %q", updated.Status, core.StatusPending)
		}
	})

	t.Run("unknown payment", func(t *testing.T) {
		if _, err := svc.UpdateStatus(ctx, "missing", core.StatusPaid); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("UpdateStatus() error = %v, want ErrNotFound", err)
		}
	})
}

func TestPaymentService_ToggleReminder(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store, nil)
	ctx := context.Background()

	payment, _ := svc.Create(ctx, "acc-1", "Rent", decimal.NewFromInt(100), "", core.StartOfDay(paymentTestNow), false, "")

	first, err := svc.ToggleReminder(ctx, payment.ID)
	if err != nil {
		t.Fatalf("ToggleReminder() error: %v", err)
	}
	if !first.Reminder {
		t.Error("first toggle should set reminder to true")
	}

	second, err := svc.ToggleReminder(ctx, payment.ID)
	if err != nil {
		t.Fatalf("second ToggleReminder() error: %v", err)
	}
	if second.Reminder {
		t.Error("second toggle should set reminder back to false")
	}
}

func TestPaymentService_Delete(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store, nil)
	ctx := context.Background()

	payment, _ := svc.Create(ctx, "acc-1", "Rent", decimal.NewFromInt(100), "", core.StartOfDay(paymentTestNow), false, "")

	if err := svc.Delete(ctx, payment.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := svc.Delete(ctx, payment.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestPaymentService_Count(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store, nil)
	ctx := context.Background()
	today := core.StartOfDay(paymentTestNow)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "acc-1", "Bill", decimal.NewFromInt(10), "", today, false, ""); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	count, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

// addPayment seeds a payment directly, bypassing the past-due-date check.
func addPayment(store *fakeStore, accountID string, status core.PaymentStatus, dueDate time.Time, reminder bool) core.Payment {
	p, _ := store.CreatePayment(context.Background(), core.Payment{
		AccountID: accountID,
		Name:      "Seeded",
		Amount:    decimal.NewFromInt(50),
		Type:      core.DefaultCategory,
		DueDate:   dueDate,
		Status:    status,
		Reminder:  reminder,
	})
	return p
}

func TestPaymentService_SweepOverdue(t *testing.T) {
	today := core.StartOfDay(paymentTestNow)

	t.Run("marks past due pending and is idempotent", func(t *testing.T) {
		store := newFakeStore()
		svc := newPaymentService(store, nil)
		ctx := context.Background()

		overdue := addPayment(store, "acc-1", core.StatusPending, today.AddDate(0, 0, -10), false)

		result, err := svc.SweepOverdue(ctx)
		if err != nil {
			t.Fatalf("SweepOverdue() error: %v", err)
		}
		if result.Marked != 1 || len(result.Failed) != 0 {
			t.Fatalf("first sweep = %+v, want 1 marked, 0 failed", result)
		}

		got, _ := store.GetPayment(ctx, overdue.ID)
		if got.Status != core.StatusOverdue {
			t.Errorf("Status = %q, want %q", got.Status, core.StatusOverdue)
		}

		again, err := svc.SweepOverdue(ctx)
		if err != nil {
			t.Fatalf("second SweepOverdue() error: %v", err)
		}
		if again.Marked != 0 {
			t.Errorf("second sweep marked %d, want 0", again.Marked)
		}
		got, _ = store.GetPayment(ctx, overdue.ID)
		if got.Status != core.StatusOverdue {
			t.Errorf("Status after second sweep = %q, want %q", got.Status, core.StatusOverdue)
		}
	})

	t.Run("ignores paid and future payments", func(t *testing.T) {
		store := newFakeStore()
		svc := newPaymentService(store, nil)
		ctx := context.Background()

		paid := addPayment(store, "acc-1", core.StatusPaid, today.AddDate(0, 0, -5), false)
		futureDue := addPayment(store, "acc-1", core.StatusPending, today.AddDate(0, 0, 5), false)
		dueToday := addPayment(store, "acc-1", core.StatusPending, today, false)

		result, err := svc.SweepOverdue(ctx)
		if err != nil {
			t.Fatalf("SweepOverdue() error: %v", err)
		}
		if result.Marked != 0 {
			t.Errorf("sweep marked %d, want 0", result.Marked)
		}

		for _, p := range []core.Payment{paid, futureDue, dueToday} {
			got, _ := store.GetPayment(ctx, p.ID)
			if got.Status != p.Status {
				t.Errorf("payment %s status changed from %q to %q", p.ID, p.Status, got.Status)
			}
		}
	})

	t.Run("reports per item failures without aborting", func(t *testing.T) {
		store := newFakeStore()
		svc := newPaymentService(store, nil)
		ctx := context.Background()

		ok := addPayment(store, "acc-1", core.StatusPending, today.AddDate(0, 0, -3), false)
		bad := addPayment(store, "acc-1", core.StatusPending, today.AddDate(0, 0, -2), false)
		store.failStatusUpdates[bad.ID] = errors.New("store unavailable")

		result, err := svc.SweepOverdue(ctx)
		if err != nil {
			t.Fatalf("SweepOverdue() error: %v", err)
		}
		if result.Marked != 1 {
			t.Errorf("Marked = %d, want 1", result.Marked)
		}
		if len(result.Failed) != 1 || result.Failed[0] != bad.ID {
			t.Errorf("Failed = %v, want [%s]", result.Failed, bad.ID)
		}

		got, _ := store.GetPayment(ctx, ok.ID)
		if got.Status != core.StatusOverdue {
			t.Errorf("healthy payment status = %q, want %q", got.Status, core.StatusOverdue)
		}
	})

	t.Run("publishes reminders for flagged payments only", func(t *testing.T) {
		store := newFakeStore()
		publisher := &fakePublisher{}
		svc := newPaymentService(store, publisher)
		ctx := context.Background()

		flagged := addPayment(store, "acc-1", core.StatusPending, today.AddDate(0, 0, -4), true)
		addPayment(store, "acc-1", core.StatusPending, today.AddDate(0, 0, -4), false)

		result, err := svc.SweepOverdue(ctx)
		if err != nil {
			t.Fatalf("SweepOverdue() error: %v", err)
		}
		if result.Marked != 2 {
			t.Fatalf("Marked = %d, want 2", result.Marked)
		}
		if len(publisher.published) != 1 || publisher.published[0].ID != flagged.ID {
			t.Errorf("published = %v, want exactly the flagged payment %s", publisher.published, flagged.ID)
		}
	})

	t.Run("publish failure does not fail the sweep", func(t *testing.T) {
		store := newFakeStore()
		publisher := &fakePublisher{err: errors.New("broker down")}
		svc := newPaymentService(store, publisher)
		ctx := context.Background()

		addPayment(store, "acc-1", core.StatusPending, today.AddDate(0, 0, -1), true)

		result, err := svc.SweepOverdue(ctx)
		if err != nil {
			t.Fatalf("SweepOverdue() error: %v", err)
		}
		if result.Marked != 1 {
			t.Errorf("Marked = %d, want 1", result.Marked)
		}
	})
}
