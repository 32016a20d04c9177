// Package services provides the ledger and financial-state business logic:
// account bookkeeping, movement creation with balance maintenance, monthly
// trend aggregation, the payment lifecycle with its overdue sweep, and
// savings objective tracking.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
)

// Repository ports consumed by the services. *storage.SQLiteRepository
// satisfies all of them; tests use an in-memory fake.

type AccountRepository interface {
	CreateAccount(ctx context.Context, ownerID, name string, balance decimal.Decimal) (core.Account, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]core.Account, error)
	UpdateAccount(ctx context.Context, id string, name *string, balance *decimal.Decimal) (core.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	IncrementBalance(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error)
}

type MovementRepository interface {
	CreateMovement(ctx context.Context, m core.Movement) (core.Movement, error)
	ListMovementsByAccount(ctx context.Context, accountID string) ([]core.Movement, error)
	ListAllMovements(ctx context.Context) ([]core.Movement, error)
	ListMovementsSince(ctx context.Context, accountID string, since time.Time) ([]core.Movement, error)
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
	GetPayment(ctx context.Context, id string) (core.Payment, error)
	ListPaymentsByAccount(ctx context.Context, accountID string) ([]core.Payment, error)
	ListOverduePending(ctx context.Context, before time.Time) ([]core.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status core.PaymentStatus) (core.Payment, error)
	TogglePaymentReminder(ctx context.Context, id string) (core.Payment, error)
	DeletePayment(ctx context.Context, id string) error
	CountPayments(ctx context.Context) (int64, error)
}

type ObjectiveRepository interface {
	CreateObjective(ctx context.Context, o core.Objective) (core.Objective, error)
	ListObjectivesByAccount(ctx context.Context, accountID string) ([]core.Objective, error)
	UpdateObjectiveProgress(ctx context.Context, id string, current decimal.Decimal) (core.Objective, error)
	DeleteObjective(ctx context.Context, id string) error
}

// ReminderPublisher notifies an external consumer about payments the sweep
// just marked overdue. Implemented by the AMQP client.
type ReminderPublisher interface {
	PublishPaymentOverdue(ctx context.Context, p core.Payment) error
}

// ImageStore uploads objective images and returns a resolvable URL.
// Implemented by the GCS blob store.
type ImageStore interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}
