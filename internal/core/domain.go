package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  MovementType = "income"
	Expense MovementType = "expense"
)

const (
	StatusPending PaymentStatus = "Pendiente"
	StatusPaid    PaymentStatus = "Pagado"
	StatusOverdue PaymentStatus = "Vencido"
)

// DefaultCategory is applied when a movement or payment carries no category.
const DefaultCategory = "Otros"

type (
	MovementType  string
	PaymentStatus string

	// Account is a named balance bucket owned by a user. Balance is a
	// denormalized cache of the sum of signed movement amounts.
	Account struct {
		ID        string
		OwnerID   string
		Name      string
		Balance   decimal.Decimal
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Movement is a single signed transaction against an account. The sign
	// of Amount is forced by Type: expenses are stored negative, incomes
	// positive. Movements are immutable once created.
	Movement struct {
		ID        string
		AccountID string
		Type      MovementType
		Amount    decimal.Decimal
		Fixed     bool
		Category  string
		Comment   string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Payment is a scheduled obligation with a due date and a lifecycle
	// status. It is created pending; the overdue sweep moves past-due
	// pending payments to StatusOverdue.
	Payment struct {
		ID        string
		AccountID string
		Name      string
		Amount    decimal.Decimal
		Type      string
		DueDate   time.Time
		Status    PaymentStatus
		Reminder  bool
		Comment   string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Objective is a savings goal tracked against a target amount.
	// CurrentAmount is overwritten by progress updates, never incremented.
	Objective struct {
		ID             string
		AccountID      string
		Description    string
		SavingsPercent decimal.Decimal
		TargetAmount   decimal.Decimal
		CurrentAmount  decimal.Decimal
		StartDate      time.Time
		EndDate        *time.Time
		ImageURL       string
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidType      = errors.New("movement type must be 'income' or 'expense'")
	ErrInvalidStatus    = errors.New("status must be 'Pendiente', 'Pagado' or 'Vencido'")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrPastDueDate      = errors.New("due date is before today")
	ErrEmptyOwnerID     = errors.New("empty owner id")
	ErrEmptyAccountID   = errors.New("empty account id")
	ErrEmptyName        = errors.New("empty name")
	ErrMissingDueDate   = errors.New("missing due date")
	ErrMissingStartDate = errors.New("missing start date")
)

func (t MovementType) Valid() bool {
	return t == Income || t == Expense
}

func (s PaymentStatus) Valid() bool {
	return s == StatusPending || s == StatusPaid || s == StatusOverdue
}

// NormalizeAmount forces the sign of amount to match the movement type:
// expenses become negative, incomes positive. A sign already consistent
// with the type is left untouched.
func NormalizeAmount(t MovementType, amount decimal.Decimal) decimal.Decimal {
	switch {
	case t == Expense && amount.IsPositive():
		return amount.Neg()
	case t == Income && amount.IsNegative():
		return amount.Neg()
	}
	return amount
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
