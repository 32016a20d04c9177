package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/log"
)

// defaultTrendWindow is the number of trailing months aggregated when the
// caller does not ask for a specific window.
const defaultTrendWindow = 3

// monthLabels are the short month names used as trend bucket keys.
var monthLabels = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// MovementService is the ledger: it creates movements, keeps the account's
// cached balance in step with them, and aggregates movement history into
// monthly trend and per-category breakdowns.
type MovementService struct {
	accounts  AccountRepository
	movements MovementRepository
	now       func() time.Time
}

func NewMovementService(accounts AccountRepository, movements MovementRepository) *MovementService {
	return &MovementService{
		accounts:  accounts,
		movements: movements,
		now:       time.Now,
	}
}

type (
	// TrendReport combines the monthly trend series with the per-category
	// breakdown over the same window.
	TrendReport struct {
		Trend      TrendSeries
		Categories CategoryBreakdown
	}

	// TrendSeries holds one bucket per window month: Labels in
	// chronological order with parallel income and expense totals.
	TrendSeries struct {
		Labels        []string
		IncomeSeries  []decimal.Decimal
		ExpenseSeries []decimal.Decimal
	}

	CategoryBreakdown struct {
		Income  []CategoryTotal
		Expense []CategoryTotal
	}

	CategoryTotal struct {
		Name  string
		Total decimal.Decimal
	}
)

// Create validates and persists a movement, then applies its signed amount
// to the referenced account's balance. The amount's sign is normalized by
// the movement type: expenses are stored negative, incomes positive,
// whichever sign the caller used.
func (s *MovementService) Create(ctx context.Context, accountID string, typ core.MovementType, amount decimal.Decimal, fixed bool, category, comment string) (core.Movement, error) {
	if strings.TrimSpace(accountID) == "" {
		return core.Movement{}, core.ErrEmptyAccountID
	}
	if !typ.Valid() {
		return core.Movement{}, core.ErrInvalidType
	}
	if category == "" {
		category = core.DefaultCategory
	}

	signed := core.NormalizeAmount(typ, amount)

	movement, err := s.movements.CreateMovement(ctx, core.Movement{
		AccountID: accountID,
		Type:      typ,
		Amount:    signed,
		Fixed:     fixed,
		Category:  category,
		Comment:   comment,
	})
	if err != nil {
		return core.Movement{}, fmt.Errorf("create movement: %w", err)
	}

	balance, err := s.accounts.IncrementBalance(ctx, accountID, movement.Amount)
	if err != nil {
		// The movement is already persisted; the balance delta was not
		// applied. Surface the error with enough context to reconcile.
		slog.ErrorContext(ctx, "Movement persisted but balance update failed",
			log.FieldComponent, log.ComponentLedger,
			log.FieldMovement, movement.ID,
			log.FieldAccountID, accountID,
			log.FieldError, err)
		return core.Movement{}, fmt.Errorf("apply balance delta for movement %s: %w", movement.ID, err)
	}

	slog.InfoContext(ctx, "Movement created",
		log.FieldComponent, log.ComponentLedger,
		log.FieldMovement, movement.ID,
		log.FieldAccountID, accountID,
		log.FieldAmount, movement.Amount.String(),
		log.FieldCategory, movement.Category,
		log.FieldBalance, balance.String())

	return movement, nil
}

// ListByAccount returns an account's movements, newest first.
func (s *MovementService) ListByAccount(ctx context.Context, accountID string) ([]core.Movement, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, core.ErrEmptyAccountID
	}
	return s.movements.ListMovementsByAccount(ctx, accountID)
}

// ListAll returns every movement across all accounts. No ownership filter
// is applied here; authorization is the calling layer's responsibility.
func (s *MovementService) ListAll(ctx context.Context) ([]core.Movement, error) {
	return s.movements.ListAllMovements(ctx)
}

// UpdateAccountBalance applies delta to the account's cached balance and
// returns the new value. Same primitive Create uses internally.
func (s *MovementService) UpdateAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	balance, err := s.accounts.IncrementBalance(ctx, accountID, delta)
	if err != nil {
		return decimal.Zero, fmt.Errorf("update account balance: %w", err)
	}
	return balance, nil
}

// MonthlyTrend aggregates an account's movements over a trailing window of
// windowMonths calendar months ending at the current month. Every month in
// the window gets a bucket, even when empty. A windowMonths of zero or
// less falls back to the default window; values above 12 are capped.
func (s *MovementService) MonthlyTrend(ctx context.Context, accountID string, windowMonths int) (TrendReport, error) {
	if strings.TrimSpace(accountID) == "" {
		return TrendReport{}, core.ErrEmptyAccountID
	}
	if windowMonths <= 0 {
		windowMonths = defaultTrendWindow
	}
	// Buckets are keyed by month name, so the window cannot exceed a year.
	if windowMonths > 12 {
		windowMonths = 12
	}

	ref := s.now()
	windowStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).
		AddDate(0, -(windowMonths - 1), 0)

	movements, err := s.movements.ListMovementsSince(ctx, accountID, windowStart)
	if err != nil {
		return TrendReport{}, fmt.Errorf("query trend window: %w", err)
	}

	type bucket struct {
		income  decimal.Decimal
		expense decimal.Decimal
	}

	labels := make([]string, 0, windowMonths)
	buckets := make(map[string]*bucket, windowMonths)
	for i := 0; i < windowMonths; i++ {
		label := monthLabels[windowStart.AddDate(0, i, 0).Month()-1]
		labels = append(labels, label)
		buckets[label] = &bucket{}
	}

	categories := map[core.MovementType]map[string]decimal.Decimal{
		core.Income:  {},
		core.Expense: {},
	}

	for _, m := range movements {
		abs := m.Amount.Abs()

		// Movements whose month is not in the label set are dropped.
		if b, ok := buckets[monthLabels[m.CreatedAt.Month()-1]]; ok {
			if m.Type == core.Income {
				b.income = b.income.Add(abs)
			} else {
				b.expense = b.expense.Add(abs)
			}
		}

		byCat, ok := categories[m.Type]
		if !ok {
			continue
		}
		name := m.Category
		if name == "" {
			name = core.DefaultCategory
		}
		byCat[name] = byCat[name].Add(abs)
	}

	report := TrendReport{
		Trend: TrendSeries{
			Labels:        labels,
			IncomeSeries:  make([]decimal.Decimal, 0, windowMonths),
			ExpenseSeries: make([]decimal.Decimal, 0, windowMonths),
		},
		Categories: CategoryBreakdown{
			Income:  formatCategories(categories[core.Income]),
			Expense: formatCategories(categories[core.Expense]),
		},
	}
	for _, label := range labels {
		report.Trend.IncomeSeries = append(report.Trend.IncomeSeries, buckets[label].income)
		report.Trend.ExpenseSeries = append(report.Trend.ExpenseSeries, buckets[label].expense)
	}

	return report, nil
}

// formatCategories turns a per-category total map into a list sorted by
// descending total, with name as a deterministic tie-breaker.
func formatCategories(totals map[string]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for name, total := range totals {
		out = append(out, CategoryTotal{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
