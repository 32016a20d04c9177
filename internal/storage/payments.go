package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
)

const paymentColumns = "id, account_id, name, amount_cents, type, due_date, status, reminder, comment, created_at, updated_at"

func scanPayment(row rowScanner) (core.Payment, error) {
	var p core.Payment
	var cents int64
	if err := row.Scan(&p.ID, &p.AccountID, &p.Name, &cents, &p.Type, &p.DueDate, &p.Status, &p.Reminder, &p.Comment, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return core.Payment{}, err
	}
	p.Amount = fromCents(cents)
	return p, nil
}

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	p.ID = newID()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	p.Amount = fromCents(toCents(p.Amount))

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AccountID, p.Name, toCents(p.Amount), p.Type, p.DueDate, p.Status, p.Reminder, p.Comment, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id string) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment %s: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPaymentsByAccount(ctx context.Context, accountID string) ([]core.Payment, error) {
	return r.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE account_id = ? ORDER BY due_date DESC, rowid DESC`,
		accountID)
}

// ListOverduePending returns pending payments whose due date is strictly
// before the given instant.
func (r *SQLiteRepository) ListOverduePending(ctx context.Context, before time.Time) ([]core.Payment, error) {
	return r.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE status = ? AND due_date < ? ORDER BY due_date ASC, rowid ASC`,
		core.StatusPending, before)
}

func (r *SQLiteRepository) UpdatePaymentStatus(ctx context.Context, id string, status core.PaymentStatus) (core.Payment, error) {
	updated, err := execAffectingOne(ctx, r.db,
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`,
		status, now(), id)
	if err != nil {
		return core.Payment{}, fmt.Errorf("update status of payment %s: %w", id, err)
	}
	if !updated {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	return r.GetPayment(ctx, id)
}

// TogglePaymentReminder flips the reminder flag in place.
func (r *SQLiteRepository) TogglePaymentReminder(ctx context.Context, id string) (core.Payment, error) {
	updated, err := execAffectingOne(ctx, r.db,
		`UPDATE payments SET reminder = 1 - reminder, updated_at = ? WHERE id = ?`,
		now(), id)
	if err != nil {
		return core.Payment{}, fmt.Errorf("toggle reminder of payment %s: %w", id, err)
	}
	if !updated {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	return r.GetPayment(ctx, id)
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, id string) error {
	deleted, err := execAffectingOne(ctx, r.db, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment %s: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CountPayments(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) queryPayments(ctx context.Context, query string, args ...any) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
