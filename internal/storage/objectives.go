package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
)

const objectiveColumns = "id, account_id, description, savings_percent, target_cents, current_cents, start_date, end_date, image_url, created_at, updated_at"

func scanObjective(row rowScanner) (core.Objective, error) {
	var o core.Objective
	var percent string
	var targetCents, currentCents int64
	var endDate sql.NullTime
	if err := row.Scan(&o.ID, &o.AccountID, &o.Description, &percent, &targetCents, &currentCents, &o.StartDate, &endDate, &o.ImageURL, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return core.Objective{}, err
	}
	p, err := decimal.NewFromString(percent)
	if err != nil {
		return core.Objective{}, fmt.Errorf("parse savings percent %q: %w", percent, err)
	}
	o.SavingsPercent = p
	o.TargetAmount = fromCents(targetCents)
	o.CurrentAmount = fromCents(currentCents)
	if endDate.Valid {
		t := endDate.Time
		o.EndDate = &t
	}
	return o, nil
}

func (r *SQLiteRepository) CreateObjective(ctx context.Context, o core.Objective) (core.Objective, error) {
	o.ID = newID()
	o.CreatedAt = now()
	o.UpdatedAt = o.CreatedAt
	o.TargetAmount = fromCents(toCents(o.TargetAmount))
	o.CurrentAmount = fromCents(toCents(o.CurrentAmount))

	var endDate any
	if o.EndDate != nil {
		endDate = *o.EndDate
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO objectives (`+objectiveColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.AccountID, o.Description, o.SavingsPercent.String(), toCents(o.TargetAmount), toCents(o.CurrentAmount),
		o.StartDate, endDate, o.ImageURL, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return core.Objective{}, fmt.Errorf("insert objective: %w", err)
	}
	return o, nil
}

func (r *SQLiteRepository) ListObjectivesByAccount(ctx context.Context, accountID string) ([]core.Objective, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+objectiveColumns+` FROM objectives WHERE account_id = ? ORDER BY created_at DESC, rowid DESC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list objectives for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var objectives []core.Objective
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, fmt.Errorf("scan objective: %w", err)
		}
		objectives = append(objectives, o)
	}
	return objectives, rows.Err()
}

func (r *SQLiteRepository) DeleteObjective(ctx context.Context, id string) error {
	deleted, err := execAffectingOne(ctx, r.db, `DELETE FROM objectives WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete objective %s: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("objective %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// UpdateObjectiveProgress overwrites the current amount; it never adds to it.
func (r *SQLiteRepository) UpdateObjectiveProgress(ctx context.Context, id string, current decimal.Decimal) (core.Objective, error) {
	updated, err := execAffectingOne(ctx, r.db,
		`UPDATE objectives SET current_cents = ?, updated_at = ? WHERE id = ?`,
		toCents(current), now(), id)
	if err != nil {
		return core.Objective{}, fmt.Errorf("update progress of objective %s: %w", id, err)
	}
	if !updated {
		return core.Objective{}, fmt.Errorf("objective %s: %w", id, core.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+objectiveColumns+` FROM objectives WHERE id = ?`, id)
	o, err := scanObjective(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Objective{}, fmt.Errorf("objective %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Objective{}, fmt.Errorf("get objective %s: %w", id, err)
	}
	return o, nil
}
