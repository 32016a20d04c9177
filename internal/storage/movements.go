package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
)

const movementColumns = "id, account_id, type, amount_cents, fixed, category, comment, created_at, updated_at"

func scanMovement(row rowScanner) (core.Movement, error) {
	var m core.Movement
	var cents int64
	if err := row.Scan(&m.ID, &m.AccountID, &m.Type, &cents, &m.Fixed, &m.Category, &m.Comment, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return core.Movement{}, err
	}
	m.Amount = fromCents(cents)
	return m, nil
}

// CreateMovement persists m, assigning its ID and timestamps. The caller is
// responsible for having normalized the amount's sign beforehand.
func (r *SQLiteRepository) CreateMovement(ctx context.Context, m core.Movement) (core.Movement, error) {
	m.ID = newID()
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt
	m.Amount = fromCents(toCents(m.Amount))

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.AccountID, m.Type, toCents(m.Amount), m.Fixed, m.Category, m.Comment, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return core.Movement{}, fmt.Errorf("insert movement: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMovementsByAccount(ctx context.Context, accountID string) ([]core.Movement, error) {
	return r.queryMovements(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE account_id = ? ORDER BY created_at DESC, rowid DESC`,
		accountID)
}

func (r *SQLiteRepository) ListAllMovements(ctx context.Context) ([]core.Movement, error) {
	return r.queryMovements(ctx,
		`SELECT `+movementColumns+` FROM movements ORDER BY created_at DESC, rowid DESC`)
}

// ListMovementsSince returns an account's movements with created_at >= since,
// oldest first. Used by the monthly trend window.
func (r *SQLiteRepository) ListMovementsSince(ctx context.Context, accountID string, since time.Time) ([]core.Movement, error) {
	return r.queryMovements(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE account_id = ? AND created_at >= ? ORDER BY created_at ASC, rowid ASC`,
		accountID, since)
}

func (r *SQLiteRepository) queryMovements(ctx context.Context, query string, args ...any) ([]core.Movement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
