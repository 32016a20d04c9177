package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
)

const accountColumns = "id, owner_id, name, balance_cents, created_at, updated_at"

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var cents int64
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &cents, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return core.Account{}, err
	}
	a.Balance = fromCents(cents)
	return a, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, ownerID, name string, balance decimal.Decimal) (core.Account, error) {
	a := core.Account{
		ID:        newID(),
		OwnerID:   ownerID,
		Name:      name,
		Balance:   fromCents(toCents(balance)),
		CreatedAt: now(),
	}
	a.UpdatedAt = a.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, toCents(a.Balance), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccountsByOwner(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? ORDER BY created_at ASC, rowid ASC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount applies a partial update; nil fields are left untouched.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, id string, name *string, balance *decimal.Decimal) (core.Account, error) {
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if balance != nil {
		sets = append(sets, "balance_cents = ?")
		args = append(args, toCents(*balance))
	}
	args = append(args, id)

	updated, err := execAffectingOne(ctx, r.db,
		`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %s: %w", id, err)
	}
	if !updated {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return r.GetAccount(ctx, id)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	deleted, err := execAffectingOne(ctx, r.db, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// IncrementBalance applies delta to the cached balance in a single UPDATE,
// so concurrent movements against the same account cannot lose updates.
func (r *SQLiteRepository) IncrementBalance(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = ? WHERE id = ? RETURNING balance_cents`,
		toCents(delta), now(), id,
	).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("increment balance of account %s: %w", id, err)
	}
	return fromCents(cents), nil
}
