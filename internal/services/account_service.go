package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/log"
)

// AccountService owns account documents and their cached balance.
type AccountService struct {
	repo AccountRepository
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// AccountUpdate is a partial update; nil fields are left untouched.
type AccountUpdate struct {
	Name    *string
	Balance *decimal.Decimal
}

func (s *AccountService) Create(ctx context.Context, ownerID, name string, initialBalance decimal.Decimal) (core.Account, error) {
	if strings.TrimSpace(ownerID) == "" {
		return core.Account{}, core.ErrEmptyOwnerID
	}
	if strings.TrimSpace(name) == "" {
		return core.Account{}, core.ErrEmptyName
	}

	account, err := s.repo.CreateAccount(ctx, ownerID, name, initialBalance)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		log.FieldComponent, log.ComponentAccount,
		log.FieldAccountID, account.ID,
		log.FieldOwnerID, account.OwnerID,
		log.FieldBalance, account.Balance.String())

	return account, nil
}

func (s *AccountService) Get(ctx context.Context, accountID string) (core.Account, error) {
	return s.repo.GetAccount(ctx, accountID)
}

// ListByOwner returns the owner's accounts in creation order.
func (s *AccountService) ListByOwner(ctx context.Context, ownerID string) ([]core.Account, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, core.ErrEmptyOwnerID
	}
	return s.repo.ListAccountsByOwner(ctx, ownerID)
}

func (s *AccountService) Update(ctx context.Context, accountID string, update AccountUpdate) (core.Account, error) {
	account, err := s.repo.UpdateAccount(ctx, accountID, update.Name, update.Balance)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}

	slog.InfoContext(ctx, "Account updated",
		log.FieldComponent, log.ComponentAccount,
		log.FieldAccountID, account.ID)

	return account, nil
}

// Delete removes the account document only. Movements, payments and
// objectives referencing it are not cascaded; cleaning those up is the
// caller's operational responsibility.
func (s *AccountService) Delete(ctx context.Context, accountID string) error {
	if err := s.repo.DeleteAccount(ctx, accountID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	slog.InfoContext(ctx, "Account deleted",
		log.FieldComponent, log.ComponentAccount,
		log.FieldAccountID, accountID)

	return nil
}
