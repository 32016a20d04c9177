package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
)

// fakeStore is an in-memory implementation of the repository ports, with
// the same ordering and not-found semantics as the SQLite repository.
type fakeStore struct {
	mu         sync.Mutex
	accounts   map[string]core.Account
	accountIDs []string
	movements  []core.Movement
	payments   map[string]core.Payment
	paymentIDs []string
	objectives map[string]core.Objective
	objIDs     []string
	seq        int
	base       time.Time

	// failStatusUpdates makes UpdatePaymentStatus fail for the given IDs.
	failStatusUpdates map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:          make(map[string]core.Account),
		payments:          make(map[string]core.Payment),
		objectives:        make(map[string]core.Objective),
		base:              time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failStatusUpdates: make(map[string]error),
	}
}

func (f *fakeStore) nextID(prefix string) (string, time.Time) {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq), f.base.Add(time.Duration(f.seq) * time.Second)
}

// --- AccountRepository ---

func (f *fakeStore) CreateAccount(_ context.Context, ownerID, name string, balance decimal.Decimal) (core.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, at := f.nextID("acc")
	a := core.Account{ID: id, OwnerID: ownerID, Name: name, Balance: balance, CreatedAt: at, UpdatedAt: at}
	f.accounts[id] = a
	f.accountIDs = append(f.accountIDs, id)
	return a, nil
}

func (f *fakeStore) GetAccount(_ context.Context, id string) (core.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return a, nil
}

func (f *fakeStore) ListAccountsByOwner(_ context.Context, ownerID string) ([]core.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Account
	for _, id := range f.accountIDs {
		if a, ok := f.accounts[id]; ok && a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateAccount(_ context.Context, id string, name *string, balance *decimal.Decimal) (core.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if name != nil {
		a.Name = *name
	}
	if balance != nil {
		a.Balance = *balance
	}
	f.accounts[id] = a
	return a, nil
}

func (f *fakeStore) DeleteAccount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeStore) IncrementBalance(_ context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	a.Balance = a.Balance.Add(delta)
	f.accounts[id] = a
	return a.Balance, nil
}

// --- MovementRepository ---

func (f *fakeStore) CreateMovement(_ context.Context, m core.Movement) (core.Movement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID, m.CreatedAt = f.nextID("mov")
	m.UpdatedAt = m.CreatedAt
	f.movements = append(f.movements, m)
	return m, nil
}

// addMovement inserts a movement with a caller-chosen creation time,
// bypassing the repository interface. Used by trend tests.
func (f *fakeStore) addMovement(m core.Movement) core.Movement {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := f.nextID("mov")
	m.ID = id
	m.UpdatedAt = m.CreatedAt
	f.movements = append(f.movements, m)
	return m
}

func (f *fakeStore) ListMovementsByAccount(_ context.Context, accountID string) ([]core.Movement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Movement
	for i := len(f.movements) - 1; i >= 0; i-- {
		if f.movements[i].AccountID == accountID {
			out = append(out, f.movements[i])
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllMovements(_ context.Context) ([]core.Movement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Movement, 0, len(f.movements))
	for i := len(f.movements) - 1; i >= 0; i-- {
		out = append(out, f.movements[i])
	}
	return out, nil
}

func (f *fakeStore) ListMovementsSince(_ context.Context, accountID string, since time.Time) ([]core.Movement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Movement
	for _, m := range f.movements {
		if m.AccountID == accountID && !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- PaymentRepository ---

func (f *fakeStore) CreatePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID, p.CreatedAt = f.nextID("pay")
	p.UpdatedAt = p.CreatedAt
	f.payments[p.ID] = p
	f.paymentIDs = append(f.paymentIDs, p.ID)
	return p, nil
}

func (f *fakeStore) GetPayment(_ context.Context, id string) (core.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) ListPaymentsByAccount(_ context.Context, accountID string) ([]core.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Payment
	for _, id := range f.paymentIDs {
		if p, ok := f.payments[id]; ok && p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.After(out[j].DueDate) })
	return out, nil
}

func (f *fakeStore) ListOverduePending(_ context.Context, before time.Time) ([]core.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Payment
	for _, id := range f.paymentIDs {
		p, ok := f.payments[id]
		if ok && p.Status == core.StatusPending && p.DueDate.Before(before) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (f *fakeStore) UpdatePaymentStatus(_ context.Context, id string, status core.PaymentStatus) (core.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failStatusUpdates[id]; ok {
		return core.Payment{}, err
	}
	p, ok := f.payments[id]
	if !ok {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	p.Status = status
	f.payments[id] = p
	return p, nil
}

func (f *fakeStore) TogglePaymentReminder(_ context.Context, id string) (core.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	p.Reminder = !p.Reminder
	f.payments[id] = p
	return p, nil
}

func (f *fakeStore) DeletePayment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[id]; !ok {
		return fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	delete(f.payments, id)
	return nil
}

func (f *fakeStore) CountPayments(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.payments)), nil
}

// --- ObjectiveRepository ---

func (f *fakeStore) CreateObjective(_ context.Context, o core.Objective) (core.Objective, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID, o.CreatedAt = f.nextID("obj")
	o.UpdatedAt = o.CreatedAt
	f.objectives[o.ID] = o
	f.objIDs = append(f.objIDs, o.ID)
	return o, nil
}

func (f *fakeStore) ListObjectivesByAccount(_ context.Context, accountID string) ([]core.Objective, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Objective
	for i := len(f.objIDs) - 1; i >= 0; i-- {
		if o, ok := f.objectives[f.objIDs[i]]; ok && o.AccountID == accountID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteObjective(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objectives[id]; !ok {
		return fmt.Errorf("objective %s: %w", id, core.ErrNotFound)
	}
	delete(f.objectives, id)
	return nil
}

func (f *fakeStore) UpdateObjectiveProgress(_ context.Context, id string, current decimal.Decimal) (core.Objective, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objectives[id]
	if !ok {
		return core.Objective{}, fmt.Errorf("objective %s: %w", id, core.ErrNotFound)
	}
	o.CurrentAmount = current
	f.objectives[id] = o
	return o, nil
}

// fakePublisher records overdue reminder events.
type fakePublisher struct {
	mu        sync.Mutex
	published []core.Payment
	err       error
}

func (f *fakePublisher) PublishPaymentOverdue(_ context.Context, p core.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, p)
	return nil
}

// fakeImageStore returns a deterministic URL per upload.
type fakeImageStore struct {
	uploads int
	err     error
}

func (f *fakeImageStore) Upload(_ context.Context, name string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads++
	return "https://blob.test/" + name, nil
}
