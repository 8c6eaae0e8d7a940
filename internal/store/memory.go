package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bank-limits/internal/models"
)

// Memory is the in-memory Store. A single RWMutex serializes all access,
// which already gives every unit of work the isolation the protocol needs;
// WithinTx adds rollback by snapshotting state before running the callback.
// It backs tests and local runs without a database.
type Memory struct {
	mu   sync.RWMutex
	inTx bool
	data *memData
}

type rateKey struct {
	from, to models.Currency
	date     string
}

type memData struct {
	nextAccountID int64
	nextLimitID   int64
	nextTxID      int64

	accounts     map[int64]models.Account
	limits       map[int64]models.Limit
	transactions []models.Transaction
	rates        map[rateKey]models.ExchangeRate
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: &memData{
		accounts: make(map[int64]models.Account),
		limits:   make(map[int64]models.Limit),
		rates:    make(map[rateKey]models.ExchangeRate),
	}}
}

// lock acquires the write lock unless we are already inside a unit of work,
// which holds it for its whole extent. Used as: defer m.lock()().
func (m *Memory) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Memory) rlock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

// WithinTx runs fn under the write lock against a view that skips
// re-locking. State is snapshotted first and restored wholesale when fn
// fails, so a failed protocol leaves nothing behind.
func (m *Memory) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	tx := &Memory{inTx: true, data: m.data}
	if err := fn(tx); err != nil {
		*m.data = *snapshot
		return err
	}
	return nil
}

func (d *memData) clone() *memData {
	cp := &memData{
		nextAccountID: d.nextAccountID,
		nextLimitID:   d.nextLimitID,
		nextTxID:      d.nextTxID,
		accounts:      make(map[int64]models.Account, len(d.accounts)),
		limits:        make(map[int64]models.Limit, len(d.limits)),
		rates:         make(map[rateKey]models.ExchangeRate, len(d.rates)),
	}
	for k, v := range d.accounts {
		cp.accounts[k] = v
	}
	for k, v := range d.limits {
		cp.limits[k] = cloneLimit(v)
	}
	cp.transactions = append([]models.Transaction(nil), d.transactions...)
	for k, v := range d.rates {
		cp.rates[k] = v
	}
	return cp
}

// cloneLimit copies a limit including the pointed-to remainder, so callers
// can never mutate stored state through a returned value.
func cloneLimit(l models.Limit) models.Limit {
	if l.Remainder != nil {
		r := *l.Remainder
		l.Remainder = &r
	}
	return l
}

func (m *Memory) Accounts() AccountRepository         { return memAccounts{m} }
func (m *Memory) Limits() LimitRepository             { return memLimits{m} }
func (m *Memory) Transactions() TransactionRepository { return memTransactions{m} }
func (m *Memory) Rates() RateRepository               { return memRates{m} }

type memAccounts struct{ m *Memory }

func (r memAccounts) Get(_ context.Context, id int64) (*models.Account, error) {
	defer r.m.rlock()()
	a, ok := r.m.data.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", models.ErrNotFound, id)
	}
	cp := a
	return &cp, nil
}

func (r memAccounts) Create(_ context.Context, account *models.Account) error {
	defer r.m.lock()()
	d := r.m.data
	if account.ID == 0 {
		d.nextAccountID++
		account.ID = d.nextAccountID
	} else if account.ID > d.nextAccountID {
		d.nextAccountID = account.ID
	}
	d.accounts[account.ID] = *account
	return nil
}

type memLimits struct{ m *Memory }

func (r memLimits) Current(_ context.Context, accountID int64, category models.Category) (*models.Limit, error) {
	defer r.m.rlock()()
	var best *models.Limit
	for id := range r.m.data.limits {
		l := r.m.data.limits[id]
		if l.AccountID != accountID || l.Category != category {
			continue
		}
		if best == nil || l.LastUpdated.After(best.LastUpdated) ||
			(l.LastUpdated.Equal(best.LastUpdated) && l.ID > best.ID) {
			cp := cloneLimit(l)
			best = &cp
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: limit for account %d and category %s", models.ErrNotFound, accountID, category)
	}
	return best, nil
}

func (r memLimits) Create(_ context.Context, limit *models.Limit) error {
	defer r.m.lock()()
	d := r.m.data
	if limit.ID == 0 {
		d.nextLimitID++
		limit.ID = d.nextLimitID
	} else if limit.ID > d.nextLimitID {
		d.nextLimitID = limit.ID
	}
	d.limits[limit.ID] = cloneLimit(*limit)
	return nil
}

func (r memLimits) Update(_ context.Context, limit *models.Limit) error {
	defer r.m.lock()()
	if _, ok := r.m.data.limits[limit.ID]; !ok {
		return fmt.Errorf("%w: limit %d", models.ErrNotFound, limit.ID)
	}
	r.m.data.limits[limit.ID] = cloneLimit(*limit)
	return nil
}

func (r memLimits) ByAccount(_ context.Context, accountID int64) ([]*models.Limit, error) {
	defer r.m.rlock()()
	var out []*models.Limit
	for id := range r.m.data.limits {
		if r.m.data.limits[id].AccountID == accountID {
			cp := cloneLimit(r.m.data.limits[id])
			out = append(out, &cp)
		}
	}
	sortLimits(out)
	return out, nil
}

func (r memLimits) All(_ context.Context) ([]*models.Limit, error) {
	defer r.m.rlock()()
	out := make([]*models.Limit, 0, len(r.m.data.limits))
	for id := range r.m.data.limits {
		cp := cloneLimit(r.m.data.limits[id])
		out = append(out, &cp)
	}
	sortLimits(out)
	return out, nil
}

func sortLimits(ls []*models.Limit) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].ID < ls[j].ID })
}

type memTransactions struct{ m *Memory }

func (r memTransactions) Insert(_ context.Context, t *models.Transaction) error {
	defer r.m.lock()()
	d := r.m.data
	d.nextTxID++
	t.ID = d.nextTxID
	d.transactions = append(d.transactions, *t)
	return nil
}

func (r memTransactions) All(_ context.Context) ([]*models.Transaction, error) {
	return r.filter(func(models.Transaction) bool { return true })
}

func (r memTransactions) ByAccount(_ context.Context, accountID int64) ([]*models.Transaction, error) {
	return r.filter(func(t models.Transaction) bool {
		return t.AccountFrom == accountID || t.AccountTo == accountID
	})
}

func (r memTransactions) ByCategory(_ context.Context, category models.Category) ([]*models.Transaction, error) {
	return r.filter(func(t models.Transaction) bool { return t.Category == category })
}

func (r memTransactions) ByAccountExceeded(_ context.Context, accountID int64) ([]*models.Transaction, error) {
	return r.filter(func(t models.Transaction) bool {
		return (t.AccountFrom == accountID || t.AccountTo == accountID) && t.LimitExceeded
	})
}

func (r memTransactions) filter(keep func(models.Transaction) bool) ([]*models.Transaction, error) {
	defer r.m.rlock()()
	var out []*models.Transaction
	for i := range r.m.data.transactions {
		if keep(r.m.data.transactions[i]) {
			cp := r.m.data.transactions[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memRates struct{ m *Memory }

func (r memRates) Get(_ context.Context, from, to models.Currency, date time.Time) (*models.ExchangeRate, error) {
	defer r.m.rlock()()
	key := rateKey{from: from, to: to, date: models.DateOf(date).Format(time.DateOnly)}
	rate, ok := r.m.data.rates[key]
	if !ok {
		return nil, fmt.Errorf("%w: rate %s/%s on %s", models.ErrNotFound, from, to, key.date)
	}
	cp := rate
	return &cp, nil
}

func (r memRates) Upsert(_ context.Context, rate *models.ExchangeRate) error {
	defer r.m.lock()()
	cp := *rate
	cp.Date = models.DateOf(cp.Date)
	cp.UpdateTime = time.Now()
	key := rateKey{from: cp.From, to: cp.To, date: cp.Date.Format(time.DateOnly)}
	r.m.data.rates[key] = cp
	*rate = cp
	return nil
}
