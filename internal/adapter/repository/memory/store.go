package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// Store is an in-memory implementation of every repository plus TxRunner.
// Writes inside WithinTx land on a copy-on-write snapshot that is swapped in
// only when fn succeeds, so a failed transaction leaves state untouched.
type Store struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	buckets   map[string]domain.BucketSet
	goals     map[uuid.UUID]*domain.SavingsGoal
	employees map[uuid.UUID]*domain.Employee
	batches   map[uuid.UUID]*domain.PayrollBatch
	pools     map[string]decimal.Decimal
	tokens    map[domain.TokenSymbol]*domain.YieldToken
	holdings  map[string]*domain.Holding // keyed account|symbol
}

func newState() *state {
	return &state{
		buckets:   make(map[string]domain.BucketSet),
		goals:     make(map[uuid.UUID]*domain.SavingsGoal),
		employees: make(map[uuid.UUID]*domain.Employee),
		batches:   make(map[uuid.UUID]*domain.PayrollBatch),
		pools:     make(map[string]decimal.Decimal),
		tokens:    make(map[domain.TokenSymbol]*domain.YieldToken),
		holdings:  make(map[string]*domain.Holding),
	}
}

func (s *state) clone() *state {
	c := newState()
	for account, set := range s.buckets {
		c.buckets[account] = cloneSet(set)
	}
	for id, g := range s.goals {
		goal := *g
		c.goals[id] = &goal
	}
	for id, e := range s.employees {
		employee := *e
		c.employees[id] = &employee
	}
	for id, b := range s.batches {
		batch := *b
		batch.Lines = append([]domain.BatchLine(nil), b.Lines...)
		c.batches[id] = &batch
	}
	for employer, p := range s.pools {
		c.pools[employer] = p
	}
	for symbol, t := range s.tokens {
		token := *t
		c.tokens[symbol] = &token
	}
	for key, h := range s.holdings {
		holding := *h
		c.holdings[key] = &holding
	}
	return c
}

func cloneSet(set domain.BucketSet) domain.BucketSet {
	c := make(domain.BucketSet, len(set))
	for t, b := range set {
		bucket := *b
		c[t] = &bucket
	}
	return c
}

func holdingKey(account string, symbol domain.TokenSymbol) string {
	return account + "|" + string(symbol)
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

// WithinTx runs fn against a snapshot and commits it only on success.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		// Nested scope joins the outer transaction.
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	txCtx := context.WithValue(ctx, txKey{}, snapshot)
	if err := fn(txCtx); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

// current resolves the state a call should read or write: the transaction
// snapshot when inside WithinTx, the committed state otherwise.
func (s *Store) current(ctx context.Context) (*state, func()) {
	if snap, ok := ctx.Value(txKey{}).(*state); ok {
		return snap, func() {}
	}
	s.mu.RLock()
	return s.state, s.mu.RUnlock
}

// write is like current but takes the write lock for non-transactional writes.
func (s *Store) write(ctx context.Context) (*state, func()) {
	if snap, ok := ctx.Value(txKey{}).(*state); ok {
		return snap, func() {}
	}
	s.mu.Lock()
	return s.state, s.mu.Unlock
}

// --- BucketRepository ---

func (s *Store) GetSet(ctx context.Context, account string) (domain.BucketSet, error) {
	st, done := s.current(ctx)
	defer done()
	set, ok := st.buckets[account]
	if !ok {
		return nil, fmt.Errorf("%w: no ledger for account %s", domain.ErrNotFound, account)
	}
	return cloneSet(set), nil
}

func (s *Store) SaveSet(ctx context.Context, account string, set domain.BucketSet) error {
	st, done := s.write(ctx)
	defer done()
	st.buckets[account] = cloneSet(set)
	return nil
}

// --- GoalRepository ---

func (s *Store) Create(ctx context.Context, goal *domain.SavingsGoal) error {
	st, done := s.write(ctx)
	defer done()
	g := *goal
	st.goals[goal.ID] = &g
	return nil
}

func (s *Store) GetByID(ctx context.Context, account string, id uuid.UUID) (*domain.SavingsGoal, error) {
	st, done := s.current(ctx)
	defer done()
	g, ok := st.goals[id]
	if !ok || g.Account != account {
		return nil, fmt.Errorf("%w: goal %s", domain.ErrNotFound, id)
	}
	goal := *g
	return &goal, nil
}

func (s *Store) Update(ctx context.Context, goal *domain.SavingsGoal) error {
	st, done := s.write(ctx)
	defer done()
	if _, ok := st.goals[goal.ID]; !ok {
		return fmt.Errorf("%w: goal %s", domain.ErrNotFound, goal.ID)
	}
	g := *goal
	st.goals[goal.ID] = &g
	return nil
}

func (s *Store) ListByAccount(ctx context.Context, account string) ([]*domain.SavingsGoal, error) {
	st, done := s.current(ctx)
	defer done()
	var goals []*domain.SavingsGoal
	for _, g := range st.goals {
		if g.Account == account {
			goal := *g
			goals = append(goals, &goal)
		}
	}
	return goals, nil
}

// --- PayrollRepository ---

func (s *Store) SaveEmployee(ctx context.Context, employee *domain.Employee) error {
	st, done := s.write(ctx)
	defer done()
	e := *employee
	st.employees[employee.ID] = &e
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, employer string, id uuid.UUID) (*domain.Employee, error) {
	st, done := s.current(ctx)
	defer done()
	e, ok := st.employees[id]
	if !ok || e.Employer != employer {
		return nil, fmt.Errorf("%w: employee %s", domain.ErrNotFound, id)
	}
	employee := *e
	return &employee, nil
}

func (s *Store) ListEmployees(ctx context.Context, employer string) ([]*domain.Employee, error) {
	st, done := s.current(ctx)
	defer done()
	var roster []*domain.Employee
	for _, e := range st.employees {
		if e.Employer == employer {
			employee := *e
			roster = append(roster, &employee)
		}
	}
	return roster, nil
}

func (s *Store) SaveBatch(ctx context.Context, batch *domain.PayrollBatch) error {
	st, done := s.write(ctx)
	defer done()
	b := *batch
	b.Lines = append([]domain.BatchLine(nil), batch.Lines...)
	st.batches[batch.ID] = &b
	return nil
}

func (s *Store) GetBatch(ctx context.Context, id uuid.UUID) (*domain.PayrollBatch, error) {
	st, done := s.current(ctx)
	defer done()
	b, ok := st.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, id)
	}
	batch := *b
	batch.Lines = append([]domain.BatchLine(nil), b.Lines...)
	return &batch, nil
}

func (s *Store) ListDueBatches(ctx context.Context, now time.Time) ([]*domain.PayrollBatch, error) {
	st, done := s.current(ctx)
	defer done()
	var due []*domain.PayrollBatch
	for _, b := range st.batches {
		if !b.Terminal() && !b.ScheduledAt.After(now) {
			batch := *b
			batch.Lines = append([]domain.BatchLine(nil), b.Lines...)
			due = append(due, &batch)
		}
	}
	return due, nil
}

func (s *Store) GetPool(ctx context.Context, employer string) (decimal.Decimal, error) {
	st, done := s.current(ctx)
	defer done()
	balance, ok := st.pools[employer]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no pool for employer %s", domain.ErrNotFound, employer)
	}
	return balance, nil
}

func (s *Store) SetPool(ctx context.Context, employer string, balance decimal.Decimal) error {
	st, done := s.write(ctx)
	defer done()
	st.pools[employer] = balance
	return nil
}

// --- YieldRepository ---

func (s *Store) GetToken(ctx context.Context, symbol domain.TokenSymbol) (*domain.YieldToken, error) {
	st, done := s.current(ctx)
	defer done()
	t, ok := st.tokens[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: token %s", domain.ErrNotFound, symbol)
	}
	token := *t
	return &token, nil
}

func (s *Store) SaveToken(ctx context.Context, token *domain.YieldToken) error {
	st, done := s.write(ctx)
	defer done()
	t := *token
	st.tokens[token.Symbol] = &t
	return nil
}

func (s *Store) ListTokens(ctx context.Context) ([]*domain.YieldToken, error) {
	st, done := s.current(ctx)
	defer done()
	tokens := make([]*domain.YieldToken, 0, len(st.tokens))
	for _, symbol := range domain.TokenSymbols {
		if t, ok := st.tokens[symbol]; ok {
			token := *t
			tokens = append(tokens, &token)
		}
	}
	return tokens, nil
}

func (s *Store) GetHolding(ctx context.Context, account string, symbol domain.TokenSymbol) (*domain.Holding, error) {
	st, done := s.current(ctx)
	defer done()
	h, ok := st.holdings[holdingKey(account, symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: no %s holding for account %s", domain.ErrNotFound, symbol, account)
	}
	holding := *h
	return &holding, nil
}

func (s *Store) SaveHolding(ctx context.Context, holding *domain.Holding) error {
	st, done := s.write(ctx)
	defer done()
	h := *holding
	st.holdings[holdingKey(holding.Account, holding.Symbol)] = &h
	return nil
}

func (s *Store) ListHoldings(ctx context.Context, account string) ([]*domain.Holding, error) {
	st, done := s.current(ctx)
	defer done()
	var holdings []*domain.Holding
	for _, h := range st.holdings {
		if h.Account == account {
			holding := *h
			holdings = append(holdings, &holding)
		}
	}
	return holdings, nil
}
