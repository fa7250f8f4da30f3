package desk

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/trustpooler/pool-engine/internal/config"
	"github.com/trustpooler/pool-engine/internal/descriptor"
	"github.com/trustpooler/pool-engine/internal/metrics"
	"github.com/trustpooler/pool-engine/internal/model"
	"github.com/trustpooler/pool-engine/internal/pool"
)

var (
	ErrBookNotFound = errors.New("desk: pool not found")
	ErrBookExists   = errors.New("desk: pool already exists")
)

// Book is one named pool of either kind. Exactly one of category and
// directional is set, matching Kind.
type Book struct {
	ID   string
	Kind string

	mu          sync.RWMutex
	category    *pool.CategoryPool
	directional *pool.DirectionalPool
}

// NewBook creates an empty book of the given kind.
func NewBook(id, kind string, accounts pool.Accounts, feeRate decimal.Decimal) (*Book, error) {
	if err := descriptor.ValidateKind(kind); err != nil {
		return nil, err
	}
	b := &Book{ID: id, Kind: kind}
	var err error
	if kind == descriptor.KindCategory {
		b.category, err = pool.NewCategoryPool(accounts, feeRate)
	} else {
		b.directional, err = pool.NewDirectionalPool(accounts, feeRate)
	}
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", id, err)
	}
	return b, nil
}

// Register adds a stake described by event (an outcome name or SIDE@STRIKE).
func (b *Book) Register(event string, amount decimal.Decimal, owner string) (pool.StakeID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var id pool.StakeID
	var err error
	if b.category != nil {
		var tmpl pool.CategoryEvent
		if tmpl, err = descriptor.ParseCategory(event); err != nil {
			return 0, err
		}
		id, err = b.category.Register(tmpl, amount, owner)
	} else {
		var tmpl pool.DirectionalEvent
		if tmpl, err = descriptor.ParseDirectional(event); err != nil {
			return 0, err
		}
		id, err = b.directional.Register(tmpl, amount, owner)
	}
	if err != nil {
		return 0, err
	}
	metrics.StakesRegistered.WithLabelValues(b.Kind).Inc()
	return id, nil
}

// Summary reports the book's totals.
func (b *Book) Summary() model.PoolSummary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := model.PoolSummary{ID: b.ID, Kind: b.Kind}
	var accounts pool.Accounts
	if b.category != nil {
		l := b.category.Ledger
		accounts = l.Accounts()
		s.FeeRate, s.Stakes, s.TotalPool, s.Fees = l.FeeRate(), l.Len(), l.TotalPool(), l.Fees()
		s.PoolWinningAmount = l.PoolWinningAmount()
		s.CategoryTotals = l.CategoryTotals()
		s.Levels = b.category.Levels()
	} else {
		l := b.directional.Ledger
		accounts = l.Accounts()
		s.FeeRate, s.Stakes, s.TotalPool, s.Fees = l.FeeRate(), l.Len(), l.TotalPool(), l.Fees()
		s.PoolWinningAmount = l.PoolWinningAmount()
		s.CategoryTotals = l.CategoryTotals()
		for _, level := range b.directional.Levels() {
			s.Levels = append(s.Levels, strconv.Itoa(level))
		}
	}
	s.PoolAccount, s.ManagerAccount = accounts.Pool, accounts.Manager
	if s.Levels == nil {
		s.Levels = []string{}
	}
	return s
}

// Winning reports the capital and number of stakes that win at level.
func (b *Book) Winning(level string) (model.WinningSummary, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	w := model.WinningSummary{PoolID: b.ID, Level: level}
	if b.category != nil {
		w.WinningAmount = b.category.TotalWinningAmount(level)
		w.Winners = b.category.CountWinners(level)
		return w, nil
	}
	price, err := descriptor.ParsePrice(level)
	if err != nil {
		return w, err
	}
	w.WinningAmount = b.directional.TotalWinningAmount(price)
	w.Winners = b.directional.CountWinners(price)
	return w, nil
}

// CategoryOf parses event and returns the reporting category it falls in,
// along with the book's current category totals.
func (b *Book) CategoryOf(event string) (string, map[string]decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.category != nil {
		e, err := descriptor.ParseCategory(event)
		if err != nil {
			return "", nil, err
		}
		return e.Category(), b.category.CategoryTotals(), nil
	}
	e, err := descriptor.ParseDirectional(event)
	if err != nil {
		return "", nil, err
	}
	return e.Category(), b.directional.CategoryTotals(), nil
}

// Quote prices a hypothetical stake on event if the pool closes at level.
func (b *Book) Quote(event string, amount decimal.Decimal, level string) (model.Quote, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q := model.Quote{PoolID: b.ID, Event: event, Level: level, Amount: amount}
	if b.category != nil {
		tmpl, err := descriptor.ParseCategory(event)
		if err != nil {
			return q, err
		}
		e, err := b.category.Quote(tmpl, amount, level)
		if err != nil {
			return q, err
		}
		q.Event = e.Outcome
		q.Wins = e.IsWinner(level)
		q.Payout, q.Payoff, q.PoolShare = e.Tx.Payout, e.Payoff, e.PoolShare
		return q, nil
	}

	tmpl, err := descriptor.ParseDirectional(event)
	if err != nil {
		return q, err
	}
	price, err := descriptor.ParsePrice(level)
	if err != nil {
		return q, err
	}
	e, err := b.directional.Quote(tmpl, amount, price)
	if err != nil {
		return q, err
	}
	q.Event = descriptor.FormatDirectional(e)
	q.Wins = e.IsWinner(price)
	q.Payout, q.Payoff, q.PoolShare = e.Tx.Payout, e.Payoff, e.PoolShare
	return q, nil
}

// Curve prices a hypothetical stake on event at every enumerated level.
func (b *Book) Curve(event string, amount decimal.Decimal) (model.PayoffCurve, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c := model.PayoffCurve{PoolID: b.ID, Event: event, Amount: amount}
	if b.category != nil {
		tmpl, err := descriptor.ParseCategory(event)
		if err != nil {
			return c, err
		}
		curve, err := b.category.PayoffCurve(tmpl, amount)
		if err != nil {
			return c, err
		}
		for _, level := range b.category.Levels() {
			c.Points = append(c.Points, model.CurvePoint{Level: level, Payoff: curve[level]})
		}
		return c, nil
	}

	tmpl, err := descriptor.ParseDirectional(event)
	if err != nil {
		return c, err
	}
	curve, err := b.directional.PayoffCurve(tmpl, amount)
	if err != nil {
		return c, err
	}
	c.Event = descriptor.FormatDirectional(tmpl)
	for _, level := range b.directional.Levels() {
		c.Points = append(c.Points, model.CurvePoint{Level: strconv.Itoa(level), Payoff: curve[level]})
	}
	return c, nil
}

// Settle settles the book at level and returns the journal record without
// an id or timestamp. Payouts are ordered by stake id.
func (b *Book) Settle(level string) (*model.Settlement, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := &model.Settlement{PoolID: b.ID, Kind: b.Kind, Level: level}
	if b.category != nil {
		winners, err := b.category.Settle(level)
		if err != nil {
			return nil, err
		}
		l := b.category.Ledger
		s.PoolAccount, s.TotalPool, s.Fees = l.Accounts().Pool, l.TotalPool(), l.Fees()
		s.WinningAmount = l.TotalWinningAmount(level)
		for _, e := range winners {
			s.Payouts = append(s.Payouts, payoutOf(e.Tx, e.Outcome, e.Result))
		}
	} else {
		price, err := descriptor.ParsePrice(level)
		if err != nil {
			return nil, err
		}
		winners, err := b.directional.Settle(price)
		if err != nil {
			return nil, err
		}
		l := b.directional.Ledger
		s.PoolAccount, s.TotalPool, s.Fees = l.Accounts().Pool, l.TotalPool(), l.Fees()
		s.WinningAmount = l.TotalWinningAmount(price)
		for _, e := range winners {
			p := payoutOf(e.Tx, descriptor.FormatDirectional(e), e.Result)
			p.PrimaFaciePayout = &e.PrimaFaciePayout
			p.InverseDistance = &e.InverseDistanceToPin
			p.AdjustedAmount = &e.AdjustedAmount
			s.Payouts = append(s.Payouts, p)
		}
	}

	slices.SortFunc(s.Payouts, func(x, y model.Payout) int { return x.StakeID - y.StakeID })
	s.TotalPayout = decimal.Zero
	for _, p := range s.Payouts {
		s.TotalPayout = s.TotalPayout.Add(p.Payout)
	}
	return s, nil
}

func payoutOf(tx pool.StakeRecord, event string, r pool.Result) model.Payout {
	return model.Payout{
		StakeID:       int(tx.ID),
		Owner:         tx.OwnerAccount,
		Event:         event,
		Amount:        tx.Amount,
		Payout:        tx.Payout,
		Payoff:        r.Payoff,
		PoolShare:     r.PoolShare,
		WinningsShare: r.WinningsShare,
	}
}

// Registry holds the books served by the desk, in insertion order.
type Registry struct {
	mu    sync.RWMutex
	books map[string]*Book
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{books: make(map[string]*Book)}
}

// Add inserts a book. Book ids are unique.
func (r *Registry) Add(b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[b.ID]; ok {
		return fmt.Errorf("%w: %s", ErrBookExists, b.ID)
	}
	r.books[b.ID] = b
	r.order = append(r.order, b.ID)
	metrics.ActivePools.Set(float64(len(r.books)))
	return nil
}

// Get returns the book with the given id.
func (r *Registry) Get(id string) (*Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, id)
	}
	return b, nil
}

// List returns every book in insertion order.
func (r *Registry) List() []*Book {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Book, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.books[id])
	}
	return out
}

// Seed builds every configured book and registers its stakes. Seeding stops
// at the first invalid book or stake.
func (r *Registry) Seed(cfg *config.Config) error {
	accounts := pool.Accounts{Pool: cfg.Pool.PoolAccount, Manager: cfg.Pool.ManagerAccount}
	for _, bc := range cfg.Books {
		b, err := NewBook(bc.ID, bc.Kind, accounts, cfg.FeeRateFor(bc))
		if err != nil {
			return err
		}
		for i, sc := range bc.Stakes {
			if err := config.CheckAmount(sc.Amount); err != nil {
				return fmt.Errorf("book %s stake %d: %w", bc.ID, i, err)
			}
			if _, err := b.Register(sc.Event, decimal.NewFromFloat(sc.Amount), sc.Owner); err != nil {
				return fmt.Errorf("book %s stake %d: %w", bc.ID, i, err)
			}
		}
		if err := r.Add(b); err != nil {
			return err
		}
	}
	return nil
}
