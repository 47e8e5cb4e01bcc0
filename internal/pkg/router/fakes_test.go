package router

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
)

// memStore is a tiny owner-scoped table used by the fakes below.
type memStore[T any] struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*T
	id     func(*T) *uint
	owner  func(*T) uint
}

func newMemStore[T any](id func(*T) *uint, owner func(*T) uint) *memStore[T] {
	return &memStore[T]{rows: map[uint]*T{}, id: id, owner: owner}
}

func (s *memStore[T]) Create(_ context.Context, m *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	*s.id(m) = s.nextID
	cp := *m
	s.rows[s.nextID] = &cp
	return nil
}

func (s *memStore[T]) ListByUser(_ context.Context, userID uint) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.rows))
	for id, r := range s.rows {
		if s.owner(r) == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.rows[id])
	}
	return out, nil
}

func (s *memStore[T]) CountByUser(ctx context.Context, userID uint) (int64, error) {
	list, _ := s.ListByUser(ctx, userID)
	return int64(len(list)), nil
}

func (s *memStore[T]) GetByID(_ context.Context, userID, id uint) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || s.owner(r) != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore[T]) Update(_ context.Context, m *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.rows[*s.id(m)] = &cp
	return nil
}

func (s *memStore[T]) Delete(_ context.Context, userID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || s.owner(r) != userID {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, id)
	return nil
}

type fakeUsers struct {
	*memStore[models.User]
}

func (f fakeUsers) Create(ctx context.Context, u *models.User) error {
	if existing, _ := f.GetByEmail(ctx, u.Email); existing != nil {
		return repository.ErrDuplicate
	}
	return f.memStore.Create(ctx, u)
}

func (f fakeUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f fakeUsers) GetByWhatsAppNumber(_ context.Context, number string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.WhatsAppNumber != nil && *u.WhatsAppNumber == number })
}

type fakeSettings struct {
	mu   sync.Mutex
	rows map[uint]*models.UserSettings
}

func (f *fakeSettings) GetOrCreate(_ context.Context, userID uint) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	us, ok := f.rows[userID]
	if !ok {
		us = &models.UserSettings{ID: userID, UserID: userID, Currency: "BRL", EmailNotifications: true}
		f.rows[userID] = us
	}
	cp := *us
	return &cp, nil
}

func (f *fakeSettings) Update(_ context.Context, us *models.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *us
	f.rows[us.UserID] = &cp
	return nil
}

type fakeSubscriptions struct {
	mu      sync.Mutex
	nextID  uint
	rows    []models.Subscription
	current map[uint]uint
}

func (f *fakeSubscriptions) GetCurrent(_ context.Context, userID uint) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.current[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, s := range f.rows {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptions) CountByUser(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.rows {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubscriptions) CreateCurrent(_ context.Context, sub *models.Subscription, previousID *uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if previousID != nil {
		for i := range f.rows {
			if f.rows[i].ID == *previousID {
				f.rows[i].Status = models.SubscriptionStatusExpired
			}
		}
	}
	f.nextID++
	sub.ID = f.nextID
	sub.CreatedAt = time.Now()
	f.rows = append(f.rows, *sub)
	f.current[sub.UserID] = sub.ID
	return nil
}

func (f *fakeSubscriptions) Save(_ context.Context, sub *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == sub.ID {
			f.rows[i] = *sub
		}
	}
	return nil
}

type fakeBanks struct {
	*memStore[models.Bank]
}

func (f fakeBanks) GetPrimary(ctx context.Context, userID uint) (*models.Bank, error) {
	list, _ := f.ListByUser(ctx, userID)
	for _, b := range list {
		if b.IsPrimary {
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeBanks) SetPrimary(ctx context.Context, userID, id uint) error {
	if _, err := f.GetByID(ctx, userID, id); err != nil {
		return err
	}
	list, _ := f.ListByUser(ctx, userID)
	for _, b := range list {
		b.IsPrimary = b.ID == id
		_ = f.Update(ctx, &b)
	}
	return nil
}

type fakeLoans struct {
	*memStore[models.Loan]
}

func (f fakeLoans) Create(ctx context.Context, l *models.Loan, _ ...string) error {
	return f.memStore.Create(ctx, l)
}

func (f fakeLoans) Update(ctx context.Context, l *models.Loan, _ ...string) error {
	return f.memStore.Update(ctx, l)
}

func (f fakeLoans) UpdateSchedule(ctx context.Context, l *models.Loan, _ ...string) error {
	return f.memStore.Update(ctx, l)
}

func (f fakeLoans) ListUserIDsWithOpenLoans(context.Context) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[uint]bool{}
	var out []uint
	for _, l := range f.rows {
		if !l.IsPaidOff() && !seen[l.UserID] {
			seen[l.UserID] = true
			out = append(out, l.UserID)
		}
	}
	return out, nil
}

type fakeTransactions struct {
	*memStore[models.Transaction]
	banks fakeBanks
}

func (f fakeTransactions) CreateWithBalance(ctx context.Context, t *models.Transaction) error {
	if t.BankID != nil {
		b, err := f.banks.GetByID(ctx, t.UserID, *t.BankID)
		if err != nil {
			return err
		}
		b.Balance = b.Balance.Add(t.SignedAmount())
		_ = f.banks.Update(ctx, b)
	}
	return f.memStore.Create(ctx, t)
}

func (f fakeTransactions) DeleteWithBalance(ctx context.Context, userID, id uint) error {
	return f.memStore.Delete(ctx, userID, id)
}

func (f fakeTransactions) List(ctx context.Context, userID uint, _ repository.TransactionFilter) ([]models.Transaction, error) {
	return f.ListByUser(ctx, userID)
}

func (f fakeTransactions) LoanPaymentExists(_ context.Context, loanID uint, period string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.rows {
		if t.LoanID != nil && *t.LoanID == loanID && t.PaymentPeriod != nil && *t.PaymentPeriod == period {
			return true, nil
		}
	}
	return false, nil
}

type fakeNotifications struct {
	*memStore[models.Notification]
}

func (f fakeNotifications) ListByUser(ctx context.Context, userID uint, _ int) ([]models.Notification, error) {
	return f.memStore.ListByUser(ctx, userID)
}

func (f fakeNotifications) MarkRead(ctx context.Context, userID, id uint) error {
	n, err := f.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	n.IsRead = true
	return f.Update(ctx, n)
}

func (f fakeNotifications) ExistsSince(ctx context.Context, userID uint, kind string, referenceID uint, since time.Time) (bool, error) {
	list, _ := f.memStore.ListByUser(ctx, userID)
	for _, n := range list {
		if n.Type == kind && n.ReferenceID == referenceID && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type fakeCategories struct {
	*memStore[models.Category]
}

func (f fakeCategories) Stats(context.Context, uint, time.Time, time.Time) ([]models.CategoryStats, error) {
	return nil, nil
}

func newFakeRepositories() *repository.Repositories {
	banks := fakeBanks{newMemStore(func(b *models.Bank) *uint { return &b.ID }, func(b *models.Bank) uint { return b.UserID })}
	return &repository.Repositories{
		User:         fakeUsers{newMemStore(func(u *models.User) *uint { return &u.ID }, func(u *models.User) uint { return u.ID })},
		UserSettings: &fakeSettings{rows: map[uint]*models.UserSettings{}},
		Subscription: &fakeSubscriptions{current: map[uint]uint{}},
		Loan:         fakeLoans{newMemStore(func(l *models.Loan) *uint { return &l.ID }, func(l *models.Loan) uint { return l.UserID })},
		Transaction: fakeTransactions{
			memStore: newMemStore(func(t *models.Transaction) *uint { return &t.ID }, func(t *models.Transaction) uint { return t.UserID }),
			banks:    banks,
		},
		Bank:         banks,
		CreditCard:   newMemStore(func(c *models.CreditCard) *uint { return &c.ID }, func(c *models.CreditCard) uint { return c.UserID }),
		Alert:        newMemStore(func(a *models.Alert) *uint { return &a.ID }, func(a *models.Alert) uint { return a.UserID }),
		Category:     fakeCategories{newMemStore(func(c *models.Category) *uint { return &c.ID }, func(c *models.Category) uint { return c.UserID })},
		Goal:         newMemStore(func(g *models.Goal) *uint { return &g.ID }, func(g *models.Goal) uint { return g.UserID }),
		Notification: fakeNotifications{newMemStore(func(n *models.Notification) *uint { return &n.ID }, func(n *models.Notification) uint { return n.UserID })},
	}
}
