package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/repository"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

type fakeMenu struct {
	items map[string]*models.MenuItem
}

func (f *fakeMenu) FindItemByID(_ context.Context, id string) (*models.MenuItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return item, nil
}

// testMenu has an unsized pizza at 7.00 and a burger sized Small/Medium/Large.
func testMenu() (*fakeMenu, *models.MenuItem, *models.MenuItem) {
	pizza := &models.MenuItem{ID: uuid.New(), Name: "Margherita", Price: decPtr("7.00"), Available: true}
	burger := &models.MenuItem{
		ID:          uuid.New(),
		Name:        "Classic Burger",
		PriceSmall:  decPtr("5.20"),
		PriceMedium: decPtr("6.70"),
		PriceLarge:  decPtr("8.10"),
		Available:   true,
	}
	return &fakeMenu{items: map[string]*models.MenuItem{
		pizza.ID.String():  pizza,
		burger.ID.String(): burger,
	}}, pizza, burger
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*models.Order
	createErr error
	updateErr error
	findErr   error
	creates   int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderRepo) add(o *models.Order) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	f.orders[o.ID] = o
	return o
}

func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeOrderRepo) CreateWithItems(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now().UTC()
	for i := range order.OrderItems {
		order.OrderItems[i].ID = uuid.New()
		order.OrderItems[i].OrderID = order.ID
	}
	stored := *order
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	o, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) FindByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrderRepo) sorted() []models.Order {
	out := make([]models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []models.Order
	for _, o := range f.sorted() {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (f *fakeOrderRepo) FindRecent(_ context.Context, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	all := f.sorted()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.OrderStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return repository.ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt models.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) all() []models.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.OrderEvent(nil), p.events...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, fullName, phone, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.FullName, u.Phone, u.Address = fullName, phone, address
	return nil
}

type fakeDenylist struct {
	revoked map[string]time.Time
}

func (f *fakeDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[tokenID] = until
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := f.revoked[tokenID]
	return ok, nil
}
