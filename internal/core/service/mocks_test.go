package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/port"
)

// In-memory fakes shared by the service tests. They mirror the semantics
// of the real adapters: the cart fake applies the same clamp the Lua
// script does, and the order fake applies the same conditional decrement
// the SQL transaction does.

type memCartRepo struct {
	mu    sync.Mutex
	carts map[string]map[string]int
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]map[string]int)}
}

func (m *memCartRepo) Quantities(ctx context.Context, sessionID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int, len(m.carts[sessionID]))
	for id, q := range m.carts[sessionID] {
		out[id] = q
	}
	return out, nil
}

func (m *memCartRepo) AddClamped(ctx context.Context, sessionID, productID string, quantity, max int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart := m.carts[sessionID]
	if cart == nil {
		cart = make(map[string]int)
		m.carts[sessionID] = cart
	}

	stored := cart[productID] + quantity
	if stored > max {
		stored = max
	}
	if stored <= 0 {
		delete(cart, productID)
		return 0, nil
	}
	cart[productID] = stored
	return stored, nil
}

func (m *memCartRepo) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart := m.carts[sessionID]
	if cart == nil {
		cart = make(map[string]int)
		m.carts[sessionID] = cart
	}
	cart[productID] = quantity
	return nil
}

func (m *memCartRepo) Remove(ctx context.Context, sessionID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts[sessionID], productID)
	return nil
}

func (m *memCartRepo) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newMemProductRepo(products ...domain.Product) *memProductRepo {
	repo := &memProductRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (m *memProductRepo) CreateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *memProductRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProductRepo) UpdateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s not found", p.ID)
	}
	stored.Name = p.Name
	stored.Description = p.Description
	stored.ImagePath = p.ImagePath
	m.products[p.ID] = stored
	return nil
}

func (m *memProductRepo) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

func (m *memProductRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProductRepo) ListStoreProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Product
	for _, p := range m.products {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProductRepo) ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProductRepo) AdjustInventory(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %s not found", id)
	}
	p.Inventory += delta
	if p.Inventory < 0 {
		p.Inventory = 0
	}
	m.products[id] = p
	return nil
}

func (m *memProductRepo) SetPrice(ctx context.Context, id string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %s not found", id)
	}
	p.Price = price
	m.products[id] = p
	return nil
}

func (m *memProductRepo) inventory(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Inventory
}

func (m *memProductRepo) price(id string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Price
}

type placedOrder struct {
	order domain.Order
	items []domain.OrderItem
}

// memOrderRepo applies the same all-or-nothing semantics as the SQL
// transaction: decrements happen only when every line has inventory and
// the beforeCommit hook succeeds.
type memOrderRepo struct {
	mu       sync.Mutex
	products *memProductRepo
	placed   []placedOrder
	paid     map[string]bool // userID+productID
}

func newMemOrderRepo(products *memProductRepo) *memOrderRepo {
	return &memOrderRepo{products: products, paid: make(map[string]bool)}
}

func (m *memOrderRepo) PlaceOrder(ctx context.Context, order domain.Order, items []domain.OrderItem, beforeCommit func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range items {
		if m.products.inventory(item.ProductID) < item.Quantity {
			return fmt.Errorf("%w: product %s", port.ErrInsufficientInventory, item.ProductID)
		}
	}

	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return fmt.Errorf("pre-commit step: %w", err)
		}
	}

	for _, item := range items {
		if err := m.products.AdjustInventory(ctx, item.ProductID, -item.Quantity); err != nil {
			return err
		}
		if order.IsPaid {
			m.paid[order.UserID+"/"+item.ProductID] = true
		}
	}
	m.placed = append(m.placed, placedOrder{order: order, items: items})
	return nil
}

func (m *memOrderRepo) HasPaidOrder(ctx context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paid[userID+"/"+productID], nil
}

func (m *memOrderRepo) markPaid(userID, productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paid[userID+"/"+productID] = true
}

type memMailer struct {
	mu   sync.Mutex
	err  error
	sent []port.Mail
}

func (m *memMailer) Send(ctx context.Context, mail port.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

type memAnnouncer struct {
	mu    sync.Mutex
	err   error
	posts []string
}

func (m *memAnnouncer) Post(ctx context.Context, text, mediaPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.posts = append(m.posts, text)
	return m.err
}

func (m *memAnnouncer) posted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.posts...)
}

type memStoreRepo struct {
	mu     sync.Mutex
	stores map[string]domain.Store
}

func newMemStoreRepo(stores ...domain.Store) *memStoreRepo {
	repo := &memStoreRepo{stores: make(map[string]domain.Store)}
	for _, s := range stores {
		repo.stores[s.ID] = s
	}
	return repo
}

func (m *memStoreRepo) CreateStore(ctx context.Context, store domain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[store.ID] = store
	return nil
}

func (m *memStoreRepo) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stores[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStoreRepo) UpdateStore(ctx context.Context, store domain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[store.ID] = store
	return nil
}

func (m *memStoreRepo) DeleteStore(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, id)
	return nil
}

func (m *memStoreRepo) ListOwnerStores(ctx context.Context, ownerID string) ([]domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Store
	for _, s := range m.stores {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memReviewRepo struct {
	mu      sync.Mutex
	reviews []domain.Review
}

func (m *memReviewRepo) CreateReview(ctx context.Context, review domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *memReviewRepo) ListVerifiedReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Review
	for _, r := range m.reviews {
		if r.ProductID == productID && r.IsVerified {
			out = append(out, r)
		}
	}
	return out, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (m *memUserRepo) CreateUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]string)}
}

func (m *memSessionRepo) CreateSession(ctx context.Context, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = userID
	return nil
}

func (m *memSessionRepo) LookupSession(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[token], nil
}

func (m *memSessionRepo) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
