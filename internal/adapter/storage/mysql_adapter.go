package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/port"
)

// MySQLAdapter implements every persistent repository port over plain SQL.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Users

func (m *MySQLAdapter) CreateUser(ctx context.Context, user domain.User) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, is_vendor, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.IsVendor, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.scanUser(m.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, is_vendor, created_at
		FROM users WHERE email = ?`, email))
}

func (m *MySQLAdapter) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return m.scanUser(m.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, is_vendor, created_at
		FROM users WHERE id = ?`, id))
}

func (m *MySQLAdapter) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsVendor, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// Stores

func (m *MySQLAdapter) CreateStore(ctx context.Context, store domain.Store) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO stores (id, owner_id, name, description, logo_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		store.ID, store.OwnerID, store.Name, store.Description, store.LogoPath, store.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	var s domain.Store
	err := m.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, logo_path, created_at
		FROM stores WHERE id = ?`, id,
	).Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.LogoPath, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	return &s, nil
}

func (m *MySQLAdapter) UpdateStore(ctx context.Context, store domain.Store) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE stores SET name = ?, description = ?, logo_path = ? WHERE id = ?`,
		store.Name, store.Description, store.LogoPath, store.ID,
	)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) DeleteStore(ctx context.Context, id string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListOwnerStores(ctx context.Context, ownerID string) ([]domain.Store, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, owner_id, name, description, logo_path, created_at
		FROM stores WHERE owner_id = ? ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.LogoPath, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

// Products

const productColumns = `id, store_id, name, description, price, inventory, image_path, created_at, updated_at`

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.StoreID, p.Name, p.Description, p.Price, p.Inventory, p.ImagePath, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	var p domain.Product
	err := scanProduct(row.Scan, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products SET name = ?, description = ?, image_path = ?, updated_at = NOW()
		WHERE id = ?`,
		p.Name, p.Description, p.ImagePath, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, id string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return m.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at`)
}

func (m *MySQLAdapter) ListStoreProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	return m.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE store_id = ? ORDER BY created_at`, storeID)
}

func (m *MySQLAdapter) ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return m.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders+`)`, args...)
}

// AdjustInventory floors the result at zero so a large decrement can
// never push inventory negative.
func (m *MySQLAdapter) AdjustInventory(ctx context.Context, id string, delta int) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET inventory = GREATEST(CAST(inventory AS SIGNED) + ?, 0), updated_at = NOW()
		WHERE id = ?`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("adjust inventory: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) SetPrice(ctx context.Context, id string, price decimal.Decimal) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products SET price = ?, updated_at = NOW() WHERE id = ?`,
		price, id,
	)
	if err != nil {
		return fmt.Errorf("set price: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows.Scan, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(scan func(...any) error, p *domain.Product) error {
	return scan(&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Price, &p.Inventory, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt)
}

// Orders

// PlaceOrder writes the order, its items and the per-item conditional
// inventory decrements in one transaction. A decrement that matches no
// row means someone bought the stock first; the whole order rolls back
// with port.ErrInsufficientInventory. beforeCommit runs last inside the
// transaction, so a failed receipt send also rolls everything back.
func (m *MySQLAdapter) PlaceOrder(ctx context.Context, order domain.Order, items []domain.OrderItem, beforeCommit func(context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total_amount, is_paid, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.TotalAmount, order.IsPaid, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET inventory = inventory - ?, updated_at = NOW()
			WHERE id = ? AND inventory >= ?`,
			item.Quantity, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement inventory: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("%w: product %s", port.ErrInsufficientInventory, item.ProductID)
		}
	}

	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return fmt.Errorf("pre-commit step: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) HasPaidOrder(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = ? AND oi.product_id = ? AND o.is_paid = 1
		)`, userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query paid orders: %w", err)
	}
	return exists, nil
}

// Reviews

func (m *MySQLAdapter) CreateReview(ctx context.Context, review domain.Review) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.ProductID, review.UserID, review.Rating, review.Comment, review.IsVerified, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListVerifiedReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, product_id, user_id, rating, comment, is_verified, created_at
		FROM reviews WHERE product_id = ? AND is_verified = 1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Rating, &r.Comment, &r.IsVerified, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
