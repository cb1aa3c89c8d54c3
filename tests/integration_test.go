package tests

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/eshop/storefront/internal/adapter/storage"
	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/core/service"
	"github.com/eshop/storefront/internal/port"
)

// The suite needs a MySQL with the migrations/schema.sql tables applied
// and a reachable Redis; otherwise it skips.

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	cache   *storage.RedisAdapter
	db      *storage.MySQLAdapter
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return &testEnv{
		redis: rdb,
		mysql: db,
		cache: storage.NewRedisAdapter(rdb, time.Hour),
		db:    storage.NewMySQLAdapter(db),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

type stubMailer struct {
	mu   sync.Mutex
	err  error
	sent []port.Mail
}

func (m *stubMailer) Send(ctx context.Context, mail port.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (env *testEnv) seedCatalog(t *testing.T) (domain.User, domain.Product, domain.Product) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	buyer := domain.User{
		ID:           uuid.New().String(),
		Email:        uuid.New().String() + "@test.local",
		Name:         "integration buyer",
		PasswordHash: "x",
		CreatedAt:    now,
	}
	vendor := domain.User{
		ID:           uuid.New().String(),
		Email:        uuid.New().String() + "@test.local",
		Name:         "integration vendor",
		PasswordHash: "x",
		IsVendor:     true,
		CreatedAt:    now,
	}
	for _, u := range []domain.User{buyer, vendor} {
		if err := env.db.CreateUser(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	t.Cleanup(func() {
		env.mysql.ExecContext(context.Background(), `DELETE FROM orders WHERE user_id = ?`, buyer.ID)
		env.mysql.ExecContext(context.Background(), `DELETE FROM users WHERE id IN (?, ?)`, buyer.ID, vendor.ID)
	})

	store := domain.Store{ID: uuid.New().String(), OwnerID: vendor.ID, Name: "integration store", CreatedAt: now}
	if err := env.db.CreateStore(ctx, store); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	widget := domain.Product{
		ID: uuid.New().String(), StoreID: store.ID, Name: "Widget",
		Price: decimal.RequireFromString("10.00"), Inventory: 10,
		CreatedAt: now, UpdatedAt: now,
	}
	gadget := domain.Product{
		ID: uuid.New().String(), StoreID: store.ID, Name: "Gadget",
		Price: decimal.RequireFromString("5.00"), Inventory: 1,
		CreatedAt: now, UpdatedAt: now,
	}
	for _, p := range []domain.Product{widget, gadget} {
		if err := env.db.CreateProduct(ctx, p); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
	return buyer, widget, gadget
}

func TestIntegration_CartToCheckoutFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	buyer, widget, gadget := env.seedCatalog(t)

	sessionID := uuid.New().String()
	defer env.cache.Clear(ctx, sessionID)

	mailer := &stubMailer{}
	cartSvc := service.NewCartService(env.cache, env.db)
	checkoutSvc := service.NewCheckoutService(cartSvc, env.db, mailer, "noreply@test.local")

	if err := cartSvc.Add(ctx, sessionID, widget, 3); err != nil {
		t.Fatalf("add widget: %v", err)
	}
	if err := cartSvc.Add(ctx, sessionID, gadget, 5); err != nil {
		t.Fatalf("add gadget: %v", err)
	}

	// Gadget only has one unit; the add must have clamped.
	total, err := cartSvc.TotalPrice(ctx, sessionID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.StringFixed(2) != "35.00" {
		t.Fatalf("expected cart total 35.00, got %s", total.StringFixed(2))
	}

	order, err := checkoutSvc.Checkout(ctx, buyer, sessionID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.TotalAmount.StringFixed(2) != "35.00" {
		t.Errorf("expected order total 35.00, got %s", order.TotalAmount.StringFixed(2))
	}

	storedWidget, _ := env.db.GetProduct(ctx, widget.ID)
	if storedWidget.Inventory != 7 {
		t.Errorf("expected widget inventory 7, got %d", storedWidget.Inventory)
	}
	storedGadget, _ := env.db.GetProduct(ctx, gadget.ID)
	if storedGadget.Inventory != 0 {
		t.Errorf("expected gadget inventory 0, got %d", storedGadget.Inventory)
	}

	quantities, _ := env.cache.Quantities(ctx, sessionID)
	if len(quantities) != 0 {
		t.Errorf("expected cart cleared, got %v", quantities)
	}

	var itemCount int
	env.mysql.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = ?`, order.ID).Scan(&itemCount)
	if itemCount != 2 {
		t.Errorf("expected 2 order items, got %d", itemCount)
	}

	if len(mailer.sent) != 1 {
		t.Errorf("expected 1 receipt, got %d", len(mailer.sent))
	}

	// The completed purchase unlocks a verified review.
	reviewSvc := service.NewReviewService(env.db, env.db)
	review, err := reviewSvc.Add(ctx, buyer, widget.ID, 5, "arrived fast")
	if err != nil {
		t.Fatalf("add review: %v", err)
	}
	if !review.IsVerified {
		t.Error("expected verified review")
	}
}

func TestIntegration_ReceiptFailureLeavesStateUntouched(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	buyer, widget, _ := env.seedCatalog(t)

	sessionID := uuid.New().String()
	defer env.cache.Clear(ctx, sessionID)

	mailer := &stubMailer{err: errors.New("smtp down")}
	cartSvc := service.NewCartService(env.cache, env.db)
	checkoutSvc := service.NewCheckoutService(cartSvc, env.db, mailer, "noreply@test.local")

	if err := cartSvc.Add(ctx, sessionID, widget, 2); err != nil {
		t.Fatalf("add widget: %v", err)
	}

	if _, err := checkoutSvc.Checkout(ctx, buyer, sessionID); err == nil {
		t.Fatal("expected checkout to fail")
	}

	stored, _ := env.db.GetProduct(ctx, widget.ID)
	if stored.Inventory != 10 {
		t.Errorf("expected inventory untouched at 10, got %d", stored.Inventory)
	}

	quantities, _ := env.cache.Quantities(ctx, sessionID)
	if quantities[widget.ID] != 2 {
		t.Errorf("expected cart intact, got %v", quantities)
	}
}

func TestIntegration_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	buyer, widget, _ := env.seedCatalog(t)

	mailer := &stubMailer{}
	cartSvc := service.NewCartService(env.cache, env.db)
	checkoutSvc := service.NewCheckoutService(cartSvc, env.db, mailer, "noreply@test.local")

	// 10 units, 20 buyers wanting one each.
	totalBuyers := 20
	var successes, insufficient int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < totalBuyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			sessionID := uuid.New().String()
			defer env.cache.Clear(ctx, sessionID)

			if err := cartSvc.Add(ctx, sessionID, widget, 1); err != nil {
				t.Errorf("add: %v", err)
				return
			}

			_, err := checkoutSvc.Checkout(ctx, buyer, sessionID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, port.ErrInsufficientInventory):
				insufficient++
			default:
				t.Errorf("unexpected checkout error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 10 {
		t.Errorf("expected exactly 10 successful checkouts, got %d", successes)
	}
	if insufficient != 10 {
		t.Errorf("expected 10 insufficient-inventory rejections, got %d", insufficient)
	}

	stored, _ := env.db.GetProduct(ctx, widget.ID)
	if stored.Inventory != 0 {
		t.Errorf("expected inventory 0, got %d", stored.Inventory)
	}
}
