package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/eshop/storefront/internal/adapter/storage"
	"github.com/eshop/storefront/internal/config"
	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/pkg/logx"
)

// Seeds the database with a demo vendor, a buyer, one store and a few
// products so the API can be exercised right after startup.
func main() {
	schemaPath := flag.String("schema", "migrations/schema.sql", "path to the schema file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load config")
	}
	logx.Init(cfg.Environment)

	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect mysql")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logx.Fatal().Err(err).Msg("failed to ping mysql")
	}

	if err := applySchema(ctx, db, *schemaPath); err != nil {
		logx.Fatal().Err(err).Msg("failed to apply schema")
	}
	logx.Info().Str("schema", *schemaPath).Msg("schema applied")

	adapter := storage.NewMySQLAdapter(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to hash demo password")
	}

	now := time.Now()
	vendor := domain.User{
		ID:           uuid.New().String(),
		Email:        "vendor@example.com",
		Name:         "Demo Vendor",
		PasswordHash: string(hash),
		IsVendor:     true,
		CreatedAt:    now,
	}
	buyer := domain.User{
		ID:           uuid.New().String(),
		Email:        "buyer@example.com",
		Name:         "Demo Buyer",
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	for _, user := range []domain.User{vendor, buyer} {
		if err := adapter.CreateUser(ctx, user); err != nil {
			logx.Fatal().Err(err).Str("email", user.Email).Msg("failed to create user")
		}
	}

	store := domain.Store{
		ID:          uuid.New().String(),
		OwnerID:     vendor.ID,
		Name:        "Gadget Emporium",
		Description: "Everything with a battery in it.",
		CreatedAt:   now,
	}
	if err := adapter.CreateStore(ctx, store); err != nil {
		logx.Fatal().Err(err).Msg("failed to create store")
	}

	products := []domain.Product{
		{Name: "Widget", Description: "A dependable widget.", Price: decimal.NewFromFloat(10.00), Inventory: 10},
		{Name: "Gadget", Description: "Limited stock gadget.", Price: decimal.NewFromFloat(5.00), Inventory: 1},
		{Name: "Doohickey", Description: "Currently out of stock.", Price: decimal.NewFromFloat(2.50), Inventory: 0},
	}
	for i := range products {
		products[i].ID = uuid.New().String()
		products[i].StoreID = store.ID
		products[i].CreatedAt = now
		products[i].UpdatedAt = now
		if err := adapter.CreateProduct(ctx, products[i]); err != nil {
			logx.Fatal().Err(err).Str("name", products[i].Name).Msg("failed to create product")
		}
	}

	fmt.Println("========== SEED COMPLETE ==========")
	fmt.Printf("Vendor:  %s / password\n", vendor.Email)
	fmt.Printf("Buyer:   %s / password\n", buyer.Email)
	fmt.Printf("Store:   %s (%s)\n", store.Name, store.ID)
	for _, p := range products {
		fmt.Printf("Product: %-10s $%s  inventory=%d  (%s)\n", p.Name, p.Price.StringFixed(2), p.Inventory, p.ID)
	}
	fmt.Println("===================================")
}

func applySchema(ctx context.Context, db *sql.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}
