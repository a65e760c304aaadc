package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/brandstock/internal/app"
	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/inventory"
	"github.com/odyssey-erp/brandstock/internal/masterdata/brands"
	"github.com/odyssey-erp/brandstock/internal/masterdata/categories"
	"github.com/odyssey-erp/brandstock/internal/masterdata/products"
	"github.com/odyssey-erp/brandstock/internal/masterdata/stores"
	"github.com/odyssey-erp/brandstock/internal/platform/cache"
	"github.com/odyssey-erp/brandstock/internal/platform/db"
	"github.com/odyssey-erp/brandstock/internal/shared"
	"github.com/odyssey-erp/brandstock/internal/users"
)

func main() {
	schema := flag.String("schema", "migrations/0001_init.sql", "schema file applied before seeding; empty to skip")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if *schema != "" {
		fmt.Println("→ Applying schema...")
		ddl, err := os.ReadFile(*schema)
		if err != nil {
			log.Fatalf("read schema: %v", err)
		}
		if _, err := pool.Exec(ctx, string(ddl)); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	fmt.Println("→ Seeding admin...")
	userRepo := users.NewRepository(pool)
	admin := users.User{
		ID:        uuid.New(),
		Email:     "admin@brandstock.local",
		Name:      "System Admin",
		Role:      brandscope.RoleSystemAdmin,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := userRepo.Insert(ctx, admin); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			log.Fatalf("admin already exists, database looks seeded")
		}
		log.Fatalf("seed admin: %v", err)
	}
	actor := admin.Actor()

	fmt.Println("→ Seeding master data...")
	brand, err := brands.NewService(brands.NewRepository(pool)).Create(ctx, actor, brands.BrandForm{Name: "Demo Coffee"})
	if err != nil {
		log.Fatalf("seed brand: %v", err)
	}

	storeSvc := stores.NewService(stores.NewRepository(pool))
	var storeIDs []uuid.UUID
	for _, s := range []struct{ name, code string }{{"Downtown", "DT01"}, {"Harbour", "HB01"}} {
		st, err := storeSvc.Create(ctx, actor, stores.StoreForm{BrandID: &brand.ID, Name: s.name, Code: s.code})
		if err != nil {
			log.Fatalf("seed store %s: %v", s.code, err)
		}
		storeIDs = append(storeIDs, st.ID)
	}

	categoryRepo := categories.NewRepository(pool)
	beans, err := categories.NewService(categoryRepo).Create(ctx, actor, categories.CategoryForm{BrandID: &brand.ID, Name: "Beans"})
	if err != nil {
		log.Fatalf("seed category: %v", err)
	}

	productSvc := products.NewService(products.NewRepository(pool), categoryRepo)
	var productIDs []uuid.UUID
	for _, p := range []struct{ sku, name string }{{"BEAN-ETH-250", "Ethiopia Yirgacheffe 250g"}, {"BEAN-COL-250", "Colombia Huila 250g"}} {
		prod, err := productSvc.Create(ctx, actor, products.ProductForm{BrandID: &brand.ID, SKU: p.sku, Name: p.name, CategoryID: &beans.ID})
		if err != nil {
			log.Fatalf("seed product %s: %v", p.sku, err)
		}
		productIDs = append(productIDs, prod.ID)
	}

	fmt.Println("→ Seeding inventory...")
	invSvc := inventory.NewService(inventory.ServiceDeps{
		Repo:  inventory.NewRepository(pool),
		Audit: shared.NewAuditLogger(pool),
	}, inventory.ServiceConfig{})
	for _, productID := range productIDs {
		for _, storeID := range storeIDs {
			rec, err := invSvc.CreateRecord(ctx, actor, inventory.RecordInput{ItemID: productID, LocationID: storeID, MinimumLevel: 10})
			if err != nil {
				log.Fatalf("seed record: %v", err)
			}
			if _, err := invSvc.PostMovement(ctx, actor, inventory.MovementCommand{
				Kind:            inventory.KindInbound,
				Quantity:        25,
				SourceRecordID:  rec.ID,
				ReferenceNumber: "SEED-OPENING",
				Notes:           "opening balance",
			}); err != nil {
				log.Fatalf("seed opening balance: %v", err)
			}
		}
	}

	manager, err := users.NewService(userRepo).CreateUser(ctx, actor, users.CreateInput{
		Email:   "manager@brandstock.local",
		Name:    "Demo Manager",
		Role:    brandscope.RoleBrandManager,
		BrandID: uuid.NullUUID{UUID: brand.ID, Valid: true},
	})
	if err != nil {
		log.Fatalf("seed manager: %v", err)
	}

	sessions := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	for _, u := range []users.User{admin, manager} {
		token, err := sessions.Issue(ctx, u.ID)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Printf("  %-26s %-14s Bearer %s\n", u.Email, u.Role, token)
	}
	fmt.Println("✓ Seed complete")
}
