package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/cache"
	"github.com/shopwala/shopwala-golang/internal/chat"
	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/events"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	cache     *cache.Memory
	hub       *chat.Hub
	publisher *recordingPublisher

	categories *CategoryService
	products   *ProductService
	locations  *LocationService
	cart       *CartService
	wishlist   *WishlistService
	orders     *OrderService
	checkout   *CheckoutService
	chat       *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvDSN(t, "file::memory:")
}

// newTestEnvFK enforces foreign keys the way MySQL does.
func newTestEnvFK(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvDSN(t, "file::memory:?_foreign_keys=on")
}

func newTestEnvDSN(t *testing.T, dsn string) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	uow := database.NewUnitOfWork(db)
	mem := cache.NewMemory()
	hub := chat.NewHub(4)
	pub := &recordingPublisher{}

	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	env := &testEnv{db: db, cache: mem, hub: hub, publisher: pub}
	env.categories = NewCategoryService(categoryRepo, productRepo, uow, mem, time.Minute)
	env.locations = NewLocationService(locationRepo, productRepo, uow)
	env.products = NewProductService(productRepo, env.categories, env.locations, uow, mem)
	env.cart = NewCartService(cartRepo, productRepo, uow, mem, time.Minute)
	env.wishlist = NewWishlistService(repository.NewWishlistRepository(db), productRepo)
	env.orders = NewOrderService(orderRepo, productRepo, uow, pub)
	env.checkout = NewCheckoutService(env.cart, env.orders, cartRepo, productRepo, uow, []string{"Karachi"})
	env.chat = NewChatService(repository.NewChatRepository(db), productRepo, hub)
	return env
}

func statusPtr(s models.EntityStatus) *models.EntityStatus {
	return &s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func (e *testEnv) category(t *testing.T, name string, parentID *int64) *models.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), CategoryInput{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return c
}

func (e *testEnv) location(t *testing.T, name string, parentID *int64) *models.Location {
	t.Helper()
	l, err := e.locations.Create(context.Background(), LocationInput{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return l
}

func (e *testEnv) product(t *testing.T, name, sku string, categoryID int64, price string, stock int) *models.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), ProductInput{
		Name:          name,
		SKU:           sku,
		CategoryID:    categoryID,
		PurchasePrice: dec("1"),
		SalePrice:     dec(price),
		Stock:         stock,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) stock(t *testing.T, productID int64) int {
	t.Helper()
	var p models.Product
	require.NoError(t, e.db.First(&p, "id = ?", productID).Error)
	return p.Stock
}
