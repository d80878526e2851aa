package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/auth"
	"github.com/shopwala/shopwala-golang/internal/cache"
	"github.com/shopwala/shopwala-golang/internal/chat"
	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/events"
	"github.com/shopwala/shopwala-golang/internal/middleware"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
	"github.com/shopwala/shopwala-golang/internal/service"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB         *gorm.DB
	Categories *service.CategoryService
	Products   *service.ProductService
	Locations  *service.LocationService
	Cart       *service.CartService
	Wishlist   *service.WishlistService
	Orders     *service.OrderService
	Checkout   *service.CheckoutService
	Chat       *service.ChatService
	Hub        *chat.Hub
}

// Deps are the infrastructure pieces shared by the services.
type Deps struct {
	Cache          cache.Cache
	CacheTTL       time.Duration
	Publisher      events.Publisher
	Hub            *chat.Hub
	DeliveryCities []string
}

// New builds repositories and services on top of db.
func New(db *gorm.DB, deps Deps) *Handlers {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.Hub == nil {
		deps.Hub = chat.NewHub(16)
	}
	uow := database.NewUnitOfWork(db)

	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)

	categories := service.NewCategoryService(categoryRepo, productRepo, uow, deps.Cache, deps.CacheTTL)
	locations := service.NewLocationService(repository.NewLocationRepository(db), productRepo, uow)
	cart := service.NewCartService(cartRepo, productRepo, uow, deps.Cache, deps.CacheTTL)
	orders := service.NewOrderService(repository.NewOrderRepository(db), productRepo, uow, deps.Publisher)

	return &Handlers{
		DB:         db,
		Categories: categories,
		Products:   service.NewProductService(productRepo, categories, locations, uow, deps.Cache),
		Locations:  locations,
		Cart:       cart,
		Wishlist:   service.NewWishlistService(repository.NewWishlistRepository(db), productRepo),
		Orders:     orders,
		Checkout:   service.NewCheckoutService(cart, orders, cartRepo, productRepo, uow, deps.DeliveryCities),
		Chat:       service.NewChatService(repository.NewChatRepository(db), productRepo, deps.Hub),
		Hub:        deps.Hub,
	}
}

// Ping reports liveness and database reachability.
func (h *Handlers) Ping(c *gin.Context) {
	if h.DB != nil {
		if err := database.Ping(c.Request.Context(), h.DB); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "pong!"})
}

// statusFromActive maps the optional "active" flag of admin forms. A missing
// flag leaves the stored status alone.
func statusFromActive(active *bool) *models.EntityStatus {
	if active == nil {
		return nil
	}
	status := models.StatusInactive
	if *active {
		status = models.StatusActive
	}
	return &status
}

// idParam reads a positive integer path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// currentUser is only called behind AuthMiddleware.
func currentUser(c *gin.Context) auth.Identity {
	identity, _ := middleware.CurrentIdentity(c)
	return identity
}

// optionalUser returns the caller on public routes when a valid token was sent.
func optionalUser(c *gin.Context) (auth.Identity, bool) {
	return middleware.CurrentIdentity(c)
}
