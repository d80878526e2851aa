package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopwala/shopwala-golang/internal/auth"
	"github.com/shopwala/shopwala-golang/internal/handlers"
	"github.com/shopwala/shopwala-golang/internal/middleware"
)

// Options carries what the router needs besides the handlers.
type Options struct {
	Tokens         *auth.TokenManager
	Logger         *zap.Logger
	AllowedOrigins []string
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// --- Global middleware ---
	// Recovery first so panics in any later middleware still answer JSON.
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORSMiddleware(opts.AllowedOrigins))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", h.Ping)

		// --- Public Catalog Routes ---
		public := v1.Group("/")
		public.Use(middleware.OptionalAuthMiddleware(opts.Tokens))
		{
			public.GET("/categories", h.ListCategories)
			public.GET("/categories/tree", h.GetCategoryTree)
			public.GET("/categories/slug/:slug", h.GetCategoryBySlug)
			public.GET("/categories/:id/attributes", h.GetCategoryAttributes)

			public.GET("/products/search", h.SearchProducts)
			public.GET("/products/bulk", h.GetProductsBulk)
			public.GET("/products/:id", h.GetProduct)

			public.GET("/locations", h.ListRootLocations)
			public.GET("/locations/search", h.SearchLocations)
			public.GET("/locations/with-products", h.ListLocationsWithProducts)
			public.GET("/locations/:id", h.GetLocation)
			public.GET("/locations/:id/children", h.ListChildLocations)
		}

		// --- Protected Routes (Login Required) ---
		authed := v1.Group("/")
		authed.Use(middleware.AuthMiddleware(opts.Tokens))
		{
			// Cart
			authed.GET("/cart", h.GetCart)
			authed.GET("/cart/count", h.GetCartCount)
			authed.POST("/cart/items", h.AddToCart)
			authed.PUT("/cart/items/:itemId", h.UpdateCartItem)
			authed.DELETE("/cart/items/:itemId", h.RemoveCartItem)
			authed.DELETE("/cart", h.ClearCart)

			// Wishlist
			authed.GET("/wishlist", h.GetWishlist)
			authed.POST("/wishlist/:productId", h.AddToWishlist)
			authed.DELETE("/wishlist/:productId", h.RemoveFromWishlist)
			authed.POST("/wishlist/:productId/toggle", h.ToggleWishlist)

			// Checkout & orders
			authed.GET("/checkout", h.GetCheckout)
			authed.POST("/checkout", h.PlaceOrder)
			authed.GET("/orders", h.GetMyOrders)
			authed.GET("/orders/:id", h.GetOrder)
			authed.POST("/orders/:id/cancel", h.CancelOrder)
			authed.PUT("/orders/:id/delivery-time", h.UpdateDeliveryTime)

			// Product chat (buyers and admins)
			authed.POST("/chat/threads", h.OpenThread)
			authed.GET("/chat/threads/:id/messages", h.GetThreadMessages)
			authed.POST("/chat/threads/:id/messages", h.SendMessage)
			authed.POST("/chat/threads/:id/read", h.MarkThreadRead)
			authed.GET("/chat/threads/:id/stream", h.StreamThread)
			authed.GET("/chat/unread", h.GetUnreadCount)
		}

		// --- Admin Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(opts.Tokens), middleware.AdminMiddleware())
		{
			admin.GET("/categories", h.AdminListCategories)
			admin.GET("/categories/:id", h.AdminGetCategory)
			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.GET("/products", h.AdminListProducts)
			admin.GET("/products/:id", h.AdminGetProduct)
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			admin.POST("/locations", h.CreateLocation)
			admin.PUT("/locations/:id", h.UpdateLocation)
			admin.DELETE("/locations/:id", h.DeleteLocation)

			admin.GET("/orders", h.AdminListOrders)
			admin.GET("/orders/statuses", h.ListOrderStatuses)
			admin.GET("/orders/:id", h.GetOrder)
			admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
			admin.POST("/orders/:id/delivery", h.AssignDelivery)
			admin.POST("/orders/:id/delivered", h.MarkOrderDelivered)
			admin.POST("/orders/:id/cancel", h.CancelOrder)

			admin.GET("/chat/threads", h.AdminListThreads)
			admin.GET("/chat/unread", h.GetUnreadCount)
		}
	}

	return router
}
