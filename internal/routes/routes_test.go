package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopwala/shopwala-golang/internal/auth"
	"github.com/shopwala/shopwala-golang/internal/cache"
	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/handlers"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/routes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	tokens *auth.TokenManager

	admin string
	buyer string
	other string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenSQLite("file::memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	app := handlers.New(db, handlers.Deps{
		Cache:          cache.NewMemory(),
		CacheTTL:       time.Minute,
		DeliveryCities: []string{"Karachi"},
	})
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	s := &testServer{
		t:      t,
		router: routes.SetupRouter(app, routes.Options{Tokens: tokens}),
		tokens: tokens,
	}
	s.admin = s.token("admin-1", auth.RoleSuperAdmin)
	s.buyer = s.token("buyer-1", auth.RoleBuyer)
	s.other = s.token("buyer-2", auth.RoleBuyer)
	return s
}

func (s *testServer) token(userID, role string) string {
	s.t.Helper()
	token, err := s.tokens.GenerateToken(auth.Identity{UserID: userID, Role: role})
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createCategory(name string) int64 {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/admin/categories", s.admin, gin.H{"name": name})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(s.t, w)["id"].(float64))
}

func (s *testServer) createProduct(categoryID int64, name, sku string, stock int) int64 {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/admin/products", s.admin, gin.H{
		"name":          name,
		"sku":           sku,
		"categoryId":    categoryID,
		"purchasePrice": "100",
		"salePrice":     "150",
		"stock":         stock,
		"images":        []string{"/img/a.jpg"},
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(s.t, w)["id"].(float64))
}

func (s *testServer) placeOrder(productID int64, qty int) int64 {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/cart/items", s.buyer, gin.H{"productId": productID, "quantity": qty})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/checkout", s.buyer, gin.H{
		"shippingAddress": "House 12, Street 4",
		"city":            "karachi",
		"phoneNumber":     "+92 300 1234567",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(s.t, w)["id"].(float64))
}

func (s *testServer) productStock(productID int64) int {
	s.t.Helper()
	w := s.do(http.MethodGet, fmt.Sprintf("/v1/products/%d", productID), "", nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	product := decode(s.t, w)["product"].(map[string]any)
	return int(product["stock"].(float64))
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/v1/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong!"}`, w.Body.String())
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/admin/categories", "", gin.H{"name": "Phones"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/v1/admin/categories", s.buyer, gin.H{"name": "Phones"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory("Mobile Phones")
	productID := s.createProduct(categoryID, "Galaxy A15", "PHN-A15", 5)

	w := s.do(http.MethodGet, "/v1/categories/slug/mobile-phones", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Mobile Phones", decode(t, w)["name"])

	w = s.do(http.MethodGet, "/v1/products/search?q=galaxy&categoryId="+fmt.Sprint(categoryID), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)
	assert.EqualValues(t, 1, result["total"])
	items := result["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "PHN-A15", items[0].(map[string]any)["sku"])

	w = s.do(http.MethodGet, "/v1/products/search?minPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/v1/products/bulk?ids=%d,999", productID), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Duplicate SKU.
	w = s.do(http.MethodPost, "/v1/admin/products", s.admin, gin.H{
		"name": "Other", "sku": "PHN-A15", "categoryId": categoryID,
		"purchasePrice": "1", "salePrice": "2", "stock": 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// A category that still holds products cannot be deleted.
	w = s.do(http.MethodDelete, fmt.Sprintf("/v1/admin/categories/%d", categoryID), s.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/v1/products/424242", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/v1/products/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductValidationErrorListsFields(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory("Fashion")

	w := s.do(http.MethodPost, "/v1/admin/products", s.admin, gin.H{
		"name": "Kurta", "sku": "FSH-1", "categoryId": categoryID,
		"purchasePrice": "10", "salePrice": "-5", "stock": 1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Contains(t, body["fields"], "salePrice")
}

func TestWishlistToggleShowsOnProduct(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(s.createCategory("Audio"), "Earbuds", "AUD-1", 3)
	path := fmt.Sprintf("/v1/wishlist/%d/toggle", productID)

	w := s.do(http.MethodPost, path, s.buyer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["inWishlist"])

	w = s.do(http.MethodGet, fmt.Sprintf("/v1/products/%d", productID), s.buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["inWishlist"])

	w = s.do(http.MethodPost, path, s.buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["inWishlist"])
}

func TestCheckoutAndCancel(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(s.createCategory("Phones"), "Galaxy", "PHN-1", 5)

	w := s.do(http.MethodPost, "/v1/checkout", s.buyer, gin.H{
		"shippingAddress": "House 1", "city": "Karachi", "phoneNumber": "03001234567",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/cart/items", s.buyer, gin.H{"productId": productID, "quantity": 9})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	orderID := s.placeOrder(productID, 2)
	assert.Equal(t, 3, s.productStock(productID))

	w = s.do(http.MethodGet, "/v1/cart/count", s.buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0}`, w.Body.String())

	orderPath := fmt.Sprintf("/v1/orders/%d", orderID)
	w = s.do(http.MethodGet, orderPath, s.buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	order := decode(t, w)
	assert.Equal(t, "Pending", order["status"])
	assert.Equal(t, "Karachi", order["city"])

	w = s.do(http.MethodGet, orderPath, s.other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, orderPath+"/cancel", s.buyer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Cancelled", decode(t, w)["status"])
	assert.Equal(t, 5, s.productStock(productID))

	w = s.do(http.MethodPost, orderPath+"/cancel", s.buyer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckoutRejectsUnknownCity(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(s.createCategory("Phones"), "Galaxy", "PHN-1", 5)

	w := s.do(http.MethodPost, "/v1/cart/items", s.buyer, gin.H{"productId": productID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/v1/checkout", s.buyer, gin.H{
		"shippingAddress": "House 1", "city": "Lahore", "phoneNumber": "03001234567",
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["fields"], "city")
}

func TestAdminOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(s.createCategory("Phones"), "Galaxy", "PHN-1", 5)
	orderID := s.placeOrder(productID, 1)
	base := fmt.Sprintf("/v1/admin/orders/%d", orderID)

	w := s.do(http.MethodPut, base+"/status", s.admin, gin.H{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, base+"/status", s.admin, gin.H{"status": "Returned"})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = s.do(http.MethodPut, base+"/status", s.admin, gin.H{"status": "Confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Confirmed", decode(t, w)["status"])

	w = s.do(http.MethodPost, base+"/delivery", s.admin, gin.H{"deliveryBoyName": "Asif", "phoneNumber": "03111111111"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "AssignedToRider", decode(t, w)["status"])

	w = s.do(http.MethodPost, base+"/delivered", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decode(t, w)
	assert.Equal(t, "Delivered", order["status"])
	assert.NotNil(t, order["deliveryAssignment"].(map[string]any)["deliveredDate"])

	// Delivered orders are past cancellation for both sides.
	w = s.do(http.MethodPost, base+"/cancel", s.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/v1/admin/orders?status=delivered", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestLocationTreeEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/admin/locations", s.admin, gin.H{"name": "Karachi"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	karachiID := int64(decode(t, w)["id"].(float64))

	w = s.do(http.MethodPost, "/v1/admin/locations", s.admin, gin.H{"name": "Clifton", "parentId": karachiID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clifton := decode(t, w)
	cliftonID := int64(clifton["id"].(float64))
	assert.Equal(t, "Karachi, Clifton", clifton["fullPath"])

	w = s.do(http.MethodPut, fmt.Sprintf("/v1/admin/locations/%d", karachiID), s.admin, gin.H{"name": "Karachi", "parentId": cliftonID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = s.do(http.MethodDelete, fmt.Sprintf("/v1/admin/locations/%d", karachiID), s.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/v1/locations/%d/children", karachiID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var children []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &children))
	require.Len(t, children, 1)
	assert.Equal(t, "Clifton", children[0]["name"])
}

func TestChatThreadAccess(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(s.createCategory("Phones"), "Galaxy", "PHN-1", 5)

	w := s.do(http.MethodPost, "/v1/chat/threads", s.buyer, gin.H{"productId": productID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	threadID := decode(t, w)["id"].(string)
	base := "/v1/chat/threads/" + threadID

	w = s.do(http.MethodPost, base+"/messages", s.buyer, gin.H{"message": "  Is this available?  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Is this available?", decode(t, w)["message"])

	w = s.do(http.MethodPost, base+"/messages", s.buyer, gin.H{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, base+"/messages", s.other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/v1/admin/chat/unread", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread":1}`, w.Body.String())

	w = s.do(http.MethodPost, base+"/read", s.admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/v1/admin/chat/unread", s.admin, nil)
	assert.JSONEq(t, `{"unread":0}`, w.Body.String())

	w = s.do(http.MethodGet, "/v1/chat/threads/not-a-uuid/messages", s.buyer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateWithoutActiveKeepsStatus(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory("Fashion")
	productID := s.createProduct(categoryID, "Kurta", "FSH-1", 3)
	productPath := fmt.Sprintf("/v1/admin/products/%d", productID)
	categoryPath := fmt.Sprintf("/v1/admin/categories/%d", categoryID)
	product := gin.H{
		"name": "Kurta", "sku": "FSH-1", "categoryId": categoryID,
		"purchasePrice": "100", "salePrice": "150", "stock": 3,
	}

	product["active"] = false
	w := s.do(http.MethodPut, productPath, s.admin, product)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	delete(product, "active")
	w = s.do(http.MethodPut, productPath, s.admin, product)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, models.StatusInactive, decode(t, w)["status"])
	w = s.do(http.MethodGet, fmt.Sprintf("/v1/products/%d", productID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, categoryPath, s.admin, gin.H{"name": "Fashion", "active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPut, categoryPath, s.admin, gin.H{"name": "Clothing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Clothing", body["name"])
	assert.EqualValues(t, models.StatusInactive, body["status"])

	w = s.do(http.MethodPut, categoryPath, s.admin, gin.H{"name": "Clothing", "active": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, models.StatusActive, decode(t, w)["status"])
}

func TestBulkLookupHonoursFirstFiftyIDs(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory("Phones")
	productID := s.createProduct(categoryID, "Galaxy A15", "PHN-A15", 5)

	ids := make([]string, 0, 51)
	for i := 0; i < 50; i++ {
		ids = append(ids, fmt.Sprint(900000+i))
	}
	w := s.do(http.MethodGet, "/v1/products/bulk?ids="+strings.Join(append(ids, fmt.Sprint(productID)), ","), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list, "ids past the first fifty are ignored")

	ids[49] = fmt.Sprint(productID)
	w = s.do(http.MethodGet, "/v1/products/bulk?ids="+strings.Join(ids, ","), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.EqualValues(t, productID, list[0]["id"])
}
