package orderControllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/KeshavWanjale/Book-Store/auth"
	"github.com/KeshavWanjale/Book-Store/mailer"
	"github.com/KeshavWanjale/Book-Store/metrics"
	"github.com/KeshavWanjale/Book-Store/middleware"
	"github.com/KeshavWanjale/Book-Store/models"
	"github.com/KeshavWanjale/Book-Store/routes"
)

func TestMain(m *testing.M) {
	metrics.MustRegister("test")
	os.Exit(m.Run())
}

func newServer(t *testing.T) (*gin.Engine, *gorm.DB, *auth.Tokens) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	tokens := auth.New("test-secret", "book-store", 15*time.Minute, time.Hour, time.Hour)

	r := gin.New()
	routes.SetupRoutes(r, routes.Deps{
		DB:          db,
		Tokens:      tokens,
		Mail:        mailer.NewDispatcher(mailer.LogMailer{}, 4),
		BaseURL:     "http://localhost:8080",
		AuthLimiter: middleware.NewRateLimiter(0),
	})
	return r, db, tokens
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Email: email, Username: "buyer", Password: string(hash), IsVerified: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedBook(t *testing.T, db *gorm.DB, name string, price, stock int64) models.Book {
	t.Helper()
	book := models.Book{Name: name, Author: "Test Author", Price: price, Stock: stock}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

func bearer(t *testing.T, tokens *auth.Tokens, userID uint) string {
	t.Helper()
	tok, err := tokens.Issue(userID, auth.TokenAccess)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func addItem(t *testing.T, r http.Handler, token string, bookID uint, qty int64) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/cart", token, gin.H{"book_id": bookID, "quantity": qty})
	if w.Code != http.StatusCreated && w.Code != http.StatusOK {
		t.Fatalf("add book %d: got %d: %s", bookID, w.Code, w.Body.String())
	}
}

func placeOrder(t *testing.T, r http.Handler, token string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/cart/orders", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("place order: got %d: %s", w.Code, w.Body.String())
	}
}

func bookStock(t *testing.T, db *gorm.DB, id uint) int64 {
	t.Helper()
	var book models.Book
	if err := db.First(&book, id).Error; err != nil {
		t.Fatalf("load book %d: %v", id, err)
	}
	return book.Stock
}

func orderOf(t *testing.T, db *gorm.DB, userID uint) models.Cart {
	t.Helper()
	var order models.Cart
	if err := db.Where("user_id = ? AND is_ordered = ?", userID, true).First(&order).Error; err != nil {
		t.Fatalf("load order for user %d: %v", userID, err)
	}
	return order
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func TestOrderEndpointsRequireAuth(t *testing.T) {
	r, _, _ := newServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/cart/orders"},
		{http.MethodPost, "/cart/orders"},
		{http.MethodDelete, "/cart/orders/1"},
	} {
		w := doJSON(t, r, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestPlaceOrderDecrementsStockAndClosesCart(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	book := seedBook(t, db, "Ordered Book", 500, 10)
	token := bearer(t, tokens, user.ID)

	addItem(t, r, token, book.ID, 2)

	w := doJSON(t, r, http.MethodPost, "/cart/orders", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["message"] != "The order placed" {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	if got := bookStock(t, db, book.ID); got != 8 {
		t.Fatalf("stock not decremented: got %d, want 8", got)
	}
	order := orderOf(t, db, user.ID)
	if !order.IsOrdered {
		t.Fatal("cart not flagged as ordered")
	}

	// The ordered cart is no longer the active cart.
	w = doJSON(t, r, http.MethodGet, "/cart", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for active cart after ordering, got %d", w.Code)
	}
}

func TestPlaceOrderRequiresActiveCart(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	token := bearer(t, tokens, user.ID)

	w := doJSON(t, r, http.MethodPost, "/cart/orders", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["message"] != "No active cart to order." {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	book := seedBook(t, db, "Removed Book", 500, 10)
	token := bearer(t, tokens, user.ID)

	addItem(t, r, token, book.ID, 1)
	w := doJSON(t, r, http.MethodDelete, "/cart/"+itoa(book.ID), token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("drain cart: got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/cart/orders", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["message"] != "The cart is empty." {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestPlaceOrderAbortsWithoutPartialDecrement(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	plenty := seedBook(t, db, "Plentiful Book", 300, 5)
	scarce := seedBook(t, db, "Scarce Book", 200, 3)
	token := bearer(t, tokens, user.ID)

	addItem(t, r, token, plenty.ID, 2)
	addItem(t, r, token, scarce.ID, 3)

	// Stock drains underneath the cart before the order goes in.
	if err := db.Model(&models.Book{}).Where("id = ?", scarce.ID).Update("stock", 1).Error; err != nil {
		t.Fatalf("shrink stock: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/cart/orders", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["message"] != "Insufficient stock for the book Scarce Book." {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	// Nothing was applied: the healthy line kept its stock and the cart
	// stayed open.
	if got := bookStock(t, db, plenty.ID); got != 5 {
		t.Fatalf("healthy line lost stock: got %d, want 5", got)
	}
	if got := bookStock(t, db, scarce.ID); got != 1 {
		t.Fatalf("short line stock changed: got %d, want 1", got)
	}
	var cart models.Cart
	if err := db.Where("user_id = ? AND is_ordered = ?", user.ID, false).First(&cart).Error; err != nil {
		t.Fatalf("active cart gone after failed order: %v", err)
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	book := seedBook(t, db, "Returned Book", 500, 10)
	token := bearer(t, tokens, user.ID)

	addItem(t, r, token, book.ID, 2)
	placeOrder(t, r, token)
	if got := bookStock(t, db, book.ID); got != 8 {
		t.Fatalf("stock after order: got %d, want 8", got)
	}
	order := orderOf(t, db, user.ID)

	w := doJSON(t, r, http.MethodDelete, "/cart/orders/"+itoa(order.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["message"] != "Order cancelled successfully." {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	if got := bookStock(t, db, book.ID); got != 10 {
		t.Fatalf("stock not restored: got %d, want 10", got)
	}
	var carts, lines int64
	if err := db.Model(&models.Cart{}).Count(&carts).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if err := db.Model(&models.CartItem{}).Count(&lines).Error; err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if carts != 0 || lines != 0 {
		t.Fatalf("cancelled order left rows behind: carts=%d lines=%d", carts, lines)
	}
}

func TestCancelOrderUnknownID(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	token := bearer(t, tokens, user.ID)

	w := doJSON(t, r, http.MethodDelete, "/cart/orders/9999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["message"] != "No order found to cancel." {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestCancelOrderOwnedByAnotherUser(t *testing.T) {
	r, db, tokens := newServer(t)
	owner := seedUser(t, db, "owner@example.com")
	book := seedBook(t, db, "Private Book", 500, 10)
	ownerToken := bearer(t, tokens, owner.ID)

	addItem(t, r, ownerToken, book.ID, 2)
	placeOrder(t, r, ownerToken)
	order := orderOf(t, db, owner.ID)

	intruder := seedUser(t, db, "intruder@example.com")
	intruderToken := bearer(t, tokens, intruder.ID)

	w := doJSON(t, r, http.MethodDelete, "/cart/orders/"+itoa(order.ID), intruderToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["message"] != "No order found to cancel." {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	// The order and its stock decrement survive the failed takeover.
	if got := bookStock(t, db, book.ID); got != 8 {
		t.Fatalf("stock changed: got %d, want 8", got)
	}
	if err := db.First(&models.Cart{}, order.ID).Error; err != nil {
		t.Fatalf("order gone: %v", err)
	}
}

func TestCancelOrderRejectsNonNumericID(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	token := bearer(t, tokens, user.ID)

	w := doJSON(t, r, http.MethodDelete, "/cart/orders/not-a-number", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetOrdersListsOrderedCarts(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	first := seedBook(t, db, "First Order Book", 300, 10)
	second := seedBook(t, db, "Second Order Book", 200, 10)
	token := bearer(t, tokens, user.ID)

	w := doJSON(t, r, http.MethodGet, "/cart/orders", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any order, got %d", w.Code)
	}
	if body := decode(t, w); body["message"] != "No order Found" {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	addItem(t, r, token, first.ID, 1)
	placeOrder(t, r, token)
	addItem(t, r, token, second.ID, 2)
	placeOrder(t, r, token)

	w = doJSON(t, r, http.MethodGet, "/cart/orders", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["message"] != "Order details fetched successfully." {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	raw, err := json.Marshal(body["data"])
	if err != nil {
		t.Fatalf("remarshal data: %v", err)
	}
	var orders []models.Cart
	if err := json.Unmarshal(raw, &orders); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	for i, order := range orders {
		if !order.IsOrdered {
			t.Fatalf("order %d not flagged as ordered", i)
		}
		if len(order.Items) != 1 {
			t.Fatalf("order %d missing its lines: %+v", i, order.Items)
		}
	}
	if orders[0].TotalPrice != 300 || orders[1].TotalPrice != 400 {
		t.Fatalf("unexpected order totals: %d, %d", orders[0].TotalPrice, orders[1].TotalPrice)
	}
}

func TestOrderFeedBroadcastsLifecycle(t *testing.T) {
	r, db, tokens := newServer(t)
	user := seedUser(t, db, "buyer@example.com")
	book := seedBook(t, db, "Broadcast Book", 500, 10)
	token := bearer(t, tokens, user.ID)

	addItem(t, r, token, book.ID, 2)

	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/cart/orders/feed"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	// Give the feed handler a beat to register the subscriber.
	time.Sleep(50 * time.Millisecond)

	readEvent := func() (string, uint) {
		t.Helper()
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read feed event: %v", err)
		}
		var event struct {
			Event string `json:"event"`
			Order struct {
				ID uint `json:"id"`
			} `json:"order"`
		}
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("decode feed event %q: %v", raw, err)
		}
		return event.Event, event.Order.ID
	}

	placeOrder(t, r, token)
	order := orderOf(t, db, user.ID)

	event, id := readEvent()
	if event != "order_placed" || id != order.ID {
		t.Fatalf("unexpected event: %s order %d, want order_placed order %d", event, id, order.ID)
	}

	w := doJSON(t, r, http.MethodDelete, "/cart/orders/"+itoa(order.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel order: got %d: %s", w.Code, w.Body.String())
	}

	event, id = readEvent()
	if event != "order_cancelled" || id != order.ID {
		t.Fatalf("unexpected event: %s order %d, want order_cancelled order %d", event, id, order.ID)
	}
}
