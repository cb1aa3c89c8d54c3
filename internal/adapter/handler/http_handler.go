package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/core/service"
	"github.com/eshop/storefront/internal/port"
	"github.com/eshop/storefront/pkg/logx"
)

const sessionCookie = "session_id"

type HTTPHandler struct {
	auth     *service.AuthService
	catalog  *service.CatalogService
	cart     *service.CartService
	checkout *service.CheckoutService
	vendor   *service.VendorService
	reviews  *service.ReviewService
	products port.ProductRepository
}

func NewHTTPHandler(
	auth *service.AuthService,
	catalog *service.CatalogService,
	cart *service.CartService,
	checkout *service.CheckoutService,
	vendor *service.VendorService,
	reviews *service.ReviewService,
	products port.ProductRepository,
) *HTTPHandler {
	return &HTTPHandler{
		auth:     auth,
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		vendor:   vendor,
		reviews:  reviews,
		products: products,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/register", h.RegisterUser)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.ProductDetail)
	mux.HandleFunc("POST /api/products/{id}/reviews", h.AddReview)

	mux.HandleFunc("GET /api/cart", h.ViewCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/cart/items", h.UpdateCartItems)
	mux.HandleFunc("DELETE /api/cart/items/{productID}", h.RemoveCartItem)
	mux.HandleFunc("POST /api/checkout", h.Checkout)

	mux.HandleFunc("GET /api/stores", h.ListStores)
	mux.HandleFunc("POST /api/stores", h.CreateStore)
	mux.HandleFunc("PUT /api/stores/{storeID}", h.UpdateStore)
	mux.HandleFunc("DELETE /api/stores/{storeID}", h.DeleteStore)
	mux.HandleFunc("GET /api/stores/{storeID}/products", h.StoreProducts)
	mux.HandleFunc("POST /api/stores/{storeID}/products", h.CreateProduct)
	mux.HandleFunc("PUT /api/stores/{storeID}/products/{productID}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/stores/{storeID}/products/{productID}", h.DeleteProduct)
	mux.HandleFunc("POST /api/stores/{storeID}/products/{productID}/inventory", h.AdjustInventory)
	mux.HandleFunc("POST /api/stores/{storeID}/products/{productID}/price", h.AdjustPrice)
}

// DTOs

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	IsVendor bool   `json:"is_vendor"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsVendor bool   `json:"is_vendor"`
}

type productResponse struct {
	ID          string `json:"id"`
	StoreID     string `json:"store_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Inventory   int    `json:"inventory"`
	ImagePath   string `json:"image_path,omitempty"`
}

type reviewResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	IsVerified bool   `json:"is_verified"`
}

type productDetailResponse struct {
	Product   productResponse  `json:"product"`
	Reviews   []reviewResponse `json:"reviews"`
	Purchased bool             `json:"purchased"`
}

type cartLineResponse struct {
	Product   productResponse `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice string          `json:"unit_price"`
	LineTotal string          `json:"line_total"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total string             `json:"total"`
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  string `json:"quantity"`
}

type updateCartRequest struct {
	// Items maps product ID to the requested quantity, kept as a raw
	// string so unparseable input can be ignored instead of rejected.
	Items map[string]string `json:"items"`
}

type orderResponse struct {
	ID          string `json:"id"`
	TotalAmount string `json:"total_amount"`
	IsPaid      bool   `json:"is_paid"`
}

type storeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoPath    string `json:"logo_path"`
}

type storeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoPath    string `json:"logo_path,omitempty"`
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Inventory   int    `json:"inventory"`
	ImagePath   string `json:"image_path"`
}

type adjustInventoryRequest struct {
	Action string `json:"action"`
	Amount string `json:"amount"`
}

type adjustPriceRequest struct {
	Price string `json:"price"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Auth

func (h *HTTPHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "email and password are required"})
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password, req.IsVendor)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Registration logs the user straight in.
	token, _, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	setSessionCookie(w, token)

	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	setSessionCookie(w, token)

	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			logx.Warn().Err(err).Msg("logout failed")
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Catalog

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	viewer, _ := h.currentUser(r)

	detail, err := h.catalog.Product(r.Context(), r.PathValue("id"), viewer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if detail == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "product not found"})
		return
	}

	reviews := make([]reviewResponse, 0, len(detail.Reviews))
	for _, rv := range detail.Reviews {
		reviews = append(reviews, reviewResponse{
			ID:         rv.ID,
			UserID:     rv.UserID,
			Rating:     rv.Rating,
			Comment:    rv.Comment,
			IsVerified: rv.IsVerified,
		})
	}
	writeJSON(w, http.StatusOK, productDetailResponse{
		Product:   toProductResponse(detail.Product),
		Reviews:   reviews,
		Purchased: detail.Purchased,
	})
}

// Cart

func (h *HTTPHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	lines, err := h.cart.Items(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	total := decimal.Zero
	items := make([]cartLineResponse, 0, len(lines))
	for _, line := range lines {
		total = total.Add(line.LineTotal)
		items = append(items, cartLineResponse{
			Product:   toProductResponse(line.Product),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: items, Total: total.StringFixed(2)})
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	product, err := h.products.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if product == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "product not found"})
		return
	}

	if err := h.cart.Add(r.Context(), sessionID, *product, parseAddQuantity(req.Quantity)); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (h *HTTPHandler) UpdateCartItems(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req updateCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	lines, err := h.cart.Items(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	for _, line := range lines {
		raw, present := req.Items[line.Product.ID]
		if !present {
			continue
		}
		if err := h.cart.Update(r.Context(), sessionID, line.Product, raw); err != nil {
			h.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), r.PathValue("productID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if product == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "product not found"})
		return
	}

	if err := h.cart.Remove(r.Context(), sessionID, *product); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, sessionID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	order, err := h.checkout.Checkout(r.Context(), *user, sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		ID:          order.ID,
		TotalAmount: order.TotalAmount.StringFixed(2),
		IsPaid:      order.IsPaid,
	})
}

// Reviews

func (h *HTTPHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	review, err := h.reviews.Add(r.Context(), *user, r.PathValue("id"), req.Rating, req.Comment)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reviewResponse{
		ID:         review.ID,
		UserID:     review.UserID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		IsVerified: review.IsVerified,
	})
}

// Vendor

func (h *HTTPHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	stores, err := h.vendor.Stores(r.Context(), *user)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]storeResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, toStoreResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "store name is required"})
		return
	}

	store, err := h.vendor.CreateStore(r.Context(), *user, req.Name, req.Description, req.LogoPath)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStoreResponse(*store))
}

func (h *HTTPHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	store, err := h.vendor.UpdateStore(r.Context(), *user, r.PathValue("storeID"), req.Name, req.Description, req.LogoPath)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStoreResponse(*store))
}

func (h *HTTPHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.vendor.DeleteStore(r.Context(), *user, r.PathValue("storeID")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *HTTPHandler) StoreProducts(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	products, err := h.vendor.StoreProducts(r.Context(), *user, r.PathValue("storeID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "product name is required"})
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid price"})
		return
	}

	product, err := h.vendor.CreateProduct(r.Context(), *user, r.PathValue("storeID"), req.Name, req.Description, price, req.Inventory, req.ImagePath)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(*product))
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	product, err := h.vendor.UpdateProduct(r.Context(), *user, r.PathValue("storeID"), r.PathValue("productID"), req.Name, req.Description, req.ImagePath)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*product))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.vendor.DeleteProduct(r.Context(), *user, r.PathValue("storeID"), r.PathValue("productID")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *HTTPHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req adjustInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	err := h.vendor.AdjustInventory(r.Context(), *user, r.PathValue("storeID"), r.PathValue("productID"), req.Action, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "inventory updated"})
}

func (h *HTTPHandler) AdjustPrice(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req adjustPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	err := h.vendor.AdjustPrice(r.Context(), *user, r.PathValue("storeID"), r.PathValue("productID"), req.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "price updated"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

// parseAddQuantity mirrors the lenient form parsing for add-to-cart:
// empty or unparseable input means 1, anything below 1 is raised to 1.
func parseAddQuantity(raw string) int {
	quantity := 1
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && v > 1 {
		quantity = v
	}
	return quantity
}

func (h *HTTPHandler) currentUser(r *http.Request) (*domain.User, string) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, ""
	}

	user, err := h.auth.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		return nil, ""
	}
	return user, cookie.Value
}

// requireSession needs a session cookie but not a resolved user: browsing
// a cart works for any session the store has seen.
func (h *HTTPHandler) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "login required"})
		return "", false
	}
	return cookie.Value, true
}

func (h *HTTPHandler) requireUser(w http.ResponseWriter, r *http.Request) (*domain.User, string, bool) {
	user, sessionID := h.currentUser(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "login required"})
		return nil, "", false
	}
	return user, sessionID, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNoSession):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrNotVendor):
		status, message = http.StatusForbidden, "you are not a vendor"
	case errors.Is(err, service.ErrNotOwner):
		status, message = http.StatusForbidden, "store belongs to another vendor"
	case errors.Is(err, service.ErrNotVerifiedPurchaser):
		status, message = http.StatusForbidden, "only verified purchasers can leave a review"
	case errors.Is(err, service.ErrStoreNotFound):
		status, message = http.StatusNotFound, "store not found"
	case errors.Is(err, service.ErrProductNotFound):
		status, message = http.StatusNotFound, "product not found"
	case errors.Is(err, service.ErrEmailTaken):
		status, message = http.StatusConflict, "email already registered"
	case errors.Is(err, service.ErrEmptyCart):
		status, message = http.StatusConflict, "cart is empty"
	case errors.Is(err, port.ErrInsufficientInventory):
		status, message = http.StatusGone, "insufficient inventory"
	case errors.Is(err, service.ErrInvalidPrice):
		status, message = http.StatusBadRequest, "invalid price"
	case errors.Is(err, service.ErrInvalidRating):
		status, message = http.StatusBadRequest, "rating must be between 1 and 5"
	}

	if status == http.StatusInternalServerError {
		logx.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Message: message})
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, IsVendor: u.IsVendor}
}

func toStoreResponse(s domain.Store) storeResponse {
	return storeResponse{ID: s.ID, Name: s.Name, Description: s.Description, LogoPath: s.LogoPath}
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		StoreID:     p.StoreID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Inventory:   p.Inventory,
		ImagePath:   p.ImagePath,
	}
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
