package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubCartService struct {
	token    string
	added    cart.ItemRef
	quantity cart.QuantityInput
	cleared  bool
}

func (s *stubCartService) Get(ctx context.Context, token string) (*cart.View, error) {
	s.token = token
	return &cart.View{Subtotal: decimal.Zero}, nil
}

func (s *stubCartService) AddItem(ctx context.Context, token string, ref cart.ItemRef) (*cart.View, error) {
	s.token, s.added = token, ref
	return &cart.View{ItemCount: 1, Subtotal: decimal.NewFromInt(499)}, nil
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, token string, input cart.QuantityInput) (*cart.View, error) {
	s.token, s.quantity = token, input
	return &cart.View{}, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, token string, ref cart.ItemRef) (*cart.View, error) {
	s.token = token
	return &cart.View{}, nil
}

func (s *stubCartService) Clear(ctx context.Context, token string) error {
	s.token, s.cleared = token, true
	return nil
}

func withCartSession(handler http.Handler) http.Handler {
	return middleware.CartSession(nil)(handler)
}

func TestCartAddItemUsesSessionToken(t *testing.T) {
	svc := &stubCartService{}
	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", bytes.NewBufferString(body))
	req.Header.Set(middleware.CartSessionHeader, "cart-token-1")
	rec := httptest.NewRecorder()
	withCartSession(CartAddItem(svc, nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.token != "cart-token-1" || svc.added.ProductID != productID || svc.added.VariantID != nil {
		t.Fatalf("unexpected call: token=%s ref=%+v", svc.token, svc.added)
	}
	if rec.Header().Get(middleware.CartSessionHeader) != "cart-token-1" {
		t.Fatal("expected cart session echoed")
	}
}

func TestCartUpdateQuantityDecodesEmbeddedRef(t *testing.T) {
	svc := &stubCartService{}
	productID, variantID := uuid.New(), uuid.New()
	body := `{"product_id":"` + productID.String() + `","variant_id":"` + variantID.String() + `","quantity":0}`
	req := httptest.NewRequest(http.MethodPatch, "/api/cart/items", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	withCartSession(CartUpdateQuantity(svc, nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.quantity.ProductID != productID || svc.quantity.VariantID == nil || *svc.quantity.VariantID != variantID || svc.quantity.Quantity != 0 {
		t.Fatalf("unexpected input: %+v", svc.quantity)
	}
}

func TestCartRequiresSession(t *testing.T) {
	rec := httptest.NewRecorder()
	CartGet(&stubCartService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without cart session got %d", rec.Code)
	}
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	rec := httptest.NewRecorder()
	withCartSession(CartClear(svc, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/cart", nil))
	if rec.Code != http.StatusNoContent || !svc.cleared {
		t.Fatalf("expected cleared cart, code=%d", rec.Code)
	}
}

type stubCheckoutService struct {
	placed   checkout.PlaceOrderInput
	placeErr error
	shipping checkout.ShippingInput
}

func (s *stubCheckoutService) View(ctx context.Context, token string) (*checkout.View, error) {
	return &checkout.View{State: checkout.StateShipping}, nil
}

func (s *stubCheckoutService) SubmitShipping(ctx context.Context, token string, input checkout.ShippingInput) (*checkout.View, error) {
	s.shipping = input
	return &checkout.View{State: checkout.StatePayment}, nil
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, token string, input checkout.PlaceOrderInput) (*checkout.View, error) {
	s.placed = input
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &checkout.View{State: checkout.StateConfirmation, OrderRef: "ABCDEF12"}, nil
}

func (s *stubCheckoutService) Reset(ctx context.Context, token string) error {
	return nil
}

func TestCheckoutShippingValidatesAddress(t *testing.T) {
	svc := &stubCheckoutService{}
	body := `{"email":"a@b.co","address":{"full_name":"Asha","phone":"9999999999","address_line1":"","city":"Pune","state":"MH","pincode":"411001"}}`
	rec := httptest.NewRecorder()
	withCartSession(CheckoutShipping(svc, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checkout/shipping", bytes.NewBufferString(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCheckoutShippingPassesAccountEmail(t *testing.T) {
	svc := &stubCheckoutService{}
	body := `{"address":{"full_name":"Asha","phone":"9999999999","address_line1":"12 MG Road","city":"Pune","state":"MH","pincode":"411001"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/shipping", bytes.NewBufferString(body))
	req = req.WithContext(middleware.WithEmail(req.Context(), "asha@example.com"))
	rec := httptest.NewRecorder()
	withCartSession(CheckoutShipping(svc, nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.shipping.Email != "" || svc.shipping.AccountEmail != "asha@example.com" {
		t.Fatalf("unexpected shipping input %+v", svc.shipping)
	}
	if svc.shipping.Address.Pincode != "411001" {
		t.Fatalf("address not decoded: %+v", svc.shipping.Address)
	}
}

func TestCheckoutPlaceOrderLinksSignedInUser(t *testing.T) {
	svc := &stubCheckoutService{}
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/place-order", bytes.NewBufferString(`{"payment_method":"COD"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	rec := httptest.NewRecorder()
	withCartSession(CheckoutPlaceOrder(svc, nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.placed.UserID == nil || *svc.placed.UserID != userID {
		t.Fatalf("expected user linked, got %+v", svc.placed.UserID)
	}
}

func TestCheckoutPlaceOrderSurfacesError(t *testing.T) {
	svc := &stubCheckoutService{placeErr: pkgerrors.New(pkgerrors.CodeStateConflict, "Cash on delivery is not available")}
	rec := httptest.NewRecorder()
	withCartSession(CheckoutPlaceOrder(svc, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checkout/place-order", bytes.NewBufferString(`{}`)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&payload)
	if payload.Error != "Cash on delivery is not available" {
		t.Fatalf("unexpected error %q", payload.Error)
	}
	if svc.placed.UserID != nil {
		t.Fatal("expected anonymous order")
	}
}

type stubOrderService struct {
	created  orders.CreateOrderInput
	listed   orders.ListInput
	statusID uuid.UUID
	status   enums.OrderStatus
}

func (s *stubOrderService) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.created = input
	return &orders.OrderDTO{ID: uuid.New()}, nil
}

func (s *stubOrderService) ListMine(ctx context.Context, userID uuid.UUID) ([]orders.OrderDTO, error) {
	return []orders.OrderDTO{}, nil
}

func (s *stubOrderService) GetMine(ctx context.Context, userID, id uuid.UUID) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrderService) List(ctx context.Context, input orders.ListInput) (*pagination.PageResult[orders.OrderDTO], error) {
	s.listed = input
	return &pagination.PageResult[orders.OrderDTO]{Items: []orders.OrderDTO{}}, nil
}

func (s *stubOrderService) Get(ctx context.Context, id uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: id}, nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error) {
	s.statusID, s.status = id, status
	return &orders.OrderDTO{ID: id}, nil
}

func (s *stubOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestOrdersCreateRequiresItems(t *testing.T) {
	svc := &stubOrderService{}
	body := `{"customer_name":"Asha","customer_email":"a@b.co","customer_phone":"99","shipping_address":{"full_name":"Asha","phone":"99","address_line1":"1 Road","city":"Pune","state":"MH","pincode":"411001"},"payment_method":"COD","items":[]}`
	rec := httptest.NewRecorder()
	OrdersCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestOrdersCreateRejectsClientPrices(t *testing.T) {
	svc := &stubOrderService{}
	body := `{"customer_name":"Asha","customer_email":"a@b.co","customer_phone":"99","shipping_address":{"full_name":"Asha","phone":"99","address_line1":"1 Road","city":"Pune","state":"MH","pincode":"411001"},"payment_method":"COD","items":[{"product_id":"` + uuid.NewString() + `","quantity":1,"unit_price":1}]}`
	rec := httptest.NewRecorder()
	OrdersCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown price field to be rejected, got %d", rec.Code)
	}
}

func TestOrdersMineRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	OrdersMine(&stubOrderService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/mine", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAdminListOrdersParsesFilters(t *testing.T) {
	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	AdminListOrders(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders?page=2&limit=10&status=Shipped&q=asha", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.listed.Page.Number != 2 || svc.listed.Page.Limit != 10 || svc.listed.Search != "asha" {
		t.Fatalf("unexpected input %+v", svc.listed)
	}
	if svc.listed.Status == nil || *svc.listed.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped filter, got %v", svc.listed.Status)
	}

	rec = httptest.NewRecorder()
	AdminListOrders(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=lost", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", rec.Code)
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	svc := &stubOrderService{}
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+id.String()+"/status", bytes.NewBufferString(`{"status":"Delivered"}`)), "id", id.String())
	rec := httptest.NewRecorder()
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.statusID != id || svc.status != enums.OrderStatusDelivered {
		t.Fatalf("unexpected update %s %s", svc.statusID, svc.status)
	}

	req = withURLParam(httptest.NewRequest(http.MethodPut, "/api/admin/orders/x/status", bytes.NewBufferString(`{"status":"Delivered"}`)), "id", "x")
	rec = httptest.NewRecorder()
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", rec.Code)
	}
}

type stubCouponService struct {
	coupons.Service
	code     string
	subtotal decimal.Decimal
	err      error
}

func (s *stubCouponService) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*coupons.ValidationResult, error) {
	s.code, s.subtotal = code, subtotal
	if s.err != nil {
		return nil, s.err
	}
	return &coupons.ValidationResult{Code: code, Discount: decimal.NewFromInt(100), TotalAfterDiscount: subtotal.Sub(decimal.NewFromInt(100))}, nil
}

func TestCouponsValidate(t *testing.T) {
	svc := &stubCouponService{}
	rec := httptest.NewRecorder()
	CouponsValidate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/coupons/validate", bytes.NewBufferString(`{"code":"SAVE10","subtotal":"1000.00"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.code != "SAVE10" || !svc.subtotal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected call %s %s", svc.code, svc.subtotal)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeValidation, "Minimum order amount is ₹500")
	rec = httptest.NewRecorder()
	CouponsValidate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/coupons/validate", bytes.NewBufferString(`{"code":"SAVE10","subtotal":100}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
