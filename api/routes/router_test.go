package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campusmerch/campusmerch-backend/internal/cart"
	"github.com/campusmerch/campusmerch-backend/internal/checkout"
	"github.com/campusmerch/campusmerch-backend/internal/orders"
	"github.com/campusmerch/campusmerch-backend/internal/products"
	pkgAuth "github.com/campusmerch/campusmerch-backend/pkg/auth"
	"github.com/campusmerch/campusmerch-backend/pkg/config"
	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	"github.com/campusmerch/campusmerch-backend/pkg/metrics"
	"github.com/campusmerch/campusmerch-backend/pkg/pagination"
)

type stubProductsService struct{}

func (stubProductsService) ListProducts(ctx context.Context, viewer products.Viewer, query products.ListQuery) (*products.ListResult, error) {
	return &products.ListResult{}, nil
}

func (stubProductsService) GetProduct(ctx context.Context, productID uuid.UUID, viewer products.Viewer) (*products.Detail, error) {
	return &products.Detail{}, nil
}

func (stubProductsService) CreateProduct(ctx context.Context, input products.CreateProductInput) (*products.Detail, error) {
	return &products.Detail{}, nil
}

func (stubProductsService) UpdateProduct(ctx context.Context, productID uuid.UUID, input products.UpdateProductInput) (*products.Detail, error) {
	return &products.Detail{}, nil
}

type stubCartService struct{}

func (stubCartService) GetCart(ctx context.Context, buyerID uuid.UUID, role *enums.Role, affiliation *enums.Affiliation) (*cart.View, error) {
	return &cart.View{TotalDisplay: "₱0.00"}, nil
}

func (stubCartService) UpsertCart(ctx context.Context, input cart.UpsertInput) (*cart.View, error) {
	return &cart.View{}, nil
}

func (stubCartService) ClearCart(ctx context.Context, buyerID uuid.UUID) error {
	return nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Execute(ctx context.Context, input checkout.Input) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), OrderNumber: 42}, nil
}

type stubOrdersService struct {
	transitions []orders.TransitionInput
}

func (s *stubOrdersService) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, actorIsStaff bool) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (s *stubOrdersService) ListOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (s *stubOrdersService) RequestTransition(ctx context.Context, input orders.TransitionInput) error {
	s.transitions = append(s.transitions, input)
	return nil
}

func (s *stubOrdersService) RequestFulfillmentTransition(ctx context.Context, input orders.FulfillmentTransitionInput) error {
	return nil
}

func (s *stubOrdersService) RecordPayment(ctx context.Context, input orders.RecordPaymentInput) error {
	return nil
}

func (s *stubOrdersService) RefundPayments(ctx context.Context, input orders.RefundInput) error {
	return nil
}

func (s *stubOrdersService) AuditTotals(ctx context.Context, afterNumber int64, limit int) ([]orders.TotalsMismatch, int64, error) {
	return nil, afterNumber, nil
}

var routerJWT = config.JWTConfig{
	Secret:            "router-secret",
	Issuer:            "campusmerch-test",
	ExpirationMinutes: 15,
}

func newTestRouter(t *testing.T, ordersSvc *stubOrdersService) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: routerJWT,
	}
	return NewRouter(cfg, nil, metrics.New(), nil, nil, stubProductsService{}, stubCartService{}, stubCheckoutService{}, ordersSvc)
}

func bearerToken(t *testing.T, staff bool) string {
	t.Helper()
	role := enums.RoleStudent
	token, err := pkgAuth.MintAccessToken(routerJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   &role,
		Staff:  staff,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthEndpointsAreUnauthenticated(t *testing.T) {
	router := newTestRouter(t, &stubOrdersService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data["status"] != "live" {
		t.Fatalf("unexpected body %+v", envelope)
	}
}

func TestAPIRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, &stubOrdersService{})

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestCatalogReadsServeAnonymously(t *testing.T) {
	router := newTestRouter(t, &stubOrdersService{})

	for _, path := range []string{"/api/v1/products", "/api/v1/products/" + uuid.NewString()} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 without credentials, got %d", path, rec.Code)
		}
	}

	// A forged token is rejected, not downgraded to anonymous.
	req := httptest.NewRequest("GET", "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", rec.Code)
	}
}

func TestStaffRoutesRejectBuyers(t *testing.T) {
	ordersSvc := &stubOrdersService{}
	router := newTestRouter(t, ordersSvc)

	body := strings.NewReader(`{"target":"PROCESSING"}`)
	req := httptest.NewRequest("POST", "/api/v1/orders/"+uuid.NewString()+"/transition", body)
	req.Header.Set("Authorization", bearerToken(t, false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(ordersSvc.transitions) != 0 {
		t.Fatal("transition must not reach the service")
	}
}

func TestCatalogWritesRequireStaff(t *testing.T) {
	router := newTestRouter(t, &stubOrdersService{})

	body := strings.NewReader(`{"title":"Varsity Jacket"}`)
	req := httptest.NewRequest("POST", "/api/v1/products", body)
	req.Header.Set("Authorization", bearerToken(t, false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	body = strings.NewReader(`{"title":"Varsity Jacket"}`)
	req = httptest.NewRequest("POST", "/api/v1/products", body)
	req.Header.Set("Authorization", bearerToken(t, true))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStaffTransitionReachesService(t *testing.T) {
	ordersSvc := &stubOrdersService{}
	router := newTestRouter(t, ordersSvc)

	orderID := uuid.New()
	body := strings.NewReader(`{"target":"PROCESSING"}`)
	req := httptest.NewRequest("POST", "/api/v1/orders/"+orderID.String()+"/transition", body)
	req.Header.Set("Authorization", bearerToken(t, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ordersSvc.transitions) != 1 {
		t.Fatalf("expected one transition, got %d", len(ordersSvc.transitions))
	}
	got := ordersSvc.transitions[0]
	if got.OrderID != orderID || got.Target != enums.OrderStatusProcessing || !got.ActorIsStaff {
		t.Fatalf("unexpected transition input %+v", got)
	}
}

func TestBuyerCancelUsesCustomerRequestReason(t *testing.T) {
	ordersSvc := &stubOrdersService{}
	router := newTestRouter(t, ordersSvc)

	orderID := uuid.New()
	req := httptest.NewRequest("POST", "/api/v1/orders/"+orderID.String()+"/cancel", nil)
	req.Header.Set("Authorization", bearerToken(t, false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ordersSvc.transitions) != 1 {
		t.Fatalf("expected one transition, got %d", len(ordersSvc.transitions))
	}
	got := ordersSvc.transitions[0]
	if got.Target != enums.OrderStatusCancelled {
		t.Fatalf("unexpected target %s", got.Target)
	}
	if got.Reason == nil || *got.Reason != enums.CancellationReasonCustomerRequest {
		t.Fatalf("unexpected reason %v", got.Reason)
	}
	if got.ActorIsStaff {
		t.Fatal("buyer cancel must not carry staff privileges")
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(t, &stubOrdersService{})

	// Prime the request histogram so the family shows up in the scrape.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health/live", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_request_duration_seconds") {
		t.Fatal("expected request duration metric in exposition output")
	}
}

func TestCheckoutRoute(t *testing.T) {
	router := newTestRouter(t, &stubOrdersService{})

	req := httptest.NewRequest("POST", "/api/v1/checkout", nil)
	req.Header.Set("Authorization", bearerToken(t, false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}
