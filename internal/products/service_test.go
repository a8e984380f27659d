package products

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/metrics"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

type stubProductsRepo struct {
	products map[uuid.UUID]*models.Product
	variants map[uuid.UUID]*models.Variant
}

func newStubProductsRepo() *stubProductsRepo {
	return &stubProductsRepo{
		products: map[uuid.UUID]*models.Product{},
		variants: map[uuid.UUID]*models.Variant{},
	}
}

func (s *stubProductsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubProductsRepo) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *product
	clone.Variants = nil
	for _, variant := range s.variants {
		if variant.ProductID == productID {
			clone.Variants = append(clone.Variants, *variant)
		}
	}
	return &clone, nil
}

func (s *stubProductsRepo) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	variant, ok := s.variants[variantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return variant, nil
}

func (s *stubProductsRepo) List(ctx context.Context, query ListQuery) ([]models.Product, string, error) {
	var rows []models.Product
	for id := range s.products {
		product, _ := s.FindProduct(ctx, id)
		if query.ActiveOnly && !product.IsActive {
			continue
		}
		rows = append(rows, *product)
	}
	return rows, "", nil
}

func (s *stubProductsRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.Variants {
		if product.Variants[i].ID == uuid.Nil {
			product.Variants[i].ID = uuid.New()
		}
		product.Variants[i].ProductID = product.ID
		variant := product.Variants[i]
		s.variants[variant.ID] = &variant
	}
	stored := *product
	stored.Variants = nil
	s.products[product.ID] = &stored
	return product, nil
}

func (s *stubProductsRepo) Update(ctx context.Context, productID uuid.UUID, updates map[string]any) error {
	product, ok := s.products[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "title":
			if v, ok := value.(string); ok {
				product.Title = v
			}
		case "is_active":
			if v, ok := value.(bool); ok {
				product.IsActive = v
			}
		case "base_price":
			if v, ok := value.(*decimal.Decimal); ok {
				product.BasePrice = v
			}
		}
	}
	return nil
}

func (s *stubProductsRepo) SaveVariant(ctx context.Context, variant *models.Variant) (*models.Variant, error) {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	clone := *variant
	s.variants[variant.ID] = &clone
	return variant, nil
}

func (s *stubProductsRepo) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	delete(s.variants, variantID)
	return nil
}

func (s *stubProductsRepo) ReserveInventory(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	variant, ok := s.variants[variantID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if variant.Inventory < qty {
		return false, nil
	}
	variant.Inventory -= qty
	return true, nil
}

func (s *stubProductsRepo) ReleaseInventory(ctx context.Context, variantID uuid.UUID, qty int) error {
	variant, ok := s.variants[variantID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	variant.Inventory += qty
	return nil
}

type fakeCache struct {
	data     map[string]string
	gets     int
	hits     int
	scanDels []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.gets++
	if value, ok := f.data[key]; ok {
		f.hits++
		return value, nil
	}
	return "", nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s, ok := value.(string); ok {
		f.data[key] = s
	}
	return nil
}

func (f *fakeCache) ScanDel(ctx context.Context, pattern string) error {
	f.scanDels = append(f.scanDels, pattern)
	f.data = map[string]string{}
	return nil
}

func (f *fakeCache) PricingKey(productID, role, affiliation string) string {
	return "cm:pricing:" + productID + ":" + role + ":" + affiliation
}

func (f *fakeCache) PricingInvalidationPattern(productID string) string {
	return "cm:pricing:" + productID + ":*"
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func prodRolePtr(r enums.Role) *enums.Role {
	return &r
}

func prodAffPtr(a enums.Affiliation) *enums.Affiliation {
	return &a
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("unexpected error %v", err)
	}
}

func newCatalogService(t *testing.T, repo Repository, cache pricingCache) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, cache, 5*time.Minute, nil, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestCreateAndGetProduct(t *testing.T) {
	repo := newStubProductsRepo()
	svc := newCatalogService(t, repo, nil)

	ownerAff := enums.AffiliationCCS
	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		OwnerID:          uuid.New(),
		OwnerAffiliation: &ownerAff,
		Title:            "Varsity Jersey",
		Variants: []VariantInput{
			{Name: "Home Kit", BasePrice: money("500.00"), RolePrices: types.RolePriceMap{
				enums.RoleStudent.String(): decimal.RequireFromString("400.00"),
			}, Inventory: 10},
			{Name: "Away Kit", BasePrice: money("600.00"), Inventory: 5},
		},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}

	detail, err := svc.GetProduct(context.Background(), created.ID, Viewer{
		Role:        prodRolePtr(enums.RoleStudent),
		Affiliation: prodAffPtr(enums.AffiliationCCS),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(detail.Variants) != 2 {
		t.Fatalf("expected two variants got %d", len(detail.Variants))
	}
	if !detail.Pricing.IsRange {
		t.Fatal("expected a price range")
	}
	if detail.Pricing.Display != "₱400.00 - ₱600.00" {
		t.Fatalf("unexpected display %s", detail.Pricing.Display)
	}
}

func TestGetProductFallsBackToProductPricing(t *testing.T) {
	repo := newStubProductsRepo()
	svc := newCatalogService(t, repo, nil)

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		OwnerID:   uuid.New(),
		Title:     "Sticker Pack",
		BasePrice: money("120.00"),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}

	detail, err := svc.GetProduct(context.Background(), created.ID, Viewer{})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if detail.Pricing.IsRange {
		t.Fatal("expected single price")
	}
	if detail.Pricing.Display != "₱120.00" {
		t.Fatalf("unexpected display %s", detail.Pricing.Display)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newCatalogService(t, newStubProductsRepo(), nil)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{OwnerID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateProduct(context.Background(), CreateProductInput{
		OwnerID:   uuid.New(),
		Title:     "Bad",
		BasePrice: money("-1"),
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestDisplayPricingUsesCache(t *testing.T) {
	repo := newStubProductsRepo()
	cache := newFakeCache()
	svc := newCatalogService(t, repo, cache)

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		OwnerID:   uuid.New(),
		Title:     "Lanyard",
		BasePrice: money("80.00"),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}

	viewer := Viewer{Role: prodRolePtr(enums.RoleStudent), Affiliation: prodAffPtr(enums.AffiliationCEA)}
	if _, err := svc.GetProduct(context.Background(), created.ID, viewer); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	firstHits := cache.hits
	if _, err := svc.GetProduct(context.Background(), created.ID, viewer); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if cache.hits <= firstHits {
		t.Fatal("expected a cache hit on the second read")
	}
}

func TestDisplayPricingCountsResolutionSource(t *testing.T) {
	repo := newStubProductsRepo()
	cache := newFakeCache()
	m := metrics.New()
	svc, err := NewService(repo, stubTxRunner{}, cache, 5*time.Minute, nil, m)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		OwnerID:   uuid.New(),
		Title:     "Tumbler",
		BasePrice: money("250.00"),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}

	viewer := Viewer{Role: prodRolePtr(enums.RoleStudent), Affiliation: prodAffPtr(enums.AffiliationCEA)}
	if _, err := svc.GetProduct(context.Background(), created.ID, viewer); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if _, err := svc.GetProduct(context.Background(), created.ID, viewer); err != nil {
		t.Fatalf("expected success got %v", err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `pricing_resolutions_total{source="cache"} 1`) {
		t.Fatalf("expected one cache-sourced resolution, scrape:\n%s", body)
	}
	if !strings.Contains(body, `pricing_resolutions_total{source="computed"}`) {
		t.Fatalf("expected computed resolutions to be counted, scrape:\n%s", body)
	}
}

func TestUpdateProductInvalidatesCache(t *testing.T) {
	repo := newStubProductsRepo()
	cache := newFakeCache()
	svc := newCatalogService(t, repo, cache)

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		OwnerID:   uuid.New(),
		Title:     "Hoodie",
		BasePrice: money("900.00"),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if _, err := svc.GetProduct(context.Background(), created.ID, Viewer{}); err != nil {
		t.Fatalf("expected success got %v", err)
	}

	newPrice := money("950.00")
	_, err = svc.UpdateProduct(context.Background(), created.ID, UpdateProductInput{BasePrice: newPrice})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(cache.scanDels) != 1 {
		t.Fatalf("expected one invalidation got %d", len(cache.scanDels))
	}
}

func TestUpdateProductReconcilesVariants(t *testing.T) {
	repo := newStubProductsRepo()
	svc := newCatalogService(t, repo, nil)

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		OwnerID: uuid.New(),
		Title:   "Cap",
		Variants: []VariantInput{
			{Name: "Small", BasePrice: money("250.00"), Inventory: 3},
			{Name: "Large", BasePrice: money("250.00"), Inventory: 4},
		},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	keepID := created.Variants[0].ID

	updated, err := svc.UpdateProduct(context.Background(), created.ID, UpdateProductInput{
		Variants: []VariantInput{
			{ID: &keepID, Name: "Small", BasePrice: money("260.00"), Inventory: 3},
			{Name: "Extra Large", BasePrice: money("280.00"), Inventory: 2},
		},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(updated.Variants) != 2 {
		t.Fatalf("expected two variants got %d", len(updated.Variants))
	}
	names := map[string]bool{}
	for _, variant := range updated.Variants {
		names[variant.Name] = true
	}
	if !names["Small"] || !names["Extra Large"] || names["Large"] {
		t.Fatalf("unexpected variant set %v", names)
	}
}

func TestInventoryReserveRelease(t *testing.T) {
	repo := newStubProductsRepo()
	variantID := uuid.New()
	repo.variants[variantID] = &models.Variant{ID: variantID, ProductID: uuid.New(), Name: "Kit", Inventory: 2}
	inventory := NewInventory(repo)

	if err := inventory.Reserve(context.Background(), nil, variantID, 2); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	err := inventory.Reserve(context.Background(), nil, variantID, 1)
	expectCode(t, err, pkgerrors.CodeConflict)

	if err := inventory.Release(context.Background(), nil, variantID, 2); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.variants[variantID].Inventory != 2 {
		t.Fatalf("expected restored inventory got %d", repo.variants[variantID].Inventory)
	}
}
