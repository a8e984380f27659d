package products

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/internal/pricing"
	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
	"github.com/campusmerch/campusmerch-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// pricingCache is the slice of the redis client the catalog needs.
type pricingCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ScanDel(ctx context.Context, pattern string) error
	PricingKey(productID, role, affiliation string) string
	PricingInvalidationPattern(productID string) string
}

// Service exposes catalog operations.
type Service interface {
	ListProducts(ctx context.Context, viewer Viewer, query ListQuery) (*ListResult, error)
	GetProduct(ctx context.Context, productID uuid.UUID, viewer Viewer) (*Detail, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*Detail, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*Detail, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	cache    pricingCache
	cacheTTL time.Duration
	logg     *logger.Logger
	m        *metrics.Metrics
}

// NewService builds the catalog service. The cache and metrics are
// optional; without a cache every view recomputes pricing.
func NewService(repo Repository, tx txRunner, cache pricingCache, cacheTTL time.Duration, logg *logger.Logger, m *metrics.Metrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		cache:    cache,
		cacheTTL: cacheTTL,
		logg:     logg,
		m:        m,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, viewer Viewer, query ListQuery) (*ListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	result := &ListResult{Products: make([]Summary, 0, len(rows)), NextCursor: nextCursor}
	for _, product := range rows {
		result.Products = append(result.Products, Summary{
			ID:        product.ID,
			Title:     product.Title,
			IsActive:  product.IsActive,
			Pricing:   s.displayPricing(ctx, &product, viewer),
			CreatedAt: product.CreatedAt,
		})
	}
	return result, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID, viewer Viewer) (*Detail, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return s.buildDetail(ctx, product, viewer), nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*Detail, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.BasePrice != nil && input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	for _, variant := range input.Variants {
		if variant.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name required")
		}
		if variant.Inventory < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant inventory cannot be negative")
		}
	}

	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product := &models.Product{
			OwnerID:          input.OwnerID,
			OwnerAffiliation: input.OwnerAffiliation,
			Title:            input.Title,
			Description:      input.Description,
			BasePrice:        input.BasePrice,
			RolePrices:       input.RolePrices,
			Sizes:            pq.StringArray(input.Sizes),
			IsActive:         true,
		}
		for _, variant := range input.Variants {
			product.Variants = append(product.Variants, models.Variant{
				Name:       variant.Name,
				Size:       variant.Size,
				BasePrice:  variant.BasePrice,
				RolePrices: variant.RolePrices,
				Inventory:  variant.Inventory,
			})
		}

		var err error
		created, err = repo.Create(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, created, Viewer{}), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*Detail, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.BasePrice != nil && input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProduct(ctx, productID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		updates := map[string]any{}
		if input.Title != nil {
			updates["title"] = *input.Title
		}
		if input.Description != nil {
			updates["description"] = input.Description
		}
		if input.BasePrice != nil {
			updates["base_price"] = input.BasePrice
		}
		if input.RolePrices != nil {
			updates["role_prices"] = input.RolePrices
		}
		if input.Sizes != nil {
			updates["sizes"] = pq.StringArray(input.Sizes)
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}
		if len(updates) > 0 {
			if err := repo.Update(ctx, product.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
			}
		}

		if input.Variants != nil {
			if err := s.reconcileVariants(ctx, repo, product, input.Variants); err != nil {
				return err
			}
		}

		updated, err = repo.FindProduct(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePricing(ctx, productID)
	return s.buildDetail(ctx, updated, Viewer{}), nil
}

// reconcileVariants applies the desired variant set: inputs with IDs
// update in place, inputs without IDs insert, stored variants missing
// from the input are removed.
func (s *service) reconcileVariants(ctx context.Context, repo Repository, product *models.Product, inputs []VariantInput) error {
	keep := map[uuid.UUID]bool{}
	for _, input := range inputs {
		if input.Name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant name required")
		}
		if input.Inventory < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant inventory cannot be negative")
		}
		variant := models.Variant{
			ProductID:  product.ID,
			Name:       input.Name,
			Size:       input.Size,
			BasePrice:  input.BasePrice,
			RolePrices: input.RolePrices,
			Inventory:  input.Inventory,
		}
		if input.ID != nil {
			variant.ID = *input.ID
			keep[*input.ID] = true
		}
		saved, err := repo.SaveVariant(ctx, &variant)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save variant")
		}
		keep[saved.ID] = true
	}
	for _, existing := range product.Variants {
		if keep[existing.ID] {
			continue
		}
		if err := repo.DeleteVariant(ctx, existing.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variant")
		}
	}
	return nil
}

func (s *service) buildDetail(ctx context.Context, product *models.Product, viewer Viewer) *Detail {
	detail := &Detail{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		Sizes:       product.Sizes,
		IsActive:    product.IsActive,
		Pricing:     s.displayPricing(ctx, product, viewer),
		CreatedAt:   product.CreatedAt,
	}
	for _, variant := range product.Variants {
		resolved := pricing.Resolve(pricing.FromVariant(variant), viewer.Role, viewer.Affiliation, product.OwnerAffiliation)
		detail.Variants = append(detail.Variants, VariantView{
			ID:        variant.ID,
			Name:      variant.Name,
			Size:      variant.Size,
			Inventory: variant.Inventory,
			Pricing: PricingView{
				Display:         resolved.Display,
				OriginalDisplay: resolved.OriginalDisplay,
				AppliedRole:     resolved.AppliedRole,
				IsFallback:      resolved.IsFallback,
			},
		})
	}
	return detail
}

// displayPricing computes the product-level price block, consulting the
// cache first. Cache failures fall through to computation; pricing is
// never allowed to fail a read.
func (s *service) displayPricing(ctx context.Context, product *models.Product, viewer Viewer) PricingView {
	var key string
	if s.cache != nil {
		key = s.cache.PricingKey(product.ID.String(), roleLabel(viewer.Role), affiliationLabel(viewer.Affiliation))
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var view PricingView
			if err := json.Unmarshal([]byte(raw), &view); err == nil {
				s.m.IncPricingResolution("cache")
				return view
			}
		}
	}

	view := computePricing(product, viewer)
	s.m.IncPricingResolution("computed")

	if s.cache != nil {
		if payload, err := json.Marshal(view); err == nil {
			if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "product_id", product.ID.String()), "pricing cache write failed")
			}
		}
	}
	return view
}

func computePricing(product *models.Product, viewer Viewer) PricingView {
	if len(product.Variants) > 0 {
		inputs := make([]pricing.VariantPricing, len(product.Variants))
		for i, variant := range product.Variants {
			inputs[i] = pricing.FromVariant(variant)
		}
		aggregated, err := pricing.Aggregate(inputs, viewer.Role, viewer.Affiliation, product.OwnerAffiliation)
		if err == nil {
			return PricingView{
				Display:         aggregated.Display,
				OriginalDisplay: aggregated.OriginalDisplay,
				AppliedRole:     aggregated.AppliedRole,
				IsRange:         aggregated.IsRange,
				IsFallback:      aggregated.IsFallback,
			}
		}
	}

	resolved := pricing.Resolve(pricing.FromProduct(*product), viewer.Role, viewer.Affiliation, product.OwnerAffiliation)
	return PricingView{
		Display:         resolved.Display,
		OriginalDisplay: resolved.OriginalDisplay,
		AppliedRole:     resolved.AppliedRole,
		IsFallback:      resolved.IsFallback,
	}
}

func (s *service) invalidatePricing(ctx context.Context, productID uuid.UUID) {
	if s.cache == nil {
		return
	}
	pattern := s.cache.PricingInvalidationPattern(productID.String())
	if err := s.cache.ScanDel(ctx, pattern); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", productID.String()), "pricing cache invalidation failed")
	}
}

func roleLabel(role *enums.Role) string {
	if role == nil {
		return ""
	}
	return role.String()
}

func affiliationLabel(affiliation *enums.Affiliation) string {
	if affiliation == nil {
		return ""
	}
	return affiliation.String()
}
