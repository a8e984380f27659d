package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/internal/pricing"
	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the buyer cart operations.
type Service interface {
	GetCart(ctx context.Context, buyerID uuid.UUID, role *enums.Role, affiliation *enums.Affiliation) (*View, error)
	UpsertCart(ctx context.Context, input UpsertInput) (*View, error)
	ClearCart(ctx context.Context, buyerID uuid.UUID) error
}

type service struct {
	repo    CartRepository
	tx      txRunner
	catalog CatalogLoader
}

// NewService builds a cart service with the required dependencies.
func NewService(repo CartRepository, tx txRunner, catalog CatalogLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID, role *enums.Role, affiliation *enums.Affiliation) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	record, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &View{Items: []ItemView{}, TotalDisplay: types.FormatPeso(decimal.Zero)}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.buildView(ctx, record, role, affiliation)
}

func (s *service) UpsertCart(ctx context.Context, input UpsertInput) (*View, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}

	var record *models.CartRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items := make([]models.CartItem, 0, len(input.Items))
		for _, item := range input.Items {
			product, err := s.catalog.FindProduct(ctx, item.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
			}
			if item.VariantID != nil {
				variant, err := s.catalog.FindVariant(ctx, *item.VariantID)
				if err != nil {
					if err == gorm.ErrRecordNotFound {
						return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
				}
				if variant.ProductID != product.ID {
					return pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
				}
				if variant.Inventory < item.Quantity {
					return pkgerrors.New(pkgerrors.CodeConflict, "insufficient inventory").
						WithDetails(map[string]any{"variant_id": variant.ID, "available": variant.Inventory})
				}
			}
			items = append(items, models.CartItem{
				ProductID:    item.ProductID,
				VariantID:    item.VariantID,
				Quantity:     item.Quantity,
				Size:         item.Size,
				CustomerNote: item.CustomerNote,
			})
		}

		existing, err := repo.FindActiveByBuyer(ctx, input.BuyerID)
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
			}
			existing, err = repo.Create(ctx, &models.CartRecord{BuyerID: input.BuyerID})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		}
		if err := repo.ReplaceItems(ctx, existing.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart items")
		}

		record, err = repo.FindActiveByBuyer(ctx, input.BuyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, record, input.Role, input.Affiliation)
}

func (s *service) ClearCart(ctx context.Context, buyerID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindActiveByBuyer(ctx, buyerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := repo.ReplaceItems(ctx, record.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		return nil
	})
}

// buildView resolves display pricing for each line at read time. The
// numbers shown here are advisory; the binding resolution happens at
// checkout.
func (s *service) buildView(ctx context.Context, record *models.CartRecord, role *enums.Role, affiliation *enums.Affiliation) (*View, error) {
	view := &View{ID: record.ID, Items: make([]ItemView, 0, len(record.Items))}
	total := decimal.Zero
	for _, item := range record.Items {
		product, err := s.catalog.FindProduct(ctx, item.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		name := product.Title
		input := pricing.FromProduct(*product)
		if item.VariantID != nil {
			variant, err := s.catalog.FindVariant(ctx, *item.VariantID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					continue
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
			}
			name = fmt.Sprintf("%s - %s", product.Title, variant.Name)
			input = pricing.FromVariant(*variant)
		}

		resolved := pricing.Resolve(input, role, affiliation, product.OwnerAffiliation)
		line := resolved.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
		view.Items = append(view.Items, ItemView{
			ID:              item.ID,
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			Name:            name,
			Quantity:        item.Quantity,
			Size:            item.Size,
			CustomerNote:    item.CustomerNote,
			UnitDisplay:     resolved.Display,
			OriginalDisplay: resolved.OriginalDisplay,
			AppliedRole:     resolved.AppliedRole,
			LineDisplay:     types.FormatPeso(line),
		})
	}
	view.TotalDisplay = types.FormatPeso(total)
	return view, nil
}
