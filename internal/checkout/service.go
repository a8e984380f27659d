package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/internal/cart"
	"github.com/campusmerch/campusmerch-backend/internal/orders"
	"github.com/campusmerch/campusmerch-backend/internal/pricing"
	"github.com/campusmerch/campusmerch-backend/pkg/db"
	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type inventoryReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
}

// Input identifies the buyer converting their active cart.
type Input struct {
	BuyerID     uuid.UUID
	Role        *enums.Role
	Affiliation *enums.Affiliation
}

// OrderCreatedEvent is emitted once per successful checkout.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber int64           `json:"order_number"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// Service converts the buyer's active cart into an order.
type Service interface {
	Execute(ctx context.Context, input Input) (*models.Order, error)
}

type service struct {
	tx        txRunner
	cartRepo  cart.CartRepository
	orderRepo orders.Repository
	catalog   cart.CatalogLoader
	inventory inventoryReserver
	outbox    outboxPublisher
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	orderRepo orders.Repository,
	catalog cart.CatalogLoader,
	inventory inventoryReserver,
	publisher outboxPublisher,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory reserver required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:        tx,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		catalog:   catalog,
		inventory: inventory,
		outbox:    publisher,
	}, nil
}

// Execute runs the whole conversion in one transaction: pricing is
// resolved at this instant and copied into the order items as permanent
// snapshots, inventory is decremented, and the cart is marked converted.
// Any failure rolls everything back.
func (s *service) Execute(ctx context.Context, input Input) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		record, err := cartRepo.FindActiveByBuyer(ctx, input.BuyerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeValidation, "no active cart")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}

		productCache := map[uuid.UUID]*models.Product{}
		items := make([]models.OrderItem, 0, len(record.Items))
		for _, line := range record.Items {
			product, err := s.loadProduct(ctx, line.ProductID, productCache)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available").
					WithDetails(map[string]any{"product_id": product.ID})
			}

			name := product.Title
			priceInput := pricing.FromProduct(*product)
			if line.VariantID != nil {
				variant, err := s.catalog.FindVariant(ctx, *line.VariantID)
				if err != nil {
					if err == gorm.ErrRecordNotFound {
						return pkgerrors.New(pkgerrors.CodeConflict, "variant is no longer available")
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
				}
				if variant.ProductID != product.ID {
					return pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
				}
				if err := s.inventory.Reserve(ctx, tx, variant.ID, line.Quantity); err != nil {
					return err
				}
				name = fmt.Sprintf("%s - %s", product.Title, variant.Name)
				priceInput = pricing.FromVariant(*variant)
			}

			resolved := pricing.Resolve(priceInput, input.Role, input.Affiliation, product.OwnerAffiliation)
			productID := line.ProductID
			items = append(items, models.OrderItem{
				ProductID:     &productID,
				VariantID:     line.VariantID,
				Name:          name,
				Size:          line.Size,
				Quantity:      line.Quantity,
				Price:         resolved.UnitPrice,
				OriginalPrice: resolved.OriginalPrice,
				AppliedRole:   resolved.AppliedRole,
				CustomerNote:  line.CustomerNote,
			})
		}

		number, err := orderRepo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		order := &models.Order{
			OrderNumber:    number,
			BuyerID:        input.BuyerID,
			Status:         enums.OrderStatusPending,
			PaymentStatus:  enums.PaymentStatusPending,
			TotalAmount:    orders.ComputeTotal(items, decimal.Zero),
			DiscountAmount: decimal.Zero,
			Version:        1,
			Items:          items,
			Fulfillment:    &models.Fulfillment{Status: enums.FulfillmentStatusPending},
		}
		created, err = orderRepo.CreateOrder(ctx, order)
		if err != nil {
			// Two concurrent checkouts can race on MAX(order_number)+1.
			if db.IsUniqueViolation(err, "idx_orders_order_number") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken, retry checkout")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := orderRepo.AppendStatusLog(ctx, &models.OrderStatusLog{
			OrderID:   created.ID,
			Status:    enums.OrderStatusPending.String(),
			Message:   fmt.Sprintf("order #%d created from cart", created.OrderNumber),
			CreatedBy: &input.BuyerID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
		}

		if err := cartRepo.UpdateStatus(ctx, record.ID, input.BuyerID, enums.CartStatusConverted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
		}

		itemCount := 0
		for _, item := range items {
			itemCount += item.Quantity
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID},
			Data: OrderCreatedEvent{
				OrderID:     created.ID,
				OrderNumber: created.OrderNumber,
				BuyerID:     created.BuyerID,
				TotalAmount: created.TotalAmount,
				ItemCount:   itemCount,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID, cache map[uuid.UUID]*models.Product) (*models.Product, error) {
	if product, ok := cache[productID]; ok {
		return product, nil
	}
	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	cache[productID] = product
	return product, nil
}
