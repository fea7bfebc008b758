package checkout

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// Pricing holds the totals knobs applied at checkout.
type Pricing struct {
	TaxRate           float64
	FreeShippingAbove float64
	ShippingFee       float64
}

// Service runs the order placement workflow: resolve each cart line,
// reserve stock with atomic conditional decrements, snapshot prices and
// persist the order.
type Service struct {
	products ProductStore
	orders   OrderStore
	carts    CartStore
	pricing  Pricing
}

func NewService(products ProductStore, orders OrderStore, carts CartStore, pricing Pricing) *Service {
	return &Service{
		products: products,
		orders:   orders,
		carts:    carts,
		pricing:  pricing,
	}
}

// LineInput is one submitted cart line. Ref may be the generated key or
// the legacy numeric key.
type LineInput struct {
	Ref      string
	Quantity int
}

// PlaceOrderInput carries the submitted cart plus shipping and payment
// metadata.
type PlaceOrderInput struct {
	Items           []LineInput
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
}

type reservation struct {
	productID primitive.ObjectID
	quantity  int
}

// PlaceOrder processes the cart lines sequentially in submitted order.
// Stock is reserved per line via atomic conditional updates; if any line
// fails, reservations already applied are released before the error is
// returned, so a rejected order never leaves stock decremented.
func (s *Service) PlaceOrder(ctx context.Context, userID primitive.ObjectID, in PlaceOrderInput) (models.Order, error) {
	if err := validateInput(in); err != nil {
		return models.Order{}, err
	}

	// Resolve every reference before touching stock so a bad reference
	// rejects the order without any mutation.
	resolved := make([]models.Product, 0, len(in.Items))
	for _, line := range in.Items {
		product, found, err := s.products.FindByRef(ctx, line.Ref)
		if err != nil {
			return models.Order{}, StorageError{Err: err}
		}
		if !found {
			return models.Order{}, ProductNotFoundError{Ref: line.Ref}
		}
		if product.Stock < line.Quantity {
			return models.Order{}, InsufficientStockError{
				Name:      product.Name,
				Requested: line.Quantity,
				Available: product.Stock,
			}
		}
		resolved = append(resolved, product)
	}

	reserved := make([]reservation, 0, len(in.Items))
	items := make([]models.OrderItem, 0, len(in.Items))
	for i, line := range in.Items {
		product := resolved[i]

		ok, err := s.products.Reserve(ctx, product.ID, line.Quantity)
		if err != nil {
			s.releaseAll(ctx, reserved)
			return models.Order{}, StorageError{Err: err}
		}
		if !ok {
			// A concurrent order depleted the stock between the
			// pre-check and the reservation.
			available := 0
			if current, found, err := s.products.FindByRef(ctx, product.ID.Hex()); err == nil && found {
				available = current.Stock
			}
			s.releaseAll(ctx, reserved)
			return models.Order{}, InsufficientStockError{
				Name:      product.Name,
				Requested: line.Quantity,
				Available: available,
			}
		}
		reserved = append(reserved, reservation{productID: product.ID, quantity: line.Quantity})

		items = append(items, models.OrderItem{
			Product:  product.ID,
			LegacyID: product.LegacyID,
			Name:     product.Name,
			Image:    product.Image,
			Price:    product.Price,
			Quantity: line.Quantity,
		})
	}

	now := time.Now().UTC()
	order := models.Order{
		User:            userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.OrderStatusCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.ItemsPrice, order.TaxPrice, order.ShippingPrice, order.TotalPrice = s.computeTotals(items)

	id, err := s.orders.Insert(ctx, order)
	if err != nil {
		s.releaseAll(ctx, reserved)
		return models.Order{}, StorageError{Err: err}
	}
	order.ID = id

	// Best effort: the cart cache is not a source of truth for orders.
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		log.Println("[CHECKOUT] [WARN] cart clear failed:", err)
	}

	return order, nil
}

func validateInput(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return ValidationError{Msg: "at least one item is required"}
	}
	for _, line := range in.Items {
		if strings.TrimSpace(line.Ref) == "" {
			return ValidationError{Msg: "product reference is required"}
		}
		if line.Quantity <= 0 {
			return ValidationError{Msg: "quantity must be greater than zero"}
		}
	}
	if in.PaymentMethod != models.PaymentMethodCard && in.PaymentMethod != models.PaymentMethodCOD {
		return ValidationError{Msg: "invalid payment method"}
	}
	addr := in.ShippingAddress
	if strings.TrimSpace(addr.Address) == "" ||
		strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.PostalCode) == "" ||
		strings.TrimSpace(addr.Country) == "" {
		return ValidationError{Msg: "shipping address is incomplete"}
	}
	return nil
}

func (s *Service) computeTotals(items []models.OrderItem) (itemsPrice, taxPrice, shippingPrice, totalPrice float64) {
	for _, item := range items {
		itemsPrice += item.Price * float64(item.Quantity)
	}
	itemsPrice = round2(itemsPrice)

	taxPrice = round2(itemsPrice * s.pricing.TaxRate)
	if itemsPrice < s.pricing.FreeShippingAbove {
		shippingPrice = s.pricing.ShippingFee
	}
	totalPrice = round2(itemsPrice + taxPrice + shippingPrice)
	return
}

func (s *Service) releaseAll(ctx context.Context, reserved []reservation) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.products.Release(ctx, r.productID, r.quantity); err != nil {
			log.Println("[CHECKOUT] [ERROR] stock release failed for", r.productID.Hex(), ":", err)
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
