package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Address:    "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func newTestService(store *memStore, pricing Pricing) *Service {
	return NewService(store, store, store, pricing)
}

func TestPlaceOrderSnapshotsPriceAndDecrementsStock(t *testing.T) {
	store := newMemStore()
	product := store.addProduct(models.Product{Name: "Widget", Price: 100, Stock: 1})
	svc := newTestService(store, Pricing{})
	user := primitive.NewObjectID()

	order, err := svc.PlaceOrder(context.Background(), user, PlaceOrderInput{
		Items:           []LineInput{{Ref: product.ID.Hex(), Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.Product != product.ID || item.Quantity != 1 || item.Price != 100 {
		t.Fatalf("unexpected item snapshot: %+v", item)
	}
	if order.TotalPrice != 100 {
		t.Fatalf("expected total 100, got %v", order.TotalPrice)
	}
	if order.Status != models.OrderStatusCreated || order.IsPaid {
		t.Fatalf("expected created unpaid order, got status=%s isPaid=%v", order.Status, order.IsPaid)
	}
	if got := store.stockOf(product.ID); got != 0 {
		t.Fatalf("expected stock 0 after order, got %d", got)
	}

	// The same order again must now fail: the single unit is gone.
	_, err = svc.PlaceOrder(context.Background(), user, PlaceOrderInput{
		Items:           []LineInput{{Ref: product.ID.Hex(), Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	var stockErr InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Name != "Widget" || stockErr.Available != 0 || stockErr.Requested != 1 {
		t.Fatalf("unexpected stock error detail: %+v", stockErr)
	}
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	store := newMemStore()
	a := store.addProduct(models.Product{Name: "A", Price: 30, Stock: 10})
	b := store.addProduct(models.Product{Name: "B", Price: 15, Stock: 10})
	svc := newTestService(store, Pricing{TaxRate: 0.15, FreeShippingAbove: 100, ShippingFee: 10})

	order, err := svc.PlaceOrder(context.Background(), primitive.NewObjectID(), PlaceOrderInput{
		Items: []LineInput{
			{Ref: a.ID.Hex(), Quantity: 2},
			{Ref: b.ID.Hex(), Quantity: 2},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if order.ItemsPrice != 90 {
		t.Fatalf("expected itemsPrice 90, got %v", order.ItemsPrice)
	}
	if order.TaxPrice != 13.5 {
		t.Fatalf("expected taxPrice 13.5, got %v", order.TaxPrice)
	}
	if order.ShippingPrice != 10 {
		t.Fatalf("expected shippingPrice 10 below free threshold, got %v", order.ShippingPrice)
	}
	if order.TotalPrice != 113.5 {
		t.Fatalf("expected total 113.5, got %v", order.TotalPrice)
	}
}

func TestPlaceOrderFreeShippingAtThreshold(t *testing.T) {
	store := newMemStore()
	p := store.addProduct(models.Product{Name: "P", Price: 100, Stock: 5})
	svc := newTestService(store, Pricing{TaxRate: 0.15, FreeShippingAbove: 100, ShippingFee: 10})

	order, err := svc.PlaceOrder(context.Background(), primitive.NewObjectID(), PlaceOrderInput{
		Items:           []LineInput{{Ref: p.ID.Hex(), Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	if order.ShippingPrice != 0 {
		t.Fatalf("expected free shipping at threshold, got %v", order.ShippingPrice)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	store := newMemStore()
	p := store.addProduct(models.Product{Name: "P", Price: 10, Stock: 5})
	svc := newTestService(store, Pricing{})
	user := primitive.NewObjectID()

	cases := []struct {
		name  string
		input PlaceOrderInput
	}{
		{
			name: "empty cart",
			input: PlaceOrderInput{
				ShippingAddress: testAddress(),
				PaymentMethod:   models.PaymentMethodCard,
			},
		},
		{
			name: "zero quantity",
			input: PlaceOrderInput{
				Items:           []LineInput{{Ref: p.ID.Hex(), Quantity: 0}},
				ShippingAddress: testAddress(),
				PaymentMethod:   models.PaymentMethodCard,
			},
		},
		{
			name: "negative quantity",
			input: PlaceOrderInput{
				Items:           []LineInput{{Ref: p.ID.Hex(), Quantity: -1}},
				ShippingAddress: testAddress(),
				PaymentMethod:   models.PaymentMethodCard,
			},
		},
		{
			name: "unknown payment method",
			input: PlaceOrderInput{
				Items:           []LineInput{{Ref: p.ID.Hex(), Quantity: 1}},
				ShippingAddress: testAddress(),
				PaymentMethod:   "barter",
			},
		},
		{
			name: "incomplete address",
			input: PlaceOrderInput{
				Items:           []LineInput{{Ref: p.ID.Hex(), Quantity: 1}},
				ShippingAddress: models.ShippingAddress{Address: "1 Main St"},
				PaymentMethod:   models.PaymentMethodCard,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), user, tc.input)
			var validationErr ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if got := store.stockOf(p.ID); got != 5 {
				t.Fatalf("stock mutated by rejected input: %d", got)
			}
		})
	}
}

func TestPlaceOrderUnknownProductLeavesStockUntouched(t *testing.T) {
	store := newMemStore()
	known := store.addProduct(models.Product{Name: "Known", Price: 10, Stock: 5})
	svc := newTestService(store, Pricing{})

	_, err := svc.PlaceOrder(context.Background(), primitive.NewObjectID(), PlaceOrderInput{
		Items: []LineInput{
			{Ref: known.ID.Hex(), Quantity: 2},
			{Ref: primitive.NewObjectID().Hex(), Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCard,
	})

	var notFoundErr ProductNotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
	if got := store.stockOf(known.ID); got != 5 {
		t.Fatalf("earlier line left stock decremented: %d", got)
	}
}

func TestPlaceOrderReleasesReservationsWhenInsertFails(t *testing.T) {
	store := newMemStore()
	p := store.addProduct(models.Product{Name: "P", Price: 10, Stock: 5})
	store.failInsert = true
	svc := newTestService(store, Pricing{})

	_, err := svc.PlaceOrder(context.Background(), primitive.NewObjectID(), PlaceOrderInput{
		Items:           []LineInput{{Ref: p.ID.Hex(), Quantity: 3}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCard,
	})

	var storageErr StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if got := store.stockOf(p.ID); got != 5 {
		t.Fatalf("reservation not released after insert failure: %d", got)
	}
}

func TestPlaceOrderResolvesLegacyNumericKey(t *testing.T) {
	store := newMemStore()
	p := store.addProduct(models.Product{Name: "Legacy", LegacyID: 7, Price: 25, Stock: 3})
	svc := newTestService(store, Pricing{})

	order, err := svc.PlaceOrder(context.Background(), primitive.NewObjectID(), PlaceOrderInput{
		Items:           []LineInput{{Ref: "7", Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	if order.Items[0].Product != p.ID {
		t.Fatalf("legacy ref resolved to wrong product: %v", order.Items[0].Product)
	}
	if order.Items[0].LegacyID != 7 {
		t.Fatalf("legacy id missing from snapshot: %+v", order.Items[0])
	}
	if got := store.stockOf(p.ID); got != 1 {
		t.Fatalf("expected stock 1, got %d", got)
	}
}

func TestPlaceOrderClearsCartCache(t *testing.T) {
	store := newMemStore()
	p := store.addProduct(models.Product{Name: "P", Price: 10, Stock: 5})
	svc := newTestService(store, Pricing{})
	user := primitive.NewObjectID()
	store.carts[user] = []models.CartItem{{Product: p.ID, Quantity: 2}}

	_, err := svc.PlaceOrder(context.Background(), user, PlaceOrderInput{
		Items:           []LineInput{{Ref: p.ID.Hex(), Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	if got := len(store.carts[user]); got != 0 {
		t.Fatalf("cart cache not cleared, %d items left", got)
	}
}

// Two concurrent orders both requesting the full remaining stock: the
// conditional reservation lets exactly one through and stock never goes
// negative.
func TestConcurrentCheckoutOfLastStock(t *testing.T) {
	store := newMemStore()
	p := store.addProduct(models.Product{Name: "Scarce", Price: 50, Stock: 5})
	svc := newTestService(store, Pricing{})

	const attempts = 2
	results := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), primitive.NewObjectID(), PlaceOrderInput{
				Items:           []LineInput{{Ref: p.ID.Hex(), Quantity: 5}},
				ShippingAddress: testAddress(),
				PaymentMethod:   models.PaymentMethodCard,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	conflicts := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr InsufficientStockError
		if errors.As(err, &stockErr) {
			conflicts++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d conflicts", succeeded, conflicts)
	}
	if got := store.stockOf(p.ID); got != 0 {
		t.Fatalf("stock went to %d, want 0", got)
	}
}
