package checkout

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// memStore is an in-process stand-in for MongoStore with the same
// conditional-update semantics, guarded by a mutex so concurrent
// reservations observe the storage engine's per-document atomicity.
type memStore struct {
	mu         sync.Mutex
	products   map[primitive.ObjectID]*models.Product
	byLegacy   map[int]primitive.ObjectID
	orders     []models.Order
	carts      map[primitive.ObjectID][]models.CartItem
	failInsert bool
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[primitive.ObjectID]*models.Product),
		byLegacy: make(map[int]primitive.ObjectID),
		carts:    make(map[primitive.ObjectID][]models.CartItem),
	}
}

func (s *memStore) addProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	copied := p
	s.products[p.ID] = &copied
	if p.LegacyID != 0 {
		s.byLegacy[p.LegacyID] = p.ID
	}
	return p
}

func (s *memStore) stockOf(id primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) FindByRef(_ context.Context, ref string) (models.Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id primitive.ObjectID
	if parsed, err := primitive.ObjectIDFromHex(ref); err == nil {
		id = parsed
	} else if legacyID, err := strconv.Atoi(ref); err == nil {
		id = s.byLegacy[legacyID]
	} else {
		return models.Product{}, false, nil
	}

	product, ok := s.products[id]
	if !ok {
		return models.Product{}, false, nil
	}
	return *product, true, nil
}

func (s *memStore) Reserve(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok || product.Stock < qty {
		return false, nil
	}
	product.Stock -= qty
	return true, nil
}

func (s *memStore) Release(_ context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return errors.New("no such product")
	}
	product.Stock += qty
	return nil
}

func (s *memStore) Insert(_ context.Context, order models.Order) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failInsert {
		return primitive.NilObjectID, errors.New("insert failed")
	}
	order.ID = primitive.NewObjectID()
	s.orders = append(s.orders, order)
	return order.ID, nil
}

func (s *memStore) ClearCart(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[userID] = []models.CartItem{}
	return nil
}
