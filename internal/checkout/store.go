package checkout

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// ProductStore is the catalog port the checkout workflow depends on.
type ProductStore interface {
	// FindByRef resolves a product reference. The primary scheme is the
	// generated key; implementations fall back to the legacy numeric key.
	// found is false when neither scheme resolves.
	FindByRef(ctx context.Context, ref string) (product models.Product, found bool, err error)

	// Reserve decrements stock by qty only if stock >= qty, as one atomic
	// conditional update. ok is false when the precondition no longer held.
	Reserve(ctx context.Context, id primitive.ObjectID, qty int) (ok bool, err error)

	// Release returns a previously reserved quantity to stock.
	Release(ctx context.Context, id primitive.ObjectID, qty int) error
}

// OrderStore persists order documents.
type OrderStore interface {
	Insert(ctx context.Context, order models.Order) (primitive.ObjectID, error)
}

// CartStore clears the user's server-side cart cache after checkout.
type CartStore interface {
	ClearCart(ctx context.Context, userID primitive.ObjectID) error
}
